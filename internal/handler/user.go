package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/middleware"
	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/model"
	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/repository"
)

type TelegramLoginRequest struct {
	InitData string `json:"initData"`

	// Explicit profile fields, used when the client does not send initData.
	TelegramID        int64   `json:"telegramId"`
	TelegramFirstName *string `json:"telegramFirstName"`
	TelegramLastName  *string `json:"telegramLastName"`
	TelegramUsername  *string `json:"telegramUsername"`
	TelegramPhotoURL  *string `json:"telegramPhotoUrl"`

	ReferralCode string `json:"referralCode"`
}

type UpdateUsernameRequest struct {
	Username string `json:"username"`
}

// LoginTelegram verifies the WebApp initData, registers the user on first
// sight and issues a bearer token. A referral code riding along is applied
// after login; a failed bind never fails the login itself.
func (h *Handler) LoginTelegram(c *fiber.Ctx) error {
	var req TelegramLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	var profile model.TelegramProfile
	if req.InitData != "" {
		initData, err := middleware.ValidateTelegramInitData(req.InitData, h.cfg.Telegram.BotToken)
		if err != nil {
			if errors.Is(err, middleware.ErrInitDataExpired) {
				return fail(c, fiber.StatusUnauthorized, "login session expired, reopen the app")
			}
			return fail(c, fiber.StatusUnauthorized, "telegram authorization failed")
		}
		if initData.UserID == 0 {
			return fail(c, fiber.StatusUnauthorized, "telegram authorization failed")
		}
		profile = model.TelegramProfile{
			TelegramID: initData.UserID,
			FirstName:  optional(initData.FirstName),
			LastName:   optional(initData.LastName),
			Username:   optional(initData.Username),
			PhotoURL:   optional(initData.PhotoURL),
		}
	} else {
		if req.TelegramID == 0 {
			return fail(c, fiber.StatusBadRequest, "telegramId is required")
		}
		profile = model.TelegramProfile{
			TelegramID: req.TelegramID,
			FirstName:  req.TelegramFirstName,
			LastName:   req.TelegramLastName,
			Username:   req.TelegramUsername,
			PhotoURL:   req.TelegramPhotoURL,
		}
	}

	user, created, err := h.userSvc.LoginOrRegisterTelegram(c.Context(), profile)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to log in")
	}

	var referral *model.BindResult
	if req.ReferralCode != "" || user.BotReferralPending {
		result, err := h.referralSvc.BindAndReward(c.Context(), user.ID, req.ReferralCode)
		if err != nil {
			log.Error().Err(err).Str("user_id", user.ID.String()).Msg("referral bind during login failed")
		} else {
			referral = &result
			if result.Status == model.BindStatusBound {
				// Re-read so the response carries the bound state.
				if fresh, err := h.userSvc.GetUser(c.Context(), user.ID); err == nil {
					user = fresh
				}
			}
		}
	}

	token, err := h.jwt.GenerateToken(user.ID)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to issue token")
	}

	data := fiber.Map{
		"token":   token,
		"user":    user,
		"created": created,
	}
	if referral != nil {
		data["referral"] = fiber.Map{"status": referral.Status}
	}

	message := "logged in"
	if created {
		message = "registered"
	}
	return ok(c, fiber.StatusOK, message, data)
}

func (h *Handler) GetProfile(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	user, err := h.userSvc.GetUser(c.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, fiber.StatusNotFound, "user not found")
		}
		return fail(c, fiber.StatusInternalServerError, "failed to load profile")
	}
	return ok(c, fiber.StatusOK, "profile", fiber.Map{"user": user})
}

func (h *Handler) UpdateUsername(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req UpdateUsernameRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Username == "" {
		return fail(c, fiber.StatusBadRequest, "username is required")
	}

	user, err := h.userSvc.UpdateUsername(c.Context(), userID, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, fiber.StatusNotFound, "user not found")
		}
		return fail(c, fiber.StatusInternalServerError, "failed to update username")
	}
	return ok(c, fiber.StatusOK, "username updated", fiber.Map{"user": user})
}

func (h *Handler) GetDetails(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	user, err := h.userSvc.GetUser(c.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, fiber.StatusNotFound, "user not found")
		}
		return fail(c, fiber.StatusInternalServerError, "failed to load details")
	}

	details := model.UserDetails{
		FullName:     user.FullName,
		Email:        user.Email,
		MobileNumber: user.MobileNumber,
		XUsername:    user.XUsername,
	}
	return ok(c, fiber.StatusOK, "details", fiber.Map{"details": details})
}

func (h *Handler) UpdateDetails(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req model.UserDetails
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.userSvc.UpdateDetails(c.Context(), userID, req)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, fiber.StatusNotFound, "user not found")
		}
		return fail(c, fiber.StatusInternalServerError, "failed to update details")
	}
	return ok(c, fiber.StatusOK, "details updated", fiber.Map{"user": user})
}

func (h *Handler) AgreeToTerms(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	user, err := h.userSvc.AgreeToTerms(c.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, fiber.StatusNotFound, "user not found")
		}
		return fail(c, fiber.StatusInternalServerError, "failed to record agreement")
	}
	return ok(c, fiber.StatusOK, "agreement recorded", fiber.Map{"user": user})
}

func (h *Handler) GetTransactions(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	transactions, err := h.userSvc.GetTransactions(c.Context(), userID, limit, offset)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to load transactions")
	}
	return ok(c, fiber.StatusOK, "transactions", fiber.Map{"transactions": transactions})
}

func (h *Handler) GetLeaderboard(c *fiber.Ctx) error {
	entries, err := h.userSvc.GetLeaderboard(c.Context())
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to load leaderboard")
	}
	return ok(c, fiber.StatusOK, "leaderboard", fiber.Map{"leaderboard": entries})
}

// Logout is stateless: tokens expire on their own, the client just drops its
// copy. The endpoint exists so the frontend has something to call.
func (h *Handler) Logout(c *fiber.Ctx) error {
	return ok(c, fiber.StatusOK, "logged out", nil)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
