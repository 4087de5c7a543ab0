package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/middleware"
	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/model"
	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/repository"
)

type ApplyReferralRequest struct {
	Code       string `json:"code"`
	ReferrerID string `json:"referrerId"`
}

// ApplyReferral binds the caller to a referrer. The outcome is always
// reported through the bind status so clients can show the right message
// without parsing error strings.
func (h *Handler) ApplyReferral(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req ApplyReferralRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	code := req.Code
	if code == "" {
		code = req.ReferrerID
	}

	result, err := h.referralSvc.BindAndReward(c.Context(), userID, code)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, fiber.StatusNotFound, "user not found")
		}
		return fail(c, fiber.StatusInternalServerError, "failed to apply referral code")
	}

	status, message := bindOutcome(result.Status)
	data := fiber.Map{"status": result.Status}
	if result.Referrer != nil {
		data["referrer"] = fiber.Map{
			"id":                result.Referrer.ID,
			"telegramFirstName": result.Referrer.TelegramFirstName,
			"telegramUsername":  result.Referrer.TelegramUsername,
		}
	}

	if result.Status == model.BindStatusBound {
		return ok(c, status, message, data)
	}
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
		"data":    data,
	})
}

func bindOutcome(status model.BindStatus) (int, string) {
	switch status {
	case model.BindStatusBound:
		return fiber.StatusOK, "referral applied"
	case model.BindStatusAlreadyBound:
		return fiber.StatusConflict, "referral code already used"
	case model.BindStatusSelfReferral:
		return fiber.StatusBadRequest, "you cannot refer yourself"
	case model.BindStatusCycleDetected:
		return fiber.StatusBadRequest, "referral code would create a loop"
	case model.BindStatusInvalidReferrer:
		return fiber.StatusBadRequest, "invalid referral code"
	case model.BindStatusRaceLost:
		return fiber.StatusConflict, "referral code already used"
	default:
		return fiber.StatusInternalServerError, "unexpected referral state"
	}
}

func (h *Handler) GetReferredUsers(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	referred, err := h.referralSvc.GetReferredUsers(c.Context(), userID)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to load referrals")
	}
	return ok(c, fiber.StatusOK, "referrals", fiber.Map{
		"referredUsers": referred,
		"count":         len(referred),
	})
}

func (h *Handler) GetReferralLevelRewards(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	levels, summary, err := h.referralSvc.GetLevelRewards(c.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, fiber.StatusNotFound, "user not found")
		}
		return fail(c, fiber.StatusInternalServerError, "failed to load referral rewards")
	}
	return ok(c, fiber.StatusOK, "referral rewards", fiber.Map{
		"levelRewards": levels,
		"summary":      summary,
	})
}
