package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/middleware"
	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/repository"
	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/service"
)

type RewardResultRequest struct {
	Amount int64 `json:"amount"`
}

type ReadingSessionRequest struct {
	BookID string `json:"bookId"`
}

type ReadingRewardRequest struct {
	BookID       string `json:"bookId"`
	ReadingToken string `json:"readingToken"`
}

func (h *Handler) ClaimSpinReward(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req RewardResultRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	balance, err := h.rewardSvc.ClaimSpinReward(c.Context(), userID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSpinPrize):
			return fail(c, fiber.StatusBadRequest, "invalid spin amount")
		case errors.Is(err, service.ErrSpinNotAvailable):
			return fail(c, fiber.StatusTooManyRequests, "spin not available yet")
		case errors.Is(err, repository.ErrUserNotFound):
			return fail(c, fiber.StatusNotFound, "user not found")
		default:
			return fail(c, fiber.StatusInternalServerError, "failed to claim spin reward")
		}
	}
	return ok(c, fiber.StatusOK, "spin reward credited", fiber.Map{
		"amount": req.Amount,
		"token":  balance,
	})
}

func (h *Handler) ClaimQuizReward(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req RewardResultRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	balance, err := h.rewardSvc.ClaimQuizReward(c.Context(), userID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidQuizReward):
			return fail(c, fiber.StatusBadRequest, "invalid quiz score")
		case errors.Is(err, service.ErrQuizNotAvailable):
			return fail(c, fiber.StatusTooManyRequests, "quiz not available yet")
		case errors.Is(err, repository.ErrUserNotFound):
			return fail(c, fiber.StatusNotFound, "user not found")
		default:
			return fail(c, fiber.StatusInternalServerError, "failed to claim quiz reward")
		}
	}
	return ok(c, fiber.StatusOK, "quiz reward credited", fiber.Map{
		"amount": req.Amount,
		"token":  balance,
	})
}

// CreateReadingSession issues a short-lived single-use token the client must
// hold while reading and present when claiming the reward.
func (h *Handler) CreateReadingSession(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req ReadingSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	sess, err := h.rewardSvc.CreateReadingSession(c.Context(), userID, req.BookID)
	if err != nil {
		if errors.Is(err, service.ErrBookIDRequired) {
			return fail(c, fiber.StatusBadRequest, "bookId is required")
		}
		return fail(c, fiber.StatusInternalServerError, "failed to create reading session")
	}
	return ok(c, fiber.StatusOK, "reading session created", sess)
}

func (h *Handler) ClaimReadingReward(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req ReadingRewardRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	balance, err := h.rewardSvc.ClaimReadingReward(c.Context(), userID, req.ReadingToken, req.BookID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReadingSession):
			return fail(c, fiber.StatusBadRequest, "invalid or expired reading session")
		case errors.Is(err, repository.ErrUserNotFound):
			return fail(c, fiber.StatusNotFound, "user not found")
		default:
			return fail(c, fiber.StatusInternalServerError, "failed to claim reading reward")
		}
	}
	return ok(c, fiber.StatusOK, "reading reward credited", fiber.Map{
		"token": balance,
	})
}
