package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/middleware"
	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/model"
	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/repository"
	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/service"
)

func (h *Handler) CheckTelegramFollow(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	balance, err := h.taskSvc.ClaimTelegramFollow(c.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTaskAlreadyClaimed):
			return fail(c, fiber.StatusConflict, "reward already claimed")
		case errors.Is(err, repository.ErrUserNotFound):
			return fail(c, fiber.StatusNotFound, "user not found")
		default:
			return fail(c, fiber.StatusInternalServerError, "failed to claim telegram reward")
		}
	}
	return ok(c, fiber.StatusOK, "telegram follow rewarded", fiber.Map{
		"amount": model.TelegramFollowReward,
		"token":  balance,
	})
}

func (h *Handler) StartTwitterTask(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	user, err := h.taskSvc.StartTwitterTask(c.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, fiber.StatusNotFound, "user not found")
		}
		return fail(c, fiber.StatusInternalServerError, "failed to start twitter task")
	}
	return ok(c, fiber.StatusOK, "twitter task started", fiber.Map{
		"startedAt": user.TwitterTaskStartedAt,
	})
}

func (h *Handler) VerifyTwitterFollow(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	balance, err := h.taskSvc.VerifyTwitterFollow(c.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTaskNotStarted):
			return fail(c, fiber.StatusBadRequest, "start the task first")
		case errors.Is(err, service.ErrVerifyTooSoon):
			return fail(c, fiber.StatusTooManyRequests, "verification not ready yet, try again later")
		case errors.Is(err, service.ErrTaskAlreadyClaimed):
			return fail(c, fiber.StatusConflict, "reward already claimed")
		case errors.Is(err, repository.ErrUserNotFound):
			return fail(c, fiber.StatusNotFound, "user not found")
		default:
			return fail(c, fiber.StatusInternalServerError, "failed to verify twitter follow")
		}
	}
	return ok(c, fiber.StatusOK, "twitter follow rewarded", fiber.Map{
		"amount": model.TwitterFollowReward,
		"token":  balance,
	})
}

// GetTaskStatus serves every platform from one route; platforms without a
// reward flow come back as plain not-connected stubs.
func (h *Handler) GetTaskStatus(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	platform := model.SocialPlatform(c.Params("platform"))
	switch platform {
	case model.PlatformTelegram, model.PlatformTwitter, model.PlatformDiscord,
		model.PlatformInstagram, model.PlatformLinkedIn, model.PlatformMedium:
	default:
		return fail(c, fiber.StatusBadRequest, "unknown platform")
	}

	status, err := h.taskSvc.GetStatus(c.Context(), userID, platform)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, fiber.StatusNotFound, "user not found")
		}
		return fail(c, fiber.StatusInternalServerError, "failed to load task status")
	}
	return ok(c, fiber.StatusOK, "task status", status)
}
