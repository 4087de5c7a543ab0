package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/middleware"
	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/repository"
	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/service"
)

type WalletNonceRequest struct {
	WalletAddress string `json:"walletAddress"`
}

type WalletConnectRequest struct {
	WalletAddress string `json:"walletAddress"`
}

// WalletNonce hands out a fresh nonce for the given address, creating a
// wallet-keyed account if none exists yet. No auth: this is the first step
// of the connect flow.
func (h *Handler) WalletNonce(c *fiber.Ctx) error {
	var req WalletNonceRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	nonce, err := h.walletSvc.Nonce(c.Context(), req.WalletAddress)
	if err != nil {
		if errors.Is(err, service.ErrInvalidWalletAddress) {
			return fail(c, fiber.StatusBadRequest, "invalid wallet address")
		}
		return fail(c, fiber.StatusInternalServerError, "failed to issue nonce")
	}
	return ok(c, fiber.StatusOK, "nonce issued", fiber.Map{"nonce": nonce})
}

func (h *Handler) WalletConnect(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req WalletConnectRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.walletSvc.Connect(c.Context(), userID, req.WalletAddress)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidWalletAddress):
			return fail(c, fiber.StatusBadRequest, "invalid wallet address")
		case errors.Is(err, service.ErrWalletInUse):
			return fail(c, fiber.StatusConflict, "wallet already connected to another account")
		case errors.Is(err, repository.ErrUserNotFound):
			return fail(c, fiber.StatusNotFound, "user not found")
		default:
			return fail(c, fiber.StatusInternalServerError, "failed to connect wallet")
		}
	}
	return ok(c, fiber.StatusOK, "wallet connected", fiber.Map{"user": user})
}

func (h *Handler) WalletDisconnect(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	user, err := h.walletSvc.Disconnect(c.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, fiber.StatusNotFound, "user not found")
		}
		return fail(c, fiber.StatusInternalServerError, "failed to disconnect wallet")
	}
	return ok(c, fiber.StatusOK, "wallet disconnected", fiber.Map{"user": user})
}
