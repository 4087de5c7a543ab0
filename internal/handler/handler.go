package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/config"
	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/middleware"
	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/service"
)

type Handler struct {
	cfg         *config.Config
	jwt         *middleware.JWTManager
	userSvc     *service.UserService
	referralSvc *service.ReferralService
	rewardSvc   *service.RewardService
	taskSvc     *service.TaskService
	walletSvc   *service.WalletService
}

func New(
	cfg *config.Config,
	jwt *middleware.JWTManager,
	userSvc *service.UserService,
	referralSvc *service.ReferralService,
	rewardSvc *service.RewardService,
	taskSvc *service.TaskService,
	walletSvc *service.WalletService,
) *Handler {
	return &Handler{
		cfg:         cfg,
		jwt:         jwt,
		userSvc:     userSvc,
		referralSvc: referralSvc,
		rewardSvc:   rewardSvc,
		taskSvc:     taskSvc,
		walletSvc:   walletSvc,
	}
}

// Every response uses the same envelope so clients never branch on shape.
func ok(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
		"data":    nil,
	})
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}
