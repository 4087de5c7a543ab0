package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/config"
	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/handler"
	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/middleware"
	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/repository"
	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/service"
	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Server.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	repo, err := repository.New(cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer repo.Close()

	sessions, err := session.NewStore(cfg.Redis, config.ReadingSessionTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer sessions.Close()

	userSvc := service.NewUserService(repo)
	referralSvc := service.NewReferralService(repo)
	rewardSvc := service.NewRewardService(repo, sessions)
	taskSvc := service.NewTaskService(repo)
	walletSvc := service.NewWalletService(repo)

	jwtManager := middleware.NewJWTManager(cfg.Server.JWTSecret, cfg.Server.JWTTTL)
	h := handler.New(cfg, jwtManager, userSvc, referralSvc, rewardSvc, taskSvc, walletSvc)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
				"data":    nil,
			})
		},
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	app.Get("/health", h.Health)

	api := app.Group("/api/v1")

	// Public routes
	api.Post("/user/auth/login-telegram", h.LoginTelegram)
	api.Post("/user/wallet/nonce", h.WalletNonce)
	api.Get("/user/leaderboard", h.GetLeaderboard)

	// Authenticated routes
	auth := api.Group("", middleware.RequireAuth(jwtManager))

	auth.Post("/user/auth/logout", h.Logout)
	auth.Get("/user/profile", h.GetProfile)
	auth.Put("/user/username", h.UpdateUsername)
	auth.Get("/user/details", h.GetDetails)
	auth.Put("/user/details", h.UpdateDetails)
	auth.Post("/user/agreement", h.AgreeToTerms)
	auth.Get("/user/transactions", h.GetTransactions)

	auth.Post("/user/referral/apply", h.ApplyReferral)
	auth.Get("/user/referrals", h.GetReferredUsers)
	auth.Get("/user/referrals/level-rewards", h.GetReferralLevelRewards)

	auth.Post("/user/wallet/connect", h.WalletConnect)
	auth.Post("/user/wallet/disconnect", h.WalletDisconnect)

	auth.Post("/update-result/spin", h.ClaimSpinReward)
	auth.Post("/update-result/quiz", h.ClaimQuizReward)
	auth.Post("/book/reading-session", h.CreateReadingSession)
	auth.Post("/update-result/book-reading", h.ClaimReadingReward)

	auth.Post("/integration/telegram/check", h.CheckTelegramFollow)
	auth.Post("/integration/twitter/start", h.StartTwitterTask)
	auth.Post("/integration/twitter/verify", h.VerifyTwitterFollow)
	auth.Get("/integration/:platform/status", h.GetTaskStatus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := service.NewSpinNotifier(cfg.Spin.NotifyURL, cfg.Spin.NotifyInterval)
	go notifier.Run(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info().Msg("shutting down server")
		cancel()
		_ = app.Shutdown()
	}()

	log.Info().Str("port", cfg.Server.Port).Msg("server starting")
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
