package api

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SundayYogurt/auth_service/config"
	"github.com/SundayYogurt/auth_service/infra/queue"
	"github.com/SundayYogurt/auth_service/internal/api/rest/handlers"
	"github.com/SundayYogurt/auth_service/internal/api/rest/middleware"
	"github.com/SundayYogurt/auth_service/internal/clients/identity"
	"github.com/SundayYogurt/auth_service/internal/helper"
	"github.com/SundayYogurt/auth_service/internal/interfaces"
	"github.com/SundayYogurt/auth_service/internal/repository"
	"github.com/SundayYogurt/auth_service/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

const shutdownTimeout = 10 * time.Second

// NewApp builds the HTTP surface around an already wired service.
func NewApp(cfg config.Config, svc services.AuthService, auth helper.Auth, federated middleware.Authenticator) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "auth-service",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))

	// ---------- CORS ----------
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.BaseURL,
		AllowHeaders:     "Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, OPTIONS",
		AllowCredentials: cfg.BaseURL != "*",
	}))

	// ---------- Health ----------
	app.Get("/", HealthCheck)

	handlers.NewAuthHandler(svc, auth, federated).SetupRoutes(app)
	return app
}

func HealthCheck(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Healthy!",
	})
}

func errorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}
	return ctx.Status(code).JSON(fiber.Map{"error": msg})
}

// StartServer wires the store, broker and identity provider from cfg and
// serves until SIGINT or SIGTERM.
func StartServer(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---------- DB ----------
	store, err := repository.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Error("close store", "err", err)
		}
	}()

	// ---------- Infra ----------
	var producer interfaces.ProducerHandler
	if cfg.KafkaEnabled() {
		p := queue.NewProducer(cfg.KafkaBroker, cfg.KafkaTopic, cfg.KafkaUsername, cfg.KafkaPassword, log)
		defer p.Close()
		producer = p
		log.Info("account events enabled", "broker", cfg.KafkaBroker, "topic", cfg.KafkaTopic)
	} else {
		log.Info("account events disabled")
	}

	var idp interfaces.IdentityProvider = identity.Disabled{}
	if cfg.IdentityEnabled() {
		c, err := identity.New(identity.Config{
			Domain:       cfg.AuthDomain,
			ClientID:     cfg.AuthClientID,
			ClientSecret: cfg.AuthClientSecret,
			Audience:     cfg.AuthAudience,
		})
		if err != nil {
			return err
		}
		idp = c
		log.Info("identity provider enabled", "domain", cfg.AuthDomain)
	} else {
		log.Warn("identity provider not configured; profile sync and email verification will fail")
	}

	authHelper := helper.SetupAuth(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	// ---------- Service ----------
	svc := services.NewAuthService(
		store.Users,
		store.Profiles,
		idp,
		producer,
		authHelper,
		authHelper,
		services.BruteForcePolicy{MaxAttempts: cfg.LoginMaxAttempts, Window: cfg.LoginAttemptWindow},
		log,
	)

	var federated middleware.Authenticator
	if cfg.FederatedTokensEnabled() {
		verifier, err := identity.NewTokenVerifier(ctx, cfg.AuthDomain, cfg.AuthTokenAudience)
		if err != nil {
			return err
		}
		defer verifier.Close()
		linker := services.NewIdentityLinker(store.Users, store.Profiles, log)
		federated = services.NewFederatedAuthenticator(verifier, store.Users, linker, log)
		log.Info("provider access tokens accepted", "domain", cfg.AuthDomain)
	}

	app := NewApp(cfg, svc, authHelper, federated)

	// ---------- Listen ----------
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.ServerPort)
		errCh <- app.Listen(cfg.ServerPort)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	}
}
