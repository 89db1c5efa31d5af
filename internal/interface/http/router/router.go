package router

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	jwtware "github.com/gofiber/jwt/v2"

	"github.com/stylehub/commerce-backend/internal/interface/http/handler"
	"github.com/stylehub/commerce-backend/internal/interface/http/middleware"
	"github.com/stylehub/commerce-backend/pkg/logging"
	"github.com/stylehub/commerce-backend/pkg/metrics"
)

const APIPrefix = "/api/v1"

type Handlers struct {
	Cart    *handler.CartHandler
	Order   *handler.OrderHandler
	Payment *handler.PaymentHandler
}

type Config struct {
	JWTSecret string
	Log       *logging.Logger
	Metrics   *metrics.ServerMetrics
	// Health reports backing-store health; nil means always healthy.
	Health func(ctx context.Context) error
	// Auth replaces the JWT middleware. Tests use it to inject tokens.
	Auth fiber.Handler
}

// New builds the fiber application with every route mounted.
func New(cfg Config, h Handlers) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})
	app.Use(recover.New())
	setupCORS(app)
	if cfg.Metrics != nil {
		app.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.Log != nil {
		app.Use(middleware.RequestLogger(cfg.Log))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		if cfg.Health != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := cfg.Health(ctx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "message": err.Error()})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	api := app.Group(APIPrefix)
	// Registered ahead of the auth middleware: webhooks carry a signature, not a token.
	h.Payment.RegisterPublicRoutes(api)

	auth := cfg.Auth
	if auth == nil {
		auth = jwtware.New(jwtware.Config{
			SigningKey: []byte(cfg.JWTSecret),
			ContextKey: handler.ContextKey,
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
			},
		})
	}
	api.Use(auth, handler.RequireUser)

	admin := api.Group("/admin", handler.RequireStaff)
	h.Order.RegisterStaffRoutes(admin)

	h.Cart.RegisterProtectedRoutes(api)
	h.Order.RegisterProtectedRoutes(api)
	h.Payment.RegisterProtectedRoutes(api)
	return app
}

func setupCORS(app *fiber.App) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
	}))
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}
	return c.Status(code).JSON(fiber.Map{"message": msg})
}
