package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/coloranna/openai-realtime-server/config"
)

const (
	// OutcomeHeader tells callers how a /reply response was produced.
	OutcomeHeader = "X-Reply-Outcome"

	requestIDKey = "requestid"

	multipartOverhead = 1 << 20
)

// New builds the Fiber app for cfg.Mode. Deps must carry the collaborators
// that mode needs; see NewDeps.
func New(cfg config.Config, deps Deps) (*fiber.App, error) {
	switch {
	case cfg.Mode == config.ModeSession && deps.Minter == nil:
		return nil, errors.New("session mode requires a minter")
	case cfg.Mode == config.ModeFallback && deps.Pipeline == nil:
		return nil, errors.New("fallback mode requires a pipeline")
	}

	app := fiber.New(fiber.Config{
		AppName:               "voice-reply-gateway",
		BodyLimit:             int(cfg.Pipeline.MaxUploadBytes) + multipartOverhead,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: requestIDKey,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  "GET,POST,OPTIONS",
		AllowHeaders:  "Content-Type",
		ExposeHeaders: OutcomeHeader + ",X-Request-Id",
	}))

	h := &handlers{cfg: cfg, deps: deps}

	app.Get("/", h.liveness)
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}

	switch cfg.Mode {
	case config.ModeSession:
		app.Get("/session", h.session)

	case config.ModeFallback:
		app.Post("/reply", h.reply)

		app.Use("/reply/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/reply/ws", websocket.New(h.replySocket))
	}

	return app, nil
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := err.Error()

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		msg = e.Message
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestIDKey).(string); ok {
		return id
	}
	return "-"
}

func livenessText(mode config.Mode) string {
	if mode == config.ModeFallback {
		return "Voice reply server is running. POST audio to /reply"
	}
	return "OpenAI Realtime token server is running. Use /session"
}
