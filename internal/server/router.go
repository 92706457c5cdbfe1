package server

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/rackup/internal/rack"
)

// AppOptions controls how the Fiber application should behave on a specific port.
type AppOptions struct {
	Logger     *logrus.Logger
	Dispatcher *rack.Dispatcher
	ListenPort int
	// ReadTimeout/WriteTimeout 为 0 时沿用 Fiber 默认值（不超时）。
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

const contextKeyRequestID = "_rackup_request_id"

// NewApp builds a Fiber application that hands every non-diagnostics request
// to the rack dispatcher.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if opts.ListenPort <= 0 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.ListenPort)
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		ReadTimeout:   opts.ReadTimeout,
		WriteTimeout:  opts.WriteTimeout,
	})

	app.Use(recover.New())
	app.Use(requestIDMiddleware())

	app.All("/*", func(c fiber.Ctx) error {
		if isDiagnosticsPath(string(c.Request().URI().Path())) {
			return c.Next()
		}
		return dispatch(c, opts)
	})

	return app, nil
}

// requestIDMiddleware 为每个请求生成 ID，写入 Locals 与响应头。
func requestIDMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

// dispatch 把 Fiber 请求转换为 host Env，执行中间件链并把结果写回。
func dispatch(c fiber.Ctx, opts AppOptions) error {
	env := HostEnv(c, opts.ListenPort)
	out := newFiberEmitter(c)

	if _, err := opts.Dispatcher.Run(env, nil, out); err != nil {
		opts.Logger.WithFields(logrus.Fields{
			"action":     "dispatch",
			"method":     c.Method(),
			"path":       string(c.Request().URI().Path()),
			"request_id": RequestID(c),
		}).WithError(err).Error("dispatch failed")
		if out.HeadersSent() {
			return nil
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "dispatch_failed",
		})
	}
	return nil
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}

func isDiagnosticsPath(path string) bool {
	return strings.HasPrefix(path, "/-/")
}
