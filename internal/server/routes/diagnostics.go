package routes

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/any-hub/rackup/internal/rack"
)

// Catalog 是诊断接口需要的工厂目录视图。
type Catalog interface {
	Names() []string
	Sources() []string
}

// RegisterDiagnosticsRoutes 暴露 /-/middleware 与 /-/metrics 诊断接口，
// 供运维查看当前中间件栈、可用工厂以及请求指标。
func RegisterDiagnosticsRoutes(app *fiber.App, registry *rack.Registry, catalog Catalog) {
	if app == nil || registry == nil {
		return
	}

	app.Get("/-/middleware", func(c fiber.Ctx) error {
		return c.JSON(encodeStack(registry, catalog))
	})

	app.Get("/-/middleware/:name", func(c fiber.Ctx) error {
		name := strings.TrimSpace(c.Params("name"))
		if name == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "middleware_name_required"})
		}
		for i, item := range registry.Entries() {
			if item.Name == name {
				return c.JSON(entryPayload{EntryInfo: item, Position: i})
			}
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "middleware_not_found"})
	})

	app.Get("/-/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}

type stackPayload struct {
	Sealed     bool             `json:"sealed"`
	Middleware []rack.EntryInfo `json:"middleware"`
	Factories  []string         `json:"factories"`
	Sources    []string         `json:"sources"`
}

type entryPayload struct {
	rack.EntryInfo
	Position int `json:"position"`
}

func encodeStack(registry *rack.Registry, catalog Catalog) stackPayload {
	payload := stackPayload{
		Sealed:     registry.Sealed(),
		Middleware: registry.Entries(),
	}
	if catalog != nil {
		payload.Factories = catalog.Names()
		payload.Sources = catalog.Sources()
	}
	return payload
}
