package app

import (
	"github.com/any-hub/rackup/internal/rack"
)

// App is the terminal handler: it greets on the root path and answers
// everything else with rack.NotFound. It never calls a successor.
type App struct{}

// NewApp is the rack.Factory for App; next is ignored.
func NewApp(rack.Handler) rack.Handler {
	return App{}
}

func (App) Call(env rack.Env) rack.Response {
	if env.String(rack.KeyPathInfo) != "" {
		return rack.NotFound()
	}
	req := rack.NewRequest(env)
	greeting := "Hello from rackup"
	if name := req.Param("name"); name != "" {
		greeting = "Hello, " + name
	}
	return rack.NewResponse(200, rack.NewHeaders("Content-Type", "text/plain; charset=utf-8"), greeting, "\n")
}
