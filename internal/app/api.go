package app

import (
	"encoding/json"
	"strings"

	"github.com/any-hub/rackup/internal/rack"
)

// APIPrefix 是 Api 接管的路径前缀。
const APIPrefix = "/api"

// API answers requests under /api with a JSON echo of the request and passes
// everything else to the next handler.
type API struct {
	next rack.Handler
}

// NewAPI is the rack.Factory for API.
func NewAPI(next rack.Handler) rack.Handler {
	return &API{next: rack.OrNotFound(next)}
}

type echoPayload struct {
	Method string              `json:"method"`
	Path   string              `json:"path"`
	Params map[string][]string `json:"params"`
	XHR    bool                `json:"xhr"`
}

func (a *API) Call(env rack.Env) rack.Response {
	pathInfo := env.String(rack.KeyPathInfo)
	if pathInfo != APIPrefix && !strings.HasPrefix(pathInfo, APIPrefix+"/") {
		return a.next.Call(env)
	}

	req := rack.NewRequest(env)
	body, err := json.Marshal(echoPayload{
		Method: req.RequestMethod(),
		Path:   strings.TrimPrefix(pathInfo, APIPrefix),
		Params: req.Params(),
		XHR:    req.IsXHR(),
	})
	if err != nil {
		req.Logger().WithError(err).Error("encode api payload failed")
		return rack.NewResponse(500, rack.NewHeaders("Content-Type", "application/json"), `{"error":"encode_failed"}`)
	}
	return rack.Response{
		Status:  200,
		Headers: rack.NewHeaders("Content-Type", "application/json"),
		Body:    [][]byte{body},
	}
}
