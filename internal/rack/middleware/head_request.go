package middleware

import (
	"net/http"

	"github.com/any-hub/rackup/internal/rack"
)

// HeadRequest serves HEAD as GET downstream and drops the body on the way
// back, keeping status and headers.
type HeadRequest struct {
	next rack.Handler
}

// NewHeadRequest is the rack.Factory for HeadRequest.
func NewHeadRequest(next rack.Handler) rack.Handler {
	return &HeadRequest{next: rack.OrNotFound(next)}
}

// Call 在调用下游期间把方法改写为 GET，返回后恢复为 HEAD 并清空 body。
func (h *HeadRequest) Call(env rack.Env) rack.Response {
	if env.String(rack.KeyRequestMethod) != http.MethodHead {
		return h.next.Call(env)
	}

	env[rack.KeyRequestMethod] = http.MethodGet
	env[rack.KeyOriginalMethod] = http.MethodHead
	resp := h.next.Call(env)
	env[rack.KeyRequestMethod] = http.MethodHead

	resp.Body = [][]byte{}
	return resp
}
