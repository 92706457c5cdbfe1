package middleware

import (
	"strconv"

	"github.com/any-hub/rackup/internal/rack"
)

// ContentLength sets Content-Length from the body when the downstream
// handler left it out.
type ContentLength struct {
	next rack.Handler
}

// NewContentLength is the rack.Factory for ContentLength.
func NewContentLength(next rack.Handler) rack.Handler {
	return &ContentLength{next: rack.OrNotFound(next)}
}

func (c *ContentLength) Call(env rack.Env) rack.Response {
	resp := c.next.Call(env)
	if !bodyAllowed(resp.Status) {
		return resp
	}
	if resp.Headers.Has("Content-Length") || resp.Headers.Has("Transfer-Encoding") {
		return resp
	}
	headers := rack.NewHeaders()
	if resp.Headers != nil {
		headers = resp.Headers.Clone()
	}
	headers.Set("Content-Length", strconv.Itoa(resp.BodyLen()))
	resp.Headers = headers
	return resp
}

// 1xx/204/304 不允许携带 body。
func bodyAllowed(status int) bool {
	return status >= 200 && status != 204 && status != 304
}
