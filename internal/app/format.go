package app

import (
	"path"
	"strings"

	"github.com/any-hub/rackup/internal/rack"
)

// KeyFormat 是 Format 写入 Env 的响应格式键。
const KeyFormat = "rack.format"

const defaultFormat = "html"

var formatContentTypes = map[string]string{
	"html": "text/html; charset=utf-8",
	"json": "application/json",
	"txt":  "text/plain; charset=utf-8",
	"xml":  "application/xml",
}

// Format 根据 PATH_INFO 的扩展名确定响应格式（/widgets.json → json），
// 去掉扩展名后交给下游，并在下游未设置时补 Content-Type。
type Format struct {
	next rack.Handler
}

// NewFormat is the rack.Factory for Format.
func NewFormat(next rack.Handler) rack.Handler {
	return &Format{next: rack.OrNotFound(next)}
}

func (f *Format) Call(env rack.Env) rack.Response {
	pathInfo := env.String(rack.KeyPathInfo)
	format := defaultFormat
	if ext := strings.TrimPrefix(path.Ext(pathInfo), "."); ext != "" {
		if _, known := formatContentTypes[ext]; known {
			format = ext
			env[rack.KeyPathInfo] = strings.TrimSuffix(pathInfo, "."+ext)
		}
	}
	env[KeyFormat] = format

	resp := f.next.Call(env)
	if resp.Headers.Has("Content-Type") {
		return resp
	}
	headers := rack.NewHeaders()
	if resp.Headers != nil {
		headers = resp.Headers.Clone()
	}
	headers.Set("Content-Type", formatContentTypes[format])
	resp.Headers = headers
	return resp
}
