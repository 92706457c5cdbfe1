package server

import (
	"bytes"
	"net"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/any-hub/rackup/internal/rack"
)

// HostEnv 把 Fiber 请求转换成 CGI 风格的 host Env：
// 请求头映射为 HTTP_*，Content-Type/Content-Length 不带前缀。
func HostEnv(c fiber.Ctx, listenPort int) rack.Env {
	req := c.Request()
	env := rack.Env{
		rack.KeyRequestMethod:  c.Method(),
		rack.KeyRequestURI:     string(req.RequestURI()),
		rack.KeyScriptName:     "",
		rack.KeyQueryString:    string(req.URI().QueryString()),
		rack.KeyServerName:     serverName(c.Hostname()),
		rack.KeyServerPort:     strconv.Itoa(listenPort),
		rack.KeyServerProtocol: c.Protocol(),
		rack.KeyRemoteAddr:     c.IP(),
		rack.KeyInput:          bytes.NewReader(c.Body()),
		rack.KeyRequestID:      RequestID(c),
	}
	if c.Scheme() == "https" {
		env[rack.KeyHTTPS] = "on"
	}

	req.Header.VisitAll(func(key, value []byte) {
		name := cgiHeaderName(string(key))
		if name != rack.KeyContentType && name != rack.KeyContentLength {
			name = "HTTP_" + name
		}
		if prior, ok := env[name].(string); ok && prior != "" {
			env[name] = prior + ", " + string(value)
			return
		}
		env[name] = string(value)
	})
	return env
}

func cgiHeaderName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

func serverName(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

// fiberEmitter 把 Dispatcher 的输出写入 Fiber 响应。状态行只取状态码，
// CGI 的 Status 头不下发给客户端。
type fiberEmitter struct {
	c    fiber.Ctx
	sent bool
}

func newFiberEmitter(c fiber.Ctx) *fiberEmitter {
	return &fiberEmitter{c: c}
}

func (e *fiberEmitter) HeadersSent() bool {
	return e.sent
}

func (e *fiberEmitter) SendHeader(name, value string) {
	if e.sent {
		return
	}
	if value == "" {
		if code, ok := statusFromLine(name); ok {
			e.c.Status(code)
		}
		return
	}
	if strings.EqualFold(name, "Status") {
		return
	}
	e.c.Set(name, value)
}

func (e *fiberEmitter) Write(p []byte) (int, error) {
	e.sent = true
	e.c.Response().AppendBody(p)
	return len(p), nil
}

// statusFromLine 从 "HTTP/1.1 200 OK" 中解析状态码。
func statusFromLine(line string) (int, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, false
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil || code < 100 || code > 999 {
		return 0, false
	}
	return code, true
}
