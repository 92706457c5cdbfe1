package rack

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/valyala/bytebufferpool"

	"github.com/any-hub/rackup/internal/logging"
)

// ProtocolVersion 是注入到 rack.version 的协议版本。
var ProtocolVersion = []int{1, 1}

const defaultServerProtocol = "HTTP/1.1"

// Options controls how a Dispatcher builds the environment and emits output.
type Options struct {
	Registry *Registry
	Logger   *logrus.Logger
	// PoweredBy 为空时使用 "Rack <version>"。
	PoweredBy string
	// Sessions 为每个请求创建会话句柄，默认 NewSession。
	Sessions func() *Session
	// Multithread 写入 rack.multithread；HTTP 传输层并发调度时应设为 true。
	Multithread bool
}

// Dispatcher 负责一次请求周期：构建 Env、首次调用时封存 Registry、
// 调用链头、补全默认响应头并输出。
type Dispatcher struct {
	registry    *Registry
	logger      *logrus.Logger
	poweredBy   string
	sessions    func() *Session
	multithread bool
}

// NewDispatcher validates opts and returns a Dispatcher.
func NewDispatcher(opts Options) (*Dispatcher, error) {
	if opts.Registry == nil {
		return nil, errors.New("middleware registry is required")
	}
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	poweredBy := strings.TrimSpace(opts.PoweredBy)
	if poweredBy == "" {
		poweredBy = "Rack " + joinVersion(ProtocolVersion)
	}
	sessions := opts.Sessions
	if sessions == nil {
		sessions = NewSession
	}
	return &Dispatcher{
		registry:    opts.Registry,
		logger:      opts.Logger,
		poweredBy:   poweredBy,
		sessions:    sessions,
		multithread: opts.Multithread,
	}, nil
}

// Registry returns the registry served by d.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Run 合并 host 与 overrides（overrides 优先）构建 Env 并执行中间件链。
// out 为 nil 时不输出任何内容；无论是否输出都返回补全后的三元组。
// 处理器 panic 不会被拦截，由调用方（HTTP 层的 recover）处理。
// 首次 Run 封存 Registry，之后它一直保持封存，构造好的处理器在后续请求间复用。
func (d *Dispatcher) Run(host, overrides Env, out Emitter) (Response, error) {
	env := host.Merge(overrides)
	env[KeyPathInfo] = PathInfo(env.String(KeyRequestURI))
	env[KeyVersion] = append([]int(nil), ProtocolVersion...)
	env[KeyURLScheme] = URLScheme(env)
	env[KeyMultithread] = d.multithread
	env[KeyMultiproc] = false
	env[KeyRunOnce] = false
	env[KeySession] = d.sessions()
	if _, ok := env[KeyInput].(io.Reader); !ok {
		env[KeyInput] = bytes.NewReader(nil)
	}

	errSink := d.logger.WriterLevel(logrus.ErrorLevel)
	buf := bytebufferpool.Get()
	defer func() {
		_ = errSink.Close()
		bytebufferpool.Put(buf)
	}()
	env[KeyErrors] = errSink
	env[KeyOutput] = buf

	entry := d.logger.WithFields(logging.RequestFields(
		env.String(KeyRequestMethod),
		env.String(KeyPathInfo),
		env.String(KeyRequestID),
	))
	env[KeyLogger] = entry

	if err := d.registry.Seal(); err != nil {
		entry.WithError(err).Error("middleware stack assembly failed")
		return Response{}, err
	}
	head := d.registry.Head()
	if head == nil {
		return Response{}, ErrEmptyStack
	}

	resp := head.Call(env)
	resp = d.finalize(resp)

	entry.WithFields(logrus.Fields{
		"action": "dispatch",
		"status": resp.Status,
	}).Debug("request dispatched")

	if out == nil {
		return resp, nil
	}
	if err := d.emit(env, resp, buf.B, out); err != nil {
		return resp, fmt.Errorf("emit response: %w", err)
	}
	return resp, nil
}

func (d *Dispatcher) finalize(resp Response) Response {
	if resp.Headers == nil {
		resp.Headers = NewHeaders()
	} else {
		// 处理器可能复用同一个 Headers 实例，补默认值前先复制。
		resp.Headers = resp.Headers.Clone()
	}
	if !resp.Headers.Has("X-Powered-By") {
		resp.Headers.Set("X-Powered-By", d.poweredBy)
	}
	if !resp.Headers.Has("Status") {
		resp.Headers.Set("Status", strconv.Itoa(resp.Status)+" "+StatusText(resp.Status))
	}
	return resp
}

func (d *Dispatcher) emit(env Env, resp Response, buffered []byte, out Emitter) error {
	if !out.HeadersSent() {
		out.SendHeader(StatusLine(env.String(KeyServerProtocol), resp.Status), "")
		resp.Headers.Each(out.SendHeader)
	}
	if len(buffered) > 0 {
		if _, err := out.Write(buffered); err != nil {
			return err
		}
	}
	for _, chunk := range resp.Body {
		if _, err := out.Write(chunk); err != nil {
			return err
		}
	}
	return nil
}

// PathInfo 截取 '?' 之前的部分并去掉一个末尾 '/'，根路径 "/" 得到空串。
func PathInfo(requestURI string) string {
	if idx := strings.IndexByte(requestURI, '?'); idx >= 0 {
		requestURI = requestURI[:idx]
	}
	return strings.TrimSuffix(requestURI, "/")
}

// URLScheme returns "https" when HTTPS is "on" or SERVER_PORT is 443.
func URLScheme(env Env) string {
	if strings.EqualFold(env.String(KeyHTTPS), "on") || env.Int(KeyServerPort) == 443 {
		return "https"
	}
	return "http"
}

// StatusLine builds "<protocol> <code> <reason>"; unknown codes keep a
// trailing space in place of the reason phrase.
func StatusLine(protocol string, status int) string {
	if protocol == "" {
		protocol = defaultServerProtocol
	}
	return protocol + " " + strconv.Itoa(status) + " " + StatusText(status)
}

func joinVersion(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}
