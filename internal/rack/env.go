package rack

import (
	"fmt"
	"strconv"
	"strings"
)

// CGI 风格的传输层键。
const (
	KeyRequestMethod  = "REQUEST_METHOD"
	KeyRequestURI     = "REQUEST_URI"
	KeyPathInfo       = "PATH_INFO"
	KeyScriptName     = "SCRIPT_NAME"
	KeyQueryString    = "QUERY_STRING"
	KeyServerName     = "SERVER_NAME"
	KeyServerPort     = "SERVER_PORT"
	KeyServerAddr     = "SERVER_ADDR"
	KeyServerProtocol = "SERVER_PROTOCOL"
	KeyRemoteAddr     = "REMOTE_ADDR"
	KeyHTTPS          = "HTTPS"
	KeyContentType    = "CONTENT_TYPE"
	KeyContentLength  = "CONTENT_LENGTH"

	KeyHTTPHost           = "HTTP_HOST"
	KeyHTTPReferer        = "HTTP_REFERER"
	KeyHTTPUserAgent      = "HTTP_USER_AGENT"
	KeyHTTPRequestedWith  = "HTTP_X_REQUESTED_WITH"
	KeyHTTPForwardedSSL   = "HTTP_X_FORWARDED_SSL"
	KeyHTTPForwardedProto = "HTTP_X_FORWARDED_PROTO"
	KeyHTTPForwardedHost  = "HTTP_X_FORWARDED_HOST"
	KeyHTTPForwardedPort  = "HTTP_X_FORWARDED_PORT"
	KeyHTTPForwardedFor   = "HTTP_X_FORWARDED_FOR"
	KeyHTTPMethodOverride = "HTTP_X_HTTP_METHOD_OVERRIDE"
)

// 框架注入的 rack.* 扩展键。
const (
	KeyVersion     = "rack.version"
	KeyURLScheme   = "rack.url_scheme"
	KeyMultithread = "rack.multithread"
	KeyMultiproc   = "rack.multiprocess"
	KeyRunOnce     = "rack.run_once"
	KeySession     = "rack.session"
	KeyInput       = "rack.input"
	KeyErrors      = "rack.errors"
	KeyLogger      = "rack.logger"
	KeyOutput      = "rack.output"
	KeyRequestID   = "rack.request_id"

	KeyOriginalMethod = "rack.methodoverride.original_method"

	KeyQueryStringSeen = "rack.request.query_string"
	KeyQueryHash       = "rack.request.query_hash"
	KeyFormInput       = "rack.request.form_input"
	KeyFormVars        = "rack.request.form_vars"
	KeyFormHash        = "rack.request.form_hash"
)

// Env 是单个请求的共享可变环境。它是 map，按引用在整条中间件链中传递：
// 下游对 Env 的修改在调用返回后对上游可见。
type Env map[string]any

// Lookup 返回原始值以及键是否存在。
func (e Env) Lookup(key string) (any, bool) {
	v, ok := e[key]
	return v, ok
}

// Has reports whether key is present, even with a nil value.
func (e Env) Has(key string) bool {
	_, ok := e[key]
	return ok
}

// String 以字符串形式读取键值；缺失返回空串，数字/布尔按字面量转换。
func (e Env) String(key string) string {
	return stringify(e[key])
}

// Int 读取整型值；字符串按十进制解析，失败时返回 0。
func (e Env) Int(key string) int {
	switch v := e[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint16:
		return int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// Bool 读取布尔值；字符串 "on"/"true"/"1" 视为 true。
func (e Env) Bool(key string) bool {
	switch v := e[key].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "on", "true", "1":
			return true
		}
	}
	return false
}

// Merge copies other into a new Env; keys in other win.
func (e Env) Merge(other Env) Env {
	out := make(Env, len(e)+len(other))
	for k, v := range e {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
