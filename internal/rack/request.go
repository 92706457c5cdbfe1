package rack

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/netip"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

const maxMultipartMemory = 8 << 20

var trailingPort = regexp.MustCompile(`:\d+\z`)

// Request 是 Env 之上的只读视图。解析结果（query/form）缓存在 Env 的
// rack.request.* 键中，只在对应原始来源变化后重新解析。
// 不提供按下标写入：参数集合是派生快照，写入无法回流到 Env。
type Request struct {
	env Env
}

// NewRequest wraps env. The facade shares env, it does not copy it.
func NewRequest(env Env) *Request {
	return &Request{env: env}
}

// Env returns the wrapped environment.
func (r *Request) Env() Env {
	return r.env
}

// Body 读取 rack.input 的全部内容；同一个输入流只读取一次，之后返回缓存。
func (r *Request) Body() ([]byte, error) {
	input, ok := r.env[KeyInput].(io.Reader)
	if !ok || input == nil {
		return nil, nil
	}
	if sameSource(r.env[KeyFormInput], input) {
		data, _ := r.env[KeyFormVars].([]byte)
		return data, nil
	}
	data, err := io.ReadAll(input)
	if err != nil {
		return nil, err
	}
	r.env[KeyFormInput] = input
	r.env[KeyFormVars] = data
	delete(r.env, KeyFormHash)
	return data, nil
}

func (r *Request) ScriptName() string    { return r.env.String(KeyScriptName) }
func (r *Request) PathInfo() string      { return r.env.String(KeyPathInfo) }
func (r *Request) RequestMethod() string { return r.env.String(KeyRequestMethod) }
func (r *Request) QueryString() string   { return r.env.String(KeyQueryString) }
func (r *Request) ContentType() string   { return r.env.String(KeyContentType) }
func (r *Request) Referer() string       { return r.env.String(KeyHTTPReferer) }
func (r *Request) Referrer() string      { return r.Referer() }
func (r *Request) UserAgent() string     { return r.env.String(KeyHTTPUserAgent) }

// ContentLength returns CONTENT_LENGTH, or 0 when absent or invalid.
func (r *Request) ContentLength() int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(r.env.String(KeyContentLength)), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// MediaType returns the lower-cased content type without parameters.
func (r *Request) MediaType() string {
	mt, _, err := mime.ParseMediaType(r.ContentType())
	if err != nil {
		mt, _, _ = strings.Cut(r.ContentType(), ";")
		return strings.ToLower(strings.TrimSpace(mt))
	}
	return mt
}

// Session returns the handle injected by the dispatcher, or nil.
func (r *Request) Session() *Session {
	v, ok := r.env.Lookup(KeySession)
	if !ok {
		return nil
	}
	s, _ := v.(*Session)
	return s
}

// Logger 返回请求级日志 Entry；未注入时退回标准 logger。
func (r *Request) Logger() *logrus.Entry {
	if v, ok := r.env.Lookup(KeyLogger); ok {
		if entry, _ := v.(*logrus.Entry); entry != nil {
			return entry
		}
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// Scheme 依次检查 HTTPS、X-Forwarded-Ssl、X-Forwarded-Proto 的第一个值，
// 都没有时使用 rack.url_scheme。
func (r *Request) Scheme() string {
	switch {
	case strings.EqualFold(r.env.String(KeyHTTPS), "on"):
		return "https"
	case strings.EqualFold(r.env.String(KeyHTTPForwardedSSL), "on"):
		return "https"
	case r.env.Has(KeyHTTPForwardedProto):
		first, _, _ := strings.Cut(r.env.String(KeyHTTPForwardedProto), ",")
		return strings.TrimSpace(first)
	default:
		return r.env.String(KeyURLScheme)
	}
}

// IsSSL reports whether Scheme is https.
func (r *Request) IsSSL() bool {
	return r.Scheme() == "https"
}

// HostWithPort 优先取 X-Forwarded-Host 的最后一个值，其次 Host 头，
// 最后拼接 SERVER_NAME（或 SERVER_ADDR）与 SERVER_PORT。
func (r *Request) HostWithPort() string {
	if r.env.Has(KeyHTTPForwardedHost) {
		parts := strings.Split(r.env.String(KeyHTTPForwardedHost), ",")
		return strings.TrimSpace(parts[len(parts)-1])
	}
	if r.env.Has(KeyHTTPHost) {
		return r.env.String(KeyHTTPHost)
	}
	if name := r.env.String(KeyServerName); name != "" {
		return name + ":" + r.env.String(KeyServerPort)
	}
	return r.env.String(KeyServerAddr) + ":" + r.env.String(KeyServerPort)
}

// Port 优先使用 HostWithPort 中冒号后的端口，其次 X-Forwarded-Port，
// HTTPS 时为 443，否则为 SERVER_PORT。
func (r *Request) Port() int {
	hwp := r.HostWithPort()
	if _, port, err := net.SplitHostPort(hwp); err == nil {
		return atoi(port)
	}
	if !strings.HasPrefix(hwp, "[") {
		if _, port, found := strings.Cut(hwp, ":"); found {
			return atoi(port)
		}
	}
	if r.env.Has(KeyHTTPForwardedPort) {
		return r.env.Int(KeyHTTPForwardedPort)
	}
	if r.IsSSL() {
		return 443
	}
	return r.env.Int(KeyServerPort)
}

// Host returns HostWithPort without a trailing ":<digits>" port.
func (r *Request) Host() string {
	return trailingPort.ReplaceAllString(r.HostWithPort(), "")
}

func (r *Request) IsDelete() bool  { return r.RequestMethod() == "DELETE" }
func (r *Request) IsGet() bool     { return r.RequestMethod() == "GET" }
func (r *Request) IsHead() bool    { return r.RequestMethod() == "HEAD" }
func (r *Request) IsOptions() bool { return r.RequestMethod() == "OPTIONS" }
func (r *Request) IsPatch() bool   { return r.RequestMethod() == "PATCH" }
func (r *Request) IsPost() bool    { return r.RequestMethod() == "POST" }
func (r *Request) IsPut() bool     { return r.RequestMethod() == "PUT" }
func (r *Request) IsTrace() bool   { return r.RequestMethod() == "TRACE" }

// IsXHR reports whether X-Requested-With is XMLHttpRequest.
func (r *Request) IsXHR() bool {
	return r.env.String(KeyHTTPRequestedWith) == "XMLHttpRequest"
}

// BaseURL 返回 scheme://host，非默认端口时附加 :port。
func (r *Request) BaseURL() string {
	scheme := r.Scheme()
	port := r.Port()
	u := scheme + "://" + r.Host()
	if (scheme == "https" && port != 443) || (scheme == "http" && port != 80) {
		u += ":" + strconv.Itoa(port)
	}
	return u
}

// URL returns BaseURL followed by FullPath.
func (r *Request) URL() string {
	return r.BaseURL() + r.FullPath()
}

// Path returns SCRIPT_NAME + PATH_INFO.
func (r *Request) Path() string {
	return r.ScriptName() + r.PathInfo()
}

// FullPath returns Path with "?<query>" when the query string is non-empty.
func (r *Request) FullPath() string {
	if qs := r.QueryString(); qs != "" {
		return r.Path() + "?" + qs
	}
	return r.Path()
}

// Get 返回解析后的查询参数，QUERY_STRING 未变化时复用缓存。
func (r *Request) Get() url.Values {
	qs := r.QueryString()
	seen, ok := r.env[KeyQueryStringSeen].(string)
	hash, cached := r.env[KeyQueryHash].(url.Values)
	if !ok || !cached || seen != qs {
		// 非法片段被跳过，保留能解析的部分。
		hash, _ = url.ParseQuery(qs)
		r.env[KeyQueryStringSeen] = qs
		r.env[KeyQueryHash] = hash
	}
	return cloneValues(hash)
}

// Post 返回表单参数，rack.input 未变化时复用缓存。只解析
// application/x-www-form-urlencoded 与 multipart/form-data，
// 以及未声明类型的 POST 请求体。
func (r *Request) Post() url.Values {
	input, ok := r.env[KeyInput].(io.Reader)
	if !ok || input == nil {
		return url.Values{}
	}
	if sameSource(r.env[KeyFormInput], input) {
		if hash, ok := r.env[KeyFormHash].(url.Values); ok {
			return cloneValues(hash)
		}
	}

	body, err := r.Body()
	if err != nil {
		r.Logger().WithError(err).Warn("read request body failed")
		return url.Values{}
	}
	hash := r.parseForm(body)
	r.env[KeyFormHash] = hash
	return cloneValues(hash)
}

func (r *Request) parseForm(body []byte) url.Values {
	switch mt := r.MediaType(); {
	case mt == "application/x-www-form-urlencoded", mt == "" && r.IsPost():
		values, _ := url.ParseQuery(string(body))
		return values
	case mt == "multipart/form-data":
		_, params, err := mime.ParseMediaType(r.ContentType())
		if err != nil || params["boundary"] == "" {
			return url.Values{}
		}
		form, err := multipart.NewReader(bytes.NewReader(body), params["boundary"]).ReadForm(maxMultipartMemory)
		if err != nil {
			return url.Values{}
		}
		defer form.RemoveAll()
		return url.Values(form.Value)
	default:
		return url.Values{}
	}
}

// Params 合并 Get 与 Post，同名键以 Post 为准。
func (r *Request) Params() url.Values {
	out := r.Get()
	for k, v := range r.Post() {
		out[k] = v
	}
	return out
}

// Param returns the first value of key in Params.
func (r *Request) Param(key string) string {
	return r.Params().Get(key)
}

// HasParam reports whether key is present in Params.
func (r *Request) HasParam(key string) bool {
	return r.Params().Has(key)
}

// IP 返回客户端地址：X-Forwarded-For 中最后一个非可信（非回环/内网）地址，
// 全部可信时取第一个，没有该头时使用 REMOTE_ADDR。
func (r *Request) IP() string {
	remote := r.env.String(KeyRemoteAddr)
	if host, _, err := net.SplitHostPort(remote); err == nil {
		remote = host
	}

	xff := r.env.String(KeyHTTPForwardedFor)
	if xff == "" {
		return remote
	}

	var forwarded, untrusted []netip.Addr
	for _, part := range strings.Split(xff, ",") {
		addr, err := netip.ParseAddr(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		forwarded = append(forwarded, addr)
		if !trustedProxy(addr) {
			untrusted = append(untrusted, addr)
		}
	}
	switch {
	case len(untrusted) > 0:
		return untrusted[len(untrusted)-1].String()
	case len(forwarded) > 0:
		return forwarded[0].String()
	default:
		return remote
	}
}

func trustedProxy(addr netip.Addr) bool {
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified()
}

// sameSource 比较两个输入流是否为同一实例；不可比较的类型视为不同。
func sameSource(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
