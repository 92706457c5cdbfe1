package rack

import "bytes"

// Headers 是保持插入顺序、大小写敏感的响应头映射。
type Headers struct {
	keys   []string
	values map[string]string
}

// NewHeaders builds Headers from alternating name/value pairs. A trailing
// name without a value is ignored.
func NewHeaders(pairs ...string) *Headers {
	h := &Headers{values: make(map[string]string, len(pairs)/2)}
	for i := 0; i+1 < len(pairs); i += 2 {
		h.Set(pairs[i], pairs[i+1])
	}
	return h
}

// Get returns the value for name, or "".
func (h *Headers) Get(name string) string {
	if h == nil {
		return ""
	}
	return h.values[name]
}

// Lookup returns the value for name and whether it is set.
func (h *Headers) Lookup(name string) (string, bool) {
	if h == nil {
		return "", false
	}
	v, ok := h.values[name]
	return v, ok
}

// Has reports whether name is set.
func (h *Headers) Has(name string) bool {
	_, ok := h.Lookup(name)
	return ok
}

// Set 写入响应头；已存在的键保留原位置，仅覆盖值。
func (h *Headers) Set(name, value string) {
	if h.values == nil {
		h.values = make(map[string]string)
	}
	if _, exists := h.values[name]; !exists {
		h.keys = append(h.keys, name)
	}
	h.values[name] = value
}

// Del removes name while keeping the order of the remaining headers.
func (h *Headers) Del(name string) {
	if h == nil {
		return
	}
	if _, exists := h.values[name]; !exists {
		return
	}
	delete(h.values, name)
	for i, k := range h.keys {
		if k == name {
			h.keys = append(h.keys[:i], h.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of headers.
func (h *Headers) Len() int {
	if h == nil {
		return 0
	}
	return len(h.keys)
}

// Keys 按插入顺序返回键名副本。
func (h *Headers) Keys() []string {
	if h == nil {
		return nil
	}
	return append([]string(nil), h.keys...)
}

// Each calls fn for every header in insertion order.
func (h *Headers) Each(fn func(name, value string)) {
	if h == nil {
		return
	}
	for _, k := range h.keys {
		fn(k, h.values[k])
	}
}

// Clone returns an independent copy.
func (h *Headers) Clone() *Headers {
	out := &Headers{values: make(map[string]string, h.Len())}
	h.Each(out.Set)
	return out
}

// Response 是处理链返回的 (status, headers, body) 三元组。
// Body 为按顺序输出的字节块，单个 blob 即只有一个元素。
type Response struct {
	Status  int
	Headers *Headers
	Body    [][]byte
}

// NewResponse builds a triple from string chunks.
func NewResponse(status int, headers *Headers, chunks ...string) Response {
	if headers == nil {
		headers = NewHeaders()
	}
	body := make([][]byte, 0, len(chunks))
	for _, c := range chunks {
		body = append(body, []byte(c))
	}
	return Response{Status: status, Headers: headers, Body: body}
}

// Bytes concatenates all body chunks.
func (r Response) Bytes() []byte {
	return bytes.Join(r.Body, nil)
}

// BodyLen returns the total number of body bytes.
func (r Response) BodyLen() int {
	n := 0
	for _, c := range r.Body {
		n += len(c)
	}
	return n
}

// NotFound 返回默认的 404 三元组。
func NotFound() Response {
	return NewResponse(404, NewHeaders("Content-Type", "text/html"), "Not Found")
}
