package middleware

import (
	"net/http"
	"strings"

	"github.com/any-hub/rackup/internal/rack"
)

// MethodParam is the form/query field carrying the overriding verb.
const MethodParam = "_method"

var overridableMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodPut:     {},
	http.MethodPost:    {},
	http.MethodDelete:  {},
	http.MethodOptions: {},
	http.MethodPatch:   {},
}

// MethodOverride lets POST requests tunnel other verbs through the _method
// parameter or the X-HTTP-Method-Override header.
type MethodOverride struct {
	next rack.Handler
}

// NewMethodOverride is the rack.Factory for MethodOverride.
func NewMethodOverride(next rack.Handler) rack.Handler {
	return &MethodOverride{next: rack.OrNotFound(next)}
}

// Call 仅处理 POST：参数优先于请求头，大写后属于已知方法才改写。
func (m *MethodOverride) Call(env rack.Env) rack.Response {
	if env.String(rack.KeyRequestMethod) == http.MethodPost {
		method := overrideValue(env)
		if _, ok := overridableMethods[method]; ok {
			env[rack.KeyOriginalMethod] = env.String(rack.KeyRequestMethod)
			env[rack.KeyRequestMethod] = method
		}
	}
	return m.next.Call(env)
}

func overrideValue(env rack.Env) string {
	params := rack.NewRequest(env).Params()
	switch {
	case params.Has(MethodParam):
		return strings.ToUpper(strings.TrimSpace(params.Get(MethodParam)))
	case env.Has(rack.KeyHTTPMethodOverride):
		return strings.ToUpper(strings.TrimSpace(env.String(rack.KeyHTTPMethodOverride)))
	default:
		return http.MethodPost
	}
}
