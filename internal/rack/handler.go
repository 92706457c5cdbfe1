package rack

// Handler is one link of the chain. Middleware implementations receive their
// successor at construction time and decide whether and how to call it; the
// terminal application handler ignores it.
type Handler interface {
	Call(env Env) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(env Env) Response

// Call makes HandlerFunc satisfy Handler.
func (f HandlerFunc) Call(env Env) Response {
	return f(env)
}

// Factory 构造一个中间件实例，next 为链中的下一个处理器（链尾为 nil）。
type Factory func(next Handler) Handler

// OrNotFound 返回 next；链尾没有后继时退回 NotFound 处理器。
func OrNotFound(next Handler) Handler {
	if next == nil {
		return HandlerFunc(func(Env) Response { return NotFound() })
	}
	return next
}
