package rack

import (
	"fmt"
	"io"
)

// Emitter 是传输层输出边界。SendHeader 的 value 为空时 name 为原样输出的一行
// （例如状态行）。HeadersSent 为 true 时 Dispatcher 不再输出任何内容。
type Emitter interface {
	HeadersSent() bool
	SendHeader(name, value string)
	Write(p []byte) (int, error)
}

// WriterEmitter writes a CGI-style raw response to an io.Writer: one header
// line per SendHeader, a blank separator line before the first body write.
type WriterEmitter struct {
	W io.Writer

	headersDone bool
	bodyStarted bool
}

// NewWriterEmitter wraps w.
func NewWriterEmitter(w io.Writer) *WriterEmitter {
	return &WriterEmitter{W: w}
}

// HeadersSent reports whether the header block has been terminated.
func (e *WriterEmitter) HeadersSent() bool {
	return e.headersDone
}

// SendHeader writes "name: value", or name alone when value is empty.
func (e *WriterEmitter) SendHeader(name, value string) {
	if e.headersDone {
		return
	}
	if value == "" {
		fmt.Fprintf(e.W, "%s\r\n", name)
		return
	}
	fmt.Fprintf(e.W, "%s: %s\r\n", name, value)
}

// Write terminates the header block on first use and writes body bytes.
func (e *WriterEmitter) Write(p []byte) (int, error) {
	if !e.bodyStarted {
		e.bodyStarted = true
		e.headersDone = true
		if _, err := io.WriteString(e.W, "\r\n"); err != nil {
			return 0, err
		}
	}
	return e.W.Write(p)
}

// Finish 确保空 body 的响应也输出头部结束行。
func (e *WriterEmitter) Finish() error {
	if e.bodyStarted {
		return nil
	}
	_, err := e.Write(nil)
	return err
}
