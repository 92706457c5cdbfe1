package middleware

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/rackup/internal/rack"
)

// CommonLogger writes one access-log line per request through the
// request-scoped logger in rack.logger.
type CommonLogger struct {
	next rack.Handler
	now  func() time.Time
}

// NewCommonLogger is the rack.Factory for CommonLogger.
func NewCommonLogger(next rack.Handler) rack.Handler {
	return &CommonLogger{next: rack.OrNotFound(next), now: time.Now}
}

func (l *CommonLogger) Call(env rack.Env) rack.Response {
	start := l.now()
	resp := l.next.Call(env)

	req := rack.NewRequest(env)
	fields := logrus.Fields{
		"action":      "access",
		"remote_ip":   req.IP(),
		"method":      req.RequestMethod(),
		"path":        req.FullPath(),
		"status":      resp.Status,
		"bytes":       resp.BodyLen(),
		"duration_ms": l.now().Sub(start).Milliseconds(),
	}
	if original := env.String(rack.KeyOriginalMethod); original != "" {
		fields["original_method"] = original
	}
	req.Logger().WithFields(fields).Info("request served")
	return resp
}
