// Package service exposes the gateway to an orchestration layer. Each
// service validates every request before it reaches the executor or the
// filesystem provider.
package service

import (
	"time"

	"github.com/xdg/hostgate/internal/audit"
	"github.com/xdg/hostgate/internal/clog"
)

// Session is the lifecycle state of a service. It carries no security
// state; validation is stateless.
type Session struct {
	Connected bool
	Since     time.Time
}

// Option configures a service.
type Option func(*options)

type options struct {
	audit *audit.Logger
	now   func() time.Time
}

// WithAuditLogger records decisions and outcomes to l.
func WithAuditLogger(l *audit.Logger) Option {
	return func(o *options) {
		o.audit = l
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// auditErr logs a failure to write an audit record. Audit failures never
// change the outcome of a request.
func auditErr(err error) {
	if err != nil {
		clog.Warn("audit: %v", err)
	}
}
