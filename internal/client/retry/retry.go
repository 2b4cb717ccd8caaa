// Package retry implements the resilient invocation layer of the Agile
// client: it obtains a session, performs a one-shot call, interprets the
// outcome and retries with a forced re-login when the token was rejected.
//
// Retries exist only to paper over token churn. Business errors fail fast on
// their first occurrence.
package retry

import (
	"context"

	"github.com/dmitrijs2005/agileclient/internal/client/session"
	"github.com/dmitrijs2005/agileclient/internal/logging"
)

// DefaultMaxTries bounds both retry loops unless overridden.
const DefaultMaxTries = 5

// Sessions is the part of session.Manager the retry loops depend on.
type Sessions interface {
	Login(ctx context.Context) (session.Session, error)
	Invalidate()
}

type options struct {
	maxTries int
	logger   logging.Logger
}

type Option func(*options)

// WithMaxTries sets the attempt budget. Values below 1 are ignored.
func WithMaxTries(n int) Option {
	return func(o *options) {
		if n >= 1 {
			o.maxTries = n
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{maxTries: DefaultMaxTries, logger: logging.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
