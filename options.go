package rivet

import (
	"log/slog"
	"time"
)

// ResolveHook observes every top-level and nested resolve on a container:
// the token's debug string, how long resolution took, and the error if it
// failed. Hooks run synchronously on the resolving goroutine, so they should
// be cheap.
type ResolveHook func(token string, d time.Duration, err error)

type containerConfig struct {
	logger    *slog.Logger
	onResolve []ResolveHook
}

// Option configures a container at construction time.
type Option func(*containerConfig)

// WithLogger sets the structured logger used for binding and resolution debug
// output. Children inherit the logger of their parent.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *containerConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithResolveObserver adds a hook invoked after each resolve. Multiple
// observers run in registration order.
func WithResolveObserver(hook ResolveHook) Option {
	return func(cfg *containerConfig) {
		if hook != nil {
			cfg.onResolve = append(cfg.onResolve, hook)
		}
	}
}
