package docconv

import (
	"context"
	"errors"
	"time"
)

// Deadline sizing policy: one conservative constant for every leg of
// the pipeline (staging, conversion, forwarding), derived from a
// generous maximum payload over an assumed worst-case transfer rate,
// doubled for safety. Deliberately not scaled per request: small files
// overestimate harmlessly, pathological inputs are an accepted risk.
const (
	maxAssumedPayloadBytes = 100 << 20 // 100 MiB
	worstCaseBytesPerSec   = 1 << 20   // 1 MiB/s
	deadlineSafetyFactor   = 2

	// DefaultOperationTimeout is the uniform per-stage deadline: 200s.
	DefaultOperationTimeout = time.Duration(
		maxAssumedPayloadBytes/worstCaseBytesPerSec*deadlineSafetyFactor,
	) * time.Second
)

// WithDeadline runs op under a child cancellation scope linked to ctx.
// Parent cancellation propagates into the child; the child's own
// expiry never propagates upward. A non-positive d means no wall-clock
// budget, only linkage.
//
// If the scope expired, the call fails with ErrTimeout regardless of
// what op itself returned. If the parent was cancelled, the parent's
// original cancellation cause surfaces unchanged. The timer and the
// parent subscription are released on every exit path.
func WithDeadline(ctx context.Context, d time.Duration, op func(context.Context) error) error {
	if cause := context.Cause(ctx); cause != nil {
		return cause
	}

	var scope context.Context
	var cancel context.CancelFunc
	if d > 0 {
		scope, cancel = context.WithTimeoutCause(ctx, d, ErrTimeout)
	} else {
		scope, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	err := op(scope)

	if cause := context.Cause(scope); cause != nil {
		if errors.Is(cause, ErrTimeout) {
			return ErrTimeout
		}
		// Parent propagation: surface the parent's reason, not
		// whatever op reported while being torn down.
		if pcause := context.Cause(ctx); pcause != nil {
			return pcause
		}
		return cause
	}
	return err
}
