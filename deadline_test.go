package docconv

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWithDeadlineExpiry(t *testing.T) {
	t.Parallel()

	start := time.Now()
	err := WithDeadline(context.Background(), 50*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("WithDeadline() error = %v, want ErrTimeout", err)
	}
	if elapsed < 50*time.Millisecond {
		t.Errorf("returned after %v, before the deadline", elapsed)
	}
	if elapsed > 2*time.Second {
		t.Errorf("returned after %v, long after the deadline", elapsed)
	}
}

func TestWithDeadlineTimeoutWinsOverOpError(t *testing.T) {
	t.Parallel()

	opErr := errors.New("op noticed teardown")
	err := WithDeadline(context.Background(), 20*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return opErr
	})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("WithDeadline() error = %v, want ErrTimeout to win over op error", err)
	}
}

func TestWithDeadlineSuccess(t *testing.T) {
	t.Parallel()

	err := WithDeadline(context.Background(), time.Minute, func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Errorf("WithDeadline() error = %v, want nil", err)
	}
}

func TestWithDeadlineOpErrorPassthrough(t *testing.T) {
	t.Parallel()

	opErr := errors.New("conversion blew up")
	err := WithDeadline(context.Background(), time.Minute, func(ctx context.Context) error {
		return opErr
	})
	if !errors.Is(err, opErr) {
		t.Errorf("WithDeadline() error = %v, want %v", err, opErr)
	}
}

func TestWithDeadlineParentCancellation(t *testing.T) {
	t.Parallel()

	cause := errors.New("client disconnected")
	ctx, cancel := context.WithCancelCause(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- WithDeadline(ctx, time.Minute, func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	cancel(cause)

	err := <-errCh
	if !errors.Is(err, cause) {
		t.Fatalf("WithDeadline() error = %v, want parent cause %v", err, cause)
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("parent cancellation misreported as a timeout")
	}
}

func TestWithDeadlinePreCancelledParent(t *testing.T) {
	t.Parallel()

	cause := errors.New("already gone")
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(cause)

	ran := false
	err := WithDeadline(ctx, time.Minute, func(ctx context.Context) error {
		ran = true
		return nil
	})
	if !errors.Is(err, cause) {
		t.Errorf("WithDeadline() error = %v, want %v", err, cause)
	}
	if ran {
		t.Error("op ran under a pre-cancelled parent")
	}
}

func TestWithDeadlineNoBudget(t *testing.T) {
	t.Parallel()

	err := WithDeadline(context.Background(), 0, func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); ok {
			t.Error("zero budget still installed a deadline")
		}
		return nil
	})
	if err != nil {
		t.Errorf("WithDeadline() error = %v, want nil", err)
	}
}

func TestDefaultOperationTimeout(t *testing.T) {
	t.Parallel()

	if DefaultOperationTimeout != 200*time.Second {
		t.Errorf("DefaultOperationTimeout = %v, want 200s", DefaultOperationTimeout)
	}
}
