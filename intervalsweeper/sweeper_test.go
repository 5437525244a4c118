package intervalsweeper_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sourcegraph/conc/panics"

	"github.com/cachetools/expiring-cache/intervalsweeper"
)

type fakeEvictor struct {
	swept chan struct{}
	evict func() ([]string, error)
}

func (e *fakeEvictor) EvictExpired(ctx context.Context) ([]string, error) {
	keys, err := e.evict()
	select {
	case e.swept <- struct{}{}:
	default:
	}
	return keys, err
}

func waitForSweeps(t *testing.T, swept <-chan struct{}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-swept:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for sweep %d of %d", i+1, n)
		}
	}
}

func TestIntervalSweeper_SweepsAtInterval(t *testing.T) {
	t.Parallel()

	evictor := &fakeEvictor{
		swept: make(chan struct{}, 16),
		evict: func() ([]string, error) {
			return []string{"a"}, nil
		},
	}
	sweeper := intervalsweeper.NewIntervalSweeper[string](evictor, time.Millisecond, func(err error) {
		t.Errorf("unexpected background error: %v", err)
	})

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	sweeper.LaunchBackgroundSweeper(ctx)

	// one immediate sweep plus at least two ticks
	waitForSweeps(t, evictor.swept, 3)
}

func TestIntervalSweeper_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	evictor := &fakeEvictor{
		swept: make(chan struct{}, 16),
		evict: func() ([]string, error) {
			return nil, nil
		},
	}
	sweeper := intervalsweeper.NewIntervalSweeper[string](evictor, time.Millisecond, func(err error) {
		t.Errorf("unexpected background error: %v", err)
	})

	ctx, cancel := context.WithCancel(t.Context())
	sweeper.LaunchBackgroundSweeper(ctx)
	waitForSweeps(t, evictor.swept, 1)
	cancel()

	// let an in-flight tick settle, then the loop must be quiet
	time.Sleep(20 * time.Millisecond)
	for len(evictor.swept) != 0 {
		<-evictor.swept
	}
	time.Sleep(20 * time.Millisecond)
	if len(evictor.swept) != 0 {
		t.Error("sweeper should stop after context cancellation")
	}
}

func TestIntervalSweeper_ReportsErrors(t *testing.T) {
	t.Parallel()

	expectedErr := errors.New("eviction failed")
	evictor := &fakeEvictor{
		swept: make(chan struct{}, 16),
		evict: func() ([]string, error) {
			return nil, expectedErr
		},
	}

	errs := make(chan error, 16)
	sweeper := intervalsweeper.NewIntervalSweeper[string](evictor, time.Millisecond, func(err error) {
		select {
		case errs <- err:
		default:
		}
	})

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	sweeper.LaunchBackgroundSweeper(ctx)

	select {
	case err := <-errs:
		if !errors.Is(err, expectedErr) {
			t.Errorf("background error = %v, want %v", err, expectedErr)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for background error")
	}
}

func TestIntervalSweeper_RecoversPanics(t *testing.T) {
	t.Parallel()

	evictor := &fakeEvictor{
		swept: make(chan struct{}, 16),
		evict: func() ([]string, error) {
			panic("storage exploded")
		},
	}

	errs := make(chan error, 16)
	sweeper := intervalsweeper.NewIntervalSweeper[string](evictor, time.Millisecond, func(err error) {
		select {
		case errs <- err:
		default:
		}
	})

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	sweeper.LaunchBackgroundSweeper(ctx)

	select {
	case err := <-errs:
		var recoveredErr *panics.ErrRecovered
		if !errors.As(err, &recoveredErr) {
			t.Fatalf("expected *panics.ErrRecovered, got %T", err)
		}
		if recoveredErr.Value != "storage exploded" {
			t.Errorf("panic value = %v, want %q", recoveredErr.Value, "storage exploded")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for recovered panic")
	}

	// the loop survives the panic and keeps reporting
	select {
	case <-errs:
	case <-time.After(5 * time.Second):
		t.Fatal("sweeper should keep running after a recovered panic")
	}
}
