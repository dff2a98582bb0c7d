package consume

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miladsoleymani/natsflow/core"
	"github.com/miladsoleymani/natsflow/internal/mock"
)

// drippingFetcher hands out one message per pull, forever.
type drippingFetcher struct{}

func (f *drippingFetcher) Fetch(batch int, maxWait time.Duration) ([]Msg, error) {
	return []Msg{&mock.Msg{Subj: "orders.created", Body: []byte("payload"), Ts: time.Now()}}, nil
}

func TestListener_StopEndsLoop(t *testing.T) {
	var handled atomic.Int32
	listener := NewListener(newTestConsumer(&drippingFetcher{}), func(core.Message) error {
		handled.Add(1)
		return nil
	})

	errCh := make(chan error, 1)
	go func() { errCh <- listener.Listen(context.Background()) }()

	require.Eventually(t, func() bool { return handled.Load() > 0 }, time.Second, time.Millisecond)
	listener.Stop()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("listener did not stop")
	}
}

func TestListener_KillBlocksUntilExit(t *testing.T) {
	var handled atomic.Int32
	listener := NewListener(newTestConsumer(&drippingFetcher{}), func(core.Message) error {
		handled.Add(1)
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- listener.Listen(context.Background()) }()
	require.Eventually(t, func() bool { return handled.Load() > 0 }, time.Second, time.Millisecond)

	// Kill must not return before the completion latch closes.
	listener.Kill()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loop still running after Kill returned")
	}
}

func TestListener_KillWithoutListenReturns(t *testing.T) {
	listener := NewListener(newTestConsumer(&drippingFetcher{}), func(core.Message) error {
		return nil
	})

	returned := make(chan struct{})
	go func() {
		listener.Kill()
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Kill blocked with no loop running")
	}
}

func TestListener_HandlerErrorIsFatal(t *testing.T) {
	listener := NewListener(newTestConsumer(&drippingFetcher{}), func(core.Message) error {
		return assert.AnError
	})

	err := listener.Listen(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
}

func TestListener_ContextCancellationStopsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	listener := NewListener(newTestConsumer(&drippingFetcher{}), func(core.Message) error {
		return nil
	})

	errCh := make(chan error, 1)
	go func() { errCh <- listener.Listen(ctx) }()
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("listener did not observe cancellation")
	}
}
