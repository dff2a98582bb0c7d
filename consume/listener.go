package consume

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/miladsoleymani/natsflow/core"
)

// listenWait keeps shutdown latency low: the stop flag is re-checked after
// every fetch, so the per-fetch wait stays sub-second.
const listenWait = 100 * time.Millisecond

// Handler receives each message as it arrives on a realtime listener.
type Handler func(msg core.Message) error

// Listener consumes a subject indefinitely, pushing messages to a handler
// until stopped. Stopping is cooperative: the flag is checked once per
// fetch, so a few in-flight messages may still be delivered.
type Listener struct {
	consumer *Consumer
	handler  Handler

	active  atomic.Bool
	started atomic.Bool
	once    sync.Once
	done    chan struct{}
}

// NewListener wraps a Consumer into a realtime push loop. The consumer's
// caps (max records, max duration) are ignored; only Stop and Kill end the
// loop.
func NewListener(c *Consumer, handler Handler) *Listener {
	l := &Listener{
		consumer: c,
		handler:  handler,
		done:     make(chan struct{}),
	}
	l.active.Store(true)
	return l
}

// Listen attaches the subscription and blocks, fetching small batches and
// handing each message to the handler, then acknowledging it. It returns
// once Stop or Kill is called, or on the first fatal error.
func (l *Listener) Listen(ctx context.Context) error {
	l.started.Store(true)
	defer l.once.Do(func() { close(l.done) })

	fetcher, err := l.consumer.attach(ctx)
	if err != nil {
		return err
	}

	for l.active.Load() {
		msgs, err := fetcher.Fetch(l.consumer.opts.batchSize, listenWait)
		if err != nil {
			return fmt.Errorf("natsflow/consume: fetch: %w", err)
		}
		for _, m := range msgs {
			if err := l.handler(toMessage(m)); err != nil {
				return fmt.Errorf("natsflow/consume: handle message: %w", err)
			}
			if err := m.Ack(); err != nil {
				return fmt.Errorf("natsflow/consume: ack: %w", err)
			}
		}
		if ctx.Err() != nil {
			l.active.Store(false)
		}
	}
	return nil
}

// Stop requests shutdown and returns immediately.
func (l *Listener) Stop() {
	l.active.Store(false)
}

// Kill requests shutdown and blocks until the loop has fully exited. If
// Listen was never called there is no loop to wait for, so Kill closes the
// completion latch itself and returns.
func (l *Listener) Kill() {
	l.active.Store(false)
	if l.started.Load() {
		<-l.done
		return
	}
	l.once.Do(func() { close(l.done) })
}
