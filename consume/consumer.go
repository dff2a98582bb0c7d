// Package consume drives pull-based JetStream consumption: a bounded batch
// run that stops on exhaustion, a record cap, or a duration cap, and a
// realtime listener that runs until stopped.
package consume

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"

	"github.com/miladsoleymani/natsflow/core"
)

// Msg is a single delivered message awaiting acknowledgment.
type Msg interface {
	Subject() string
	Headers() map[string][]string
	Data() []byte
	Timestamp() time.Time
	Ack() error
}

// Fetcher pulls a bounded batch of messages, waiting at most maxWait for the
// first message. It returns whatever arrived, possibly nothing.
type Fetcher interface {
	Fetch(batch int, maxWait time.Duration) ([]Msg, error)
}

// Sink receives each consumed message before it is acknowledged.
type Sink interface {
	Write(msg core.Message) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(msg core.Message) error

func (f SinkFunc) Write(msg core.Message) error { return f(msg) }

// Result reports a finished bounded run.
type Result struct {
	MessagesCount int
}

// Consumer executes bounded batch runs against one subject. It does not own
// the connection; the caller closes it.
type Consumer struct {
	js      jetstream.JetStream
	subject string
	opts    options
	log     *logrus.Entry

	// fetcher overrides the JetStream pull path in tests.
	fetcher Fetcher
}

// New creates a Consumer for the given subject.
func New(nc *nats.Conn, subject string, fns ...Option) (*Consumer, error) {
	if subject == "" {
		return nil, core.ErrEmptySubject
	}
	opts := defaults()
	for _, fn := range fns {
		fn(&opts)
	}
	if opts.batchSize < 1 {
		return nil, fmt.Errorf("natsflow/consume: batch size must be >= 1, got %d", opts.batchSize)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("natsflow/consume: init jetstream: %w", err)
	}

	return &Consumer{
		js:      js,
		subject: subject,
		opts:    opts,
		log:     logrus.WithField("subject", subject),
	}, nil
}

// attach creates or updates the pull consumer on the stream serving the
// subject. Failure here is fatal: the stream must already be provisioned.
func (c *Consumer) attach(ctx context.Context) (Fetcher, error) {
	if c.fetcher != nil {
		return c.fetcher, nil
	}

	stream, err := c.js.StreamNameBySubject(ctx, c.subject)
	if err != nil {
		return nil, fmt.Errorf("natsflow/consume: no stream serves subject %q: %w", c.subject, err)
	}

	cfg := jetstream.ConsumerConfig{
		Durable:       c.opts.durable,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: c.opts.deliverPolicy,
		FilterSubject: c.subject,
	}
	if c.opts.deliverPolicy == jetstream.DeliverByStartTimePolicy {
		since := c.opts.since
		cfg.OptStartTime = &since
	}

	cons, err := c.js.CreateOrUpdateConsumer(ctx, stream, cfg)
	if err != nil {
		return nil, fmt.Errorf("natsflow/consume: attach consumer on stream %q: %w", stream, err)
	}
	return &pullFetcher{consumer: cons}, nil
}

// Run pulls batches until a stop condition fires, writing each message to
// the sink and acknowledging it. The run is synchronous and single-threaded.
func (c *Consumer) Run(ctx context.Context, sink Sink) (*Result, error) {
	fetcher, err := c.attach(ctx)
	if err != nil {
		return nil, err
	}
	return c.runLoop(fetcher, sink)
}

func (c *Consumer) runLoop(fetcher Fetcher, sink Sink) (*Result, error) {
	// A non-positive record cap means the run must not pull at all.
	if c.opts.hasMaxRecords && c.opts.maxRecords <= 0 {
		return &Result{}, nil
	}

	pollStart := time.Now()
	total := 0

	for {
		batch := c.opts.batchSize
		if c.opts.hasMaxRecords {
			if remaining := c.opts.maxRecords - total; remaining < batch {
				batch = remaining
			}
		}

		msgs, err := fetcher.Fetch(batch, c.opts.pollTimeout)
		if err != nil {
			return nil, fmt.Errorf("natsflow/consume: fetch: %w", err)
		}

		for _, m := range msgs {
			// Sink write happens before ack: a crash in between redelivers
			// the message, so downstream must tolerate duplicates.
			if err := sink.Write(toMessage(m)); err != nil {
				return nil, fmt.Errorf("natsflow/consume: write message: %w", err)
			}
			if err := m.Ack(); err != nil {
				return nil, fmt.Errorf("natsflow/consume: ack: %w", err)
			}
			total++
		}

		switch {
		case len(msgs) == 0:
			c.log.WithField("messages", total).Debug("subject exhausted")
			return &Result{MessagesCount: total}, nil
		case c.opts.hasMaxRecords && total >= c.opts.maxRecords:
			c.log.WithField("messages", total).Debug("record cap reached")
			return &Result{MessagesCount: total}, nil
		case c.opts.maxDuration > 0 && time.Since(pollStart) > c.opts.maxDuration:
			c.log.WithField("messages", total).Debug("duration cap reached")
			return &Result{MessagesCount: total}, nil
		}
	}
}

func toMessage(m Msg) core.Message {
	headers := core.Header(m.Headers())
	if headers == nil {
		headers = core.Header{}
	}
	return core.Message{
		Subject:   m.Subject(),
		Headers:   headers,
		Data:      m.Data(),
		Timestamp: m.Timestamp(),
	}
}

// pullFetcher adapts a JetStream pull consumer to the Fetcher interface.
type pullFetcher struct {
	consumer jetstream.Consumer
}

func (f *pullFetcher) Fetch(batch int, maxWait time.Duration) ([]Msg, error) {
	var (
		res jetstream.MessageBatch
		err error
	)
	if maxWait <= 0 {
		res, err = f.consumer.FetchNoWait(batch)
	} else {
		res, err = f.consumer.Fetch(batch, jetstream.FetchMaxWait(maxWait))
	}
	if err != nil {
		return nil, err
	}

	var msgs []Msg
	for m := range res.Messages() {
		msgs = append(msgs, &jetStreamMsg{msg: m})
	}
	if err := res.Error(); err != nil {
		return nil, err
	}
	return msgs, nil
}

type jetStreamMsg struct {
	msg jetstream.Msg
}

func (m *jetStreamMsg) Subject() string              { return m.msg.Subject() }
func (m *jetStreamMsg) Headers() map[string][]string { return m.msg.Headers() }
func (m *jetStreamMsg) Data() []byte                 { return m.msg.Data() }
func (m *jetStreamMsg) Ack() error                   { return m.msg.Ack() }

func (m *jetStreamMsg) Timestamp() time.Time {
	meta, err := m.msg.Metadata()
	if err != nil {
		return time.Time{}
	}
	return meta.Timestamp
}
