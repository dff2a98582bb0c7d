package consume

import (
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// Option configures a Consumer.
type Option func(*options)

type options struct {
	durable       string
	deliverPolicy jetstream.DeliverPolicy
	since         time.Time
	batchSize     int
	pollTimeout   time.Duration

	maxRecords    int
	hasMaxRecords bool
	maxDuration   time.Duration
}

func defaults() options {
	return options{
		deliverPolicy: jetstream.DeliverAllPolicy,
		batchSize:     10,
		pollTimeout:   2 * time.Second,
	}
}

// WithDurable names the durable consumer, letting the subscription resume
// from its last acknowledged position across runs. Empty means ephemeral.
func WithDurable(name string) Option {
	return func(o *options) { o.durable = name }
}

// WithDeliverPolicy sets the starting point of a newly attached subscription.
func WithDeliverPolicy(p jetstream.DeliverPolicy) Option {
	return func(o *options) { o.deliverPolicy = p }
}

// WithSince sets the minimum message timestamp to consume from. Only used
// with jetstream.DeliverByStartTimePolicy.
func WithSince(t time.Time) Option {
	return func(o *options) { o.since = t }
}

// WithBatchSize sets how many messages are requested per pull.
func WithBatchSize(n int) Option {
	return func(o *options) { o.batchSize = n }
}

// WithPollTimeout bounds the wait for a single pull when no messages are
// ready. Zero means a non-blocking best-effort fetch.
func WithPollTimeout(d time.Duration) Option {
	return func(o *options) { o.pollTimeout = d }
}

// WithMaxRecords caps the total number of messages consumed in one run.
// A cap of zero or less yields a zero-message run without pulling.
func WithMaxRecords(n int) Option {
	return func(o *options) {
		o.maxRecords = n
		o.hasMaxRecords = true
	}
}

// WithMaxDuration caps the wall-clock length of a run. The cap is evaluated
// between pulls, so one extra fetch may complete after it is crossed.
func WithMaxDuration(d time.Duration) Option {
	return func(o *options) { o.maxDuration = d }
}
