// Package produce publishes resolved message-source records to NATS
// subjects and performs request-reply round trips.
package produce

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/miladsoleymani/natsflow/core"
)

// conn is the slice of *nats.Conn the producer needs; narrowed for tests.
type conn interface {
	PublishMsg(msg *nats.Msg) error
	RequestMsg(msg *nats.Msg, timeout time.Duration) (*nats.Msg, error)
	Flush() error
}

// Option configures a Producer.
type Option func(*Producer)

// WithReader sets the external-storage reader used to resolve URI sources.
func WithReader(r core.Reader) Option {
	return func(p *Producer) { p.reader = r }
}

// WithRender sets the template render function applied to subjects and
// record fields. Defaults to the identity.
func WithRender(render core.RenderFunc) Option {
	return func(p *Producer) { p.render = render }
}

// Producer publishes records resolved from a polymorphic "from" input. It
// does not own the connection; the caller closes it.
type Producer struct {
	conn   conn
	reader core.Reader
	render core.RenderFunc
	log    *logrus.Entry
}

// New creates a Producer over an open connection.
func New(nc *nats.Conn, fns ...Option) *Producer {
	return newProducer(nc, fns...)
}

func newProducer(c conn, fns ...Option) *Producer {
	p := &Producer{
		conn:   c,
		render: core.NopRender,
		log:    logrus.WithField("component", "producer"),
	}
	for _, fn := range fns {
		fn(p)
	}
	return p
}

// Produce resolves from into one or more records and publishes each to the
// rendered subject, in order. It returns the number of messages published;
// a source yielding zero records is an error.
func (p *Producer) Produce(subject string, from any) (int, error) {
	rendered, err := core.RenderSubject(subject, p.render)
	if err != nil {
		return 0, err
	}

	src, err := core.ResolveSource(from, p.reader, p.render)
	if err != nil {
		return 0, err
	}

	count := 0
	err = src.Each(func(r core.Record) error {
		if err := p.conn.PublishMsg(buildMsg(rendered, r)); err != nil {
			return fmt.Errorf("natsflow/produce: publish to %q: %w", rendered, err)
		}
		count++
		return nil
	})
	if err != nil {
		return count, err
	}
	if count == 0 {
		return 0, core.ErrEmptyInput
	}

	if err := p.conn.Flush(); err != nil {
		return count, fmt.Errorf("natsflow/produce: flush: %w", err)
	}
	p.log.WithFields(logrus.Fields{"subject": rendered, "messages": count}).Debug("produced")
	return count, nil
}

// Request resolves the first record from the source, sends it to the
// rendered subject, and waits up to timeout for a reply. An elapsed timeout
// or missing responder yields a nil message and no error.
func (p *Producer) Request(subject string, from any, timeout time.Duration) (*core.Message, error) {
	rendered, err := core.RenderSubject(subject, p.render)
	if err != nil {
		return nil, err
	}

	src, err := core.ResolveSource(from, p.reader, p.render)
	if err != nil {
		return nil, err
	}
	record, err := core.First(src)
	if err != nil {
		return nil, err
	}

	reply, err := p.conn.RequestMsg(buildMsg(rendered, record), timeout)
	switch {
	case errors.Is(err, nats.ErrTimeout), errors.Is(err, nats.ErrNoResponders):
		p.log.WithField("subject", rendered).Debug("request expired without reply")
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("natsflow/produce: request to %q: %w", rendered, err)
	}

	headers := core.Header(reply.Header)
	if headers == nil {
		headers = core.Header{}
	}
	return &core.Message{
		Subject: reply.Subject,
		Headers: headers,
		Data:    reply.Data,
	}, nil
}

func buildMsg(subject string, r core.Record) *nats.Msg {
	header := nats.Header{}
	for key, values := range r.Headers {
		for _, v := range values {
			header.Add(key, v)
		}
	}
	return &nats.Msg{
		Subject: subject,
		Header:  header,
		Data:    r.Data,
	}
}
