package mock

import (
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// Conn is a test double for the publishing slice of *nats.Conn.
type Conn struct {
	mu         sync.Mutex
	published  []*nats.Msg
	Reply      *nats.Msg
	RequestErr error
	PublishErr error
	Flushed    bool

	// LastTimeout records the timeout passed to RequestMsg.
	LastTimeout time.Duration
}

func (c *Conn) PublishMsg(msg *nats.Msg) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.PublishErr != nil {
		return c.PublishErr
	}
	c.published = append(c.published, msg)
	return nil
}

func (c *Conn) RequestMsg(msg *nats.Msg, timeout time.Duration) (*nats.Msg, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, msg)
	c.LastTimeout = timeout
	if c.RequestErr != nil {
		return nil, c.RequestErr
	}
	return c.Reply, nil
}

func (c *Conn) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Flushed = true
	return nil
}

// Published returns all messages sent through the connection.
func (c *Conn) Published() []*nats.Msg {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*nats.Msg, len(c.published))
	copy(out, c.published)
	return out
}
