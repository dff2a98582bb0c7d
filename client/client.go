// Package client opens NATS connections from task-level configuration.
package client

import (
	"fmt"

	"github.com/nats-io/nats.go"
)

// Config holds the connection parameters shared by every natsflow task.
// URL is required; the remaining fields select an authentication mode.
type Config struct {
	// URL of the NATS server, nats://host:port. A connection token may be
	// embedded as nats://token@host:port.
	URL string

	// Username and Password enable plaintext authentication when both set.
	Username string
	Password string

	// Token enables token authentication.
	Token string

	// CredsFile points to a NATS credentials file.
	CredsFile string

	// Name is the optional connection name reported to the server.
	Name string
}

// Connect opens a connection to the configured server. The caller owns the
// connection and must close it on every exit path.
func (c Config) Connect() (*nats.Conn, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("natsflow/client: server URL is required")
	}

	var opts []nats.Option
	if c.Name != "" {
		opts = append(opts, nats.Name(c.Name))
	}
	if c.Username != "" && c.Password != "" {
		opts = append(opts, nats.UserInfo(c.Username, c.Password))
	}
	if c.Token != "" {
		opts = append(opts, nats.Token(c.Token))
	}
	if c.CredsFile != "" {
		opts = append(opts, nats.UserCredentials(c.CredsFile))
	}

	nc, err := nats.Connect(c.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("natsflow/client: connect to %q: %w", c.URL, err)
	}
	return nc, nil
}
