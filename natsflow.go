// Package natsflow provides the top-level API for the natsflow task pack:
// small NATS tasks that resolve templated message sources, publish and
// request-reply over core NATS, drive bounded or realtime JetStream pull
// consumption, and manage Key/Value buckets.
//
//	nc, _ := client.Config{URL: "nats://localhost:4222"}.Connect()
//	defer nc.Close()
//
//	c, _ := consume.New(nc, "orders.created", consume.WithDurable("reporting"))
//	res, _ := c.Run(ctx, consume.SinkFunc(func(m natsflow.Message) error {
//	    return writer.Write(m)
//	}))
package natsflow

import (
	"github.com/miladsoleymani/natsflow/core"
)

// Re-export core types at the package level for ergonomic usage.
type (
	Message    = core.Message
	Record     = core.Record
	Header     = core.Header
	Source     = core.Source
	RenderFunc = core.RenderFunc
)

// ResolveSource normalizes a polymorphic "from" value into a Source.
func ResolveSource(from any, reader core.Reader, render core.RenderFunc) (core.Source, error) {
	return core.ResolveSource(from, reader, render)
}
