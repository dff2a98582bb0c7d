package core

import "time"

// Header holds multi-value message headers. Values for a key keep the order
// they were supplied in.
type Header map[string][]string

// Add appends a value to the given header key.
func (h Header) Add(key, value string) {
	h[key] = append(h[key], value)
}

// Message is the canonical unit exchanged with the broker.
// Timestamp is assigned by the broker on receipt and stays zero on the
// produce path.
type Message struct {
	Subject   string    `json:"subject"`
	Headers   Header    `json:"headers"`
	Data      []byte    `json:"data"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Record is a single outbound record resolved from a message source:
// optional headers plus an opaque payload.
type Record struct {
	Headers Header
	Data    []byte
}
