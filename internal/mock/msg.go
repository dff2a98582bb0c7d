package mock

import "time"

// Msg is a test double for a delivered JetStream message. It satisfies
// consume.Msg structurally.
type Msg struct {
	Subj   string
	H      map[string][]string
	Body   []byte
	Ts     time.Time
	Acked  bool
	AckErr error
}

func (m *Msg) Subject() string              { return m.Subj }
func (m *Msg) Headers() map[string][]string { return m.H }
func (m *Msg) Data() []byte                 { return m.Body }
func (m *Msg) Timestamp() time.Time         { return m.Ts }

func (m *Msg) Ack() error {
	m.Acked = true
	return m.AckErr
}
