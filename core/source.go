package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// RecordScanner iterates over a stored sequence of records. Next returns
// io.EOF once the sequence is exhausted.
type RecordScanner interface {
	Next() (map[string]any, error)
	Close() error
}

// Reader is the external-storage read capability consumed by the resolver.
type Reader interface {
	// Matches reports whether the URI belongs to this reader's scheme.
	Matches(uri string) bool
	Open(uri string) (RecordScanner, error)
}

// Source yields the outbound records resolved from a task's "from" input.
// Sources are lazy and not restartable: Each may be called once.
type Source interface {
	// Each invokes fn for every record in order. It stops on the first
	// error returned by fn.
	Each(fn func(Record) error) error
}

// ResolveSource inspects the shape of a polymorphic "from" value once and
// returns the matching source variant:
//
//   - a string the reader recognizes as a storage URI streams records from
//     that resource, one per stored entry
//   - any other string is a single record whose payload is the string itself
//   - a map is a single inline record
//   - a list is one inline record per element, in order
//
// Any other shape fails with ErrInvalidInput.
func ResolveSource(from any, reader Reader, render RenderFunc) (Source, error) {
	if render == nil {
		render = NopRender
	}
	switch t := from.(type) {
	case string:
		rendered, err := render(t)
		if err != nil {
			return nil, err
		}
		if reader != nil && reader.Matches(rendered) {
			return &fileSource{uri: rendered, reader: reader, render: render}, nil
		}
		return &literalSource{record: map[string]any{"data": rendered}, render: NopRender}, nil
	case map[string]any:
		return &literalSource{record: t, render: render}, nil
	case []any:
		return &listSource{elements: t, render: render}, nil
	case []map[string]any:
		elements := make([]any, len(t))
		for i, m := range t {
			elements[i] = m
		}
		return &listSource{elements: elements, render: render}, nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrInvalidInput, from)
	}
}

// errFirst aborts iteration once the first record has been captured.
var errFirst = errors.New("natsflow: first record found")

// First resolves the single-record mode used by request-reply: the first
// record wins, any remainder is ignored. An empty source fails with
// ErrEmptyInput.
func First(src Source) (Record, error) {
	var first Record
	err := src.Each(func(r Record) error {
		first = r
		return errFirst
	})
	switch {
	case errors.Is(err, errFirst):
		return first, nil
	case err != nil:
		return Record{}, err
	default:
		return Record{}, ErrEmptyInput
	}
}

type literalSource struct {
	record map[string]any
	render RenderFunc
}

func (s *literalSource) Each(fn func(Record) error) error {
	record, err := normalizeRecord(s.record, s.render)
	if err != nil {
		return err
	}
	return fn(record)
}

type listSource struct {
	elements []any
	render   RenderFunc
}

func (s *listSource) Each(fn func(Record) error) error {
	for i, elem := range s.elements {
		m, ok := elem.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: list element %d is %T", ErrNotAMap, i, elem)
		}
		record, err := normalizeRecord(m, s.render)
		if err != nil {
			return err
		}
		if err := fn(record); err != nil {
			return err
		}
	}
	return nil
}

type fileSource struct {
	uri    string
	reader Reader
	render RenderFunc
}

func (s *fileSource) Each(fn func(Record) error) error {
	scanner, err := s.reader.Open(s.uri)
	if err != nil {
		return fmt.Errorf("natsflow: open message source %q: %w", s.uri, err)
	}
	defer scanner.Close()

	for {
		m, err := scanner.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("natsflow: read message source %q: %w", s.uri, err)
		}
		record, err := normalizeRecord(m, s.render)
		if err != nil {
			return err
		}
		if err := fn(record); err != nil {
			return err
		}
	}
}

// normalizeRecord renders a raw record and normalizes its optional "headers"
// and "data" fields into the canonical Record shape.
func normalizeRecord(raw map[string]any, render RenderFunc) (Record, error) {
	rendered, err := renderAny(raw, render)
	if err != nil {
		return Record{}, err
	}
	m, ok := rendered.(map[string]any)
	if !ok {
		return Record{}, fmt.Errorf("%w: got %T", ErrNotAMap, rendered)
	}

	headers, err := normalizeHeaders(m["headers"])
	if err != nil {
		return Record{}, err
	}
	data, err := normalizeData(m["data"])
	if err != nil {
		return Record{}, err
	}
	return Record{Headers: headers, Data: data}, nil
}

// normalizeHeaders promotes scalar header values to one-element lists and
// keeps sequences as-is, preserving order.
func normalizeHeaders(v any) (Header, error) {
	if v == nil {
		return Header{}, nil
	}
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: headers must be a map, got %T", ErrInvalidInput, v)
	}
	headers := make(Header, len(raw))
	for key, value := range raw {
		switch t := value.(type) {
		case []any:
			for _, elem := range t {
				headers.Add(key, headerValue(elem))
			}
		case []string:
			for _, elem := range t {
				headers.Add(key, elem)
			}
		default:
			headers.Add(key, headerValue(t))
		}
	}
	return headers, nil
}

func headerValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// normalizeData uses string payloads verbatim and JSON-encodes anything else.
func normalizeData(v any) ([]byte, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(t), nil
	case []byte:
		return t, nil
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("natsflow: encode record data: %w", err)
		}
		return data, nil
	}
}
