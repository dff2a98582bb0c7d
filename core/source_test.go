package core_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miladsoleymani/natsflow/core"
)

// fakeReader serves a fixed record sequence for a single URI.
type fakeReader struct {
	uri     string
	records []map[string]any
	openErr error
}

func (r *fakeReader) Matches(uri string) bool { return uri == r.uri }

func (r *fakeReader) Open(uri string) (core.RecordScanner, error) {
	if r.openErr != nil {
		return nil, r.openErr
	}
	return &fakeScanner{records: r.records}, nil
}

type fakeScanner struct {
	records []map[string]any
	pos     int
}

func (s *fakeScanner) Next() (map[string]any, error) {
	if s.pos >= len(s.records) {
		return nil, io.EOF
	}
	m := s.records[s.pos]
	s.pos++
	return m, nil
}

func (s *fakeScanner) Close() error { return nil }

func collect(t *testing.T, src core.Source) []core.Record {
	t.Helper()
	var out []core.Record
	require.NoError(t, src.Each(func(r core.Record) error {
		out = append(out, r)
		return nil
	}))
	return out
}

func TestResolveSource_PlainString(t *testing.T) {
	src, err := core.ResolveSource("hello", nil, nil)
	require.NoError(t, err)

	records := collect(t, src)
	require.Len(t, records, 1)
	assert.Equal(t, []byte("hello"), records[0].Data)
	assert.Empty(t, records[0].Headers)
}

func TestResolveSource_MapWithMultiValueHeader(t *testing.T) {
	src, err := core.ResolveSource(map[string]any{
		"headers": map[string]any{"k": []any{"v1", "v2"}},
		"data":    "x",
	}, nil, nil)
	require.NoError(t, err)

	records := collect(t, src)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"v1", "v2"}, records[0].Headers["k"])
	assert.Equal(t, []byte("x"), records[0].Data)
}

func TestResolveSource_ScalarHeaderPromoted(t *testing.T) {
	src, err := core.ResolveSource(map[string]any{
		"headers": map[string]any{"k": "v"},
	}, nil, nil)
	require.NoError(t, err)

	records := collect(t, src)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"v"}, records[0].Headers["k"])
	assert.Empty(t, records[0].Data)
}

func TestResolveSource_ListKeepsOrder(t *testing.T) {
	src, err := core.ResolveSource([]any{
		map[string]any{"data": "first"},
		map[string]any{"data": "second"},
	}, nil, nil)
	require.NoError(t, err)

	records := collect(t, src)
	require.Len(t, records, 2)
	assert.Equal(t, []byte("first"), records[0].Data)
	assert.Equal(t, []byte("second"), records[1].Data)
}

func TestResolveSource_ListElementNotAMap(t *testing.T) {
	src, err := core.ResolveSource([]any{"not a map"}, nil, nil)
	require.NoError(t, err)

	err = src.Each(func(core.Record) error { return nil })
	assert.ErrorIs(t, err, core.ErrNotAMap)
}

func TestResolveSource_UnsupportedShape(t *testing.T) {
	_, err := core.ResolveSource(42, nil, nil)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestResolveSource_NonStringDataEncodedAsJSON(t *testing.T) {
	src, err := core.ResolveSource(map[string]any{
		"data": map[string]any{"n": 1.0},
	}, nil, nil)
	require.NoError(t, err)

	records := collect(t, src)
	require.Len(t, records, 1)
	assert.JSONEq(t, `{"n":1}`, string(records[0].Data))
}

func TestResolveSource_HeadersMustBeAMap(t *testing.T) {
	src, err := core.ResolveSource(map[string]any{"headers": "nope"}, nil, nil)
	require.NoError(t, err)

	err = src.Each(func(core.Record) error { return nil })
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestResolveSource_StorageURI(t *testing.T) {
	reader := &fakeReader{
		uri: "file:///tmp/records.jsonl",
		records: []map[string]any{
			{"headers": map[string]any{"k": "v"}, "data": "one"},
			{"data": "two"},
		},
	}

	src, err := core.ResolveSource("file:///tmp/records.jsonl", reader, nil)
	require.NoError(t, err)

	records := collect(t, src)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"v"}, records[0].Headers["k"])
	assert.Equal(t, []byte("one"), records[0].Data)
	assert.Equal(t, []byte("two"), records[1].Data)
}

func TestResolveSource_RenderedNestedFields(t *testing.T) {
	render := core.Render(map[string]any{"who": "bob"})

	src, err := core.ResolveSource(map[string]any{
		"headers": map[string]any{"k": "{{ .who }}"},
		"data":    "hi {{ .who }}",
	}, nil, render)
	require.NoError(t, err)

	records := collect(t, src)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"bob"}, records[0].Headers["k"])
	assert.Equal(t, []byte("hi bob"), records[0].Data)
}

func TestFirst_TakesFirstOfList(t *testing.T) {
	src, err := core.ResolveSource([]any{
		map[string]any{"data": "first"},
		map[string]any{"data": "ignored"},
	}, nil, nil)
	require.NoError(t, err)

	record, err := core.First(src)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), record.Data)
}

func TestFirst_EmptySource(t *testing.T) {
	src, err := core.ResolveSource([]any{}, nil, nil)
	require.NoError(t, err)

	_, err = core.First(src)
	assert.ErrorIs(t, err, core.ErrEmptyInput)
}

func TestResolveSource_IdempotentForLiterals(t *testing.T) {
	input := map[string]any{
		"headers": map[string]any{"k": "v"},
		"data":    "payload",
	}

	resolve := func() core.Record {
		src, err := core.ResolveSource(input, nil, nil)
		require.NoError(t, err)
		records := collect(t, src)
		require.Len(t, records, 1)
		return records[0]
	}

	assert.Equal(t, resolve(), resolve())
}
