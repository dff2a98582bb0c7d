package storage

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miladsoleymani/natsflow/core"
)

func TestFileStore_RoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir())

	writer, err := store.Create()
	require.NoError(t, err)
	require.NoError(t, writer.Write(map[string]any{"data": "one"}))
	require.NoError(t, writer.Write(map[string]any{"data": "two", "headers": map[string]any{"k": "v"}}))

	uri, err := writer.Close()
	require.NoError(t, err)
	assert.True(t, store.Matches(uri))

	scanner, err := store.Open(uri)
	require.NoError(t, err)
	defer scanner.Close()

	first, err := scanner.Next()
	require.NoError(t, err)
	assert.Equal(t, "one", first["data"])

	second, err := scanner.Next()
	require.NoError(t, err)
	assert.Equal(t, "two", second["data"])

	_, err = scanner.Next()
	assert.True(t, errors.Is(err, io.EOF))
}

func TestFileStore_ServesResolverSources(t *testing.T) {
	store := NewFileStore(t.TempDir())

	writer, err := store.Create()
	require.NoError(t, err)
	require.NoError(t, writer.Write(map[string]any{"headers": map[string]any{"k": "v"}, "data": "one"}))
	require.NoError(t, writer.Write(map[string]any{"data": "two"}))
	uri, err := writer.Close()
	require.NoError(t, err)

	src, err := core.ResolveSource(uri, store, nil)
	require.NoError(t, err)

	var records []core.Record
	require.NoError(t, src.Each(func(r core.Record) error {
		records = append(records, r)
		return nil
	}))
	require.Len(t, records, 2)
	assert.Equal(t, []string{"v"}, records[0].Headers["k"])
	assert.Equal(t, []byte("one"), records[0].Data)
	assert.Equal(t, []byte("two"), records[1].Data)
}

func TestFileStore_Matches(t *testing.T) {
	store := NewFileStore("")
	assert.True(t, store.Matches("file:///tmp/x.jsonl"))
	assert.False(t, store.Matches("/tmp/x.jsonl"))
	assert.False(t, store.Matches("s3://bucket/x.jsonl"))
}

func TestFileStore_OpenRejectsForeignScheme(t *testing.T) {
	store := NewFileStore("")
	_, err := store.Open("s3://bucket/x.jsonl")
	assert.Error(t, err)
}

func TestFileStore_OpenMissingFile(t *testing.T) {
	store := NewFileStore(t.TempDir())
	_, err := store.Open("file:///does/not/exist.jsonl")
	assert.Error(t, err)
}
