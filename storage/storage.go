// Package storage implements the external-storage capability used by
// natsflow tasks: URI-addressed sequences of records, encoded as one JSON
// document per line.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/miladsoleymani/natsflow/core"
)

// FileStore serves the resolver's storage-URI sources.
var _ core.Reader = (*FileStore)(nil)

// Scheme is the URI scheme served by FileStore.
const Scheme = "file://"

// RecordWriter appends records to a sink one at a time. Close finalizes the
// sink and returns its locator.
type RecordWriter interface {
	Write(v any) error
	Close() (uri string, err error)
}

// FileStore reads and writes record sequences under a local directory.
// The zero value is not usable; use NewFileStore.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir. An empty dir falls back to the
// system temp directory.
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = os.TempDir()
	}
	return &FileStore{dir: dir}
}

// Matches reports whether uri carries the file:// scheme.
func (s *FileStore) Matches(uri string) bool {
	return strings.HasPrefix(uri, Scheme)
}

// Open returns a scanner over the records stored at uri.
func (s *FileStore) Open(uri string) (core.RecordScanner, error) {
	if !s.Matches(uri) {
		return nil, fmt.Errorf("natsflow/storage: unsupported uri %q", uri)
	}
	f, err := os.Open(strings.TrimPrefix(uri, Scheme))
	if err != nil {
		return nil, fmt.Errorf("natsflow/storage: open %q: %w", uri, err)
	}
	return &Scanner{f: f, scanner: bufio.NewScanner(f)}, nil
}

// Create opens a fresh uniquely named sink file.
func (s *FileStore) Create() (RecordWriter, error) {
	path := filepath.Join(s.dir, uuid.NewString()+".jsonl")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("natsflow/storage: create sink: %w", err)
	}
	w := bufio.NewWriter(f)
	return &fileWriter{f: f, w: w, enc: json.NewEncoder(w), path: path}, nil
}

// Scanner iterates over a JSON-lines file, one record per line.
type Scanner struct {
	f       *os.File
	scanner *bufio.Scanner
}

// Next decodes the next record, returning io.EOF once the file is exhausted.
func (s *Scanner) Next() (map[string]any, error) {
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			return nil, fmt.Errorf("natsflow/storage: decode record: %w", err)
		}
		return m, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("natsflow/storage: scan: %w", err)
	}
	return nil, io.EOF
}

func (s *Scanner) Close() error { return s.f.Close() }

type fileWriter struct {
	f    *os.File
	w    *bufio.Writer
	enc  *json.Encoder
	path string
}

func (w *fileWriter) Write(v any) error {
	if err := w.enc.Encode(v); err != nil {
		return fmt.Errorf("natsflow/storage: encode record: %w", err)
	}
	return nil
}

func (w *fileWriter) Close() (string, error) {
	if err := w.w.Flush(); err != nil {
		w.f.Close()
		return "", fmt.Errorf("natsflow/storage: flush sink: %w", err)
	}
	if err := w.f.Close(); err != nil {
		return "", fmt.Errorf("natsflow/storage: close sink: %w", err)
	}
	return Scheme + w.path, nil
}
