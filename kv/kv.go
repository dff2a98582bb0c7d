// Package kv wraps the JetStream Key/Value store: bucket creation and
// per-key put/get/delete with revision tracking. Values are JSON-encoded by
// convention.
package kv

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// BucketConfig describes a bucket to create.
type BucketConfig struct {
	Name        string
	Description string
	// HistoryPerKey caps the revisions retained per key. Defaults to 1,
	// keeping only the latest value.
	HistoryPerKey uint8
	// MaxBucketBytes and MaxValueBytes limit total bucket size and single
	// entry size; zero leaves the server default.
	MaxBucketBytes int64
	MaxValueBytes  int32
}

// BucketStatus reports a bucket after creation.
type BucketStatus struct {
	Bucket  string
	Values  uint64
	History int64
	Bytes   uint64
}

// Store executes Key/Value operations over one connection.
type Store struct {
	js jetstream.JetStream
}

// New creates a Store over an open connection.
func New(nc *nats.Conn) (*Store, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("natsflow/kv: init jetstream: %w", err)
	}
	return &Store{js: js}, nil
}

// keyValueConfig maps a BucketConfig onto the JetStream configuration,
// applying the single-revision history default.
func keyValueConfig(cfg BucketConfig) jetstream.KeyValueConfig {
	history := cfg.HistoryPerKey
	if history == 0 {
		history = 1
	}
	return jetstream.KeyValueConfig{
		Bucket:       cfg.Name,
		Description:  cfg.Description,
		History:      history,
		MaxBytes:     cfg.MaxBucketBytes,
		MaxValueSize: cfg.MaxValueBytes,
	}
}

// CreateBucket provisions a Key/Value bucket.
func (s *Store) CreateBucket(ctx context.Context, cfg BucketConfig) (*BucketStatus, error) {
	bucket, err := s.js.CreateKeyValue(ctx, keyValueConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("natsflow/kv: create bucket %q: %w", cfg.Name, err)
	}

	status, err := bucket.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("natsflow/kv: status of bucket %q: %w", cfg.Name, err)
	}
	return &BucketStatus{
		Bucket:  status.Bucket(),
		Values:  status.Values(),
		History: status.History(),
		Bytes:   status.Bytes(),
	}, nil
}

// Put JSON-encodes each value and stores it under its key, returning the
// revision assigned per key.
func (s *Store) Put(ctx context.Context, bucket string, values map[string]any) (map[string]uint64, error) {
	kv, err := s.bucket(ctx, bucket)
	if err != nil {
		return nil, err
	}

	revisions := make(map[string]uint64, len(values))
	for key, value := range values {
		data, err := EncodeValue(value)
		if err != nil {
			return nil, err
		}
		revision, err := kv.Put(ctx, key, data)
		if err != nil {
			return nil, fmt.Errorf("natsflow/kv: put %q in bucket %q: %w", key, bucket, err)
		}
		revisions[key] = revision
	}
	return revisions, nil
}

// Get fetches and JSON-decodes the latest value of each key.
func (s *Store) Get(ctx context.Context, bucket string, keys []string) (map[string]any, error) {
	kv, err := s.bucket(ctx, bucket)
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(keys))
	for _, key := range keys {
		entry, err := kv.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("natsflow/kv: get %q from bucket %q: %w", key, bucket, err)
		}
		value, err := DecodeValue(entry.Value())
		if err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, nil
}

// Delete removes the given keys from the bucket.
func (s *Store) Delete(ctx context.Context, bucket string, keys ...string) error {
	kv, err := s.bucket(ctx, bucket)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("natsflow/kv: delete %q from bucket %q: %w", key, bucket, err)
		}
	}
	return nil
}

func (s *Store) bucket(ctx context.Context, name string) (jetstream.KeyValue, error) {
	kv, err := s.js.KeyValue(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("natsflow/kv: bucket %q: %w", name, err)
	}
	return kv, nil
}

// EncodeValue serializes a value for storage.
func EncodeValue(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("natsflow/kv: encode value: %w", err)
	}
	return data, nil
}

// DecodeValue deserializes a stored value.
func DecodeValue(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("natsflow/kv: decode value: %w", err)
	}
	return v, nil
}
