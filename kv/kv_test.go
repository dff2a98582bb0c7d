package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyValueConfig_Defaults(t *testing.T) {
	cfg := keyValueConfig(BucketConfig{Name: "my_bucket"})
	assert.Equal(t, "my_bucket", cfg.Bucket)
	assert.Equal(t, uint8(1), cfg.History)

	cfg = keyValueConfig(BucketConfig{
		Name:           "sized",
		Description:    "for tests",
		HistoryPerKey:  3,
		MaxBucketBytes: 1024,
		MaxValueBytes:  128,
	})
	assert.Equal(t, uint8(3), cfg.History)
	assert.Equal(t, "for tests", cfg.Description)
	assert.Equal(t, int64(1024), cfg.MaxBytes)
	assert.Equal(t, int32(128), cfg.MaxValueSize)
}

func TestValueCodec_RoundTrip(t *testing.T) {
	in := map[string]any{"name": "bob", "count": 3.0}

	data, err := EncodeValue(in)
	require.NoError(t, err)

	out, err := DecodeValue(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestEncodeValue_String(t *testing.T) {
	data, err := EncodeValue("plain")
	require.NoError(t, err)
	assert.Equal(t, `"plain"`, string(data))
}

func TestDecodeValue_Invalid(t *testing.T) {
	_, err := DecodeValue([]byte("{not json"))
	assert.Error(t, err)
}
