package postgres

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditRepo_encode_smallPayloadStaysPlain(t *testing.T) {
	repo, err := NewAuditRepository(nil, 64)
	require.NoError(t, err)

	raw := []byte(`{"product_id":"p1","quantity":"5"}`)
	plain, compressed, algo := repo.encode(raw)

	assert.Equal(t, CompressionNone, algo)
	assert.Equal(t, raw, plain)
	assert.Nil(t, compressed)
}

func TestAuditRepo_encode_largePayloadIsCompressed(t *testing.T) {
	repo, err := NewAuditRepository(nil, 64)
	require.NoError(t, err)

	raw := bytes.Repeat([]byte(`{"product_id":"p1","quantity":"5"},`), 100)
	plain, compressed, algo := repo.encode(raw)

	assert.Equal(t, CompressionZstd, algo)
	assert.Nil(t, plain)
	assert.Less(t, len(compressed), len(raw))

	decoded, err := repo.Decode(plain, compressed, algo)
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)
}

func TestAuditRepo_Decode_unknownAlgorithm(t *testing.T) {
	repo, err := NewAuditRepository(nil, 0)
	require.NoError(t, err)

	_, err = repo.Decode(nil, []byte{1, 2}, "lz4")
	assert.Error(t, err)
}
