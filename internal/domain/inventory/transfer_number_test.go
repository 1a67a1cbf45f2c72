package inventory_test

import (
	"testing"
	"time"

	"github.com/jhoicas/pos-stock-engine/internal/domain/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

func TestNextTransferNumber_PrimeroDelDia(t *testing.T) {
	n, err := inventory.NextTransferNumber("TRF", day, "")
	require.NoError(t, err)
	assert.Equal(t, "TRF-20261016-00001", n)
}

func TestNextTransferNumber_IncrementaElMayor(t *testing.T) {
	n, err := inventory.NextTransferNumber("TRF", day, "TRF-20261016-00041")
	require.NoError(t, err)
	assert.Equal(t, "TRF-20261016-00042", n)
}

func TestNextTransferNumber_NumeroCorrupto(t *testing.T) {
	_, err := inventory.NextTransferNumber("TRF", day, "TRF-20261016-")
	assert.Error(t, err)

	_, err = inventory.NextTransferNumber("TRF", day, "TRF-20261016-abc")
	assert.Error(t, err)
}

func TestTransferNumberPrefix(t *testing.T) {
	assert.Equal(t, "TRF-20261016-", inventory.TransferNumberPrefix("TRF", day))
	seq, err := inventory.ParseTransferSequence("TRF-20261016-00007")
	require.NoError(t, err)
	assert.Equal(t, 7, seq)
}
