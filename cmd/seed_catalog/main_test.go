package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCatalog_Windows1252(t *testing.T) {
	// "Bodega Ñuñoa" en Windows-1252: Ñ=0xD1, ñ=0xF1.
	raw := []byte("code;name\nBOD;Bodega \xD1u\xF1oa\nCEN;Tienda centro\nBOD;Duplicada\n;sin codigo\n")

	rows, err := parseCatalog(bytes.NewReader(raw), "loc")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "BOD", rows[0].Code)
	assert.Equal(t, "Bodega Ñuñoa", rows[0].Name)
	assert.Equal(t, "CEN", rows[1].Code)
}

func TestParseCatalog_IDDeterministico(t *testing.T) {
	a, err := parseCatalog(strings.NewReader("BOD;Bodega\n"), "loc")
	require.NoError(t, err)
	b, err := parseCatalog(strings.NewReader("BOD;Otra\n"), "loc")
	require.NoError(t, err)
	c, err := parseCatalog(strings.NewReader("BOD;Bodega\n"), "prod")
	require.NoError(t, err)

	assert.Equal(t, a[0].ID, b[0].ID)
	assert.NotEqual(t, a[0].ID, c[0].ID)
}

func TestParseCatalog_ColumnasInsuficientes(t *testing.T) {
	_, err := parseCatalog(strings.NewReader("BOD\n"), "loc")
	assert.Error(t, err)
}

func TestWriteSQL_EscapaComillas(t *testing.T) {
	var buf bytes.Buffer
	err := writeSQL(&buf,
		[]catalogRow{{ID: "l1", Code: "BOD", Name: "D'Andrea"}},
		[]catalogRow{{ID: "p1", Code: "SKU-1", Name: "Arroz"}},
	)
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "('l1', 'BOD', 'D''Andrea')")
	assert.Contains(t, out, "INSERT INTO products (id, sku, name) VALUES")
	assert.Contains(t, out, "ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name;")
}
