package jwt_test

import (
	"testing"

	"github.com/jhoicas/pos-stock-engine/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateParse(t *testing.T) {
	id := jwt.Identity{UserID: "u-1", LocationID: "loc-1", Role: jwt.RoleBodeguero}
	token, err := jwt.Generate("secreto", "pos-stock-engine", id, 5)
	require.NoError(t, err)

	got, err := jwt.Parse("secreto", token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestParse_FirmaIncorrecta(t *testing.T) {
	token, err := jwt.Generate("secreto", "x", jwt.Identity{UserID: "u-1"}, 5)
	require.NoError(t, err)

	_, err = jwt.Parse("otro", token)
	assert.Error(t, err)
}

func TestParse_Expirado(t *testing.T) {
	token, err := jwt.Generate("secreto", "x", jwt.Identity{UserID: "u-1"}, -1)
	require.NoError(t, err)

	_, err = jwt.Parse("secreto", token)
	assert.Error(t, err)
}

func TestGenerate_SecretVacio(t *testing.T) {
	_, err := jwt.Generate("", "x", jwt.Identity{UserID: "u-1"}, 5)
	assert.Error(t, err)
}
