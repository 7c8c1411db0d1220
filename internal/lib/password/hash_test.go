package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachflow/coaching-platform/internal/apperr"
)

func TestHashAndCompare(t *testing.T) {
	h := NewHasher(4) // минимальная стоимость для скорости тестов

	hash, err := h.Hash("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.NoError(t, h.Compare(hash, "s3cret-pass"))

	err = h.Compare(hash, "wrong-pass")
	require.Error(t, err)
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
	assert.Equal(t, "invalid credentials", apperr.Message(err))
}

func TestNewHasherClampsCost(t *testing.T) {
	// стоимость вне диапазона не должна ломать хеширование
	h := NewHasher(99)
	hash, err := h.Hash("abcdef")
	require.NoError(t, err)
	assert.NoError(t, h.Compare(hash, "abcdef"))
}
