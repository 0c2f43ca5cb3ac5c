package security_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/jwalitptl/scheduler-api/pkg/errors"
	"github.com/jwalitptl/scheduler-api/pkg/security"
)

func TestHashRejectsShortPasswords(t *testing.T) {
	h := security.NewBcryptHasher(bcrypt.MinCost, 10)

	_, err := h.Hash("too-short")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrBadRequest))
}

func TestHashAndCompareRoundTrip(t *testing.T) {
	h := security.NewBcryptHasher(bcrypt.MinCost, 0)

	hash, err := h.Hash("correct horse battery")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse battery", hash)
	require.NoError(t, h.Compare(hash, "correct horse battery"))

	err = h.Compare(hash, "wrong password")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrUnauthorized))
}

func TestHasherDefaults(t *testing.T) {
	h := security.NewBcryptHasher(-1, -1)

	_, err := h.Hash("1234567")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrBadRequest), "default minimum is %d", security.DefaultMinPasswordLen)

	_, err = h.Hash("12345678")
	assert.NoError(t, err)
}
