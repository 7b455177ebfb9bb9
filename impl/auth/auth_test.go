package auth

import (
	"guestlist/entity"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthenticate(t *testing.T) {
	a := New("door-2025")

	assert.NoError(t, a.Authenticate("door-2025"))
	assert.ErrorIs(t, a.Authenticate("door-2024"), entity.ErrUnauthorized)
	assert.ErrorIs(t, a.Authenticate("door-2025 "), entity.ErrUnauthorized)
	assert.ErrorIs(t, a.Authenticate(""), entity.ErrUnauthorized)
}

func TestAuthenticateEmptySecretRejectsAll(t *testing.T) {
	a := New("")

	assert.ErrorIs(t, a.Authenticate(""), entity.ErrUnauthorized)
	assert.ErrorIs(t, a.Authenticate("anything"), entity.ErrUnauthorized)
}
