package auth

import (
	"crypto/subtle"
	"guestlist/entity"
)

// Auth guards admin operations with a single shared secret.
type Auth struct {
	secret []byte
}

func New(secret string) *Auth {
	return &Auth{secret: []byte(secret)}
}

// Authenticate compares the presented secret in constant time. An empty
// configured secret disables access entirely.
func (a *Auth) Authenticate(secret string) error {
	if len(a.secret) == 0 || secret == "" {
		return entity.ErrUnauthorized
	}
	if subtle.ConstantTimeCompare(a.secret, []byte(secret)) != 1 {
		return entity.ErrUnauthorized
	}
	return nil
}
