package entity

import "errors"

var (
	ErrNotFound          = errors.New("guest not found")
	ErrInvalidTransition = errors.New("status change not allowed")
	ErrUnauthorized      = errors.New("unauthorized")
)
