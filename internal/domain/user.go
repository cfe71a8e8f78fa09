package domain

import (
	"errors"

	"github.com/google/uuid"
)

const MaxIdentityLen = 121

var (
	ErrIdentityTooLong = errors.New("identity too long")
	ErrIdentityEmpty   = errors.New("identity empty")
)

// Identity names a participant towards the provider.
type Identity string

func NewIdentity() Identity {
	return Identity(uuid.NewString())
}

func ParseIdentity(raw string) (Identity, error) {
	if len(raw) == 0 {
		return "", ErrIdentityEmpty
	}
	if len(raw) > MaxIdentityLen {
		return "", ErrIdentityTooLong
	}
	return Identity(raw), nil
}
