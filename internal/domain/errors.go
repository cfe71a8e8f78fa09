package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrProvider   = errors.New("provider error")
	ErrStore      = errors.New("store error")
	ErrConflict   = errors.New("revision conflict")
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
)

type Kind int

const (
	KindProvider Kind = iota + 1
	KindStore
	KindConflict
	KindNotFound
	KindValidation
)

func (k Kind) sentinel() error {
	switch k {
	case KindProvider:
		return ErrProvider
	case KindStore:
		return ErrStore
	case KindConflict:
		return ErrConflict
	case KindNotFound:
		return ErrNotFound
	case KindValidation:
		return ErrValidation
	}
	return nil
}

func (k Kind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return "unknown error"
}

// RoomError is returned by every coordinator operation.
// Orphan is set when a provider room was created but could not be linked
// into the hierarchy; the provider room keeps running.
type RoomError struct {
	Kind   Kind
	Op     string
	RoomID RoomID
	Orphan RoomID
	Err    error
}

func (e *RoomError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.RoomID != "" {
		fmt.Fprintf(&b, " room=%s", e.RoomID)
	}
	if e.Orphan != "" {
		fmt.Fprintf(&b, " orphan=%s", e.Orphan)
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *RoomError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf classifies err, falling back to def when err carries no known sentinel.
func KindOf(err error, def Kind) Kind {
	var re *RoomError
	if errors.As(err, &re) {
		return re.Kind
	}
	switch {
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrProvider):
		return KindProvider
	case errors.Is(err, ErrStore):
		return KindStore
	}
	return def
}

// OrphanOf returns the provider room left outside the hierarchy by err, if any.
func OrphanOf(err error) (RoomID, bool) {
	var re *RoomError
	if errors.As(err, &re) && re.Orphan != "" {
		return re.Orphan, true
	}
	return "", false
}
