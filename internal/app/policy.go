package app

import (
	"errors"

	"github.com/dkeye/Breakout/internal/domain"
)

// ConflictPolicy decides whether a read-modify-write that lost a revision
// race is tried again. attempt counts retries already made.
type ConflictPolicy interface {
	Retry(attempt int, err error) bool
}

// NoRetry surfaces the first conflict to the caller.
type NoRetry struct{}

func (NoRetry) Retry(int, error) bool { return false }

// RetryN re-reads and re-applies the mutation up to N more times.
type RetryN int

func (n RetryN) Retry(attempt int, err error) bool {
	return errors.Is(err, domain.ErrConflict) && attempt < int(n)
}

func PolicyFor(retries int) ConflictPolicy {
	if retries <= 0 {
		return NoRetry{}
	}
	return RetryN(retries)
}
