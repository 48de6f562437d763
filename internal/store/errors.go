package store

import (
	"errors"

	"restaurant-shm/internal/codec"
	"restaurant-shm/internal/domain"
	"restaurant-shm/internal/shm"
)

var (
	ErrNotFound         = shm.ErrNotFound
	ErrClosed           = errors.New("store closed")
	ErrDuplicateOrder   = errors.New("duplicate order id")
	ErrRetriesExhausted = errors.New("store operation failed after retries")
)

// transient reports whether a failed cycle is worth another attempt.
func transient(err error) bool {
	switch {
	case errors.Is(err, codec.ErrCapacityExceeded),
		errors.Is(err, domain.ErrInvalidOrder),
		errors.Is(err, ErrDuplicateOrder),
		errors.Is(err, ErrClosed),
		errors.Is(err, shm.ErrClosed):
		return false
	case errors.Is(err, codec.ErrCorruptSnapshot),
		errors.Is(err, shm.ErrLock):
		return true
	}
	return false
}
