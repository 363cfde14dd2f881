package economydomain

import "errors"

var (
	// ErrMissingAmount is returned when a mutation requiring an amount was
	// called with zero.
	ErrMissingAmount = errors.New("amount is required")

	// ErrInvalidAmount is returned when an amount is negative or could not
	// be parsed as an integer.
	ErrInvalidAmount = errors.New("amount must be a positive integer")

	// ErrPersistence marks failures of the backing store. Errors returned by
	// a RecordStore satisfy errors.Is(err, ErrPersistence); the Record and
	// its ChangeSet are left untouched so the caller may retry the commit.
	ErrPersistence = errors.New("persistence failure")
)
