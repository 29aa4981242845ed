package table

import (
	"errors"
)

var (
	// ErrCorrupt matches every structural corruption error returned by Parse.
	ErrCorrupt = errors.New("table corrupt")

	// ErrDuplicateKey is returned by Builder.Finish when a (key, seq) pair is added twice.
	ErrDuplicateKey = errors.New("duplicate internal key")

	// ErrTooLarge is returned when a table, built or read, exceeds MaxSize.
	ErrTooLarge = errors.New("table too large")
)

// CorruptionError describes why a table was rejected.
//
// It satisfies errors.Is(err, ErrCorrupt).
type CorruptionError struct {
	Reason string
}

func (e *CorruptionError) Error() string {
	return "table corrupt: " + e.Reason
}

func (e *CorruptionError) Unwrap() error { return ErrCorrupt }

func corrupt(reason string) error {
	return &CorruptionError{Reason: reason}
}
