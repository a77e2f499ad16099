package regalloc

import (
	"errors"
	"fmt"
)

// ErrEntryLivein is the single diagnostic error this package can return:
// the entry block has a non-empty live-in set, which means some vreg is
// read before it is ever defined on every path reaching the entry. Every
// other invariant violation is a programming-error assertion (panic),
// since it indicates malformed driver input or a bug in this package
// rather than a condition a caller can recover from.
var ErrEntryLivein = errors.New("regalloc: entry block has non-empty live-in set")

// LivenessError wraps ErrEntryLivein with the offending block so callers
// can report it usefully; errors.Is(err, ErrEntryLivein) still succeeds.
type LivenessError struct {
	Block Block
}

// Error implements error.
func (e *LivenessError) Error() string {
	return fmt.Sprintf("%v: block%d", ErrEntryLivein, e.Block.Index())
}

// Unwrap allows errors.Is(err, ErrEntryLivein) to see through LivenessError.
func (e *LivenessError) Unwrap() error { return ErrEntryLivein }
