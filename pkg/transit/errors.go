package transit

import (
	"errors"
	"fmt"
	"math"
)

// Sentinel errors for the batch contract enforced by callers.
var (
	// ErrEmptyGrid is returned when the model grid holds no samples.
	ErrEmptyGrid = errors.New("transit: model grid must hold at least one sample")

	// ErrLengthMismatch is returned when z and r differ in length.
	ErrLengthMismatch = errors.New("transit: z and r must have the same length")

	// ErrBatchTooLarge is returned when a batch exceeds the signed 32-bit
	// index ceiling shared with downstream hosts.
	ErrBatchTooLarge = errors.New("transit: batch exceeds the 32-bit index ceiling")
)

// ValidateBatch checks the caller-side contract once, before evaluation.
// Evaluators assume it has been applied and do not re-check on the hot path.
func ValidateBatch(gridLen, zLen, rLen int) error {
	if gridLen < 1 {
		return fmt.Errorf("%w (got %d)", ErrEmptyGrid, gridLen)
	}
	if zLen != rLen {
		return fmt.Errorf("%w (len(z)=%d, len(r)=%d)", ErrLengthMismatch, zLen, rLen)
	}
	if int64(zLen) > math.MaxInt32 {
		return fmt.Errorf("%w (size=%d)", ErrBatchTooLarge, zLen)
	}
	return nil
}
