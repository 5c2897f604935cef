package engine

import "errors"

var (
	// ErrWrongState is returned when a caller invokes an operation the
	// current phase does not expect. It signals a caller bug.
	ErrWrongState = errors.New("engine: operation not expected in current state")
	// ErrInvalidInput is matched by every *InputError.
	ErrInvalidInput = errors.New("engine: invalid player input")
	// ErrInvariant signals an internal defect, e.g. capturing a die that is
	// not in play.
	ErrInvariant = errors.New("engine: internal invariant violated")
	// ErrRunaway is returned when the driver makes no progress.
	ErrRunaway = errors.New("engine: game state failed to advance")
)

// InputError is a recoverable rejection of a player decision. The game does
// not advance and the same player is prompted again.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string { return "engine: invalid player input: " + e.Reason }

// Is makes errors.Is(err, ErrInvalidInput) true for every InputError.
func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

func rejectInput(reason string) error { return &InputError{Reason: reason} }
