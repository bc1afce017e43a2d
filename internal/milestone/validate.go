package milestone

import (
	"errors"
	"fmt"

	"github.com/bryan-cox/grantledger/internal/model"
)

// ErrHoursMismatch marks a proposal whose declared total hours disagree with
// the sum of its milestones.
var ErrHoursMismatch = errors.New("total working hours mismatch")

// MismatchError describes a failed total-hours cross-check.
type MismatchError struct {
	Title    string
	Computed model.Field[float64]
	Declared int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("issue %q: total working hours calculated (%s) do not match the provided value (%d)",
		e.Title, e.Computed.Format(model.FormatNumber), e.Declared)
}

func (e *MismatchError) Unwrap() error {
	return ErrHoursMismatch
}

// Validate compares the declared total hours with the computed sum. With no
// declared total there is nothing to check.
func Validate(title string, declared model.Field[int], computed model.Field[float64]) error {
	want, ok := declared.Get()
	if !ok {
		return nil
	}
	if got, ok := computed.Get(); ok && got == float64(want) {
		return nil
	}
	return &MismatchError{Title: title, Computed: computed, Declared: want}
}
