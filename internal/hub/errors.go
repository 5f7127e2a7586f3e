package hub

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no flagged alert exists for the requested ID.
// It is never conflated with validation errors.
var ErrNotFound = errors.New("flagged alert not found")

// InvalidTransitionError reports a status change that is illegal from the
// current state. The aggregate is left untouched.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %q to %q", e.From, e.To)
}

// DuplicateEmailError reports an attempt to add a guest whose email is
// already on the roster. Comparison is case-insensitive.
type DuplicateEmailError struct {
	Email string
}

func (e *DuplicateEmailError) Error() string {
	return fmt.Sprintf("guest with email %q already on roster", e.Email)
}

// NoEligibleRecipientsError reports a notify call whose resolved recipient
// set is empty. Dispatch is never attempted and no audit entry is written.
type NoEligibleRecipientsError struct {
	Target TargetType
}

func (e *NoEligibleRecipientsError) Error() string {
	return fmt.Sprintf("no eligible recipients for target %q", e.Target)
}
