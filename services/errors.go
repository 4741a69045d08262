// services/errors.go
package services

import "fmt"

// Reason keys a business-rule violation to a stable identifier; the message
// carries the human-readable rendering.
type Reason string

const (
	ReasonProgramNotActive        Reason = "program_not_active"
	ReasonProgramNotStarted       Reason = "program_not_started"
	ReasonProgramExpired          Reason = "program_expired"
	ReasonCompletionLimit         Reason = "completion_limit_reached"
	ReasonCountryNotAvailable     Reason = "country_not_available"
	ReasonMultipleLinks           Reason = "multiple_links_not_allowed"
	ReasonDuplicateName           Reason = "duplicate_name"
	ReasonSelfReferral            Reason = "self_referral"
	ReasonNotOnboarded            Reason = "not_onboarded"
	ReasonAlreadyClaimedPending   Reason = "already_claimed_pending"
	ReasonAlreadyClaimedCompleted Reason = "already_claimed_completed"
	ReasonAlreadyClaimedExpired   Reason = "already_claimed_expired"
	ReasonLinkNotActive           Reason = "link_not_active"
	ReasonLinkNotCancellable      Reason = "link_not_cancellable"
	ReasonInvalidTransition       Reason = "invalid_status_transition"
	ReasonNotWorldwide            Reason = "default_not_worldwide"
	ReasonUserBlocked             Reason = "user_blocked"
)

// ValidationError is a business-rule violation, raised before any write
type ValidationError struct {
	Reason  Reason
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError with a formatted message
func NewValidationError(reason Reason, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError indicates the requested aggregate id does not resolve
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id '%s' does not exist", e.Entity, e.ID)
}

// NewNotFoundError builds a NotFoundError for the given entity and id
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}
