// models/status.go
package models

import "fmt"

// ProgramStatus is the lifecycle state of a referral program
type ProgramStatus string

const (
	ProgramStatusActive        ProgramStatus = "active"
	ProgramStatusInactive      ProgramStatus = "inactive"
	ProgramStatusExpired       ProgramStatus = "expired"
	ProgramStatusLimitReached  ProgramStatus = "limitReached"
	ProgramStatusUnCompletable ProgramStatus = "unCompletable"
	ProgramStatusDeleted       ProgramStatus = "deleted"
)

// LinkStatus is the lifecycle state of a referral link
type LinkStatus string

const (
	LinkStatusActive       LinkStatus = "active"
	LinkStatusCancelled    LinkStatus = "cancelled"
	LinkStatusLimitReached LinkStatus = "limitReached"
	LinkStatusExpired      LinkStatus = "expired"
)

// LinkUsageStatus is the lifecycle state of a referee's claim
type LinkUsageStatus string

const (
	LinkUsageStatusPending   LinkUsageStatus = "pending"
	LinkUsageStatusCompleted LinkUsageStatus = "completed"
	LinkUsageStatusExpired   LinkUsageStatus = "expired"
)

// programTransitions holds the allowed (from, to) pairs for programs.
// Anything not listed is an invalid transition.
var programTransitions = map[ProgramStatus][]ProgramStatus{
	ProgramStatusActive: {
		ProgramStatusInactive,
		ProgramStatusExpired,
		ProgramStatusLimitReached,
		ProgramStatusUnCompletable,
		ProgramStatusDeleted,
	},
	ProgramStatusInactive: {
		ProgramStatusActive,
		ProgramStatusDeleted,
	},
	ProgramStatusExpired: {
		ProgramStatusDeleted,
	},
	ProgramStatusLimitReached: {
		ProgramStatusDeleted,
	},
	ProgramStatusUnCompletable: {
		ProgramStatusActive,
		ProgramStatusExpired,
		ProgramStatusDeleted,
	},
	ProgramStatusDeleted: {}, // terminal
}

var linkTransitions = map[LinkStatus][]LinkStatus{
	LinkStatusActive: {
		LinkStatusCancelled,
		LinkStatusLimitReached,
		LinkStatusExpired,
	},
	LinkStatusCancelled:    {},
	LinkStatusLimitReached: {},
	LinkStatusExpired:      {},
}

var linkUsageTransitions = map[LinkUsageStatus][]LinkUsageStatus{
	LinkUsageStatusPending: {
		LinkUsageStatusCompleted,
		LinkUsageStatusExpired,
	},
	LinkUsageStatusCompleted: {},
	LinkUsageStatusExpired:   {},
}

// CanTransitionProgram reports whether the (from, to) pair is an allowed
// program status transition.
func CanTransitionProgram(from, to ProgramStatus) bool {
	for _, allowed := range programTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CanTransitionLink reports whether the (from, to) pair is an allowed
// link status transition.
func CanTransitionLink(from, to LinkStatus) bool {
	for _, allowed := range linkTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CanTransitionLinkUsage reports whether the (from, to) pair is an allowed
// link usage status transition.
func CanTransitionLinkUsage(from, to LinkUsageStatus) bool {
	for _, allowed := range linkUsageTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s ProgramStatus) String() string   { return string(s) }
func (s LinkStatus) String() string      { return string(s) }
func (s LinkUsageStatus) String() string { return string(s) }

// ParseProgramStatus resolves a program status from its string form.
func ParseProgramStatus(value string) (ProgramStatus, error) {
	switch ProgramStatus(value) {
	case ProgramStatusActive, ProgramStatusInactive, ProgramStatusExpired,
		ProgramStatusLimitReached, ProgramStatusUnCompletable, ProgramStatusDeleted:
		return ProgramStatus(value), nil
	}
	return "", fmt.Errorf("unknown program status '%s'", value)
}

// ParseLinkStatus resolves a link status from its string form.
func ParseLinkStatus(value string) (LinkStatus, error) {
	switch LinkStatus(value) {
	case LinkStatusActive, LinkStatusCancelled, LinkStatusLimitReached, LinkStatusExpired:
		return LinkStatus(value), nil
	}
	return "", fmt.Errorf("unknown link status '%s'", value)
}

// ParseLinkUsageStatus resolves a usage status from its string form.
func ParseLinkUsageStatus(value string) (LinkUsageStatus, error) {
	switch LinkUsageStatus(value) {
	case LinkUsageStatusPending, LinkUsageStatusCompleted, LinkUsageStatusExpired:
		return LinkUsageStatus(value), nil
	}
	return "", fmt.Errorf("unknown usage status '%s'", value)
}
