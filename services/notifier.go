package services

import "github.com/kaelo-io/referral_backend/models"

// Notifier informs users and administrators of referral state changes.
// Delivery never participates in invariant enforcement; callers log send
// failures and move on.
type Notifier interface {
	UserBlocked(user *models.User, block *models.Block) error
	UserUnblocked(user *models.User, block *models.Block) error
	ProgramLimitReached(program *models.Program) error
}
