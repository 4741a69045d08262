package services

import (
	"context"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kaelo-io/referral_backend/models"
	"github.com/kaelo-io/referral_backend/repositories"
)

// AnalyticsService aggregates referral activity per user. Read-only; it
// holds no invariants of its own.
type AnalyticsService struct {
	links  repositories.LinkRepository
	usages repositories.LinkUsageRepository
	users  repositories.UserRepository
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(links repositories.LinkRepository, usages repositories.LinkUsageRepository, users repositories.UserRepository) *AnalyticsService {
	return &AnalyticsService{links: links, usages: usages, users: users}
}

// ByUser returns one user's aggregated referral activity for the given
// role. A user with no activity gets a zeroed row, not an error.
func (s *AnalyticsService) ByUser(ctx context.Context, userID primitive.ObjectID, role models.ParticipationRole) (*models.ReferralAnalyticsUser, error) {
	filter := models.AnalyticsSearchFilter{Role: role, UserID: &userID}

	rows, err := s.aggregate(ctx, filter)
	if err != nil {
		return nil, err
	}

	row := &models.ReferralAnalyticsUser{UserID: userID}
	for i := range rows {
		if rows[i].UserID == userID {
			row = &rows[i]
			break
		}
	}

	if user, err := s.users.GetByID(ctx, userID); err == nil && user != nil {
		row.UserDisplayName = displayName(user)
	}

	return row, nil
}

// Search returns a leaderboard page ordered by completed count descending.
func (s *AnalyticsService) Search(ctx context.Context, filter models.AnalyticsSearchFilter) (*models.AnalyticsSearchResults, error) {
	rows, err := s.aggregate(ctx, filter)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].UsageCountCompleted != rows[j].UsageCountCompleted {
			return rows[i].UsageCountCompleted > rows[j].UsageCountCompleted
		}
		return rows[i].ZltoRewardTotal > rows[j].ZltoRewardTotal
	})

	results := &models.AnalyticsSearchResults{TotalCount: int64(len(rows))}

	if filter.PageSize > 0 {
		page := filter.PageNumber
		if page < 1 {
			page = 1
		}
		start := (page - 1) * filter.PageSize
		if start > len(rows) {
			start = len(rows)
		}
		end := start + filter.PageSize
		if end > len(rows) {
			end = len(rows)
		}
		rows = rows[start:end]
	}

	s.fillDisplayNames(ctx, rows)
	results.Items = rows

	return results, nil
}

// aggregate merges the per-role repository aggregations into one row per
// user.
func (s *AnalyticsService) aggregate(ctx context.Context, filter models.AnalyticsSearchFilter) ([]models.ReferralAnalyticsUser, error) {
	switch filter.Role {
	case models.RoleReferee:
		rows, err := s.usages.AggregateByReferee(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate referee usages: %w", err)
		}
		return rows, nil

	case models.RoleReferrer:
		linkRows, err := s.links.AggregateByOwner(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate links: %w", err)
		}
		usageRows, err := s.usages.AggregateByReferrer(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate referrer usages: %w", err)
		}

		merged := make(map[primitive.ObjectID]*models.ReferralAnalyticsUser, len(linkRows))
		order := make([]primitive.ObjectID, 0, len(linkRows))
		for i := range linkRows {
			row := linkRows[i]
			merged[row.UserID] = &row
			order = append(order, row.UserID)
		}
		for i := range usageRows {
			row := usageRows[i]
			existing, ok := merged[row.UserID]
			if !ok {
				merged[row.UserID] = &row
				order = append(order, row.UserID)
				continue
			}
			existing.UsageCountPending = row.UsageCountPending
			existing.UsageCountExpired = row.UsageCountExpired
		}

		rows := make([]models.ReferralAnalyticsUser, 0, len(order))
		for _, id := range order {
			rows = append(rows, *merged[id])
		}
		return rows, nil
	}

	return nil, fmt.Errorf("unknown participation role '%s'", filter.Role)
}

func (s *AnalyticsService) fillDisplayNames(ctx context.Context, rows []models.ReferralAnalyticsUser) {
	for i := range rows {
		user, err := s.users.GetByID(ctx, rows[i].UserID)
		if err != nil || user == nil {
			continue
		}
		rows[i].UserDisplayName = displayName(user)
	}
}

func displayName(user *models.User) string {
	if user.DisplayName != "" {
		return user.DisplayName
	}
	return user.Username
}
