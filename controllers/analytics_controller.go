// controllers/analytics_controller.go
package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kaelo-io/referral_backend/middleware"
	"github.com/kaelo-io/referral_backend/models"
	"github.com/kaelo-io/referral_backend/services"
)

// AnalyticsController exposes referral participation analytics
type AnalyticsController struct {
	analytics *services.AnalyticsService
}

func NewAnalyticsController(analytics *services.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{analytics: analytics}
}

// GetMyAnalytics returns the caller's own referral totals for a role
func (ac *AnalyticsController) GetMyAnalytics(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return authResponse(c)
	}

	role, err := parseRole(c.QueryParam("role"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	row, err := ac.analytics.ByUser(ctx, userID, role)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Analytics retrieved successfully",
		Data:    row,
	})
}

// SearchAnalytics returns the participation leaderboard (admin only)
func (ac *AnalyticsController) SearchAnalytics(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	role, err := parseRole(c.QueryParam("role"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	filter := models.AnalyticsSearchFilter{Role: role}

	filter.UserID, err = objectIDQuery(c, "userId")
	if err != nil {
		return invalidIDResponse(c, "user ID")
	}
	filter.ProgramID, err = objectIDQuery(c, "programId")
	if err != nil {
		return invalidIDResponse(c, "program ID")
	}
	filter.DateStart, err = timeQuery(c, "dateStart")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid dateStart format, expected RFC 3339",
		})
	}
	filter.DateEnd, err = timeQuery(c, "dateEnd")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid dateEnd format, expected RFC 3339",
		})
	}
	filter.PageNumber, filter.PageSize = pagingQuery(c)

	results, err := ac.analytics.Search(ctx, filter)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Analytics retrieved successfully",
		Data:    results,
	})
}

func parseRole(raw string) (models.ParticipationRole, error) {
	switch models.ParticipationRole(raw) {
	case models.RoleReferrer:
		return models.RoleReferrer, nil
	case models.RoleReferee:
		return models.RoleReferee, nil
	case "":
		return models.RoleReferrer, nil
	}
	return "", fmt.Errorf("unknown role '%s', expected 'referrer' or 'referee'", raw)
}
