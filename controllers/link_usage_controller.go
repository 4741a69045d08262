// controllers/link_usage_controller.go
package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kaelo-io/referral_backend/middleware"
	"github.com/kaelo-io/referral_backend/models"
	"github.com/kaelo-io/referral_backend/services"
)

// LinkUsageController exposes claim and completion endpoints
type LinkUsageController struct {
	usages *services.LinkUsageService
}

func NewLinkUsageController(usages *services.LinkUsageService) *LinkUsageController {
	return &LinkUsageController{usages: usages}
}

// ClaimLink claims a referral link for the authenticated user as referee
func (uc *LinkUsageController) ClaimLink(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return authResponse(c)
	}

	var req models.ClaimRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return bindError(c, err)
	}

	linkID, err := primitive.ObjectIDFromHex(req.LinkID)
	if err != nil {
		return invalidIDResponse(c, "link ID")
	}

	usage, err := uc.usages.ClaimAsReferee(ctx, userID, linkID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Referral link claimed successfully",
		Data:    usage,
	})
}

// GetMyUsageForProgram returns the caller's claim for a program, if any
func (uc *LinkUsageController) GetMyUsageForProgram(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return authResponse(c)
	}

	programID, err := objectIDParam(c, "programId")
	if err != nil {
		return invalidIDResponse(c, "program ID")
	}

	usage, err := uc.usages.GetByProgramIDAsReferee(ctx, userID, programID)
	if err != nil {
		return errorResponse(c, err)
	}
	if usage == nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "No claim exists for this program",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Claim retrieved successfully",
		Data:    usage,
	})
}

// CompleteUsage triggers reward settlement for a pending claim. Invoked by
// trusted backend callers when the referee finishes onboarding; repeated
// calls are no-ops.
func (uc *LinkUsageController) CompleteUsage(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	usageID, err := objectIDParam(c, "id")
	if err != nil {
		return invalidIDResponse(c, "usage ID")
	}

	usage, err := uc.usages.ProcessCompletion(ctx, usageID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Claim processed successfully",
		Data:    usage,
	})
}

// SearchUsages lists claims visible to the caller. Non-admins only see
// claims where they are the referee or the referrer.
func (uc *LinkUsageController) SearchUsages(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return authResponse(c)
	}
	isAdmin := middleware.ExtractIsAdmin(c)

	var filter models.LinkUsageSearchFilter

	role := models.ParticipationRole(c.QueryParam("role"))
	switch role {
	case models.RoleReferrer:
		filter.UserIDReferrer = &userID
	case models.RoleReferee, "":
		filter.UserIDReferee = &userID
	default:
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid role, expected 'referrer' or 'referee'",
		})
	}

	if isAdmin {
		requested, err := objectIDQuery(c, "userId")
		if err != nil {
			return invalidIDResponse(c, "user ID")
		}
		if requested != nil {
			switch role {
			case models.RoleReferrer:
				filter.UserIDReferrer = requested
			default:
				filter.UserIDReferee = requested
			}
		} else {
			filter.UserIDReferee = nil
			filter.UserIDReferrer = nil
		}
	}

	filter.ProgramID, err = objectIDQuery(c, "programId")
	if err != nil {
		return invalidIDResponse(c, "program ID")
	}
	filter.LinkID, err = objectIDQuery(c, "linkId")
	if err != nil {
		return invalidIDResponse(c, "link ID")
	}

	for _, raw := range c.QueryParams()["status"] {
		status, err := models.ParseLinkUsageStatus(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: err.Error(),
			})
		}
		filter.Statuses = append(filter.Statuses, status)
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

	results, err := uc.usages.Search(ctx, filter)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Claims retrieved successfully",
		Data:    results,
	})
}
