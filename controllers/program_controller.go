// controllers/program_controller.go
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

// ProgramController exposes referral program management endpoints
type ProgramController struct {
	programs *services.ProgramService
}

func NewProgramController(programs *services.ProgramService) *ProgramController {
	return &ProgramController{programs: programs}
}

// GetProgram returns a single program by id
func (pc *ProgramController) GetProgram(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	id, err := objectIDParam(c, "id")
	if err != nil {
		return invalidIDResponse(c, "program ID")
	}

	program, err := pc.programs.GetByID(ctx, id)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Program retrieved successfully",
		Data:    program,
	})
}

// GetDefaultProgram returns the default program, if one is set
func (pc *ProgramController) GetDefaultProgram(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	program, err := pc.programs.GetDefaultOrNil(ctx)
	if err != nil {
		return errorResponse(c, err)
	}
	if program == nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "No default program is configured",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Program retrieved successfully",
		Data:    program,
	})
}

// CreateProgram creates a new referral program (admin only)
func (pc *ProgramController) CreateProgram(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	actorID, err := middleware.ExtractUserID(c)
	if err != nil {
		return authResponse(c)
	}

	var req models.ProgramRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return bindError(c, err)
	}

	program, err := pc.programs.Create(ctx, actorID, &req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Program created successfully",
		Data:    program,
	})
}

// UpdateProgram updates an editable program (admin only)
func (pc *ProgramController) UpdateProgram(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	actorID, err := middleware.ExtractUserID(c)
	if err != nil {
		return authResponse(c)
	}

	id, err := objectIDParam(c, "id")
	if err != nil {
		return invalidIDResponse(c, "program ID")
	}

	var req models.ProgramRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return bindError(c, err)
	}

	program, err := pc.programs.Update(ctx, actorID, id, &req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Program updated successfully",
		Data:    program,
	})
}

// UpdateProgramStatus transitions a program to a new lifecycle status
// (admin only)
func (pc *ProgramController) UpdateProgramStatus(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	actorID, err := middleware.ExtractUserID(c)
	if err != nil {
		return authResponse(c)
	}

	id, err := objectIDParam(c, "id")
	if err != nil {
		return invalidIDResponse(c, "program ID")
	}

	var req struct {
		Status string `json:"status" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return bindError(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return bindError(c, err)
	}

	status, err := models.ParseProgramStatus(req.Status)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	program, err := pc.programs.UpdateStatus(ctx, actorID, id, status)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Program status updated successfully",
		Data:    program,
	})
}

// SetDefaultProgram marks a program as the platform default (admin only)
func (pc *ProgramController) SetDefaultProgram(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	actorID, err := middleware.ExtractUserID(c)
	if err != nil {
		return authResponse(c)
	}

	id, err := objectIDParam(c, "id")
	if err != nil {
		return invalidIDResponse(c, "program ID")
	}

	program, err := pc.programs.SetAsDefault(ctx, actorID, id)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Program set as default successfully",
		Data:    program,
	})
}

// SearchPrograms lists programs visible to the caller. Country scoping is
// applied inside the service for non-admin callers.
func (pc *ProgramController) SearchPrograms(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return authResponse(c)
	}
	isAdmin := middleware.ExtractIsAdmin(c)

	filter := models.ProgramSearchFilter{
		ValueContains: c.QueryParam("valueContains"),
	}
	filter.PageNumber, filter.PageSize = pagingQuery(c)

	for _, raw := range c.QueryParams()["countryId"] {
		countryID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return invalidIDResponse(c, "country ID")
		}
		filter.Countries = append(filter.Countries, countryID)
	}

	for _, raw := range c.QueryParams()["status"] {
		status, err := models.ParseProgramStatus(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: err.Error(),
			})
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	results, err := pc.programs.Search(ctx, true, isAdmin, &userID, filter)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Programs retrieved successfully",
		Data:    results,
	})
}
