// controllers/link_controller.go
package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kaelo-io/referral_backend/middleware"
	"github.com/kaelo-io/referral_backend/models"
	"github.com/kaelo-io/referral_backend/services"
)

// LinkController exposes referral link endpoints for link owners
type LinkController struct {
	links *services.LinkService
}

func NewLinkController(links *services.LinkService) *LinkController {
	return &LinkController{links: links}
}

// CreateLink creates a referral link for the authenticated user
func (lc *LinkController) CreateLink(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return authResponse(c)
	}

	var req models.LinkRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return bindError(c, err)
	}

	link, err := lc.links.Create(ctx, userID, &req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Referral link created successfully",
		Data:    link,
	})
}

// GetLink returns one of the caller's links; admins can read any link.
// Pass includeQRCode=true to embed the QR code as a data URI.
func (lc *LinkController) GetLink(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return authResponse(c)
	}
	isAdmin := middleware.ExtractIsAdmin(c)

	linkID, err := objectIDParam(c, "id")
	if err != nil {
		return invalidIDResponse(c, "link ID")
	}

	includeQRCode, _ := strconv.ParseBool(c.QueryParam("includeQRCode"))

	link, err := lc.links.GetByID(ctx, userID, isAdmin, linkID, includeQRCode)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Referral link retrieved successfully",
		Data:    link,
	})
}

// CancelLink cancels one of the caller's links; admins can cancel any link
func (lc *LinkController) CancelLink(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return authResponse(c)
	}
	isAdmin := middleware.ExtractIsAdmin(c)

	linkID, err := objectIDParam(c, "id")
	if err != nil {
		return invalidIDResponse(c, "link ID")
	}

	link, err := lc.links.Cancel(ctx, userID, isAdmin, linkID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Referral link cancelled successfully",
		Data:    link,
	})
}

// SearchLinks lists the caller's links. Admins may search across all
// owners by passing userId.
func (lc *LinkController) SearchLinks(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return authResponse(c)
	}
	isAdmin := middleware.ExtractIsAdmin(c)

	filter := models.LinkSearchFilter{UserID: &userID}
	if isAdmin {
		requested, err := objectIDQuery(c, "userId")
		if err != nil {
			return invalidIDResponse(c, "user ID")
		}
		filter.UserID = requested
	}

	filter.ProgramID, err = objectIDQuery(c, "programId")
	if err != nil {
		return invalidIDResponse(c, "program ID")
	}

	for _, raw := range c.QueryParams()["status"] {
		status, err := models.ParseLinkStatus(raw)
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

	results, err := lc.links.Search(ctx, filter)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Referral links retrieved successfully",
		Data:    results,
	})
}
