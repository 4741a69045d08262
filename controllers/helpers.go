// controllers/helpers.go
package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kaelo-io/referral_backend/models"
	"github.com/kaelo-io/referral_backend/services"
)

// errorResponse maps service errors onto the API envelope. Business-rule
// violations come back as 400 with the stable reason key, missing aggregates
// as 404, anything else as 500.
func errorResponse(c echo.Context, err error) error {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: validationErr.Message,
			Data:    map[string]string{"reason": string(validationErr.Reason)},
		})
	}

	var notFoundErr *services.NotFoundError
	if errors.As(err, &notFoundErr) {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: notFoundErr.Error(),
		})
	}

	log.Printf("Request failed: %v", err)
	return c.JSON(http.StatusInternalServerError, models.Response{
		Status:  http.StatusInternalServerError,
		Message: "Internal server error",
	})
}

func bindError(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, models.Response{
		Status:  http.StatusBadRequest,
		Message: "Invalid request body",
		Data:    err.Error(),
	})
}

func invalidIDResponse(c echo.Context, name string) error {
	return c.JSON(http.StatusBadRequest, models.Response{
		Status:  http.StatusBadRequest,
		Message: "Invalid " + name + " format",
	})
}

func authResponse(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, models.Response{
		Status:  http.StatusUnauthorized,
		Message: "Authentication failed",
	})
}

// objectIDParam parses a path parameter as a Mongo ObjectID
func objectIDParam(c echo.Context, name string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(c.Param(name))
}

// objectIDQuery parses an optional query parameter as a Mongo ObjectID;
// absent values return nil without error.
func objectIDQuery(c echo.Context, name string) (*primitive.ObjectID, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// timeQuery parses an optional RFC 3339 query parameter; absent values
// return nil without error.
func timeQuery(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// pagingQuery reads pageNumber/pageSize with sane defaults and an upper
// bound on the page size.
func pagingQuery(c echo.Context) (pageNumber, pageSize int) {
	pageNumber, _ = strconv.Atoi(c.QueryParam("pageNumber"))
	if pageNumber < 1 {
		pageNumber = 1
	}
	pageSize, _ = strconv.Atoi(c.QueryParam("pageSize"))
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return pageNumber, pageSize
}
