// controllers/block_controller.go
package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kaelo-io/referral_backend/middleware"
	"github.com/kaelo-io/referral_backend/models"
	"github.com/kaelo-io/referral_backend/services"
)

// BlockController exposes participation block endpoints (admin only)
type BlockController struct {
	blocks *services.BlockService
}

func NewBlockController(blocks *services.BlockService) *BlockController {
	return &BlockController{blocks: blocks}
}

// BlockUser blocks a user from referral participation
func (bc *BlockController) BlockUser(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	actorID, err := middleware.ExtractUserID(c)
	if err != nil {
		return authResponse(c)
	}

	var req models.BlockRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return bindError(c, err)
	}

	block, err := bc.blocks.Block(ctx, actorID, &req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "User blocked successfully",
		Data:    block,
	})
}

// UnblockUser lifts an active participation block
func (bc *BlockController) UnblockUser(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	actorID, err := middleware.ExtractUserID(c)
	if err != nil {
		return authResponse(c)
	}

	var req models.UnblockRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return bindError(c, err)
	}

	block, err := bc.blocks.Unblock(ctx, actorID, &req)
	if err != nil {
		return errorResponse(c, err)
	}
	if block == nil {
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "User has no active block",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "User unblocked successfully",
		Data:    block,
	})
}

// GetBlock returns the active block for a user, if any
func (bc *BlockController) GetBlock(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := objectIDParam(c, "userId")
	if err != nil {
		return invalidIDResponse(c, "user ID")
	}

	block, err := bc.blocks.GetByUserIDOrNil(ctx, userID)
	if err != nil {
		return errorResponse(c, err)
	}
	if block == nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "User has no active block",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Block retrieved successfully",
		Data:    block,
	})
}
