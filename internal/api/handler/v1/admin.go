package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/raffle-api/internal/api/handler/v1/request"
	"github.com/vietanh2810/raffle-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/raffle-api/internal/domain"
	"github.com/vietanh2810/raffle-api/internal/service"
)

type RaffleAdminService interface {
	CreateRaffle(ctx context.Context, raffle domain.Raffle) (domain.Raffle, error)
	UpdateRaffle(ctx context.Context, raffle domain.Raffle) (domain.Raffle, error)
	DeleteRaffle(ctx context.Context, raffleID string) error
}

type ReportService interface {
	CreatorStats(ctx context.Context) ([]domain.CreatorStat, error)
}

type AdminHandler struct {
	svc     RaffleAdminService
	reports ReportService
}

func NewAdminHandler(svc RaffleAdminService, reports ReportService) *AdminHandler {
	return &AdminHandler{
		svc:     svc,
		reports: reports,
	}
}

// HandleCreateRaffle godoc
// @Summary      Create a raffle
// @Description  Creates a raffle and opens its first round. The ID is generated when omitted.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        X-Admin-Pin  header    string                 false  "Admin PIN"
// @Param        request      body      request.RaffleRequest  true   "request body"
// @Success      201          {object}  domain.Raffle
// @Failure      400          {object}  response.Err
// @Failure      401          {object}  response.Err
// @Failure      409          {object}  response.Err
// @Failure      500          {object}  response.Err
// @Router       /admin/raffles [post]
func (h *AdminHandler) HandleCreateRaffle(ctx *gin.Context) {
	var req request.RaffleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	raffle, err := h.svc.CreateRaffle(ctx.Request.Context(), req.ToDomain())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		case errors.Is(err, service.ErrRaffleExists):
			response.RenderErr(ctx, response.ErrConflict(service.ErrRaffleExists))
		default:
			err = fmt.Errorf("HandleCreateRaffle -> h.svc.CreateRaffle -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusCreated, raffle)
}

// HandleUpdateRaffle godoc
// @Summary      Update a raffle
// @Description  Edits a raffle. A new duration applies from the next round on.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        raffleID     path      string                 true   "Raffle ID"
// @Param        X-Admin-Pin  header    string                 false  "Admin PIN"
// @Param        request      body      request.RaffleRequest  true   "request body"
// @Success      200          {object}  domain.Raffle
// @Failure      400          {object}  response.Err
// @Failure      401          {object}  response.Err
// @Failure      404          {object}  response.Err
// @Failure      500          {object}  response.Err
// @Router       /admin/raffles/{raffleID} [put]
func (h *AdminHandler) HandleUpdateRaffle(ctx *gin.Context) {
	var req request.RaffleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	raffleID := ctx.Param("raffleID")
	req.ID = raffleID
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	raffle, err := h.svc.UpdateRaffle(ctx.Request.Context(), req.ToDomain())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		case errors.Is(err, service.ErrRaffleNotFound):
			response.RenderErr(ctx, response.ErrNotFound("raffle", "ID", raffleID))
		default:
			err = fmt.Errorf("HandleUpdateRaffle -> h.svc.UpdateRaffle -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, raffle)
}

// HandleDeleteRaffle godoc
// @Summary      Delete a raffle
// @Description  Deletes a raffle with all its rounds and purchases.
// @Tags         admin
// @Param        raffleID     path      string  true   "Raffle ID"
// @Param        X-Admin-Pin  header    string  false  "Admin PIN"
// @Success      204
// @Failure      401          {object}  response.Err
// @Failure      404          {object}  response.Err
// @Failure      500          {object}  response.Err
// @Router       /admin/raffles/{raffleID} [delete]
func (h *AdminHandler) HandleDeleteRaffle(ctx *gin.Context) {
	raffleID := ctx.Param("raffleID")

	if err := h.svc.DeleteRaffle(ctx.Request.Context(), raffleID); err != nil {
		if errors.Is(err, service.ErrRaffleNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("raffle", "ID", raffleID))
			return
		}

		err = fmt.Errorf("HandleDeleteRaffle -> h.svc.DeleteRaffle -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleCreatorStats godoc
// @Summary      Creator code report
// @Description  Tickets and revenue per creator code, highest revenue first.
// @Tags         admin
// @Produce      json
// @Param        X-Admin-Pin  header    string  false  "Admin PIN"
// @Success      200          {array}   domain.CreatorStat
// @Failure      401          {object}  response.Err
// @Failure      500          {object}  response.Err
// @Router       /admin/creator-stats [get]
func (h *AdminHandler) HandleCreatorStats(ctx *gin.Context) {
	stats, err := h.reports.CreatorStats(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("HandleCreatorStats -> h.reports.CreatorStats -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, stats)
}
