package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/raffle-api/internal/api/handler/v1/request"
	"github.com/vietanh2810/raffle-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/raffle-api/internal/api/middleware"
	"github.com/vietanh2810/raffle-api/internal/domain"
	"github.com/vietanh2810/raffle-api/internal/service"
)

var errUsernameRequired = errors.New("the " + middleware.UsernameHeader + " header is required")

type RaffleService interface {
	ListRaffles(ctx context.Context, username string) ([]domain.RaffleSummary, error)
	GetRaffleState(ctx context.Context, raffleID, username string) (domain.RaffleState, error)
	ListRounds(ctx context.Context, raffleID string, limit int) ([]domain.RoundResult, error)
	GetRound(ctx context.Context, roundID uint) (domain.RoundResult, error)
}

type LedgerService interface {
	BuyTickets(ctx context.Context, in service.BuyTicketsInput) (domain.Purchase, error)
}

type RaffleHandler struct {
	svc    RaffleService
	ledger LedgerService
}

func NewRaffleHandler(svc RaffleService, ledger LedgerService) *RaffleHandler {
	return &RaffleHandler{
		svc:    svc,
		ledger: ledger,
	}
}

func usernameFromContext(ctx *gin.Context) string {
	return ctx.GetString(middleware.UsernameKey)
}

// HandleListRaffles godoc
// @Summary      List raffles
// @Description  Lists every raffle with its current round. Rounds past their deadline are drawn first.
// @Tags         raffles
// @Produce      json
// @Param        X-Username  header    string  false  "Caller username"
// @Success      200         {array}   domain.RaffleSummary
// @Failure      500         {object}  response.Err
// @Router       /raffles [get]
func (h *RaffleHandler) HandleListRaffles(ctx *gin.Context) {
	raffles, err := h.svc.ListRaffles(ctx.Request.Context(), usernameFromContext(ctx))
	if err != nil {
		err = fmt.Errorf("HandleListRaffles -> h.svc.ListRaffles -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, raffles)
}

// HandleGetRaffle godoc
// @Summary      Get raffle state
// @Description  Returns the current round, the caller's tickets and odds, and the last drawn round.
// @Tags         raffles
// @Produce      json
// @Param        raffleID    path      string  true   "Raffle ID"
// @Param        X-Username  header    string  false  "Caller username"
// @Success      200         {object}  domain.RaffleState
// @Failure      404         {object}  response.Err
// @Failure      500         {object}  response.Err
// @Router       /raffles/{raffleID} [get]
func (h *RaffleHandler) HandleGetRaffle(ctx *gin.Context) {
	raffleID := ctx.Param("raffleID")

	state, err := h.svc.GetRaffleState(ctx.Request.Context(), raffleID, usernameFromContext(ctx))
	if err != nil {
		if errors.Is(err, service.ErrRaffleNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("raffle", "ID", raffleID))
			return
		}

		err = fmt.Errorf("HandleGetRaffle -> h.svc.GetRaffleState -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, state)
}

// HandleBuyTickets godoc
// @Summary      Buy tickets
// @Description  Appends a purchase to the raffle's open round, or to round_id when given.
// @Tags         raffles
// @Accept       json
// @Produce      json
// @Param        raffleID    path      string                     true  "Raffle ID"
// @Param        X-Username  header    string                     true  "Buyer username"
// @Param        request     body      request.BuyTicketsRequest  true  "request body"
// @Success      201         {object}  domain.Purchase
// @Failure      400         {object}  response.Err
// @Failure      404         {object}  response.Err
// @Failure      409         {object}  response.Err
// @Failure      500         {object}  response.Err
// @Router       /raffles/{raffleID}/tickets [post]
func (h *RaffleHandler) HandleBuyTickets(ctx *gin.Context) {
	username := usernameFromContext(ctx)
	if username == "" {
		response.RenderErr(ctx, response.ErrBadRequest(errUsernameRequired))
		return
	}

	var req request.BuyTicketsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	raffleID := ctx.Param("raffleID")
	purchase, err := h.ledger.BuyTickets(ctx.Request.Context(), service.BuyTicketsInput{
		RaffleID:    raffleID,
		RoundID:     req.RoundID,
		Username:    username,
		Qty:         req.Qty,
		CreatorCode: req.CreatorCode,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		case errors.Is(err, service.ErrRaffleNotFound):
			response.RenderErr(ctx, response.ErrNotFound("raffle", "ID", raffleID))
		case errors.Is(err, service.ErrRoundNotFound) && req.RoundID != nil:
			response.RenderErr(ctx, response.ErrNotFound("round", "ID", *req.RoundID))
		case errors.Is(err, service.ErrRoundClosed):
			response.RenderErr(ctx, response.ErrConflict(service.ErrRoundClosed))
		default:
			err = fmt.Errorf("HandleBuyTickets -> h.ledger.BuyTickets -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusCreated, purchase)
}

// HandleListRounds godoc
// @Summary      List rounds
// @Description  Returns the latest rounds of a raffle, newest first, with their outcome.
// @Tags         rounds
// @Produce      json
// @Param        raffleID  path      string  true   "Raffle ID"
// @Param        limit     query     int     false  "Number of rounds (default 20)"
// @Success      200       {array}   domain.RoundResult
// @Failure      400       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /raffles/{raffleID}/rounds [get]
func (h *RaffleHandler) HandleListRounds(ctx *gin.Context) {
	raffleID := ctx.Param("raffleID")

	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 || limit > 100 {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid limit %q", ctx.Query("limit"))))
		return
	}

	rounds, err := h.svc.ListRounds(ctx.Request.Context(), raffleID, limit)
	if err != nil {
		if errors.Is(err, service.ErrRaffleNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("raffle", "ID", raffleID))
			return
		}

		err = fmt.Errorf("HandleListRounds -> h.svc.ListRounds -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, rounds)
}

// HandleGetRound godoc
// @Summary      Get round
// @Tags         rounds
// @Produce      json
// @Param        roundID  path      int  true  "Round ID"
// @Success      200      {object}  domain.RoundResult
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /rounds/{roundID} [get]
func (h *RaffleHandler) HandleGetRound(ctx *gin.Context) {
	roundID, err := strconv.ParseUint(ctx.Param("roundID"), 10, 64)
	if err != nil || roundID == 0 {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid round ID %q", ctx.Param("roundID"))))
		return
	}

	round, err := h.svc.GetRound(ctx.Request.Context(), uint(roundID))
	if err != nil {
		if errors.Is(err, service.ErrRoundNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("round", "ID", roundID))
			return
		}

		err = fmt.Errorf("HandleGetRound -> h.svc.GetRound -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, round)
}
