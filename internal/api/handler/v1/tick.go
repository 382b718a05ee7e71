package v1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/raffle-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/raffle-api/internal/service"
)

type LifecycleService interface {
	AdvanceAll(ctx context.Context) (service.TickReport, error)
}

type TickHandler struct {
	svc LifecycleService
}

func NewTickHandler(svc LifecycleService) *TickHandler {
	return &TickHandler{
		svc: svc,
	}
}

// HandleTick godoc
// @Summary      Advance all raffles
// @Description  Draws every round past its deadline and opens its successor. Raffles are advanced independently; per-raffle failures are listed in the report.
// @Tags         tick
// @Produce      json
// @Param        secret  query     string  false  "Trigger secret, if not sent as a bearer token"
// @Success      200     {object}  service.TickReport
// @Failure      401     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /tick [post]
// @Security     BearerAuth
func (h *TickHandler) HandleTick(ctx *gin.Context) {
	report, err := h.svc.AdvanceAll(ctx.Request.Context())
	if err != nil && report.Processed == 0 {
		err = fmt.Errorf("HandleTick -> h.svc.AdvanceAll -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, report)
}
