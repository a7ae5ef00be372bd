package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/okwareddevnest/eventpass/internal/models/db_models"
	"github.com/okwareddevnest/eventpass/internal/models/request_models"
	"github.com/okwareddevnest/eventpass/internal/models/response_models"
	"github.com/okwareddevnest/eventpass/internal/services"
	"github.com/okwareddevnest/eventpass/pkg/utils"
)

type PayoutController struct {
	payoutService services.PayoutServiceInterface
}

func NewPayoutController(payoutService services.PayoutServiceInterface) *PayoutController {
	return &PayoutController{
		payoutService: payoutService,
	}
}

func toPayoutResponse(p *db_models.PayoutRequest) response_models.PayoutResponse {
	return response_models.PayoutResponse{
		ID:                p.ID.String(),
		Amount:            p.Amount.StringFixed(2),
		Currency:          p.Currency,
		Status:            string(p.Status),
		Method:            p.Method,
		MethodDetails:     []byte(p.MethodDetails),
		RequestedAt:       p.RequestedAt,
		ReviewedAt:        p.ReviewedAt,
		ProcessedAt:       p.ProcessedAt,
		RejectionReason:   p.RejectionReason,
		ExternalReference: p.ExternalReference,
	}
}

func toPayoutResponses(payouts []db_models.PayoutRequest) []response_models.PayoutResponse {
	out := make([]response_models.PayoutResponse, 0, len(payouts))
	for i := range payouts {
		out = append(out, toPayoutResponse(&payouts[i]))
	}
	return out
}

// Create godoc
// @Summary Request a payout
// @Description Create a withdrawal request against accrued earnings
// @Tags Payouts
// @Accept json
// @Produce json
// @Param request body request_models.CreatePayoutRequest true "Payout payload"
// @Success 200 {object} utils.APIResponse
// @Failure 422 {object} utils.APIResponse
// @Router /payouts/request [post]
func (p *PayoutController) Create(c *gin.Context) {
	var req request_models.CreatePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}
	requesterID, ok := currentUserID(c)
	if !ok {
		return
	}

	payout, err := p.payoutService.Request(c.Request.Context(), requesterID, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	resp := toPayoutResponse(payout)
	utils.RespondSuccess(c, resp, "Payout request submitted")
}

// List godoc
// @Summary List own payout requests
// @Tags Payouts
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /payouts [get]
func (p *PayoutController) List(c *gin.Context) {
	requesterID, ok := currentUserID(c)
	if !ok {
		return
	}
	payouts, err := p.payoutService.ListMine(c.Request.Context(), requesterID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, toPayoutResponses(payouts), "")
}

// Balance godoc
// @Summary Show earnings balance
// @Description Report pending, reserved, available and withdrawn amounts
// @Tags Payouts
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /payouts/balance [get]
func (p *PayoutController) Balance(c *gin.Context) {
	requesterID, ok := currentUserID(c)
	if !ok {
		return
	}
	balance, err := p.payoutService.Balance(c.Request.Context(), requesterID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, balance, "")
}

// Cancel godoc
// @Summary Cancel a pending payout request
// @Tags Payouts
// @Produce json
// @Param id path string true "Payout id"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /payouts/{id}/cancel [patch]
func (p *PayoutController) Cancel(c *gin.Context) {
	requesterID, ok := currentUserID(c)
	if !ok {
		return
	}
	payoutID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid payout id")
		return
	}

	if err := p.payoutService.Cancel(c.Request.Context(), requesterID, payoutID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Payout request cancelled")
}
