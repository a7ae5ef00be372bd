package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/okwareddevnest/eventpass/internal/models/db_models"
	"github.com/okwareddevnest/eventpass/internal/models/request_models"
	"github.com/okwareddevnest/eventpass/internal/services"
	"github.com/okwareddevnest/eventpass/pkg/utils"
)

type AdminController struct {
	payoutService   services.PayoutServiceInterface
	settingsService services.SettingsServiceInterface
}

func NewAdminController(
	payoutService services.PayoutServiceInterface,
	settingsService services.SettingsServiceInterface,
) *AdminController {
	return &AdminController{
		payoutService:   payoutService,
		settingsService: settingsService,
	}
}

func (a *AdminController) payoutID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid payout id")
		return uuid.Nil, false
	}
	return id, true
}

// ListPayouts godoc
// @Summary List payout requests
// @Description List all payout requests, optionally filtered by status
// @Tags Admin
// @Produce json
// @Param status query string false "Payout status filter"
// @Success 200 {object} utils.APIResponse
// @Router /admin/payouts [get]
func (a *AdminController) ListPayouts(c *gin.Context) {
	status := db_models.PayoutStatus(c.Query("status"))
	payouts, err := a.payoutService.ListAll(c.Request.Context(), status)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, toPayoutResponses(payouts), "")
}

// ApprovePayout godoc
// @Summary Approve a pending payout
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Payout id"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /admin/payouts/{id}/approve [patch]
func (a *AdminController) ApprovePayout(c *gin.Context) {
	reviewerID, ok := currentUserID(c)
	if !ok {
		return
	}
	payoutID, ok := a.payoutID(c)
	if !ok {
		return
	}
	var req request_models.ApprovePayoutRequest
	_ = c.ShouldBindJSON(&req)

	if err := a.payoutService.Approve(c.Request.Context(), reviewerID, payoutID, req.Notes); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Payout approved")
}

// RejectPayout godoc
// @Summary Reject a pending payout
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Payout id"
// @Param request body request_models.RejectPayoutRequest true "Rejection payload"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /admin/payouts/{id}/reject [patch]
func (a *AdminController) RejectPayout(c *gin.Context) {
	reviewerID, ok := currentUserID(c)
	if !ok {
		return
	}
	payoutID, ok := a.payoutID(c)
	if !ok {
		return
	}
	var req request_models.RejectPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Rejection reason is required")
		return
	}

	if err := a.payoutService.Reject(c.Request.Context(), reviewerID, payoutID, req.Reason, req.Notes); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Payout rejected")
}

// ProcessPayout godoc
// @Summary Mark an approved payout as processing
// @Tags Admin
// @Produce json
// @Param id path string true "Payout id"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /admin/payouts/{id}/processing [patch]
func (a *AdminController) ProcessPayout(c *gin.Context) {
	reviewerID, ok := currentUserID(c)
	if !ok {
		return
	}
	payoutID, ok := a.payoutID(c)
	if !ok {
		return
	}

	if err := a.payoutService.MarkProcessing(c.Request.Context(), reviewerID, payoutID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Payout marked as processing")
}

// CompletePayout godoc
// @Summary Complete a payout after the money has moved
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Payout id"
// @Param request body request_models.CompletePayoutRequest true "Completion payload"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /admin/payouts/{id}/complete [patch]
func (a *AdminController) CompletePayout(c *gin.Context) {
	reviewerID, ok := currentUserID(c)
	if !ok {
		return
	}
	payoutID, ok := a.payoutID(c)
	if !ok {
		return
	}
	var req request_models.CompletePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "External reference is required")
		return
	}

	if err := a.payoutService.Complete(c.Request.Context(), reviewerID, payoutID, req.ExternalReference); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Payout completed")
}

// GetSettings godoc
// @Summary Show platform settings
// @Tags Admin
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /admin/settings [get]
func (a *AdminController) GetSettings(c *gin.Context) {
	settings, err := a.settingsService.All(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, settings, "")
}

// UpdateSettings godoc
// @Summary Update platform settings
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body request_models.UpdateSettingsRequest true "Settings payload"
// @Success 200 {object} utils.APIResponse
// @Router /admin/settings [patch]
func (a *AdminController) UpdateSettings(c *gin.Context) {
	var req request_models.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := a.settingsService.Update(c.Request.Context(), req.Settings); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Settings updated")
}

// RegisterIPN godoc
// @Summary Register the IPN notification URL with the gateway
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body request_models.RegisterIPNRequest true "IPN registration payload"
// @Success 200 {object} utils.APIResponse
// @Failure 502 {object} utils.APIResponse
// @Router /admin/settings/register-ipn [post]
func (a *AdminController) RegisterIPN(c *gin.Context) {
	var req request_models.RegisterIPNRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}
	url := req.URL
	if url == "" {
		utils.RespondError(c, http.StatusBadRequest, "IPN url is required")
		return
	}

	registration, err := a.settingsService.RegisterIPN(c.Request.Context(), url)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, gin.H{
		"ipn_id": registration.IPNID,
		"url":    registration.URL,
	}, "IPN registered")
}
