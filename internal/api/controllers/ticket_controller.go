package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/okwareddevnest/eventpass/internal/services"
	"github.com/okwareddevnest/eventpass/pkg/utils"
)

type TicketController struct {
	ticketService services.TicketServiceInterface
}

func NewTicketController(ticketService services.TicketServiceInterface) *TicketController {
	return &TicketController{
		ticketService: ticketService,
	}
}

// Verify godoc
// @Summary Verify a payment and its ticket
// @Description Look up the payment state and ticket for an order tracking id
// @Tags Tickets
// @Produce json
// @Param orderTrackingId query string true "Order tracking id"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /payments/verify [get]
func (t *TicketController) Verify(c *gin.Context) {
	trackingID := c.Query("orderTrackingId")
	if trackingID == "" {
		utils.RespondError(c, http.StatusBadRequest, "orderTrackingId is required")
		return
	}

	result, err := t.ticketService.Verify(c.Request.Context(), trackingID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, result, "Verification complete")
}

// CheckIn godoc
// @Summary Check a ticket in at the gate
// @Description Mark a valid ticket as used; a second scan is rejected
// @Tags Tickets
// @Produce json
// @Param code path string true "Ticket code"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /tickets/{code}/check-in [post]
func (t *TicketController) CheckIn(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		utils.RespondError(c, http.StatusBadRequest, "ticket code is required")
		return
	}

	if err := t.ticketService.CheckIn(c.Request.Context(), code); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, gin.H{"ticket_code": code}, "Ticket checked in")
}
