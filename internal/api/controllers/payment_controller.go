package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/okwareddevnest/eventpass/internal/models/request_models"
	"github.com/okwareddevnest/eventpass/internal/models/response_models"
	"github.com/okwareddevnest/eventpass/internal/queue"
	"github.com/okwareddevnest/eventpass/internal/services"
	"github.com/okwareddevnest/eventpass/pkg/utils"
)

type PaymentController struct {
	reconciler services.ReconciliationServiceInterface
	publisher  queue.Publisher
	logger     *zap.Logger
}

func NewPaymentController(
	reconciler services.ReconciliationServiceInterface,
	publisher queue.Publisher,
	logger *zap.Logger,
) *PaymentController {
	return &PaymentController{
		reconciler: reconciler,
		publisher:  publisher,
		logger:     logger,
	}
}

// HandleIPN godoc
// @Summary Receive a gateway IPN
// @Description Acknowledge the gateway push notification and queue reconciliation
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body request_models.IPNRequest true "IPN payload"
// @Success 200 {object} response_models.IPNAckResponse
// @Router /payments/ipn [post]
func (p *PaymentController) HandleIPN(c *gin.Context) {
	var req request_models.IPNRequest
	var payload []byte
	// The gateway may deliver IPNs as GET query parameters or a JSON POST
	// depending on how the notification URL was registered. Either way the
	// notification is kept verbatim for the intent's audit trail.
	if trackingID := c.Query("OrderTrackingId"); trackingID != "" {
		req.OrderTrackingID = trackingID
		req.OrderMerchantReference = c.Query("OrderMerchantReference")
		req.OrderNotificationType = c.Query("OrderNotificationType")
		payload, _ = json.Marshal(req)
	} else {
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil || json.Unmarshal(raw, &req) != nil || req.OrderTrackingID == "" {
			c.JSON(http.StatusOK, response_models.IPNAckResponse{Status: http.StatusInternalServerError})
			return
		}
		payload = raw
	}

	job := queue.ReconcileJob{
		OrderTrackingID:   req.OrderTrackingID,
		MerchantReference: req.OrderMerchantReference,
		NotificationType:  req.OrderNotificationType,
		ReceivedAt:        time.Now().Unix(),
		Payload:           payload,
	}
	ack := response_models.IPNAckResponse{
		OrderTrackingID:        req.OrderTrackingID,
		OrderMerchantReference: req.OrderMerchantReference,
		Status:                 http.StatusOK,
	}

	if err := p.publisher.PublishReconcileJob(c.Request.Context(), job); err != nil {
		// A failed ack makes the gateway redeliver the notification later.
		p.logger.Error("reconcile job publish failed",
			zap.String("order_tracking_id", req.OrderTrackingID),
			zap.Error(err))
		ack.Status = http.StatusInternalServerError
	}

	c.JSON(http.StatusOK, ack)
}

// HandleCallback godoc
// @Summary Handle the payer redirect callback
// @Description Reconcile the payment synchronously and report its final state
// @Tags Payments
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /payments/callback [post]
func (p *PaymentController) HandleCallback(c *gin.Context) {
	var req request_models.CallbackRequest
	var payload []byte
	if trackingID := c.Query("OrderTrackingId"); trackingID != "" {
		req.OrderTrackingID = trackingID
		req.OrderMerchantReference = c.Query("OrderMerchantReference")
		payload, _ = json.Marshal(req)
	} else {
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil || json.Unmarshal(raw, &req) != nil || req.OrderTrackingID == "" {
			utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
			return
		}
		payload = raw
	}

	intent, err := p.reconciler.Reconcile(c.Request.Context(),
		req.OrderTrackingID, services.SourceCallback, "CALLBACK", payload)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, response_models.CallbackResponse{
		Status:                   string(intent.Status),
		PaymentStatusDescription: intent.StatusDescription,
		ConfirmationCode:         intent.ConfirmationCode,
	}, "Payment reconciled")
}
