package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func traceID(c *gin.Context) string {
	if v, ok := c.Get("trace_id"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  "success",
		Code:    http.StatusOK,
		Message: message,
		TraceID: traceID(c),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: traceID(c),
	})
}

// HandleServiceError maps service sentinel errors onto HTTP responses so
// controllers stay free of status-code decisions.
func HandleServiceError(c *gin.Context, err error) {
	var balErr *InsufficientBalanceError
	switch {
	case errors.As(err, &balErr):
		c.JSON(http.StatusUnprocessableEntity, APIResponse{
			Status:  "error",
			Code:    http.StatusUnprocessableEntity,
			Message: balErr.Error(),
			TraceID: traceID(c),
			Data: gin.H{
				"requested_amount":  balErr.Requested.StringFixed(2),
				"available_balance": balErr.Available.StringFixed(2),
			},
		})
	case errors.Is(err, ErrEventNotFound),
		errors.Is(err, ErrIntentNotFound),
		errors.Is(err, ErrPayoutNotFound),
		errors.Is(err, ErrAccountNotFound),
		errors.Is(err, RecordNotFound):
		RespondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrEventNotActive),
		errors.Is(err, ErrEventSoldOut),
		errors.Is(err, ErrBelowMinimumPayout):
		RespondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrPaymentSetupRequired):
		RespondError(c, http.StatusPreconditionFailed, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		RespondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrPayoutLocked):
		RespondError(c, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, ErrGatewayUnavailable), errors.Is(err, ErrGatewayAuth):
		RespondError(c, http.StatusBadGateway, "payment gateway unavailable, retry shortly")
	case errors.Is(err, ErrDatabaseError):
		zap.L().Error("database error", zap.String("trace_id", traceID(c)), zap.Error(err))
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	default:
		zap.L().Error("unhandled service error", zap.String("trace_id", traceID(c)), zap.Error(err))
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	}
}
