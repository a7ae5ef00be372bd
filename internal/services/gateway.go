package services

import (
	"context"

	"github.com/okwareddevnest/eventpass/internal/gateway/pesapal"
)

// PaymentGateway is the slice of the gateway client the services depend on.
// Tests substitute a fake; production wires *pesapal.Client.
type PaymentGateway interface {
	SubmitOrder(ctx context.Context, order pesapal.OrderRequest) (*pesapal.OrderResponse, error)
	RegisterIPN(ctx context.Context, url string) (*pesapal.IPNRegistration, error)
	GetTransactionStatus(ctx context.Context, orderTrackingID string) (*pesapal.TransactionStatus, error)
}
