package utils

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// Gateway client.
	ErrGatewayAuth        = errors.New("gateway authentication failed")
	ErrGatewayUnavailable = errors.New("gateway unavailable")

	// Order creation.
	ErrEventNotFound        = errors.New("event not found")
	ErrEventNotActive       = errors.New("event is not open for sales")
	ErrEventSoldOut         = errors.New("event sold out")
	ErrPaymentSetupRequired = errors.New("payment setup incomplete")

	// Reconciliation and issuance.
	ErrIntentNotFound  = errors.New("payment intent not found")
	ErrTicketIssue     = errors.New("ticket issuance failed")
	ErrLedgerWrite     = errors.New("ledger write failed")
	ErrDuplicateTicket = errors.New("ticket already issued")
	ErrDuplicateLedger = errors.New("ledger rows already recorded")

	// Payouts.
	ErrPayoutNotFound     = errors.New("payout request not found")
	ErrBelowMinimumPayout = errors.New("amount below minimum payout")
	ErrInvalidTransition  = errors.New("invalid payout state transition")
	ErrPayoutLocked       = errors.New("another payout operation is in progress")

	ErrAccountNotFound = errors.New("account not found")
	ErrDatabaseError   = errors.New("database error")
	RecordNotFound     = errors.New("record not found")
)

// InsufficientBalanceError rejects a payout request and reports the balance
// actually available so the UI can correct the request.
type InsufficientBalanceError struct {
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: requested %s, available %s",
		e.Requested.StringFixed(2), e.Available.StringFixed(2))
}
