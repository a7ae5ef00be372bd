// Package queue carries IPN reconciliation work from the HTTP handler that
// acknowledges the gateway to the background worker that settles the payment.
package queue

import "encoding/json"

const ReconcileQueueName = "payments.reconcile"

// ReconcileJob is one queued reconciliation request. It records what the
// gateway told us, but the worker re-queries the gateway rather than
// trusting these fields.
type ReconcileJob struct {
	OrderTrackingID   string `json:"order_tracking_id"`
	MerchantReference string `json:"merchant_reference"`
	NotificationType  string `json:"notification_type"`
	ReceivedAt        int64  `json:"received_at"`

	// Payload is the notification exactly as the gateway delivered it,
	// carried through so the worker can append it to the audit trail.
	Payload json.RawMessage `json:"payload,omitempty"`
}
