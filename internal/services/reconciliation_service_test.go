package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/okwareddevnest/eventpass/internal/gateway/pesapal"
	"github.com/okwareddevnest/eventpass/internal/models/db_models"
	"github.com/okwareddevnest/eventpass/pkg/utils"
)

type fixture struct {
	accounts *fakeAccountRepo
	events   *fakeEventRepo
	intents  *fakeIntentRepo
	tickets  *fakeTicketRepo
	txns     *fakeTxnRepo
	settings *fakeSettingsRepo
	gateway  *fakeGateway

	ticketSvc TicketServiceInterface
	ledgerSvc LedgerServiceInterface
	svc       ReconciliationServiceInterface

	organizerID uuid.UUID
	payerID     uuid.UUID
	eventID     uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()

	f := &fixture{
		accounts: newFakeAccountRepo(),
		events:   newFakeEventRepo(),
		intents:  newFakeIntentRepo(),
		settings: newFakeSettingsRepo(),
		gateway:  &fakeGateway{},
	}
	f.tickets = newFakeTicketRepo(f.events)
	f.txns = newFakeTxnRepo(f.accounts)

	f.organizerID = uuid.New()
	f.payerID = uuid.New()
	f.eventID = uuid.New()

	f.accounts.accounts[f.organizerID] = &db_models.Account{
		BaseModel: db_models.BaseModel{ID: f.organizerID},
		Name:      "Jamila Otieno",
		Email:     "jamila@example.com",
		Role:      db_models.RoleOrganizer,
	}
	f.accounts.accounts[f.payerID] = &db_models.Account{
		BaseModel: db_models.BaseModel{ID: f.payerID},
		Name:      "Brian Kip",
		Email:     "brian@example.com",
		Role:      db_models.RoleAttendee,
	}
	f.events.events[f.eventID] = &db_models.Event{
		BaseModel:   db_models.BaseModel{ID: f.eventID},
		OrganizerID: f.organizerID,
		Title:       "Nairobi Jazz Night",
		TicketPrice: decimal.NewFromInt(1000),
		Currency:    "KES",
		Status:      db_models.EventPublished,
	}

	settingsSvc := NewSettingsService(f.settings, f.gateway, logger)
	f.ticketSvc = NewTicketService(f.tickets, f.intents, f.events, logger)
	f.ledgerSvc = NewLedgerService(f.txns, f.events, settingsSvc, logger)
	f.svc = NewReconciliationService(f.intents, f.ticketSvc, f.ledgerSvc, f.gateway, logger)
	return f
}

func (f *fixture) addIntent(t *testing.T, trackingID string) *db_models.PaymentIntent {
	t.Helper()
	intent := &db_models.PaymentIntent{
		PayerID:           f.payerID,
		EventID:           f.eventID,
		MerchantReference: "TKT-" + trackingID,
		OrderTrackingID:   trackingID,
		Amount:            decimal.NewFromInt(1000),
		Currency:          "KES",
		Status:            db_models.PaymentPending,
	}
	require.NoError(t, f.intents.Create(context.Background(), intent))
	return intent
}

func completedStatus() *pesapal.TransactionStatus {
	return &pesapal.TransactionStatus{
		StatusCode:               pesapal.StatusCodeCompleted,
		PaymentStatusDescription: "Completed",
		ConfirmationCode:         "QJX123",
		Raw:                      []byte(`{"status_code":1}`),
	}
}

func TestReconcileCompletedIssuesTicketAndLedger(t *testing.T) {
	f := newFixture(t)
	f.addIntent(t, "trk-1")
	f.gateway.setStatus(completedStatus())

	intent, err := f.svc.Reconcile(context.Background(), "trk-1", SourceIPN, "IPNCHANGE", nil)
	require.NoError(t, err)
	assert.Equal(t, db_models.PaymentCompleted, intent.Status)
	assert.Equal(t, "QJX123", intent.ConfirmationCode)

	ticket, err := f.tickets.GetByTrackingID(context.Background(), "trk-1")
	require.NoError(t, err)
	require.NotNil(t, ticket)
	assert.Equal(t, db_models.TicketValid, ticket.Status)
	assert.Equal(t, f.payerID, ticket.OwnerID)

	// 10% default commission on 1000.
	organizer, _ := f.accounts.GetByID(context.Background(), f.organizerID)
	assert.True(t, organizer.PendingEarnings.Equal(decimal.NewFromInt(900)),
		"got %s", organizer.PendingEarnings)

	payment, err := f.txns.GetByIntentAndType(context.Background(), intent.ID, db_models.TxnPayment)
	require.NoError(t, err)
	require.NotNil(t, payment)
	commission, err := f.txns.GetByIntentAndType(context.Background(), intent.ID, db_models.TxnCommission)
	require.NoError(t, err)
	require.NotNil(t, commission)
	assert.True(t, commission.Amount.Equal(decimal.NewFromInt(100)))
}

func TestReconcileIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.addIntent(t, "trk-2")
	f.gateway.setStatus(completedStatus())

	for i := 0; i < 5; i++ {
		_, err := f.svc.Reconcile(context.Background(), "trk-2", SourceIPN, "IPNCHANGE", nil)
		require.NoError(t, err)
	}

	assert.Equal(t, 1, f.tickets.count(), "exactly one ticket")
	organizer, _ := f.accounts.GetByID(context.Background(), f.organizerID)
	assert.True(t, organizer.PendingEarnings.Equal(decimal.NewFromInt(900)),
		"earnings credited once, got %s", organizer.PendingEarnings)
	// Every notification is still recorded for audit.
	assert.Equal(t, 5, f.intents.notificationCount())
}

func TestReconcileConcurrentPushAndPull(t *testing.T) {
	f := newFixture(t)
	f.addIntent(t, "trk-3")
	f.gateway.setStatus(completedStatus())

	var wg sync.WaitGroup
	errs := make([]error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			source := SourceIPN
			if n%2 == 0 {
				source = SourceCallback
			}
			_, errs[n] = f.svc.Reconcile(context.Background(), "trk-3", source, "IPNCHANGE", nil)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, f.tickets.count())
	organizer, _ := f.accounts.GetByID(context.Background(), f.organizerID)
	assert.True(t, organizer.PendingEarnings.Equal(decimal.NewFromInt(900)),
		"got %s", organizer.PendingEarnings)
}

func TestReconcileFailedStatusHasNoSideEffects(t *testing.T) {
	f := newFixture(t)
	f.addIntent(t, "trk-4")
	f.gateway.setStatus(&pesapal.TransactionStatus{
		StatusCode:               pesapal.StatusCodeFailed,
		PaymentStatusDescription: "Failed",
	})

	intent, err := f.svc.Reconcile(context.Background(), "trk-4", SourceCallback, "CALLBACK", nil)
	require.NoError(t, err)
	assert.Equal(t, db_models.PaymentFailed, intent.Status)
	assert.Equal(t, 0, f.tickets.count())

	organizer, _ := f.accounts.GetByID(context.Background(), f.organizerID)
	assert.True(t, organizer.PendingEarnings.IsZero())
}

func TestReconcileUnknownIntent(t *testing.T) {
	f := newFixture(t)
	f.gateway.setStatus(completedStatus())

	_, err := f.svc.Reconcile(context.Background(), "never-created", SourceIPN, "IPNCHANGE", nil)
	assert.ErrorIs(t, err, utils.ErrIntentNotFound)
	assert.Equal(t, 0, f.gateway.statusCalls, "no gateway call for unknown intents")
}

func TestReconcileGatewayDownLeavesIntentPending(t *testing.T) {
	f := newFixture(t)
	f.addIntent(t, "trk-5")
	f.gateway.statusErr = utils.ErrGatewayUnavailable

	_, err := f.svc.Reconcile(context.Background(), "trk-5", SourceIPN, "IPNCHANGE", nil)
	assert.ErrorIs(t, err, utils.ErrGatewayUnavailable)

	intent, _ := f.intents.GetByTrackingID(context.Background(), "trk-5")
	assert.Equal(t, db_models.PaymentPending, intent.Status)

	// Gateway recovers; the retry settles the payment.
	f.gateway.setStatus(completedStatus())
	settled, err := f.svc.Reconcile(context.Background(), "trk-5", SourceIPN, "IPNCHANGE", nil)
	require.NoError(t, err)
	assert.Equal(t, db_models.PaymentCompleted, settled.Status)
	assert.Equal(t, 1, f.tickets.count())
}

func TestReconcileRollsBackWhenIssueFails(t *testing.T) {
	f := newFixture(t)
	f.addIntent(t, "trk-6")
	f.gateway.setStatus(completedStatus())
	f.tickets.failIssue = errors.New("disk full")

	_, err := f.svc.Reconcile(context.Background(), "trk-6", SourceIPN, "IPNCHANGE", nil)
	require.Error(t, err)

	// The claim was rolled back so a retry can complete the payment.
	intent, _ := f.intents.GetByTrackingID(context.Background(), "trk-6")
	assert.Equal(t, db_models.PaymentPending, intent.Status)

	f.tickets.failIssue = nil
	settled, err := f.svc.Reconcile(context.Background(), "trk-6", SourceCallback, "CALLBACK", nil)
	require.NoError(t, err)
	assert.Equal(t, db_models.PaymentCompleted, settled.Status)
	assert.Equal(t, 1, f.tickets.count())
}

func TestReconcileHealsMissingTicketOnCompletedIntent(t *testing.T) {
	f := newFixture(t)
	intent := f.addIntent(t, "trk-7")
	// Simulate a crash after the status write: intent COMPLETED, no ticket.
	ok, err := f.intents.TransitionStatus(context.Background(), intent.OrderTrackingID,
		db_models.PaymentPending, db_models.PaymentCompleted, "Completed", "QJX999", nil)
	require.NoError(t, err)
	require.True(t, ok)
	f.gateway.setStatus(completedStatus())

	_, err = f.svc.Reconcile(context.Background(), "trk-7", SourceCallback, "CALLBACK", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, f.tickets.count())

	organizer, _ := f.accounts.GetByID(context.Background(), f.organizerID)
	assert.True(t, organizer.PendingEarnings.Equal(decimal.NewFromInt(900)))
}

func TestReconcileReversalAfterCompletion(t *testing.T) {
	f := newFixture(t)
	f.addIntent(t, "trk-8")
	f.gateway.setStatus(completedStatus())

	_, err := f.svc.Reconcile(context.Background(), "trk-8", SourceIPN, "IPNCHANGE", nil)
	require.NoError(t, err)

	f.gateway.setStatus(&pesapal.TransactionStatus{
		StatusCode:               pesapal.StatusCodeReversed,
		PaymentStatusDescription: "Reversed",
	})
	intent, err := f.svc.Reconcile(context.Background(), "trk-8", SourceIPN, "IPNCHANGE", nil)
	require.NoError(t, err)
	assert.Equal(t, db_models.PaymentReversed, intent.Status)

	ticket, _ := f.tickets.GetByTrackingID(context.Background(), "trk-8")
	require.NotNil(t, ticket)
	assert.Equal(t, db_models.TicketCancelled, ticket.Status)
}

func TestMapGatewayStatus(t *testing.T) {
	cases := []struct {
		code int
		want db_models.PaymentStatus
	}{
		{pesapal.StatusCodeInvalid, db_models.PaymentFailed},
		{pesapal.StatusCodeCompleted, db_models.PaymentCompleted},
		{pesapal.StatusCodeFailed, db_models.PaymentFailed},
		{pesapal.StatusCodeReversed, db_models.PaymentReversed},
		{99, db_models.PaymentFailed},
	}
	for _, tc := range cases {
		got, _ := mapGatewayStatus(&pesapal.TransactionStatus{StatusCode: tc.code})
		assert.Equal(t, tc.want, got, "code %d", tc.code)
	}
}
