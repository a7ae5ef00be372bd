package services

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/okwareddevnest/eventpass/internal/gateway/pesapal"
	"github.com/okwareddevnest/eventpass/internal/models/db_models"
	"github.com/okwareddevnest/eventpass/pkg/utils"
)

// In-memory repository fakes. Mutations happen under a mutex so the
// concurrency tests exercise the same winner-takes-all semantics the
// conditional updates give us against Postgres.

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*db_models.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: map[uuid.UUID]*db_models.Account{}}
}

func (f *fakeAccountRepo) GetByID(_ context.Context, id uuid.UUID) (*db_models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccountRepo) credit(id uuid.UUID, amount decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.accounts[id]; ok {
		a.PendingEarnings = a.PendingEarnings.Add(amount)
	}
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events map[uuid.UUID]*db_models.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: map[uuid.UUID]*db_models.Event{}}
}

func (f *fakeEventRepo) GetByID(_ context.Context, id uuid.UUID) (*db_models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

type notification struct {
	intentID         uuid.UUID
	source           string
	notificationType string
}

type fakeIntentRepo struct {
	mu            sync.Mutex
	byTracking    map[string]*db_models.PaymentIntent
	notifications []notification
}

func newFakeIntentRepo() *fakeIntentRepo {
	return &fakeIntentRepo{byTracking: map[string]*db_models.PaymentIntent{}}
}

func (f *fakeIntentRepo) Create(_ context.Context, intent *db_models.PaymentIntent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if intent.ID == uuid.Nil {
		intent.ID = uuid.New()
	}
	cp := *intent
	f.byTracking[intent.OrderTrackingID] = &cp
	return nil
}

func (f *fakeIntentRepo) GetByTrackingID(_ context.Context, orderTrackingID string) (*db_models.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	intent, ok := f.byTracking[orderTrackingID]
	if !ok {
		return nil, nil
	}
	cp := *intent
	return &cp, nil
}

func (f *fakeIntentRepo) AppendNotification(_ context.Context, intentID uuid.UUID, source, notificationType string, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = append(f.notifications, notification{intentID, source, notificationType})
	return nil
}

func (f *fakeIntentRepo) TransitionStatus(_ context.Context, orderTrackingID string, from, to db_models.PaymentStatus, description, confirmationCode string, gatewayResponse []byte) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	intent, ok := f.byTracking[orderTrackingID]
	if !ok || intent.Status != from {
		return false, nil
	}
	intent.Status = to
	intent.StatusDescription = description
	if confirmationCode != "" {
		intent.ConfirmationCode = confirmationCode
	}
	if len(gatewayResponse) > 0 {
		intent.GatewayResponse = gatewayResponse
	}
	return true, nil
}

func (f *fakeIntentRepo) notificationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.notifications)
}

type fakeTicketRepo struct {
	mu         sync.Mutex
	byTracking map[string]*db_models.Ticket
	byCode     map[string]*db_models.Ticket
	events     *fakeEventRepo
	failIssue  error
}

func newFakeTicketRepo(events *fakeEventRepo) *fakeTicketRepo {
	return &fakeTicketRepo{
		byTracking: map[string]*db_models.Ticket{},
		byCode:     map[string]*db_models.Ticket{},
		events:     events,
	}
}

func (f *fakeTicketRepo) GetByTrackingID(_ context.Context, orderTrackingID string) (*db_models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byTracking[orderTrackingID]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTicketRepo) Issue(_ context.Context, ticket *db_models.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIssue != nil {
		return f.failIssue
	}
	if _, exists := f.byTracking[ticket.OrderTrackingID]; exists {
		return utils.ErrDuplicateTicket
	}
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	cp := *ticket
	f.byTracking[ticket.OrderTrackingID] = &cp
	f.byCode[ticket.TicketCode] = &cp

	f.events.mu.Lock()
	if e, ok := f.events.events[ticket.EventID]; ok {
		e.CurrentAttendees++
	}
	f.events.mu.Unlock()
	return nil
}

func (f *fakeTicketRepo) UpdateStatus(_ context.Context, ticketCode string, from, to db_models.TicketStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byCode[ticketCode]
	if !ok || t.Status != from {
		return false, nil
	}
	t.Status = to
	return true, nil
}

func (f *fakeTicketRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byTracking)
}

type splitKey struct {
	intentID uuid.UUID
	txnType  db_models.TransactionType
}

type fakeTxnRepo struct {
	mu        sync.Mutex
	rows      map[splitKey]*db_models.Transaction
	accounts  *fakeAccountRepo
	failSplit error
}

func newFakeTxnRepo(accounts *fakeAccountRepo) *fakeTxnRepo {
	return &fakeTxnRepo{
		rows:     map[splitKey]*db_models.Transaction{},
		accounts: accounts,
	}
}

func (f *fakeTxnRepo) RecordSplit(_ context.Context, payment, commission *db_models.Transaction, organizerID uuid.UUID, organizerShare decimal.Decimal) error {
	f.mu.Lock()
	if f.failSplit != nil {
		f.mu.Unlock()
		return f.failSplit
	}
	key := splitKey{*payment.PaymentIntentID, payment.Type}
	if _, exists := f.rows[key]; exists {
		f.mu.Unlock()
		return utils.ErrDuplicateLedger
	}
	payment.ID = uuid.New()
	commission.ID = uuid.New()
	payment.RelatedTxnID = &commission.ID
	commission.RelatedTxnID = &payment.ID
	pcp, ccp := *payment, *commission
	f.rows[key] = &pcp
	f.rows[splitKey{*commission.PaymentIntentID, commission.Type}] = &ccp
	f.mu.Unlock()

	f.accounts.credit(organizerID, organizerShare)
	return nil
}

func (f *fakeTxnRepo) GetByIntentAndType(_ context.Context, intentID uuid.UUID, txnType db_models.TransactionType) (*db_models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.rows[splitKey{intentID, txnType}]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTxnRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]db_models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db_models.Transaction
	for _, t := range f.rows {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

type fakePayoutRepo struct {
	mu       sync.Mutex
	payouts  map[uuid.UUID]*db_models.PayoutRequest
	accounts *fakeAccountRepo
	txns     []*db_models.Transaction
}

func newFakePayoutRepo(accounts *fakeAccountRepo) *fakePayoutRepo {
	return &fakePayoutRepo{
		payouts:  map[uuid.UUID]*db_models.PayoutRequest{},
		accounts: accounts,
	}
}

func (f *fakePayoutRepo) Create(_ context.Context, payout *db_models.PayoutRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if payout.ID == uuid.Nil {
		payout.ID = uuid.New()
	}
	cp := *payout
	f.payouts[payout.ID] = &cp
	return nil
}

func (f *fakePayoutRepo) GetByID(_ context.Context, id uuid.UUID) (*db_models.PayoutRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payouts[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakePayoutRepo) ListByRequester(_ context.Context, requesterID uuid.UUID) ([]db_models.PayoutRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db_models.PayoutRequest
	for _, p := range f.payouts {
		if p.RequesterID == requesterID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePayoutRepo) ListAll(_ context.Context, status db_models.PayoutStatus) ([]db_models.PayoutRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db_models.PayoutRequest
	for _, p := range f.payouts {
		if status == "" || p.Status == status {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePayoutRepo) SumReserved(_ context.Context, requesterID uuid.UUID) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := decimal.Zero
	for _, p := range f.payouts {
		if p.RequesterID != requesterID {
			continue
		}
		switch p.Status {
		case db_models.PayoutPending, db_models.PayoutApproved, db_models.PayoutProcessing:
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

func (f *fakePayoutRepo) UpdateStateIf(_ context.Context, id uuid.UUID, from []db_models.PayoutStatus, updates map[string]interface{}) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payouts[id]
	if !ok {
		return false, nil
	}
	match := false
	for _, s := range from {
		if p.Status == s {
			match = true
			break
		}
	}
	if !match {
		return false, nil
	}
	if s, ok := updates["status"].(db_models.PayoutStatus); ok {
		p.Status = s
	}
	if r, ok := updates["rejection_reason"].(string); ok {
		p.RejectionReason = r
	}
	if n, ok := updates["admin_notes"].(string); ok {
		p.AdminNotes = n
	}
	if rid, ok := updates["reviewer_id"].(uuid.UUID); ok {
		p.ReviewerID = &rid
	}
	if at, ok := updates["reviewed_at"].(int64); ok {
		p.ReviewedAt = &at
	}
	return true, nil
}

func (f *fakePayoutRepo) Complete(_ context.Context, payout *db_models.PayoutRequest, txn *db_models.Transaction, reviewerID uuid.UUID, externalReference string) (bool, error) {
	f.mu.Lock()
	p, ok := f.payouts[payout.ID]
	if !ok {
		f.mu.Unlock()
		return false, nil
	}
	if p.Status != db_models.PayoutApproved && p.Status != db_models.PayoutProcessing {
		f.mu.Unlock()
		return false, nil
	}
	txn.ID = uuid.New()
	p.Status = db_models.PayoutCompleted
	p.ReviewerID = &reviewerID
	p.TransactionID = &txn.ID
	p.ExternalReference = externalReference
	f.txns = append(f.txns, txn)
	f.mu.Unlock()

	f.accounts.mu.Lock()
	if a, ok := f.accounts.accounts[p.RequesterID]; ok {
		a.PendingEarnings = a.PendingEarnings.Sub(p.Amount)
		a.WithdrawnAmount = a.WithdrawnAmount.Add(p.Amount)
	}
	f.accounts.mu.Unlock()
	return true, nil
}

type fakeSettingsRepo struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{values: map[string]string{}}
}

func (f *fakeSettingsRepo) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeSettingsRepo) Upsert(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

func (f *fakeSettingsRepo) All(_ context.Context) ([]db_models.Setting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db_models.Setting
	for k, v := range f.values {
		out = append(out, db_models.Setting{Key: k, Value: v})
	}
	return out, nil
}

type fakeGateway struct {
	mu           sync.Mutex
	status       *pesapal.TransactionStatus
	statusErr    error
	statusCalls  int
	submitResp   *pesapal.OrderResponse
	submitErr    error
	submitCalls  int
	registration *pesapal.IPNRegistration
}

func (f *fakeGateway) SubmitOrder(_ context.Context, _ pesapal.OrderRequest) (*pesapal.OrderResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCalls++
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return f.submitResp, nil
}

func (f *fakeGateway) RegisterIPN(_ context.Context, url string) (*pesapal.IPNRegistration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.registration != nil {
		return f.registration, nil
	}
	return &pesapal.IPNRegistration{URL: url, IPNID: "ipn-test-id"}, nil
}

func (f *fakeGateway) GetTransactionStatus(_ context.Context, _ string) (*pesapal.TransactionStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.status, nil
}

func (f *fakeGateway) setStatus(status *pesapal.TransactionStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
	f.statusErr = nil
}
