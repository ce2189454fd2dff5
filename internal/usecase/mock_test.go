//go:build !integration

package usecase_test

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"edupay/internal/domain"
	"edupay/internal/domain/model"
	"edupay/internal/domain/ports/adapter"
	"edupay/internal/domain/ports/repository"
	"edupay/internal/gateway"
	"edupay/internal/usecase"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// =============================
// Repositories
// =============================

// ---- Mock TransactionRepo ----

type MockTransactionRepo struct {
	mu    sync.Mutex
	store map[string]*model.PaymentTransaction

	SaveFunc                   func(ctx context.Context, tx repository.Tx, t *model.PaymentTransaction) error
	FindByIDFunc               func(ctx context.Context, tx repository.Tx, id string) (*model.PaymentTransaction, error)
	MarkFulfilledIfCreatedFunc func(ctx context.Context, tx repository.Tx, id, payerPersonalID string) (bool, error)
}

var _ repository.TransactionRepository = (*MockTransactionRepo)(nil)

func NewMockTransactionRepo() *MockTransactionRepo {
	return &MockTransactionRepo{store: make(map[string]*model.PaymentTransaction)}
}

func (m *MockTransactionRepo) Save(ctx context.Context, tx repository.Tx, t *model.PaymentTransaction) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.store[t.ID] = &cp
	return nil
}

func (m *MockTransactionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentTransaction, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MockTransactionRepo) MarkFulfilledIfCreated(ctx context.Context, tx repository.Tx, id, payerPersonalID string) (bool, error) {
	if m.MarkFulfilledIfCreatedFunc != nil {
		return m.MarkFulfilledIfCreatedFunc(ctx, tx, id, payerPersonalID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok {
		return false, domain.ErrTransactionNotFound
	}
	if t.Status != model.TransactionStatusCreated {
		return false, nil
	}
	t.Status = model.TransactionStatusFulfilled
	t.PayerPersonalID = payerPersonalID
	now := time.Now()
	t.FulfilledAt = &now
	return true, nil
}

func (m *MockTransactionRepo) MarkFailed(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.store[id]; ok && t.Status == model.TransactionStatusCreated {
		t.Status = model.TransactionStatusFailed
	}
	return nil
}

func (m *MockTransactionRepo) ListCreatedOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.PaymentTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PaymentTransaction
	for _, t := range m.store {
		if t.Status == model.TransactionStatusCreated && t.CreatedAt.Before(olderThan) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Stored returns a copy of the persisted transaction, for assertions.
func (m *MockTransactionRepo) Stored(id string) *model.PaymentTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok {
		return nil
	}
	cp := *t
	return &cp
}

// ---- Mock PlanRepo ----

type MockPlanRepo struct {
	mu    sync.Mutex
	store map[string]*model.Plan
}

var _ repository.PlanRepository = (*MockPlanRepo)(nil)

func NewMockPlanRepo() *MockPlanRepo {
	return &MockPlanRepo{store: make(map[string]*model.Plan)}
}

func (m *MockPlanRepo) Put(p *model.Plan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[p.ID] = p
}

func (m *MockPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrPlanNotFound
	}
	return p, nil
}

func (m *MockPlanRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Plan, 0, len(m.store))
	for _, p := range m.store {
		out = append(out, p)
	}
	return out, nil
}

// ---- Mock ProductRepo ----

type MockProductRepo struct {
	mu    sync.Mutex
	store map[string]*model.Product
}

var _ repository.ProductRepository = (*MockProductRepo)(nil)

func NewMockProductRepo() *MockProductRepo {
	return &MockProductRepo{store: make(map[string]*model.Product)}
}

func (m *MockProductRepo) Put(p *model.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[p.ID] = p
}

func (m *MockProductRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

// ---- Mock CouponRepo ----

type MockCouponRepo struct {
	mu         sync.Mutex
	store      map[string]*model.Coupon
	Increments map[string]int
	Cleared    []string // user ids passed to ClearApplied
}

var _ repository.CouponRepository = (*MockCouponRepo)(nil)

func NewMockCouponRepo() *MockCouponRepo {
	return &MockCouponRepo{
		store:      make(map[string]*model.Coupon),
		Increments: make(map[string]int),
	}
}

func (m *MockCouponRepo) Put(c *model.Coupon) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[c.ID] = c
}

func (m *MockCouponRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[id]
	if !ok {
		return nil, domain.ErrCouponNotFound
	}
	return c, nil
}

func (m *MockCouponRepo) IncrementUsage(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Increments[id]++
	if c, ok := m.store[id]; ok {
		c.UsageCount++
	}
	return nil
}

func (m *MockCouponRepo) ClearApplied(ctx context.Context, tx repository.Tx, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Cleared = append(m.Cleared, userID)
	return nil
}

// ---- Mock SubscriptionRepo ----

type MockSubscriptionRepo struct {
	mu    sync.Mutex
	store map[string]*model.Subscription // natural key -> row
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{store: make(map[string]*model.Subscription)}
}

func subKey(userID, productID, txID string) string {
	return fmt.Sprintf("%s|%s|%s", userID, productID, txID)
}

func (m *MockSubscriptionRepo) SaveIdempotent(ctx context.Context, tx repository.Tx, s *model.Subscription) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := subKey(s.UserID, s.ProductID, s.PaymentTransactionID)
	if _, exists := m.store[k]; exists {
		return false, nil
	}
	cp := *s
	m.store[k] = &cp
	return true, nil
}

func (m *MockSubscriptionRepo) CountByUserAndProduct(ctx context.Context, tx repository.Tx, userID, productID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.store {
		if s.UserID == userID && s.ProductID == productID {
			n++
		}
	}
	return n, nil
}

func (m *MockSubscriptionRepo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store)
}

// ---- Mock BookPurchaseRepo ----

type MockBookPurchaseRepo struct {
	mu    sync.Mutex
	store map[string]*model.BookPurchase // user|product -> row
}

var _ repository.BookPurchaseRepository = (*MockBookPurchaseRepo)(nil)

func NewMockBookPurchaseRepo() *MockBookPurchaseRepo {
	return &MockBookPurchaseRepo{store: make(map[string]*model.BookPurchase)}
}

func bookKey(userID, productID string) string { return userID + "|" + productID }

func (m *MockBookPurchaseRepo) SaveIdempotent(ctx context.Context, tx repository.Tx, bp *model.BookPurchase) (*model.BookPurchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := bookKey(bp.UserID, bp.ProductID)
	if existing, ok := m.store[k]; ok {
		cp := *existing
		return &cp, nil
	}
	cp := *bp
	m.store[k] = &cp
	out := cp
	return &out, nil
}

func (m *MockBookPurchaseRepo) FindByUserAndProduct(ctx context.Context, tx repository.Tx, userID, productID string) (*model.BookPurchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bp, ok := m.store[bookKey(userID, productID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *bp
	return &cp, nil
}

func (m *MockBookPurchaseRepo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store)
}

// ---- Mock LegacyFulfillmentRepo ----

type MockLegacyFulfillmentRepo struct {
	mu    sync.Mutex
	store map[string]*model.LegacyFulfillment
}

var _ repository.LegacyFulfillmentRepository = (*MockLegacyFulfillmentRepo)(nil)

func NewMockLegacyFulfillmentRepo() *MockLegacyFulfillmentRepo {
	return &MockLegacyFulfillmentRepo{store: make(map[string]*model.LegacyFulfillment)}
}

func (m *MockLegacyFulfillmentRepo) TryBegin(ctx context.Context, tx repository.Tx, lf *model.LegacyFulfillment) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.store[lf.Email]; exists {
		return false, nil
	}
	cp := *lf
	m.store[lf.Email] = &cp
	return true, nil
}

// =============================
// Adapters
// =============================

type MockInvoicing struct {
	mu     sync.Mutex
	Issued []adapter.Receipt

	IssueReceiptFunc func(ctx context.Context, rcpt adapter.Receipt) error
}

var _ adapter.InvoicingClient = (*MockInvoicing)(nil)

func (m *MockInvoicing) IssueReceipt(ctx context.Context, rcpt adapter.Receipt) error {
	if m.IssueReceiptFunc != nil {
		return m.IssueReceiptFunc(ctx, rcpt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Issued = append(m.Issued, rcpt)
	return nil
}

func (m *MockInvoicing) IssuedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Issued)
}

type MockMailer struct {
	mu   sync.Mutex
	Sent []adapter.DownloadMail

	SendFunc func(ctx context.Context, mail adapter.DownloadMail) error
}

var _ adapter.Mailer = (*MockMailer)(nil)

func (m *MockMailer) SendDownloadReady(ctx context.Context, mail adapter.DownloadMail) error {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, mail)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, mail)
	return nil
}

func (m *MockMailer) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

type MockConverter struct {
	mu        sync.Mutex
	Triggered [][2]string // userID, productID

	TriggerFunc func(ctx context.Context, userID, productID string) error
}

var _ adapter.ConverterClient = (*MockConverter)(nil)

func (m *MockConverter) TriggerConversion(ctx context.Context, userID, productID string) error {
	if m.TriggerFunc != nil {
		return m.TriggerFunc(ctx, userID, productID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Triggered = append(m.Triggered, [2]string{userID, productID})
	return nil
}

type MockLinker struct{}

var _ adapter.DownloadLinker = (*MockLinker)(nil)

func (MockLinker) Link(fileName string) (string, error) {
	return "https://dl.test/" + fileName, nil
}

type MockAnalytics struct {
	mu     sync.Mutex
	Events []string
}

var _ adapter.AnalyticsClient = (*MockAnalytics)(nil)

func (m *MockAnalytics) Emit(ctx context.Context, event string, props map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
}

// =============================
// Callback fixtures
// =============================

const testSecret = "unit-test-secret"

// encodedOrder hex-encodes a current-shape order payload.
func encodedOrder(t *testing.T, txID string, amount int64) string {
	t.Helper()
	hexStr, err := gateway.EncodeOrder(gateway.OrderPayload{TransactionID: txID, Amount: amount})
	if err != nil {
		t.Fatalf("encode order: %v", err)
	}
	return hexStr
}

// encodedLegacyOrder hex-encodes a legacy order payload.
func encodedLegacyOrder(t *testing.T, email, planID string, amount int64, studentName string) string {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{
		"email": email, "planId": planID, "amount": amount, "studentName": studentName,
	})
	if err != nil {
		t.Fatalf("marshal legacy order: %v", err)
	}
	return hex.EncodeToString(raw)
}

// signedCallback returns an approved callback carrying the order, with a
// valid signature over the fixed field subset.
func signedCallback(t *testing.T, orderHex string, mutate func(*gateway.Callback)) gateway.Callback {
	t.Helper()
	cb := gateway.Callback{
		ID:     "77123",
		CCode:  "0",
		Amount: "99.00",
		ACode:  "0012345",
		Order:  orderHex,
		Fild1:  "Dana Levi",
		Fild2:  "parent@example.com",
		Cell:   "0501234567",
		UserID: "312456789",
	}
	if mutate != nil {
		mutate(&cb)
	}
	sig, err := gateway.Sign(gateway.Canonicalize(cb.SignedFields(), false), testSecret)
	if err != nil {
		t.Fatalf("sign callback: %v", err)
	}
	cb.Sign = sig
	return cb
}

// legacyStub records dispatches from the fulfillment orchestrator.
type legacyStub struct {
	Calls  int
	Result *usecase.CallbackResult
	Err    error
}

var _ usecase.LegacyCallbackUseCase = (*legacyStub)(nil)

func (s *legacyStub) Handle(ctx context.Context, cb gateway.Callback) (*usecase.CallbackResult, error) {
	s.Calls++
	return s.Result, s.Err
}
