package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/credisol/crediledger/internal/domain"
	"github.com/credisol/crediledger/internal/usecase"
)

// MockCreditRepository is a mock implementation of CreditRepository.
type MockCreditRepository struct {
	mu      sync.RWMutex
	credits map[string]*domain.Credit

	CreateFunc            func(ctx context.Context, credit *domain.Credit) error
	GetByIDFunc           func(ctx context.Context, id string) (*domain.Credit, error)
	GetByIDForUpdateFunc  func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Credit, error)
	GetByIDsForUpdateFunc func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Credit, error)
	GetActiveByCedulaFunc func(ctx context.Context, deductoraID, cedula string) (*domain.Credit, error)
	UpdateBalanceFunc     func(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	UpdateStatusFunc      func(ctx context.Context, tx usecase.Transaction, id string, status domain.CreditStatus, updatedAt time.Time) error
	MarkFormalizedFunc    func(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, formalizedAt time.Time) error
	ListFunc              func(ctx context.Context, limit, offset int) ([]*domain.Credit, error)
}

func NewMockCreditRepository() *MockCreditRepository {
	return &MockCreditRepository{
		credits: make(map[string]*domain.Credit),
	}
}

func (m *MockCreditRepository) Create(ctx context.Context, credit *domain.Credit) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, credit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credits[credit.ID] = credit
	return nil
}

func (m *MockCreditRepository) GetByID(ctx context.Context, id string) (*domain.Credit, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.credits[id]; ok {
		return c, nil
	}
	return nil, domain.ErrCreditNotFound
}

func (m *MockCreditRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Credit, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockCreditRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Credit, error) {
	if m.GetByIDsForUpdateFunc != nil {
		return m.GetByIDsForUpdateFunc(ctx, tx, ids)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var credits []*domain.Credit
	for _, id := range ids {
		if c, ok := m.credits[id]; ok {
			credits = append(credits, c)
		}
	}
	return credits, nil
}

func (m *MockCreditRepository) GetActiveByCedula(ctx context.Context, deductoraID, cedula string) (*domain.Credit, error) {
	if m.GetActiveByCedulaFunc != nil {
		return m.GetActiveByCedulaFunc(ctx, deductoraID, cedula)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.credits {
		if c.DeductoraID == deductoraID && c.Cedula == cedula && c.Servicing() {
			return c, nil
		}
	}
	return nil, domain.ErrCreditNotFound
}

func (m *MockCreditRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, id, balance, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.credits[id]
	if !ok {
		return domain.ErrCreditNotFound
	}
	c.OutstandingBalance = balance
	c.UpdatedAt = updatedAt
	return nil
}

func (m *MockCreditRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.CreditStatus, updatedAt time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, id, status, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.credits[id]
	if !ok {
		return domain.ErrCreditNotFound
	}
	c.Status = status
	c.UpdatedAt = updatedAt
	return nil
}

func (m *MockCreditRepository) MarkFormalized(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, formalizedAt time.Time) error {
	if m.MarkFormalizedFunc != nil {
		return m.MarkFormalizedFunc(ctx, tx, id, balance, formalizedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.credits[id]
	if !ok {
		return domain.ErrCreditNotFound
	}
	c.Status = domain.CreditStatusFormalizado
	c.OutstandingBalance = balance
	at := formalizedAt
	c.FormalizedAt = &at
	c.UpdatedAt = formalizedAt
	return nil
}

func (m *MockCreditRepository) List(ctx context.Context, limit, offset int) ([]*domain.Credit, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var credits []*domain.Credit
	for _, c := range m.credits {
		credits = append(credits, c)
	}
	sort.Slice(credits, func(i, j int) bool { return credits[i].ID < credits[j].ID })
	return credits, nil
}

// MockInstallmentRepository is a mock implementation of InstallmentRepository.
// Installments are keyed by credit ID and number.
type MockInstallmentRepository struct {
	mu   sync.RWMutex
	rows map[string]map[int]*domain.Installment

	CreateBatchFunc      func(ctx context.Context, tx usecase.Transaction, installments []*domain.Installment) error
	ListByCreditFunc     func(ctx context.Context, creditID string) ([]*domain.Installment, error)
	GetByNumberFunc      func(ctx context.Context, tx usecase.Transaction, creditID string, number int) (*domain.Installment, error)
	NextPendingFunc      func(ctx context.Context, tx usecase.Transaction, creditID string) (*domain.Installment, error)
	UpdateMovementsFunc  func(ctx context.Context, tx usecase.Transaction, installment *domain.Installment) error
	DeleteFromNumberFunc func(ctx context.Context, tx usecase.Transaction, creditID string, fromNumber int) error
}

func NewMockInstallmentRepository() *MockInstallmentRepository {
	return &MockInstallmentRepository{
		rows: make(map[string]map[int]*domain.Installment),
	}
}

func (m *MockInstallmentRepository) CreateBatch(ctx context.Context, tx usecase.Transaction, installments []*domain.Installment) error {
	if m.CreateBatchFunc != nil {
		return m.CreateBatchFunc(ctx, tx, installments)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inst := range installments {
		if m.rows[inst.CreditID] == nil {
			m.rows[inst.CreditID] = make(map[int]*domain.Installment)
		}
		m.rows[inst.CreditID][inst.Number] = inst
	}
	return nil
}

func (m *MockInstallmentRepository) listLocked(creditID string) []*domain.Installment {
	var out []*domain.Installment
	for _, inst := range m.rows[creditID] {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func (m *MockInstallmentRepository) ListByCredit(ctx context.Context, creditID string) ([]*domain.Installment, error) {
	if m.ListByCreditFunc != nil {
		return m.ListByCreditFunc(ctx, creditID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLocked(creditID), nil
}

func (m *MockInstallmentRepository) ListByCreditTx(ctx context.Context, tx usecase.Transaction, creditID string) ([]*domain.Installment, error) {
	return m.ListByCredit(ctx, creditID)
}

func (m *MockInstallmentRepository) GetByNumber(ctx context.Context, tx usecase.Transaction, creditID string, number int) (*domain.Installment, error) {
	if m.GetByNumberFunc != nil {
		return m.GetByNumberFunc(ctx, tx, creditID, number)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if inst, ok := m.rows[creditID][number]; ok {
		return inst, nil
	}
	return nil, domain.ErrInstallmentNotFound
}

func (m *MockInstallmentRepository) NextPending(ctx context.Context, tx usecase.Transaction, creditID string) (*domain.Installment, error) {
	if m.NextPendingFunc != nil {
		return m.NextPendingFunc(ctx, tx, creditID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, inst := range m.listLocked(creditID) {
		if inst.Number > 0 && inst.Status == domain.InstallmentStatusPendiente {
			return inst, nil
		}
	}
	return nil, domain.ErrNoPendingInstallment
}

func (m *MockInstallmentRepository) UpdateMovements(ctx context.Context, tx usecase.Transaction, installment *domain.Installment) error {
	if m.UpdateMovementsFunc != nil {
		return m.UpdateMovementsFunc(ctx, tx, installment)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows[installment.CreditID] == nil {
		return domain.ErrInstallmentNotFound
	}
	m.rows[installment.CreditID][installment.Number] = installment
	return nil
}

func (m *MockInstallmentRepository) DeleteFromNumber(ctx context.Context, tx usecase.Transaction, creditID string, fromNumber int) error {
	if m.DeleteFromNumberFunc != nil {
		return m.DeleteFromNumberFunc(ctx, tx, creditID, fromNumber)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for number := range m.rows[creditID] {
		if number >= fromNumber {
			delete(m.rows[creditID], number)
		}
	}
	return nil
}

// MockPaymentRepository is a mock implementation of PaymentRepository.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment

	CreateFunc       func(ctx context.Context, tx usecase.Transaction, payment *domain.Payment) error
	GetByIDFunc      func(ctx context.Context, id string) (*domain.Payment, error)
	ListByCreditFunc func(ctx context.Context, creditID string, limit, offset int) ([]*domain.Payment, error)
	ListByBatchFunc  func(ctx context.Context, tx usecase.Transaction, batchID string) ([]*domain.Payment, error)
	MarkReversedFunc func(ctx context.Context, tx usecase.Transaction, id string, snapshot *domain.ReversalSnapshot) error
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[string]*domain.Payment),
	}
}

func (m *MockPaymentRepository) Create(ctx context.Context, tx usecase.Transaction, payment *domain.Payment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, payment)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[payment.ID] = payment
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.payments[id]; ok {
		return p, nil
	}
	return nil, domain.ErrPaymentNotFound
}

func (m *MockPaymentRepository) ListByCredit(ctx context.Context, creditID string, limit, offset int) ([]*domain.Payment, error) {
	if m.ListByCreditFunc != nil {
		return m.ListByCreditFunc(ctx, creditID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Payment
	for _, p := range m.payments {
		if p.CreditID == creditID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockPaymentRepository) ListByBatch(ctx context.Context, tx usecase.Transaction, batchID string) ([]*domain.Payment, error) {
	if m.ListByBatchFunc != nil {
		return m.ListByBatchFunc(ctx, tx, batchID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Payment
	for _, p := range m.payments {
		if p.BatchID != nil && *p.BatchID == batchID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockPaymentRepository) MarkReversed(ctx context.Context, tx usecase.Transaction, id string, snapshot *domain.ReversalSnapshot) error {
	if m.MarkReversedFunc != nil {
		return m.MarkReversedFunc(ctx, tx, id, snapshot)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return domain.ErrPaymentNotFound
	}
	p.Status = domain.PaymentStatusReversado
	p.Reversal = snapshot
	return nil
}

// MockSuspenseRepository is a mock implementation of SuspenseRepository.
type MockSuspenseRepository struct {
	mu       sync.RWMutex
	balances map[string]*domain.SuspenseBalance

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, suspense *domain.SuspenseBalance) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.SuspenseBalance, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.SuspenseBalance, error)
	UpdateStatusFunc     func(ctx context.Context, tx usecase.Transaction, id string, status domain.SuspenseStatus, updatedAt time.Time) error
	DeleteByPaymentFunc  func(ctx context.Context, tx usecase.Transaction, paymentID string) error
	ListByCreditFunc     func(ctx context.Context, creditID string) ([]*domain.SuspenseBalance, error)
}

func NewMockSuspenseRepository() *MockSuspenseRepository {
	return &MockSuspenseRepository{
		balances: make(map[string]*domain.SuspenseBalance),
	}
}

func (m *MockSuspenseRepository) Create(ctx context.Context, tx usecase.Transaction, suspense *domain.SuspenseBalance) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, suspense)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[suspense.ID] = suspense
	return nil
}

func (m *MockSuspenseRepository) GetByID(ctx context.Context, id string) (*domain.SuspenseBalance, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.balances[id]; ok {
		return s, nil
	}
	return nil, domain.ErrSuspenseNotFound
}

func (m *MockSuspenseRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.SuspenseBalance, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockSuspenseRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.SuspenseStatus, updatedAt time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, id, status, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.balances[id]
	if !ok {
		return domain.ErrSuspenseNotFound
	}
	s.Status = status
	s.UpdatedAt = updatedAt
	if status != domain.SuspenseStatusPending {
		at := updatedAt
		s.AssignedAt = &at
	}
	return nil
}

func (m *MockSuspenseRepository) DeleteByPayment(ctx context.Context, tx usecase.Transaction, paymentID string) error {
	if m.DeleteByPaymentFunc != nil {
		return m.DeleteByPaymentFunc(ctx, tx, paymentID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.balances {
		if s.PaymentID == paymentID {
			delete(m.balances, id)
		}
	}
	return nil
}

func (m *MockSuspenseRepository) ListByCredit(ctx context.Context, creditID string) ([]*domain.SuspenseBalance, error) {
	if m.ListByCreditFunc != nil {
		return m.ListByCreditFunc(ctx, creditID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.SuspenseBalance
	for _, s := range m.balances {
		if s.CreditID == creditID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// MockBatchRepository is a mock implementation of BatchRepository.
type MockBatchRepository struct {
	mu      sync.RWMutex
	batches map[string]*domain.BatchUpload

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, batch *domain.BatchUpload) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.BatchUpload, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.BatchUpload, error)
	MarkVoidedFunc       func(ctx context.Context, tx usecase.Transaction, id, actor, reason string, voidedAt time.Time) error
}

func NewMockBatchRepository() *MockBatchRepository {
	return &MockBatchRepository{
		batches: make(map[string]*domain.BatchUpload),
	}
}

func (m *MockBatchRepository) Create(ctx context.Context, tx usecase.Transaction, batch *domain.BatchUpload) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, batch)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches[batch.ID] = batch
	return nil
}

func (m *MockBatchRepository) GetByID(ctx context.Context, id string) (*domain.BatchUpload, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.batches[id]; ok {
		return b, nil
	}
	return nil, domain.ErrBatchNotFound
}

func (m *MockBatchRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.BatchUpload, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockBatchRepository) MarkVoided(ctx context.Context, tx usecase.Transaction, id, actor, reason string, voidedAt time.Time) error {
	if m.MarkVoidedFunc != nil {
		return m.MarkVoidedFunc(ctx, tx, id, actor, reason, voidedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	if !ok {
		return domain.ErrBatchNotFound
	}
	b.Status = domain.BatchStatusVoided
	b.VoidedBy = actor
	b.VoidReason = reason
	at := voidedAt
	b.VoidedAt = &at
	return nil
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.OutboxEvent
	for _, e := range m.events {
		if e.PublishedAt == nil {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			at := publishedAt
			e.PublishedAt = &at
			return nil
		}
	}
	return nil
}

func (m *MockOutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.OutboxEvent
	for _, e := range m.events {
		if e.AggregateType == aggregateType && e.AggregateID == aggregateID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*domain.OutboxEvent
	for _, e := range m.events {
		if e.PublishedAt == nil || !e.PublishedAt.Before(before) {
			kept = append(kept, e)
		}
	}
	m.events = kept
	return nil
}

// Events returns every event recorded so far.
func (m *MockOutboxRepository) Events() []*domain.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.OutboxEvent, len(m.events))
	copy(out, m.events)
	return out
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockRetrier is a mock implementation of Retrier. By default it runs the
// operation and, when it fails, replays it once.
type MockRetrier struct {
	RetryFunc func(ctx context.Context, operation func() error) error
	Attempts  int
}

func NewMockRetrier() *MockRetrier {
	return &MockRetrier{}
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, operation)
	}
	for {
		m.Attempts++
		err := operation()
		if err == nil || m.Attempts > 1 {
			return err
		}
	}
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%d", m.counter)
}

// MockCache is a mock implementation of Cache.
type MockCache struct {
	mu   sync.RWMutex
	data map[string][]byte

	GetFunc    func(ctx context.Context, key string) ([]byte, error)
	SetFunc    func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteFunc func(ctx context.Context, key string) error
}

func NewMockCache() *MockCache {
	return &MockCache{
		data: make(map[string][]byte),
	}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("cache miss: %s", key)
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}
