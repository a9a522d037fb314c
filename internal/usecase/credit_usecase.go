package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/credisol/crediledger/internal/domain"
)

// CreditUseCase handles credit creation and reads.
type CreditUseCase struct {
	creditRepo      CreditRepository
	installmentRepo InstallmentRepository
	cache           Cache
	idGen           IDGenerator
}

// NewCreditUseCase creates a new CreditUseCase.
func NewCreditUseCase(
	creditRepo CreditRepository,
	installmentRepo InstallmentRepository,
	cache Cache,
	idGen IDGenerator,
) *CreditUseCase {
	return &CreditUseCase{
		creditRepo:      creditRepo,
		installmentRepo: installmentRepo,
		cache:           cache,
		idGen:           idGen,
	}
}

// CreateCreditInput represents input for creating a credit.
type CreateCreditInput struct {
	ClientID         string
	Cedula           string
	DeductoraID      string
	Principal        decimal.Decimal
	Charges          decimal.Decimal
	TermMonths       int
	AnnualRate       decimal.Decimal
	InsuranceEnabled bool
	InsurancePremium decimal.Decimal
	DisbursedAt      time.Time
	FirstDueDate     time.Time
}

// CreateCredit creates a credit in Pendiente state. The schedule inputs are
// validated here so a credit that can never formalize is rejected up front.
func (uc *CreditUseCase) CreateCredit(ctx context.Context, input CreateCreditInput) (*domain.Credit, error) {
	if err := domain.ValidateCedula(input.Cedula); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	credit := &domain.Credit{
		ID:                 uc.idGen.Generate(),
		ClientID:           input.ClientID,
		Cedula:             input.Cedula,
		DeductoraID:        input.DeductoraID,
		Principal:          input.Principal,
		Charges:            input.Charges,
		TermMonths:         input.TermMonths,
		AnnualRate:         input.AnnualRate,
		InsuranceEnabled:   input.InsuranceEnabled,
		InsurancePremium:   input.InsurancePremium,
		DisbursedAt:        input.DisbursedAt,
		FirstDueDate:       input.FirstDueDate,
		OutstandingBalance: decimal.Zero,
		Status:             domain.CreditStatusPendiente,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	draft := domain.ScheduleInput{
		CreditID:   credit.ID,
		Principal:  credit.Principal,
		Charges:    credit.Charges,
		TermMonths: credit.TermMonths,
		AnnualRate: credit.AnnualRate,
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	if err := uc.creditRepo.Create(ctx, credit); err != nil {
		return nil, err
	}

	return credit, nil
}

// GetCredit retrieves a credit by ID.
func (uc *CreditUseCase) GetCredit(ctx context.Context, id string) (*domain.Credit, error) {
	return uc.creditRepo.GetByID(ctx, id)
}

// ListCredits lists credits with pagination.
func (uc *CreditUseCase) ListCredits(ctx context.Context, limit, offset int) ([]*domain.Credit, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return uc.creditRepo.List(ctx, limit, offset)
}

// ListInstallments returns a credit's installment table, served from cache
// when fresh. Ledger mutations delete the key.
func (uc *CreditUseCase) ListInstallments(ctx context.Context, creditID string) ([]*domain.Installment, error) {
	if uc.cache != nil {
		if raw, err := uc.cache.Get(ctx, ScheduleCacheKey(creditID)); err == nil && raw != nil {
			var cached []*domain.Installment
			if json.Unmarshal(raw, &cached) == nil {
				return cached, nil
			}
		}
	}

	installments, err := uc.installmentRepo.ListByCredit(ctx, creditID)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if raw, err := json.Marshal(installments); err == nil {
			_ = uc.cache.Set(ctx, ScheduleCacheKey(creditID), raw, ScheduleCacheTTL)
		}
	}

	return installments, nil
}
