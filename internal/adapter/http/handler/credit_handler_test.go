package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/credisol/crediledger/internal/adapter/http/dto"
	"github.com/credisol/crediledger/internal/domain"
	"github.com/credisol/crediledger/internal/usecase"
)

type creditServiceStub struct {
	createFn           func(ctx context.Context, input usecase.CreateCreditInput) (*domain.Credit, error)
	getFn              func(ctx context.Context, id string) (*domain.Credit, error)
	listFn             func(ctx context.Context, limit, offset int) ([]*domain.Credit, error)
	listInstallmentsFn func(ctx context.Context, creditID string) ([]*domain.Installment, error)
}

func (s *creditServiceStub) CreateCredit(ctx context.Context, input usecase.CreateCreditInput) (*domain.Credit, error) {
	return s.createFn(ctx, input)
}

func (s *creditServiceStub) GetCredit(ctx context.Context, id string) (*domain.Credit, error) {
	return s.getFn(ctx, id)
}

func (s *creditServiceStub) ListCredits(ctx context.Context, limit, offset int) ([]*domain.Credit, error) {
	return s.listFn(ctx, limit, offset)
}

func (s *creditServiceStub) ListInstallments(ctx context.Context, creditID string) ([]*domain.Installment, error) {
	return s.listInstallmentsFn(ctx, creditID)
}

type scheduleServiceStub struct {
	formalizeFn  func(ctx context.Context, creditID string) ([]*domain.Installment, error)
	regenerateFn func(ctx context.Context, input usecase.RegenerateInput) ([]*domain.Installment, error)
}

func (s *scheduleServiceStub) Formalize(ctx context.Context, creditID string) ([]*domain.Installment, error) {
	return s.formalizeFn(ctx, creditID)
}

func (s *scheduleServiceStub) Regenerate(ctx context.Context, input usecase.RegenerateInput) ([]*domain.Installment, error) {
	return s.regenerateFn(ctx, input)
}

func testCredit() *domain.Credit {
	return &domain.Credit{
		ID:                 "cr-1",
		ClientID:           "cl-1",
		Cedula:             "1-0234-0567",
		DeductoraID:        "ded-1",
		Principal:          decimal.RequireFromString("5000000"),
		Charges:            decimal.RequireFromString("75000"),
		TermMonths:         60,
		AnnualRate:         decimal.RequireFromString("0.15"),
		OutstandingBalance: decimal.RequireFromString("4925000"),
		Status:             domain.CreditStatusPendiente,
		DisbursedAt:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		FirstDueDate:       time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC),
	}
}

func newCreditHandlerForTest(credit *creditServiceStub, schedule *scheduleServiceStub) *CreditHandler {
	return NewCreditHandler(credit, schedule, &paymentServiceStub{}, &suspenseServiceStub{})
}

func TestCreditHandler_Create_Success(t *testing.T) {
	credit := testCredit()

	var captured usecase.CreateCreditInput
	handler := newCreditHandlerForTest(&creditServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateCreditInput) (*domain.Credit, error) {
			captured = input
			return credit, nil
		},
	}, &scheduleServiceStub{})

	body, _ := json.Marshal(dto.CreateCreditRequest{
		ClientID:    "cl-1",
		Cedula:      "1-0234-0567",
		DeductoraID: "ded-1",
		Principal:   decimal.RequireFromString("5000000"),
		Charges:     decimal.RequireFromString("75000"),
		TermMonths:  60,
		AnnualRate:  decimal.RequireFromString("0.15"),
	})

	req := httptest.NewRequest(http.MethodPost, "/credits", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if captured.Cedula != "1-0234-0567" || captured.TermMonths != 60 {
		t.Fatalf("expected input to match request, got %+v", captured)
	}

	var resp dto.CreditResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "cr-1" {
		t.Fatalf("expected credit ID cr-1, got %s", resp.ID)
	}
	if resp.Status != string(domain.CreditStatusPendiente) {
		t.Fatalf("expected Pendiente status, got %s", resp.Status)
	}
}

func TestCreditHandler_Create_InvalidJSON(t *testing.T) {
	handler := newCreditHandlerForTest(&creditServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateCreditInput) (*domain.Credit, error) {
			t.Fatal("CreateCredit should not be called for invalid payload")
			return nil, nil
		},
	}, &scheduleServiceStub{})

	req := httptest.NewRequest(http.MethodPost, "/credits", bytes.NewBufferString("{invalid json"))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreditHandler_Create_InvalidCedula(t *testing.T) {
	handler := newCreditHandlerForTest(&creditServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateCreditInput) (*domain.Credit, error) {
			return nil, domain.ErrInvalidCedula
		},
	}, &scheduleServiceStub{})

	body, _ := json.Marshal(dto.CreateCreditRequest{Cedula: "bogus"})
	req := httptest.NewRequest(http.MethodPost, "/credits", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreditHandler_Get(t *testing.T) {
	handler := newCreditHandlerForTest(&creditServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.Credit, error) {
			if id != "cr-1" {
				t.Fatalf("expected id cr-1, got %s", id)
			}
			return testCredit(), nil
		},
	}, &scheduleServiceStub{})

	req := httptest.NewRequest(http.MethodGet, "/credits/cr-1", nil)
	req = setChiURLParam(req, "id", "cr-1")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCreditHandler_Get_NotFound(t *testing.T) {
	handler := newCreditHandlerForTest(&creditServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.Credit, error) {
			return nil, domain.ErrCreditNotFound
		},
	}, &scheduleServiceStub{})

	req := httptest.NewRequest(http.MethodGet, "/credits/cr-404", nil)
	req = setChiURLParam(req, "id", "cr-404")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCreditHandler_List(t *testing.T) {
	handler := newCreditHandlerForTest(&creditServiceStub{
		listFn: func(ctx context.Context, limit, offset int) ([]*domain.Credit, error) {
			if limit != 5 || offset != 2 {
				t.Fatalf("expected limit=5 offset=2, got limit=%d offset=%d", limit, offset)
			}
			return []*domain.Credit{testCredit(), testCredit()}, nil
		},
	}, &scheduleServiceStub{})

	req := httptest.NewRequest(http.MethodGet, "/credits?limit=5&offset=2", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp []*dto.CreditResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("expected 2 credits, got %d", len(resp))
	}
}

func TestCreditHandler_Formalize(t *testing.T) {
	installments := []*domain.Installment{
		{CreditID: "cr-1", Number: 0, Status: domain.InstallmentStatusVigente},
		{CreditID: "cr-1", Number: 1, Status: domain.InstallmentStatusPendiente},
	}

	handler := newCreditHandlerForTest(&creditServiceStub{}, &scheduleServiceStub{
		formalizeFn: func(ctx context.Context, creditID string) ([]*domain.Installment, error) {
			if creditID != "cr-1" {
				t.Fatalf("expected credit cr-1, got %s", creditID)
			}
			return installments, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/credits/cr-1/formalize", nil)
	req = setChiURLParam(req, "id", "cr-1")
	rec := httptest.NewRecorder()

	handler.Formalize(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp []*dto.InstallmentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("expected 2 installments, got %d", len(resp))
	}
}

func TestCreditHandler_Formalize_AlreadyFormalized(t *testing.T) {
	handler := newCreditHandlerForTest(&creditServiceStub{}, &scheduleServiceStub{
		formalizeFn: func(ctx context.Context, creditID string) ([]*domain.Installment, error) {
			return nil, domain.ErrCreditAlreadyFormalized
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/credits/cr-1/formalize", nil)
	req = setChiURLParam(req, "id", "cr-1")
	rec := httptest.NewRecorder()

	handler.Formalize(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestCreditHandler_Regenerate_PassesRebuildFlag(t *testing.T) {
	var captured usecase.RegenerateInput
	handler := newCreditHandlerForTest(&creditServiceStub{}, &scheduleServiceStub{
		regenerateFn: func(ctx context.Context, input usecase.RegenerateInput) ([]*domain.Installment, error) {
			captured = input
			return []*domain.Installment{}, nil
		},
	})

	body, _ := json.Marshal(dto.RegenerateScheduleRequest{RebuildPendingOnly: true})
	req := httptest.NewRequest(http.MethodPost, "/credits/cr-1/schedule/regenerate", bytes.NewReader(body))
	req = setChiURLParam(req, "id", "cr-1")
	rec := httptest.NewRecorder()

	handler.Regenerate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.CreditID != "cr-1" || !captured.RebuildPendingOnly {
		t.Fatalf("expected rebuild flag to propagate, got %+v", captured)
	}
}

func TestCreditHandler_Regenerate_Locked(t *testing.T) {
	handler := newCreditHandlerForTest(&creditServiceStub{}, &scheduleServiceStub{
		regenerateFn: func(ctx context.Context, input usecase.RegenerateInput) ([]*domain.Installment, error) {
			return nil, domain.ErrScheduleLocked
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/credits/cr-1/schedule/regenerate", nil)
	req = setChiURLParam(req, "id", "cr-1")
	rec := httptest.NewRecorder()

	handler.Regenerate(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func setChiURLParam(r *http.Request, key, value string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, &chi.Context{
		URLParams: chi.RouteParams{
			Keys:   []string{key},
			Values: []string{value},
		},
	}))
}
