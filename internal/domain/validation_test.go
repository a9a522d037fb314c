package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/credisol/crediledger/internal/domain"
)

func TestValidateCedula(t *testing.T) {
	valid := []string{"8-123-4567", "1-0234-001234", "81234567"}
	for _, c := range valid {
		if err := domain.ValidateCedula(c); err != nil {
			t.Errorf("ValidateCedula(%q) = %v, want nil", c, err)
		}
	}

	invalid := []string{"", "abc", "8-123", "8--123-456"}
	for _, c := range invalid {
		if err := domain.ValidateCedula(c); err == nil {
			t.Errorf("ValidateCedula(%q) = nil, want error", c)
		}
	}
}

func TestValidatePeriod(t *testing.T) {
	if err := domain.ValidatePeriod("2024-07"); err != nil {
		t.Errorf("expected valid period, got %v", err)
	}
	for _, p := range []string{"2024-13", "24-07", "2024/07", ""} {
		if err := domain.ValidatePeriod(p); err == nil {
			t.Errorf("ValidatePeriod(%q) = nil, want error", p)
		}
	}
}

func TestValidateAmount(t *testing.T) {
	if err := domain.ValidateAmount(decimal.NewFromInt(100)); err != nil {
		t.Errorf("expected valid amount, got %v", err)
	}
	if err := domain.ValidateAmount(decimal.Zero); err != domain.ErrInvalidAmount {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
	huge, _ := decimal.NewFromString("1000000000000")
	if err := domain.ValidateAmount(huge); err == nil {
		t.Error("expected error for amount above maximum")
	}
}
