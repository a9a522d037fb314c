package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// ScheduleInput holds the frozen terms a schedule is generated from.
type ScheduleInput struct {
	CreditID         string
	Principal        decimal.Decimal
	Charges          decimal.Decimal
	TermMonths       int
	AnnualRate       decimal.Decimal
	InsurancePremium decimal.Decimal
	DisbursedAt      time.Time
	FirstDueDate     time.Time
}

// NetPrincipal is the amount the schedule amortizes.
func (in ScheduleInput) NetPrincipal() decimal.Decimal {
	return in.Principal.Sub(in.Charges)
}

// MonthlyRate converts the annual percentage rate to a monthly fraction.
func (in ScheduleInput) MonthlyRate() decimal.Decimal {
	return in.AnnualRate.Div(hundred).Div(twelve)
}

// Validate rejects inputs that cannot produce a schedule, reporting the
// computed numbers that triggered the rejection.
func (in ScheduleInput) Validate() error {
	switch {
	case in.Principal.LessThanOrEqual(decimal.Zero):
		return &InvalidScheduleInputError{
			Reason:       "principal must be positive",
			Principal:    in.Principal,
			Charges:      in.Charges,
			NetPrincipal: in.NetPrincipal(),
			TermMonths:   in.TermMonths,
		}
	case in.TermMonths < 1:
		return &InvalidScheduleInputError{
			Reason:       "term must be at least one month",
			Principal:    in.Principal,
			Charges:      in.Charges,
			NetPrincipal: in.NetPrincipal(),
			TermMonths:   in.TermMonths,
		}
	case in.NetPrincipal().LessThanOrEqual(decimal.Zero):
		return &InvalidScheduleInputError{
			Reason:       "net principal (principal minus charges) must be positive",
			Principal:    in.Principal,
			Charges:      in.Charges,
			NetPrincipal: in.NetPrincipal(),
			TermMonths:   in.TermMonths,
		}
	}
	return nil
}

// FixedPayment computes the level payment (PMT) for a balance over n periods
// at the given monthly rate, rounded once to currency precision and then
// held fixed for every period except the last.
func FixedPayment(balance decimal.Decimal, monthlyRate decimal.Decimal, periods int) decimal.Decimal {
	n := decimal.NewFromInt(int64(periods))
	if monthlyRate.IsZero() {
		return balance.Div(n).Round(2)
	}

	pow := decimal.NewFromInt(1).Add(monthlyRate).Pow(n)
	return balance.Mul(monthlyRate).Mul(pow).Div(pow.Sub(decimal.NewFromInt(1))).Round(2)
}

// GenerateSchedule produces the full installment table for a credit. Row 0
// represents the disbursement; rows 1..n carry the amortization. The last
// row's principal is plugged to the exact remaining balance so the principal
// column sums to net principal regardless of accumulated rounding.
func GenerateSchedule(in ScheduleInput, now time.Time) ([]*Installment, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	net := in.NetPrincipal()
	rate := in.MonthlyRate()
	payment := FixedPayment(net, rate, in.TermMonths)

	rows := make([]*Installment, 0, in.TermMonths+1)

	rows = append(rows, &Installment{
		CreditID:         in.CreditID,
		Number:           0,
		DueDate:          in.DisbursedAt,
		RateSnapshot:     in.AnnualRate,
		TermSnapshot:     in.TermMonths,
		OwedPrincipal:    net,
		PreviousBalance:  decimal.Zero,
		ResultingBalance: net,
		Status:           InstallmentStatusVigente,
		CreatedAt:        now,
		UpdatedAt:        now,
	})

	balance := net
	for i := 1; i <= in.TermMonths; i++ {
		interest := balance.Mul(rate).Round(2)

		var principal decimal.Decimal
		if i < in.TermMonths {
			principal = payment.Sub(interest)
		} else {
			// Last installment absorbs all rounding drift.
			principal = balance
		}

		resulting := balance.Sub(principal).Round(2)
		if resulting.IsNegative() {
			resulting = decimal.Zero
		}

		rows = append(rows, &Installment{
			CreditID:         in.CreditID,
			Number:           i,
			DueDate:          in.FirstDueDate.AddDate(0, i-1, 0),
			RateSnapshot:     in.AnnualRate,
			TermSnapshot:     in.TermMonths,
			OwedCorriente:    interest,
			OwedPoliza:       in.InsurancePremium,
			OwedPrincipal:    principal,
			PreviousBalance:  balance,
			ResultingBalance: resulting,
			Status:           InstallmentStatusPendiente,
			CreatedAt:        now,
			UpdatedAt:        now,
		})

		balance = resulting
	}

	return rows, nil
}
