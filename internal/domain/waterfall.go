package domain

import "github.com/shopspring/decimal"

// Allocate splits an available amount across an installment's outstanding
// components in the fixed priority order late interest, current interest,
// insurance, principal. Outstanding amounts respect the installment's
// already-recorded cumulative movements, so partial prior payments are
// honored. The function is pure: it never mutates the installment, and the
// same inputs always yield the same output, so a dry-run preview and the
// real application cannot diverge.
//
// The remainder after principal is exhausted is returned to the caller and
// must always be handed to the suspense handler, never dropped.
func Allocate(inst *Installment, available decimal.Decimal) (Breakdown, decimal.Decimal) {
	take := func(owed, paid decimal.Decimal) decimal.Decimal {
		outstanding := owed.Sub(paid)
		if outstanding.LessThanOrEqual(decimal.Zero) {
			return decimal.Zero
		}
		applied := decimal.Min(available, outstanding)
		available = available.Sub(applied)
		return applied
	}

	var b Breakdown
	b.Mora = take(inst.OwedMora, inst.PaidMora)
	b.Corriente = take(inst.OwedCorriente, inst.PaidCorriente)
	b.Poliza = take(inst.OwedPoliza, inst.PaidPoliza)
	b.Principal = take(inst.OwedPrincipal, inst.PaidPrincipal)

	return b, available
}
