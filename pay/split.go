package pay

import (
	"fmt"
	"strings"

	e "precisionpulse/errors"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)

	// PercentTolerance is how far the percent total may drift from 100.
	PercentTolerance = decimal.RequireFromString("0.02")
)

// WorkerShare is one worker line as entered on the container form.
type WorkerShare struct {
	Name                string
	MinutesWorked       int
	PercentContribution decimal.Decimal
}

// Payout is a populated worker line with its computed share. Payout keeps
// full precision; use Rounded for display and persistence.
type Payout struct {
	WorkerShare
	Payout decimal.Decimal
}

func (p Payout) Rounded() decimal.Decimal {
	return p.Payout.Round(2)
}

// Allocation is the result of splitting a container's pay.
type Allocation struct {
	Pay          decimal.Decimal
	Workers      []Payout
	PercentTotal decimal.Decimal
	err          error
}

// Err is nil when the split may be submitted.
func (a Allocation) Err() error {
	return a.err
}

func (a Allocation) Valid() bool {
	return a.err == nil
}

// PayoutTotal sums the full-precision payouts.
func (a Allocation) PayoutTotal() decimal.Decimal {
	total := decimal.Zero
	for _, w := range a.Workers {
		total = total.Add(w.Payout)
	}
	return total
}

// Allocate splits containerPay across workers by percent contribution.
// Lines with a blank name or a zero percent are placeholders: they are left
// out of the percent total and out of Workers. A percent total of zero is an
// accepted draft state; otherwise it must be within PercentTolerance of 100.
func Allocate(containerPay decimal.Decimal, workers []WorkerShare) Allocation {
	a := Allocation{Pay: containerPay, Workers: []Payout{}, PercentTotal: decimal.Zero}
	for i, w := range workers {
		if w.PercentContribution.IsNegative() {
			a.setErr(e.Validation(fmt.Sprintf("workers[%d].percent_contribution", i), "must not be negative"))
			continue
		}
		if w.MinutesWorked < 0 {
			a.setErr(e.Validation(fmt.Sprintf("workers[%d].minutes_worked", i), "must not be negative"))
			continue
		}
		w.Name = strings.TrimSpace(w.Name)
		if w.Name == "" || w.PercentContribution.IsZero() {
			continue
		}
		a.Workers = append(a.Workers, Payout{
			WorkerShare: w,
			Payout:      containerPay.Mul(w.PercentContribution).Div(hundred),
		})
		a.PercentTotal = a.PercentTotal.Add(w.PercentContribution)
	}
	if !a.PercentTotal.IsZero() && a.PercentTotal.Sub(hundred).Abs().GreaterThan(PercentTolerance) {
		a.setErr(e.Validation("workers", "worker percentages must total 100 (currently %s)", a.PercentTotal.StringFixed(2)))
	}
	return a
}

func (a *Allocation) setErr(err error) {
	if a.err == nil {
		a.err = err
	}
}
