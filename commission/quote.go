/*
quote.go - Turns a sale's attributes into the commission amounts to store

PURPOSE:
  Wraps the resolver and calculator into the single call the sale form
  makes. The outcome says whether the amounts were calculated, must be
  entered manually, are unavailable, or came from a caller override.

SEE ALSO:
  - resolver.go: Rule selection
  - calculator.go: Amounts for the selected rule
  - api/handlers.go: QuoteCommission endpoint
*/
package commission

import (
	"context"
)

// QuoteStatus tells the caller how the quoted commission was obtained.
type QuoteStatus string

const (
	// QuoteCalculated: a rule matched and the amounts come from it.
	QuoteCalculated QuoteStatus = "calculated"
	// QuoteManualRequired: the setting is manual; a person must enter amounts.
	QuoteManualRequired QuoteStatus = "manual_required"
	// QuoteUnavailable: no setting, no rules or no matching rule.
	QuoteUnavailable QuoteStatus = "unavailable"
	// QuoteOverridden: the caller-provided amounts were accepted.
	QuoteOverridden QuoteStatus = "overridden"
)

// Warnings surfaced with a quote.
const (
	WarningNonUpgrade = "previous monthly value is not lower than the new monthly value; commissions set to 0"
	WarningManual     = "commission for this operator is manual; enter the amounts by hand"
	WarningNoRule     = "no commission rule applies to this sale; enter the amounts by hand"
)

// QuoteRequest is one interactive commission request.
type QuoteRequest struct {
	Query Query
	Input Input

	// Override is a caller-entered commission pair. It is honored only when
	// OverrideAllowed is set; otherwise the request is rejected.
	Override        *Commission
	OverrideAllowed bool
}

// Quote is the result of an interactive commission request.
type Quote struct {
	Status     QuoteStatus
	Commission Commission
	Warnings   []string
	Resolution Resolution
}

// Authoritative reports whether the commission may be stored as final.
// Manual and unavailable quotes carry zero amounts that must not be
// mistaken for an earned zero.
func (q Quote) Authoritative() bool {
	return q.Status == QuoteCalculated || q.Status == QuoteOverridden
}

// Quoter layers the interactive policy over the Resolver and Calculator:
// the non-upgrade warning and the explicit override switch.
type Quoter struct {
	Resolver   *Resolver
	Calculator *Calculator
}

// NewQuoter creates a Quoter.
func NewQuoter(r *Resolver, c *Calculator) *Quoter {
	return &Quoter{Resolver: r, Calculator: c}
}

// Quote resolves, applies policy and calculates.
func (q *Quoter) Quote(ctx context.Context, req QuoteRequest) (Quote, error) {
	if req.Override != nil {
		if !req.OverrideAllowed {
			return Quote{}, &ValidationError{Field: "override", Message: "commission override is not allowed"}
		}
		if req.Override.Seller.IsNegative() || req.Override.Partner.IsNegative() {
			return Quote{}, &ValidationError{Field: "override", Message: "amounts must not be negative"}
		}
	}
	if req.Input.SaleType == "" {
		req.Input.SaleType = req.Query.SaleType
	}

	res, err := q.Resolver.Resolve(ctx, req.Query)
	if err != nil {
		return Quote{}, err
	}
	quote := Quote{Resolution: res, Commission: ZeroCommission}

	switch {
	case res.Outcome == OutcomeManual:
		quote.Status = QuoteManualRequired
		quote.Warnings = append(quote.Warnings, WarningManual)
	case !res.CanCalculate():
		quote.Status = QuoteUnavailable
		quote.Warnings = append(quote.Warnings, WarningNoRule)
	case req.Input.IsNonUpgrade():
		quote.Status = QuoteCalculated
		quote.Warnings = append(quote.Warnings, WarningNonUpgrade)
	default:
		c, err := q.Calculator.Calculate(ctx, *res.Rule, req.Input)
		if err != nil {
			return Quote{}, err
		}
		quote.Status = QuoteCalculated
		quote.Commission = c
	}

	if req.Override != nil {
		quote.Status = QuoteOverridden
		quote.Commission = NewCommission(req.Override.Seller, req.Override.Partner)
	}
	return quote, nil
}
