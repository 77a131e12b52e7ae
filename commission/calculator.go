/*
calculator.go - Computes seller and partner amounts for a resolved rule

PURPOSE:
  Given a matched Rule and the sale's numeric values, returns the
  Commission pair rounded to cents. The Calculator never decides WHETHER a
  sale earns a commission (that is resolver and quote policy); it only
  evaluates the rule's pricing.

PRICING VARIANTS:
  PowerPricing     flat lookup in the power-bracket table by (rule, potencia).
                   No bracket row, or no potencia → zero. Bracket amounts are
                   returned as stored, never multiplied.

  StandardPricing  amount = value × base, per side, gated by applies_to_*:

    fixed_per_quantity   value = *_fixed,      base = quantity (default 1)
    monthly_multiple     value = *_multiplier, base = monthly value, or for
                         Up_sell/Cross_sell max(0, new - previous)

ROUNDING:
  Both legs go through NewCommission (Round(2), half away from zero).

INPUT DEFAULTS:
  Input holds plain decimals. Absent sale values are converted to zero by
  the caller (Sale.Input); the Calculator does not guess.
*/
package commission

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Input carries the sale values a calculation needs.
type Input struct {
	SaleType             SaleType
	MonthlyValue         decimal.Decimal
	PreviousMonthlyValue decimal.Decimal
	NewMonthlyValue      decimal.Decimal
	Potencia             string
	Quantity             int // <= 0 means 1
}

// UpgradeDelta is new - previous clamped at zero.
func (in Input) UpgradeDelta() decimal.Decimal {
	delta := in.NewMonthlyValue.Sub(in.PreviousMonthlyValue)
	if delta.IsNegative() {
		return decimal.Zero
	}
	return delta
}

// IsNonUpgrade reports whether an upgrade sale type does not actually
// increase the monthly value.
func (in Input) IsNonUpgrade() bool {
	return in.SaleType.IsUpgrade() && in.PreviousMonthlyValue.GreaterThanOrEqual(in.NewMonthlyValue)
}

// ErrNoPowerTable is returned when a per-power rule is calculated without
// a power-bracket table.
var ErrNoPowerTable = errors.New("per-power rule requires a power table")

// Calculator evaluates rule pricing.
type Calculator struct {
	Powers PowerTable
}

// NewCalculator creates a Calculator. powers may be nil when no per-power
// rules are configured.
func NewCalculator(powers PowerTable) *Calculator {
	return &Calculator{Powers: powers}
}

// Calculate returns the commission for rule applied to in.
func (c *Calculator) Calculate(ctx context.Context, rule Rule, in Input) (Commission, error) {
	switch p := rule.Pricing.(type) {
	case PowerPricing:
		return c.calculatePerPower(ctx, rule, in)
	case StandardPricing:
		return CalculateStandard(rule, p, in), nil
	case nil:
		return Commission{}, &ValidationError{Field: "pricing", Message: "rule " + rule.ID + " has no pricing"}
	default:
		return Commission{}, fmt.Errorf("unsupported pricing kind %q", p.Kind())
	}
}

func (c *Calculator) calculatePerPower(ctx context.Context, rule Rule, in Input) (Commission, error) {
	if in.Potencia == "" {
		return ZeroCommission, nil
	}
	if c.Powers == nil {
		return Commission{}, ErrNoPowerTable
	}

	bracket, err := c.Powers.PowerBracket(ctx, rule.ID, in.Potencia)
	if err != nil {
		return Commission{}, storeErr("get power bracket", err)
	}
	if bracket == nil {
		return ZeroCommission, nil
	}
	return NewCommission(bracket.Seller, bracket.Partner), nil
}

// CalculateStandard evaluates a formula-based rule. It needs no store.
func CalculateStandard(rule Rule, p StandardPricing, in Input) Commission {
	base := baseValue(p.Method, in)

	seller, partner := decimal.Zero, decimal.Zero
	switch p.Method {
	case MethodFixedPerQuantity:
		if rule.AppliesToSeller {
			seller = p.SellerFixed.Mul(base)
		}
		if rule.AppliesToPartner {
			partner = p.PartnerFixed.Mul(base)
		}
	case MethodMonthlyMultiple:
		if rule.AppliesToSeller {
			seller = p.SellerMultiplier.Mul(base)
		}
		if rule.AppliesToPartner {
			partner = p.PartnerMultiplier.Mul(base)
		}
	}
	return NewCommission(seller, partner)
}

func baseValue(method CalculationMethod, in Input) decimal.Decimal {
	switch method {
	case MethodFixedPerQuantity:
		if in.Quantity <= 0 {
			return decimal.NewFromInt(1)
		}
		return decimal.NewFromInt(int64(in.Quantity))
	case MethodMonthlyMultiple:
		if in.SaleType.IsUpgrade() {
			return in.UpgradeDelta()
		}
		return in.MonthlyValue
	default:
		return decimal.Zero
	}
}
