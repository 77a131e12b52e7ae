// Package sqlrow maps commission types to the flat rows shared by the SQL
// stores. Column lists and scan/arg orders are defined once here so the
// SQLite and PostgreSQL schemas cannot drift apart.
package sqlrow

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hugoalbmartins/Leiritrix-sub000/commission"
)

// =============================================================================
// RULES
// =============================================================================

const RuleColumns = `id, setting_id, position, sale_type, nif_type, depends_on_loyalty,
	loyalty_months, client_category_id, client_type_filter, portfolio_filter,
	applies_to_seller, applies_to_partner, pricing_kind, calculation_method,
	seller_fixed_value, partner_fixed_value, seller_monthly_multiplier, partner_monthly_multiplier`

// RuleColumnCount is the number of columns in RuleColumns.
const RuleColumnCount = 18

// Rule is a commission.Rule with its Pricing flattened into columns.
type Rule struct {
	ID               string
	SettingID        string
	Position         int
	SaleType         string
	NifType          string
	DependsOnLoyalty bool
	LoyaltyMonths    *int
	ClientCategoryID *string
	ClientTypeFilter string
	PortfolioFilter  string
	AppliesToSeller  bool
	AppliesToPartner bool

	PricingKind       string
	Method            string
	SellerFixed       decimal.Decimal
	PartnerFixed      decimal.Decimal
	SellerMultiplier  decimal.Decimal
	PartnerMultiplier decimal.Decimal
}

// FromRule flattens r. Per-power rules store zero amounts and no method.
func FromRule(r commission.Rule) (Rule, error) {
	row := Rule{
		ID:               r.ID,
		SettingID:        r.SettingID,
		Position:         r.Position,
		SaleType:         string(r.SaleType),
		NifType:          string(r.NifType),
		DependsOnLoyalty: r.DependsOnLoyalty,
		LoyaltyMonths:    r.LoyaltyMonths,
		ClientCategoryID: r.ClientCategoryID,
		ClientTypeFilter: r.ClientTypeFilter,
		PortfolioFilter:  r.PortfolioFilter,
		AppliesToSeller:  r.AppliesToSeller,
		AppliesToPartner: r.AppliesToPartner,
	}

	switch p := r.Pricing.(type) {
	case commission.StandardPricing:
		row.PricingKind = string(commission.PricingStandard)
		row.Method = string(p.Method)
		row.SellerFixed = p.SellerFixed
		row.PartnerFixed = p.PartnerFixed
		row.SellerMultiplier = p.SellerMultiplier
		row.PartnerMultiplier = p.PartnerMultiplier
	case commission.PowerPricing:
		row.PricingKind = string(commission.PricingPerPower)
	default:
		return Rule{}, fmt.Errorf("rule %s: unsupported pricing %T", r.ID, r.Pricing)
	}
	return row, nil
}

// Rule rebuilds the domain rule.
func (r Rule) Rule() (commission.Rule, error) {
	rule := commission.Rule{
		ID:               r.ID,
		SettingID:        r.SettingID,
		Position:         r.Position,
		SaleType:         commission.SaleType(r.SaleType),
		NifType:          commission.NifType(r.NifType),
		DependsOnLoyalty: r.DependsOnLoyalty,
		LoyaltyMonths:    r.LoyaltyMonths,
		ClientCategoryID: r.ClientCategoryID,
		ClientTypeFilter: r.ClientTypeFilter,
		PortfolioFilter:  r.PortfolioFilter,
		AppliesToSeller:  r.AppliesToSeller,
		AppliesToPartner: r.AppliesToPartner,
	}

	switch commission.PricingKind(r.PricingKind) {
	case commission.PricingStandard:
		rule.Pricing = commission.StandardPricing{
			Method:            commission.CalculationMethod(r.Method),
			SellerFixed:       r.SellerFixed,
			PartnerFixed:      r.PartnerFixed,
			SellerMultiplier:  r.SellerMultiplier,
			PartnerMultiplier: r.PartnerMultiplier,
		}
	case commission.PricingPerPower:
		rule.Pricing = commission.PowerPricing{}
	default:
		return commission.Rule{}, fmt.Errorf("rule %s: unknown pricing kind %q", r.ID, r.PricingKind)
	}
	return rule, nil
}

// Dest returns scan destinations in RuleColumns order.
func (r *Rule) Dest() []any {
	return []any{
		&r.ID, &r.SettingID, &r.Position, &r.SaleType, &r.NifType, &r.DependsOnLoyalty,
		&r.LoyaltyMonths, &r.ClientCategoryID, &r.ClientTypeFilter, &r.PortfolioFilter,
		&r.AppliesToSeller, &r.AppliesToPartner, &r.PricingKind, &r.Method,
		&r.SellerFixed, &r.PartnerFixed, &r.SellerMultiplier, &r.PartnerMultiplier,
	}
}

// Args returns insert arguments in RuleColumns order.
func (r Rule) Args() []any {
	return []any{
		r.ID, r.SettingID, r.Position, r.SaleType, r.NifType, r.DependsOnLoyalty,
		r.LoyaltyMonths, r.ClientCategoryID, r.ClientTypeFilter, r.PortfolioFilter,
		r.AppliesToSeller, r.AppliesToPartner, r.PricingKind, r.Method,
		r.SellerFixed, r.PartnerFixed, r.SellerMultiplier, r.PartnerMultiplier,
	}
}

// =============================================================================
// SALES
// =============================================================================

const SaleColumns = `id, operator_id, partner_id, sale_type, client_name, client_nif,
	client_category_id, client_type, portfolio_status, loyalty_months, potencia,
	contract_value, previous_monthly_value, new_monthly_value,
	commission_seller, commission_partner, status, seller_id, sale_date, active_date,
	created_at, updated_at`

// SaleColumnCount is the number of columns in SaleColumns.
const SaleColumnCount = 22

// SaleDest returns scan destinations into s in SaleColumns order.
func SaleDest(s *commission.Sale) []any {
	return []any{
		&s.ID, &s.OperatorID, &s.PartnerID, &s.SaleType, &s.ClientName, &s.ClientNIF,
		&s.ClientCategoryID, &s.ClientType, &s.PortfolioStatus, &s.LoyaltyMonths, &s.Potencia,
		&s.ContractValue, &s.PreviousMonthlyValue, &s.NewMonthlyValue,
		&s.CommissionSeller, &s.CommissionPartner, &s.Status, &s.SellerID, &s.SaleDate, &s.ActiveDate,
		&s.CreatedAt, &s.UpdatedAt,
	}
}

// SaleArgs returns insert arguments in SaleColumns order.
func SaleArgs(s commission.Sale) []any {
	return []any{
		s.ID, s.OperatorID, s.PartnerID, string(s.SaleType), s.ClientName, s.ClientNIF,
		s.ClientCategoryID, string(s.ClientType), s.PortfolioStatus, s.LoyaltyMonths, s.Potencia,
		s.ContractValue, s.PreviousMonthlyValue, s.NewMonthlyValue,
		s.CommissionSeller, s.CommissionPartner, s.Status, s.SellerID, s.SaleDate.UTC(), utcPtr(s.ActiveDate),
		s.CreatedAt.UTC(), s.UpdatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// =============================================================================
// PLACEHOLDERS
// =============================================================================

// Question returns n "?" placeholders (SQLite).
func Question(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// Dollar returns $from..$from+n-1 placeholders (PostgreSQL).
func Dollar(from, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(parts, ", ")
}
