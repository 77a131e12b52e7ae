/*
Package commission provides the commission rule resolution and calculation engine.

PURPOSE:
  Given the attributes of a sale (operator, partner, sale type, client NIF,
  loyalty term, client category/type, portfolio status and its monthly
  values) this package selects the single applicable commission rule out of
  an operator's configured rule set and computes the seller and partner
  commission amounts.

KEY CONCEPTS IN THIS FILE (types.go):
  - Setting: commission configuration scoped to (operator, partner|nil)
  - Rule: one matchable commission formula within a setting
  - Pricing: how a matched rule turns sale values into money
  - Sale: the external sale record consumed by the engine
  - Commission: the seller/partner pair written back to the sale

DESIGN PRINCIPLES:
  1. Precision: money and multipliers are decimal.Decimal, rounded to cents
  2. Explicit ordering: rule precedence never depends on storage order
  3. Outcomes, not exceptions: "cannot auto-calculate" is a value
  4. Pure core: Resolver and Calculator only read through store contracts

SEE ALSO:
  - resolver.go: Rule selection
  - calculator.go: Amount computation
  - recalc.go: Batch recalculation job
  - quote.go: Caller policy around resolve and calculate
  - store.go: Persistence contracts
*/
package commission

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENUMERATIONS
// =============================================================================

// SaleType is the fixed set of sale classifications this product supports.
type SaleType string

const (
	SaleNI              SaleType = "NI"               // Nova instalação
	SaleMC              SaleType = "MC"               // Mudança de casa
	SaleRefid           SaleType = "Refid"            // Refidelização
	SaleRefidAcrescimo  SaleType = "Refid_Acrescimo"  // Refidelização com acréscimo
	SaleRefidDecrescimo SaleType = "Refid_Decrescimo" // Refidelização com decréscimo
	SaleUpSell          SaleType = "Up_sell"
	SaleCrossSell       SaleType = "Cross_sell"
)

// SaleTypes lists every supported sale type in display order.
var SaleTypes = []SaleType{
	SaleNI, SaleMC, SaleRefid, SaleRefidAcrescimo, SaleRefidDecrescimo, SaleUpSell, SaleCrossSell,
}

// Valid reports whether s is one of the supported sale types.
func (s SaleType) Valid() bool {
	for _, t := range SaleTypes {
		if s == t {
			return true
		}
	}
	return false
}

// IsUpgrade reports whether commissions for s are based on the monthly delta.
func (s SaleType) IsUpgrade() bool {
	return s == SaleUpSell || s == SaleCrossSell
}

// NifType classifies a client by the leading digit of the NIF.
type NifType string

const (
	NifAll    NifType = "all"
	Nif5xx    NifType = "5xx"
	Nif123xxx NifType = "123xxx"
)

func (n NifType) Valid() bool {
	return n == NifAll || n == Nif5xx || n == Nif123xxx
}

// CommissionType says whether a setting is resolved by rules or by hand.
type CommissionType string

const (
	CommissionManual    CommissionType = "manual"
	CommissionAutomatic CommissionType = "automatic"
)

func (c CommissionType) Valid() bool {
	return c == CommissionManual || c == CommissionAutomatic
}

// CalculationMethod selects the formula used by StandardPricing.
type CalculationMethod string

const (
	MethodFixedPerQuantity CalculationMethod = "fixed_per_quantity"
	MethodMonthlyMultiple  CalculationMethod = "monthly_multiple"
)

func (m CalculationMethod) Valid() bool {
	return m == MethodFixedPerQuantity || m == MethodMonthlyMultiple
}

// ClientType is the residential/business split used by client-type filters.
type ClientType string

const (
	ClientResidencial ClientType = "residencial"
	ClientEmpresarial ClientType = "empresarial"
)

// FilterAll is the wildcard value for client-type and portfolio filters.
const FilterAll = "all"

// LoyaltyTerms are the lock-in periods (months) a loyalty-dependent rule may require.
var LoyaltyTerms = []int{0, 12, 24, 36}

// PowerKeys are the contracted power values (kVA) used as power-bracket keys.
var PowerKeys = []string{
	"1.15", "2.3", "3.45", "4.6", "5.75", "6.9", "10.35", "13.8",
	"17.25", "20.7", "27.6", "34.5", "41.4", "Outra",
}

// =============================================================================
// SETTING - Commission configuration for (operator, partner|nil)
// =============================================================================

// Setting scopes a rule set to an operator and, optionally, a partner.
// A nil PartnerID is the operator-wide fallback scope.
type Setting struct {
	ID                 string
	OperatorID         string
	PartnerID          *string
	CommissionType     CommissionType
	NifDifferentiation bool
	AllowedSaleTypes   []SaleType // empty = all sale types allowed
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsPartnerScoped reports whether the setting applies to a single partner.
func (s Setting) IsPartnerScoped() bool {
	return s.PartnerID != nil
}

// AppliesTo reports whether the setting covers the given partner.
func (s Setting) AppliesTo(partnerID string) bool {
	return s.PartnerID == nil || *s.PartnerID == partnerID
}

// AllowsSaleType reports whether t is permitted by the setting.
func (s Setting) AllowsSaleType(t SaleType) bool {
	if len(s.AllowedSaleTypes) == 0 {
		return true
	}
	for _, allowed := range s.AllowedSaleTypes {
		if allowed == t {
			return true
		}
	}
	return false
}

// =============================================================================
// RULE - One matchable commission formula within a setting
// =============================================================================

// Rule is a child of a Setting. Matching fields decide whether the rule
// applies to a sale; Pricing decides how much it pays.
type Rule struct {
	ID        string
	SettingID string
	Position  int // creation order within the setting; stable tie-breaker

	SaleType         SaleType
	NifType          NifType
	DependsOnLoyalty bool
	LoyaltyMonths    *int // required value when DependsOnLoyalty, nil otherwise

	ClientCategoryID *string // nil = any category
	ClientTypeFilter string  // FilterAll or a ClientType
	PortfolioFilter  string  // FilterAll or a portfolio status (business clients only)

	AppliesToSeller  bool
	AppliesToPartner bool

	Pricing Pricing
}

// Pricing is the tagged variant describing how a rule pays out.
// Implemented by StandardPricing and PowerPricing.
type Pricing interface {
	Kind() PricingKind
}

// PricingKind is the storage tag of a Pricing variant.
type PricingKind string

const (
	PricingStandard PricingKind = "standard"
	PricingPerPower PricingKind = "per_power"
)

// StandardPricing computes amounts from a formula over the sale's values.
// Fixed values are meaningful for MethodFixedPerQuantity, multipliers for
// MethodMonthlyMultiple; the unused pair is ignored, whatever it holds.
type StandardPricing struct {
	Method            CalculationMethod
	SellerFixed       decimal.Decimal
	PartnerFixed      decimal.Decimal
	SellerMultiplier  decimal.Decimal
	PartnerMultiplier decimal.Decimal
}

func (StandardPricing) Kind() PricingKind { return PricingStandard }

// PowerPricing looks amounts up in the power-bracket table by contracted power.
type PowerPricing struct{}

func (PowerPricing) Kind() PricingKind { return PricingPerPower }

// PowerBracket holds the flat amounts paid by a per-power rule for one power key.
type PowerBracket struct {
	RuleID  string
	Power   string
	Seller  decimal.Decimal
	Partner decimal.Decimal
}

// =============================================================================
// SALE - External entity consumed by the engine
// =============================================================================

// Sale is the subset of a sale record the engine reads and writes.
type Sale struct {
	ID         string
	OperatorID string
	PartnerID  string
	SaleType   SaleType

	ClientName       string
	ClientNIF        string
	ClientCategoryID *string
	ClientType       ClientType
	PortfolioStatus  string
	LoyaltyMonths    int
	Potencia         string

	ContractValue        decimal.NullDecimal // monthly value for non-upgrade sale types
	PreviousMonthlyValue decimal.NullDecimal
	NewMonthlyValue      decimal.NullDecimal

	CommissionSeller  decimal.Decimal
	CommissionPartner decimal.Decimal

	Status     string
	SellerID   string
	SaleDate   time.Time
	ActiveDate *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// HasZeroCommissions reports whether both commission legs are exactly zero.
func (s Sale) HasZeroCommissions() bool {
	return s.CommissionSeller.IsZero() && s.CommissionPartner.IsZero()
}

// Query builds the resolver query for this sale.
func (s Sale) Query() Query {
	return Query{
		OperatorID:       s.OperatorID,
		PartnerID:        s.PartnerID,
		SaleType:         s.SaleType,
		ClientNIF:        s.ClientNIF,
		LoyaltyMonths:    s.LoyaltyMonths,
		ClientCategoryID: s.ClientCategoryID,
		ClientType:       s.ClientType,
		PortfolioStatus:  s.PortfolioStatus,
	}
}

// Input builds calculator input from the stored values. Missing numeric
// values become zero here, at the call site, never inside the Calculator.
func (s Sale) Input() Input {
	return Input{
		SaleType:             s.SaleType,
		MonthlyValue:         valueOrZero(s.ContractValue),
		PreviousMonthlyValue: valueOrZero(s.PreviousMonthlyValue),
		NewMonthlyValue:      valueOrZero(s.NewMonthlyValue),
		Potencia:             s.Potencia,
		Quantity:             1,
	}
}

func valueOrZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

// =============================================================================
// COMMISSION - Computed amounts
// =============================================================================

// Commission is the seller/partner pair, always rounded to cents.
type Commission struct {
	Seller  decimal.Decimal
	Partner decimal.Decimal
}

// ZeroCommission is the result for rules that pay nothing.
var ZeroCommission = Commission{Seller: decimal.Zero, Partner: decimal.Zero}

// NewCommission rounds both legs to two decimal places.
func NewCommission(seller, partner decimal.Decimal) Commission {
	return Commission{Seller: seller.Round(2), Partner: partner.Round(2)}
}

func (c Commission) IsZero() bool {
	return c.Seller.IsZero() && c.Partner.IsZero()
}
