/*
Package factory provides JSON to Go commission-setting conversion.

PURPOSE:
  Converts the settings wizard payload into a validated commission.Setting,
  its rules and the per-power bracket table. Operators and partners change
  commission schemes often; the admin UI edits JSON, the factory enforces
  the invariants the resolver relies on.

JSON SCHEMA:
  {
    "operator_id": "op-edp",
    "partner_id": null,
    "commission_type": "automatic",
    "nif_differentiation": true,
    "allowed_sale_types": ["NI", "MC", "Up_sell"],
    "rules": [
      {
        "sale_type": "NI",
        "nif_type": "5xx",
        "commission_type": "standard",
        "calculation_method": "fixed_per_quantity",
        "depends_on_loyalty": true,
        "loyalty_months": 24,
        "seller_fixed_value": 50,
        "partner_fixed_value": 20,
        "applies_to_seller": true,
        "applies_to_partner": true
      },
      {
        "sale_type": "MC",
        "commission_type": "per_power",
        "power_values": [
          {"power_value": "6.9", "seller_commission": 35, "partner_commission": 12}
        ]
      }
    ]
  }

DEFAULTS:
  nif_type "all", commission_type "standard", client_type_filter and
  portfolio_filter "all", applies_to_* true. Manual settings keep no rules.
  The pricing pair the method does not use is zeroed.

SEE ALSO:
  - commission/types.go: Setting, Rule, Pricing definitions
  - api/handlers.go: settings endpoints
*/
package factory

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hugoalbmartins/Leiritrix-sub000/commission"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// SettingJSON is the JSON representation of a setting with its rules.
type SettingJSON struct {
	ID                 string     `json:"id,omitempty"`
	OperatorID         string     `json:"operator_id"`
	PartnerID          *string    `json:"partner_id"`
	CommissionType     string     `json:"commission_type"`
	NifDifferentiation bool       `json:"nif_differentiation"`
	AllowedSaleTypes   []string   `json:"allowed_sale_types"`
	Rules              []RuleJSON `json:"rules,omitempty"`
	CreatedAt          *time.Time `json:"created_at,omitempty"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`
}

// RuleJSON represents one commission rule.
type RuleJSON struct {
	ID                string  `json:"id,omitempty"`
	SaleType          string  `json:"sale_type"`
	NifType           string  `json:"nif_type"`
	CommissionType    string  `json:"commission_type"` // standard, per_power
	CalculationMethod string  `json:"calculation_method,omitempty"`
	DependsOnLoyalty  bool    `json:"depends_on_loyalty"`
	LoyaltyMonths     *int    `json:"loyalty_months"`
	ClientCategoryID  *string `json:"client_category_id"`
	ClientTypeFilter  string  `json:"client_type_filter"`
	PortfolioFilter   string  `json:"portfolio_filter"`

	SellerFixedValue         decimal.Decimal `json:"seller_fixed_value"`
	PartnerFixedValue        decimal.Decimal `json:"partner_fixed_value"`
	SellerMonthlyMultiplier  decimal.Decimal `json:"seller_monthly_multiplier"`
	PartnerMonthlyMultiplier decimal.Decimal `json:"partner_monthly_multiplier"`

	AppliesToSeller  *bool `json:"applies_to_seller,omitempty"`
	AppliesToPartner *bool `json:"applies_to_partner,omitempty"`

	PowerValues []PowerValueJSON `json:"power_values,omitempty"`
}

// PowerValueJSON is one row of a per-power rule's bracket table.
type PowerValueJSON struct {
	PowerValue        string          `json:"power_value"`
	SellerCommission  decimal.Decimal `json:"seller_commission"`
	PartnerCommission decimal.Decimal `json:"partner_commission"`
}

// Parsed is a validated setting ready for the repository.
type Parsed struct {
	Setting  commission.Setting
	Rules    []commission.Rule
	Brackets []commission.PowerBracket
}

// =============================================================================
// VALIDATION
// =============================================================================

var (
	commissionTypes = []any{string(commission.CommissionManual), string(commission.CommissionAutomatic)}
	nifTypes        = []any{string(commission.NifAll), string(commission.Nif5xx), string(commission.Nif123xxx)}
	pricingKinds    = []any{string(commission.PricingStandard), string(commission.PricingPerPower)}
	methods         = []any{string(commission.MethodFixedPerQuantity), string(commission.MethodMonthlyMultiple)}
	clientTypes     = []any{commission.FilterAll, string(commission.ClientResidencial), string(commission.ClientEmpresarial)}
	loyaltyTerms    = []any{0, 12, 24, 36}
)

func saleTypeValues() []any {
	out := make([]any, len(commission.SaleTypes))
	for i, t := range commission.SaleTypes {
		out[i] = string(t)
	}
	return out
}

var nonNegative = validation.By(func(value any) error {
	d, ok := value.(decimal.Decimal)
	if ok && d.IsNegative() {
		return errors.New("must not be negative")
	}
	return nil
})

// Validate checks the setting and, for automatic settings, every rule.
func (s SettingJSON) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.OperatorID, validation.Required.Error("operator is required")),
		validation.Field(&s.CommissionType, validation.Required, validation.In(commissionTypes...)),
		validation.Field(&s.AllowedSaleTypes,
			validation.Required.Error("at least one sale type must be allowed"),
			validation.Each(validation.In(saleTypeValues()...)),
		),
		validation.Field(&s.Rules,
			validation.When(s.CommissionType == string(commission.CommissionAutomatic),
				validation.Required.Error("automatic commissions need at least one rule"),
				validation.By(allowedSaleTypes(s.AllowedSaleTypes)),
				validation.By(uniqueRuleIDs),
			),
		),
	)
}

// uniqueRuleIDs rejects two rules sharing an explicit id. Empty ids are
// issued by the factory.
func uniqueRuleIDs(value any) error {
	rules, _ := value.([]RuleJSON)
	seen := make(map[string]bool, len(rules))
	for i, r := range rules {
		if r.ID == "" {
			continue
		}
		if seen[r.ID] {
			return fmt.Errorf("rule %d: id %s is used by another rule", i, r.ID)
		}
		seen[r.ID] = true
	}
	return nil
}

func allowedSaleTypes(allowed []string) validation.RuleFunc {
	return func(value any) error {
		rules, _ := value.([]RuleJSON)
		for i, r := range rules {
			if !contains(allowed, r.SaleType) {
				return fmt.Errorf("rule %d: sale type %s is not allowed by this setting", i, r.SaleType)
			}
		}
		return nil
	}
}

// Validate checks one rule after defaults have been applied.
func (r RuleJSON) Validate() error {
	perPower := r.CommissionType == string(commission.PricingPerPower)
	return validation.ValidateStruct(&r,
		validation.Field(&r.SaleType, validation.Required, validation.In(saleTypeValues()...)),
		validation.Field(&r.NifType, validation.In(nifTypes...)),
		validation.Field(&r.CommissionType, validation.In(pricingKinds...)),
		validation.Field(&r.CalculationMethod,
			validation.When(!perPower, validation.Required, validation.In(methods...)),
		),
		validation.Field(&r.LoyaltyMonths,
			validation.When(r.DependsOnLoyalty, validation.NotNil, validation.In(loyaltyTerms...)),
			validation.When(!r.DependsOnLoyalty, validation.Nil.Error("must be empty when the rule does not depend on loyalty")),
		),
		validation.Field(&r.ClientTypeFilter, validation.In(clientTypes...)),
		validation.Field(&r.SellerFixedValue, nonNegative),
		validation.Field(&r.PartnerFixedValue, nonNegative),
		validation.Field(&r.SellerMonthlyMultiplier, nonNegative),
		validation.Field(&r.PartnerMonthlyMultiplier, nonNegative),
		validation.Field(&r.PowerValues,
			validation.When(perPower,
				validation.Required.Error("per-power rules need at least one power value"),
				validation.By(uniquePowerValues),
			),
		),
	)
}

func uniquePowerValues(value any) error {
	rows, _ := value.([]PowerValueJSON)
	seen := make(map[string]bool, len(rows))
	for _, p := range rows {
		if seen[p.PowerValue] {
			return fmt.Errorf("power value %s is listed more than once", p.PowerValue)
		}
		seen[p.PowerValue] = true
	}
	return nil
}

// Validate checks one bracket row.
func (p PowerValueJSON) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.PowerValue, validation.Required),
		validation.Field(&p.SellerCommission, nonNegative),
		validation.Field(&p.PartnerCommission, nonNegative),
	)
}

// =============================================================================
// SETTING FACTORY
// =============================================================================

// SettingFactory converts wizard JSON into domain settings.
type SettingFactory struct {
	NewID func() string
	Now   func() time.Time
}

// NewSettingFactory creates a factory issuing UUIDs.
func NewSettingFactory() *SettingFactory {
	return &SettingFactory{NewID: uuid.NewString, Now: time.Now}
}

// ParseSetting parses and validates a JSON payload.
func (f *SettingFactory) ParseSetting(data []byte) (*Parsed, error) {
	var sj SettingJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		return nil, &commission.ValidationError{Field: "body", Message: err.Error()}
	}
	return f.FromJSON(sj)
}

// FromJSON applies defaults, validates and converts.
func (f *SettingFactory) FromJSON(sj SettingJSON) (*Parsed, error) {
	sj = normalize(sj)
	if err := sj.Validate(); err != nil {
		return nil, &commission.ValidationError{Field: "setting", Message: err.Error()}
	}

	now := f.Now().UTC()
	if sj.ID == "" {
		sj.ID = f.NewID()
	}
	setting := commission.Setting{
		ID:                 sj.ID,
		OperatorID:         sj.OperatorID,
		PartnerID:          sj.PartnerID,
		CommissionType:     commission.CommissionType(sj.CommissionType),
		NifDifferentiation: sj.NifDifferentiation,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if sj.CreatedAt != nil {
		setting.CreatedAt = *sj.CreatedAt
	}
	for _, t := range sj.AllowedSaleTypes {
		setting.AllowedSaleTypes = append(setting.AllowedSaleTypes, commission.SaleType(t))
	}

	out := &Parsed{Setting: setting}
	for i, rj := range sj.Rules {
		rule, brackets := f.toRule(rj, sj.ID, i)
		out.Rules = append(out.Rules, rule)
		out.Brackets = append(out.Brackets, brackets...)
	}
	return out, nil
}

func (f *SettingFactory) toRule(rj RuleJSON, settingID string, position int) (commission.Rule, []commission.PowerBracket) {
	id := rj.ID
	if id == "" {
		id = f.NewID()
	}
	rule := commission.Rule{
		ID:               id,
		SettingID:        settingID,
		Position:         position,
		SaleType:         commission.SaleType(rj.SaleType),
		NifType:          commission.NifType(rj.NifType),
		DependsOnLoyalty: rj.DependsOnLoyalty,
		LoyaltyMonths:    rj.LoyaltyMonths,
		ClientCategoryID: rj.ClientCategoryID,
		ClientTypeFilter: rj.ClientTypeFilter,
		PortfolioFilter:  rj.PortfolioFilter,
		AppliesToSeller:  *rj.AppliesToSeller,
		AppliesToPartner: *rj.AppliesToPartner,
	}

	if rj.CommissionType == string(commission.PricingPerPower) {
		rule.Pricing = commission.PowerPricing{}
		brackets := make([]commission.PowerBracket, len(rj.PowerValues))
		for i, pv := range rj.PowerValues {
			brackets[i] = commission.PowerBracket{
				RuleID:  id,
				Power:   pv.PowerValue,
				Seller:  pv.SellerCommission,
				Partner: pv.PartnerCommission,
			}
		}
		return rule, brackets
	}

	pricing := commission.StandardPricing{Method: commission.CalculationMethod(rj.CalculationMethod)}
	switch pricing.Method {
	case commission.MethodFixedPerQuantity:
		pricing.SellerFixed = rj.SellerFixedValue
		pricing.PartnerFixed = rj.PartnerFixedValue
	case commission.MethodMonthlyMultiple:
		pricing.SellerMultiplier = rj.SellerMonthlyMultiplier
		pricing.PartnerMultiplier = rj.PartnerMonthlyMultiplier
	}
	rule.Pricing = pricing
	return rule, nil
}

func normalize(sj SettingJSON) SettingJSON {
	if sj.PartnerID != nil && *sj.PartnerID == "" {
		sj.PartnerID = nil
	}
	if sj.CommissionType == string(commission.CommissionManual) {
		sj.Rules = nil
	}

	rules := make([]RuleJSON, len(sj.Rules))
	for i, r := range sj.Rules {
		if r.NifType == "" {
			r.NifType = string(commission.NifAll)
		}
		if r.CommissionType == "" {
			r.CommissionType = string(commission.PricingStandard)
		}
		if r.ClientTypeFilter == "" {
			r.ClientTypeFilter = commission.FilterAll
		}
		if r.PortfolioFilter == "" {
			r.PortfolioFilter = commission.FilterAll
		}
		if r.ClientCategoryID != nil && *r.ClientCategoryID == "" {
			r.ClientCategoryID = nil
		}
		if r.AppliesToSeller == nil {
			r.AppliesToSeller = boolPtr(true)
		}
		if r.AppliesToPartner == nil {
			r.AppliesToPartner = boolPtr(true)
		}
		rules[i] = r
	}
	if len(rules) > 0 {
		sj.Rules = rules
	}
	return sj
}

// =============================================================================
// EXPORT
// =============================================================================

// ToJSON renders a stored setting back into the wizard schema.
func ToJSON(s commission.Setting, rules []commission.Rule, brackets map[string][]commission.PowerBracket) SettingJSON {
	created, updated := s.CreatedAt, s.UpdatedAt
	sj := SettingJSON{
		ID:                 s.ID,
		OperatorID:         s.OperatorID,
		PartnerID:          s.PartnerID,
		CommissionType:     string(s.CommissionType),
		NifDifferentiation: s.NifDifferentiation,
		AllowedSaleTypes:   []string{},
		CreatedAt:          &created,
		UpdatedAt:          &updated,
	}
	for _, t := range s.AllowedSaleTypes {
		sj.AllowedSaleTypes = append(sj.AllowedSaleTypes, string(t))
	}

	for _, r := range rules {
		rj := RuleJSON{
			ID:               r.ID,
			SaleType:         string(r.SaleType),
			NifType:          string(r.NifType),
			DependsOnLoyalty: r.DependsOnLoyalty,
			LoyaltyMonths:    r.LoyaltyMonths,
			ClientCategoryID: r.ClientCategoryID,
			ClientTypeFilter: r.ClientTypeFilter,
			PortfolioFilter:  r.PortfolioFilter,
			AppliesToSeller:  boolPtr(r.AppliesToSeller),
			AppliesToPartner: boolPtr(r.AppliesToPartner),
		}
		switch p := r.Pricing.(type) {
		case commission.StandardPricing:
			rj.CommissionType = string(commission.PricingStandard)
			rj.CalculationMethod = string(p.Method)
			rj.SellerFixedValue = p.SellerFixed
			rj.PartnerFixedValue = p.PartnerFixed
			rj.SellerMonthlyMultiplier = p.SellerMultiplier
			rj.PartnerMonthlyMultiplier = p.PartnerMultiplier
		case commission.PowerPricing:
			rj.CommissionType = string(commission.PricingPerPower)
			for _, b := range brackets[r.ID] {
				rj.PowerValues = append(rj.PowerValues, PowerValueJSON{
					PowerValue:        b.Power,
					SellerCommission:  b.Seller,
					PartnerCommission: b.Partner,
				})
			}
		}
		sj.Rules = append(sj.Rules, rj)
	}
	return sj
}

func boolPtr(b bool) *bool { return &b }

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
