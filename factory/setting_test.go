package factory

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugoalbmartins/Leiritrix-sub000/commission"
)

func newTestFactory() *SettingFactory {
	n := 0
	return &SettingFactory{
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
		Now: func() time.Time { return time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func TestParseSetting_Automatic(t *testing.T) {
	payload := `{
		"operator_id": "op-edp",
		"partner_id": "",
		"commission_type": "automatic",
		"nif_differentiation": true,
		"allowed_sale_types": ["NI", "MC"],
		"rules": [
			{
				"sale_type": "NI",
				"nif_type": "5xx",
				"calculation_method": "fixed_per_quantity",
				"depends_on_loyalty": true,
				"loyalty_months": 24,
				"seller_fixed_value": 50,
				"partner_fixed_value": "20.5",
				"seller_monthly_multiplier": 3,
				"applies_to_partner": false
			},
			{
				"sale_type": "MC",
				"commission_type": "per_power",
				"power_values": [
					{"power_value": "6.9", "seller_commission": 35, "partner_commission": 12},
					{"power_value": "Outra", "seller_commission": 60, "partner_commission": 25}
				]
			}
		]
	}`

	parsed, err := newTestFactory().ParseSetting([]byte(payload))
	require.NoError(t, err)

	s := parsed.Setting
	assert.Equal(t, "id-1", s.ID)
	assert.Nil(t, s.PartnerID, "empty partner becomes operator-wide")
	assert.Equal(t, commission.CommissionAutomatic, s.CommissionType)
	assert.Equal(t, []commission.SaleType{commission.SaleNI, commission.SaleMC}, s.AllowedSaleTypes)

	require.Len(t, parsed.Rules, 2)
	fixed := parsed.Rules[0]
	assert.Equal(t, 0, fixed.Position)
	assert.Equal(t, commission.Nif5xx, fixed.NifType)
	assert.Equal(t, 24, *fixed.LoyaltyMonths)
	assert.Equal(t, commission.FilterAll, fixed.ClientTypeFilter)
	assert.Equal(t, commission.FilterAll, fixed.PortfolioFilter)
	assert.True(t, fixed.AppliesToSeller)
	assert.False(t, fixed.AppliesToPartner)

	pricing, ok := fixed.Pricing.(commission.StandardPricing)
	require.True(t, ok)
	assert.Equal(t, "50", pricing.SellerFixed.String())
	assert.Equal(t, "20.5", pricing.PartnerFixed.String())
	assert.True(t, pricing.SellerMultiplier.IsZero(), "unused multiplier is dropped")

	power := parsed.Rules[1]
	assert.Equal(t, 1, power.Position)
	assert.Equal(t, commission.PricingPerPower, power.Pricing.Kind())
	assert.Equal(t, commission.NifAll, power.NifType)

	require.Len(t, parsed.Brackets, 2)
	assert.Equal(t, power.ID, parsed.Brackets[0].RuleID)
	assert.Equal(t, "6.9", parsed.Brackets[0].Power)
}

func TestParseSetting_ManualDropsRules(t *testing.T) {
	payload := `{
		"operator_id": "op1",
		"commission_type": "manual",
		"allowed_sale_types": ["NI"],
		"rules": [{"sale_type": "Bogus"}]
	}`

	parsed, err := newTestFactory().ParseSetting([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, commission.CommissionManual, parsed.Setting.CommissionType)
	assert.Empty(t, parsed.Rules)
}

func TestParseSetting_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantMsg string
	}{
		{
			name:    "malformed json",
			payload: `{"operator_id":`,
			wantMsg: "body",
		},
		{
			name:    "missing operator",
			payload: `{"commission_type":"manual","allowed_sale_types":["NI"]}`,
			wantMsg: "operator is required",
		},
		{
			name:    "unknown commission type",
			payload: `{"operator_id":"op1","commission_type":"hybrid","allowed_sale_types":["NI"]}`,
			wantMsg: "commission_type",
		},
		{
			name:    "no allowed sale types",
			payload: `{"operator_id":"op1","commission_type":"manual","allowed_sale_types":[]}`,
			wantMsg: "at least one sale type",
		},
		{
			name:    "automatic without rules",
			payload: `{"operator_id":"op1","commission_type":"automatic","allowed_sale_types":["NI"]}`,
			wantMsg: "at least one rule",
		},
		{
			name: "rule for a sale type that is not allowed",
			payload: `{"operator_id":"op1","commission_type":"automatic","allowed_sale_types":["NI"],
				"rules":[{"sale_type":"MC","calculation_method":"fixed_per_quantity"}]}`,
			wantMsg: "not allowed",
		},
		{
			name: "loyalty dependent without term",
			payload: `{"operator_id":"op1","commission_type":"automatic","allowed_sale_types":["NI"],
				"rules":[{"sale_type":"NI","calculation_method":"fixed_per_quantity","depends_on_loyalty":true}]}`,
			wantMsg: "loyalty_months",
		},
		{
			name: "unsupported loyalty term",
			payload: `{"operator_id":"op1","commission_type":"automatic","allowed_sale_types":["NI"],
				"rules":[{"sale_type":"NI","calculation_method":"fixed_per_quantity","depends_on_loyalty":true,"loyalty_months":18}]}`,
			wantMsg: "loyalty_months",
		},
		{
			name: "term without loyalty dependency",
			payload: `{"operator_id":"op1","commission_type":"automatic","allowed_sale_types":["NI"],
				"rules":[{"sale_type":"NI","calculation_method":"fixed_per_quantity","loyalty_months":12}]}`,
			wantMsg: "must be empty",
		},
		{
			name: "negative value",
			payload: `{"operator_id":"op1","commission_type":"automatic","allowed_sale_types":["NI"],
				"rules":[{"sale_type":"NI","calculation_method":"fixed_per_quantity","seller_fixed_value":-5}]}`,
			wantMsg: "must not be negative",
		},
		{
			name: "standard rule without method",
			payload: `{"operator_id":"op1","commission_type":"automatic","allowed_sale_types":["NI"],
				"rules":[{"sale_type":"NI"}]}`,
			wantMsg: "calculation_method",
		},
		{
			name: "per power without values",
			payload: `{"operator_id":"op1","commission_type":"automatic","allowed_sale_types":["NI"],
				"rules":[{"sale_type":"NI","commission_type":"per_power"}]}`,
			wantMsg: "at least one power value",
		},
		{
			name: "unknown client type filter",
			payload: `{"operator_id":"op1","commission_type":"automatic","allowed_sale_types":["NI"],
				"rules":[{"sale_type":"NI","calculation_method":"fixed_per_quantity","client_type_filter":"gov"}]}`,
			wantMsg: "client_type_filter",
		},
		{
			name: "power value listed twice",
			payload: `{"operator_id":"op1","commission_type":"automatic","allowed_sale_types":["NI"],
				"rules":[{"sale_type":"NI","commission_type":"per_power","power_values":[
					{"power_value":"6.9","seller_commission":35},{"power_value":"6.9","seller_commission":40}]}]}`,
			wantMsg: "power value 6.9 is listed more than once",
		},
		{
			name: "rule id used twice",
			payload: `{"operator_id":"op1","commission_type":"automatic","allowed_sale_types":["NI","MC"],
				"rules":[{"id":"r1","sale_type":"NI","calculation_method":"fixed_per_quantity"},
					{"id":"r1","sale_type":"MC","calculation_method":"fixed_per_quantity"}]}`,
			wantMsg: "id r1 is used by another rule",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestFactory().ParseSetting([]byte(tt.payload))
			require.Error(t, err)
			assert.True(t, commission.IsValidation(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestToJSON_RoundTripsThroughFactory(t *testing.T) {
	f := newTestFactory()
	parsed, err := f.ParseSetting([]byte(`{
		"operator_id": "op1",
		"partner_id": "p1",
		"commission_type": "automatic",
		"allowed_sale_types": ["Up_sell"],
		"rules": [
			{"sale_type": "Up_sell", "calculation_method": "monthly_multiple", "seller_monthly_multiplier": 2, "partner_monthly_multiplier": 1},
			{"sale_type": "Up_sell", "commission_type": "per_power", "power_values": [{"power_value": "3.45", "seller_commission": 9}]}
		]
	}`))
	require.NoError(t, err)

	brackets := map[string][]commission.PowerBracket{}
	for _, b := range parsed.Brackets {
		brackets[b.RuleID] = append(brackets[b.RuleID], b)
	}
	sj := ToJSON(parsed.Setting, parsed.Rules, brackets)

	again, err := f.FromJSON(sj)
	require.NoError(t, err)
	assert.Equal(t, parsed.Setting.ID, again.Setting.ID)
	assert.Equal(t, "p1", *again.Setting.PartnerID)
	assert.Equal(t, parsed.Rules, again.Rules)
	assert.Equal(t, parsed.Brackets, again.Brackets)
}
