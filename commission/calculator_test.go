package commission_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/hugoalbmartins/Leiritrix-sub000/commission"
	"github.com/hugoalbmartins/Leiritrix-sub000/commission/mocks"
	"github.com/hugoalbmartins/Leiritrix-sub000/commission/store"
)

func TestNifTypeOf(t *testing.T) {
	tests := []struct {
		nif  string
		want commission.NifType
	}{
		{"512345678", commission.Nif5xx},
		{"123456789", commission.Nif123xxx},
		{"234567890", commission.Nif123xxx},
		{"345678901", commission.Nif123xxx},
		{"987654321", commission.NifAll},
		{"612345678", commission.NifAll},
		{"", commission.NifAll},
		{" 512345678", commission.NifAll},
	}

	for _, tt := range tests {
		t.Run(tt.nif, func(t *testing.T) {
			assert.Equal(t, tt.want, commission.NifTypeOf(tt.nif))
		})
	}
}

// =============================================================================
// STANDARD PRICING
// =============================================================================

func TestCalculate_StandardPricing(t *testing.T) {
	calc := commission.NewCalculator(nil)
	ctx := context.Background()

	tests := []struct {
		name        string
		rule        commission.Rule
		input       commission.Input
		wantSeller  string
		wantPartner string
	}{
		{
			name:        "fixed per quantity pays the fixed values",
			rule:        fixedRule("r", commission.SaleNI, "50", "20"),
			input:       commission.Input{SaleType: commission.SaleNI, Quantity: 1},
			wantSeller:  "50",
			wantPartner: "20",
		},
		{
			name:        "fixed per quantity defaults quantity to one",
			rule:        fixedRule("r", commission.SaleNI, "50", "20"),
			input:       commission.Input{SaleType: commission.SaleNI},
			wantSeller:  "50",
			wantPartner: "20",
		},
		{
			name:        "fixed per quantity multiplies by quantity",
			rule:        fixedRule("r", commission.SaleNI, "12.5", "2"),
			input:       commission.Input{SaleType: commission.SaleNI, Quantity: 3},
			wantSeller:  "37.5",
			wantPartner: "6",
		},
		{
			name:        "monthly multiple rounds to cents",
			rule:        multipleRule("r", commission.SaleNI, "1.5", "0.5"),
			input:       commission.Input{SaleType: commission.SaleNI, MonthlyValue: dec("39.90")},
			wantSeller:  "59.85",
			wantPartner: "19.95",
		},
		{
			name:        "monthly multiple rounds half up",
			rule:        multipleRule("r", commission.SaleMC, "1.25", "0"),
			input:       commission.Input{SaleType: commission.SaleMC, MonthlyValue: dec("10.01")},
			wantSeller:  "12.51",
			wantPartner: "0",
		},
		{
			name:        "upgrade uses the monthly delta",
			rule:        multipleRule("r", commission.SaleUpSell, "2", "1"),
			input:       commission.Input{SaleType: commission.SaleUpSell, PreviousMonthlyValue: dec("30"), NewMonthlyValue: dec("50")},
			wantSeller:  "40",
			wantPartner: "20",
		},
		{
			name:        "upgrade decrease clamps to zero",
			rule:        multipleRule("r", commission.SaleUpSell, "2", "1"),
			input:       commission.Input{SaleType: commission.SaleUpSell, PreviousMonthlyValue: dec("40"), NewMonthlyValue: dec("35")},
			wantSeller:  "0",
			wantPartner: "0",
		},
		{
			name:        "cross sell ignores the contract value",
			rule:        multipleRule("r", commission.SaleCrossSell, "3", "0"),
			input:       commission.Input{SaleType: commission.SaleCrossSell, MonthlyValue: dec("999"), PreviousMonthlyValue: dec("10"), NewMonthlyValue: dec("15.5")},
			wantSeller:  "16.5",
			wantPartner: "0",
		},
		{
			name:        "missing monthly value is zero",
			rule:        multipleRule("r", commission.SaleRefid, "4", "4"),
			input:       commission.Input{SaleType: commission.SaleRefid},
			wantSeller:  "0",
			wantPartner: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.Calculate(ctx, tt.rule, tt.input)
			require.NoError(t, err)
			assertMoney(t, tt.wantSeller, got.Seller)
			assertMoney(t, tt.wantPartner, got.Partner)
		})
	}
}

func TestCalculate_AppliesToGating(t *testing.T) {
	calc := commission.NewCalculator(nil)
	in := commission.Input{SaleType: commission.SaleNI, Quantity: 1}

	sellerOnly := fixedRule("r", commission.SaleNI, "50", "20")
	sellerOnly.AppliesToPartner = false
	got, err := calc.Calculate(context.Background(), sellerOnly, in)
	require.NoError(t, err)
	assertMoney(t, "50", got.Seller)
	assertMoney(t, "0", got.Partner)

	partnerOnly := multipleRule("r", commission.SaleNI, "2", "3")
	partnerOnly.AppliesToSeller = false
	got, err = calc.Calculate(context.Background(), partnerOnly, commission.Input{SaleType: commission.SaleNI, MonthlyValue: dec("10")})
	require.NoError(t, err)
	assertMoney(t, "0", got.Seller)
	assertMoney(t, "30", got.Partner)
}

func TestCalculate_UnusedPricingPairIgnored(t *testing.T) {
	// Multipliers left over on a fixed rule must not leak into the result.
	rule := fixedRule("r", commission.SaleNI, "50", "20")
	p := rule.Pricing.(commission.StandardPricing)
	p.SellerMultiplier = dec("100")
	p.PartnerMultiplier = dec("100")
	rule.Pricing = p

	got, err := commission.NewCalculator(nil).Calculate(context.Background(), rule, commission.Input{SaleType: commission.SaleNI, MonthlyValue: dec("40")})
	require.NoError(t, err)
	assertMoney(t, "50", got.Seller)
	assertMoney(t, "20", got.Partner)
}

func TestCalculate_RuleWithoutPricing(t *testing.T) {
	rule := fixedRule("r", commission.SaleNI, "50", "20")
	rule.Pricing = nil

	_, err := commission.NewCalculator(nil).Calculate(context.Background(), rule, commission.Input{})
	assert.True(t, commission.IsValidation(err))
}

// =============================================================================
// PER-POWER PRICING
// =============================================================================

func powerRule(id string) commission.Rule {
	r := fixedRule(id, commission.SaleNI, "0", "0")
	r.Pricing = commission.PowerPricing{}
	return r
}

func TestCalculate_PerPowerLookup(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	require.NoError(t, m.SaveSetting(ctx, automaticSetting("s1", "op1", nil, false)))
	require.NoError(t, m.ReplaceRules(ctx, "s1", []commission.Rule{powerRule("r-pow")}, []commission.PowerBracket{
		{RuleID: "r-pow", Power: "6.9", Seller: dec("35.555"), Partner: dec("12")},
		{RuleID: "r-pow", Power: "Outra", Seller: dec("60"), Partner: dec("25")},
	}))
	calc := commission.NewCalculator(m)

	got, err := calc.Calculate(ctx, powerRule("r-pow"), commission.Input{SaleType: commission.SaleNI, Potencia: "6.9", MonthlyValue: dec("1000")})
	require.NoError(t, err)
	assertMoney(t, "35.56", got.Seller)
	assertMoney(t, "12", got.Partner)

	got, err = calc.Calculate(ctx, powerRule("r-pow"), commission.Input{SaleType: commission.SaleNI, Potencia: "13.8"})
	require.NoError(t, err)
	assert.True(t, got.IsZero(), "unknown power key pays nothing")

	got, err = calc.Calculate(ctx, powerRule("r-pow"), commission.Input{SaleType: commission.SaleNI})
	require.NoError(t, err)
	assert.True(t, got.IsZero(), "missing potencia pays nothing")
}

func TestCalculate_PerPowerStoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	powers := mocks.NewMockPowerTable(ctrl)
	boom := errors.New("timeout")
	powers.EXPECT().PowerBracket(gomock.Any(), "r-pow", "3.45").Return(nil, boom)

	_, err := commission.NewCalculator(powers).Calculate(context.Background(), powerRule("r-pow"), commission.Input{Potencia: "3.45"})
	assert.ErrorIs(t, err, boom)
}

func TestCalculate_PerPowerWithoutTable(t *testing.T) {
	_, err := commission.NewCalculator(nil).Calculate(context.Background(), powerRule("r-pow"), commission.Input{Potencia: "3.45"})
	assert.ErrorIs(t, err, commission.ErrNoPowerTable)
}
