package commission_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugoalbmartins/Leiritrix-sub000/commission"
	"github.com/hugoalbmartins/Leiritrix-sub000/commission/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func automaticSetting(id, operatorID string, partnerID *string, nifDiff bool) commission.Setting {
	return commission.Setting{
		ID:                 id,
		OperatorID:         operatorID,
		PartnerID:          partnerID,
		CommissionType:     commission.CommissionAutomatic,
		NifDifferentiation: nifDiff,
	}
}

func fixedRule(id string, saleType commission.SaleType, seller, partner string) commission.Rule {
	return commission.Rule{
		ID:               id,
		SaleType:         saleType,
		NifType:          commission.NifAll,
		ClientTypeFilter: commission.FilterAll,
		PortfolioFilter:  commission.FilterAll,
		AppliesToSeller:  true,
		AppliesToPartner: true,
		Pricing: commission.StandardPricing{
			Method:       commission.MethodFixedPerQuantity,
			SellerFixed:  dec(seller),
			PartnerFixed: dec(partner),
		},
	}
}

func multipleRule(id string, saleType commission.SaleType, seller, partner string) commission.Rule {
	r := fixedRule(id, saleType, "0", "0")
	r.Pricing = commission.StandardPricing{
		Method:            commission.MethodMonthlyMultiple,
		SellerMultiplier:  dec(seller),
		PartnerMultiplier: dec(partner),
	}
	return r
}

func withNif(r commission.Rule, n commission.NifType) commission.Rule {
	r.NifType = n
	return r
}

func withLoyalty(r commission.Rule, months int) commission.Rule {
	r.DependsOnLoyalty = true
	r.LoyaltyMonths = intPtr(months)
	return r
}

func withPosition(r commission.Rule, pos int) commission.Rule {
	r.Position = pos
	return r
}

// seed stores a setting with its rules in a fresh memory store.
func seed(t *testing.T, m *store.Memory, s commission.Setting, rules ...commission.Rule) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, m.SaveSetting(ctx, s))
	require.NoError(t, m.ReplaceRules(ctx, s.ID, rules, nil))
}

func newResolver(m *store.Memory) *commission.Resolver {
	return commission.NewResolver(m, nil)
}

func query(operatorID, partnerID string, saleType commission.SaleType) commission.Query {
	return commission.Query{OperatorID: operatorID, PartnerID: partnerID, SaleType: saleType}
}
