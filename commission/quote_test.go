package commission_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugoalbmartins/Leiritrix-sub000/commission"
	"github.com/hugoalbmartins/Leiritrix-sub000/commission/store"
)

func newQuoter(m *store.Memory) *commission.Quoter {
	return commission.NewQuoter(commission.NewResolver(m, nil), commission.NewCalculator(m))
}

func TestQuote_Calculated(t *testing.T) {
	m := store.NewMemory()
	seed(t, m, automaticSetting("s1", "op1", nil, false), multipleRule("r1", commission.SaleNI, "1.5", "0.5"))

	q, err := newQuoter(m).Quote(context.Background(), commission.QuoteRequest{
		Query: query("op1", "", commission.SaleNI),
		Input: commission.Input{MonthlyValue: dec("39.90")},
	})
	require.NoError(t, err)
	assert.Equal(t, commission.QuoteCalculated, q.Status)
	assert.True(t, q.Authoritative())
	assert.Empty(t, q.Warnings)
	assertMoney(t, "59.85", q.Commission.Seller)
	assertMoney(t, "19.95", q.Commission.Partner)
}

func TestQuote_NonUpgradeForcesZero(t *testing.T) {
	// GIVEN: an Up_sell whose new monthly value is not higher than the old one
	// THEN: a warning is raised and both commissions are zero even with a
	//       rule that would pay a fixed amount

	m := store.NewMemory()
	seed(t, m, automaticSetting("s1", "op1", nil, false), fixedRule("r1", commission.SaleUpSell, "25", "10"))

	q, err := newQuoter(m).Quote(context.Background(), commission.QuoteRequest{
		Query: query("op1", "", commission.SaleUpSell),
		Input: commission.Input{PreviousMonthlyValue: dec("40"), NewMonthlyValue: dec("40")},
	})
	require.NoError(t, err)
	assert.Equal(t, commission.QuoteCalculated, q.Status)
	assert.Contains(t, q.Warnings, commission.WarningNonUpgrade)
	assert.True(t, q.Commission.IsZero())
}

func TestQuote_ManualRequired(t *testing.T) {
	m := store.NewMemory()
	manual := automaticSetting("s1", "op1", nil, false)
	manual.CommissionType = commission.CommissionManual
	seed(t, m, manual)

	q, err := newQuoter(m).Quote(context.Background(), commission.QuoteRequest{Query: query("op1", "", commission.SaleNI)})
	require.NoError(t, err)
	assert.Equal(t, commission.QuoteManualRequired, q.Status)
	assert.False(t, q.Authoritative())
	assert.Contains(t, q.Warnings, commission.WarningManual)
}

func TestQuote_Unavailable(t *testing.T) {
	q, err := newQuoter(store.NewMemory()).Quote(context.Background(), commission.QuoteRequest{Query: query("op1", "", commission.SaleNI)})
	require.NoError(t, err)
	assert.Equal(t, commission.QuoteUnavailable, q.Status)
	assert.Equal(t, commission.ReasonNoSetting, q.Resolution.Reason)
	assert.False(t, q.Authoritative())
}

func TestQuote_Override(t *testing.T) {
	m := store.NewMemory()
	manual := automaticSetting("s1", "op1", nil, false)
	manual.CommissionType = commission.CommissionManual
	seed(t, m, manual)

	override := commission.Commission{Seller: dec("120.456"), Partner: dec("30")}
	req := commission.QuoteRequest{Query: query("op1", "", commission.SaleNI), Override: &override}

	_, err := newQuoter(m).Quote(context.Background(), req)
	assert.True(t, commission.IsValidation(err), "override requires permission")

	req.OverrideAllowed = true
	q, err := newQuoter(m).Quote(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, commission.QuoteOverridden, q.Status)
	assert.Equal(t, commission.OutcomeManual, q.Resolution.Outcome)
	assertMoney(t, "120.46", q.Commission.Seller)
	assertMoney(t, "30", q.Commission.Partner)
}

func TestQuote_NegativeOverrideRejected(t *testing.T) {
	override := commission.Commission{Seller: dec("-1"), Partner: dec("0")}
	_, err := newQuoter(store.NewMemory()).Quote(context.Background(), commission.QuoteRequest{
		Query:           query("op1", "", commission.SaleNI),
		Override:        &override,
		OverrideAllowed: true,
	})
	assert.True(t, commission.IsValidation(err))
}
