package commission_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/hugoalbmartins/Leiritrix-sub000/commission"
	"github.com/hugoalbmartins/Leiritrix-sub000/commission/mocks"
	"github.com/hugoalbmartins/Leiritrix-sub000/commission/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func sale(id, operatorID, partnerID string, saleType commission.SaleType, contractValue string) commission.Sale {
	s := commission.Sale{
		ID:         id,
		OperatorID: operatorID,
		PartnerID:  partnerID,
		SaleType:   saleType,
		ClientName: "Cliente " + id,
		Status:     "ativo",
		SaleDate:   time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
	}
	if contractValue != "" {
		s.ContractValue = decimal.NewNullDecimal(dec(contractValue))
	}
	return s
}

func newRecalculator(m *store.Memory) *commission.Recalculator {
	return commission.NewRecalculator(m, m,
		commission.NewResolver(m, nil), commission.NewCalculator(m),
		zerolog.Nop(), nil)
}

// recalcFixture: op1 pays 1.5x the contract value on NI; nothing for Refid.
func recalcFixture(t *testing.T) *store.Memory {
	t.Helper()
	ctx := context.Background()
	m := store.NewMemory()
	seed(t, m, automaticSetting("s-op1", "op1", nil, false), multipleRule("r-ni", commission.SaleNI, "1.5", "0.5"))

	paid := sale("sale-4", "op1", "p1", commission.SaleNI, "50")
	paid.CommissionSeller = dec("75")

	for _, s := range []commission.Sale{
		sale("sale-1", "op1", "p1", commission.SaleNI, "39.90"),
		sale("sale-2", "op1", "p1", commission.SaleRefid, "20"),
		sale("sale-3", "op2", "p1", commission.SaleNI, "30"), // no setting for op2
		paid,
		sale("sale-5", "op1", "", commission.SaleNI, "30"), // no partner
	} {
		require.NoError(t, m.CreateSale(ctx, s))
	}
	return m
}

// =============================================================================
// SWEEP
// =============================================================================

func TestRecalculateAll_UpdatesAndSkips(t *testing.T) {
	m := recalcFixture(t)
	ctx := context.Background()

	report, err := newRecalculator(m).RecalculateAll(ctx, commission.RecalcOptions{Trigger: "api"})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Errors)
	require.Len(t, report.Details, 2)

	assert.Equal(t, "sale-1", report.Details[0].SaleID)
	assert.Equal(t, commission.SaleUpdated, report.Details[0].Result)
	require.NotNil(t, report.Details[0].Commission)
	assertMoney(t, "59.85", report.Details[0].Commission.Seller)

	assert.Equal(t, "sale-2", report.Details[1].SaleID)
	assert.Equal(t, commission.SaleSkipped, report.Details[1].Result)
	assert.Equal(t, commission.ReasonNoApplicableRule, report.Details[1].Reason)

	updated, err := m.GetSale(ctx, "sale-1")
	require.NoError(t, err)
	assertMoney(t, "59.85", updated.CommissionSeller)
	assertMoney(t, "19.95", updated.CommissionPartner)

	untouched, err := m.GetSale(ctx, "sale-3")
	require.NoError(t, err)
	assert.True(t, untouched.HasZeroCommissions())
}

func TestRecalculateAll_Idempotent(t *testing.T) {
	// GIVEN: a completed sweep
	// WHEN: the sweep runs again on unchanged rules
	// THEN: nothing else is updated

	m := recalcFixture(t)
	r := newRecalculator(m)
	ctx := context.Background()

	first, err := r.RecalculateAll(ctx, commission.RecalcOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, first.Updated)

	second, err := r.RecalculateAll(ctx, commission.RecalcOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Updated)
	assert.Equal(t, 1, second.Total, "the unmatched sale stays a candidate")
	assert.Equal(t, 1, second.Skipped)
}

func TestRecalculateAll_ZeroEarningSaleIsRecomputed(t *testing.T) {
	// A clamped upgrade earns zero and stays in the selection; recomputing it
	// is harmless.
	ctx := context.Background()
	m := store.NewMemory()
	seed(t, m, automaticSetting("s1", "op1", nil, false), multipleRule("r-up", commission.SaleUpSell, "2", "1"))

	up := sale("sale-up", "op1", "p1", commission.SaleUpSell, "")
	up.PreviousMonthlyValue = decimal.NewNullDecimal(dec("40"))
	up.NewMonthlyValue = decimal.NewNullDecimal(dec("35"))
	require.NoError(t, m.CreateSale(ctx, up))

	r := newRecalculator(m)
	for i := 0; i < 2; i++ {
		report, err := r.RecalculateAll(ctx, commission.RecalcOptions{})
		require.NoError(t, err)
		assert.Equal(t, 1, report.Updated)
		assert.True(t, report.Details[0].Commission.IsZero())
	}
}

func TestRecalculateAll_PartnerSettingPreferred(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	seed(t, m, automaticSetting("s-global", "op1", nil, false), fixedRule("r-global", commission.SaleNI, "10", "1"))
	seed(t, m, automaticSetting("s-p1", "op1", strPtr("p1"), false), fixedRule("r-p1", commission.SaleNI, "30", "3"))
	seed(t, m, automaticSetting("s-p2", "op1", strPtr("p2"), false), fixedRule("r-p2", commission.SaleNI, "99", "9"))

	require.NoError(t, m.CreateSale(ctx, sale("a", "op1", "p1", commission.SaleNI, "")))
	require.NoError(t, m.CreateSale(ctx, sale("b", "op1", "p3", commission.SaleNI, "")))

	report, err := newRecalculator(m).RecalculateAll(ctx, commission.RecalcOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, report.Updated)

	a, _ := m.GetSale(ctx, "a")
	b, _ := m.GetSale(ctx, "b")
	assertMoney(t, "30", a.CommissionSeller)
	assertMoney(t, "10", b.CommissionSeller)
}

func TestRecalculateAll_ManualOnlyOperatorNotSelected(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	manual := automaticSetting("s1", "op1", nil, false)
	manual.CommissionType = commission.CommissionManual
	seed(t, m, manual)
	require.NoError(t, m.CreateSale(ctx, sale("a", "op1", "p1", commission.SaleNI, "10")))

	report, err := newRecalculator(m).RecalculateAll(ctx, commission.RecalcOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Total)
	assert.Equal(t, "no sales to recalculate", report.Summary())
}

func TestRecalculateAll_WorkersKeepSelectionOrder(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	seed(t, m, automaticSetting("s1", "op1", nil, false), fixedRule("r", commission.SaleNI, "5", "1"))

	ids := []string{"s01", "s02", "s03", "s04", "s05", "s06", "s07", "s08", "s09", "s10"}
	for _, id := range ids {
		require.NoError(t, m.CreateSale(ctx, sale(id, "op1", "p1", commission.SaleNI, "")))
	}

	report, err := newRecalculator(m).RecalculateAll(ctx, commission.RecalcOptions{Workers: 4, SaleTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, len(ids), report.Updated)
	for i, d := range report.Details {
		assert.Equal(t, ids[i], d.SaleID)
	}
}

// =============================================================================
// FAILURES & CANCELLATION
// =============================================================================

func TestRecalculateAll_UpdateErrorDoesNotAbort(t *testing.T) {
	ctrl := gomock.NewController(t)
	sales := mocks.NewMockSaleStore(ctrl)
	m := store.NewMemory()
	seed(t, m, automaticSetting("s1", "op1", nil, false), fixedRule("r", commission.SaleNI, "5", "1"))

	setting, err := m.GetSetting(context.Background(), "s1")
	require.NoError(t, err)

	sales.EXPECT().ListZeroCommissionSales(gomock.Any()).Return([]commission.Sale{
		sale("a", "op1", "p1", commission.SaleNI, ""),
		sale("b", "op1", "p1", commission.SaleNI, ""),
	}, nil)
	sales.EXPECT().ListAutomaticSettings(gomock.Any()).Return([]commission.Setting{*setting}, nil)
	sales.EXPECT().UpdateCommissions(gomock.Any(), "a", gomock.Any()).Return(errors.New("row locked"))
	sales.EXPECT().UpdateCommissions(gomock.Any(), "b", gomock.Any()).Return(nil)

	r := commission.NewRecalculator(sales, nil, commission.NewResolver(m, nil), commission.NewCalculator(m), zerolog.Nop(), nil)
	report, err := r.RecalculateAll(context.Background(), commission.RecalcOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, commission.SaleError, report.Details[0].Result)
	assert.Contains(t, report.Details[0].Reason, "row locked")
}

func TestRecalculateAll_SelectionErrorFailsRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	sales := mocks.NewMockSaleStore(ctrl)
	runs := store.NewMemory()

	boom := errors.New("db down")
	sales.EXPECT().ListZeroCommissionSales(gomock.Any()).Return(nil, boom)

	r := commission.NewRecalculator(sales, runs, commission.NewResolver(runs, nil), commission.NewCalculator(runs), zerolog.Nop(), nil)
	_, err := r.RecalculateAll(context.Background(), commission.RecalcOptions{Trigger: "schedule"})
	assert.ErrorIs(t, err, boom)

	history, err := runs.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, commission.RunFailed, history[0].Status)
	assert.Equal(t, "schedule", history[0].Trigger)
	assert.NotNil(t, history[0].CompletedAt)
}

func TestRecalculateAll_CanceledBeforeStart(t *testing.T) {
	m := recalcFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := newRecalculator(m).RecalculateAll(ctx, commission.RecalcOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 0, report.Processed)

	history, err := m.ListRuns(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, commission.RunCanceled, history[0].Status)
}

func TestRecalculateAll_RecordsCompletedRun(t *testing.T) {
	m := recalcFixture(t)
	report, err := newRecalculator(m).RecalculateAll(context.Background(), commission.RecalcOptions{Trigger: "api"})
	require.NoError(t, err)

	history, err := m.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	run := history[0]
	assert.Equal(t, report.RunID, run.ID)
	assert.Equal(t, commission.RunCompleted, run.Status)
	assert.Equal(t, 1, run.Updated)
	assert.Equal(t, 1, run.Skipped)
}

func TestRecalculateAll_SingleRunAtATime(t *testing.T) {
	ctrl := gomock.NewController(t)
	sales := mocks.NewMockSaleStore(ctrl)
	m := store.NewMemory()

	entered := make(chan struct{})
	release := make(chan struct{})
	sales.EXPECT().ListZeroCommissionSales(gomock.Any()).DoAndReturn(func(context.Context) ([]commission.Sale, error) {
		close(entered)
		<-release
		return nil, nil
	})
	sales.EXPECT().ListAutomaticSettings(gomock.Any()).Return(nil, nil)

	r := commission.NewRecalculator(sales, nil, commission.NewResolver(m, nil), commission.NewCalculator(m), zerolog.Nop(), nil)

	done := make(chan error, 1)
	go func() {
		_, err := r.RecalculateAll(context.Background(), commission.RecalcOptions{})
		done <- err
	}()

	<-entered
	assert.True(t, r.Running())
	_, err := r.RecalculateAll(context.Background(), commission.RecalcOptions{})
	assert.ErrorIs(t, err, commission.ErrRunInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, r.Running())
}
