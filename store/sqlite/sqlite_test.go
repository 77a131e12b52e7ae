package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/hugoalbmartins/Leiritrix-sub000/alerts"
	"github.com/hugoalbmartins/Leiritrix-sub000/commission"
)

type StoreSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	store, err := New(":memory:")
	s.Require().NoError(err)
	s.store = store
	s.ctx = context.Background()
}

func (s *StoreSuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

func ptr[T any](v T) *T { return &v }

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func (s *StoreSuite) saveSetting(id, operator string, partner *string, types ...commission.SaleType) {
	s.Require().NoError(s.store.SaveSetting(s.ctx, commission.Setting{
		ID:               id,
		OperatorID:       operator,
		PartnerID:        partner,
		CommissionType:   commission.CommissionAutomatic,
		AllowedSaleTypes: types,
	}))
}

func standardRule(id string, position int) commission.Rule {
	return commission.Rule{
		ID:               id,
		Position:         position,
		SaleType:         commission.SaleNI,
		NifType:          commission.NifAll,
		ClientTypeFilter: commission.FilterAll,
		PortfolioFilter:  commission.FilterAll,
		AppliesToSeller:  true,
		AppliesToPartner: true,
		Pricing: commission.StandardPricing{
			Method:            commission.MethodMonthlyMultiple,
			SellerMultiplier:  dec("1.5"),
			PartnerMultiplier: dec("0.5"),
		},
	}
}

// =============================================================================
// SETTINGS & RULES
// =============================================================================

func (s *StoreSuite) TestGetSettings_PartnerScopedFirst() {
	s.saveSetting("a-global", "op-1", nil)
	s.saveSetting("b-partner", "op-1", ptr("p-1"), commission.SaleNI, commission.SaleMC)
	s.saveSetting("c-other", "op-1", ptr("p-2"))
	s.saveSetting("d-elsewhere", "op-2", nil)

	settings, err := s.store.GetSettings(s.ctx, "op-1", "p-1")
	s.Require().NoError(err)
	s.Require().Len(settings, 2)
	s.Equal("b-partner", settings[0].ID)
	s.Equal("a-global", settings[1].ID)
	s.Equal([]commission.SaleType{commission.SaleNI, commission.SaleMC}, settings[0].AllowedSaleTypes)
	s.Nil(settings[1].PartnerID)

	all, err := s.store.GetSettings(s.ctx, "op-1", "")
	s.Require().NoError(err)
	s.Len(all, 3)
}

func (s *StoreSuite) TestSaveSetting_DuplicateScopeRejected() {
	s.saveSetting("a", "op-1", nil)
	err := s.store.SaveSetting(s.ctx, commission.Setting{ID: "b", OperatorID: "op-1", CommissionType: commission.CommissionManual})
	s.True(commission.IsValidation(err))

	// Updating the same row is not a duplicate.
	err = s.store.SaveSetting(s.ctx, commission.Setting{ID: "a", OperatorID: "op-1", CommissionType: commission.CommissionManual})
	s.Require().NoError(err)
	got, err := s.store.GetSetting(s.ctx, "a")
	s.Require().NoError(err)
	s.Equal(commission.CommissionManual, got.CommissionType)
}

func (s *StoreSuite) TestReplaceRules_RoundTrip() {
	s.saveSetting("set-1", "op-1", nil)

	loyal := standardRule("r-loyal", 1)
	loyal.DependsOnLoyalty = true
	loyal.LoyaltyMonths = ptr(24)
	loyal.ClientCategoryID = ptr("cat-1")

	power := commission.Rule{
		ID:               "r-power",
		Position:         0,
		SaleType:         commission.SaleNI,
		NifType:          commission.Nif5xx,
		ClientTypeFilter: commission.FilterAll,
		PortfolioFilter:  commission.FilterAll,
		AppliesToSeller:  true,
		AppliesToPartner: false,
		Pricing:          commission.PowerPricing{},
	}

	err := s.store.ReplaceRules(s.ctx, "set-1", []commission.Rule{loyal, power}, []commission.PowerBracket{
		{RuleID: "r-power", Power: "6.9", Seller: dec("35.555"), Partner: dec("10")},
	})
	s.Require().NoError(err)

	rules, err := s.store.GetRules(s.ctx, "set-1")
	s.Require().NoError(err)
	s.Require().Len(rules, 2)

	s.Equal("r-power", rules[0].ID, "ordered by position")
	s.Equal(commission.PowerPricing{}, rules[0].Pricing)
	s.Equal(commission.Nif5xx, rules[0].NifType)
	s.False(rules[0].AppliesToPartner)

	got := rules[1]
	s.Equal("set-1", got.SettingID)
	s.True(got.DependsOnLoyalty)
	s.Equal(24, *got.LoyaltyMonths)
	s.Equal("cat-1", *got.ClientCategoryID)
	pricing, ok := got.Pricing.(commission.StandardPricing)
	s.Require().True(ok)
	s.Equal(commission.MethodMonthlyMultiple, pricing.Method)
	s.True(pricing.SellerMultiplier.Equal(dec("1.5")))

	b, err := s.store.PowerBracket(s.ctx, "r-power", "6.9")
	s.Require().NoError(err)
	s.Require().NotNil(b)
	s.True(b.Seller.Equal(dec("35.555")))

	missing, err := s.store.PowerBracket(s.ctx, "r-power", "Outra")
	s.Require().NoError(err)
	s.Nil(missing)
}

func (s *StoreSuite) TestReplaceRules_DropsPreviousSet() {
	s.saveSetting("set-1", "op-1", nil)
	power := standardRule("r-old", 0)
	power.Pricing = commission.PowerPricing{}
	s.Require().NoError(s.store.ReplaceRules(s.ctx, "set-1", []commission.Rule{power},
		[]commission.PowerBracket{{RuleID: "r-old", Power: "3.45", Seller: dec("5"), Partner: dec("1")}}))

	s.Require().NoError(s.store.ReplaceRules(s.ctx, "set-1", []commission.Rule{standardRule("r-new", 0)}, nil))

	rules, err := s.store.GetRules(s.ctx, "set-1")
	s.Require().NoError(err)
	s.Require().Len(rules, 1)
	s.Equal("r-new", rules[0].ID)

	brackets, err := s.store.PowerBrackets(s.ctx, "r-old")
	s.Require().NoError(err)
	s.Empty(brackets)
}

func (s *StoreSuite) TestReplaceRules_UnknownSetting() {
	err := s.store.ReplaceRules(s.ctx, "nope", []commission.Rule{standardRule("r", 0)}, nil)
	s.ErrorIs(err, commission.ErrSettingNotFound)
}

func (s *StoreSuite) TestSaveSettingWithRules() {
	setting := commission.Setting{
		ID: "s-power", OperatorID: "op-1", CommissionType: commission.CommissionAutomatic,
		AllowedSaleTypes: []commission.SaleType{commission.SaleNI},
	}
	rule := standardRule("r-power", 0)
	rule.Pricing = commission.PowerPricing{}
	bracket := commission.PowerBracket{RuleID: "r-power", Power: "6.9", Seller: dec("35"), Partner: dec("12")}

	// A failing bracket insert takes the setting down with it.
	err := s.store.SaveSettingWithRules(s.ctx, setting, []commission.Rule{rule}, []commission.PowerBracket{bracket, bracket})
	s.True(commission.IsValidation(err), "got %v", err)

	_, err = s.store.GetSetting(s.ctx, "s-power")
	s.True(commission.IsNotFound(err))

	s.Require().NoError(s.store.SaveSettingWithRules(s.ctx, setting, []commission.Rule{rule}, []commission.PowerBracket{bracket}))

	rules, err := s.store.GetRules(s.ctx, "s-power")
	s.Require().NoError(err)
	s.Require().Len(rules, 1)
	got, err := s.store.PowerBracket(s.ctx, "r-power", "6.9")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.True(got.Seller.Equal(dec("35")))
}

func (s *StoreSuite) TestDeleteSetting_Cascades() {
	s.saveSetting("set-1", "op-1", nil)
	s.Require().NoError(s.store.ReplaceRules(s.ctx, "set-1", []commission.Rule{standardRule("r-1", 0)}, nil))

	s.Require().NoError(s.store.DeleteSetting(s.ctx, "set-1"))

	rules, err := s.store.GetRules(s.ctx, "set-1")
	s.Require().NoError(err)
	s.Empty(rules)
	s.ErrorIs(s.store.DeleteSetting(s.ctx, "set-1"), commission.ErrSettingNotFound)
	_, err = s.store.GetSetting(s.ctx, "set-1")
	s.True(commission.IsNotFound(err))
}

func (s *StoreSuite) TestResolverReadsStoredRules() {
	s.saveSetting("set-1", "op-1", nil)
	s.Require().NoError(s.store.ReplaceRules(s.ctx, "set-1", []commission.Rule{standardRule("r-1", 0)}, nil))

	res, err := commission.NewResolver(s.store, nil).Resolve(s.ctx, commission.Query{
		OperatorID: "op-1",
		PartnerID:  "p-1",
		SaleType:   commission.SaleNI,
	})
	s.Require().NoError(err)
	s.Equal(commission.OutcomeMatched, res.Outcome)
	s.Equal("r-1", res.Rule.ID)
}

// =============================================================================
// SALES & RUNS
// =============================================================================

func (s *StoreSuite) createSale(id string, seller, partner string) {
	s.Require().NoError(s.store.CreateSale(s.ctx, commission.Sale{
		ID:                id,
		OperatorID:        "op-1",
		PartnerID:         "p-1",
		SaleType:          commission.SaleNI,
		ClientName:        "Cliente " + id,
		ClientNIF:         "501234567",
		ContractValue:     decimal.NewNullDecimal(dec("39.90")),
		CommissionSeller:  dec(seller),
		CommissionPartner: dec(partner),
		SaleDate:          time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
	}))
}

func (s *StoreSuite) TestZeroCommissionSelection() {
	s.createSale("s-2", "0", "0")
	s.createSale("s-1", "0.00", "0")
	s.createSale("s-3", "12.50", "0")
	s.Require().NoError(s.store.CreateSale(s.ctx, commission.Sale{ID: "s-4", OperatorID: "op-1", PartnerID: "p-1"}))

	sales, err := s.store.ListZeroCommissionSales(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(sales, 2)
	s.Equal("s-1", sales[0].ID)
	s.Equal("s-2", sales[1].ID)
	s.True(sales[0].ContractValue.Valid)
	s.True(sales[0].ContractValue.Decimal.Equal(dec("39.9")))
	s.False(sales[0].NewMonthlyValue.Valid)
}

func (s *StoreSuite) TestUpdateCommissions() {
	s.createSale("s-1", "0", "0")

	s.Require().NoError(s.store.UpdateCommissions(s.ctx, "s-1", commission.NewCommission(dec("59.85"), dec("19.95"))))

	sale, err := s.store.GetSale(s.ctx, "s-1")
	s.Require().NoError(err)
	s.True(sale.CommissionSeller.Equal(dec("59.85")))
	s.False(sale.HasZeroCommissions())

	err = s.store.UpdateCommissions(s.ctx, "missing", commission.ZeroCommission)
	s.ErrorIs(err, commission.ErrSaleNotFound)
}

func (s *StoreSuite) TestRuns_NewestFirst() {
	base := time.Date(2025, time.June, 1, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-1", "run-2", "run-3"} {
		s.Require().NoError(s.store.SaveRun(s.ctx, commission.Run{
			ID:        id,
			Trigger:   "schedule",
			Status:    commission.RunRunning,
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	done := base.Add(90 * time.Minute)
	s.Require().NoError(s.store.SaveRun(s.ctx, commission.Run{
		ID: "run-2", Trigger: "schedule", Status: commission.RunCompleted,
		Total: 4, Processed: 4, Updated: 3, Skipped: 1,
		StartedAt: base.Add(time.Hour), CompletedAt: &done,
	}))

	runs, err := s.store.ListRuns(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(runs, 2)
	s.Equal("run-3", runs[0].ID)
	s.Equal("run-2", runs[1].ID)
	s.Equal(commission.RunCompleted, runs[1].Status)
	s.Equal(3, runs[1].Updated)
	s.Require().NotNil(runs[1].CompletedAt)
	s.True(runs[1].CompletedAt.Equal(done))
}

// =============================================================================
// ALERTS
// =============================================================================

func (s *StoreSuite) TestAlertSweepEndToEnd() {
	// GIVEN: an admin and a seller with push subscriptions, a sale whose
	// loyalty ends tomorrow and a new lead
	// WHEN: the sweep runs twice on the same day
	// THEN: outbox rows are written once per subscription

	for _, u := range []User{
		{ID: "admin-1", Role: "admin", Active: true},
		{ID: "bo-off", Role: "backoffice", Active: false},
		{ID: "v-1", Role: "vendedor", Active: true},
	} {
		s.Require().NoError(s.store.SaveUser(s.ctx, u))
	}
	s.Require().NoError(s.store.SaveSubscription(s.ctx, "sub-1", "admin-1", "https://push.example/a"))
	s.Require().NoError(s.store.SaveSubscription(s.ctx, "sub-2", "v-1", "https://push.example/v"))

	s.Require().NoError(s.store.CreateSale(s.ctx, commission.Sale{
		ID:            "sale-1",
		ClientName:    "Ana",
		SellerID:      "v-1",
		Status:        "ativo",
		LoyaltyMonths: 12,
		SaleDate:      time.Date(2024, time.June, 11, 0, 0, 0, 0, time.UTC),
	}))
	s.Require().NoError(s.store.SaveLead(s.ctx, alerts.Lead{ID: "lead-1", ClientName: "Rui", Status: "nova", AssignedTo: "v-1"}))
	s.Require().NoError(s.store.SaveLead(s.ctx, alerts.Lead{ID: "lead-2", ClientName: "Rita", Status: "convertida", AssignedTo: "v-1"}))

	sweeper := alerts.NewSweeper(s.store, s.store, s.store, zerolog.Nop(), nil)
	sweeper.Now = func() time.Time { return time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC) }

	res, err := sweeper.Run(s.ctx)
	s.Require().NoError(err)
	s.Equal(4, res.Sent)

	pending, err := s.store.PendingOutbox(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 4)
	s.Equal("Alerta de Fidelizacao", pending[0].Message.Title)
	s.Equal(alerts.TypeLoyalty, pending[0].Type)

	again, err := sweeper.Run(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, again.Sent)
	s.Equal(4, again.Deduplicated)
}

func (s *StoreSuite) TestPreferencesAndNoSubscription() {
	s.Require().NoError(s.store.SaveUser(s.ctx, User{ID: "admin-1", Role: "admin", Active: true}))
	s.Require().NoError(s.store.SavePreferences(s.ctx, alerts.Preferences{UserID: "admin-1", LoyaltyAlerts: true}))

	prefs, err := s.store.Preferences(s.ctx)
	s.Require().NoError(err)
	s.False(prefs["admin-1"].Allows(alerts.TypeLead))
	s.True(prefs["admin-1"].Allows(alerts.TypeLoyalty))

	n, err := s.store.Enqueue(s.ctx, alerts.Alert{UserID: "admin-1", Type: alerts.TypeLoyalty})
	s.Require().NoError(err)
	s.Zero(n)
}
