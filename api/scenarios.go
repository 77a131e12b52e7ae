/*
scenarios.go - Demo scenarios for testing and demonstrations

PURPOSE:

	Loads realistic commission settings and pending sales so the resolver,
	the quote endpoint and the recalculation job can be tried without
	building settings by hand.

AVAILABLE SCENARIOS:

	operator-wide:     One operator, one global rule set across sale types
	nif-split:         Business (5xx) and individual (123xxx) NIF rules
	per-power:         Energy rules priced by contracted power
	partner-override:  Global automatic rules, one partner kept manual

HOW SCENARIOS WORK:
 1. Parse each setting through the factory (same path as POST /api/settings)
 2. Upsert the setting and replace its rules
 3. Create the scenario's sales with zero commissions, unless they exist
 4. POST /api/commissions/recalculate then fills them in

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "nif-split"}

NOTE:

	Loading is idempotent: fixed ids, existing sales are left alone.

SEE ALSO:
  - handlers.go: settings and recalculation endpoints
  - factory/setting.go: settings JSON schema
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hugoalbmartins/Leiritrix-sub000/commission"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ScenarioDTO
	settings []string // factory JSON
	sales    []commission.Sale
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "operator-wide",
			Name:        "Operator-wide rules",
			Description: "MEO with one global setting: NI and Up_sell by monthly multiple, MC fixed, Refid only with 24-month loyalty",
		},
		settings: []string{`{
			"id": "set-meo",
			"operator_id": "op-meo",
			"commission_type": "automatic",
			"allowed_sale_types": ["NI", "MC", "Up_sell", "Refid"],
			"rules": [
				{"id": "rule-meo-ni", "sale_type": "NI", "calculation_method": "monthly_multiple",
				 "seller_monthly_multiplier": 1.5, "partner_monthly_multiplier": 0.5},
				{"id": "rule-meo-mc", "sale_type": "MC", "calculation_method": "fixed_per_quantity",
				 "seller_fixed_value": 25, "partner_fixed_value": 10},
				{"id": "rule-meo-up", "sale_type": "Up_sell", "calculation_method": "monthly_multiple",
				 "seller_monthly_multiplier": 2, "partner_monthly_multiplier": 1},
				{"id": "rule-meo-refid", "sale_type": "Refid", "calculation_method": "fixed_per_quantity",
				 "depends_on_loyalty": true, "loyalty_months": 24,
				 "seller_fixed_value": 15, "partner_fixed_value": 5}
			]
		}`},
		sales: []commission.Sale{
			demoSale("sale-meo-1", "op-meo", "p-lisboa", commission.SaleNI, "Ana Costa", "212345678", "39.90"),
			demoSale("sale-meo-2", "op-meo", "p-lisboa", commission.SaleMC, "Rui Lopes", "223456789", "29.90"),
			upgradeSale("sale-meo-3", "op-meo", "p-lisboa", "Marta Sousa", "30.00", "45.00"),
			withLoyalty(demoSale("sale-meo-4", "op-meo", "p-lisboa", commission.SaleRefid, "Luis Pinto", "234567890", "35.00"), 12),
		},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "nif-split",
			Name:        "NIF differentiation",
			Description: "EDP pays more for business clients (NIF 5xx) than for individuals (NIF 1/2/3xx)",
		},
		settings: []string{`{
			"id": "set-edp",
			"operator_id": "op-edp",
			"commission_type": "automatic",
			"nif_differentiation": true,
			"allowed_sale_types": ["NI"],
			"rules": [
				{"id": "rule-edp-5xx", "sale_type": "NI", "nif_type": "5xx", "calculation_method": "fixed_per_quantity",
				 "seller_fixed_value": 80, "partner_fixed_value": 30},
				{"id": "rule-edp-123", "sale_type": "NI", "nif_type": "123xxx", "calculation_method": "fixed_per_quantity",
				 "seller_fixed_value": 40, "partner_fixed_value": 15}
			]
		}`},
		sales: []commission.Sale{
			demoSale("sale-edp-1", "op-edp", "p-porto", commission.SaleNI, "Padaria Central Lda", "501234567", "55.00"),
			demoSale("sale-edp-2", "op-edp", "p-porto", commission.SaleNI, "Joana Reis", "198765432", "42.00"),
		},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "per-power",
			Name:        "Per-power energy",
			Description: "Endesa NI commissions looked up by contracted power (kVA)",
		},
		settings: []string{`{
			"id": "set-endesa",
			"operator_id": "op-endesa",
			"commission_type": "automatic",
			"allowed_sale_types": ["NI"],
			"rules": [
				{"id": "rule-endesa-ni", "sale_type": "NI", "commission_type": "per_power",
				 "power_values": [
					{"power_value": "3.45", "seller_commission": 20, "partner_commission": 8},
					{"power_value": "6.9", "seller_commission": 35, "partner_commission": 12},
					{"power_value": "10.35", "seller_commission": 45, "partner_commission": 15}
				 ]}
			]
		}`},
		sales: []commission.Sale{
			withPotencia(demoSale("sale-endesa-1", "op-endesa", "p-braga", commission.SaleNI, "Carlos Dias", "245678901", "0"), "6.9"),
			withPotencia(demoSale("sale-endesa-2", "op-endesa", "p-braga", commission.SaleNI, "Sofia Alves", "256789012", "0"), "3.45"),
		},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "partner-override",
			Name:        "Partner override",
			Description: "Vodafone pays by rule everywhere except partner p-porto, whose commissions are entered by hand",
		},
		settings: []string{`{
			"id": "set-vodafone",
			"operator_id": "op-vodafone",
			"commission_type": "automatic",
			"allowed_sale_types": ["NI", "MC"],
			"rules": [
				{"id": "rule-vodafone-ni", "sale_type": "NI", "calculation_method": "monthly_multiple",
				 "seller_monthly_multiplier": 1, "partner_monthly_multiplier": 0.5}
			]
		}`, `{
			"id": "set-vodafone-porto",
			"operator_id": "op-vodafone",
			"partner_id": "p-porto",
			"commission_type": "manual",
			"allowed_sale_types": ["NI", "MC"]
		}`},
		sales: []commission.Sale{
			demoSale("sale-vodafone-1", "op-vodafone", "p-lisboa", commission.SaleNI, "Pedro Matos", "267890123", "40.00"),
			demoSale("sale-vodafone-2", "op-vodafone", "p-porto", commission.SaleNI, "Ines Faria", "278901234", "40.00"),
		},
	},
}

func demoSale(id, operatorID, partnerID string, saleType commission.SaleType, client, nif, monthly string) commission.Sale {
	return commission.Sale{
		ID:                id,
		OperatorID:        operatorID,
		PartnerID:         partnerID,
		SaleType:          saleType,
		ClientName:        client,
		ClientNIF:         nif,
		ContractValue:     decimal.NewNullDecimal(decimal.RequireFromString(monthly)),
		CommissionSeller:  decimal.Zero,
		CommissionPartner: decimal.Zero,
		Status:            "pendente",
		SaleDate:          time.Now().UTC().Truncate(24 * time.Hour),
	}
}

func upgradeSale(id, operatorID, partnerID, client, previous, next string) commission.Sale {
	s := demoSale(id, operatorID, partnerID, commission.SaleUpSell, client, "289012345", "0")
	s.ContractValue = decimal.NullDecimal{}
	s.PreviousMonthlyValue = decimal.NewNullDecimal(decimal.RequireFromString(previous))
	s.NewMonthlyValue = decimal.NewNullDecimal(decimal.RequireFromString(next))
	return s
}

func withLoyalty(s commission.Sale, months int) commission.Sale {
	s.LoyaltyMonths = months
	return s
}

func withPotencia(s commission.Sale, potencia string) commission.Sale {
	s.Potencia = potencia
	return s
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns all available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the last loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s.ScenarioDTO)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decode(w, r, &req) {
		return
	}

	sc, ok := findScenario(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}
	if err := h.loadScenario(r.Context(), sc); err != nil {
		h.writeDomainError(w, fmt.Sprintf("Failed to load scenario %s", sc.ID), err)
		return
	}

	h.mu.Lock()
	h.currentScenario = sc.ID
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "loaded",
		"scenario": sc.ScenarioDTO,
		"settings": len(sc.settings),
		"sales":    len(sc.sales),
	})
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

func (h *Handler) loadScenario(ctx context.Context, sc scenario) error {
	for _, raw := range sc.settings {
		parsed, err := h.Settings.ParseSetting([]byte(raw))
		if err != nil {
			return err
		}
		if err := h.saveParsed(ctx, parsed); err != nil {
			return fmt.Errorf("setting %s: %w", parsed.Setting.ID, err)
		}
	}

	for _, sale := range sc.sales {
		_, err := h.Store.GetSale(ctx, sale.ID)
		if err == nil {
			continue
		}
		if !commission.IsNotFound(err) {
			return err
		}
		if err := h.Store.CreateSale(ctx, sale); err != nil {
			return fmt.Errorf("sale %s: %w", sale.ID, err)
		}
	}

	h.Logger.Info().
		Str("scenario", sc.ID).
		Int("settings", len(sc.settings)).
		Int("sales", len(sc.sales)).
		Msg("scenario loaded")
	return nil
}
