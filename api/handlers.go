/*
handlers.go - HTTP API handlers for the commission engine

PURPOSE:
  Exposes rule resolution, calculation, settings administration and the
  batch jobs via REST. Handles HTTP request/response and JSON, and
  delegates everything else to commission/, factory/ and alerts/.

ENDPOINTS:
  Settings:
    GET    /api/settings                 List settings (?operator_id=&partner_id=)
    POST   /api/settings                 Create setting with rules
    GET    /api/settings/{id}            Setting with rules and power values
    PUT    /api/settings/{id}            Update setting, replace rules
    DELETE /api/settings/{id}            Delete setting, rules and power values

  Commissions:
    POST   /api/commissions/resolve      Which rule applies
    POST   /api/commissions/calculate    Apply one stored rule
    POST   /api/commissions/quote        Resolve, apply policy, calculate
    POST   /api/commissions/recalculate  Fill zero-commission sales
    GET    /api/recalculations           Run history

  Sales:
    POST   /api/sales                    Create sale with quoted commissions
    PUT    /api/sales/{id}/commission    Manual commission assignment

  Other:
    GET    /api/config/potencias         Power keys for per-power rules
    POST   /api/alerts/check             Run the alert sweep now

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Setting, rule or sale not found
  - 409: Duplicate id, recalculation already running
  - 503: Alerts not configured
  - 500: Storage failures

  Configuration outcomes (manual setting, no rule) are NOT errors: they
  come back as 200 with outcome/status fields saying so.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hugoalbmartins/Leiritrix-sub000/alerts"
	"github.com/hugoalbmartins/Leiritrix-sub000/commission"
	"github.com/hugoalbmartins/Leiritrix-sub000/factory"
	"github.com/hugoalbmartins/Leiritrix-sub000/metrics"
)

// defaultRunLimit bounds GET /api/recalculations without ?limit.
const defaultRunLimit = 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      commission.Repository
	Settings   *factory.SettingFactory
	Resolver   *commission.Resolver
	Calculator *commission.Calculator
	Quoter     *commission.Quoter
	Recalc     *commission.Recalculator
	Logger     zerolog.Logger

	// Alerts is nil when no alert source is configured.
	Alerts *alerts.Sweeper

	// RecalcOptions are used for API-triggered runs.
	RecalcOptions commission.RecalcOptions

	NewID func() string

	mu              sync.Mutex
	currentScenario string
}

// NewHandler wires the engine over a repository. m may be nil.
func NewHandler(store commission.Repository, logger zerolog.Logger, m *metrics.Metrics) *Handler {
	resolver := commission.NewResolver(store, m)
	calc := commission.NewCalculator(store)
	return &Handler{
		Store:         store,
		Settings:      factory.NewSettingFactory(),
		Resolver:      resolver,
		Calculator:    calc,
		Quoter:        commission.NewQuoter(resolver, calc),
		Recalc:        commission.NewRecalculator(store, store, resolver, calc, logger, m),
		Logger:        logger.With().Str("component", "api").Logger(),
		RecalcOptions: commission.RecalcOptions{Workers: 1},
		NewID:         uuid.NewString,
	}
}

// =============================================================================
// SETTINGS ENDPOINTS
// =============================================================================

// ListSettings returns settings without their rules. With operator_id the
// list is the resolver's view: partner-scoped first, then operator-wide.
func (h *Handler) ListSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	operatorID := r.URL.Query().Get("operator_id")

	var settings []commission.Setting
	var err error
	if operatorID != "" {
		settings, err = h.Store.GetSettings(ctx, operatorID, r.URL.Query().Get("partner_id"))
	} else {
		settings, err = h.Store.ListSettings(ctx)
	}
	if err != nil {
		h.writeDomainError(w, "Failed to list settings", err)
		return
	}

	dtos := make([]factory.SettingJSON, len(settings))
	for i, s := range settings {
		dtos[i] = factory.ToJSON(s, nil, nil)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateSetting validates the wizard payload and stores the setting with
// its rules.
func (h *Handler) CreateSetting(w http.ResponseWriter, r *http.Request) {
	var req factory.SettingJSON
	if !decode(w, r, &req) {
		return
	}
	ctx := r.Context()

	if req.ID != "" {
		if _, err := h.Store.GetSetting(ctx, req.ID); err == nil {
			writeError(w, http.StatusConflict, "Setting already exists", nil)
			return
		} else if !commission.IsNotFound(err) {
			h.writeDomainError(w, "Failed to create setting", err)
			return
		}
	}

	parsed, err := h.Settings.FromJSON(req)
	if err != nil {
		h.writeDomainError(w, "Invalid setting", err)
		return
	}
	if err := h.saveParsed(ctx, parsed); err != nil {
		h.writeDomainError(w, "Failed to create setting", err)
		return
	}
	h.renderSetting(w, r, http.StatusCreated, parsed.Setting.ID)
}

// GetSetting returns one setting with its rules and power values.
func (h *Handler) GetSetting(w http.ResponseWriter, r *http.Request) {
	h.renderSetting(w, r, http.StatusOK, chi.URLParam(r, "id"))
}

// UpdateSetting replaces a setting and its whole rule set.
func (h *Handler) UpdateSetting(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req factory.SettingJSON
	if !decode(w, r, &req) {
		return
	}
	ctx := r.Context()

	existing, err := h.Store.GetSetting(ctx, id)
	if err != nil {
		h.writeDomainError(w, "Failed to update setting", err)
		return
	}
	req.ID = id
	req.CreatedAt = &existing.CreatedAt

	parsed, err := h.Settings.FromJSON(req)
	if err != nil {
		h.writeDomainError(w, "Invalid setting", err)
		return
	}
	if err := h.saveParsed(ctx, parsed); err != nil {
		h.writeDomainError(w, "Failed to update setting", err)
		return
	}
	h.renderSetting(w, r, http.StatusOK, id)
}

// DeleteSetting removes a setting; rules and power values go with it.
func (h *Handler) DeleteSetting(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteSetting(r.Context(), id); err != nil {
		h.writeDomainError(w, "Failed to delete setting", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

func (h *Handler) saveParsed(ctx context.Context, p *factory.Parsed) error {
	return h.Store.SaveSettingWithRules(ctx, p.Setting, p.Rules, p.Brackets)
}

func (h *Handler) renderSetting(w http.ResponseWriter, r *http.Request, status int, id string) {
	ctx := r.Context()
	setting, err := h.Store.GetSetting(ctx, id)
	if err != nil {
		h.writeDomainError(w, "Failed to get setting", err)
		return
	}
	rules, err := h.Store.GetRules(ctx, id)
	if err != nil {
		h.writeDomainError(w, "Failed to get rules", err)
		return
	}

	brackets := make(map[string][]commission.PowerBracket)
	for _, rule := range rules {
		if rule.Pricing.Kind() != commission.PricingPerPower {
			continue
		}
		bs, err := h.Store.PowerBrackets(ctx, rule.ID)
		if err != nil {
			h.writeDomainError(w, "Failed to get power values", err)
			return
		}
		brackets[rule.ID] = bs
	}
	writeJSON(w, status, factory.ToJSON(*setting, rules, brackets))
}

// =============================================================================
// COMMISSION ENDPOINTS
// =============================================================================

// ResolveRule reports which rule, if any, applies to a sale.
func (h *Handler) ResolveRule(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.Resolver.Resolve(r.Context(), req.Query())
	if err != nil {
		h.writeDomainError(w, "Failed to resolve rule", err)
		return
	}
	writeJSON(w, http.StatusOK, toResolutionDTO(res))
}

// CalculateCommission applies one stored rule to the given values. No
// caller policy is applied; see QuoteCommission for that.
func (h *Handler) CalculateCommission(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if !decode(w, r, &req) {
		return
	}
	if req.SettingID == "" || req.RuleID == "" {
		writeError(w, http.StatusBadRequest, "setting_id and rule_id are required", nil)
		return
	}
	ctx := r.Context()

	rules, err := h.Store.GetRules(ctx, req.SettingID)
	if err != nil {
		h.writeDomainError(w, "Failed to get rules", err)
		return
	}
	var rule *commission.Rule
	for i := range rules {
		if rules[i].ID == req.RuleID {
			rule = &rules[i]
			break
		}
	}
	if rule == nil {
		h.writeDomainError(w, "Rule not found", fmt.Errorf("%s/%s: %w", req.SettingID, req.RuleID, commission.ErrRuleNotFound))
		return
	}

	saleType := commission.SaleType(req.SaleType)
	if saleType == "" {
		saleType = rule.SaleType
	}
	if !saleType.Valid() {
		h.writeDomainError(w, "Invalid sale type", &commission.ValidationError{Field: "sale_type", Message: "unknown sale type " + req.SaleType})
		return
	}

	c, err := h.Calculator.Calculate(ctx, *rule, req.SaleValues.input(saleType))
	if err != nil {
		h.writeDomainError(w, "Failed to calculate commission", err)
		return
	}
	writeJSON(w, http.StatusOK, toCommissionDTO(c))
}

// QuoteCommission resolves, applies the upgrade and override policy, and
// calculates. Only admin and backoffice may send an override.
func (h *Handler) QuoteCommission(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if !decode(w, r, &req) {
		return
	}
	query := req.Query()

	quote, err := h.Quoter.Quote(r.Context(), h.quoteRequest(r, query, req.SaleValues.input(query.SaleType), req.Override))
	if err != nil {
		h.writeDomainError(w, "Failed to quote commission", err)
		return
	}
	writeJSON(w, http.StatusOK, toQuoteDTO(quote))
}

func (h *Handler) quoteRequest(r *http.Request, q commission.Query, in commission.Input, override *CommissionDTO) commission.QuoteRequest {
	req := commission.QuoteRequest{Query: q, Input: in}
	if claims := ClaimsFrom(r.Context()); claims != nil {
		req.OverrideAllowed = claims.CanOverride()
	}
	if override != nil {
		c := override.commission()
		req.Override = &c
	}
	return req
}

// Recalculate runs the zero-commission sweep synchronously.
func (h *Handler) Recalculate(w http.ResponseWriter, r *http.Request) {
	opts := h.RecalcOptions
	opts.Trigger = "api"

	report, err := h.Recalc.RecalculateAll(r.Context(), opts)
	if err != nil {
		h.writeDomainError(w, "Failed to recalculate commissions", err)
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(report))
}

// ListRecalculations returns run history, newest first.
func (h *Handler) ListRecalculations(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer", err)
			return
		}
		limit = n
	}

	runs, err := h.Store.ListRuns(r.Context(), limit)
	if err != nil {
		h.writeDomainError(w, "Failed to list recalculations", err)
		return
	}
	dtos := make([]RunDTO, 0, len(runs))
	for _, run := range runs {
		dtos = append(dtos, toRunDTO(run))
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": dtos})
}

// GetPotencias lists the power keys per-power rules are priced by.
func (h *Handler) GetPotencias(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, commission.PowerKeys)
}

// =============================================================================
// SALE ENDPOINTS
// =============================================================================

// CreateSale stores a sale with quoted commissions. Manual and unavailable
// quotes store zero, which leaves the sale for the recalculation job or a
// manual assignment.
func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest
	if !decode(w, r, &req) {
		return
	}
	ctx := r.Context()

	sale := req.sale()
	if sale.ID == "" {
		sale.ID = h.NewID()
	}
	if claims := ClaimsFrom(ctx); claims != nil {
		sale.SellerID = claims.UserID
	}
	if sale.PartnerID == "" {
		h.writeDomainError(w, "Invalid sale", &commission.ValidationError{Field: "partner_id", Message: "is required"})
		return
	}

	in := sale.Input()
	if req.Quantity > 0 {
		in.Quantity = req.Quantity
	}
	quote, err := h.Quoter.Quote(ctx, h.quoteRequest(r, sale.Query(), in, req.Override))
	if err != nil {
		h.writeDomainError(w, "Failed to quote commission", err)
		return
	}
	if quote.Authoritative() {
		sale.CommissionSeller = quote.Commission.Seller
		sale.CommissionPartner = quote.Commission.Partner
	}

	if err := h.Store.CreateSale(ctx, sale); err != nil {
		h.writeDomainError(w, "Failed to create sale", err)
		return
	}
	stored, err := h.Store.GetSale(ctx, sale.ID)
	if err != nil {
		h.writeDomainError(w, "Failed to get sale", err)
		return
	}

	h.Logger.Info().
		Str("sale_id", sale.ID).
		Str("quote_status", string(quote.Status)).
		Msg("sale created")
	writeJSON(w, http.StatusCreated, CreateSaleResponse{Sale: toSaleDTO(*stored), Quote: toQuoteDTO(quote)})
}

// AssignCommission sets a sale's commissions by hand.
func (h *Handler) AssignCommission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req AssignCommissionRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Seller.IsNegative() || req.Partner.IsNegative() {
		h.writeDomainError(w, "Invalid commission", &commission.ValidationError{Field: "commission", Message: "amounts must not be negative"})
		return
	}
	ctx := r.Context()

	if err := h.Store.UpdateCommissions(ctx, id, commission.NewCommission(req.Seller, req.Partner)); err != nil {
		h.writeDomainError(w, "Failed to assign commission", err)
		return
	}
	sale, err := h.Store.GetSale(ctx, id)
	if err != nil {
		h.writeDomainError(w, "Failed to get sale", err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTO(*sale))
}

// =============================================================================
// ALERT ENDPOINTS
// =============================================================================

// CheckAlerts runs the alert sweep now. Safe to repeat: the delivery log
// suppresses anything already sent today.
func (h *Handler) CheckAlerts(w http.ResponseWriter, r *http.Request) {
	if h.Alerts == nil {
		writeError(w, http.StatusServiceUnavailable, "Alerts are not configured", nil)
		return
	}
	result, err := h.Alerts.Run(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to check alerts", err)
		return
	}
	writeJSON(w, http.StatusOK, toAlertSweepDTO(result))
}

// =============================================================================
// HELPERS
// =============================================================================

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine errors to HTTP status codes. Only 5xx
// responses are logged.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case commission.IsValidation(err):
		status = http.StatusBadRequest
	case commission.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, commission.ErrRunInProgress):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		h.Logger.Error().Err(err).Msg(message)
	}
	writeError(w, status, message, err)
}
