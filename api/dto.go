/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Domain types in
  commission/ carry no JSON tags; these types are the external contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Amounts are decimal.Decimal. They decode from JSON numbers or strings
  and encode as strings ("59.85") so no client sees float rounding.

TYPES:
  Resolution:   ResolveRequest, ResolutionDTO
  Calculation:  CalculateRequest, CommissionDTO
  Quote:        QuoteRequest, QuoteDTO
  Sales:        CreateSaleRequest, SaleDTO, AssignCommissionRequest
  Runs:         ReportDTO, SaleOutcomeDTO, RunDTO
  Alerts:       AlertSweepDTO
  Scenarios:    ScenarioDTO, LoadScenarioRequest

SEE ALSO:
  - handlers.go: Uses these types
  - factory/setting.go: SettingJSON, the settings payload
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hugoalbmartins/Leiritrix-sub000/alerts"
	"github.com/hugoalbmartins/Leiritrix-sub000/commission"
	"github.com/hugoalbmartins/Leiritrix-sub000/factory"
)

// =============================================================================
// RESOLUTION
// =============================================================================

// ResolveRequest carries the sale attributes used to pick a rule.
type ResolveRequest struct {
	OperatorID       string  `json:"operator_id"`
	PartnerID        string  `json:"partner_id"`
	SaleType         string  `json:"sale_type"`
	ClientNIF        string  `json:"client_nif"`
	LoyaltyMonths    int     `json:"loyalty_months"`
	ClientCategoryID *string `json:"client_category_id,omitempty"`
	ClientType       string  `json:"client_type,omitempty"`
	PortfolioStatus  string  `json:"portfolio_status,omitempty"`
}

// Query converts the request into a resolver query.
func (r ResolveRequest) Query() commission.Query {
	return commission.Query{
		OperatorID:       r.OperatorID,
		PartnerID:        r.PartnerID,
		SaleType:         commission.SaleType(r.SaleType),
		ClientNIF:        r.ClientNIF,
		LoyaltyMonths:    r.LoyaltyMonths,
		ClientCategoryID: r.ClientCategoryID,
		ClientType:       commission.ClientType(r.ClientType),
		PortfolioStatus:  r.PortfolioStatus,
	}
}

// ResolutionDTO reports which setting and rule apply.
type ResolutionDTO struct {
	Outcome        string            `json:"outcome"` // matched, manual, no_rule
	Reason         string            `json:"reason,omitempty"`
	SettingID      string            `json:"setting_id,omitempty"`
	CommissionType string            `json:"commission_type,omitempty"`
	NifType        string            `json:"nif_type"`
	Fallback       bool              `json:"fallback"`
	Rule           *factory.RuleJSON `json:"rule,omitempty"`
}

func toResolutionDTO(res commission.Resolution) ResolutionDTO {
	dto := ResolutionDTO{
		Outcome:  string(res.Outcome),
		Reason:   string(res.Reason),
		NifType:  string(res.NifType),
		Fallback: res.Fallback,
	}
	if res.Setting != nil {
		dto.SettingID = res.Setting.ID
		dto.CommissionType = string(res.Setting.CommissionType)
		if res.Rule != nil {
			rendered := factory.ToJSON(*res.Setting, []commission.Rule{*res.Rule}, nil)
			dto.Rule = &rendered.Rules[0]
		}
	}
	return dto
}

// =============================================================================
// CALCULATION
// =============================================================================

// SaleValues are the numeric inputs of a calculation. Missing values are zero.
type SaleValues struct {
	MonthlyValue         decimal.Decimal `json:"monthly_value"`
	PreviousMonthlyValue decimal.Decimal `json:"previous_monthly_value"`
	NewMonthlyValue      decimal.Decimal `json:"new_monthly_value"`
	Potencia             string          `json:"potencia"`
	Quantity             int             `json:"quantity"`
}

func (v SaleValues) input(saleType commission.SaleType) commission.Input {
	return commission.Input{
		SaleType:             saleType,
		MonthlyValue:         v.MonthlyValue,
		PreviousMonthlyValue: v.PreviousMonthlyValue,
		NewMonthlyValue:      v.NewMonthlyValue,
		Potencia:             v.Potencia,
		Quantity:             v.Quantity,
	}
}

// CalculateRequest applies one stored rule to the given values.
type CalculateRequest struct {
	SettingID string `json:"setting_id"`
	RuleID    string `json:"rule_id"`
	SaleType  string `json:"sale_type"` // defaults to the rule's sale type
	SaleValues
}

// CommissionDTO is a seller/partner amount pair.
type CommissionDTO struct {
	Seller  decimal.Decimal `json:"seller"`
	Partner decimal.Decimal `json:"partner"`
}

func toCommissionDTO(c commission.Commission) CommissionDTO {
	return CommissionDTO{Seller: c.Seller, Partner: c.Partner}
}

func (c CommissionDTO) commission() commission.Commission {
	return commission.NewCommission(c.Seller, c.Partner)
}

// =============================================================================
// QUOTE
// =============================================================================

// QuoteRequest resolves and calculates in one call.
type QuoteRequest struct {
	ResolveRequest
	SaleValues
	Override *CommissionDTO `json:"override,omitempty"`
}

// QuoteDTO is the interactive commission result.
type QuoteDTO struct {
	Status     string        `json:"status"`
	Commission CommissionDTO `json:"commission"`
	Warnings   []string      `json:"warnings"`
	Resolution ResolutionDTO `json:"resolution"`
}

func toQuoteDTO(q commission.Quote) QuoteDTO {
	warnings := q.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return QuoteDTO{
		Status:     string(q.Status),
		Commission: toCommissionDTO(q.Commission),
		Warnings:   warnings,
		Resolution: toResolutionDTO(q.Resolution),
	}
}

// =============================================================================
// SALES
// =============================================================================

// CreateSaleRequest records a sale; its commissions come from a quote.
type CreateSaleRequest struct {
	ID                   string              `json:"id,omitempty"`
	OperatorID           string              `json:"operator_id"`
	PartnerID            string              `json:"partner_id"`
	SaleType             string              `json:"sale_type"`
	ClientName           string              `json:"client_name"`
	ClientNIF            string              `json:"client_nif"`
	ClientCategoryID     *string             `json:"client_category_id,omitempty"`
	ClientType           string              `json:"client_type,omitempty"`
	PortfolioStatus      string              `json:"portfolio_status,omitempty"`
	LoyaltyMonths        int                 `json:"loyalty_months"`
	Potencia             string              `json:"potencia,omitempty"`
	ContractValue        decimal.NullDecimal `json:"contract_value"`
	PreviousMonthlyValue decimal.NullDecimal `json:"previous_monthly_value"`
	NewMonthlyValue      decimal.NullDecimal `json:"new_monthly_value"`
	Quantity             int                 `json:"quantity,omitempty"`
	Status               string              `json:"status,omitempty"`
	SaleDate             *time.Time          `json:"sale_date,omitempty"`
	ActiveDate           *time.Time          `json:"active_date,omitempty"`
	Override             *CommissionDTO      `json:"override,omitempty"`
}

func (r CreateSaleRequest) sale() commission.Sale {
	s := commission.Sale{
		ID:                   r.ID,
		OperatorID:           r.OperatorID,
		PartnerID:            r.PartnerID,
		SaleType:             commission.SaleType(r.SaleType),
		ClientName:           r.ClientName,
		ClientNIF:            r.ClientNIF,
		ClientCategoryID:     r.ClientCategoryID,
		ClientType:           commission.ClientType(r.ClientType),
		PortfolioStatus:      r.PortfolioStatus,
		LoyaltyMonths:        r.LoyaltyMonths,
		Potencia:             r.Potencia,
		ContractValue:        r.ContractValue,
		PreviousMonthlyValue: r.PreviousMonthlyValue,
		NewMonthlyValue:      r.NewMonthlyValue,
		CommissionSeller:     decimal.Zero,
		CommissionPartner:    decimal.Zero,
		Status:               r.Status,
		ActiveDate:           r.ActiveDate,
	}
	if r.SaleDate != nil {
		s.SaleDate = *r.SaleDate
	}
	if s.Status == "" {
		s.Status = "pendente"
	}
	return s
}

// SaleDTO represents a stored sale.
type SaleDTO struct {
	ID                string          `json:"id"`
	OperatorID        string          `json:"operator_id"`
	PartnerID         string          `json:"partner_id"`
	SaleType          string          `json:"sale_type"`
	ClientName        string          `json:"client_name"`
	ClientNIF         string          `json:"client_nif"`
	LoyaltyMonths     int             `json:"loyalty_months"`
	Status            string          `json:"status"`
	SellerID          string          `json:"seller_id"`
	CommissionSeller  decimal.Decimal `json:"commission_seller"`
	CommissionPartner decimal.Decimal `json:"commission_partner"`
	SaleDate          string          `json:"sale_date"`
}

func toSaleDTO(s commission.Sale) SaleDTO {
	return SaleDTO{
		ID:                s.ID,
		OperatorID:        s.OperatorID,
		PartnerID:         s.PartnerID,
		SaleType:          string(s.SaleType),
		ClientName:        s.ClientName,
		ClientNIF:         s.ClientNIF,
		LoyaltyMonths:     s.LoyaltyMonths,
		Status:            s.Status,
		SellerID:          s.SellerID,
		CommissionSeller:  s.CommissionSeller,
		CommissionPartner: s.CommissionPartner,
		SaleDate:          s.SaleDate.Format(time.DateOnly),
	}
}

// CreateSaleResponse pairs the stored sale with the quote used for it.
type CreateSaleResponse struct {
	Sale  SaleDTO  `json:"sale"`
	Quote QuoteDTO `json:"quote"`
}

// AssignCommissionRequest sets both commission legs by hand.
type AssignCommissionRequest struct {
	Seller  decimal.Decimal `json:"seller"`
	Partner decimal.Decimal `json:"partner"`
}

// =============================================================================
// RECALCULATION
// =============================================================================

// SaleOutcomeDTO is one line of the recalculation ledger.
type SaleOutcomeDTO struct {
	SaleID     string         `json:"sale_id"`
	ClientName string         `json:"client_name"`
	Result     string         `json:"result"`
	Reason     string         `json:"reason,omitempty"`
	Commission *CommissionDTO `json:"commission,omitempty"`
}

// ReportDTO is the recalculation summary.
type ReportDTO struct {
	RunID       string           `json:"run_id"`
	Message     string           `json:"message"`
	Total       int              `json:"total"`
	Processed   int              `json:"processed"`
	Updated     int              `json:"updated"`
	Skipped     int              `json:"skipped"`
	Errors      int              `json:"errors"`
	Details     []SaleOutcomeDTO `json:"details"`
	StartedAt   string           `json:"started_at"`
	CompletedAt string           `json:"completed_at"`
}

func toReportDTO(r commission.Report) ReportDTO {
	dto := ReportDTO{
		RunID:       r.RunID,
		Message:     r.Summary(),
		Total:       r.Total,
		Processed:   r.Processed,
		Updated:     r.Updated,
		Skipped:     r.Skipped,
		Errors:      r.Errors,
		Details:     make([]SaleOutcomeDTO, 0, len(r.Details)),
		StartedAt:   r.StartedAt.Format(time.RFC3339),
		CompletedAt: r.CompletedAt.Format(time.RFC3339),
	}
	for _, d := range r.Details {
		line := SaleOutcomeDTO{
			SaleID:     d.SaleID,
			ClientName: d.ClientName,
			Result:     string(d.Result),
			Reason:     d.Reason,
		}
		if d.Commission != nil {
			c := toCommissionDTO(*d.Commission)
			line.Commission = &c
		}
		dto.Details = append(dto.Details, line)
	}
	return dto
}

// RunDTO is a persisted recalculation run.
type RunDTO struct {
	ID          string `json:"id"`
	Trigger     string `json:"trigger"`
	Status      string `json:"status"`
	Total       int    `json:"total"`
	Processed   int    `json:"processed"`
	Updated     int    `json:"updated"`
	Skipped     int    `json:"skipped"`
	Errors      int    `json:"errors"`
	Error       string `json:"error,omitempty"`
	StartedAt   string `json:"started_at"`
	CompletedAt string `json:"completed_at,omitempty"`
}

func toRunDTO(r commission.Run) RunDTO {
	dto := RunDTO{
		ID:        r.ID,
		Trigger:   r.Trigger,
		Status:    string(r.Status),
		Total:     r.Total,
		Processed: r.Processed,
		Updated:   r.Updated,
		Skipped:   r.Skipped,
		Errors:    r.Errors,
		Error:     r.Error,
		StartedAt: r.StartedAt.Format(time.RFC3339),
	}
	if r.CompletedAt != nil {
		dto.CompletedAt = r.CompletedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// ALERTS
// =============================================================================

// AlertSweepDTO reports one alert sweep.
type AlertSweepDTO struct {
	Sent         int `json:"sent"`
	Deduplicated int `json:"deduplicated"`
	OptedOut     int `json:"opted_out"`
	Failed       int `json:"failed"`
}

func toAlertSweepDTO(r alerts.Result) AlertSweepDTO {
	return AlertSweepDTO{Sent: r.Sent, Deduplicated: r.Deduplicated, OptedOut: r.OptedOut, Failed: r.Failed}
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a demo data set.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}
