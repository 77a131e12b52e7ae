/*
store.go - Persistence contracts consumed by the engine

PURPOSE:
  Defines the interface between the commission logic and the relational
  store. No business logic lives behind these interfaces: implementations
  filter, order and persist, nothing more.

KEY INTERFACES:
  RuleReader:  Settings by operator/partner, rules by setting (resolver input)
  RuleWriter:  Setting upsert, full rule-set replacement, cascade delete
  PowerTable:  Power-bracket lookup for per-power rules
  SaleStore:   Zero-commission selection and commission write-back
  SaleRepository: SaleStore plus create/get for request handlers
  RunStore:    Recalculation run history

ORDERING CONTRACT:
  GetSettings returns partner-scoped settings before the operator-wide one,
  then by ID. GetRules returns rules by Position, then ID. The resolver
  re-sorts anyway; the contract keeps listings stable for the UI.

REPLACEMENT CONTRACT:
  ReplaceRules deletes every rule (and power bracket) of the setting and
  inserts the new set atomically. There is no partial patch.
  SaveSettingWithRules upserts the setting and replaces its rules in the
  same transaction: on failure neither the setting nor its rules change.

IMPLEMENTATIONS:
  - commission/store/memory.go: In-memory for tests and dev
  - store/sqlite/sqlite.go: SQLite (default)
  - store/postgres/postgres.go: PostgreSQL
*/
package commission

//go:generate mockgen -destination=mocks/store_mocks.go -package=mocks github.com/hugoalbmartins/Leiritrix-sub000/commission RuleReader,PowerTable,SaleStore,RunStore

import (
	"context"
	"time"
)

// RuleReader is the read side of the rule repository.
type RuleReader interface {
	// GetSettings returns all settings of the operator. When partnerID is
	// non-empty only settings for that partner or with no partner are
	// returned, partner-scoped first.
	GetSettings(ctx context.Context, operatorID, partnerID string) ([]Setting, error)

	// GetRules returns the rules of a setting ordered by Position.
	GetRules(ctx context.Context, settingID string) ([]Rule, error)
}

// RuleWriter is the write side used by settings administration.
type RuleWriter interface {
	GetSetting(ctx context.Context, id string) (*Setting, error)
	ListSettings(ctx context.Context) ([]Setting, error)
	SaveSetting(ctx context.Context, s Setting) error
	ReplaceRules(ctx context.Context, settingID string, rules []Rule, brackets []PowerBracket) error
	SaveSettingWithRules(ctx context.Context, s Setting, rules []Rule, brackets []PowerBracket) error
	DeleteSetting(ctx context.Context, id string) error
}

// RuleRepository is the full rule repository.
type RuleRepository interface {
	RuleReader
	RuleWriter
}

// PowerTable resolves power-bracket amounts for per-power rules.
type PowerTable interface {
	// PowerBracket returns the bracket for (ruleID, power), or nil when the
	// rule has no row for that power key.
	PowerBracket(ctx context.Context, ruleID, power string) (*PowerBracket, error)

	// PowerBrackets returns every bracket of a rule.
	PowerBrackets(ctx context.Context, ruleID string) ([]PowerBracket, error)
}

// SaleStore is the sale access the recalculation job needs.
type SaleStore interface {
	// ListZeroCommissionSales returns sales with both commissions exactly
	// zero and non-empty sale type, operator and partner, ordered by ID.
	ListZeroCommissionSales(ctx context.Context) ([]Sale, error)

	// ListAutomaticSettings returns every setting with CommissionAutomatic.
	ListAutomaticSettings(ctx context.Context) ([]Setting, error)

	// UpdateCommissions writes both commission legs of a sale.
	UpdateCommissions(ctx context.Context, saleID string, c Commission) error
}

// SaleRepository adds the sale access used by request handlers.
type SaleRepository interface {
	SaleStore
	CreateSale(ctx context.Context, s Sale) error
	GetSale(ctx context.Context, id string) (*Sale, error)
}

// =============================================================================
// RECALCULATION RUNS
// =============================================================================

// RunStatus is the lifecycle state of a recalculation run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCanceled  RunStatus = "canceled"
)

// Run is the persisted record of one recalculation invocation.
type Run struct {
	ID          string
	Trigger     string // "api", "schedule"
	Status      RunStatus
	Total       int
	Processed   int
	Updated     int
	Skipped     int
	Errors      int
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// RunStore persists recalculation runs.
type RunStore interface {
	SaveRun(ctx context.Context, run Run) error
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}

// Repository is everything the service needs from one backing store.
type Repository interface {
	RuleRepository
	PowerTable
	SaleRepository
	RunStore
}
