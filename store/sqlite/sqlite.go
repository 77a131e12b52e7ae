/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements every persistence contract of the service using SQLite, the
  default driver for single-node deployments and local development.

INTERFACES IMPLEMENTED:
  commission.Repository: settings, rules, power brackets, sales, runs
  alerts.Source:         loyalty sales, open leads, staff, preferences
  alerts.DeliveryLog:    push_notification_log (dedup per user/type/ref/day)
  alerts.Queue:          notification_outbox, one row per push subscription

KEY TABLES:
  commission_settings:     (operator, partner|NULL) scopes
  commission_rules:        flattened rules, pricing kind + both pricing pairs
  commission_power_values: per-power brackets, cascade with their rule
  sales:                   the commission-bearing subset of a sale
  recalculation_runs:      batch history
  users, push_subscriptions, push_notification_preferences, leads,
  push_notification_log, notification_outbox: alert sweep

MONEY:
  Decimal columns are TEXT. SQLite's NUMERIC affinity would coerce values
  to REAL and lose the exact representation.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite allows a single writer; the
  PostgreSQL store relies on database-level concurrency instead.

USAGE:
  store, err := sqlite.New("./data/commissions.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - commission/store.go: Commission store contracts
  - alerts/alerts.go: Alert sweep contracts
  - store/postgres/postgres.go: PostgreSQL implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hugoalbmartins/Leiritrix-sub000/alerts"
	"github.com/hugoalbmartins/Leiritrix-sub000/commission"
	"github.com/hugoalbmartins/Leiritrix-sub000/store/internal/sqlrow"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ commission.Repository = (*Store)(nil)
	_ alerts.Source         = (*Store)(nil)
	_ alerts.DeliveryLog    = (*Store)(nil)
	_ alerts.Queue          = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection, for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS commission_settings (
		id TEXT PRIMARY KEY,
		operator_id TEXT NOT NULL,
		partner_id TEXT,
		commission_type TEXT NOT NULL,
		nif_differentiation BOOLEAN NOT NULL DEFAULT 0,
		allowed_sale_types TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	-- One operator-wide and one per-partner setting per operator
	CREATE UNIQUE INDEX IF NOT EXISTS idx_settings_scope
		ON commission_settings(operator_id, COALESCE(partner_id, ''));

	CREATE TABLE IF NOT EXISTS commission_rules (
		id TEXT PRIMARY KEY,
		setting_id TEXT NOT NULL REFERENCES commission_settings(id) ON DELETE CASCADE,
		position INTEGER NOT NULL DEFAULT 0,
		sale_type TEXT NOT NULL,
		nif_type TEXT NOT NULL DEFAULT 'all',
		depends_on_loyalty BOOLEAN NOT NULL DEFAULT 0,
		loyalty_months INTEGER,
		client_category_id TEXT,
		client_type_filter TEXT NOT NULL DEFAULT 'all',
		portfolio_filter TEXT NOT NULL DEFAULT 'all',
		applies_to_seller BOOLEAN NOT NULL DEFAULT 1,
		applies_to_partner BOOLEAN NOT NULL DEFAULT 1,
		pricing_kind TEXT NOT NULL,
		calculation_method TEXT NOT NULL DEFAULT '',
		seller_fixed_value TEXT NOT NULL DEFAULT '0',
		partner_fixed_value TEXT NOT NULL DEFAULT '0',
		seller_monthly_multiplier TEXT NOT NULL DEFAULT '0',
		partner_monthly_multiplier TEXT NOT NULL DEFAULT '0'
	);

	CREATE INDEX IF NOT EXISTS idx_rules_setting
		ON commission_rules(setting_id, sale_type);

	CREATE TABLE IF NOT EXISTS commission_power_values (
		rule_id TEXT NOT NULL REFERENCES commission_rules(id) ON DELETE CASCADE,
		power_value TEXT NOT NULL,
		seller_commission TEXT NOT NULL DEFAULT '0',
		partner_commission TEXT NOT NULL DEFAULT '0',
		PRIMARY KEY (rule_id, power_value)
	);

	CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		operator_id TEXT NOT NULL DEFAULT '',
		partner_id TEXT NOT NULL DEFAULT '',
		sale_type TEXT NOT NULL DEFAULT '',
		client_name TEXT NOT NULL DEFAULT '',
		client_nif TEXT NOT NULL DEFAULT '',
		client_category_id TEXT,
		client_type TEXT NOT NULL DEFAULT '',
		portfolio_status TEXT NOT NULL DEFAULT '',
		loyalty_months INTEGER NOT NULL DEFAULT 0,
		potencia TEXT NOT NULL DEFAULT '',
		contract_value TEXT,
		previous_monthly_value TEXT,
		new_monthly_value TEXT,
		commission_seller TEXT NOT NULL DEFAULT '0',
		commission_partner TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL DEFAULT '',
		seller_id TEXT NOT NULL DEFAULT '',
		sale_date TIMESTAMP NOT NULL,
		active_date TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sales_loyalty
		ON sales(status, loyalty_months);

	CREATE TABLE IF NOT EXISTS recalculation_runs (
		id TEXT PRIMARY KEY,
		trigger TEXT NOT NULL,
		status TEXT NOT NULL,
		total INTEGER NOT NULL DEFAULT 0,
		processed INTEGER NOT NULL DEFAULT 0,
		updated INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		errors INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started
		ON recalculation_runs(started_at);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS push_subscriptions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		endpoint TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS push_notification_preferences (
		user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		sales_alerts BOOLEAN NOT NULL DEFAULT 1,
		loyalty_alerts BOOLEAN NOT NULL DEFAULT 1,
		lead_alerts BOOLEAN NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS leads (
		id TEXT PRIMARY KEY,
		client_name TEXT NOT NULL DEFAULT '',
		assigned_to TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		priority TEXT NOT NULL DEFAULT '',
		next_contact_date TIMESTAMP
	);

	-- CRITICAL: one delivery per user, type, reference and calendar day
	CREATE TABLE IF NOT EXISTS push_notification_log (
		user_id TEXT NOT NULL,
		notification_type TEXT NOT NULL,
		reference_id TEXT NOT NULL,
		sent_date TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, notification_type, reference_id, sent_date)
	);

	CREATE TABLE IF NOT EXISTS notification_outbox (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		subscription_id TEXT NOT NULL,
		notification_type TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		delivered_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_outbox_pending
		ON notification_outbox(delivered_at, id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SETTINGS
// =============================================================================

const settingColumns = `id, operator_id, partner_id, commission_type, nif_differentiation,
	allowed_sale_types, created_at, updated_at`

// GetSettings returns the operator's settings, partner-scoped first.
func (s *Store) GetSettings(ctx context.Context, operatorID, partnerID string) ([]commission.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.querySettings(ctx, `
		SELECT `+settingColumns+` FROM commission_settings
		WHERE operator_id = ? AND (? = '' OR partner_id IS NULL OR partner_id = ?)
		ORDER BY partner_id IS NULL, id`,
		operatorID, partnerID, partnerID,
	)
}

func (s *Store) GetSetting(ctx context.Context, id string) (*commission.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings, err := s.querySettings(ctx, "SELECT "+settingColumns+" FROM commission_settings WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(settings) == 0 {
		return nil, commission.ErrSettingNotFound
	}
	return &settings[0], nil
}

// ListSettings returns every setting grouped by operator.
func (s *Store) ListSettings(ctx context.Context) ([]commission.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.querySettings(ctx,
		"SELECT "+settingColumns+" FROM commission_settings ORDER BY operator_id, partner_id IS NULL, id",
	)
}

func (s *Store) ListAutomaticSettings(ctx context.Context) ([]commission.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.querySettings(ctx,
		"SELECT "+settingColumns+" FROM commission_settings WHERE commission_type = ? ORDER BY id",
		string(commission.CommissionAutomatic),
	)
}

// SaveSetting inserts or updates a setting. created_at is kept on update.
func (s *Store) SaveSetting(ctx context.Context, setting commission.Setting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return saveSetting(ctx, s.db, setting)
}

// SaveSettingWithRules upserts a setting and replaces its rules in one
// transaction.
func (s *Store) SaveSettingWithRules(ctx context.Context, setting commission.Setting, rules []commission.Rule, brackets []commission.PowerBracket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := saveSetting(ctx, tx, setting); err != nil {
			return err
		}
		return replaceRules(ctx, tx, setting.ID, rules, brackets)
	})
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveSetting(ctx context.Context, db execer, setting commission.Setting) error {
	allowed, err := json.Marshal(saleTypeStrings(setting.AllowedSaleTypes))
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	createdAt := setting.CreatedAt.UTC()
	if setting.CreatedAt.IsZero() {
		createdAt = now
	}

	query := `
		INSERT INTO commission_settings (` + settingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			operator_id = excluded.operator_id,
			partner_id = excluded.partner_id,
			commission_type = excluded.commission_type,
			nif_differentiation = excluded.nif_differentiation,
			allowed_sale_types = excluded.allowed_sale_types,
			updated_at = excluded.updated_at
	`
	_, err = db.ExecContext(ctx, query,
		setting.ID, setting.OperatorID, setting.PartnerID, string(setting.CommissionType),
		setting.NifDifferentiation, string(allowed), createdAt, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return errDuplicateScope
		}
		return fmt.Errorf("failed to save setting: %w", err)
	}
	return nil
}

// DeleteSetting removes a setting; rules and brackets cascade.
func (s *Store) DeleteSetting(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM commission_settings WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete setting: %w", err)
	}
	return requireAffected(res, commission.ErrSettingNotFound)
}

func (s *Store) querySettings(ctx context.Context, query string, args ...any) ([]commission.Setting, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settings []commission.Setting
	for rows.Next() {
		var st commission.Setting
		var allowed string
		if err := rows.Scan(&st.ID, &st.OperatorID, &st.PartnerID, &st.CommissionType,
			&st.NifDifferentiation, &allowed, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, err
		}
		var types []string
		if err := json.Unmarshal([]byte(allowed), &types); err != nil {
			return nil, fmt.Errorf("setting %s: allowed_sale_types: %w", st.ID, err)
		}
		for _, t := range types {
			st.AllowedSaleTypes = append(st.AllowedSaleTypes, commission.SaleType(t))
		}
		settings = append(settings, st)
	}
	return settings, rows.Err()
}

// =============================================================================
// RULES & POWER BRACKETS
// =============================================================================

func (s *Store) GetRules(ctx context.Context, settingID string) ([]commission.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sqlrow.RuleColumns+" FROM commission_rules WHERE setting_id = ? ORDER BY position, id",
		settingID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []commission.Rule
	for rows.Next() {
		var row sqlrow.Rule
		if err := rows.Scan(row.Dest()...); err != nil {
			return nil, err
		}
		rule, err := row.Rule()
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// ReplaceRules swaps the whole rule set of a setting in one transaction.
func (s *Store) ReplaceRules(ctx context.Context, settingID string, rules []commission.Rule, brackets []commission.PowerBracket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		return replaceRules(ctx, tx, settingID, rules, brackets)
	})
}

func replaceRules(ctx context.Context, tx *sql.Tx, settingID string, rules []commission.Rule, brackets []commission.PowerBracket) error {
	var exists int
	err := tx.QueryRowContext(ctx, "SELECT 1 FROM commission_settings WHERE id = ?", settingID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return commission.ErrSettingNotFound
	}
	if err != nil {
		return err
	}

	// Brackets go with their rules through ON DELETE CASCADE.
	if _, err := tx.ExecContext(ctx, "DELETE FROM commission_rules WHERE setting_id = ?", settingID); err != nil {
		return fmt.Errorf("failed to delete rules: %w", err)
	}

	insertRule := "INSERT INTO commission_rules (" + sqlrow.RuleColumns + ") VALUES (" + sqlrow.Question(sqlrow.RuleColumnCount) + ")"
	for _, r := range rules {
		r.SettingID = settingID
		row, err := sqlrow.FromRule(r)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insertRule, row.Args()...); err != nil {
			if isUniqueConstraintError(err) {
				return &commission.ValidationError{Field: "rules", Message: "rule id " + r.ID + " is already in use"}
			}
			return fmt.Errorf("failed to insert rule %s: %w", r.ID, err)
		}
	}

	for _, b := range brackets {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO commission_power_values (rule_id, power_value, seller_commission, partner_commission)
			VALUES (?, ?, ?, ?)`,
			b.RuleID, b.Power, b.Seller, b.Partner,
		)
		if err != nil {
			if isUniqueConstraintError(err) {
				return &commission.ValidationError{Field: "power_values", Message: "power value " + b.Power + " is listed more than once"}
			}
			return fmt.Errorf("failed to insert power value %s/%s: %w", b.RuleID, b.Power, err)
		}
	}
	return nil
}

// inTx runs fn in a transaction, committing only when fn succeeds.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) PowerBracket(ctx context.Context, ruleID, power string) (*commission.PowerBracket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	brackets, err := s.queryBrackets(ctx, `
		SELECT rule_id, power_value, seller_commission, partner_commission
		FROM commission_power_values WHERE rule_id = ? AND power_value = ?`,
		ruleID, power,
	)
	if err != nil || len(brackets) == 0 {
		return nil, err
	}
	return &brackets[0], nil
}

func (s *Store) PowerBrackets(ctx context.Context, ruleID string) ([]commission.PowerBracket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryBrackets(ctx, `
		SELECT rule_id, power_value, seller_commission, partner_commission
		FROM commission_power_values WHERE rule_id = ? ORDER BY rowid`,
		ruleID,
	)
}

func (s *Store) queryBrackets(ctx context.Context, query string, args ...any) ([]commission.PowerBracket, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var brackets []commission.PowerBracket
	for rows.Next() {
		var b commission.PowerBracket
		if err := rows.Scan(&b.RuleID, &b.Power, &b.Seller, &b.Partner); err != nil {
			return nil, err
		}
		brackets = append(brackets, b)
	}
	return brackets, rows.Err()
}

// =============================================================================
// SALES
// =============================================================================

func (s *Store) CreateSale(ctx context.Context, sale commission.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = now
	}
	sale.UpdatedAt = now
	if sale.SaleDate.IsZero() {
		sale.SaleDate = now
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sales ("+sqlrow.SaleColumns+") VALUES ("+sqlrow.Question(sqlrow.SaleColumnCount)+")",
		sqlrow.SaleArgs(sale)...,
	)
	if err != nil {
		return fmt.Errorf("failed to create sale: %w", err)
	}
	return nil
}

func (s *Store) GetSale(ctx context.Context, id string) (*commission.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales, err := s.querySales(ctx, "SELECT "+sqlrow.SaleColumns+" FROM sales WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		return nil, commission.ErrSaleNotFound
	}
	return &sales[0], nil
}

// ListZeroCommissionSales returns recalculation candidates ordered by ID.
func (s *Store) ListZeroCommissionSales(ctx context.Context) ([]commission.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.querySales(ctx, `
		SELECT `+sqlrow.SaleColumns+` FROM sales
		WHERE CAST(commission_seller AS REAL) = 0
		  AND CAST(commission_partner AS REAL) = 0
		  AND sale_type != '' AND operator_id != '' AND partner_id != ''
		ORDER BY id`,
	)
}

func (s *Store) UpdateCommissions(ctx context.Context, saleID string, c commission.Commission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE sales SET commission_seller = ?, commission_partner = ?, updated_at = ? WHERE id = ?",
		c.Seller, c.Partner, time.Now().UTC(), saleID,
	)
	if err != nil {
		return fmt.Errorf("failed to update commissions: %w", err)
	}
	return requireAffected(res, commission.ErrSaleNotFound)
}

func (s *Store) querySales(ctx context.Context, query string, args ...any) ([]commission.Sale, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []commission.Sale
	for rows.Next() {
		var sale commission.Sale
		if err := rows.Scan(sqlrow.SaleDest(&sale)...); err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

// =============================================================================
// RECALCULATION RUNS
// =============================================================================

// SaveRun inserts or updates a run record.
func (s *Store) SaveRun(ctx context.Context, r commission.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO recalculation_runs (id, trigger, status, total, processed, updated,
			skipped, errors, error, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			total = excluded.total,
			processed = excluded.processed,
			updated = excluded.updated,
			skipped = excluded.skipped,
			errors = excluded.errors,
			error = excluded.error,
			completed_at = excluded.completed_at
	`

	var completedAt *time.Time
	if r.CompletedAt != nil {
		t := r.CompletedAt.UTC()
		completedAt = &t
	}

	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.Trigger, string(r.Status), r.Total, r.Processed, r.Updated,
		r.Skipped, r.Errors, r.Error, r.StartedAt.UTC(), completedAt,
	)
	return err
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]commission.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, trigger, status, total, processed, updated, skipped, errors, error,
			started_at, completed_at
		FROM recalculation_runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []commission.Run
	for rows.Next() {
		var r commission.Run
		if err := rows.Scan(&r.ID, &r.Trigger, &r.Status, &r.Total, &r.Processed, &r.Updated,
			&r.Skipped, &r.Errors, &r.Error, &r.StartedAt, &r.CompletedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func saleTypeStrings(types []commission.SaleType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

func inClause(values []string) (string, []any) {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return "(" + sqlrow.Question(len(values)) + ")", args
}

var errDuplicateScope = &commission.ValidationError{
	Field:   "partner_id",
	Message: "a setting already exists for this operator and partner",
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
