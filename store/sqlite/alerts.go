package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hugoalbmartins/Leiritrix-sub000/alerts"
)

// =============================================================================
// USERS & SUBSCRIPTIONS
// =============================================================================

// Staff roles receive every alert in addition to the owning user.
var staffRoles = []string{"admin", "backoffice"}

// User is the slice of a user account the alert sweep reads.
type User struct {
	ID     string
	Name   string
	Role   string // admin, backoffice, vendedor
	Active bool
}

// SaveUser inserts or replaces a user.
func (s *Store) SaveUser(ctx context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, role, active) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, role = excluded.role, active = excluded.active`,
		u.ID, u.Name, u.Role, u.Active,
	)
	return err
}

// SaveSubscription registers a push endpoint for a user.
func (s *Store) SaveSubscription(ctx context.Context, id, userID, endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO push_subscriptions (id, user_id, endpoint, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(endpoint) DO UPDATE SET user_id = excluded.user_id`,
		id, userID, endpoint, time.Now().UTC(),
	)
	return err
}

// SavePreferences stores a user's alert switches.
func (s *Store) SavePreferences(ctx context.Context, p alerts.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO push_notification_preferences (user_id, sales_alerts, loyalty_alerts, lead_alerts)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			sales_alerts = excluded.sales_alerts,
			loyalty_alerts = excluded.loyalty_alerts,
			lead_alerts = excluded.lead_alerts`,
		p.UserID, p.SalesAlerts, p.LoyaltyAlerts, p.LeadAlerts,
	)
	return err
}

// SaveLead inserts or replaces a lead.
func (s *Store) SaveLead(ctx context.Context, l alerts.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next *time.Time
	if l.NextContactDate != nil {
		t := l.NextContactDate.UTC()
		next = &t
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leads (id, client_name, assigned_to, status, priority, next_contact_date)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			client_name = excluded.client_name,
			assigned_to = excluded.assigned_to,
			status = excluded.status,
			priority = excluded.priority,
			next_contact_date = excluded.next_contact_date`,
		l.ID, l.ClientName, l.AssignedTo, l.Status, l.Priority, next,
	)
	return err
}

// =============================================================================
// ALERT SOURCE
// =============================================================================

func (s *Store) LoyaltySales(ctx context.Context) ([]alerts.LoyaltySale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	in, args := inClause(alerts.LoyaltyStatuses)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client_name, seller_id, status, loyalty_months, sale_date, active_date
		FROM sales WHERE loyalty_months > 0 AND status IN `+in+` ORDER BY id`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []alerts.LoyaltySale
	for rows.Next() {
		var sale alerts.LoyaltySale
		var saleDate time.Time
		if err := rows.Scan(&sale.ID, &sale.ClientName, &sale.SellerID, &sale.Status,
			&sale.LoyaltyMonths, &saleDate, &sale.ActiveDate); err != nil {
			return nil, err
		}
		sale.SaleDate = &saleDate
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

func (s *Store) OpenLeads(ctx context.Context) ([]alerts.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	in, args := inClause(alerts.OpenLeadStatuses)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client_name, assigned_to, status, priority, next_contact_date
		FROM leads WHERE status IN `+in+` ORDER BY id`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []alerts.Lead
	for rows.Next() {
		var l alerts.Lead
		if err := rows.Scan(&l.ID, &l.ClientName, &l.AssignedTo, &l.Status, &l.Priority, &l.NextContactDate); err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

// StaffIDs returns active admin and backoffice users.
func (s *Store) StaffIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	in, args := inClause(staffRoles)
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM users WHERE active = 1 AND role IN "+in+" ORDER BY id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) Preferences(ctx context.Context) (map[string]alerts.Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id, sales_alerts, loyalty_alerts, lead_alerts FROM push_notification_preferences",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prefs := make(map[string]alerts.Preferences)
	for rows.Next() {
		var p alerts.Preferences
		if err := rows.Scan(&p.UserID, &p.SalesAlerts, &p.LoyaltyAlerts, &p.LeadAlerts); err != nil {
			return nil, err
		}
		prefs[p.UserID] = p
	}
	return prefs, rows.Err()
}

// =============================================================================
// DELIVERY LOG
// =============================================================================

func (s *Store) WasSent(ctx context.Context, k alerts.Key) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM push_notification_log
		WHERE user_id = ? AND notification_type = ? AND reference_id = ? AND sent_date = ?`,
		k.UserID, string(k.Type), k.ReferenceID, k.Day.String(),
	).Scan(&n)
	return n > 0, err
}

func (s *Store) RecordSent(ctx context.Context, k alerts.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO push_notification_log (user_id, notification_type, reference_id, sent_date, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		k.UserID, string(k.Type), k.ReferenceID, k.Day.String(), time.Now().UTC(),
	)
	return err
}

// =============================================================================
// OUTBOX
// =============================================================================

// OutboxMessage is a pending push delivery.
type OutboxMessage struct {
	ID             int64
	UserID         string
	SubscriptionID string
	Type           alerts.NotificationType
	Message        alerts.Message
	CreatedAt      time.Time
}

// Enqueue writes one outbox row per push subscription of the alert's user
// and returns how many were written. A user without subscriptions gets
// nothing, so the alert is not logged as sent.
func (s *Store) Enqueue(ctx context.Context, alert alerts.Alert) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(alert.Message)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO notification_outbox (user_id, subscription_id, notification_type, payload, created_at)
		SELECT user_id, id, ?, ?, ? FROM push_subscriptions WHERE user_id = ?`,
		string(alert.Type), string(payload), time.Now().UTC(), alert.UserID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue alert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), tx.Commit()
}

// PendingOutbox returns undelivered messages, oldest first.
func (s *Store) PendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, subscription_id, notification_type, payload, created_at
		FROM notification_outbox WHERE delivered_at IS NULL ORDER BY id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OutboxMessage
	for rows.Next() {
		var m OutboxMessage
		var payload string
		if err := rows.Scan(&m.ID, &m.UserID, &m.SubscriptionID, &m.Type, &payload, &m.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payload), &m.Message); err != nil {
			return nil, fmt.Errorf("outbox %d: %w", m.ID, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
