package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hugoalbmartins/Leiritrix-sub000/alerts"
)

var (
	_ alerts.Source      = (*Store)(nil)
	_ alerts.DeliveryLog = (*Store)(nil)
	_ alerts.Queue       = (*Store)(nil)
)

var staffRoles = []string{"admin", "backoffice"}

// =============================================================================
// ALERT SOURCE
// =============================================================================

func (s *Store) LoyaltySales(ctx context.Context) ([]alerts.LoyaltySale, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, client_name, seller_id, status, loyalty_months, sale_date, active_date
		FROM sales WHERE loyalty_months > 0 AND status = ANY($1) ORDER BY id`,
		alerts.LoyaltyStatuses,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query loyalty sales: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[alerts.LoyaltySale])
}

func (s *Store) OpenLeads(ctx context.Context) ([]alerts.Lead, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, client_name, assigned_to, status, priority, next_contact_date
		FROM leads WHERE status = ANY($1) ORDER BY id`,
		alerts.OpenLeadStatuses,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[alerts.Lead])
}

func (s *Store) StaffIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id FROM users WHERE active AND role = ANY($1) ORDER BY id", staffRoles)
	if err != nil {
		return nil, fmt.Errorf("failed to query staff: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *Store) Preferences(ctx context.Context) (map[string]alerts.Preferences, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT user_id, sales_alerts, loyalty_alerts, lead_alerts FROM push_notification_preferences")
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}
	list, err := pgx.CollectRows(rows, pgx.RowToStructByPos[alerts.Preferences])
	if err != nil {
		return nil, err
	}

	prefs := make(map[string]alerts.Preferences, len(list))
	for _, p := range list {
		prefs[p.UserID] = p
	}
	return prefs, nil
}

// =============================================================================
// DELIVERY LOG
// =============================================================================

func (s *Store) WasSent(ctx context.Context, k alerts.Key) (bool, error) {
	var sent bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM push_notification_log
			WHERE user_id = $1 AND notification_type = $2 AND reference_id = $3 AND sent_date = $4::date
		)`,
		k.UserID, string(k.Type), k.ReferenceID, k.Day.String(),
	).Scan(&sent)
	return sent, err
}

func (s *Store) RecordSent(ctx context.Context, k alerts.Key) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO push_notification_log (user_id, notification_type, reference_id, sent_date)
		VALUES ($1, $2, $3, $4::date)
		ON CONFLICT DO NOTHING`,
		k.UserID, string(k.Type), k.ReferenceID, k.Day.String(),
	)
	return err
}

// =============================================================================
// OUTBOX
// =============================================================================

// Enqueue writes one outbox row per push subscription of the alert's user.
// Zero rows means the user has no subscription and nothing was delivered.
func (s *Store) Enqueue(ctx context.Context, alert alerts.Alert) (int, error) {
	payload, err := json.Marshal(alert.Message)
	if err != nil {
		return 0, err
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO notification_outbox (user_id, subscription_id, notification_type, payload)
		SELECT user_id, id, $1, $2::jsonb FROM push_subscriptions WHERE user_id = $3`,
		string(alert.Type), string(payload), alert.UserID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue alert: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
