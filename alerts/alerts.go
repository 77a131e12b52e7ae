/*
Package alerts decides which daily push alerts to queue.

PURPOSE:
  A scheduled sweep that finds (a) sales whose loyalty term ends within the
  next three days and (b) leads that are new or overdue for follow-up, and
  queues one message per target user. Delivery (Web Push, VAPID) belongs to
  whatever consumes the Queue.

DEDUPLICATION:
  Key = (user, notification type, reference, calendar day). The reference
  itself embeds the day ("<id>-YYYY-MM-DD"). The log is checked before
  queueing and written only after at least one delivery was accepted, so a
  failed send is retried on the next sweep the same day.

TARGETS:
  Loyalty alerts: active admins and backoffice, plus the sale's seller.
  Lead alerts:    the assignee, plus active admins and backoffice.
  Duplicates are removed; users who switched the alert type off are skipped.

IMPLEMENTATIONS:
  - memory.go: in-memory DeliveryLog and a recording Queue (tests, dev)
  - redis.go: Redis DeliveryLog with day-scoped TTL keys
  - store/sqlite: Source, DeliveryLog (push_notification_log) and an outbox Queue
*/
package alerts

import (
	"context"
	"time"
)

// NotificationType is the alert family, also the preference switch.
type NotificationType string

const (
	TypeLoyalty NotificationType = "loyalty"
	TypeLead    NotificationType = "lead"
)

// Sale statuses eligible for loyalty alerts.
var LoyaltyStatuses = []string{"ativo", "em_negociacao", "pendente"}

// Lead statuses eligible for follow-up alerts.
var OpenLeadStatuses = []string{"nova", "em_contacto", "qualificada"}

// LoyaltySale is the sale data a loyalty alert needs.
type LoyaltySale struct {
	ID            string
	ClientName    string
	SellerID      string
	Status        string
	LoyaltyMonths int
	SaleDate      *time.Time
	ActiveDate    *time.Time
}

// StartDate is the loyalty start: activation when known, else the sale date.
func (s LoyaltySale) StartDate() (time.Time, bool) {
	if s.ActiveDate != nil {
		return *s.ActiveDate, true
	}
	if s.SaleDate != nil {
		return *s.SaleDate, true
	}
	return time.Time{}, false
}

// Lead is the lead data a follow-up alert needs.
type Lead struct {
	ID              string
	ClientName      string
	AssignedTo      string
	Status          string
	Priority        string
	NextContactDate *time.Time
}

// Preferences are a user's alert switches. Users without a row get all on.
type Preferences struct {
	UserID        string
	SalesAlerts   bool
	LoyaltyAlerts bool
	LeadAlerts    bool
}

// DefaultPreferences enables every alert type.
func DefaultPreferences(userID string) Preferences {
	return Preferences{UserID: userID, SalesAlerts: true, LoyaltyAlerts: true, LeadAlerts: true}
}

// Allows reports whether the user wants alerts of type t.
func (p Preferences) Allows(t NotificationType) bool {
	switch t {
	case TypeLoyalty:
		return p.LoyaltyAlerts
	case TypeLead:
		return p.LeadAlerts
	default:
		return true
	}
}

// Message is the push payload.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
	Tag   string `json:"tag"`
}

// Alert is one message for one user.
type Alert struct {
	UserID      string
	Type        NotificationType
	ReferenceID string
	Message     Message
}

// Key identifies an alert for deduplication.
type Key struct {
	UserID      string
	Type        NotificationType
	ReferenceID string
	Day         Day
}

// Source reads the sweep's input.
type Source interface {
	// LoyaltySales returns sales with loyalty_months > 0 in LoyaltyStatuses.
	LoyaltySales(ctx context.Context) ([]LoyaltySale, error)
	// OpenLeads returns leads in OpenLeadStatuses.
	OpenLeads(ctx context.Context) ([]Lead, error)
	// StaffIDs returns the IDs of active admin and backoffice users.
	StaffIDs(ctx context.Context) ([]string, error)
	// Preferences returns stored preferences keyed by user ID.
	Preferences(ctx context.Context) (map[string]Preferences, error)
}

// DeliveryLog records alerts already delivered.
type DeliveryLog interface {
	WasSent(ctx context.Context, key Key) (bool, error)
	RecordSent(ctx context.Context, key Key) error
}

// Queue hands an alert to delivery. It returns how many of the user's
// devices accepted it; zero means nothing was delivered.
type Queue interface {
	Enqueue(ctx context.Context, alert Alert) (int, error)
}
