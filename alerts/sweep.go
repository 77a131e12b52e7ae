package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hugoalbmartins/Leiritrix-sub000/metrics"
)

// LoyaltyWindowDays is how far ahead a loyalty end triggers an alert.
const LoyaltyWindowDays = 3

// Result summarizes one sweep.
type Result struct {
	Sent         int // deliveries accepted by the queue
	Deduplicated int // alerts already sent today
	OptedOut     int // targets with the alert type switched off
	Failed       int // dedup lookup or enqueue errors, retried next sweep
}

// Sweeper runs the daily alert sweep.
type Sweeper struct {
	Source  Source
	Log     DeliveryLog
	Queue   Queue
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// NewSweeper creates a Sweeper. m may be nil.
func NewSweeper(src Source, log DeliveryLog, q Queue, logger zerolog.Logger, m *metrics.Metrics) *Sweeper {
	return &Sweeper{
		Source:  src,
		Log:     log,
		Queue:   q,
		Logger:  logger.With().Str("component", "alerts").Logger(),
		Metrics: m,
		Now:     time.Now,
	}
}

// Run sweeps loyalty ends and lead follow-ups once. Source failures abort
// the sweep; per-alert failures are counted and the sweep continues.
func (s *Sweeper) Run(ctx context.Context) (Result, error) {
	today := DayOf(s.Now().UTC())

	prefs, err := s.Source.Preferences(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load preferences: %w", err)
	}
	staff, err := s.Source.StaffIDs(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load staff: %w", err)
	}

	sw := sweep{Sweeper: s, ctx: ctx, today: today, prefs: prefs}

	sales, err := s.Source.LoyaltySales(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load loyalty sales: %w", err)
	}
	for _, sale := range sales {
		if ctx.Err() != nil {
			return sw.result, ctx.Err()
		}
		alert, ok := LoyaltyAlert(sale, today)
		if !ok {
			continue
		}
		sw.deliver(alert, unique(append(append([]string{}, staff...), sale.SellerID)))
	}

	leads, err := s.Source.OpenLeads(ctx)
	if err != nil {
		return sw.result, fmt.Errorf("load leads: %w", err)
	}
	for _, lead := range leads {
		if ctx.Err() != nil {
			return sw.result, ctx.Err()
		}
		alert, ok := LeadAlert(lead, today)
		if !ok {
			continue
		}
		sw.deliver(alert, unique(append([]string{lead.AssignedTo}, staff...)))
	}

	if sw.result.Sent > 0 {
		s.Logger.Info().
			Int("sent", sw.result.Sent).
			Int("deduplicated", sw.result.Deduplicated).
			Int("failed", sw.result.Failed).
			Msg("alert sweep finished")
	}
	return sw.result, nil
}

// sweep carries the state of one Run.
type sweep struct {
	*Sweeper
	ctx    context.Context
	today  Day
	prefs  map[string]Preferences
	result Result
}

func (sw *sweep) deliver(template Alert, targets []string) {
	for _, userID := range targets {
		pref, ok := sw.prefs[userID]
		if !ok {
			pref = DefaultPreferences(userID)
		}
		if !pref.Allows(template.Type) {
			sw.result.OptedOut++
			continue
		}

		alert := template
		alert.UserID = userID
		key := Key{UserID: userID, Type: alert.Type, ReferenceID: alert.ReferenceID, Day: sw.today}
		log := sw.Logger.With().Str("user_id", userID).Str("reference_id", alert.ReferenceID).Logger()

		sent, err := sw.Log.WasSent(sw.ctx, key)
		if err != nil {
			log.Warn().Err(err).Msg("dedup lookup failed")
			sw.result.Failed++
			continue
		}
		if sent {
			sw.result.Deduplicated++
			sw.Metrics.IncrementAlertDeduped(string(alert.Type))
			continue
		}

		n, err := sw.Queue.Enqueue(sw.ctx, alert)
		if err != nil {
			log.Warn().Err(err).Msg("enqueue failed")
			sw.result.Failed++
			continue
		}
		if n == 0 {
			continue
		}
		// The alert went out. If the log write fails the next sweep today
		// sends it again, so delivery is at-least-once.
		if err := sw.Log.RecordSent(sw.ctx, key); err != nil {
			log.Warn().Err(err).Msg("failed to record delivery")
		}
		sw.result.Sent += n
		sw.Metrics.IncrementAlertSent(string(alert.Type))
	}
}

// =============================================================================
// MESSAGE RULES
// =============================================================================

// LoyaltyAlert builds the alert for a sale whose loyalty term ends within
// LoyaltyWindowDays of today, or reports false.
func LoyaltyAlert(sale LoyaltySale, today Day) (Alert, bool) {
	start, ok := sale.StartDate()
	if !ok || sale.LoyaltyMonths <= 0 {
		return Alert{}, false
	}

	end := DayOf(start).AddMonths(sale.LoyaltyMonths)
	days := today.DaysUntil(end)
	if days < 0 || days > LoyaltyWindowDays {
		return Alert{}, false
	}

	return Alert{
		Type:        TypeLoyalty,
		ReferenceID: referenceID(sale.ID, today),
		Message: Message{
			Title: "Alerta de Fidelizacao",
			Body:  fmt.Sprintf("%s: fidelizacao %s", sale.ClientName, loyaltyLabel(days)),
			URL:   "/sales/" + sale.ID,
			Tag:   fmt.Sprintf("loyalty-%s-%d", sale.ID, days),
		},
	}, true
}

func loyaltyLabel(days int) string {
	switch days {
	case 0:
		return "termina hoje"
	case 1:
		return "termina amanha"
	default:
		return fmt.Sprintf("termina em %d dias", days)
	}
}

// LeadAlert builds the alert for a new or overdue lead, or reports false.
func LeadAlert(lead Lead, today Day) (Alert, bool) {
	overdue := lead.NextContactDate != nil && !DayOf(*lead.NextContactDate).After(today)
	isNew := lead.Status == "nova"
	if !overdue && !isNew {
		return Alert{}, false
	}

	title := "Nova lead por contactar"
	if overdue {
		title = "Lead com follow-up atrasado"
	}
	body := lead.ClientName
	if lead.Priority == "alta" {
		body += " (Prioridade Alta)"
	}

	return Alert{
		Type:        TypeLead,
		ReferenceID: referenceID(lead.ID, today),
		Message: Message{
			Title: title,
			Body:  body,
			URL:   "/leads",
			Tag:   "lead-" + lead.ID,
		},
	}, true
}

func referenceID(id string, day Day) string {
	return id + "-" + day.String()
}

// unique drops empty and repeated IDs, keeping first occurrence order.
func unique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
