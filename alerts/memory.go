package alerts

import (
	"context"
	"sync"
)

// MemoryLog is an in-memory DeliveryLog.
type MemoryLog struct {
	mu   sync.Mutex
	sent map[Key]bool
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{sent: make(map[Key]bool)}
}

func (l *MemoryLog) WasSent(_ context.Context, key Key) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sent[key], nil
}

func (l *MemoryLog) RecordSent(_ context.Context, key Key) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sent[key] = true
	return nil
}

// RecordingQueue keeps every alert it accepts. Each alert counts as one
// delivery.
type RecordingQueue struct {
	mu     sync.Mutex
	alerts []Alert
}

func (q *RecordingQueue) Enqueue(_ context.Context, alert Alert) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.alerts = append(q.alerts, alert)
	return 1, nil
}

// Alerts returns a copy of the accepted alerts.
func (q *RecordingQueue) Alerts() []Alert {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Alert(nil), q.alerts...)
}
