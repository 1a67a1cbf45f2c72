package postgres

import (
	"context"
	"fmt"
)

// ReportCacheChannel canal LISTEN/NOTIFY que escuchan los servicios de reportes.
const ReportCacheChannel = "report_cache_invalidate"

// Notifier envía notificaciones con pg_notify.
type Notifier struct {
	q Querier
}

// NewNotifier construye el notificador. Pasar pool.
func NewNotifier(q Querier) *Notifier {
	return &Notifier{q: q}
}

// Notify publica payload en channel.
func (n *Notifier) Notify(ctx context.Context, channel, payload string) error {
	if _, err := n.q.Exec(ctx, `SELECT pg_notify($1, $2)`, channel, payload); err != nil {
		return fmt.Errorf("pg_notify %s: %w", channel, err)
	}
	return nil
}
