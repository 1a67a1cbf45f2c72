package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
)

// ChannelNotifier envía un payload por un canal (postgres.Notifier con pg_notify).
type ChannelNotifier interface {
	Notify(ctx context.Context, channel, payload string) error
}

// CacheInvalidator avisa a los reportes que sus cifras de inventario quedaron viejas.
type CacheInvalidator struct {
	notifier ChannelNotifier
	channel  string
}

// NewCacheInvalidator construye el invalidador sobre channel.
func NewCacheInvalidator(notifier ChannelNotifier, channel string) *CacheInvalidator {
	return &CacheInvalidator{notifier: notifier, channel: channel}
}

type cacheInvalidation struct {
	Scope string   `json:"scope"`
	IDs   []string `json:"ids"`
}

// Handle reacciona a cambios de ledger y a traslados completados.
func (c *CacheInvalidator) Handle(ctx context.Context, e entity.StockEvent) error {
	var msg cacheInvalidation
	switch e.Type {
	case entity.EventInventoryChanged:
		msg = cacheInvalidation{Scope: "product", IDs: []string{e.AggregateID}}
	case entity.EventTransferCompleted:
		var p entity.TransferEventPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return nil
		}
		msg = cacheInvalidation{Scope: "location", IDs: []string{p.FromLocationID, p.ToLocationID}}
	default:
		return nil
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := c.notifier.Notify(ctx, c.channel, string(payload)); err != nil {
		return fmt.Errorf("invalidar caché de reportes: %w", err)
	}
	return nil
}
