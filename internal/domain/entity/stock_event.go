package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Tipos de evento publicados después del commit.
const (
	EventInventoryChanged  = "inventory.changed"
	EventLowStock          = "stock.low"
	EventStockAdjusted     = "stock.adjusted"
	EventExpiryWarning     = "stock.expiry_warning"
	EventBatchFailed       = "stock.batch_failed"
	EventTransferCreated   = "transfer.created"
	EventTransferCompleted = "transfer.completed"
	EventTransferCancelled = "transfer.cancelled"
)

// StockEvent evento de dominio que consumen los workers (alertas, notificaciones,
// invalidación de caché, auditoría). Se emite solo tras un commit exitoso.
type StockEvent struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	AggregateID string          `json:"aggregate_id"` // product_id o transfer_id
	ActorID     string          `json:"actor_id,omitempty"`
	Payload     json.RawMessage `json:"payload"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// LedgerEventPayload datos de un cambio en el ledger.
type LedgerEventPayload struct {
	ProductID    string     `json:"product_id"`
	Quantity     string     `json:"quantity"`
	Previous     string     `json:"previous"`
	Delta        string     `json:"delta"`
	ReorderLevel string     `json:"reorder_level"`
	MovementType string     `json:"movement_type,omitempty"`
	Reason       string     `json:"reason,omitempty"`
	ExpiryDate   *time.Time `json:"expiry_date,omitempty"`
}

// TransferEventPayload datos de un traslado.
type TransferEventPayload struct {
	TransferID     string   `json:"transfer_id"`
	TransferNumber string   `json:"transfer_number"`
	FromLocationID string   `json:"from_location_id"`
	ToLocationID   string   `json:"to_location_id"`
	Status         string   `json:"status"`
	ProductIDs     []string `json:"product_ids,omitempty"`
}

// BatchFailedPayload notifica al flujo llamador que el lote no se aplicó.
type BatchFailedPayload struct {
	ReferenceID string   `json:"reference_id,omitempty"`
	ProductIDs  []string `json:"product_ids"`
	Lines       int      `json:"lines"`
	Error       string   `json:"error"`
}

// NewStockEvent construye un evento con ID nuevo serializando payload a JSON.
func NewStockEvent(eventType, aggregateID, actorID string, payload any, at time.Time) (StockEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return StockEvent{}, err
	}
	return StockEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		AggregateID: aggregateID,
		ActorID:     actorID,
		Payload:     raw,
		OccurredAt:  at,
	}, nil
}
