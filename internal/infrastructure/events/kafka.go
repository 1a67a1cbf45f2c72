package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
	"github.com/jhoicas/pos-stock-engine/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// MessageWriter lo que el notificador usa de *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publica notificaciones en un tópico Kafka con el id del agregado como clave,
// así los mensajes de un mismo producto o traslado conservan el orden. Sin writer solo registra
// en log.
type KafkaNotifier struct {
	writer MessageWriter
	log    *logger.Logger
}

// NewKafkaWriter construye el writer para brokers y topic.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
		RequiredAcks: kafka.RequireOne,
	}
}

// NewKafkaNotifier construye el notificador; writer puede ser nil.
func NewKafkaNotifier(writer MessageWriter, log *logger.Logger) *KafkaNotifier {
	if log == nil {
		log = logger.Nop()
	}
	return &KafkaNotifier{writer: writer, log: log.Component("notifier")}
}

// Notify serializa n y lo escribe en el tópico. La entrega es al menos una vez: un reintento del
// outbox vuelve a escribir el mensaje con el mismo header event_id.
func (k *KafkaNotifier) Notify(ctx context.Context, n Notification) error {
	if k.writer == nil {
		k.log.Info().Str("kind", n.Kind).Str("aggregate_id", n.AggregateID).Msg(n.Message)
		return nil
	}
	value, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("serializar notificación: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(n.AggregateID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(n.Kind)},
			{Key: "event_id", Value: []byte(n.EventID)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("escribir en kafka: %w", err)
	}
	return nil
}

// Handle convierte en notificación los eventos que interesan a los usuarios; el resto se ignora.
func (k *KafkaNotifier) Handle(ctx context.Context, e entity.StockEvent) error {
	n, ok := notificationFor(e)
	if !ok {
		return nil
	}
	return k.Notify(ctx, n)
}

// Close cierra el writer.
func (k *KafkaNotifier) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}

func notificationFor(e entity.StockEvent) (Notification, bool) {
	n := Notification{Kind: e.Type, AggregateID: e.AggregateID, EventID: e.ID}
	switch e.Type {
	case entity.EventLowStock, entity.EventStockAdjusted, entity.EventExpiryWarning:
		var p entity.LedgerEventPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return n, false
		}
		n.Data = map[string]any{"quantity": p.Quantity, "reorder_level": p.ReorderLevel, "delta": p.Delta}
		switch e.Type {
		case entity.EventLowStock:
			n.Message = fmt.Sprintf("Stock bajo: producto %s con %s unidades (reorden en %s)", p.ProductID, p.Quantity, p.ReorderLevel)
		case entity.EventStockAdjusted:
			n.Message = fmt.Sprintf("Ajuste de stock (%s) en producto %s: %s. %s", p.MovementType, p.ProductID, p.Delta, p.Reason)
			n.Data["movement_type"] = p.MovementType
		default:
			if p.ExpiryDate != nil {
				n.Data["expiry_date"] = p.ExpiryDate.Format(time.DateOnly)
			}
			n.Message = fmt.Sprintf("Producto %s recibió stock próximo a vencer", p.ProductID)
		}
		return n, true
	case entity.EventBatchFailed:
		var p entity.BatchFailedPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return n, false
		}
		n.Message = fmt.Sprintf("No se aplicó el lote %s (%d líneas): %s", p.ReferenceID, p.Lines, p.Error)
		n.Data = map[string]any{"reference_id": p.ReferenceID, "product_ids": strings.Join(p.ProductIDs, ",")}
		return n, true
	case entity.EventTransferCompleted, entity.EventTransferCancelled:
		var p entity.TransferEventPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return n, false
		}
		n.Message = fmt.Sprintf("Traslado %s %s", p.TransferNumber, p.Status)
		n.Data = map[string]any{"from_location_id": p.FromLocationID, "to_location_id": p.ToLocationID}
		return n, true
	}
	return n, false
}
