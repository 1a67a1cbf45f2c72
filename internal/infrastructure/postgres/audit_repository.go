package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
	"github.com/klauspost/compress/zstd"
)

// Algoritmos de compresión del payload de auditoría.
const (
	CompressionNone = "none"
	CompressionZstd = "zstd"
)

const defaultCompressThreshold = 4 * 1024

// AuditRepo bitácora de eventos de stock (tabla stock_audit_log). Los payloads grandes,
// como los de un lote de muchas líneas, se guardan comprimidos con zstd.
type AuditRepo struct {
	q                 Querier
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewAuditRepository construye la bitácora. threshold <= 0 usa 4KB.
func NewAuditRepository(q Querier, threshold int) (*AuditRepo, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	if threshold <= 0 {
		threshold = defaultCompressThreshold
	}
	return &AuditRepo{q: q, encoder: encoder, decoder: decoder, compressThreshold: threshold}, nil
}

// Append registra un evento en la bitácora.
func (r *AuditRepo) Append(ctx context.Context, e entity.StockEvent) error {
	payload, compressed, algo := r.encode(e.Payload)
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_audit_log (id, event_id, event_type, entity_id, actor_id, payload, payload_compressed, compression, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (event_id) DO NOTHING`,
		uuid.New().String(), e.ID, e.Type, e.AggregateID, optionalString(e.ActorID),
		payload, compressed, algo, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// encode devuelve el payload en claro o comprimido según el umbral.
func (r *AuditRepo) encode(raw []byte) (plain, compressed []byte, algo string) {
	if len(raw) <= r.compressThreshold {
		return raw, nil, CompressionNone
	}
	return nil, r.encoder.EncodeAll(raw, nil), CompressionZstd
}

// Decode recupera el payload original de una entrada leída de la tabla.
func (r *AuditRepo) Decode(plain, compressed []byte, algo string) ([]byte, error) {
	switch algo {
	case CompressionNone, "":
		return plain, nil
	case CompressionZstd:
		out, err := r.decoder.DecodeAll(compressed, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress audit payload: %w", err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("compresión desconocida: %s", algo)
}
