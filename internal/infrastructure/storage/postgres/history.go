package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	"orderflow/internal/core/id"
	"orderflow/internal/domain"
)

// Compression is how a history payload is stored.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
)

// DefaultCompressThreshold is the payload size above which revisions are
// stored zstd-compressed.
const DefaultCompressThreshold = 10 * 1024

// Revision is one stored version of a document.
type Revision struct {
	DocumentID id.ID           `json:"documentId"`
	Version    int             `json:"version"`
	Kind       string          `json:"kind"`
	Status     string          `json:"status"`
	Payload    json.RawMessage `json:"payload"`
	RecordedAt time.Time       `json:"recordedAt"`
}

type historyRow struct {
	DocumentID        id.ID       `db:"document_id"`
	Version           int         `db:"version"`
	Kind              string      `db:"kind"`
	Status            string      `db:"status"`
	Payload           []byte      `db:"payload"`
	PayloadCompressed []byte      `db:"payload_compressed"`
	Compression       Compression `db:"compression"`
	RecordedAt        time.Time   `db:"recorded_at"`
}

// History appends every written revision of a document to document_history.
type History struct {
	txManager *TxManager
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	threshold int
}

// NewHistory creates a history writer. txManager may be nil when only
// encode/decode are used.
func NewHistory(txManager *TxManager) (*History, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &History{
		txManager: txManager,
		encoder:   encoder,
		decoder:   decoder,
		threshold: DefaultCompressThreshold,
	}, nil
}

func (h *History) encode(payload []byte) historyRow {
	if len(payload) > h.threshold {
		return historyRow{
			PayloadCompressed: h.encoder.EncodeAll(payload, nil),
			Compression:       CompressionZstd,
		}
	}
	return historyRow{Payload: payload, Compression: CompressionNone}
}

func (h *History) decode(row historyRow) ([]byte, error) {
	if row.Compression != CompressionZstd {
		return row.Payload, nil
	}
	out, err := h.decoder.DecodeAll(row.PayloadCompressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress revision %d: %w", row.Version, err)
	}
	return out, nil
}

// Record stores payload as the current version of doc. It runs on the
// transaction in ctx, so a rolled-back write leaves no revision behind.
func (h *History) Record(ctx context.Context, doc domain.Document, payload []byte) error {
	row := h.encode(payload)

	q := builder().
		Insert("document_history").
		Columns("document_id", "version", "kind", "status", "payload", "payload_compressed", "compression").
		Values(doc.GetID(), doc.GetVersion(), doc.Kind(), doc.StatusName(), nullBytes(row.Payload), nullBytes(row.PayloadCompressed), row.Compression)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build history insert: %w", err)
	}
	if _, err := h.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert history of %s: %w", doc.Kind(), err)
	}
	return nil
}

// Revisions returns every stored version of a document, oldest first.
func (h *History) Revisions(ctx context.Context, docID id.ID) ([]Revision, error) {
	q := builder().
		Select("document_id", "version", "kind", "status", "payload", "payload_compressed", "compression", "recorded_at").
		From("document_history").
		Where("document_id = ?", docID).
		OrderBy("version")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history query: %w", err)
	}

	var rows []historyRow
	if err := pgxscan.Select(ctx, h.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	out := make([]Revision, 0, len(rows))
	for _, row := range rows {
		payload, err := h.decode(row)
		if err != nil {
			return nil, err
		}
		out = append(out, Revision{
			DocumentID: row.DocumentID,
			Version:    row.Version,
			Kind:       row.Kind,
			Status:     row.Status,
			Payload:    payload,
			RecordedAt: row.RecordedAt,
		})
	}
	return out, nil
}

func nullBytes(b []byte) any {
	if b == nil {
		return nil
	}
	return b
}
