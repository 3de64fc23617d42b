package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"orderflow/internal/core/apperror"
	"orderflow/internal/core/id"
	"orderflow/internal/domain"
)

const uniqueViolation = "23505"

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

type documentRow struct {
	Version int    `db:"version"`
	Payload []byte `db:"payload"`
}

// DocumentStore keeps documents of one kind in the documents table. The
// document itself is the JSONB payload; kind, number, status and parent are
// copied into columns for filtering.
type DocumentStore[D any, T interface {
	*D
	domain.Document
}] struct {
	kind      string
	txManager *TxManager
	history   *History
}

// NewDocumentStore creates a store for kind. A nil history disables
// revision tracking.
func NewDocumentStore[D any, T interface {
	*D
	domain.Document
}](kind string, txManager *TxManager, history *History) *DocumentStore[D, T] {
	return &DocumentStore[D, T]{kind: kind, txManager: txManager, history: history}
}

func (s *DocumentStore[D, T]) decode(row documentRow) (T, error) {
	doc := T(new(D))
	if err := json.Unmarshal(row.Payload, doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.kind, err)
	}
	doc.SetVersion(row.Version)
	return doc, nil
}

// Get implements domain.DocumentStore.
func (s *DocumentStore[D, T]) Get(ctx context.Context, docID id.ID) (T, error) {
	sql, args, err := builder().
		Select("version", "payload").
		From("documents").
		Where(squirrel.Eq{"kind": s.kind, "id": docID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var row documentRow
	if err := pgxscan.Get(ctx, s.txManager.GetQuerier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(s.kind, docID.String())
		}
		return nil, fmt.Errorf("get %s: %w", s.kind, err)
	}
	return s.decode(row)
}

// listQuery applies every ListFilter field that maps to a column. Expr is
// evaluated after decoding.
func listQuery(kind string, f domain.ListFilter) squirrel.SelectBuilder {
	q := builder().
		Select("version", "payload").
		From("documents").
		Where(squirrel.Eq{"kind": kind})

	if len(f.Statuses) > 0 {
		q = q.Where(squirrel.Eq{"status": f.Statuses})
	}
	if !id.IsNil(f.ParentID) {
		q = q.Where(squirrel.Eq{"parent_id": f.ParentID})
	}
	if f.Search != "" {
		q = q.Where(squirrel.ILike{"number": "%" + f.Search + "%"})
	}
	return q.OrderBy("created_at", "id")
}

// List implements domain.DocumentStore.
func (s *DocumentStore[D, T]) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{Limit: f.Limit, Offset: f.Offset, Items: []T{}}
	querier := s.txManager.GetQuerier(ctx)
	q := listQuery(s.kind, f)

	if f.Expr == nil {
		countSQL, countArgs, err := builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
		if err != nil {
			return result, fmt.Errorf("build count: %w", err)
		}
		if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
			return result, fmt.Errorf("count %s: %w", s.kind, err)
		}
		if f.Limit > 0 {
			q = q.Limit(uint64(f.Limit))
		}
		if f.Offset > 0 {
			q = q.Offset(uint64(f.Offset))
		}
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	var rows []documentRow
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return result, fmt.Errorf("list %s: %w", s.kind, err)
	}

	for _, row := range rows {
		doc, err := s.decode(row)
		if err != nil {
			return result, err
		}
		ok, err := f.Expr.Match(doc)
		if err != nil {
			return result, err
		}
		if ok {
			result.Items = append(result.Items, doc)
		}
	}

	if f.Expr != nil {
		result.TotalCount = int64(len(result.Items))
		result.Items = page(result.Items, f.Offset, f.Limit)
	}
	return result, nil
}

func page[T any](items []T, offset, limit int) []T {
	start := min(max(offset, 0), len(items))
	end := len(items)
	if limit > 0 {
		end = min(start+limit, end)
	}
	return items[start:end]
}

func parentColumn(doc domain.Document) any {
	if id.IsNil(doc.ParentID()) {
		return nil
	}
	return doc.ParentID()
}

// Create implements domain.DocumentStore.
func (s *DocumentStore[D, T]) Create(ctx context.Context, doc T) error {
	doc.SetVersion(1)
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.kind, err)
	}

	sql, args, err := builder().
		Insert("documents").
		SetMap(map[string]any{
			"id":        doc.GetID(),
			"kind":      s.kind,
			"number":    doc.GetNumber(),
			"status":    doc.StatusName(),
			"parent_id": parentColumn(doc),
			"version":   1,
			"payload":   payload,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperror.NewDuplicate(s.kind, "number", doc.GetNumber())
		}
		return fmt.Errorf("insert %s: %w", s.kind, err)
	}

	if s.history != nil {
		return s.history.Record(ctx, doc, payload)
	}
	return nil
}

// Update implements domain.DocumentStore.
func (s *DocumentStore[D, T]) Update(ctx context.Context, doc T) error {
	expected := doc.GetVersion()
	doc.SetVersion(expected + 1)
	payload, err := json.Marshal(doc)
	if err != nil {
		doc.SetVersion(expected)
		return fmt.Errorf("encode %s: %w", s.kind, err)
	}

	sql, args, err := builder().
		Update("documents").
		Set("number", doc.GetNumber()).
		Set("status", doc.StatusName()).
		Set("parent_id", parentColumn(doc)).
		Set("payload", payload).
		Set("version", expected+1).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"kind": s.kind, "id": doc.GetID(), "version": expected}).
		ToSql()
	if err != nil {
		doc.SetVersion(expected)
		return fmt.Errorf("build update: %w", err)
	}

	querier := s.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		doc.SetVersion(expected)
		return fmt.Errorf("update %s: %w", s.kind, err)
	}
	if tag.RowsAffected() == 0 {
		doc.SetVersion(expected)
		if _, err := s.Get(ctx, doc.GetID()); err != nil {
			return err
		}
		return apperror.NewConcurrentModification(s.kind, doc.GetID().String())
	}

	if s.history != nil {
		return s.history.Record(ctx, doc, payload)
	}
	return nil
}

// Revisions returns the stored history of a document of this kind.
func (s *DocumentStore[D, T]) Revisions(ctx context.Context, docID id.ID) ([]Revision, error) {
	if _, err := s.Get(ctx, docID); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []Revision{}, nil
	}
	return s.history.Revisions(ctx, docID)
}
