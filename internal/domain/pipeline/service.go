// Package pipeline sequences the cross-document transitions of the
// purchasing and sales pipelines.
//
// Every operation loads its documents, fires their state machines, and
// stages the resulting creates and updates in a change set. Nothing is
// written until the whole change set is computed; it is then applied in one
// transaction.
package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"

	"orderflow/internal/core/id"
	"orderflow/internal/core/numerator"
	"orderflow/internal/core/tx"
	"orderflow/internal/domain"
	"orderflow/internal/domain/catalogs"
	"orderflow/internal/domain/documents"
	"orderflow/internal/domain/documents/billing"
	"orderflow/internal/domain/documents/purchasing"
	"orderflow/internal/domain/documents/sales"
)

var tracer = otel.Tracer("orderflow/pipeline")

// DefaultPaymentTermsDays applies when the party has no payment terms.
const DefaultPaymentTermsDays = 30

// Stores holds one store per document type.
type Stores struct {
	Requisitions     domain.DocumentStore[*purchasing.Requisition]
	PurchaseOrders   domain.DocumentStore[*purchasing.PurchaseOrder]
	GoodsReceipts    domain.DocumentStore[*purchasing.GoodsReceipt]
	SalesOrders      domain.DocumentStore[*sales.SalesOrder]
	Picklists        domain.DocumentStore[*sales.Picklist]
	Dispatches       domain.DocumentStore[*sales.Dispatch]
	PurchaseInvoices domain.DocumentStore[*billing.Invoice]
	SalesInvoices    domain.DocumentStore[*billing.Invoice]
}

func (s Stores) invoices(t billing.Type) domain.DocumentStore[*billing.Invoice] {
	if t == billing.TypePurchase {
		return s.PurchaseInvoices
	}
	return s.SalesInvoices
}

// Observer is notified after a change set commits or fails.
type Observer interface {
	Transitioned(ctx context.Context, t documents.Transition)
	OrchestrationFailed(ctx context.Context, operation string, err error)
}

// EventSink stores the transitions of a change set inside its transaction,
// so they are kept exactly when the documents are (transactional outbox).
type EventSink interface {
	Record(ctx context.Context, transitions []documents.Transition) error
}

// Service is the pipeline orchestrator.
type Service struct {
	stores    Stores
	catalog   catalogs.Lookup
	numbers   numerator.Generator
	txManager tx.Manager
	observer  Observer
	events    EventSink
	now       func() time.Time

	defaultWarehouse id.ID
}

// Option configures a Service.
type Option func(*Service)

// WithObserver registers o for transitions and failures.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithEventSink records every committed transition through sink.
func WithEventSink(sink EventSink) Option {
	return func(s *Service) { s.events = sink }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithDefaultWarehouse sets the warehouse used by picklist generation when
// neither the line nor the request names one.
func WithDefaultWarehouse(warehouseID id.ID) Option {
	return func(s *Service) { s.defaultWarehouse = warehouseID }
}

// NewService creates the orchestrator.
func NewService(
	stores Stores,
	catalog catalogs.Lookup,
	numbers numerator.Generator,
	txManager tx.Manager,
	opts ...Option,
) *Service {
	s := &Service{
		stores:    stores,
		catalog:   catalog,
		numbers:   numbers,
		txManager: txManager,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.txManager == nil {
		s.txManager = tx.Direct
	}
	return s
}

// Stores returns the document stores. Used by read-only adapters.
func (s *Service) Stores() Stores { return s.stores }

func (s *Service) dueDate(requested time.Time, termsDays int) time.Time {
	if !requested.IsZero() {
		return requested
	}
	if termsDays <= 0 {
		termsDays = DefaultPaymentTermsDays
	}
	return s.now().UTC().AddDate(0, 0, termsDays)
}
