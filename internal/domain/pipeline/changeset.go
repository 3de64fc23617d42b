package pipeline

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"orderflow/internal/core/apperror"
	"orderflow/internal/core/entity"
	"orderflow/internal/core/numerator"
	"orderflow/internal/domain"
	"orderflow/internal/domain/documents"
	"orderflow/pkg/logger"
)

type step struct {
	name  string
	apply func(ctx context.Context) error
}

type fired struct {
	doc domain.Document
	t   documents.Transition
}

// changeSet collects the writes of one operation. The first staging error
// is kept and returned by apply before anything is written.
type changeSet struct {
	operation string
	steps     []step
	fired     []fired
	err       error
}

func newChangeSet(operation string) *changeSet {
	return &changeSet{operation: operation}
}

func (cs *changeSet) record(doc domain.Document, t documents.Transition) {
	cs.fired = append(cs.fired, fired{doc: doc, t: t})
}

// transitions returns the fired transitions with ids and numbers filled in.
// Numbers of created documents are known only after their create step.
func (cs *changeSet) transitions() []documents.Transition {
	out := make([]documents.Transition, len(cs.fired))
	for i, f := range cs.fired {
		t := f.t
		t.DocumentID = f.doc.GetID()
		if t.Number == "" {
			t.Number = f.doc.GetNumber()
		}
		out[i] = t
	}
	return out
}

func (cs *changeSet) validate(ctx context.Context, doc domain.Document) bool {
	if cs.err != nil {
		return false
	}
	if v, ok := doc.(entity.Validatable); ok {
		if err := v.Validate(ctx); err != nil {
			cs.err = err
			return false
		}
	}
	return true
}

// numbering is how a created document gets its number.
type numbering struct {
	cfg  numerator.Config
	opts *numerator.Options
}

func stageCreate[T domain.Document](ctx context.Context, s *Service, cs *changeSet, store domain.DocumentStore[T], doc T, num numbering) {
	if !cs.validate(ctx, doc) {
		return
	}
	cs.steps = append(cs.steps, step{
		name: "create " + doc.Kind(),
		apply: func(ctx context.Context) error {
			if doc.GetNumber() == "" {
				n, err := s.numbers.GetNextNumber(ctx, num.cfg, num.opts, s.now())
				if err != nil {
					return fmt.Errorf("generate number: %w", err)
				}
				doc.SetNumber(n)
			}
			return store.Create(ctx, doc)
		},
	})
}

func stageUpdate[T domain.Document](ctx context.Context, cs *changeSet, store domain.DocumentStore[T], doc T) {
	if !cs.validate(ctx, doc) {
		return
	}
	cs.steps = append(cs.steps, step{
		name: "update " + doc.Kind() + " " + doc.GetNumber(),
		apply: func(ctx context.Context) error {
			return store.Update(ctx, doc)
		},
	})
}

// apply writes the change set in one transaction. A failing single-step
// change set returns the step's own error; a multi-step one returns
// ORCHESTRATION_FAILURE listing what ran before the rollback.
func (s *Service) apply(ctx context.Context, cs *changeSet) error {
	if cs.err != nil {
		return cs.err
	}

	ctx, span := tracer.Start(ctx, "pipeline."+cs.operation,
		trace.WithAttributes(attribute.Int("pipeline.steps", len(cs.steps))))
	defer span.End()

	var succeeded []string
	failed := ""
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		succeeded = succeeded[:0]
		failed = ""
		for _, st := range cs.steps {
			if err := st.apply(ctx); err != nil {
				failed = st.name
				return err
			}
			succeeded = append(succeeded, st.name)
		}
		if s.events != nil && len(cs.fired) > 0 {
			if err := s.events.Record(ctx, cs.transitions()); err != nil {
				failed = "record transitions"
				return err
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, cs.operation)

		if len(cs.steps) <= 1 {
			return err
		}
		if failed == "" {
			failed = "commit"
		}
		logger.Error(ctx, "change set rolled back",
			"operation", cs.operation,
			"succeeded", succeeded,
			"failed", failed,
			"error", err)
		if s.observer != nil {
			s.observer.OrchestrationFailed(ctx, cs.operation, err)
		}
		return apperror.NewOrchestrationFailure(cs.operation, append([]string(nil), succeeded...), []string{failed}, err)
	}

	for _, t := range cs.transitions() {
		logger.Info(ctx, "document transitioned",
			"document", t.Document,
			"number", t.Number,
			"action", t.Action,
			"from", t.From,
			"to", t.To)
		if s.observer != nil {
			s.observer.Transitioned(ctx, t)
		}
	}
	return nil
}
