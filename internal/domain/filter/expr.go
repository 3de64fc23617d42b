// Package filter compiles CEL list predicates evaluated against documents.
//
// The expression sees the document's JSON form as `doc`, plus shortcuts:
// `status`, `number` and `total` (a double, 0 when the document has no totals).
//
//	status == "ordered" && total > 1000.0
//	doc.supplier.code == "ACME"
package filter

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/cel-go/cel"

	"orderflow/internal/core/apperror"
)

// Expr is a compiled boolean predicate. Safe for concurrent use.
type Expr struct {
	source  string
	program cel.Program
}

var env = mustEnv()

func mustEnv() *cel.Env {
	e, err := cel.NewEnv(
		cel.Variable("doc", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("status", cel.StringType),
		cel.Variable("number", cel.StringType),
		cel.Variable("total", cel.DoubleType),
	)
	if err != nil {
		panic(fmt.Sprintf("filter: build cel env: %v", err))
	}
	return e
}

// Compile parses and type-checks source. An empty source yields nil.
func Compile(source string) (*Expr, error) {
	if source == "" {
		return nil, nil
	}

	ast, iss := env.Compile(source)
	if iss != nil && iss.Err() != nil {
		return nil, apperror.NewValidation("invalid filter expression").
			WithDetail("filter", source).
			WithDetail("reason", iss.Err().Error())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, apperror.NewValidation("filter expression must be boolean").
			WithDetail("filter", source)
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, apperror.NewValidation("invalid filter expression").
			WithDetail("filter", source).
			WithCause(err)
	}
	return &Expr{source: source, program: prg}, nil
}

// String returns the expression source.
func (e *Expr) String() string {
	if e == nil {
		return ""
	}
	return e.source
}

// Match evaluates the predicate against doc. A nil Expr matches everything.
func (e *Expr) Match(doc any) (bool, error) {
	if e == nil {
		return true, nil
	}

	vars, err := activation(doc)
	if err != nil {
		return false, err
	}

	out, _, err := e.program.Eval(vars)
	if err != nil {
		return false, apperror.NewValidation("filter evaluation failed").
			WithDetail("filter", e.source).
			WithCause(err)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, apperror.NewValidation("filter expression must be boolean").
			WithDetail("filter", e.source)
	}
	return matched, nil
}

func activation(doc any) (map[string]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("filter: marshal document: %w", err)
	}
	m := map[string]any{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("filter: decode document: %w", err)
	}

	status, _ := m["status"].(string)
	number, _ := m["documentNo"].(string)
	return map[string]any{
		"doc":    m,
		"status": status,
		"number": number,
		"total":  totalOf(m),
	}, nil
}

// totalOf reads totals.total, which documents serialize as a decimal string.
func totalOf(m map[string]any) float64 {
	totals, ok := m["totals"].(map[string]any)
	if !ok {
		return 0
	}
	switch v := totals["total"].(type) {
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	case float64:
		return v
	}
	return 0
}
