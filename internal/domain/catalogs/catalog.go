// Package catalogs defines the reference entities staged documents point at.
// The pipeline never owns their storage: it reads them through Lookup and
// keeps a Ref snapshot on each document.
package catalogs

import (
	"github.com/shopspring/decimal"

	"orderflow/internal/core/id"
)

// Item is a purchasable or sellable product.
type Item struct {
	ID   id.ID  `db:"id" json:"id"`
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
	Unit string `db:"unit" json:"unit,omitempty"`

	// DefaultTaxPercent is used when a line does not carry its own rate
	DefaultTaxPercent decimal.Decimal `db:"default_tax_percent" json:"defaultTaxPercent"`

	IsActive bool `db:"is_active" json:"isActive"`
}

// Warehouse is a physical stock location.
type Warehouse struct {
	ID        id.ID  `db:"id" json:"id"`
	Code      string `db:"code" json:"code"`
	Name      string `db:"name" json:"name"`
	IsDefault bool   `db:"is_default" json:"isDefault"`
	IsActive  bool   `db:"is_active" json:"isActive"`
}

// Supplier is the counterparty of a purchase order.
type Supplier struct {
	ID   id.ID  `db:"id" json:"id"`
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`

	// PaymentTermsDays drives the invoice due date
	PaymentTermsDays int `db:"payment_terms_days" json:"paymentTermsDays"`
}

// Customer is the counterparty of a sales order.
type Customer struct {
	ID               id.ID  `db:"id" json:"id"`
	Code             string `db:"code" json:"code"`
	Name             string `db:"name" json:"name"`
	PaymentTermsDays int    `db:"payment_terms_days" json:"paymentTermsDays"`
}

// Ref is the denormalized snapshot a document keeps of a reference entity.
// Later edits of the entity do not touch existing documents.
type Ref struct {
	ID   id.ID  `json:"id"`
	Code string `json:"code,omitempty"`
	Name string `json:"name,omitempty"`
}

// IsZero reports an unset reference.
func (r Ref) IsZero() bool { return id.IsNil(r.ID) }

func (i Item) Ref() Ref      { return Ref{ID: i.ID, Code: i.Code, Name: i.Name} }
func (w Warehouse) Ref() Ref { return Ref{ID: w.ID, Code: w.Code, Name: w.Name} }
func (s Supplier) Ref() Ref  { return Ref{ID: s.ID, Code: s.Code, Name: s.Name} }
func (c Customer) Ref() Ref  { return Ref{ID: c.ID, Code: c.Code, Name: c.Name} }
