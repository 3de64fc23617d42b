package catalogs

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"orderflow/internal/core/apperror"
	"orderflow/internal/core/id"
)

// Seed is the reference data loaded at startup by the demo server and the
// seed command.
type Seed struct {
	Items      []Item      `json:"items"`
	Warehouses []Warehouse `json:"warehouses"`
	Suppliers  []Supplier  `json:"suppliers"`
	Customers  []Customer  `json:"customers"`
}

// ReadSeed decodes and validates a seed document.
func ReadSeed(r io.Reader) (Seed, error) {
	var s Seed
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return Seed{}, fmt.Errorf("decode catalog seed: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Seed{}, err
	}
	return s, nil
}

// LoadSeedFile reads the seed at path.
func LoadSeedFile(path string) (Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return Seed{}, fmt.Errorf("open catalog seed: %w", err)
	}
	defer f.Close()
	return ReadSeed(f)
}

// Validate checks ids, codes and names. At most one warehouse may be the
// default.
func (s Seed) Validate() error {
	seen := make(map[id.ID]string)
	check := func(kind string, entityID id.ID, code, name string) error {
		if id.IsNil(entityID) {
			return apperror.NewValidation("id is required").
				WithDetail("entity", kind).
				WithDetail("code", code)
		}
		if prev, ok := seen[entityID]; ok {
			return apperror.NewValidation("duplicate id").
				WithDetail("entity", kind).
				WithDetail("id", entityID.String()).
				WithDetail("previous", prev)
		}
		seen[entityID] = kind
		if strings.TrimSpace(code) == "" || strings.TrimSpace(name) == "" {
			return apperror.NewValidation("code and name are required").
				WithDetail("entity", kind).
				WithDetail("id", entityID.String())
		}
		return nil
	}

	for _, v := range s.Items {
		if err := check("item", v.ID, v.Code, v.Name); err != nil {
			return err
		}
		if v.DefaultTaxPercent.IsNegative() {
			return apperror.NewValidation("tax percent must not be negative").
				WithDetail("entity", "item").
				WithDetail("code", v.Code)
		}
	}
	defaults := 0
	for _, v := range s.Warehouses {
		if err := check("warehouse", v.ID, v.Code, v.Name); err != nil {
			return err
		}
		if v.IsDefault {
			defaults++
		}
	}
	if defaults > 1 {
		return apperror.NewValidation("more than one default warehouse")
	}
	for _, v := range s.Suppliers {
		if err := check("supplier", v.ID, v.Code, v.Name); err != nil {
			return err
		}
	}
	for _, v := range s.Customers {
		if err := check("customer", v.ID, v.Code, v.Name); err != nil {
			return err
		}
	}
	return nil
}

// Load puts every seed entity into m.
func (s Seed) Load(m *MemoryCatalog) {
	for _, v := range s.Items {
		m.PutItem(v)
	}
	for _, v := range s.Warehouses {
		m.PutWarehouse(v)
	}
	for _, v := range s.Suppliers {
		m.PutSupplier(v)
	}
	for _, v := range s.Customers {
		m.PutCustomer(v)
	}
}
