package catalogs

import (
	"context"
	"sync"

	"orderflow/internal/core/apperror"
	"orderflow/internal/core/id"
)

// MemoryCatalog is a Lookup over maps, used by tests and the demo server.
type MemoryCatalog struct {
	mu         sync.RWMutex
	items      map[id.ID]Item
	warehouses map[id.ID]Warehouse
	suppliers  map[id.ID]Supplier
	customers  map[id.ID]Customer
}

// NewMemoryCatalog creates an empty catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		items:      make(map[id.ID]Item),
		warehouses: make(map[id.ID]Warehouse),
		suppliers:  make(map[id.ID]Supplier),
		customers:  make(map[id.ID]Customer),
	}
}

func (m *MemoryCatalog) PutItem(v Item) {
	m.mu.Lock()
	m.items[v.ID] = v
	m.mu.Unlock()
}

func (m *MemoryCatalog) PutWarehouse(v Warehouse) {
	m.mu.Lock()
	m.warehouses[v.ID] = v
	m.mu.Unlock()
}

func (m *MemoryCatalog) PutSupplier(v Supplier) {
	m.mu.Lock()
	m.suppliers[v.ID] = v
	m.mu.Unlock()
}

func (m *MemoryCatalog) PutCustomer(v Customer) {
	m.mu.Lock()
	m.customers[v.ID] = v
	m.mu.Unlock()
}

// DefaultWarehouse returns the warehouse flagged IsDefault, if any.
func (m *MemoryCatalog) DefaultWarehouse() (Warehouse, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, w := range m.warehouses {
		if w.IsDefault {
			return w, true
		}
	}
	return Warehouse{}, false
}

func (m *MemoryCatalog) Item(_ context.Context, itemID id.ID) (Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[itemID]
	if !ok {
		return Item{}, apperror.NewNotFound("item", itemID.String())
	}
	return v, nil
}

func (m *MemoryCatalog) Warehouse(_ context.Context, warehouseID id.ID) (Warehouse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.warehouses[warehouseID]
	if !ok {
		return Warehouse{}, apperror.NewNotFound("warehouse", warehouseID.String())
	}
	return v, nil
}

func (m *MemoryCatalog) Supplier(_ context.Context, supplierID id.ID) (Supplier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.suppliers[supplierID]
	if !ok {
		return Supplier{}, apperror.NewNotFound("supplier", supplierID.String())
	}
	return v, nil
}

func (m *MemoryCatalog) Customer(_ context.Context, customerID id.ID) (Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.customers[customerID]
	if !ok {
		return Customer{}, apperror.NewNotFound("customer", customerID.String())
	}
	return v, nil
}

var _ Lookup = (*MemoryCatalog)(nil)
