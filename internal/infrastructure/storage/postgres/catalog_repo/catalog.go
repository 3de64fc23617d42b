package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"orderflow/internal/core/id"
	"orderflow/internal/domain/catalogs"
	"orderflow/internal/infrastructure/storage/postgres"
)

const (
	itemTable      = "cat_items"
	warehouseTable = "cat_warehouses"
	supplierTable  = "cat_suppliers"
	customerTable  = "cat_customers"
)

// Catalog implements catalogs.Lookup over the cat_* tables.
type Catalog struct {
	txManager  *postgres.TxManager
	items      *BaseCatalogRepo[catalogs.Item]
	warehouses *BaseCatalogRepo[catalogs.Warehouse]
	suppliers  *BaseCatalogRepo[catalogs.Supplier]
	customers  *BaseCatalogRepo[catalogs.Customer]
}

var _ catalogs.Lookup = (*Catalog)(nil)

// New creates a catalog. Lookups join the transaction in ctx, if any.
func New(txManager *postgres.TxManager) *Catalog {
	return &Catalog{
		txManager:  txManager,
		items:      NewBaseCatalogRepo[catalogs.Item](txManager, itemTable, "item"),
		warehouses: NewBaseCatalogRepo[catalogs.Warehouse](txManager, warehouseTable, "warehouse"),
		suppliers:  NewBaseCatalogRepo[catalogs.Supplier](txManager, supplierTable, "supplier"),
		customers:  NewBaseCatalogRepo[catalogs.Customer](txManager, customerTable, "customer"),
	}
}

func (c *Catalog) Item(ctx context.Context, itemID id.ID) (catalogs.Item, error) {
	return c.items.GetByID(ctx, itemID)
}

func (c *Catalog) Warehouse(ctx context.Context, warehouseID id.ID) (catalogs.Warehouse, error) {
	return c.warehouses.GetByID(ctx, warehouseID)
}

func (c *Catalog) Supplier(ctx context.Context, supplierID id.ID) (catalogs.Supplier, error) {
	return c.suppliers.GetByID(ctx, supplierID)
}

func (c *Catalog) Customer(ctx context.Context, customerID id.ID) (catalogs.Customer, error) {
	return c.customers.GetByID(ctx, customerID)
}

// DefaultWarehouse returns the active warehouse flagged is_default, if any.
func (c *Catalog) DefaultWarehouse(ctx context.Context) (catalogs.Warehouse, bool, error) {
	q := c.warehouses.baseSelect().
		Where(squirrel.Eq{"is_default": true, "is_active": true}).
		Limit(1)
	sql, args, err := q.ToSql()
	if err != nil {
		return catalogs.Warehouse{}, false, fmt.Errorf("build query: %w", err)
	}

	var wh catalogs.Warehouse
	if err := pgxscan.Get(ctx, c.txManager.GetQuerier(ctx), &wh, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return catalogs.Warehouse{}, false, nil
		}
		return catalogs.Warehouse{}, false, fmt.Errorf("default warehouse: %w", err)
	}
	return wh, true, nil
}

// clearDefaultQuery drops the default flag from every warehouse.
func clearDefaultQuery() (string, []any, error) {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Update(warehouseTable).
		Set("is_default", false).
		Where(squirrel.Eq{"is_default": true}).
		ToSql()
}

// Import upserts every seed entity in one transaction. A seed that names a
// default warehouse replaces the current default.
func (c *Catalog) Import(ctx context.Context, seed catalogs.Seed) error {
	if err := seed.Validate(); err != nil {
		return err
	}
	return c.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, w := range seed.Warehouses {
			if !w.IsDefault {
				continue
			}
			sql, args, err := clearDefaultQuery()
			if err != nil {
				return fmt.Errorf("build query: %w", err)
			}
			if _, err := c.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
				return fmt.Errorf("clear default warehouse: %w", err)
			}
			break
		}

		for _, v := range seed.Items {
			if err := c.items.Upsert(ctx, v); err != nil {
				return err
			}
		}
		for _, v := range seed.Warehouses {
			if err := c.warehouses.Upsert(ctx, v); err != nil {
				return err
			}
		}
		for _, v := range seed.Suppliers {
			if err := c.suppliers.Upsert(ctx, v); err != nil {
				return err
			}
		}
		for _, v := range seed.Customers {
			if err := c.customers.Upsert(ctx, v); err != nil {
				return err
			}
		}
		return nil
	})
}
