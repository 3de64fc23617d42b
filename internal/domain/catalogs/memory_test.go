package catalogs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderflow/internal/core/apperror"
	"orderflow/internal/core/id"
)

func TestMemoryCatalog_Lookup(t *testing.T) {
	ctx := context.Background()
	cat := NewMemoryCatalog()

	item := Item{ID: id.New(), Code: "STL-10", Name: "Steel rod 10mm", IsActive: true}
	cat.PutItem(item)

	got, err := cat.Item(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item, got)

	_, err = cat.Item(ctx, id.New())
	assert.True(t, apperror.IsNotFound(err))

	_, err = cat.Customer(ctx, id.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestRef_SnapshotIsStable(t *testing.T) {
	ctx := context.Background()
	cat := NewMemoryCatalog()
	sup := Supplier{ID: id.New(), Code: "ACME", Name: "Acme Metals"}
	cat.PutSupplier(sup)

	got, err := cat.Supplier(ctx, sup.ID)
	require.NoError(t, err)
	ref := got.Ref()

	sup.Name = "Acme Metals Ltd"
	cat.PutSupplier(sup)

	assert.Equal(t, "Acme Metals", ref.Name)
	assert.False(t, ref.IsZero())
	assert.True(t, Ref{}.IsZero())
}

func TestDefaultWarehouse(t *testing.T) {
	cat := NewMemoryCatalog()
	_, ok := cat.DefaultWarehouse()
	assert.False(t, ok)

	main := Warehouse{ID: id.New(), Code: "MAIN", Name: "Main", IsDefault: true, IsActive: true}
	cat.PutWarehouse(Warehouse{ID: id.New(), Code: "B", Name: "Backup", IsActive: true})
	cat.PutWarehouse(main)

	got, ok := cat.DefaultWarehouse()
	require.True(t, ok)
	assert.Equal(t, main.ID, got.ID)
}

func TestFuncs_NilReportsNotFound(t *testing.T) {
	f := Funcs{}
	_, err := f.Warehouse(context.Background(), id.New())
	assert.True(t, apperror.IsNotFound(err))

	want := Item{ID: id.New(), Code: "X"}
	f.ItemFunc = func(context.Context, id.ID) (Item, error) { return want, nil }
	got, err := f.Item(context.Background(), want.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
