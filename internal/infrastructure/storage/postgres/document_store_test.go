package postgres

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderflow/internal/core/id"
	"orderflow/internal/domain"
)

func TestListQuery(t *testing.T) {
	parent := id.MustParse("0190f5c2-7a3e-7b1c-9d2e-3f4a5b6c7d8e")

	tests := []struct {
		name     string
		filter   domain.ListFilter
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "kind only",
			filter:   domain.ListFilter{},
			wantSQL:  "SELECT version, payload FROM documents WHERE kind = $1 ORDER BY created_at, id",
			wantArgs: []any{"purchase_order"},
		},
		{
			name:     "statuses and parent",
			filter:   domain.ListFilter{Statuses: []string{"ordered", "partially_received"}, ParentID: parent},
			wantSQL:  "SELECT version, payload FROM documents WHERE kind = $1 AND status IN ($2,$3) AND parent_id = $4 ORDER BY created_at, id",
			wantArgs: []any{"purchase_order", "ordered", "partially_received", parent},
		},
		{
			name:     "search",
			filter:   domain.ListFilter{Search: "PO-2026"},
			wantSQL:  "SELECT version, payload FROM documents WHERE kind = $1 AND number ILIKE $2 ORDER BY created_at, id",
			wantArgs: []any{"purchase_order", "%PO-2026%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := listQuery("purchase_order", tt.filter).ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{1, 2, 3, 4, 5}, page(items, 0, 0))
	assert.Equal(t, []int{3, 4}, page(items, 2, 2))
	assert.Equal(t, []int{5}, page(items, 4, 10))
	assert.Empty(t, page(items, 9, 2))
}

func TestHistory_CompressesLargePayloads(t *testing.T) {
	h, err := NewHistory(nil)
	require.NoError(t, err)

	small := []byte(`{"status":"draft"}`)
	row := h.encode(small)
	assert.Equal(t, CompressionNone, row.Compression)
	assert.Equal(t, small, row.Payload)
	assert.Nil(t, row.PayloadCompressed)

	large := bytes.Repeat([]byte(`{"lineNo":1,"item":"STL-10"},`), 1000)
	require.Greater(t, len(large), DefaultCompressThreshold)
	row = h.encode(large)
	assert.Equal(t, CompressionZstd, row.Compression)
	assert.Nil(t, row.Payload)
	assert.Less(t, len(row.PayloadCompressed), len(large))

	back, err := h.decode(row)
	require.NoError(t, err)
	assert.Equal(t, large, back)
}
