package numerator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_Sequence(t *testing.T) {
	gen := NewMemory()
	ctx := context.Background()
	period := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	cfg := DefaultConfig("PO")

	first, err := gen.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "PO-2026-00001", first)

	second, err := gen.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "PO-2026-00002", second)

	other, err := gen.GetNextNumber(ctx, DefaultConfig("GRN"), nil, period)
	require.NoError(t, err)
	assert.Equal(t, "GRN-2026-00001", other)

	nextYear, err := gen.GetNextNumber(ctx, cfg, nil, period.AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, "PO-2027-00001", nextYear)
}

func TestMemory_SetNextNumber(t *testing.T) {
	gen := NewMemory()
	ctx := context.Background()
	period := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := DefaultConfig("INV")

	require.NoError(t, gen.SetNextNumber(ctx, cfg, period, 120))
	num, err := gen.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-00120", num)
	assert.Equal(t, int64(120), ParseNumber(num))
}

func TestMemory_Concurrent(t *testing.T) {
	gen := NewMemory()
	ctx := context.Background()
	period := time.Now()
	cfg := DefaultConfig("SO")

	var wg sync.WaitGroup
	seen := sync.Map{}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, err := gen.GetNextNumber(ctx, cfg, nil, period)
			assert.NoError(t, err)
			_, dup := seen.LoadOrStore(num, true)
			assert.False(t, dup, "duplicate number %s", num)
		}()
	}
	wg.Wait()
}

func TestConfig_Format(t *testing.T) {
	period := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "PL-2026-00042", DefaultConfig("PL").Format(period, 42))
	assert.Equal(t, "X-007", Config{Prefix: "X", PadWidth: 3}.Format(period, 7))
	assert.Equal(t, "DSP_2026_05", Config{Prefix: "DSP", ResetPeriod: "month"}.Key(period))
	assert.Equal(t, int64(-1), ParseNumber("garbage"))
}
