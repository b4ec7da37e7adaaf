package execution

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/rotation/internal/domain"
	"github.com/aristath/rotation/internal/modules/ledger"
	testingpkg "github.com/aristath/rotation/internal/testing"
)

var quiet = zerolog.New(nil).Level(zerolog.Disabled)

func TestDiffOrders(t *testing.T) {
	held := domain.Allocation{"GLD": 0.7, "BIL": 0.3}
	target := domain.Allocation{"VT": 0.5, "BIL": 0.5}

	orders := DiffOrders(held, target)
	require.Len(t, orders, 3)
	assert.Equal(t, domain.Order{Symbol: "GLD", Side: domain.OrderSideSell, Weight: 0.7}, orders[0])
	assert.Equal(t, "BIL", orders[1].Symbol)
	assert.Equal(t, domain.OrderSideBuy, orders[1].Side)
	assert.InDelta(t, 0.2, orders[1].Weight, 1e-12)
	assert.Equal(t, domain.Order{Symbol: "VT", Side: domain.OrderSideBuy, Weight: 0.5}, orders[2])

	assert.Empty(t, DiffOrders(target, target))
}

func TestPaperBroker_LiquidatesThenTargets(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "ledger")
	defer cleanup()

	repo := ledger.NewRepository(db.Conn(), quiet)
	broker := NewPaperBroker(repo, quiet)
	ctx := context.Background()

	orders, err := broker.Apply(ctx, domain.Allocation{"GLD": 0.6, "BIL": 0.4})
	require.NoError(t, err)
	assert.Len(t, orders, 2)
	for _, o := range orders {
		assert.Equal(t, domain.OrderSideBuy, o.Side)
	}

	orders, err = broker.Apply(ctx, domain.Allocation{"BIL": 1.0})
	require.NoError(t, err)
	assert.Equal(t, []domain.Order{
		{Symbol: "GLD", Side: domain.OrderSideSell, Weight: 0.6},
		{Symbol: "BIL", Side: domain.OrderSideBuy, Weight: 0.6},
	}, orders)

	positions, err := repo.GetPositions(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, "BIL", positions[0].Symbol)
	assert.Equal(t, 1.0, positions[0].Weight)
	assert.Equal(t, "paper", broker.Name())
}

func TestLogExecutor_PlacesNoOrders(t *testing.T) {
	e := NewLogExecutor(quiet)
	orders, err := e.Apply(context.Background(), domain.Allocation{"VT": 0.5, "BIL": 0.5})
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Equal(t, "log", e.Name())
}
