package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/rotation/internal/database"
	"github.com/aristath/rotation/internal/domain"
	"github.com/aristath/rotation/internal/modules/history"
	testingpkg "github.com/aristath/rotation/internal/testing"
)

func newTestPanelService(t *testing.T, panel domain.PricePanel) (*PanelService, *testingpkg.MockPriceProvider, *history.Repository) {
	t.Helper()

	db, cleanup := testingpkg.NewTestDB(t, database.NameHistory)
	t.Cleanup(cleanup)

	log := zerolog.Nop()
	repo := history.NewRepository(db.Conn(), log)
	provider := testingpkg.NewMockPriceProvider(panel)
	svc := NewPanelService(provider, repo, nil, 3650, 400, log)

	asOf := panel.AsOf()
	svc.now = func() time.Time { return asOf.Add(20 * time.Hour) }
	return svc, provider, repo
}

func TestPanelService_SyncStoresFullWindow(t *testing.T) {
	panel := testingpkg.RotationPanel(300, "VT", "BIL", "GLD")
	svc, _, repo := newTestPanelService(t, panel)

	result, err := svc.Sync(context.Background(), []string{"VT", "GLD", "BIL"})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Symbols)
	assert.Equal(t, 900, result.Rows)
	assert.Equal(t, 300, result.PerSymbol["GLD"])

	count, err := repo.Count(context.Background(), "VT")
	require.NoError(t, err)
	assert.Equal(t, 300, count)
}

func TestPanelService_SyncIsIncremental(t *testing.T) {
	panel := testingpkg.RotationPanel(300, "VT", "BIL")
	svc, provider, _ := newTestPanelService(t, panel)
	ctx := context.Background()

	_, err := svc.Sync(ctx, []string{"VT"})
	require.NoError(t, err)

	result, err := svc.Sync(ctx, []string{"VT"})
	require.NoError(t, err)

	// The latest stored session is fetched again
	assert.Equal(t, 1, result.Rows)

	calls := provider.Calls()
	require.Len(t, calls, 2)
	assert.True(t, calls[1].From.Equal(panel["VT"].LastDate()))
	assert.True(t, calls[0].From.Before(testingpkg.FixtureStart))
}

func TestPanelService_SyncFailsOnProviderError(t *testing.T) {
	panel := testingpkg.RotationPanel(300, "VT", "BIL", "GLD")
	svc, provider, _ := newTestPanelService(t, panel)
	provider.SetError("GLD", errors.New("upstream unavailable"))

	result, err := svc.Sync(context.Background(), []string{"VT", "GLD", "BIL"})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "GLD")
	assert.Contains(t, err.Error(), "upstream unavailable")
}

func TestPanelService_PanelLimitsSessions(t *testing.T) {
	panel := testingpkg.RotationPanel(500, "VT", "BIL")
	svc, _, _ := newTestPanelService(t, panel)
	ctx := context.Background()

	_, err := svc.Sync(ctx, []string{"VT", "BIL"})
	require.NoError(t, err)

	loaded, err := svc.Panel(ctx, []string{"VT", "BIL", "GLD"})
	require.NoError(t, err)

	assert.Equal(t, 400, loaded.Len("VT"))
	assert.False(t, loaded.Has("GLD"))
	assert.True(t, loaded.AsOf().Equal(panel.AsOf()))
}
