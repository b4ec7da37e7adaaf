package history

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/rotation/internal/domain"
	testingpkg "github.com/aristath/rotation/internal/testing"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "history")
	t.Cleanup(cleanup)
	return NewRepository(db.Conn(), zerolog.New(nil).Level(zerolog.Disabled))
}

func TestRepository_SaveAndLoadAscending(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	series := testingpkg.SeriesFromCloses("GLD", []float64{10, 11, 12, 13, 14})
	// Store out of order to check sorting on read
	reversed := make([]domain.PricePoint, len(series.Points))
	for i, p := range series.Points {
		reversed[len(reversed)-1-i] = p
	}

	n, err := repo.SavePrices(ctx, "GLD", reversed)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	got, err := repo.GetSeries(ctx, "GLD", 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 11, 12, 13, 14}, got.Closes())
	assert.Equal(t, series.Points[0].Date, got.Points[0].Date)

	tail, err := repo.GetSeries(ctx, "GLD", 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{12, 13, 14}, tail.Closes())
}

func TestRepository_SkipsInvalidAndReplacesExisting(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	day := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)
	n, err := repo.SavePrices(ctx, "VT", []domain.PricePoint{
		{Date: day, Close: 100},
		{Date: day.AddDate(0, 0, 1), Close: math.NaN()},
		{Date: day.AddDate(0, 0, 2), Close: -5},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = repo.SavePrices(ctx, "VT", []domain.PricePoint{{Date: day, Close: 101}})
	require.NoError(t, err)

	count, err := repo.Count(ctx, "VT")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := repo.GetSeries(ctx, "VT", 0)
	require.NoError(t, err)
	require.Len(t, got.Points, 1)
	assert.Equal(t, 101.0, got.Points[0].Close)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), got.Points[0].Date)
}

func TestRepository_LatestDate(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, ok, err := repo.LatestDate(ctx, "BIL")
	require.NoError(t, err)
	assert.False(t, ok)

	series := testingpkg.FlatSeries("BIL", 10, 91)
	_, err = repo.SavePrices(ctx, "BIL", series.Points)
	require.NoError(t, err)

	latest, ok, err := repo.LatestDate(ctx, "BIL")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, series.Points[9].Date, latest)
}

func TestRepository_LoadPanelOmitsUnknownSymbols(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.SavePrices(ctx, "GLD", testingpkg.FlatSeries("GLD", 20, 180).Points)
	require.NoError(t, err)
	_, err = repo.SavePrices(ctx, "BIL", testingpkg.FlatSeries("BIL", 5, 91).Points)
	require.NoError(t, err)

	panel, err := repo.LoadPanel(ctx, []string{"GLD", "BIL", "IBIT"}, 10)
	require.NoError(t, err)

	assert.Equal(t, []string{"BIL", "GLD"}, panel.Symbols())
	assert.Equal(t, 10, panel.Len("GLD"))
	assert.Equal(t, 5, panel.Len("BIL"))
	assert.False(t, panel.Has("IBIT"))
}

func TestRepository_StoredSymbolsAndDelete(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, s := range []string{"VT", "GLD", "TLT"} {
		_, err := repo.SavePrices(ctx, s, testingpkg.FlatSeries(s, 4, 100).Points)
		require.NoError(t, err)
	}

	symbols, err := repo.StoredSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"GLD", "TLT", "VT"}, symbols)

	deleted, err := repo.DeleteSymbol(ctx, "TLT")
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)

	symbols, err = repo.StoredSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"GLD", "VT"}, symbols)
}
