// Package history stores daily adjusted closes and assembles price panels from them.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/rotation/internal/database"
	"github.com/aristath/rotation/internal/domain"
)

// Repository handles daily price persistence
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new price history repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "history").Logger(),
	}
}

// SavePrices upserts the valid points of one symbol in a single transaction.
// Returns the number of rows written.
func (r *Repository) SavePrices(ctx context.Context, symbol string, points []domain.PricePoint) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}

	written := 0
	now := time.Now().Unix()
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO daily_prices (symbol, date, adjusted_close, fetched_at)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, p := range points {
			if !p.Valid() {
				continue
			}
			if _, err := stmt.ExecContext(ctx, symbol, toUnixDate(p.Date), p.Close, now); err != nil {
				return fmt.Errorf("failed to insert price for %s on %s: %w", symbol, p.Date.Format("2006-01-02"), err)
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to save prices for %s: %w", symbol, err)
	}

	r.log.Debug().Str("symbol", symbol).Int("count", written).Msg("Saved daily prices")
	return written, nil
}

// LatestDate returns the most recent stored session for symbol.
// ok is false when nothing is stored.
func (r *Repository) LatestDate(ctx context.Context, symbol string) (time.Time, bool, error) {
	var latest sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		"SELECT MAX(date) FROM daily_prices WHERE symbol = ?", symbol,
	).Scan(&latest)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query latest date for %s: %w", symbol, err)
	}
	if !latest.Valid {
		return time.Time{}, false, nil
	}
	return time.Unix(latest.Int64, 0).UTC(), true, nil
}

// Count returns the number of stored sessions for symbol
func (r *Repository) Count(ctx context.Context, symbol string) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM daily_prices WHERE symbol = ?", symbol,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count prices for %s: %w", symbol, err)
	}
	return count, nil
}

// GetSeries returns the most recent limit sessions of symbol in ascending
// date order. A non-positive limit returns the full history.
func (r *Repository) GetSeries(ctx context.Context, symbol string, limit int) (domain.PriceSeries, error) {
	query := `
		SELECT date, adjusted_close FROM (
			SELECT date, adjusted_close
			FROM daily_prices
			WHERE symbol = ?
			ORDER BY date DESC
			LIMIT ?
		) ORDER BY date ASC
	`
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.QueryContext(ctx, query, symbol, limit)
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("failed to query daily prices for %s: %w", symbol, err)
	}
	defer rows.Close()

	series := domain.PriceSeries{Symbol: symbol}
	for rows.Next() {
		var dateUnix int64
		var p domain.PricePoint
		if err := rows.Scan(&dateUnix, &p.Close); err != nil {
			return domain.PriceSeries{}, fmt.Errorf("failed to scan daily price: %w", err)
		}
		p.Date = time.Unix(dateUnix, 0).UTC()
		series.Points = append(series.Points, p)
	}
	if err := rows.Err(); err != nil {
		return domain.PriceSeries{}, fmt.Errorf("error iterating daily prices: %w", err)
	}

	return series, nil
}

// LoadPanel builds a panel of the given symbols, each limited to its most
// recent limit sessions. Symbols with no stored history are left out.
func (r *Repository) LoadPanel(ctx context.Context, symbols []string, limit int) (domain.PricePanel, error) {
	panel := make(domain.PricePanel, len(symbols))
	for _, symbol := range symbols {
		series, err := r.GetSeries(ctx, symbol, limit)
		if err != nil {
			return nil, err
		}
		if len(series.Points) == 0 {
			continue
		}
		panel[symbol] = series
	}
	return panel, nil
}

// StoredSymbols returns the distinct symbols with stored history, sorted
func (r *Repository) StoredSymbols(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT DISTINCT symbol FROM daily_prices ORDER BY symbol")
	if err != nil {
		return nil, fmt.Errorf("failed to query stored symbols: %w", err)
	}
	defer rows.Close()

	symbols := make([]string, 0)
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}
	return symbols, rows.Err()
}

// DeleteSymbol removes all stored history of symbol and returns the rows deleted
func (r *Repository) DeleteSymbol(ctx context.Context, symbol string) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM daily_prices WHERE symbol = ?", symbol)
	if err != nil {
		return 0, fmt.Errorf("failed to delete prices for %s: %w", symbol, err)
	}
	return result.RowsAffected()
}

func toUnixDate(t time.Time) int64 {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).Unix()
}
