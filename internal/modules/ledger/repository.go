// Package ledger records rebalance decisions and the paper position book.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/rotation/internal/database"
	"github.com/aristath/rotation/internal/domain"
	"github.com/aristath/rotation/internal/modules/rotation"
)

// ErrNotFound is returned when a decision does not exist
var ErrNotFound = errors.New("decision not found")

// DecisionRecord is one persisted rebalance
type DecisionRecord struct {
	ID        string             `json:"id"`
	Trigger   string             `json:"trigger"`
	Executor  string             `json:"executor"`
	AsOf      time.Time          `json:"as_of"`
	CreatedAt time.Time          `json:"created_at"`
	Decision  *rotation.Decision `json:"decision"`
	Orders    []domain.Order     `json:"orders"`
}

// Repository handles decision and position persistence
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new ledger repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "ledger").Logger(),
	}
}

// SaveDecision appends a decision together with a msgpack snapshot of the
// panel it was computed from.
func (r *Repository) SaveDecision(ctx context.Context, rec DecisionRecord, panel domain.PricePanel) error {
	if rec.Decision == nil {
		return fmt.Errorf("decision %s has no payload", rec.ID)
	}

	allocation, err := json.Marshal(rec.Decision.Allocation)
	if err != nil {
		return fmt.Errorf("failed to marshal allocation: %w", err)
	}
	decision, err := json.Marshal(rec.Decision)
	if err != nil {
		return fmt.Errorf("failed to marshal decision: %w", err)
	}
	orders := rec.Orders
	if orders == nil {
		orders = []domain.Order{}
	}
	ordersJSON, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("failed to marshal orders: %w", err)
	}

	var snapshot []byte
	if panel != nil {
		snapshot, err = msgpack.Marshal(panel)
		if err != nil {
			return fmt.Errorf("failed to encode panel snapshot: %w", err)
		}
	}

	riskOff := 0
	if rec.Decision.RiskOff {
		riskOff = 1
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO decisions (
			id, trigger, executor, as_of, created_at, winner, weight, cash_weight,
			risk_off, allocation, decision, orders, panel_snapshot
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID, rec.Trigger, rec.Executor, rec.AsOf.Unix(), rec.CreatedAt.Unix(),
		rec.Decision.Winner, rec.Decision.Weight, rec.Decision.CashWeight,
		riskOff, string(allocation), string(decision), string(ordersJSON), snapshot,
	)
	if err != nil {
		return fmt.Errorf("failed to insert decision %s: %w", rec.ID, err)
	}

	r.log.Debug().Str("id", rec.ID).Str("winner", rec.Decision.Winner).Msg("Decision recorded")
	return nil
}

const decisionColumns = `id, trigger, executor, as_of, created_at, decision, orders`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDecision(row rowScanner) (*DecisionRecord, error) {
	var rec DecisionRecord
	var asOf, createdAt int64
	var decision, orders string

	if err := row.Scan(&rec.ID, &rec.Trigger, &rec.Executor, &asOf, &createdAt, &decision, &orders); err != nil {
		return nil, err
	}

	rec.AsOf = time.Unix(asOf, 0).UTC()
	rec.CreatedAt = time.Unix(createdAt, 0).UTC()
	rec.Decision = &rotation.Decision{}
	if err := json.Unmarshal([]byte(decision), rec.Decision); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decision %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(orders), &rec.Orders); err != nil {
		return nil, fmt.Errorf("failed to unmarshal orders for %s: %w", rec.ID, err)
	}
	return &rec, nil
}

// Latest returns the most recent decision, or ErrNotFound
func (r *Repository) Latest(ctx context.Context) (*DecisionRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+decisionColumns+" FROM decisions ORDER BY created_at DESC, rowid DESC LIMIT 1")
	rec, err := scanDecision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest decision: %w", err)
	}
	return rec, nil
}

// GetByID returns one decision, or ErrNotFound
func (r *Repository) GetByID(ctx context.Context, id string) (*DecisionRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+decisionColumns+" FROM decisions WHERE id = ?", id)
	rec, err := scanDecision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get decision %s: %w", id, err)
	}
	return rec, nil
}

// List returns up to limit decisions, newest first
func (r *Repository) List(ctx context.Context, limit int) ([]DecisionRecord, error) {
	if limit <= 0 {
		limit = 12
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+decisionColumns+" FROM decisions ORDER BY created_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	records := make([]DecisionRecord, 0)
	for rows.Next() {
		rec, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decisions: %w", err)
	}
	return records, nil
}

// Snapshot decodes the panel stored with a decision
func (r *Repository) Snapshot(ctx context.Context, id string) (domain.PricePanel, error) {
	var blob []byte
	err := r.db.QueryRowContext(ctx, "SELECT panel_snapshot FROM decisions WHERE id = ?", id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot for %s: %w", id, err)
	}

	panel := domain.PricePanel{}
	if len(blob) == 0 {
		return panel, nil
	}
	if err := msgpack.Unmarshal(blob, &panel); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot for %s: %w", id, err)
	}
	return panel, nil
}

// GetPositions returns the paper book sorted by symbol
func (r *Repository) GetPositions(ctx context.Context) ([]domain.Position, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT symbol, weight, updated_at FROM positions ORDER BY symbol")
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	positions := make([]domain.Position, 0)
	for rows.Next() {
		var p domain.Position
		var updatedAt int64
		if err := rows.Scan(&p.Symbol, &p.Weight, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		p.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}
	return positions, nil
}

// ReplacePositions liquidates the whole book and writes the target weights
// in one transaction.
func (r *Repository) ReplacePositions(ctx context.Context, allocation domain.Allocation, at time.Time) error {
	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM positions"); err != nil {
			return fmt.Errorf("failed to liquidate positions: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, "INSERT INTO positions (symbol, weight, updated_at) VALUES (?, ?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, symbol := range allocation.Symbols() {
			if _, err := stmt.ExecContext(ctx, symbol, allocation[symbol], at.Unix()); err != nil {
				return fmt.Errorf("failed to insert position %s: %w", symbol, err)
			}
		}
		return nil
	})
}
