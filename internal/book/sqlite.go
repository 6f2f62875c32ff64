// Package book persists placed bets in SQLite.
package book

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/cypherlabdev/betdesk-service/internal/models"
)

var (
	// ErrBetNotFound is returned when no bet exists for the given id.
	ErrBetNotFound = errors.New("bet not found")
	// ErrAlreadySettled is returned when settling a bet that already left
	// the pending state.
	ErrAlreadySettled = errors.New("bet already settled")
)

// Decimal columns are TEXT so odds and stakes round-trip exactly.
const schema = `
CREATE TABLE IF NOT EXISTS bets (
    id           TEXT PRIMARY KEY,
    match_name   TEXT NOT NULL,
    market_type  TEXT NOT NULL,
    selection    TEXT NOT NULL,
    line         TEXT,
    offered_odds TEXT NOT NULL,
    fair_odds    TEXT NOT NULL,
    ev_percent   TEXT NOT NULL,
    stake        TEXT NOT NULL,
    status       TEXT NOT NULL DEFAULT 'pending',
    result_score TEXT,
    placed_at    TEXT NOT NULL,
    settled_at   TEXT
);

CREATE INDEX IF NOT EXISTS idx_bets_placed_at ON bets(placed_at DESC);
CREATE INDEX IF NOT EXISTS idx_bets_status    ON bets(status);
`

// SQLiteBook stores the position book in SQLite (pure Go driver, no CGo).
type SQLiteBook struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewSQLiteBook opens (or creates) the book at the given path and applies
// the schema.
func NewSQLiteBook(path string, logger zerolog.Logger) (*SQLiteBook, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open book at %q: %w", path, err)
	}
	// SQLite is single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply book schema: %w", err)
	}

	return &SQLiteBook{
		db:     db,
		logger: logger.With().Str("component", "bet_book").Logger(),
	}, nil
}

// Insert records a newly placed bet
func (b *SQLiteBook) Insert(ctx context.Context, rec *models.BetRecord) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO bets
			(id, match_name, market_type, selection, line,
			 offered_odds, fair_odds, ev_percent, stake,
			 status, result_score, placed_at, settled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.MatchName,
		rec.MarketType,
		rec.Selection,
		rec.Line,
		rec.OfferedOdds,
		rec.FairOdds,
		rec.EVPercent,
		rec.Stake,
		string(rec.Status),
		nullString(rec.ResultScore),
		formatTime(rec.PlacedAt),
		formatTimePtr(rec.SettledAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert bet: %w", err)
	}

	b.logger.Debug().
		Str("bet_id", rec.ID.String()).
		Str("match_name", rec.MatchName).
		Str("market_type", rec.MarketType).
		Str("selection", rec.Selection).
		Msg("recorded bet")

	return nil
}

// Get retrieves a single bet by id
func (b *SQLiteBook) Get(ctx context.Context, id uuid.UUID) (*models.BetRecord, error) {
	row := b.db.QueryRowContext(ctx, selectColumns+` FROM bets WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, ErrBetNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}

	return rec, nil
}

// List returns every recorded bet, newest first
func (b *SQLiteBook) List(ctx context.Context) ([]models.BetRecord, error) {
	rows, err := b.db.QueryContext(ctx, selectColumns+` FROM bets ORDER BY placed_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list bets: %w", err)
	}
	defer rows.Close()

	records := make([]models.BetRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		records = append(records, *rec)
	}

	return records, rows.Err()
}

// Settle moves a pending bet to a terminal status. A bet settles exactly
// once; replays report ErrAlreadySettled.
func (b *SQLiteBook) Settle(ctx context.Context, id uuid.UUID, status models.BetStatus, resultScore string) (*models.BetRecord, error) {
	if !status.IsSettlement() {
		return nil, fmt.Errorf("invalid settlement status: %s", status)
	}

	now := time.Now().UTC()
	res, err := b.db.ExecContext(ctx, `
		UPDATE bets
		SET status = ?, result_score = ?, settled_at = ?
		WHERE id = ? AND status = ?`,
		string(status), nullString(resultScore), formatTime(now),
		id, string(models.BetStatusPending),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to settle bet: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read settle result: %w", err)
	}
	if affected == 0 {
		var current string
		err := b.db.QueryRowContext(ctx, `SELECT status FROM bets WHERE id = ?`, id).Scan(&current)
		if err == sql.ErrNoRows {
			return nil, ErrBetNotFound
		} else if err != nil {
			return nil, fmt.Errorf("failed to check bet status: %w", err)
		}
		return nil, ErrAlreadySettled
	}

	b.logger.Info().
		Str("bet_id", id.String()).
		Str("status", string(status)).
		Msg("settled bet")

	return b.Get(ctx, id)
}

// Ping checks the database connection
func (b *SQLiteBook) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

// Close closes the database connection
func (b *SQLiteBook) Close() error {
	return b.db.Close()
}

const selectColumns = `
	SELECT id, match_name, market_type, selection, line,
	       offered_odds, fair_odds, ev_percent, stake,
	       status, result_score, placed_at, settled_at`

// rowScanner covers both sql.Row and sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.BetRecord, error) {
	var (
		rec         models.BetRecord
		status      string
		resultScore sql.NullString
		placedAt    string
		settledAt   sql.NullString
	)

	if err := row.Scan(
		&rec.ID,
		&rec.MatchName,
		&rec.MarketType,
		&rec.Selection,
		&rec.Line,
		&rec.OfferedOdds,
		&rec.FairOdds,
		&rec.EVPercent,
		&rec.Stake,
		&status,
		&resultScore,
		&placedAt,
		&settledAt,
	); err != nil {
		return nil, err
	}

	rec.Status = models.BetStatus(status)
	rec.ResultScore = resultScore.String

	var err error
	rec.PlacedAt, err = parseTime(placedAt)
	if err != nil {
		return nil, fmt.Errorf("bad placed_at %q: %w", placedAt, err)
	}
	if settledAt.Valid {
		t, err := parseTime(settledAt.String)
		if err != nil {
			return nil, fmt.Errorf("bad settled_at %q: %w", settledAt.String, err)
		}
		rec.SettledAt = &t
	}

	return &rec, nil
}

// timeLayout is RFC 3339 in UTC with fixed-width fractional seconds, so the
// TEXT column sorts chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
