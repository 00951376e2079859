// Package archive persists tick and trade history to PostgreSQL, grounded
// on the teacher's pkg/database.PostgresDB connection setup (sqlx.Connect
// over lib/pq, a tuned connection pool) and pkg/repository's
// PostgresTradeRepository (parameterized ExecContext inserts, sqlx.GetContext
// for point reads). Where the teacher's repositories serve a request-driven
// API, Store here is driven by the event bus: it subscribes like any other
// reader and persists what it sees, never blocking the kernel's own tick
// pipeline.
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"living-economy-arena/econsim/internal/events"
)

// Store owns the database handle and schema operations.
type Store struct {
	db *sqlx.DB
}

// Open connects to Postgres with the teacher's pool tuning, scaled down for
// a single-process archiver rather than a multi-instance trading API.
func Open(connectionString string) (*Store, error) {
	db, err := sqlx.Connect("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("archive: failed to connect to postgres: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("archive: failed to ping postgres: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive, usable directly as a
// health.Checker's probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const schema = `
CREATE TABLE IF NOT EXISTS arena.ticks (
	tick             BIGINT PRIMARY KEY,
	processing_ms    DOUBLE PRECISION NOT NULL,
	orders_drained   INTEGER NOT NULL,
	trades_executed  INTEGER NOT NULL,
	rejected_count   INTEGER NOT NULL,
	market_faults    INTEGER NOT NULL,
	recorded_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS arena.trades (
	seq        BIGINT PRIMARY KEY,
	tick       BIGINT NOT NULL,
	market_id  TEXT NOT NULL,
	buyer_id   TEXT NOT NULL,
	seller_id  TEXT NOT NULL,
	price      TEXT NOT NULL,
	quantity   TEXT NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL
);
`

// Migrate creates the archive schema and tables if they do not already
// exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS arena"); err != nil {
		return fmt.Errorf("archive: failed to create schema: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("archive: failed to create tables: %w", err)
	}
	return nil
}

// InsertTick archives one tick's summary.
func (s *Store) InsertTick(ctx context.Context, e events.TickEvent, at time.Time) error {
	query := `
		INSERT INTO arena.ticks (tick, processing_ms, orders_drained, trades_executed, rejected_count, market_faults, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tick) DO NOTHING`

	_, err := s.db.ExecContext(ctx, query,
		e.Tick, float64(e.ProcessingTime.Microseconds())/1000.0, e.OrdersDrained,
		e.TradesExecuted, e.RejectedCount, e.MarketFaults, at)
	if err != nil {
		return fmt.Errorf("archive: failed to insert tick: %w", err)
	}
	return nil
}

// InsertTrade archives one settled trade.
func (s *Store) InsertTrade(ctx context.Context, seq uint64, e events.TradeEvent, at time.Time) error {
	query := `
		INSERT INTO arena.trades (seq, tick, market_id, buyer_id, seller_id, price, quantity, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (seq) DO NOTHING`

	_, err := s.db.ExecContext(ctx, query, seq, e.Tick, e.MarketID, e.BuyerID, e.SellerID, e.Price, e.Quantity, at)
	if err != nil {
		return fmt.Errorf("archive: failed to insert trade: %w", err)
	}
	return nil
}

// RecentTrades returns the most recently archived trades for a market, most
// recent first, mirroring PostgresTradeRepository.GetBySymbol.
func (s *Store) RecentTrades(ctx context.Context, marketID string, limit int) ([]TradeRecord, error) {
	query := `
		SELECT seq, tick, market_id, buyer_id, seller_id, price, quantity, recorded_at
		FROM arena.trades
		WHERE market_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2`

	var trades []TradeRecord
	if err := s.db.SelectContext(ctx, &trades, query, marketID, limit); err != nil {
		return nil, fmt.Errorf("archive: failed to query recent trades: %w", err)
	}
	return trades, nil
}

// TradeRecord is one archived trade row.
type TradeRecord struct {
	Seq        uint64    `db:"seq"`
	Tick       uint64    `db:"tick"`
	MarketID   string    `db:"market_id"`
	BuyerID    string    `db:"buyer_id"`
	SellerID   string    `db:"seller_id"`
	Price      string    `db:"price"`
	Quantity   string    `db:"quantity"`
	RecordedAt time.Time `db:"recorded_at"`
}
