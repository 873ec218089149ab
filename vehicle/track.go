package vehicle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/caarlos0/pilotdash"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Fix is a GPS position with the time it was received.
type Fix struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Time      time.Time `json:"time"`
}

// TrackStore keeps the history of GPS fixes.
type TrackStore interface {
	Record(ctx context.Context, pos pilotdash.Position, at time.Time) error
	// Recent returns up to limit fixes, newest first.
	Recent(ctx context.Context, limit int) ([]Fix, error)
	Close() error
}

const defaultTrackSize = 1000

// MemoryTrack keeps the last fixes in memory.
type MemoryTrack struct {
	mu       sync.RWMutex
	buffer   []Fix
	capacity int
}

func NewMemoryTrack(capacity int) *MemoryTrack {
	if capacity <= 0 {
		capacity = defaultTrackSize
	}
	return &MemoryTrack{
		buffer:   make([]Fix, 0, capacity),
		capacity: capacity,
	}
}

func (t *MemoryTrack) Record(_ context.Context, pos pilotdash.Position, at time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.buffer) >= t.capacity {
		t.buffer = t.buffer[1:]
	}
	t.buffer = append(t.buffer, Fix{
		Latitude:  pos.Latitude,
		Longitude: pos.Longitude,
		Time:      at,
	})
	return nil
}

func (t *MemoryTrack) Recent(_ context.Context, limit int) ([]Fix, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if limit <= 0 || limit > len(t.buffer) {
		limit = len(t.buffer)
	}
	result := make([]Fix, 0, limit)
	for i := len(t.buffer) - 1; i >= len(t.buffer)-limit; i-- {
		result = append(result, t.buffer[i])
	}
	return result, nil
}

func (t *MemoryTrack) Close() error { return nil }

const createTrackTable = `CREATE TABLE IF NOT EXISTS track_fixes (
	id          BIGSERIAL PRIMARY KEY,
	latitude    DOUBLE PRECISION NOT NULL,
	longitude   DOUBLE PRECISION NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL
)`

// PostgresTrack stores fixes in the track_fixes table.
type PostgresTrack struct {
	pool *pgxpool.Pool
}

func NewPostgresTrack(ctx context.Context, url string) (*PostgresTrack, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	if _, err := pool.Exec(ctx, createTrackTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("could not create track table: %w", err)
	}
	return &PostgresTrack{pool: pool}, nil
}

func (t *PostgresTrack) Record(ctx context.Context, pos pilotdash.Position, at time.Time) error {
	if _, err := t.pool.Exec(
		ctx,
		`INSERT INTO track_fixes (latitude, longitude, recorded_at) VALUES ($1, $2, $3)`,
		pos.Latitude, pos.Longitude, at,
	); err != nil {
		return fmt.Errorf("could not record fix: %w", err)
	}
	return nil
}

func (t *PostgresTrack) Recent(ctx context.Context, limit int) ([]Fix, error) {
	if limit <= 0 {
		limit = defaultTrackSize
	}
	rows, err := t.pool.Query(
		ctx,
		`SELECT latitude, longitude, recorded_at FROM track_fixes ORDER BY recorded_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("could not query track: %w", err)
	}
	fixes, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Fix])
	if err != nil {
		return nil, fmt.Errorf("could not read track: %w", err)
	}
	return fixes, nil
}

func (t *PostgresTrack) Close() error {
	t.pool.Close()
	return nil
}
