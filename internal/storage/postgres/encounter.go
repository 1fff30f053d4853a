package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neonreach/engine/internal/game/combat"
)

// ErrEncounterNotFound is returned when an encounter lookup yields no results.
var ErrEncounterNotFound = errors.New("encounter not found")

// EncounterRecord is one finished encounter as persisted for balance analysis.
type EncounterRecord struct {
	ID     string
	Seed   int64
	Rounds int
	Result string
	// Snapshot is the final encounter state.
	Snapshot combat.Snapshot
	// Transcript is the full ordered event log of the encounter.
	Transcript []combat.Event
	CreatedAt  time.Time
}

// EncounterRepository persists finished encounter outcomes.
type EncounterRepository struct {
	db *pgxpool.Pool
}

// NewEncounterRepository creates an EncounterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewEncounterRepository(db *pgxpool.Pool) *EncounterRepository {
	return &EncounterRepository{db: db}
}

// Record inserts a finished encounter.
//
// Precondition: rec.ID must be the encounter's UUID; rec.Result must be the
// final result string.
// Postcondition: Returns the stored record with CreatedAt set.
func (r *EncounterRepository) Record(ctx context.Context, rec *EncounterRecord) (*EncounterRecord, error) {
	snap, err := json.Marshal(rec.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("marshalling snapshot: %w", err)
	}
	transcript, err := json.Marshal(rec.Transcript)
	if err != nil {
		return nil, fmt.Errorf("marshalling transcript: %w", err)
	}

	out := *rec
	err = r.db.QueryRow(ctx, `
		INSERT INTO encounters (id, seed, rounds, result, snapshot, transcript)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at`,
		rec.ID, rec.Seed, rec.Rounds, rec.Result, snap, transcript,
	).Scan(&out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting encounter: %w", err)
	}
	return &out, nil
}

// GetByID retrieves a recorded encounter by its UUID.
//
// Postcondition: Returns the record or ErrEncounterNotFound.
func (r *EncounterRepository) GetByID(ctx context.Context, id string) (*EncounterRecord, error) {
	var (
		rec        EncounterRecord
		snap       []byte
		transcript []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, seed, rounds, result, snapshot, transcript, created_at
		FROM encounters WHERE id = $1`,
		id,
	).Scan(&rec.ID, &rec.Seed, &rec.Rounds, &rec.Result, &snap, &transcript, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEncounterNotFound
		}
		return nil, fmt.Errorf("querying encounter: %w", err)
	}
	if err := json.Unmarshal(snap, &rec.Snapshot); err != nil {
		return nil, fmt.Errorf("unmarshalling snapshot: %w", err)
	}
	if err := json.Unmarshal(transcript, &rec.Transcript); err != nil {
		return nil, fmt.Errorf("unmarshalling transcript: %w", err)
	}
	return &rec, nil
}

// ListRecent returns up to limit encounters, newest first, without their
// transcripts.
//
// Precondition: limit must be >= 1.
func (r *EncounterRepository) ListRecent(ctx context.Context, limit int) ([]*EncounterRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, seed, rounds, result, snapshot, created_at
		FROM encounters ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing encounters: %w", err)
	}
	defer rows.Close()

	recs := make([]*EncounterRecord, 0, limit)
	for rows.Next() {
		var (
			rec  EncounterRecord
			snap []byte
		)
		if err := rows.Scan(&rec.ID, &rec.Seed, &rec.Rounds, &rec.Result, &snap, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning encounter row: %w", err)
		}
		if err := json.Unmarshal(snap, &rec.Snapshot); err != nil {
			return nil, fmt.Errorf("unmarshalling snapshot: %w", err)
		}
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

// ResultCounts returns the number of recorded encounters per result string.
// Useful for quick balance sanity checks after a sim run.
func (r *EncounterRepository) ResultCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `SELECT result, COUNT(*) FROM encounters GROUP BY result`)
	if err != nil {
		return nil, fmt.Errorf("counting encounter results: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			result string
			n      int
		)
		if err := rows.Scan(&result, &n); err != nil {
			return nil, fmt.Errorf("scanning result count: %w", err)
		}
		counts[result] = n
	}
	return counts, rows.Err()
}
