package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrProgressNotFound is returned when a player has no saved progression.
var ErrProgressNotFound = errors.New("progress not found")

// Progress is one player's persistent progression between battles.
type Progress struct {
	Player         string
	Currency       int64
	UnlockedSkills []string
	UpdatedAt      time.Time
}

// BestTime is the fastest recorded clear of one stage level.
type BestTime struct {
	Level    int
	Duration time.Duration
}

// ProgressRepository provides progression persistence operations.
type ProgressRepository struct {
	db *pgxpool.Pool
}

// NewProgressRepository creates a ProgressRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewProgressRepository(db *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Get retrieves the progression for player.
//
// Postcondition: Returns the Progress or ErrProgressNotFound.
func (r *ProgressRepository) Get(ctx context.Context, player string) (*Progress, error) {
	var p Progress
	err := r.db.QueryRow(ctx, `
		SELECT player, currency, unlocked_skills, updated_at
		FROM progress WHERE player = $1`,
		player,
	).Scan(&p.Player, &p.Currency, &p.UnlockedSkills, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProgressNotFound
		}
		return nil, fmt.Errorf("querying progress: %w", err)
	}
	if p.UnlockedSkills == nil {
		p.UnlockedSkills = []string{}
	}
	return &p, nil
}

// Save inserts or updates the progression row for p.Player. p.Currency seeds
// the balance of a new row only; an existing balance changes solely through
// AddCurrency, so concurrent sessions for one player cannot overwrite it.
//
// Precondition: p must not be nil; p.Player must be non-empty.
// Postcondition: p.UpdatedAt and p.Currency are refreshed from the database.
func (r *ProgressRepository) Save(ctx context.Context, p *Progress) error {
	if p.Player == "" {
		return errors.New("progress: player must not be empty")
	}
	skills := p.UnlockedSkills
	if skills == nil {
		skills = []string{}
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO progress (player, currency, unlocked_skills, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (player) DO UPDATE
		SET unlocked_skills = EXCLUDED.unlocked_skills,
		    updated_at = NOW()
		RETURNING currency, updated_at`,
		p.Player, p.Currency, skills,
	).Scan(&p.Currency, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving progress: %w", err)
	}
	return nil
}

// AddCurrency credits n to player's balance, creating the row if needed, and
// returns the new balance.
//
// Precondition: n >= 0.
func (r *ProgressRepository) AddCurrency(ctx context.Context, player string, n int64) (int64, error) {
	if n < 0 {
		return 0, fmt.Errorf("progress: cannot add negative currency %d", n)
	}
	var balance int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO progress (player, currency, unlocked_skills, updated_at)
		VALUES ($1, $2, '{}', NOW())
		ON CONFLICT (player) DO UPDATE
		SET currency = progress.currency + EXCLUDED.currency,
		    updated_at = NOW()
		RETURNING currency`,
		player, n,
	).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("adding currency: %w", err)
	}
	return balance, nil
}

// RecordBestTime stores d as the clear time for level unless a faster time is
// already recorded.
//
// Precondition: player must already have a progress row.
// Postcondition: improved is true iff d replaced an existing time or was the
// first time recorded.
func (r *ProgressRepository) RecordBestTime(ctx context.Context, player string, level int, d time.Duration) (improved bool, err error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO best_times (player, stage_level, millis)
		VALUES ($1, $2, $3)
		ON CONFLICT (player, stage_level) DO UPDATE
		SET millis = EXCLUDED.millis
		WHERE best_times.millis > EXCLUDED.millis`,
		player, level, d.Milliseconds(),
	)
	if err != nil {
		return false, fmt.Errorf("recording best time: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// BestTimes lists player's recorded clear times ordered by stage level.
func (r *ProgressRepository) BestTimes(ctx context.Context, player string) ([]BestTime, error) {
	rows, err := r.db.Query(ctx, `
		SELECT stage_level, millis FROM best_times
		WHERE player = $1 ORDER BY stage_level`,
		player,
	)
	if err != nil {
		return nil, fmt.Errorf("listing best times: %w", err)
	}
	defer rows.Close()

	var out []BestTime
	for rows.Next() {
		var (
			level  int
			millis int64
		)
		if err := rows.Scan(&level, &millis); err != nil {
			return nil, fmt.Errorf("scanning best time row: %w", err)
		}
		out = append(out, BestTime{Level: level, Duration: time.Duration(millis) * time.Millisecond})
	}
	return out, rows.Err()
}
