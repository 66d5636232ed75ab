package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cory-johannsen/lotto/internal/lottery"
	"github.com/cory-johannsen/lotto/internal/lotto/period"
	"github.com/cory-johannsen/lotto/internal/lotto/result"
)

const resultColumns = `r.draw_id, r.first_prize, r.three_digit_front, r.three_digit_back, r.two_digit_back,
	r.narrative, r.inspiration, r.chaos_level, r.algorithm, r.is_locked, r.announced_at`

// OpenDraw returns the single active draw.
//
// Postcondition: Returns the open Draw or lottery.ErrNoOpenDraw.
func (s *Store) OpenDraw(ctx context.Context) (period.Draw, error) {
	var d period.Draw
	err := s.db.QueryRow(ctx,
		`SELECT id, sequence, draw_date, is_active FROM draws WHERE is_active`,
	).Scan(&d.ID, &d.Sequence, &d.Date, &d.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return period.Draw{}, lottery.ErrNoOpenDraw
		}
		return period.Draw{}, fmt.Errorf("querying open draw: %w", err)
	}
	return d, nil
}

// CreateDraw inserts d.
//
// Postcondition: d is stored, or lottery.ErrDrawExists is returned when its id
// or sequence is taken or another draw is already open.
func (s *Store) CreateDraw(ctx context.Context, d period.Draw) error {
	return insertDraw(ctx, s.db, d)
}

func insertDraw(ctx context.Context, q querier, d period.Draw) error {
	_, err := q.Exec(ctx,
		`INSERT INTO draws (id, sequence, draw_date, is_active) VALUES ($1, $2, $3, $4)`,
		d.ID, d.Sequence, d.Date, d.Active,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", lottery.ErrDrawExists, d.ID)
		}
		return fmt.Errorf("inserting draw %s: %w", d.ID, err)
	}
	return nil
}

// Announce closes r.DrawID, stores r and opens next in one transaction.
//
// Precondition: r is valid and next is the successor of r.DrawID.
// Postcondition: either all three writes are committed or none is;
// lottery.ErrDrawClosed is returned when r.DrawID is no longer open.
func (s *Store) Announce(ctx context.Context, r result.Result, next period.Draw) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning announce transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Concurrent announcers block on the row lock and then see is_active false.
	tag, err := tx.Exec(ctx,
		`UPDATE draws SET is_active = FALSE WHERE id = $1 AND is_active`,
		r.DrawID,
	)
	if err != nil {
		return fmt.Errorf("closing draw %s: %w", r.DrawID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", lottery.ErrDrawClosed, r.DrawID)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO results (draw_id, first_prize, three_digit_front, three_digit_back, two_digit_back,
			narrative, inspiration, chaos_level, algorithm, is_locked, announced_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		r.DrawID, r.FirstPrize, r.FrontPair, r.BackPair, r.TwoDigitTail,
		r.Narrative, r.Inspiration, r.ChaosLevel, r.Algorithm, r.Locked, r.AnnouncedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", lottery.ErrDrawClosed, r.DrawID)
		}
		return fmt.Errorf("inserting result for %s: %w", r.DrawID, err)
	}

	next.Active = true
	if err := insertDraw(ctx, tx, next); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing announcement: %w", err)
	}
	return nil
}

// LatestResult returns the result of the highest-sequence announced draw.
//
// Postcondition: Returns the Result or lottery.ErrNotAnnounced.
func (s *Store) LatestResult(ctx context.Context) (result.Result, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+resultColumns+`
		 FROM results r JOIN draws d ON d.id = r.draw_id
		 ORDER BY d.sequence DESC LIMIT 1`,
	)
	return scanResult(row)
}

// ResultForDraw returns the result announced for drawID.
//
// Postcondition: Returns the Result or lottery.ErrNotAnnounced.
func (s *Store) ResultForDraw(ctx context.Context, drawID string) (result.Result, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM results r WHERE r.draw_id = $1`,
		drawID,
	)
	return scanResult(row)
}

func scanResult(row pgx.Row) (result.Result, error) {
	var r result.Result
	err := row.Scan(
		&r.DrawID, &r.FirstPrize, &r.FrontPair, &r.BackPair, &r.TwoDigitTail,
		&r.Narrative, &r.Inspiration, &r.ChaosLevel, &r.Algorithm, &r.Locked, &r.AnnouncedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return result.Result{}, lottery.ErrNotAnnounced
		}
		return result.Result{}, fmt.Errorf("querying result: %w", err)
	}
	return r, nil
}
