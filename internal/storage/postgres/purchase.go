package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/cory-johannsen/lotto/internal/lottery"
	"github.com/cory-johannsen/lotto/internal/lotto/ticket"
)

const purchaseColumns = `id, draw_id, customer_name, total_price::text, status, purchased_at,
	checked_draw_id, last_checked_at`

// SavePurchase inserts p and its entries in one transaction.
//
// Precondition: p was built by ticket.NewPurchase and p.DrawID exists.
// Postcondition: p and every entry are stored, or nothing is.
func (s *Store) SavePurchase(ctx context.Context, p ticket.Purchase) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning purchase transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO purchases (id, draw_id, customer_name, total_price, status, purchased_at)
		 VALUES ($1, $2, $3, $4::numeric, $5, $6)`,
		p.ID, p.DrawID, p.CustomerName, p.TotalPrice.String(), string(p.Status), p.PurchasedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting purchase %s: %w", p.ID, err)
	}

	batch := &pgx.Batch{}
	for i, e := range p.Entries {
		batch.Queue(
			`INSERT INTO purchase_entries (id, purchase_id, position, number_type, number, amount, status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			e.ID, p.ID, i, string(e.Category), e.Number, e.Quantity, string(e.Status),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting entries for %s: %w", p.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing purchase %s: %w", p.ID, err)
	}
	return nil
}

// Purchase loads one purchase with its entries.
//
// Postcondition: Returns the Purchase or lottery.ErrPurchaseNotFound.
func (s *Store) Purchase(ctx context.Context, id string) (ticket.Purchase, error) {
	ps, err := s.queryPurchases(ctx,
		`SELECT `+purchaseColumns+` FROM purchases WHERE id = $1`, id)
	if err != nil {
		return ticket.Purchase{}, err
	}
	if len(ps) == 0 {
		return ticket.Purchase{}, lottery.ErrPurchaseNotFound
	}
	return ps[0], nil
}

// Purchases returns at most limit purchases, most recent first; limit <= 0
// returns all.
func (s *Store) Purchases(ctx context.Context, limit int) ([]ticket.Purchase, error) {
	if limit <= 0 {
		return s.queryPurchases(ctx,
			`SELECT `+purchaseColumns+` FROM purchases ORDER BY purchased_at DESC, seq DESC`)
	}
	return s.queryPurchases(ctx,
		`SELECT `+purchaseColumns+` FROM purchases ORDER BY purchased_at DESC, seq DESC LIMIT $1`, limit)
}

// PurchasesForDraw returns every purchase of drawID, most recent first.
func (s *Store) PurchasesForDraw(ctx context.Context, drawID string) ([]ticket.Purchase, error) {
	return s.queryPurchases(ctx,
		`SELECT `+purchaseColumns+` FROM purchases WHERE draw_id = $1 ORDER BY purchased_at DESC, seq DESC`, drawID)
}

// RecordCheck writes back the verdict of a winning check.
//
// Postcondition: entry statuses, purchase status, checked_draw_id and
// last_checked_at are updated together, or lottery.ErrPurchaseNotFound is
// returned.
func (s *Store) RecordCheck(ctx context.Context, p ticket.Purchase) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning check transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE purchases SET status = $1, checked_draw_id = $2, last_checked_at = $3 WHERE id = $4`,
		string(p.Status), p.CheckedDrawID, p.LastCheckedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating purchase %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return lottery.ErrPurchaseNotFound
	}

	for _, e := range p.Entries {
		if _, err := tx.Exec(ctx,
			`UPDATE purchase_entries SET status = $1 WHERE id = $2 AND purchase_id = $3`,
			string(e.Status), e.ID, p.ID,
		); err != nil {
			return fmt.Errorf("updating entry %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing check of %s: %w", p.ID, err)
	}
	return nil
}

func (s *Store) queryPurchases(ctx context.Context, sql string, args ...any) ([]ticket.Purchase, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying purchases: %w", err)
	}
	defer rows.Close()

	var (
		purchases []ticket.Purchase
		ids       []string
	)
	for rows.Next() {
		var (
			p         ticket.Purchase
			total     string
			status    string
			checkedID *string
			checkedAt *time.Time
		)
		if err := rows.Scan(&p.ID, &p.DrawID, &p.CustomerName, &total, &status, &p.PurchasedAt, &checkedID, &checkedAt); err != nil {
			return nil, fmt.Errorf("scanning purchase: %w", err)
		}
		if p.TotalPrice, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("parsing total of %s: %w", p.ID, err)
		}
		p.Status = ticket.Status(status)
		if checkedID != nil {
			p.CheckedDrawID = *checkedID
		}
		p.LastCheckedAt = checkedAt
		purchases = append(purchases, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating purchases: %w", err)
	}
	if len(purchases) == 0 {
		return []ticket.Purchase{}, nil
	}

	entries, err := s.entriesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range purchases {
		purchases[i].Entries = entries[purchases[i].ID]
	}
	return purchases, nil
}

func (s *Store) entriesFor(ctx context.Context, purchaseIDs []string) (map[string][]ticket.Entry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT purchase_id, id, number_type, number, amount, status
		 FROM purchase_entries WHERE purchase_id = ANY($1) ORDER BY purchase_id, position`,
		purchaseIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]ticket.Entry, len(purchaseIDs))
	for rows.Next() {
		var (
			purchaseID string
			e          ticket.Entry
			category   string
			status     string
		)
		if err := rows.Scan(&purchaseID, &e.ID, &category, &e.Number, &e.Quantity, &status); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		e.Category = ticket.Category(category)
		e.Status = ticket.Status(status)
		out[purchaseID] = append(out[purchaseID], e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}
	return out, nil
}
