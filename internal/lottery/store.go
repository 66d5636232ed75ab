package lottery

import (
	"context"
	"errors"

	"github.com/cory-johannsen/lotto/internal/lotto/period"
	"github.com/cory-johannsen/lotto/internal/lotto/result"
	"github.com/cory-johannsen/lotto/internal/lotto/ticket"
)

var (
	// ErrNoOpenDraw is returned when no draw period is currently open.
	ErrNoOpenDraw = errors.New("no open draw")
	// ErrDrawExists is returned when creating a draw that conflicts with an
	// existing one.
	ErrDrawExists = errors.New("draw already exists")
	// ErrDrawClosed is returned when announcing against a draw that another
	// announcement already closed.
	ErrDrawClosed = errors.New("draw already closed")
	// ErrNotAnnounced is returned when no result exists yet.
	ErrNotAnnounced = errors.New("result not announced yet")
	// ErrPurchaseNotFound is returned when a purchase id is unknown.
	ErrPurchaseNotFound = errors.New("purchase not found")
	// ErrPredictionDisabled is returned when no prediction backend is configured.
	ErrPredictionDisabled = errors.New("prediction is not configured")
)

// Store persists draws, results and purchases.
//
// Implementations must make Announce atomic: the open draw is closed, the
// result stored and the successor opened together, or not at all.
type Store interface {
	// OpenDraw returns the single open draw or ErrNoOpenDraw.
	OpenDraw(ctx context.Context) (period.Draw, error)
	// CreateDraw inserts d as the open draw, or returns ErrDrawExists.
	CreateDraw(ctx context.Context, d period.Draw) error
	// Announce closes the draw r.DrawID, stores r and opens next. It returns
	// ErrDrawClosed when r.DrawID is no longer open.
	Announce(ctx context.Context, r result.Result, next period.Draw) error
	// LatestResult returns the most recently announced result or ErrNotAnnounced.
	LatestResult(ctx context.Context) (result.Result, error)
	// ResultForDraw returns the result of drawID or ErrNotAnnounced.
	ResultForDraw(ctx context.Context, drawID string) (result.Result, error)

	// SavePurchase inserts a new purchase with its entries.
	SavePurchase(ctx context.Context, p ticket.Purchase) error
	// Purchase returns one purchase or ErrPurchaseNotFound.
	Purchase(ctx context.Context, id string) (ticket.Purchase, error)
	// Purchases returns at most limit purchases, most recent first. A limit
	// <= 0 returns all of them.
	Purchases(ctx context.Context, limit int) ([]ticket.Purchase, error)
	// PurchasesForDraw returns every purchase of drawID, most recent first.
	PurchasesForDraw(ctx context.Context, drawID string) ([]ticket.Purchase, error)
	// RecordCheck writes back entry and purchase statuses plus the checked
	// draw and time, or returns ErrPurchaseNotFound.
	RecordCheck(ctx context.Context, p ticket.Purchase) error
}
