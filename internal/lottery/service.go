// Package lottery is the boundary service that runs draws: it sells entries
// into the open period, announces results, checks tickets and lists winners.
package lottery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/lotto/internal/lotto/period"
	"github.com/cory-johannsen/lotto/internal/lotto/prize"
	"github.com/cory-johannsen/lotto/internal/lotto/result"
	"github.com/cory-johannsen/lotto/internal/lotto/seed"
	"github.com/cory-johannsen/lotto/internal/lotto/synth"
	"github.com/cory-johannsen/lotto/internal/lotto/ticket"
	"github.com/cory-johannsen/lotto/internal/prediction"
)

// Predictor produces AI number suggestions.
type Predictor interface {
	Predict(ctx context.Context, userInput string) (prediction.Prediction, error)
}

// Recorder receives business events for metrics.
type Recorder interface {
	RecordAnnouncement(algorithm string)
	RecordPurchase(categories []string)
	RecordCheck(won bool)
	RecordPrediction(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordAnnouncement(string) {}
func (nopRecorder) RecordPurchase([]string)   {}
func (nopRecorder) RecordCheck(bool)          {}
func (nopRecorder) RecordPrediction(string)   {}

// Option customises a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSalt replaces seed.NewSalt.
func WithSalt(salt func() string) Option {
	return func(s *Service) { s.salt = salt }
}

// WithPredictor enables Predict.
func WithPredictor(p Predictor) Option {
	return func(s *Service) { s.predictor = p }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithInterval sets the spacing between draw dates.
func WithInterval(d time.Duration) Option {
	return func(s *Service) { s.interval = d }
}

// Service orchestrates the engine against a Store. It is safe for concurrent
// use; concurrent announcements are serialised by the Store.
type Service struct {
	store     Store
	synth     *synth.Synthesizer
	predictor Predictor
	recorder  Recorder
	interval  time.Duration
	now       func() time.Time
	salt      func() string
	logger    *zap.Logger
}

// NewService creates a Service.
//
// Precondition: store, synthesizer and logger are non-nil.
func NewService(store Store, synthesizer *synth.Synthesizer, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		synth:    synthesizer,
		recorder: nopRecorder{},
		interval: period.DefaultInterval,
		now:      time.Now,
		salt:     seed.NewSalt,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CurrentDraw returns the open draw, opening draw 1 when the store is empty.
//
// Postcondition: Returns an Active draw or a storage error.
func (s *Service) CurrentDraw(ctx context.Context) (period.Draw, error) {
	d, err := s.store.OpenDraw(ctx)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, ErrNoOpenDraw) {
		return period.Draw{}, fmt.Errorf("loading open draw: %w", err)
	}

	first := period.New(1, s.now().UTC())
	switch err := s.store.CreateDraw(ctx, first); {
	case err == nil:
		s.logger.Info("opened first draw", zap.String("draw_id", first.ID), zap.Time("date", first.Date))
		return first, nil
	case errors.Is(err, ErrDrawExists):
		// lost a concurrent bootstrap
		return s.store.OpenDraw(ctx)
	default:
		return period.Draw{}, fmt.Errorf("opening first draw: %w", err)
	}
}

// LatestResult returns the most recent announcement or ErrNotAnnounced.
func (s *Service) LatestResult(ctx context.Context) (result.Result, error) {
	return s.store.LatestResult(ctx)
}

// AnnounceRequest is an operator's announcement. When Locked is set, Manual
// must carry the numbers and synthesis is skipped.
type AnnounceRequest struct {
	Inspiration string
	// Chaos is the requested chaos level; nil selects the configured default.
	Chaos  *float64
	Locked bool
	Manual *result.Numbers
}

// Announcement is the outcome of Announce.
type Announcement struct {
	Result result.Result
	Closed period.Draw
	Next   period.Draw
}

// Announce publishes a result for the open draw and opens its successor.
//
// Postcondition: on success the returned Result is valid, carries the closed
// draw's id and is the store's LatestResult. ErrDrawClosed means another
// announcement won the race; the caller may retry against the new draw.
func (s *Service) Announce(ctx context.Context, req AnnounceRequest) (Announcement, error) {
	draw, err := s.CurrentDraw(ctx)
	if err != nil {
		return Announcement{}, err
	}

	now := s.now().UTC()
	inspiration := strings.TrimSpace(req.Inspiration)

	var r result.Result
	if req.Locked {
		if req.Manual == nil {
			return Announcement{}, fmt.Errorf("%w: locked announcement requires manual numbers", result.ErrInvalidResult)
		}
		r, err = result.Manual(*req.Manual, inspiration, now)
		if err != nil {
			return Announcement{}, err
		}
	} else {
		tuning := s.synth.Tuning()
		history, err := s.store.Purchases(ctx, max(tuning.HistoryWindow, tuning.PulseWindow, tuning.SignatureWindow))
		if err != nil {
			return Announcement{}, fmt.Errorf("loading purchase history: %w", err)
		}
		chaos := tuning.DefaultChaos
		if req.Chaos != nil {
			chaos = *req.Chaos
		}
		r = s.synth.Synthesize(synth.Request{
			Purchases:   history,
			Inspiration: inspiration,
			Chaos:       chaos,
			At:          now,
			Salt:        s.salt(),
		})
	}
	r.DrawID = draw.ID

	next := draw.Next(s.interval)
	if err := s.store.Announce(ctx, r, next); err != nil {
		return Announcement{}, fmt.Errorf("announcing %s: %w", draw.ID, err)
	}
	draw.Active = false

	s.recorder.RecordAnnouncement(r.Algorithm)
	s.logger.Info("result announced",
		zap.String("draw_id", draw.ID),
		zap.String("algorithm", r.Algorithm),
		zap.Bool("locked", r.Locked),
		zap.String("first_prize", r.FirstPrize),
		zap.String("next_draw_id", next.ID),
	)
	return Announcement{Result: r, Closed: draw, Next: next}, nil
}

// Purchase validates and stores a purchase against the open draw.
//
// Postcondition: Returns the stored purchase, or an error wrapping one of the
// ticket validation errors.
func (s *Service) Purchase(ctx context.Context, customer string, inputs []ticket.EntryInput) (ticket.Purchase, error) {
	draw, err := s.CurrentDraw(ctx)
	if err != nil {
		return ticket.Purchase{}, err
	}
	p, err := ticket.NewPurchase(draw.ID, customer, inputs, s.now().UTC())
	if err != nil {
		return ticket.Purchase{}, err
	}
	if err := s.store.SavePurchase(ctx, p); err != nil {
		return ticket.Purchase{}, fmt.Errorf("saving purchase: %w", err)
	}

	categories := make([]string, len(p.Entries))
	for i, e := range p.Entries {
		categories[i] = string(e.Category)
	}
	s.recorder.RecordPurchase(categories)
	s.logger.Info("purchase accepted",
		zap.String("purchase_id", p.ID),
		zap.String("draw_id", p.DrawID),
		zap.Int("entries", len(p.Entries)),
		zap.String("total", p.TotalPrice.String()),
	)
	return p, nil
}

// Purchases returns every purchase, most recent first.
func (s *Service) Purchases(ctx context.Context) ([]ticket.Purchase, error) {
	return s.store.Purchases(ctx, 0)
}

// WinningEntry is one (entry, prize tag) pair. An entry that collects several
// prizes appears once per prize.
type WinningEntry struct {
	Number   string          `json:"number"`
	Category ticket.Category `json:"numberType"`
	Prize    string          `json:"prize"`
	Quantity int             `json:"amount"`
}

// CheckResult is the verdict for one purchase.
type CheckResult struct {
	IsWin          bool
	Prize          string
	WinningEntries []WinningEntry
	Purchase       ticket.Purchase
	Result         result.Result
}

// CheckWinning matches a purchase against its draw's result and writes the
// verdict back.
//
// Postcondition: the stored purchase carries per-entry statuses, an overall
// status, CheckedDrawID and LastCheckedAt. Repeating the check yields the same
// verdict.
func (s *Service) CheckWinning(ctx context.Context, purchaseID string) (CheckResult, error) {
	p, err := s.store.Purchase(ctx, purchaseID)
	if err != nil {
		return CheckResult{}, err
	}
	r, err := s.store.ResultForDraw(ctx, p.DrawID)
	if err != nil {
		return CheckResult{}, err
	}

	anyWin, outcomes := prize.Match(r, p.Entries)
	winning := winningEntries(outcomes)
	entries := make([]ticket.Entry, len(outcomes))
	for i, o := range outcomes {
		entries[i] = o.Entry
	}
	p.Entries = entries
	p.Status = ticket.StatusLose
	if anyWin {
		p.Status = ticket.StatusWin
	}
	checkedAt := s.now().UTC()
	p.CheckedDrawID = r.DrawID
	p.LastCheckedAt = &checkedAt

	if err := s.store.RecordCheck(ctx, p); err != nil {
		return CheckResult{}, fmt.Errorf("recording check: %w", err)
	}

	s.recorder.RecordCheck(anyWin)
	s.logger.Info("purchase checked",
		zap.String("purchase_id", p.ID),
		zap.String("draw_id", r.DrawID),
		zap.Bool("win", anyWin),
		zap.Int("prizes", len(winning)),
	)

	prizes := make([]string, len(winning))
	for i, w := range winning {
		prizes[i] = w.Prize
	}
	return CheckResult{
		IsWin:          anyWin,
		Prize:          strings.Join(prizes, ", "),
		WinningEntries: winning,
		Purchase:       p,
		Result:         r,
	}, nil
}

// Winner is one purchase of the latest draw that collected a prize.
type Winner struct {
	PurchaseID     string         `json:"purchaseId"`
	CustomerName   string         `json:"customerName"`
	PurchasedAt    time.Time      `json:"purchaseDate"`
	WinningEntries []WinningEntry `json:"winningEntries"`
}

// Winners lists every winning purchase of the latest announced draw. It does
// not modify stored purchases.
func (s *Service) Winners(ctx context.Context) (result.Result, []Winner, error) {
	r, err := s.store.LatestResult(ctx)
	if err != nil {
		return result.Result{}, nil, err
	}
	purchases, err := s.store.PurchasesForDraw(ctx, r.DrawID)
	if err != nil {
		return result.Result{}, nil, fmt.Errorf("loading purchases for %s: %w", r.DrawID, err)
	}

	winners := []Winner{}
	for _, p := range purchases {
		anyWin, outcomes := prize.Match(r, p.Entries)
		if !anyWin {
			continue
		}
		winners = append(winners, Winner{
			PurchaseID:     p.ID,
			CustomerName:   p.CustomerName,
			PurchasedAt:    p.PurchasedAt,
			WinningEntries: winningEntries(outcomes),
		})
	}
	return r, winners, nil
}

// Predict forwards userInput to the configured Predictor.
func (s *Service) Predict(ctx context.Context, userInput string) (prediction.Prediction, error) {
	if s.predictor == nil {
		s.recorder.RecordPrediction("disabled")
		return prediction.Prediction{}, ErrPredictionDisabled
	}
	p, err := s.predictor.Predict(ctx, userInput)
	if err != nil {
		s.recorder.RecordPrediction("error")
		return prediction.Prediction{}, err
	}
	s.recorder.RecordPrediction("ok")
	return p, nil
}

func winningEntries(outcomes []prize.Outcome) []WinningEntry {
	out := []WinningEntry{}
	for _, o := range outcomes {
		for _, tag := range o.Prizes {
			out = append(out, WinningEntry{
				Number:   o.Entry.Number,
				Category: o.Entry.Category,
				Prize:    tag,
				Quantity: o.Entry.Quantity,
			})
		}
	}
	return out
}
