package lottery_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/lotto/internal/lottery"
	"github.com/cory-johannsen/lotto/internal/lotto/period"
	"github.com/cory-johannsen/lotto/internal/lotto/prize"
	"github.com/cory-johannsen/lotto/internal/lotto/result"
	"github.com/cory-johannsen/lotto/internal/lotto/synth"
	"github.com/cory-johannsen/lotto/internal/lotto/ticket"
	"github.com/cory-johannsen/lotto/internal/observability"
	"github.com/cory-johannsen/lotto/internal/prediction"
	"github.com/cory-johannsen/lotto/internal/storage/memory"
)

var start = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newService(t *testing.T, opts ...lottery.Option) (*lottery.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	logger := zaptest.NewLogger(t)
	c := &clock{t: start}
	opts = append([]lottery.Option{
		lottery.WithClock(c.Now),
		lottery.WithSalt(func() string { return "salt" }),
		lottery.WithRecorder(observability.NewMetrics()),
	}, opts...)
	return lottery.NewService(store, synth.New(synth.DefaultTuning(), nil, logger), logger, opts...), store
}

var manualNumbers = result.Numbers{
	FirstPrize:   "123456",
	FrontPair:    []string{"789", "012"},
	BackPair:     []string{"345", "678"},
	TwoDigitTail: "90",
}

func TestCurrentDraw_BootstrapsFirstDraw(t *testing.T) {
	svc, _ := newService(t)
	d, err := svc.CurrentDraw(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "DRAW-0001", d.ID)
	assert.Equal(t, 1, d.Sequence)
	assert.True(t, d.Active)

	again, err := svc.CurrentDraw(context.Background())
	require.NoError(t, err)
	assert.Equal(t, d.ID, again.ID)
}

func TestLatestResult_NotAnnounced(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.LatestResult(context.Background())
	assert.ErrorIs(t, err, lottery.ErrNotAnnounced)
}

func TestPurchase_AssignsOpenDraw(t *testing.T) {
	svc, _ := newService(t)
	p, err := svc.Purchase(context.Background(), "  Malee ", []ticket.EntryInput{
		{Category: ticket.TwoDigitTail, Number: "07", Quantity: 3},
		{Category: ticket.TailThreeDigit, Number: " 123 ", Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, "DRAW-0001", p.DrawID)
	assert.Equal(t, "Malee", p.CustomerName)
	assert.Equal(t, "4", p.TotalPrice.String())
	assert.Equal(t, "123", p.Entries[1].Number)

	all, err := svc.Purchases(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, p.ID, all[0].ID)
}

func TestPurchase_Invalid(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Purchase(context.Background(), "Malee", []ticket.EntryInput{
		{Category: ticket.HeadThreeDigit, Number: "12", Quantity: 1},
	})
	assert.ErrorIs(t, err, ticket.ErrInvalidEntry)

	_, err = svc.Purchase(context.Background(), "", []ticket.EntryInput{
		{Category: ticket.TwoDigitTail, Number: "12", Quantity: 1},
	})
	assert.ErrorIs(t, err, ticket.ErrNoCustomer)

	all, err := svc.Purchases(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestAnnounce_SynthesizedAdvancesDraw(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	_, err := svc.Purchase(ctx, "Malee", []ticket.EntryInput{{Category: ticket.TwoDigitTail, Number: "88", Quantity: 5}})
	require.NoError(t, err)

	chaos := 0.3
	a, err := svc.Announce(ctx, lottery.AnnounceRequest{Inspiration: "  Full Moon  ", Chaos: &chaos})
	require.NoError(t, err)

	assert.NoError(t, a.Result.Validate())
	assert.Equal(t, "DRAW-0001", a.Result.DrawID)
	assert.Equal(t, "Full Moon", a.Result.Inspiration)
	assert.InDelta(t, 0.3, a.Result.ChaosLevel, 1e-9)
	assert.Equal(t, synth.DefaultAlgorithm, a.Result.Algorithm)
	assert.False(t, a.Result.Locked)
	assert.False(t, a.Closed.Active)
	assert.Equal(t, "DRAW-0002", a.Next.ID)
	assert.Equal(t, a.Closed.Date.Add(period.DefaultInterval), a.Next.Date)

	open, err := svc.CurrentDraw(ctx)
	require.NoError(t, err)
	assert.Equal(t, "DRAW-0002", open.ID)

	latest, err := svc.LatestResult(ctx)
	require.NoError(t, err)
	assert.Equal(t, a.Result.FirstPrize, latest.FirstPrize)
}

func TestAnnounce_DefaultChaos(t *testing.T) {
	svc, _ := newService(t)
	a, err := svc.Announce(context.Background(), lottery.AnnounceRequest{})
	require.NoError(t, err)
	assert.InDelta(t, synth.DefaultTuning().DefaultChaos, a.Result.ChaosLevel, 1e-9)
}

func TestAnnounce_ManualLocked(t *testing.T) {
	svc, _ := newService(t)
	a, err := svc.Announce(context.Background(), lottery.AnnounceRequest{
		Inspiration: "operator pick",
		Locked:      true,
		Manual:      &manualNumbers,
	})
	require.NoError(t, err)
	assert.True(t, a.Result.Locked)
	assert.Equal(t, result.ManualAlgorithm, a.Result.Algorithm)
	assert.Equal(t, result.ManualNarrative, a.Result.Narrative)
	assert.Equal(t, "123456", a.Result.FirstPrize)
	assert.Zero(t, a.Result.ChaosLevel)
}

func TestAnnounce_ManualRequiresNumbers(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Announce(context.Background(), lottery.AnnounceRequest{Locked: true})
	assert.ErrorIs(t, err, result.ErrInvalidResult)

	bad := manualNumbers
	bad.FrontPair = []string{"789", "789"}
	_, err = svc.Announce(context.Background(), lottery.AnnounceRequest{Locked: true, Manual: &bad})
	assert.ErrorIs(t, err, result.ErrInvalidResult)

	_, err = svc.LatestResult(context.Background())
	assert.ErrorIs(t, err, lottery.ErrNotAnnounced, "rejected announcements must not be stored")
}

func TestAnnounce_ConcurrentCallsCloseEachDrawOnce(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	_, err := svc.CurrentDraw(ctx)
	require.NoError(t, err)

	const callers = 8
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		closed []string
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := svc.Announce(ctx, lottery.AnnounceRequest{Locked: true, Manual: &manualNumbers})
			if err != nil {
				assert.ErrorIs(t, err, lottery.ErrDrawClosed)
				return
			}
			mu.Lock()
			closed = append(closed, a.Closed.ID)
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.NotEmpty(t, closed)
	seen := map[string]bool{}
	for _, id := range closed {
		assert.False(t, seen[id], "draw %s closed twice", id)
		seen[id] = true
	}
	open, err := svc.CurrentDraw(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(closed)+1, open.Sequence)
}

func TestCheckWinning_ManualResult(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	p, err := svc.Purchase(ctx, "Malee", []ticket.EntryInput{
		{Category: ticket.TwoDigitTail, Number: "56", Quantity: 2},
		{Category: ticket.HeadThreeDigit, Number: "789", Quantity: 1},
		{Category: ticket.TailThreeDigit, Number: "999", Quantity: 1},
	})
	require.NoError(t, err)

	_, err = svc.CheckWinning(ctx, p.ID)
	assert.ErrorIs(t, err, lottery.ErrNotAnnounced)

	_, err = svc.Announce(ctx, lottery.AnnounceRequest{Locked: true, Manual: &manualNumbers})
	require.NoError(t, err)

	res, err := svc.CheckWinning(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, res.IsWin)
	assert.Equal(t, prize.TwoDigitFromFirstPrize+", "+prize.HeadThreeDigit, res.Prize)
	assert.Equal(t, []lottery.WinningEntry{
		{Number: "56", Category: ticket.TwoDigitTail, Prize: prize.TwoDigitFromFirstPrize, Quantity: 2},
		{Number: "789", Category: ticket.HeadThreeDigit, Prize: prize.HeadThreeDigit, Quantity: 1},
	}, res.WinningEntries)
	assert.Equal(t, "DRAW-0001", res.Result.DrawID)

	stored, err := store.Purchase(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.StatusWin, stored.Status)
	assert.Equal(t, []ticket.Status{ticket.StatusWin, ticket.StatusWin, ticket.StatusLose},
		[]ticket.Status{stored.Entries[0].Status, stored.Entries[1].Status, stored.Entries[2].Status})
	assert.Equal(t, "DRAW-0001", stored.CheckedDrawID)
	require.NotNil(t, stored.LastCheckedAt)

	again, err := svc.CheckWinning(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, res.IsWin, again.IsWin)
	assert.Equal(t, res.WinningEntries, again.WinningEntries)
}

func TestCheckWinning_UsesPurchaseDraw(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	_, err := svc.Announce(ctx, lottery.AnnounceRequest{Locked: true, Manual: &manualNumbers})
	require.NoError(t, err)

	p, err := svc.Purchase(ctx, "Malee", []ticket.EntryInput{{Category: ticket.TwoDigitTail, Number: "56", Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, "DRAW-0002", p.DrawID)

	_, err = svc.CheckWinning(ctx, p.ID)
	assert.ErrorIs(t, err, lottery.ErrNotAnnounced, "purchase in the open draw has no result yet")
}

func TestCheckWinning_Lose(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	p, err := svc.Purchase(ctx, "Malee", []ticket.EntryInput{{Category: ticket.TwoDigitTail, Number: "11", Quantity: 1}})
	require.NoError(t, err)
	_, err = svc.Announce(ctx, lottery.AnnounceRequest{Locked: true, Manual: &manualNumbers})
	require.NoError(t, err)

	res, err := svc.CheckWinning(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, res.IsWin)
	assert.Empty(t, res.Prize)
	assert.Empty(t, res.WinningEntries)
	assert.Equal(t, ticket.StatusLose, res.Purchase.Status)
}

func TestCheckWinning_UnknownPurchase(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.CheckWinning(context.Background(), "nope")
	assert.ErrorIs(t, err, lottery.ErrPurchaseNotFound)
}

func TestWinners(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, _, err := svc.Winners(ctx)
	assert.ErrorIs(t, err, lottery.ErrNotAnnounced)

	winner, err := svc.Purchase(ctx, "Malee", []ticket.EntryInput{{Category: ticket.TailThreeDigit, Number: "456", Quantity: 4}})
	require.NoError(t, err)
	_, err = svc.Purchase(ctx, "Somchai", []ticket.EntryInput{{Category: ticket.TwoDigitTail, Number: "11", Quantity: 1}})
	require.NoError(t, err)

	_, err = svc.Announce(ctx, lottery.AnnounceRequest{Locked: true, Manual: &manualNumbers})
	require.NoError(t, err)
	_, err = svc.Purchase(ctx, "Late", []ticket.EntryInput{{Category: ticket.TailThreeDigit, Number: "456", Quantity: 1}})
	require.NoError(t, err)

	r, winners, err := svc.Winners(ctx)
	require.NoError(t, err)
	assert.Equal(t, "DRAW-0001", r.DrawID)
	require.Len(t, winners, 1)
	assert.Equal(t, winner.ID, winners[0].PurchaseID)
	assert.Equal(t, "Malee", winners[0].CustomerName)
	assert.Equal(t, []lottery.WinningEntry{
		{Number: "456", Category: ticket.TailThreeDigit, Prize: prize.TailThreeFromFirstPrize, Quantity: 4},
	}, winners[0].WinningEntries)
}

type stubPredictor struct {
	p   prediction.Prediction
	err error
}

func (s stubPredictor) Predict(context.Context, string) (prediction.Prediction, error) {
	return s.p, s.err
}

func TestPredict(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Predict(context.Background(), "x")
	assert.ErrorIs(t, err, lottery.ErrPredictionDisabled)

	want := prediction.Prediction{Text: "try 12", TwoDigit: []string{"12"}}
	svc, _ = newService(t, lottery.WithPredictor(stubPredictor{p: want}))
	got, err := svc.Predict(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	boom := errors.New("boom")
	svc, _ = newService(t, lottery.WithPredictor(stubPredictor{err: boom}))
	_, err = svc.Predict(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}
