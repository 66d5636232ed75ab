package synth

import (
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/lotto/internal/lotto/result"
	"github.com/cory-johannsen/lotto/internal/lotto/seed"
	"github.com/cory-johannsen/lotto/internal/lotto/ticket"
)

// DefaultAlgorithm tags synthesized results.
const DefaultAlgorithm = "Stardust Mixer"

// timestampLayout renders the synthesis time as seed entropy.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Tuning holds the empirically chosen synthesis constants.
type Tuning struct {
	// HistoryWindow is how many recent purchases feed the histogram.
	HistoryWindow int
	// PulseWindow is how many recent purchases feed the tail pulse.
	PulseWindow int
	// SignatureWindow is how many recent purchases feed the seed signature.
	SignatureWindow int
	// FirstPrizeChaos, FrontChaos and BackChaos scale the caller's chaos level
	// for the per-number re-blend of each result part.
	FirstPrizeChaos float64
	FrontChaos      float64
	BackChaos       float64
	// FrontBaseChaos and BackBaseChaos scale the caller's chaos level for the
	// one-off pre-blend of the pair histograms.
	FrontBaseChaos float64
	BackBaseChaos  float64
	// UniqueAttempts caps weighted candidates per pair before the uniform fallback.
	UniqueAttempts int
	// DefaultChaos replaces a NaN chaos level.
	DefaultChaos float64
	// Algorithm tags every synthesized result.
	Algorithm string
}

// DefaultTuning returns the stock constants.
func DefaultTuning() Tuning {
	return Tuning{
		HistoryWindow:   30,
		PulseWindow:     15,
		SignatureWindow: 20,
		FirstPrizeChaos: 0.65,
		FrontChaos:      0.55,
		BackChaos:       0.8,
		FrontBaseChaos:  0.5,
		BackBaseChaos:   0.7,
		UniqueAttempts:  100,
		DefaultChaos:    0.5,
		Algorithm:       DefaultAlgorithm,
	}
}

// Request is the complete input of one synthesis. Identical requests yield
// identical results.
type Request struct {
	// Purchases is the recent purchase history, most recent first.
	Purchases []ticket.Purchase
	// Inspiration is free operator text; it is trimmed before use.
	Inspiration string
	// Chaos is the caller's chaos level; it is clamped to [0, 1].
	Chaos float64
	// At is the synthesis time, used as seed entropy and as AnnouncedAt.
	At time.Time
	// Salt is extra entropy, normally seed.NewSalt().
	Salt string
}

// Synthesizer produces results from purchase history. It holds no mutable
// state and is safe for concurrent use.
type Synthesizer struct {
	tuning   Tuning
	narrator Narrator
	logger   *zap.Logger
}

// New creates a Synthesizer. A nil narrator selects PlainNarrator.
//
// Precondition: logger must be non-nil.
func New(tuning Tuning, narrator Narrator, logger *zap.Logger) *Synthesizer {
	if narrator == nil {
		narrator = PlainNarrator{}
	}
	return &Synthesizer{tuning: tuning, narrator: narrator, logger: logger}
}

// Tuning returns the synthesizer's constants.
func (s *Synthesizer) Tuning() Tuning {
	return s.tuning
}

// ClampChaos normalises a caller chaos level: NaN becomes def, values outside
// [0, 1] are clamped.
func ClampChaos(chaos, def float64) float64 {
	if math.IsNaN(chaos) {
		chaos = def
	}
	return clamp01(chaos)
}

// Seed derives the seed and generator for req.
func (s *Synthesizer) Seed(req Request) (uint32, *seed.Mulberry32) {
	inspiration := strings.TrimSpace(req.Inspiration)
	return seed.Derive(
		req.At.UTC().Format(timestampLayout),
		strings.ToLower(inspiration),
		ticket.Signature(ticket.Recent(req.Purchases, s.tuning.SignatureWindow)),
		req.Salt,
	)
}

// Synthesize builds a complete result for req. It never fails: empty history
// and empty inspiration fall back to baseline weights.
//
// Postcondition: the returned Result satisfies result.Result.Validate().
func (s *Synthesizer) Synthesize(req Request) result.Result {
	seedValue, rng := s.Seed(req)
	r := s.SynthesizeFrom(rng, req.Purchases, req.Inspiration, req.Chaos)
	r.AnnouncedAt = req.At

	s.logger.Debug("draw synthesized",
		zap.Uint32("seed", seedValue),
		zap.Float64("chaos", r.ChaosLevel),
		zap.String("first_prize", r.FirstPrize),
		zap.Strings("front_pair", r.FrontPair),
		zap.Strings("back_pair", r.BackPair),
		zap.String("two_digit_tail", r.TwoDigitTail),
	)
	return r
}

// SynthesizeFrom runs the synthesis against an explicit source. The source is
// consumed in a fixed order: pair pre-blends, first prize, front pair, back
// pair, tail pulse.
func (s *Synthesizer) SynthesizeFrom(src seed.Source, purchases []ticket.Purchase, inspiration string, chaos float64) result.Result {
	t := s.tuning
	inspiration = strings.TrimSpace(inspiration)
	chaos = ClampChaos(chaos, t.DefaultChaos)

	base := Build(purchases, inspiration, t.HistoryWindow)
	front := base.Blend(chaos*t.FrontBaseChaos, src)
	back := base.Reversed().Blend(chaos*t.BackBaseChaos, src).Reversed()

	firstPrize := Number(result.FirstPrizeWidth, base, chaos*t.FirstPrizeChaos, src)
	frontPair := UniqueNumbers(result.PairSize, result.PairWidth, front, chaos*t.FrontChaos, t.UniqueAttempts, src)
	backPair := UniqueNumbers(result.PairSize, result.PairWidth, back, math.Min(1, chaos*t.BackChaos), t.UniqueAttempts, src)

	chaosPulse := int(math.Floor(src.Float64() * 100))
	tail := TailNumber(firstPrize, inspiration, purchases, t.PulseWindow, chaosPulse)

	facts := Facts{
		Algorithm:   t.Algorithm,
		Inspiration: inspiration,
		Trending:    base.Trending(),
		EntryCount:  ticket.CountEntries(ticket.Recent(purchases, t.HistoryWindow)),
		Chaos:       chaos,
	}

	return result.Result{
		FirstPrize:   firstPrize,
		FrontPair:    frontPair,
		BackPair:     backPair,
		TwoDigitTail: tail,
		Narrative:    s.narrate(facts),
		Inspiration:  inspiration,
		ChaosLevel:   chaos,
		Algorithm:    t.Algorithm,
	}
}

func (s *Synthesizer) narrate(f Facts) string {
	story, err := s.narrator.Narrate(f)
	if err != nil || story == "" {
		if err != nil {
			s.logger.Warn("narrator failed, using plain narrative", zap.Error(err))
		}
		story, _ = PlainNarrator{}.Narrate(f)
	}
	return story
}
