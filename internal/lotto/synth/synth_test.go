package synth_test

import (
	"math"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/lotto/internal/lotto/seed"
	"github.com/cory-johannsen/lotto/internal/lotto/synth"
	"github.com/cory-johannsen/lotto/internal/lotto/ticket"
)

var at = time.Date(2025, 5, 16, 9, 30, 0, 0, time.UTC)

func newSynth() *synth.Synthesizer {
	return synth.New(synth.DefaultTuning(), nil, zap.NewNop())
}

func TestNumber_LengthAndDigits(t *testing.T) {
	n := synth.Number(6, synth.Build(nil, "", 30), 0.5, seed.NewMulberry32(42))
	assert.Len(t, n, 6)
	assert.True(t, ticket.IsDigits(n))
}

func TestUniqueNumbers_FallbackTerminates(t *testing.T) {
	// A source stuck at 0 always picks digit 0, so every weighted candidate is
	// "000"; the uniform fallback must probe past the collision.
	got := synth.UniqueNumbers(2, 3, synth.Build(nil, "", 30), 0, 100, &seed.Fixed{Values: []float64{0}})
	assert.Equal(t, []string{"000", "001"}, got)
}

func TestUniqueNumbers_FallbackWrapsAround(t *testing.T) {
	got := synth.UniqueNumbers(2, 2, synth.Histogram{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}, 0, 0, &seed.Fixed{Values: []float64{0.999}})
	assert.Equal(t, []string{"99", "00"}, got)
}

func TestTailNumber(t *testing.T) {
	ps := []ticket.Purchase{
		purchase(entry(ticket.TwoDigitTail, "42", 1), entry(ticket.HeadThreeDigit, "107", 2)),
	}
	// 56 + 0 + (42+1) + (7+2) + 10 = 118 -> 18
	assert.Equal(t, "18", synth.TailNumber("123456", "", ps, 15, 10))
	// 00 + 0 + 0 + 0 -> "00"
	assert.Equal(t, "00", synth.TailNumber("000000", "", nil, 15, 0))
	// "A" = 65 * 3 = 195; 01 + 195 = 196 -> 96
	assert.Equal(t, "96", synth.TailNumber("000001", "A", nil, 15, 0))
}

func TestTailNumber_PulseWindow(t *testing.T) {
	ps := []ticket.Purchase{
		purchase(entry(ticket.TwoDigitTail, "10", 1)),
		purchase(entry(ticket.TwoDigitTail, "50", 1)),
	}
	assert.Equal(t, "11", synth.TailNumber("000000", "", ps, 1, 0))
}

func TestInspirationValue(t *testing.T) {
	assert.Equal(t, 0, synth.InspirationValue(""))
	assert.Equal(t, int('a')*3+int('b')*4, synth.InspirationValue("ab"))
}

func TestSynthesize_Deterministic(t *testing.T) {
	s := newSynth()
	req := synth.Request{
		Purchases:   []ticket.Purchase{purchase(entry(ticket.TwoDigitTail, "42", 3))},
		Inspiration: " Lucky Cat ",
		Chaos:       0.4,
		At:          at,
		Salt:        "fixed-salt",
	}
	a, b := s.Synthesize(req), s.Synthesize(req)
	assert.Equal(t, a, b)
	assert.Equal(t, "Lucky Cat", a.Inspiration)
	assert.Equal(t, at, a.AnnouncedAt)
	assert.Equal(t, synth.DefaultAlgorithm, a.Algorithm)
	assert.False(t, a.Locked)
	require.NoError(t, a.Validate())
}

func TestSynthesize_SeedIgnoresInspirationCase(t *testing.T) {
	s := newSynth()
	s1, _ := s.Seed(synth.Request{Inspiration: "LUCKY", At: at, Salt: "x"})
	s2, _ := s.Seed(synth.Request{Inspiration: " lucky ", At: at, Salt: "x"})
	assert.Equal(t, s1, s2)
}

func TestSynthesize_ChaosClamped(t *testing.T) {
	s := newSynth()
	assert.Equal(t, 1.0, s.Synthesize(synth.Request{Chaos: 7, At: at}).ChaosLevel)
	assert.Equal(t, 0.0, s.Synthesize(synth.Request{Chaos: -3, At: at}).ChaosLevel)
	assert.Equal(t, 0.5, s.Synthesize(synth.Request{Chaos: math.NaN(), At: at}).ChaosLevel)
}

func TestSynthesize_NarrativeFacts(t *testing.T) {
	s := newSynth()
	ps := []ticket.Purchase{
		purchase(entry(ticket.TwoDigitTail, "77", 9), entry(ticket.TailThreeDigit, "737", 9)),
	}
	r := s.Synthesize(synth.Request{Purchases: ps, Inspiration: "full moon", Chaos: 0.25, At: at, Salt: "s"})

	assert.Contains(t, r.Narrative, "full moon")
	assert.Contains(t, r.Narrative, "2 hot entries")
	assert.Contains(t, r.Narrative, "7 and 3")
	assert.Contains(t, r.Narrative, "25%")
}

type failingNarrator struct{}

func (failingNarrator) Narrate(synth.Facts) (string, error) {
	return "", assert.AnError
}

func TestSynthesize_NarratorFailureFallsBack(t *testing.T) {
	s := synth.New(synth.DefaultTuning(), failingNarrator{}, zap.NewNop())
	r := s.Synthesize(synth.Request{Chaos: 0.5, At: at})
	assert.Contains(t, r.Narrative, "50%")
}

// Property: fixed-width, distinct pairs for any history, inspiration and chaos,
// including empty history and chaos 0.
func TestProperty_ResultShape(t *testing.T) {
	s := newSynth()
	rapid.Check(t, func(rt *rapid.T) {
		req := synth.Request{
			Purchases:   genPurchases(rt),
			Inspiration: rapid.String().Draw(rt, "inspiration"),
			Chaos:       rapid.SampledFrom([]float64{0, 0.1, 0.5, 1}).Draw(rt, "chaos"),
			At:          at.Add(time.Duration(rapid.IntRange(0, 1_000_000).Draw(rt, "offset")) * time.Millisecond),
			Salt:        rapid.String().Draw(rt, "salt"),
		}
		r := s.Synthesize(req)
		if err := r.Validate(); err != nil {
			rt.Fatalf("invalid result %+v: %v", r, err)
		}
	})
}

// Property: the tail is always derived from the first prize's last two digits
// plus the pulses, never sampled independently.
func TestProperty_TailCoupledToFirstPrize(t *testing.T) {
	s := newSynth()
	rapid.Check(t, func(rt *rapid.T) {
		ps := genPurchases(rt)
		inspiration := strings.TrimSpace(rapid.StringMatching(`[a-z0-9 ]{0,12}`).Draw(rt, "inspiration"))
		r := s.SynthesizeFrom(seed.NewMulberry32(rapid.Uint32().Draw(rt, "seed")), ps, inspiration, 0.5)

		last, _ := strconv.Atoi(r.FirstPrize[4:])
		found := false
		for pulse := 0; pulse < 100; pulse++ {
			if synth.TailNumber(r.FirstPrize, inspiration, ps, 15, pulse) == r.TwoDigitTail {
				found = true
				break
			}
		}
		if !found {
			rt.Fatalf("tail %s not derivable from first prize %s (last=%d)", r.TwoDigitTail, r.FirstPrize, last)
		}
	})
}
