// Package synth synthesizes believable draw results from purchase history and
// operator inspiration using chaos-blended digit popularity weights.
package synth

import (
	"sort"

	"github.com/cory-johannsen/lotto/internal/lotto/seed"
	"github.com/cory-johannsen/lotto/internal/lotto/ticket"
)

// Weight constants for histogram construction.
const (
	Baseline              = 5
	InspirationDigitBoost = 12
	InspirationCharBoost  = 4
	minWeight             = 1
	jitterScale           = 1.2
)

// Histogram holds one popularity weight per decimal digit, indexed by digit.
type Histogram [10]float64

// Build returns the digit histogram for purchases (most recent first) and the
// trimmed inspiration text.
//
// Every digit starts at Baseline. Each usable entry of the window most recent
// purchases adds 2*quantity+rank to every digit of its number, where rank runs
// from len(window) for the most recent purchase down to 1 for the oldest.
// Every ASCII digit of inspiration adds InspirationDigitBoost to itself; every
// other character adds InspirationCharBoost to (code point mod 10).
//
// Postcondition: every weight >= Baseline.
func Build(purchases []ticket.Purchase, inspiration string, window int) Histogram {
	var h Histogram
	for i := range h {
		h[i] = Baseline
	}

	recent := ticket.Recent(purchases, window)
	for i, p := range recent {
		rank := len(recent) - i
		for _, e := range p.Entries {
			if !usable(e) {
				continue
			}
			boost := float64(2*e.Quantity + rank)
			for j := 0; j < len(e.Number); j++ {
				if c := e.Number[j]; c >= '0' && c <= '9' {
					h[c-'0'] += boost
				}
			}
		}
	}

	for _, r := range inspiration {
		if r >= '0' && r <= '9' {
			h[r-'0'] += InspirationDigitBoost
			continue
		}
		h[int(r)%10] += InspirationCharBoost
	}
	return h
}

// usable reports whether e contributes to weights and pulses; malformed
// entries are skipped rather than rejected.
func usable(e ticket.Entry) bool {
	return e.Quantity > 0 && e.Number != ""
}

// Total returns the sum of all weights.
func (h Histogram) Total() float64 {
	var t float64
	for _, w := range h {
		t += w
	}
	return t
}

// Mean returns the arithmetic mean weight.
func (h Histogram) Mean() float64 {
	return h.Total() / float64(len(h))
}

// Reversed returns h with digit order reversed.
func (h Histogram) Reversed() Histogram {
	var r Histogram
	for i, w := range h {
		r[len(h)-1-i] = w
	}
	return r
}

// Blend mixes h toward its mean by chaos and adds per-digit jitter drawn from
// src: blended = w*(1-chaos) + mean*chaos + (u-0.5)*chaos*mean*1.2.
// chaos is clamped to [0, 1].
//
// Postcondition: every weight of the result is >= 1, so sampling stays well
// defined; with chaos == 0 the result equals h (floored at 1).
func (h Histogram) Blend(chaos float64, src seed.Source) Histogram {
	chaos = clamp01(chaos)
	mean := h.Mean()
	var out Histogram
	for i, w := range h {
		jitter := (src.Float64() - 0.5) * chaos * mean * jitterScale
		blended := w*(1-chaos) + mean*chaos + jitter
		if blended < minWeight {
			blended = minWeight
		}
		out[i] = blended
	}
	return out
}

// Pick samples one digit by inverse CDF: target = u*total, walking digits 0..9
// and subtracting weights until target <= 0. Floating-point ties resolve to
// the lower digit.
//
// Precondition: every weight is positive.
// Postcondition: 0 <= result <= 9.
func (h Histogram) Pick(src seed.Source) int {
	target := src.Float64() * h.Total()
	for i, w := range h {
		target -= w
		if target <= 0 {
			return i
		}
	}
	return len(h) - 1
}

// Trending returns digits ordered by descending weight; equal weights keep
// ascending digit order.
func (h Histogram) Trending() []int {
	digits := make([]int, len(h))
	for i := range digits {
		digits[i] = i
	}
	sort.SliceStable(digits, func(a, b int) bool {
		return h[digits[a]] > h[digits[b]]
	})
	return digits
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
