package synth

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cory-johannsen/lotto/internal/lotto/seed"
	"github.com/cory-johannsen/lotto/internal/lotto/ticket"
)

// Number samples a length-digit number. h is re-blended once with fresh
// jitter at chaos, then every digit is picked independently from that blend.
//
// Postcondition: len(result) == length and result consists of ASCII digits.
func Number(length int, h Histogram, chaos float64, src seed.Source) string {
	local := h.Blend(chaos, src)
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		b.WriteByte(byte('0' + local.Pick(src)))
	}
	return b.String()
}

// UniqueNumbers returns count mutually distinct length-digit numbers in the
// order they were found.
//
// Up to attempts weighted candidates are drawn, each at chaos nudged upward by
// up to 0.1. Slots still empty after that are filled from a flat uniform draw
// over [0, 10^length); a uniform draw that collides probes upward to the next
// free number so the loop terminates for any Source.
//
// Precondition: count <= 10^length.
// Postcondition: len(result) == count, members distinct and zero padded.
func UniqueNumbers(count, length int, h Histogram, chaos float64, attempts int, src seed.Source) []string {
	seen := make(map[string]bool, count)
	out := make([]string, 0, count)
	add := func(n string) bool {
		if seen[n] {
			return false
		}
		seen[n] = true
		out = append(out, n)
		return true
	}

	for guard := 0; len(out) < count && guard < attempts; guard++ {
		add(Number(length, h, chaos+src.Float64()*0.1, src))
	}

	space := pow10(length)
	for len(out) < count {
		v := int(src.Float64() * float64(space))
		for !add(pad(v, length)) {
			v = (v + 1) % space
		}
	}
	return out
}

// TailNumber derives the two-digit tail from the first prize instead of
// sampling it: (last two digits of firstPrize + InspirationValue(inspiration)
// + purchase pulse + chaosPulse) mod 100, zero padded. The purchase pulse sums,
// over the entries of the pulseWindow most recent purchases, each entry's
// trailing two-digit value plus its quantity.
//
// Postcondition: len(result) == 2.
func TailNumber(firstPrize, inspiration string, purchases []ticket.Purchase, pulseWindow, chaosPulse int) string {
	last := firstPrize
	if len(last) > 2 {
		last = last[len(last)-2:]
	}
	base, err := strconv.Atoi(last)
	if err != nil || base < 0 {
		base = 0
	}

	pulse := 0
	for _, p := range ticket.Recent(purchases, pulseWindow) {
		for _, e := range p.Entries {
			if !usable(e) {
				continue
			}
			pulse += e.TailValue() + e.Quantity
		}
	}

	v := (base + InspirationValue(inspiration) + pulse + chaosPulse) % 100
	if v < 0 {
		v += 100
	}
	return pad(v, 2)
}

// InspirationValue sums each character's code point times (index+3), or 0 for
// empty text.
func InspirationValue(inspiration string) int {
	total, i := 0, 0
	for _, r := range inspiration {
		total += int(r) * (i + 3)
		i++
	}
	return total
}

func pad(v, width int) string {
	return fmt.Sprintf("%0*d", width, v)
}

func pow10(n int) int {
	v := 1
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}
