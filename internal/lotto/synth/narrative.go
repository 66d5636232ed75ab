package synth

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Facts is everything a narrative is allowed to mention. Any Narrator must
// surface the inspiration (when present), the top trending digits, the entry
// count and the chaos percentage.
type Facts struct {
	Algorithm   string
	Inspiration string
	Trending    []int
	EntryCount  int
	Chaos       float64
}

// ChaosPercent returns Chaos as a rounded percentage.
func (f Facts) ChaosPercent() int {
	return int(math.Round(f.Chaos * 100))
}

// TopDigits returns at most n leading trending digits.
func (f Facts) TopDigits(n int) []int {
	if len(f.Trending) < n {
		return f.Trending
	}
	return f.Trending[:n]
}

// Narrator turns draw facts into a human-readable story.
type Narrator interface {
	Narrate(f Facts) (string, error)
}

// PlainNarrator is the built-in English narrator.
type PlainNarrator struct{}

// Narrate never fails.
func (PlainNarrator) Narrate(f Facts) (string, error) {
	var parts []string
	if f.Inspiration != "" {
		parts = append(parts, fmt.Sprintf("inspired by %q", f.Inspiration))
	}
	top := f.TopDigits(2)
	digits := make([]string, len(top))
	for i, d := range top {
		digits[i] = strconv.Itoa(d)
	}
	parts = append(parts, fmt.Sprintf("whispers from %d hot entries leaning toward %s",
		f.EntryCount, strings.Join(digits, " and ")))
	parts = append(parts, fmt.Sprintf("unpredictability tuned to %d%%", f.ChaosPercent()))
	return fmt.Sprintf("%s mixed %s before releasing this draw's lucky numbers",
		f.Algorithm, strings.Join(parts, " + ")), nil
}
