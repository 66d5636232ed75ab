// Package prize matches purchased entries against an announced result.
package prize

import (
	"slices"

	"github.com/cory-johannsen/lotto/internal/lotto/result"
	"github.com/cory-johannsen/lotto/internal/lotto/ticket"
)

// Prize tags. An entry may collect more than one.
const (
	TwoDigitTail            = "tail-two-digit prize"
	TwoDigitFromFirstPrize  = "tail-two-digit-from-first-prize"
	HeadThreeDigit          = "head-three-digit prize"
	HeadThreeFromFirstPrize = "head-three-digit-from-first-prize"
	TailThreeDigit          = "tail-three-digit prize"
	TailThreeFromFirstPrize = "tail-three-digit-from-first-prize"
)

// Outcome is the match verdict for one entry.
type Outcome struct {
	Entry  ticket.Entry
	Prizes []string
}

// Won reports whether the entry collected at least one prize tag.
func (o Outcome) Won() bool {
	return len(o.Prizes) > 0
}

// Status returns StatusWin or StatusLose.
func (o Outcome) Status() ticket.Status {
	if o.Won() {
		return ticket.StatusWin
	}
	return ticket.StatusLose
}

// Match applies the per-category rules to every entry. Only the four numeric
// fields of r are read, so synthesized and manual results behave identically.
// Neither r nor entries are modified.
//
// Postcondition: len(outcomes) == len(entries), in the same order; anyWin is
// true iff some outcome Won. Calling Match again with the same inputs yields
// the same answer.
func Match(r result.Result, entries []ticket.Entry) (anyWin bool, outcomes []Outcome) {
	outcomes = make([]Outcome, len(entries))
	for i, e := range entries {
		o := Outcome{Entry: e, Prizes: tags(r, e)}
		o.Entry.Status = o.Status()
		outcomes[i] = o
		if o.Won() {
			anyWin = true
		}
	}
	return anyWin, outcomes
}

func tags(r result.Result, e ticket.Entry) []string {
	var out []string
	switch e.Category {
	case ticket.TwoDigitTail:
		if e.Number == r.TwoDigitTail {
			out = append(out, TwoDigitTail)
		}
		if fromFirstPrize(r, e.Number, tail(r.FirstPrize, 2)) {
			out = append(out, TwoDigitFromFirstPrize)
		}
	case ticket.HeadThreeDigit:
		if slices.Contains(r.FrontPair, e.Number) {
			out = append(out, HeadThreeDigit)
		}
		if fromFirstPrize(r, e.Number, head(r.FirstPrize, 3)) {
			out = append(out, HeadThreeFromFirstPrize)
		}
	case ticket.TailThreeDigit:
		if slices.Contains(r.BackPair, e.Number) {
			out = append(out, TailThreeDigit)
		}
		if fromFirstPrize(r, e.Number, tail(r.FirstPrize, 3)) {
			out = append(out, TailThreeFromFirstPrize)
		}
	}
	return out
}

func fromFirstPrize(r result.Result, number, slice string) bool {
	return r.FirstPrize != "" && number == slice
}

func head(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}

func tail(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[len(s)-n:]
}
