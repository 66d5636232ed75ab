// Package result defines the announced draw result record shared by the
// synthesizer, the prize matcher and the persistence boundary.
package result

import (
	"errors"
	"fmt"
	"time"

	"github.com/cory-johannsen/lotto/internal/lotto/ticket"
)

// Field widths of the numeric result fields. Numbers are compared as strings,
// so zero padding is significant.
const (
	FirstPrizeWidth = 6
	PairWidth       = 3
	TailWidth       = 2
	PairSize        = 2
)

// ManualAlgorithm tags operator-supplied results.
const ManualAlgorithm = "manual"

// ManualNarrative is the narrative attached to operator-supplied results.
const ManualNarrative = "Result set by operator"

// ErrInvalidResult is returned when a result's numeric fields violate the
// fixed-width format.
var ErrInvalidResult = errors.New("invalid result")

// Result is one announced draw outcome.
//
// Invariant (for synthesized results and validated manual results):
// FirstPrize has 6 digits, FrontPair and BackPair each hold 2 distinct
// 3-digit strings, TwoDigitTail has 2 digits.
type Result struct {
	DrawID       string    `json:"drawId"`
	FirstPrize   string    `json:"firstPrize"`
	FrontPair    []string  `json:"threeDigitFront"`
	BackPair     []string  `json:"threeDigitBack"`
	TwoDigitTail string    `json:"twoDigitBack"`
	Narrative    string    `json:"story"`
	Inspiration  string    `json:"inspiration,omitempty"`
	ChaosLevel   float64   `json:"chaosLevel"`
	Algorithm    string    `json:"algorithm"`
	Locked       bool      `json:"isLocked"`
	AnnouncedAt  time.Time `json:"drawDate"`
}

// Numbers is the operator-supplied part of a manual result.
type Numbers struct {
	FirstPrize   string   `json:"firstPrize"`
	FrontPair    []string `json:"threeDigitFront"`
	BackPair     []string `json:"threeDigitBack"`
	TwoDigitTail string   `json:"twoDigitBack"`
}

// Manual builds a locked result from operator-supplied numbers, bypassing
// synthesis entirely.
//
// Postcondition: Returns a Result with Locked set, or an error wrapping
// ErrInvalidResult when the numbers are malformed.
func Manual(n Numbers, inspiration string, at time.Time) (Result, error) {
	r := Result{
		FirstPrize:   n.FirstPrize,
		FrontPair:    append([]string(nil), n.FrontPair...),
		BackPair:     append([]string(nil), n.BackPair...),
		TwoDigitTail: n.TwoDigitTail,
		Narrative:    ManualNarrative,
		Inspiration:  inspiration,
		ChaosLevel:   0,
		Algorithm:    ManualAlgorithm,
		Locked:       true,
		AnnouncedAt:  at,
	}
	if err := r.Validate(); err != nil {
		return Result{}, err
	}
	return r, nil
}

// Validate checks the fixed-width invariant of every numeric field.
func (r Result) Validate() error {
	if !fixed(r.FirstPrize, FirstPrizeWidth) {
		return fmt.Errorf("%w: first prize must be %d digits, got %q", ErrInvalidResult, FirstPrizeWidth, r.FirstPrize)
	}
	if err := validatePair("front pair", r.FrontPair); err != nil {
		return err
	}
	if err := validatePair("back pair", r.BackPair); err != nil {
		return err
	}
	if !fixed(r.TwoDigitTail, TailWidth) {
		return fmt.Errorf("%w: two-digit tail must be %d digits, got %q", ErrInvalidResult, TailWidth, r.TwoDigitTail)
	}
	return nil
}

func validatePair(name string, pair []string) error {
	if len(pair) != PairSize {
		return fmt.Errorf("%w: %s must hold %d numbers, got %d", ErrInvalidResult, name, PairSize, len(pair))
	}
	for _, n := range pair {
		if !fixed(n, PairWidth) {
			return fmt.Errorf("%w: %s members must be %d digits, got %q", ErrInvalidResult, name, PairWidth, n)
		}
	}
	if pair[0] == pair[1] {
		return fmt.Errorf("%w: %s members must be distinct, got %q twice", ErrInvalidResult, name, pair[0])
	}
	return nil
}

func fixed(s string, width int) bool {
	return len(s) == width && ticket.IsDigits(s)
}

// Announced reports whether r carries a first prize, i.e. a result has been
// published for its draw.
func (r Result) Announced() bool {
	return r.FirstPrize != ""
}
