// Package period models draw periods: the windows in which purchases
// accumulate before one result is announced and the period closes.
package period

import (
	"fmt"
	"time"
)

// DefaultInterval is the spacing between consecutive draw dates.
const DefaultInterval = 15 * 24 * time.Hour

// Draw is one draw period.
type Draw struct {
	ID       string    `json:"id"`
	Sequence int       `json:"sequence"`
	Date     time.Time `json:"date"`
	Active   bool      `json:"-"`
}

// New returns an open draw for sequence scheduled on date.
//
// Precondition: sequence >= 1.
func New(sequence int, date time.Time) Draw {
	return Draw{
		ID:       ID(sequence),
		Sequence: sequence,
		Date:     date,
		Active:   true,
	}
}

// ID formats the identifier of the draw with the given sequence number.
func ID(sequence int) string {
	return fmt.Sprintf("DRAW-%04d", sequence)
}

// Next returns the open successor of d, scheduled interval after d.
//
// Postcondition: result.Sequence == d.Sequence+1 and result.Active.
func (d Draw) Next(interval time.Duration) Draw {
	return New(d.Sequence+1, d.Date.Add(interval))
}

// Label is the human-readable period name.
func (d Draw) Label() string {
	return "Draw of " + d.Date.Format("January 2, 2006")
}

// Labeled is the JSON-facing view of a draw including its label.
type Labeled struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Sequence int       `json:"sequence"`
	Date     time.Time `json:"date"`
}

// View returns d with its label for API responses.
func (d Draw) View() Labeled {
	return Labeled{ID: d.ID, Label: d.Label(), Sequence: d.Sequence, Date: d.Date}
}
