// Package ticket defines the purchasable number categories and the purchase
// records consumed by the synthesizer and the prize matcher.
package ticket

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category identifies which part of a result an entry is played against.
type Category string

// Known categories. The string values are the wire and storage names.
const (
	TwoDigitTail   Category = "twoDigitBack"
	HeadThreeDigit Category = "threeDigitFront"
	TailThreeDigit Category = "threeDigitBack"
)

// Status is the win state of an entry or a whole purchase.
type Status string

const (
	StatusPending Status = "pending"
	StatusWin     Status = "win"
	StatusLose    Status = "lose"
)

// Spec describes a purchasable category.
type Spec struct {
	Category   Category
	Length     int
	Price      decimal.Decimal
	Label      string
	PrizeLabel string
}

var specs = map[Category]Spec{
	TwoDigitTail: {
		Category:   TwoDigitTail,
		Length:     2,
		Price:      decimal.NewFromInt(1),
		Label:      "Last 2 digits",
		PrizeLabel: "Last 2 digits prize",
	},
	HeadThreeDigit: {
		Category:   HeadThreeDigit,
		Length:     3,
		Price:      decimal.NewFromInt(1),
		Label:      "First 3 digits",
		PrizeLabel: "First 3 digits prize",
	},
	TailThreeDigit: {
		Category:   TailThreeDigit,
		Length:     3,
		Price:      decimal.NewFromInt(1),
		Label:      "Last 3 digits",
		PrizeLabel: "Last 3 digits prize",
	},
}

// Lookup returns the Spec for c.
func Lookup(c Category) (Spec, bool) {
	s, ok := specs[c]
	return s, ok
}

// Categories returns all known categories in display order.
func Categories() []Category {
	return []Category{TwoDigitTail, HeadThreeDigit, TailThreeDigit}
}

var (
	// ErrInvalidEntry is the parent of every entry validation failure.
	ErrInvalidEntry = errors.New("invalid entry")
	// ErrNoEntries is returned when a purchase carries no entries.
	ErrNoEntries = errors.New("purchase must contain at least one entry")
	// ErrNoCustomer is returned when the customer name is blank.
	ErrNoCustomer = errors.New("customer name is required")
)

// Entry is one played number inside a purchase.
//
// Invariant: after NewPurchase, Number has exactly Spec.Length ASCII digits
// and Quantity >= 1.
type Entry struct {
	ID       string   `json:"id" yaml:"id"`
	Category Category `json:"numberType" yaml:"numberType"`
	Number   string   `json:"number" yaml:"number"`
	Quantity int      `json:"amount" yaml:"amount"`
	Status   Status   `json:"status" yaml:"status"`
}

// TotalPrice returns the entry's unit price times its quantity, or zero for an
// unknown category.
func (e Entry) TotalPrice() decimal.Decimal {
	s, ok := Lookup(e.Category)
	if !ok {
		return decimal.Zero
	}
	return s.Price.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

// TailValue returns the last two characters of Number parsed as an integer,
// or 0 when they are not numeric.
func (e Entry) TailValue() int {
	n := e.Number
	if len(n) > 2 {
		n = n[len(n)-2:]
	}
	v, err := strconv.Atoi(n)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// Purchase is a customer's set of entries against one draw period.
type Purchase struct {
	ID            string          `json:"id" yaml:"id"`
	DrawID        string          `json:"drawId" yaml:"drawId"`
	CustomerName  string          `json:"customerName" yaml:"customerName"`
	Entries       []Entry         `json:"entries" yaml:"entries"`
	TotalPrice    decimal.Decimal `json:"totalPrice" yaml:"-"`
	PurchasedAt   time.Time       `json:"purchaseDate" yaml:"purchasedAt"`
	Status        Status          `json:"status" yaml:"status"`
	CheckedDrawID string          `json:"checkedDrawId,omitempty" yaml:"-"`
	LastCheckedAt *time.Time      `json:"lastCheckedAt,omitempty" yaml:"-"`
}

// EntryInput is an unvalidated entry as submitted by a customer.
type EntryInput struct {
	Category Category `json:"numberType"`
	Number   string   `json:"number"`
	Quantity int      `json:"amount"`
}

// NewPurchase validates the inputs and builds a pending Purchase.
//
// Precondition: drawID identifies the open draw period.
// Postcondition: Returns a Purchase whose entries all satisfy the Entry
// invariant and whose TotalPrice is the sum of entry totals, or an error
// wrapping ErrInvalidEntry / ErrNoEntries / ErrNoCustomer.
func NewPurchase(drawID, customer string, inputs []EntryInput, now time.Time) (Purchase, error) {
	customer = strings.TrimSpace(customer)
	if customer == "" {
		return Purchase{}, ErrNoCustomer
	}
	if len(inputs) == 0 {
		return Purchase{}, ErrNoEntries
	}

	p := Purchase{
		ID:           uuid.NewString(),
		DrawID:       drawID,
		CustomerName: customer,
		Entries:      make([]Entry, 0, len(inputs)),
		TotalPrice:   decimal.Zero,
		PurchasedAt:  now,
		Status:       StatusPending,
	}
	for i, in := range inputs {
		e, err := newEntry(in)
		if err != nil {
			return Purchase{}, fmt.Errorf("entry %d: %w", i+1, err)
		}
		p.Entries = append(p.Entries, e)
		p.TotalPrice = p.TotalPrice.Add(e.TotalPrice())
	}
	return p, nil
}

func newEntry(in EntryInput) (Entry, error) {
	number := strings.TrimSpace(in.Number)
	if in.Category == "" || number == "" || in.Quantity <= 0 {
		return Entry{}, fmt.Errorf("%w: category, number and a positive quantity are required", ErrInvalidEntry)
	}
	spec, ok := Lookup(in.Category)
	if !ok {
		return Entry{}, fmt.Errorf("%w: unknown number type %q", ErrInvalidEntry, in.Category)
	}
	if len(number) != spec.Length || !IsDigits(number) {
		return Entry{}, fmt.Errorf("%w: %s needs exactly %d digits, got %q", ErrInvalidEntry, spec.Label, spec.Length, number)
	}
	return Entry{
		ID:       uuid.NewString(),
		Category: in.Category,
		Number:   number,
		Quantity: in.Quantity,
		Status:   StatusPending,
	}, nil
}

// IsDigits reports whether s is non-empty and consists only of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Signature renders the purchases as compact seed entropy:
// category:number:quantity tuples joined by "," within a purchase and "|"
// between purchases.
func Signature(purchases []Purchase) string {
	parts := make([]string, len(purchases))
	for i, p := range purchases {
		tuples := make([]string, len(p.Entries))
		for j, e := range p.Entries {
			tuples[j] = fmt.Sprintf("%s:%s:%d", e.Category, e.Number, e.Quantity)
		}
		parts[i] = strings.Join(tuples, ",")
	}
	return strings.Join(parts, "|")
}

// Recent returns at most n purchases from the head of purchases, which is
// ordered most recent first.
func Recent(purchases []Purchase, n int) []Purchase {
	if n < 0 {
		n = 0
	}
	if len(purchases) > n {
		return purchases[:n]
	}
	return purchases
}

// CountEntries returns the total number of entries across purchases.
func CountEntries(purchases []Purchase) int {
	total := 0
	for _, p := range purchases {
		total += len(p.Entries)
	}
	return total
}
