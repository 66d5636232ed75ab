package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/lotto/internal/lotto/synth"
	"github.com/cory-johannsen/lotto/internal/lotto/ticket"
)

// Fixture pins every input of one synthesis so the result can be reproduced.
type Fixture struct {
	At          time.Time `yaml:"at"`
	Salt        string    `yaml:"salt"`
	Inspiration string    `yaml:"inspiration"`
	Chaos       *float64  `yaml:"chaos"`
	// Purchases are listed most recent first.
	Purchases []ticket.Purchase `yaml:"purchases"`
}

// LoadFixture reads and checks a YAML fixture.
//
// Precondition: path names a readable YAML file.
// Postcondition: Returns a Fixture with a non-zero At and only well-formed
// entries, or a non-nil error.
func LoadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("reading fixture %q: %w", path, err)
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("parsing fixture %q: %w", path, err)
	}
	if f.At.IsZero() {
		return Fixture{}, fmt.Errorf("fixture %q: at is required", path)
	}
	for i, p := range f.Purchases {
		for _, e := range p.Entries {
			spec, ok := ticket.Lookup(e.Category)
			if !ok || len(e.Number) != spec.Length || !ticket.IsDigits(e.Number) || e.Quantity < 1 {
				return Fixture{}, fmt.Errorf("fixture %q: purchase %d: %w: %s %q x%d",
					path, i, ticket.ErrInvalidEntry, e.Category, e.Number, e.Quantity)
			}
		}
	}
	return f, nil
}

// Request converts the fixture into a synthesis request. A missing chaos
// level uses def.
func (f Fixture) Request(def float64) synth.Request {
	chaos := def
	if f.Chaos != nil {
		chaos = *f.Chaos
	}
	return synth.Request{
		Purchases:   f.Purchases,
		Inspiration: f.Inspiration,
		Chaos:       chaos,
		At:          f.At,
		Salt:        f.Salt,
	}
}
