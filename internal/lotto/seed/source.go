// Package seed derives reproducible random sources from free-form entropy
// strings for the draw synthesizer.
package seed

// Source is the randomness provider consumed by the draw synthesizer.
//
// Implementations are stateful and NOT required to be safe for concurrent use;
// each synthesis owns its Source exclusively.
type Source interface {
	// Float64 returns a value uniformly distributed in [0, 1) and advances the
	// generator state.
	Float64() float64
}

// Mulberry32 is a fast 32-bit mixing generator.
//
// Invariant: two generators created from the same seed produce identical
// sequences for the lifetime of the process and across processes.
type Mulberry32 struct {
	state uint32
}

// NewMulberry32 returns a generator positioned at the start of the sequence
// for seed.
func NewMulberry32(seed uint32) *Mulberry32 {
	return &Mulberry32{state: seed}
}

// Uint32 advances the generator and returns the next raw 32-bit output.
func (m *Mulberry32) Uint32() uint32 {
	m.state += 0x6D2B79F5
	t := m.state
	x := (t ^ (t >> 15)) * (1 | t)
	x ^= x + (x^(x>>7))*(61|x)
	return x ^ (x >> 14)
}

// Float64 returns the next output scaled into [0, 1).
//
// Postcondition: 0 <= result < 1.
func (m *Mulberry32) Float64() float64 {
	return float64(m.Uint32()) / 4294967296.0
}

// Fixed is a Source that replays a fixed sequence of values, cycling when it
// runs out. Useful for exercising boundary behaviour in tests and simulations.
//
// Precondition: Values must be non-empty and each value in [0, 1).
type Fixed struct {
	Values []float64
	next   int
}

// Float64 returns the next value in the sequence.
func (f *Fixed) Float64() float64 {
	v := f.Values[f.next%len(f.Values)]
	f.next++
	return v
}
