package lottery

import (
	"github.com/cory-johannsen/lotto/internal/config"
	"github.com/cory-johannsen/lotto/internal/lotto/synth"
)

// TuningFromConfig maps the draw section onto synthesis constants. An empty
// algorithm name keeps the default tag.
func TuningFromConfig(d config.DrawConfig) synth.Tuning {
	t := synth.Tuning{
		HistoryWindow:   d.HistoryWindow,
		PulseWindow:     d.PulseWindow,
		SignatureWindow: d.SignatureWindow,
		FirstPrizeChaos: d.FirstPrizeChaos,
		FrontChaos:      d.FrontChaos,
		BackChaos:       d.BackChaos,
		FrontBaseChaos:  d.FrontBaseChaos,
		BackBaseChaos:   d.BackBaseChaos,
		UniqueAttempts:  d.UniqueAttempts,
		DefaultChaos:    d.DefaultChaos,
		Algorithm:       d.Algorithm,
	}
	if t.Algorithm == "" {
		t.Algorithm = synth.DefaultAlgorithm
	}
	return t
}
