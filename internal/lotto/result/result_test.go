package result_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/lotto/internal/lotto/result"
)

func validNumbers() result.Numbers {
	return result.Numbers{
		FirstPrize:   "000123",
		FrontPair:    []string{"007", "100"},
		BackPair:     []string{"999", "000"},
		TwoDigitTail: "00",
	}
}

func TestManual_LockedAndTagged(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r, err := result.Manual(validNumbers(), "dream", at)
	require.NoError(t, err)
	assert.True(t, r.Locked)
	assert.Equal(t, result.ManualAlgorithm, r.Algorithm)
	assert.Equal(t, 0.0, r.ChaosLevel)
	assert.Equal(t, "dream", r.Inspiration)
	assert.Equal(t, at, r.AnnouncedAt)
	assert.True(t, r.Announced())
}

func TestManual_CopiesPairs(t *testing.T) {
	n := validNumbers()
	r, err := result.Manual(n, "", time.Now())
	require.NoError(t, err)
	n.FrontPair[0] = "555"
	assert.Equal(t, "007", r.FrontPair[0])
}

func TestValidate_Rejections(t *testing.T) {
	mutations := map[string]func(n *result.Numbers){
		"short first prize":   func(n *result.Numbers) { n.FirstPrize = "12345" },
		"alpha first prize":   func(n *result.Numbers) { n.FirstPrize = "12345a" },
		"one front number":    func(n *result.Numbers) { n.FrontPair = []string{"123"} },
		"duplicate back pair": func(n *result.Numbers) { n.BackPair = []string{"123", "123"} },
		"unpadded back":       func(n *result.Numbers) { n.BackPair = []string{"7", "123"} },
		"long tail":           func(n *result.Numbers) { n.TwoDigitTail = "123" },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			n := validNumbers()
			mutate(&n)
			_, err := result.Manual(n, "", time.Now())
			assert.ErrorIs(t, err, result.ErrInvalidResult)
		})
	}
}

func TestAnnounced_EmptyResult(t *testing.T) {
	assert.False(t, result.Result{}.Announced())
}
