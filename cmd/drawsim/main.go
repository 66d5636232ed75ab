// Package main replays one draw synthesis offline from a YAML fixture and
// prints the result as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/cory-johannsen/lotto/internal/config"
	"github.com/cory-johannsen/lotto/internal/lottery"
	"github.com/cory-johannsen/lotto/internal/lotto/result"
	"github.com/cory-johannsen/lotto/internal/lotto/synth"
	"github.com/cory-johannsen/lotto/internal/observability"
	"github.com/cory-johannsen/lotto/internal/scripting"
)

func main() {
	fixturePath := flag.String("fixture", "", "path to the YAML fixture (required)")
	configPath := flag.String("config", "", "optional configuration file supplying draw tuning")
	flag.Parse()

	if *fixturePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	fixture, err := LoadFixture(*fixturePath)
	if err != nil {
		logger.Fatal("loading fixture", zap.Error(err))
	}

	var narrator synth.Narrator
	if cfg.Draw.NarrativeScript != "" {
		n, err := scripting.LoadNarrator(cfg.Draw.NarrativeScript, cfg.Draw.ScriptInstructionLimit, logger)
		if err != nil {
			logger.Fatal("loading narrative script", zap.Error(err))
		}
		narrator = n
	}

	s := synth.New(lottery.TuningFromConfig(cfg.Draw), narrator, logger)
	if err := writeResult(os.Stdout, Simulate(s, fixture)); err != nil {
		logger.Fatal("writing result", zap.Error(err))
	}
}

// loadConfig returns the defaults, quietened to warnings, when path is empty.
func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	v := config.Defaults()
	v.Set("database.driver", config.DriverMemory)
	v.Set("logging.level", "warn")
	v.Set("logging.format", "console")
	return config.LoadFromViper(v)
}

// Simulate synthesizes the fixture's draw.
func Simulate(s *synth.Synthesizer, f Fixture) result.Result {
	return s.Synthesize(f.Request(s.Tuning().DefaultChaos))
}

func writeResult(w io.Writer, r result.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	return nil
}
