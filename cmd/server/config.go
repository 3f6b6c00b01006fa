package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"portsim.ai/internal/sim/tuning"
	"portsim.ai/internal/sim/world"
)

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return l, fmt.Errorf("log level %q: %w", s, err)
	}
	return l, nil
}

// overrides are command-line values that win over tuning.yaml; negative means unset.
type overrides struct {
	Seed       int64
	MaxTicks   int64
	LazyAgents int64
}

func worldConfig(runID string, tune tuning.Tuning, o overrides) world.WorldConfig {
	cfg := world.WorldConfig{
		ID:                  runID,
		TickRateHz:          tune.TickRateHz,
		ArrivalEveryTicks:   tune.ArrivalEveryTicks,
		MaxTicks:            uint64(tune.MaxTicks),
		Seed:                tune.Seed,
		LazyAgents:          tune.LazyAgents,
		LeadInspectionTicks: tune.Lead.InspectionTicks,
		LeadCooldownTicks:   tune.Lead.CooldownTicks,
		TooLazyExpr:         tune.Rules.TooLazyExpr,
	}
	if o.Seed >= 0 {
		cfg.Seed = o.Seed
	}
	if o.MaxTicks >= 0 {
		cfg.MaxTicks = uint64(o.MaxTicks)
	}
	if o.LazyAgents >= 0 {
		cfg.LazyAgents = int(o.LazyAgents)
	}
	return cfg
}
