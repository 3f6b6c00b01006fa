package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	TickRateHz        int   `yaml:"tick_rate_hz"`
	ArrivalEveryTicks int   `yaml:"arrival_every_ticks"`
	MaxTicks          int64 `yaml:"max_ticks"`
	Seed              int64 `yaml:"seed"`
	LazyAgents        int   `yaml:"lazy_agents"`

	Analysis Analysis `yaml:"analysis"`
	Rules    Rules    `yaml:"rules"`
	Lead     Lead     `yaml:"lead"`
}

type Analysis struct {
	Fake      bool   `yaml:"fake"`
	Binary    string `yaml:"binary"`
	ModelPath string `yaml:"model_path"`
}

type Rules struct {
	TooLazyExpr string `yaml:"too_lazy_expr"`
}

type Lead struct {
	InspectionTicks int `yaml:"inspection_ticks"`
	CooldownTicks   int `yaml:"cooldown_ticks"`
}

// Defaults are used for every key a tuning file leaves out.
func Defaults() Tuning {
	return Tuning{
		TickRateHz:        10,
		ArrivalEveryTicks: 10,
		Seed:              1,
		LazyAgents:        1,
		Analysis: Analysis{
			Fake:      true,
			Binary:    "analysis/eclipse",
			ModelPath: "CaseStudies/bundles/fluidTrustCaseStudy-Simplified/",
		},
		Lead: Lead{InspectionTicks: 100, CooldownTicks: 500},
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	switch {
	case t.TickRateHz <= 0:
		return fmt.Errorf("tick_rate_hz must be positive, got %d", t.TickRateHz)
	case t.ArrivalEveryTicks < 0:
		return fmt.Errorf("arrival_every_ticks must not be negative, got %d", t.ArrivalEveryTicks)
	case t.MaxTicks < 0:
		return fmt.Errorf("max_ticks must not be negative, got %d", t.MaxTicks)
	case t.LazyAgents < 0:
		return fmt.Errorf("lazy_agents must not be negative, got %d", t.LazyAgents)
	case t.Lead.InspectionTicks <= 0 || t.Lead.CooldownTicks <= 0:
		return fmt.Errorf("lead windows must be positive, got %d/%d", t.Lead.InspectionTicks, t.Lead.CooldownTicks)
	case !t.Analysis.Fake && t.Analysis.Binary == "":
		return fmt.Errorf("analysis.binary is required unless analysis.fake is set")
	}
	return nil
}
