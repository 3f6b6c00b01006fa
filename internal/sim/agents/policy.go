package agents

import (
	"log/slog"

	"portsim.ai/internal/sim/model"
	"portsim.ai/internal/sim/oracle"
	"portsim.ai/internal/sim/rng"
	"portsim.ai/internal/sim/stats"
)

// CompanyErrorRateThreshold sends every container of a company at or above this
// error rate to physical inspection.
const CompanyErrorRateThreshold = 0.1

// CheckInput is everything a policy may consult for one desk check.
type CheckInput struct {
	Container *model.Container
	Stats     *stats.Store
	Oracle    oracle.Oracle
	Rand      rng.Source
	Log       *slog.Logger
}

// ProperCheckPolicy decides whether a customs agent escalates a container to a
// physical inspection after the desk check.
type ProperCheckPolicy interface {
	DecideToProperCheck(in CheckInput) bool
	// Punish is called by the lead agent after a lazy streak was confirmed.
	Punish()
}

// Standard escalates on source-country risk, company risk or an unusual tax,
// and otherwise on a one-in-four random draw.
type Standard struct{}

func (Standard) DecideToProperCheck(in CheckInput) bool {
	c := in.Container
	rate := in.Stats.CountryErrorRate(c.Declaration.Source)
	if in.Oracle.Decide(oracle.ScenarioVirtualInspection, "incidentRate", oracle.FormatFloat(rate)) {
		in.Log.Info("too high error rate (or unknown) for source country", "container", c.ID, "country", c.Declaration.Source)
		return true
	}
	if in.Stats.CompanyErrorRate(c.Company) >= CompanyErrorRateThreshold {
		in.Log.Info("too high error rate (or unknown) for shipping company", "container", c.ID, "company", c.Company)
		return true
	}
	ratio := float64(c.Declaration.DeclaredTax) / float64(in.Stats.CompanyLastTax(c.Company))
	if in.Oracle.Decide(oracle.ScenarioTax, "tax", oracle.FormatFloat(ratio)) {
		in.Log.Info("declared tax differs too much from the company's last tax", "container", c.ID)
		return true
	}
	return in.Rand.Bits(2) == 0
}

func (Standard) Punish() {}

// Lazy never escalates until punished; afterwards it behaves like Next
// (Standard when nil).
type Lazy struct {
	Next     ProperCheckPolicy
	punished bool
}

func (l *Lazy) DecideToProperCheck(in CheckInput) bool {
	if !l.punished {
		return false
	}
	if l.Next == nil {
		return Standard{}.DecideToProperCheck(in)
	}
	return l.Next.DecideToProperCheck(in)
}

func (l *Lazy) Punish() { l.punished = true }

func (l *Lazy) Punished() bool { return l.punished }
