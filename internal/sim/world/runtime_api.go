package world

import (
	"portsim.ai/internal/sim/agents"
	"portsim.ai/internal/sim/stats"
)

func (w *World) SetTickLogger(l TickLogger) { w.tickLogger = l }

func (w *World) ID() string {
	if w == nil {
		return ""
	}
	return w.cfg.ID
}

func (w *World) Config() WorldConfig {
	if w == nil {
		return WorldConfig{}
	}
	return w.cfg
}

// CurrentTick is the number of ticks stepped so far. Safe from any goroutine.
func (w *World) CurrentTick() uint64 { return w.tick.Load() }

// The accessors below expose world-loop state and must only be used from the
// world loop goroutine, or after Run has returned.

func (w *World) Stats() *stats.Store                      { return w.stats }
func (w *World) Slots() *Slots                            { return w.slots }
func (w *World) CustomsAgents() []*agents.CustomsAgent    { return w.customs }
func (w *World) Officers() []*agents.PortAuthorityOfficer { return w.officers }
func (w *World) Lead() *agents.LeadCustomsAgent           { return w.lead }
func (w *World) ActiveRules() []string                    { return w.rules.Active() }
