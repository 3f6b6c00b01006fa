package rules

import (
	"log/slog"
	"slices"

	"portsim.ai/internal/sim/agents"
	"portsim.ai/internal/sim/stats"
)

// Engine instantiates one too-lazy rule per offending customs agent and hands
// each to the lead agent for inspection.
type Engine struct {
	cond   *TooLazy
	stats  *stats.Store
	lead   *agents.LeadCustomsAgent
	agents []*agents.CustomsAgent
	log    *slog.Logger

	active map[string]*agents.CustomsAgent
}

func NewEngine(cond *TooLazy, st *stats.Store, lead *agents.LeadCustomsAgent, customs []*agents.CustomsAgent, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		cond:   cond,
		stats:  st,
		lead:   lead,
		agents: customs,
		log:    log,
		active: map[string]*agents.CustomsAgent{},
	}
}

func (e *Engine) tooLazy(a *agents.CustomsAgent) bool {
	return e.cond.Eval(e.stats.AgentVirtuallyInspected(a.ID()), e.stats.AgentPhysicallyInspected(a.ID()))
}

// Evaluate runs one rule pass: instantiate, actuate, prune.
func (e *Engine) Evaluate() {
	for _, a := range e.agents {
		if _, ok := e.active[a.ID()]; ok {
			continue
		}
		if e.tooLazy(a) && !e.lead.Tracks(a.ID()) {
			e.active[a.ID()] = a
			e.log.Info("too-lazy rule instantiated",
				"agent", a.ID(),
				"virtual", e.stats.AgentVirtuallyInspected(a.ID()),
				"physical", e.stats.AgentPhysicallyInspected(a.ID()))
		}
	}
	ids := e.Active()
	for _, id := range ids {
		e.lead.InspectLazyAgent(e.active[id])
	}
	for _, id := range ids {
		if !e.tooLazy(e.active[id]) {
			delete(e.active, id)
			e.log.Info("too-lazy rule removed", "agent", id)
		}
	}
}

// Active lists the agents with an instantiated rule, in ID order.
func (e *Engine) Active() []string {
	ids := make([]string, 0, len(e.active))
	for id := range e.active {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
