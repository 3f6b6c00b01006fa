package agents

import (
	"slices"

	"portsim.ai/internal/sim/model"
)

const (
	DefaultInspectionTicks = 100
	DefaultCooldownTicks   = 500
)

// LeadCustomsAgent watches customs agents flagged as lazy and punishes those
// still tracked after the inspection window. Punished agents sit in a cooldown
// during which they cannot be flagged again.
type LeadCustomsAgent struct {
	base

	InspectionTicks int
	CooldownTicks   int
	// OnPunish, when set, is called with the ID of every punished agent.
	OnPunish func(agentID string)

	underInspection map[string]*tracked
	cooldown        map[string]*tracked
}

type tracked struct {
	agent *CustomsAgent
	ticks int
}

func NewLeadCustomsAgent(id string, home model.Vec2, d Deps) *LeadCustomsAgent {
	return &LeadCustomsAgent{
		base:            newBase(id, home, d),
		InspectionTicks: DefaultInspectionTicks,
		CooldownTicks:   DefaultCooldownTicks,
		underInspection: map[string]*tracked{},
		cooldown:        map[string]*tracked{},
	}
}

// InspectLazyAgent starts watching a. It does nothing while a is already
// watched or cooling down.
func (l *LeadCustomsAgent) InspectLazyAgent(a *CustomsAgent) {
	if l.Tracks(a.ID()) {
		return
	}
	l.underInspection[a.ID()] = &tracked{agent: a, ticks: 1}
	l.log.Info("inspecting lazy agent", "suspect", a.ID())
}

func (l *LeadCustomsAgent) Tracks(agentID string) bool {
	_, u := l.underInspection[agentID]
	_, c := l.cooldown[agentID]
	return u || c
}

func (l *LeadCustomsAgent) UnderInspection(agentID string) (ticks int, ok bool) {
	t, ok := l.underInspection[agentID]
	if !ok {
		return 0, false
	}
	return t.ticks, true
}

func (l *LeadCustomsAgent) InCooldown(agentID string) (ticks int, ok bool) {
	t, ok := l.cooldown[agentID]
	if !ok {
		return 0, false
	}
	return t.ticks, true
}

// UnderInspectionIDs returns the watched agents in ID order.
func (l *LeadCustomsAgent) UnderInspectionIDs() []string { return sortedKeys(l.underInspection) }

func (l *LeadCustomsAgent) CooldownIDs() []string { return sortedKeys(l.cooldown) }

func (l *LeadCustomsAgent) Step() {
	for _, id := range sortedKeys(l.underInspection) {
		t := l.underInspection[id]
		t.ticks++
		if t.ticks <= l.InspectionTicks {
			continue
		}
		delete(l.underInspection, id)
		t.agent.Punish()
		t.ticks = 1
		l.cooldown[id] = t
		l.log.Info("punished lazy agent", "suspect", id)
		if l.OnPunish != nil {
			l.OnPunish(id)
		}
	}
	for _, id := range sortedKeys(l.cooldown) {
		t := l.cooldown[id]
		t.ticks++
		if t.ticks > l.CooldownTicks {
			delete(l.cooldown, id)
			l.log.Debug("cooldown over", "suspect", id)
		}
	}
}

func sortedKeys(m map[string]*tracked) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
