package agents

import "portsim.ai/internal/sim/model"

// CustomsAgent performs the customs desk check and physical inspections.
type CustomsAgent struct {
	base
	policy ProperCheckPolicy
}

func NewCustomsAgent(id string, home model.Vec2, d Deps, policy ProperCheckPolicy) *CustomsAgent {
	if policy == nil {
		policy = Standard{}
	}
	return &CustomsAgent{base: newBase(id, home, d), policy: policy}
}

// Lazy reports whether the agent runs a lazy policy that has not been punished yet.
func (a *CustomsAgent) Lazy() bool {
	l, ok := a.policy.(*Lazy)
	return ok && !l.Punished()
}

func (a *CustomsAgent) AssignContainer(c *model.Container) {
	a.mustBeIdle("assign container")
	a.container = c
	a.state = Check
	a.dwell = 0
	a.log.Info("assigned container", "container", c.ID)
}

// SetContainerPosition sets where the physical inspection takes place.
func (a *CustomsAgent) SetContainerPosition(p model.Vec2) { a.target = p }

// AskInspection is used by an officer that walked over for a joint inspection.
func (a *CustomsAgent) AskInspection(c *model.Container) {
	a.container = c
	a.state = Inspection
	a.dwell = 0
	a.stats.ReportAgentPhysicallyInspected(a.id)
	a.log.Info("asked to inspect", "container", c.ID)
}

func (a *CustomsAgent) WaitForPA() {
	a.mustBeIdle("wait for officer")
	a.state = WaitingPA
}

func (a *CustomsAgent) Punish() {
	a.log.Info("punished")
	a.policy.Punish()
}

func (a *CustomsAgent) Step() {
	switch a.state {
	case Idle, WaitingPA:
	case Check:
		a.stepCheck()
	case Inspection:
		a.stepInspection()
	case Returning:
		a.stepReturning()
	}
}

func (a *CustomsAgent) stepCheck() {
	a.dwell++
	if a.dwell < CheckTicks {
		return
	}
	a.dwell = 0
	c := a.container
	escalate := a.policy.DecideToProperCheck(CheckInput{
		Container: c,
		Stats:     a.stats,
		Oracle:    a.oracle,
		Rand:      a.rand,
		Log:       a.log,
	})
	if escalate {
		a.log.Info("proper inspection", "container", c.ID)
		a.state = Inspection
		a.stats.ReportAgentPhysicallyInspected(a.id)
		return
	}

	a.log.Info("quick clearance", "container", c.ID)
	a.stats.ReportAgentVirtuallyInspected(a.id)
	c.ClearedByCustoms = model.Cleared
	a.stats.ReportCountryCorrect(c.Declaration.Source)
	a.stats.ReportCompanyCorrect(c.Company)
	if c.ItemsMatch() && c.TaxMatches() {
		a.stats.ContainerClearedCorrectly()
	} else {
		a.stats.ContainerClearedIncorrectly()
	}
	a.container = nil
	a.state = Idle
}

func (a *CustomsAgent) stepInspection() {
	if !a.moveTo(a.target) {
		return
	}
	if a.dwell < InspectionTicks {
		a.dwell++
		return
	}
	a.dwell = 0
	c := a.container
	switch {
	case c.ItemsMatch() && c.TaxMatches():
		a.log.Info("container checks out", "container", c.ID)
		c.ClearedByCustoms = model.Cleared
		a.stats.ReportCountryCorrect(c.Declaration.Source)
		a.stats.ReportCompanyCorrect(c.Company)
		a.stats.ContainerClearedCorrectly()
		a.stats.PutCompanyLastTax(c.Company, c.Tax)
	case c.ItemsMatch():
		a.log.Info("wrong tax", "container", c.ID, "declared", c.Declaration.DeclaredTax, "actual", c.Tax)
		a.reject(c)
	default:
		a.log.Info("faked declaration", "container", c.ID)
		a.reject(c)
	}
	a.container = nil
	a.state = Returning
}

func (a *CustomsAgent) reject(c *model.Container) {
	c.ClearedByCustoms = model.Uncleared
	a.stats.ReportCountryError(c.Declaration.Source)
	a.stats.ReportCompanyError(c.Company)
	a.stats.ContainerRejected()
}
