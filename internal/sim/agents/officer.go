package agents

import (
	"portsim.ai/internal/sim/model"
	"portsim.ai/internal/sim/oracle"
)

// ComputerPos is where officers consult the customs computer.
var ComputerPos = model.V(975, 440)

// PortAuthorityOfficer screens containers for dangerous goods and, when needed,
// escorts a customs agent to a joint inspection.
type PortAuthorityOfficer struct {
	base
	containerPos model.Vec2
	agent        *CustomsAgent
}

func NewPortAuthorityOfficer(id string, home model.Vec2, d Deps) *PortAuthorityOfficer {
	return &PortAuthorityOfficer{base: newBase(id, home, d)}
}

// Partner is the customs agent paired for the current container, if any.
func (o *PortAuthorityOfficer) Partner() *CustomsAgent { return o.agent }

func (o *PortAuthorityOfficer) AssignContainer(c *model.Container, inspectionPoint model.Vec2) {
	o.mustBeIdle("assign container")
	o.container = c
	o.containerPos = inspectionPoint
	o.state = Check
	o.dwell = 0
	o.log.Info("assigned container", "container", c.ID)
}

func (o *PortAuthorityOfficer) AssignAgent(a *CustomsAgent) {
	if o.state != RequestAgent {
		panic("agents: assign agent on " + o.id + " in state " + o.state.String())
	}
	a.WaitForPA()
	o.agent = a
	o.target = a.Home()
	o.state = MovingToAgent
	o.stats.ReportPAPairedWithAgent(o.id, a.ID())
	o.log.Info("paired", "with", a.ID(), "container", o.containerID())
}

func (o *PortAuthorityOfficer) Step() {
	switch o.state {
	case Idle, RequestAgent:
	case Check:
		o.stepCheck()
	case DetailedCheck:
		o.stepDetailedCheck()
	case MovingToAgent:
		if o.moveTo(o.target) {
			o.state = CheckWithAgent
		}
	case CheckWithAgent:
		o.target = o.containerPos
		o.state = Inspection
		o.agent.AskInspection(o.container)
		o.agent.SetContainerPosition(o.containerPos)
	case Inspection:
		o.stepInspection()
	case Returning:
		o.stepReturning()
	}
}

func (o *PortAuthorityOfficer) stepCheck() {
	o.dwell++
	if o.dwell < CheckTicks {
		return
	}
	o.dwell = 0
	c := o.container
	con := "NonDangerous"
	if c.Dangerous {
		con = "Dangerous"
	}
	if o.oracle.Decide(oracle.ScenarioDangerous, "con", con) {
		o.log.Info("detailed check, dangerous goods declared", "container", c.ID)
		o.state = DetailedCheck
		o.target = ComputerPos
		return
	}
	if o.rand.Bits(1) == 0 {
		o.log.Info("detailed check, random pick", "container", c.ID)
		o.state = DetailedCheck
		o.target = ComputerPos
		return
	}
	o.log.Info("quick clearance", "container", c.ID)
	o.stats.ReportPAVirtuallyInspected(o.id)
	c.ClearedByPA = model.Cleared
	o.container = nil
	o.state = Idle
}

func (o *PortAuthorityOfficer) stepDetailedCheck() {
	if !o.moveTo(ComputerPos) {
		return
	}
	if o.dwell < CheckTicks {
		o.dwell++
		return
	}
	o.dwell = 0
	c := o.container
	if o.rand.Bits(1) == 0 {
		o.log.Info("requesting customs agent", "container", c.ID)
		o.stats.ReportPAPhysicallyInspected(o.id)
		o.state = RequestAgent
		return
	}
	o.log.Info("cleared on the computer", "container", c.ID)
	o.stats.ReportPAComputerInspected(o.id)
	c.ClearedByPA = model.Cleared
	o.container = nil
	o.state = Returning
}

func (o *PortAuthorityOfficer) stepInspection() {
	if !o.moveTo(o.target) {
		return
	}
	c := o.container
	if c.ClearedByCustoms == model.Delivered {
		return
	}
	o.log.Info("joint inspection done", "container", c.ID, "customs", c.ClearedByCustoms)
	c.ClearedByPA = c.ClearedByCustoms
	o.container = nil
	o.agent = nil
	o.state = Returning
}
