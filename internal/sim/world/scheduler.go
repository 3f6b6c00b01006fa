package world

import (
	"portsim.ai/internal/sim/agents"
	"portsim.ai/internal/sim/model"
)

// stepArrivals places a new container once ArrivalEveryTicks idle ticks have
// passed since the last one. With every slot taken the arrival is retried each tick.
func (w *World) stepArrivals(nowTick uint64) {
	if w.sinceArrival != w.cfg.ArrivalEveryTicks {
		w.sinceArrival++
		return
	}
	sl := w.slots.Empty()
	if sl == nil {
		w.log.Debug("no empty slot", "tick", nowTick)
		return
	}
	c, err := w.gen.Generate()
	if err != nil {
		w.log.Error("container generation failed", "tick", nowTick, "err", err)
		return
	}
	sl.Container = c
	w.sinceArrival = 0
	w.cur.arrivals = append(w.cur.arrivals, c.ID)
	w.log.Info("container arrived", "tick", nowTick, "container", c.ID, "slot", sl.Index,
		"company", c.Company, "source", c.Declaration.Source, "faked", c.Faked())
}

// stepSlotMaintenance evicts resolved containers, resolves containers both
// authorities have ruled on, and frees a slot whose officer is done so a
// customs agent can take over.
func (w *World) stepSlotMaintenance(nowTick uint64) {
	for _, sl := range w.slots.All() {
		c := sl.Container
		if c == nil {
			continue
		}
		switch {
		case c.State() != model.Delivered:
			w.cur.evictions = append(w.cur.evictions, Eviction{
				Slot:             sl.Index,
				ContainerID:      c.ID,
				Company:          c.Company,
				Source:           c.Declaration.Source,
				Faked:            c.Faked(),
				ClearedByCustoms: c.ClearedByCustoms.String(),
				ClearedByPA:      c.ClearedByPA.String(),
				State:            c.State().String(),
			})
			w.log.Info("container removed", "tick", nowTick, "container", c.ID, "state", c.State())
			w.slots.evict(sl)
		case c.ClearedByPA.Resolved() && c.ClearedByCustoms.Resolved():
			c.Resolve(c.ClearedByPA)
		case c.ClearedByPA == model.Cleared && c.ClearedByCustoms == model.Delivered:
			if _, ok := sl.Assignee.(*agents.PortAuthorityOfficer); ok {
				sl.Assignee = nil
			}
		}
	}
}

// stepAssignment hands waiting containers to idle agents, first slot and first
// idle agent wins. It stops at the first container nobody can take.
func (w *World) stepAssignment(nowTick uint64) {
	for {
		sl := w.slots.Unassigned()
		if sl == nil {
			return
		}
		c := sl.Container
		switch {
		case c.ClearedByPA == model.Delivered:
			o := w.idleOfficer()
			if o == nil {
				w.log.Debug("no port authority officer available", "tick", nowTick, "container", c.ID)
				return
			}
			o.AssignContainer(c, sl.InspectionPoint())
			sl.Assignee = o
			w.recordAssignment(sl, o.ID())
		case c.ClearedByPA == model.Cleared && c.ClearedByCustoms == model.Delivered:
			a := w.idleCustoms()
			if a == nil {
				w.log.Debug("no customs agent available", "tick", nowTick, "container", c.ID)
				return
			}
			sl.Assignee = a
			a.AssignContainer(c)
			a.SetContainerPosition(sl.InspectionPoint())
			w.recordAssignment(sl, a.ID())
		default:
			return
		}
	}
}

func (w *World) recordAssignment(sl *ContainerSlot, agentID string) {
	w.cur.assignments = append(w.cur.assignments, Assignment{Slot: sl.Index, ContainerID: sl.Container.ID, AgentID: agentID})
}

// stepPairing gives every officer waiting for a joint inspection the first idle
// customs agent.
func (w *World) stepPairing(nowTick uint64) {
	for _, o := range w.officers {
		if o.State() != agents.RequestAgent {
			continue
		}
		a := w.idleCustoms()
		if a == nil {
			w.log.Debug("officer waits for a customs agent", "tick", nowTick, "officer", o.ID())
			continue
		}
		o.AssignAgent(a)
		w.cur.pairings = append(w.cur.pairings, Pairing{OfficerID: o.ID(), AgentID: a.ID(), ContainerID: o.Container().ID})
	}
}

func (w *World) idleOfficer() *agents.PortAuthorityOfficer {
	for _, o := range w.officers {
		if o.State() == agents.Idle {
			return o
		}
	}
	return nil
}

func (w *World) idleCustoms() *agents.CustomsAgent {
	for _, a := range w.customs {
		if a.State() == agents.Idle {
			return a
		}
	}
	return nil
}
