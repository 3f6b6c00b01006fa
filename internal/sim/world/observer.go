package world

import (
	"encoding/json"

	"portsim.ai/internal/observerproto"
	"portsim.ai/internal/sim/model"
)

// ObserverJoinRequest registers a read-only observer session that receives one
// marshalled observerproto.TickMsg per tick on TickOut.
//
// All observer state is maintained by the world loop goroutine.
type ObserverJoinRequest struct {
	SessionID string
	TickOut   chan []byte
}

type observerClient struct {
	id      string
	tickOut chan []byte
}

func (w *World) ObserverJoin() chan<- ObserverJoinRequest { return w.observerJoin }
func (w *World) ObserverLeave() chan<- string             { return w.observerLeave }

func (w *World) handleObserverJoin(req ObserverJoinRequest) {
	if w == nil || req.SessionID == "" || req.TickOut == nil {
		return
	}
	w.observers[req.SessionID] = &observerClient{id: req.SessionID, tickOut: req.TickOut}
	w.log.Debug("observer joined", "session", req.SessionID, "observers", len(w.observers))
}

func (w *World) handleObserverLeave(sessionID string) {
	if w == nil {
		return
	}
	if c, ok := w.observers[sessionID]; ok {
		close(c.tickOut)
		delete(w.observers, sessionID)
		w.log.Debug("observer left", "session", sessionID, "observers", len(w.observers))
	}
}

func (w *World) stepObservers(nowTick uint64, digest string) {
	if w == nil || len(w.observers) == 0 {
		return
	}
	b, err := json.Marshal(w.TickMsg(nowTick, digest))
	if err != nil {
		return
	}
	for _, c := range w.observers {
		sendLatest(c.tickOut, b)
	}
}

// TickMsg renders the current world state for observers. World loop only.
func (w *World) TickMsg(nowTick uint64, digest string) observerproto.TickMsg {
	msg := observerproto.TickMsg{
		Type:            "TICK",
		ProtocolVersion: observerproto.Version,
		Tick:            nowTick,
		Digest:          digest,
		Arrivals:        w.cur.arrivals,
	}
	for _, sl := range w.slots.All() {
		st := observerproto.SlotState{Index: sl.Index}
		if sl.Container != nil {
			cs := containerState(sl.Container)
			st.Container = &cs
		}
		if sl.Assignee != nil {
			st.AssigneeID = sl.Assignee.ID()
		}
		msg.Slots = append(msg.Slots, st)
	}
	for _, e := range w.cur.evictions {
		msg.Removed = append(msg.Removed, w.evictedState(e))
	}
	for _, a := range w.customs {
		st := observerproto.AgentState{
			ID:    a.ID(),
			Kind:  observerproto.KindCustoms,
			State: a.State().String(),
			Pos:   vec(a.Pos()),
			Lazy:  a.Lazy(),
		}
		if c := a.Container(); c != nil {
			st.ContainerID = c.ID
		}
		_, st.UnderInspection = w.lead.UnderInspection(a.ID())
		msg.Agents = append(msg.Agents, st)
	}
	for _, o := range w.officers {
		st := observerproto.AgentState{
			ID:    o.ID(),
			Kind:  observerproto.KindOfficer,
			State: o.State().String(),
			Pos:   vec(o.Pos()),
		}
		if c := o.Container(); c != nil {
			st.ContainerID = c.ID
		}
		if p := o.Partner(); p != nil {
			st.PartnerID = p.ID()
		}
		msg.Agents = append(msg.Agents, st)
	}
	msg.Lead = observerproto.LeadState{
		ID:              w.lead.ID(),
		Pos:             vec(w.lead.Pos()),
		UnderInspection: w.lead.UnderInspectionIDs(),
		Cooldown:        w.lead.CooldownIDs(),
		Flagged:         w.ActiveRules(),
	}
	cc := w.stats.Containers()
	msg.Containers = observerproto.ContainerTotals{ClearedOK: cc.ClearedOK, ClearedBad: cc.ClearedBad, Rejected: cc.Rejected}
	return msg
}

// evictedState looks the evicted container up in the removed list so that
// observers get the same shape as for parked containers.
func (w *World) evictedState(e Eviction) observerproto.ContainerState {
	for i := len(w.slots.Removed) - 1; i >= 0; i-- {
		if c := w.slots.Removed[i]; c.ID == e.ContainerID {
			return containerState(c)
		}
	}
	return observerproto.ContainerState{
		ID:               e.ContainerID,
		Company:          e.Company,
		Source:           e.Source,
		Faked:            e.Faked,
		ClearedByCustoms: e.ClearedByCustoms,
		ClearedByPA:      e.ClearedByPA,
		State:            e.State,
	}
}

func containerState(c *model.Container) observerproto.ContainerState {
	return observerproto.ContainerState{
		ID:               c.ID,
		Company:          c.Company,
		Source:           c.Declaration.Source,
		Destination:      c.Declaration.Destination,
		Dangerous:        c.Dangerous,
		Faked:            c.Faked(),
		ClearedByCustoms: c.ClearedByCustoms.String(),
		ClearedByPA:      c.ClearedByPA.String(),
		State:            c.State().String(),
	}
}

// Bootstrap describes the run to a newly connecting observer. Safe from any
// goroutine: it reads only immutable configuration and the atomic tick.
func (w *World) Bootstrap() observerproto.BootstrapResponse {
	resp := observerproto.BootstrapResponse{
		ProtocolVersion: observerproto.Version,
		RunID:           w.cfg.ID,
		Tick:            w.tick.Load(),
		WorldParams: observerproto.WorldParams{
			TickRateHz:        w.cfg.TickRateHz,
			ArrivalEveryTicks: w.cfg.ArrivalEveryTicks,
			Seed:              w.cfg.Seed,
			LazyAgents:        w.cfg.LazyAgents,
		},
		CatalogDigests: observerproto.CatalogInfo{
			Items:     w.catalogs.ItemsDigest,
			Companies: w.catalogs.CompaniesDigest,
			Locations: w.catalogs.LocationsDigest,
		},
	}
	for i, p := range SlotPositions {
		resp.Slots = append(resp.Slots, observerproto.SlotInfo{
			Index:           i,
			Pos:             vec(p),
			InspectionPoint: vec(p.Add(InspectionOffset)),
		})
	}
	return resp
}

func vec(v model.Vec2) [2]float64 { return [2]float64{v.X, v.Y} }

func sendLatest(ch chan []byte, b []byte) {
	if trySend(ch, b) {
		return
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	trySend(ch, b)
}

func trySend(ch chan []byte, b []byte) bool {
	select {
	case ch <- b:
		return true
	default:
		return false
	}
}
