package world

import (
	"portsim.ai/internal/sim/agents"
	"portsim.ai/internal/sim/model"
)

// ContainerSlot is a parking place for one container. The assignee is the
// agent currently responsible for the container, of either kind.
type ContainerSlot struct {
	Index     int
	Pos       model.Vec2
	Container *model.Container
	Assignee  agents.Agent
}

func (s *ContainerSlot) InspectionPoint() model.Vec2 { return s.Pos.Add(InspectionOffset) }

func (s *ContainerSlot) clear() {
	s.Container = nil
	s.Assignee = nil
}

type Slots struct {
	slots []*ContainerSlot
	// Removed holds the containers evicted during the current tick, in
	// eviction order. It is emptied when the next tick starts.
	Removed []*model.Container

	removedTotal uint64
}

func NewSlots(positions []model.Vec2) *Slots {
	s := &Slots{slots: make([]*ContainerSlot, len(positions))}
	for i, p := range positions {
		s.slots[i] = &ContainerSlot{Index: i, Pos: p}
	}
	return s
}

func (s *Slots) Len() int                { return len(s.slots) }
func (s *Slots) At(i int) *ContainerSlot { return s.slots[i] }
func (s *Slots) All() []*ContainerSlot   { return s.slots }

// Empty returns the first slot without a container.
func (s *Slots) Empty() *ContainerSlot {
	for _, sl := range s.slots {
		if sl.Container == nil {
			return sl
		}
	}
	return nil
}

// Unassigned returns the first slot holding a container nobody works on.
func (s *Slots) Unassigned() *ContainerSlot {
	for _, sl := range s.slots {
		if sl.Container != nil && sl.Assignee == nil {
			return sl
		}
	}
	return nil
}

func (s *Slots) evict(sl *ContainerSlot) {
	s.Removed = append(s.Removed, sl.Container)
	s.removedTotal++
	sl.clear()
}

// RemovedTotal counts every container evicted since the run started.
func (s *Slots) RemovedTotal() uint64 { return s.removedTotal }

func (s *Slots) resetRemoved() {
	clear(s.Removed)
	s.Removed = s.Removed[:0]
}

// Occupied counts slots holding a container.
func (s *Slots) Occupied() int {
	n := 0
	for _, sl := range s.slots {
		if sl.Container != nil {
			n++
		}
	}
	return n
}
