package world

import (
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portsim.ai/internal/sim/agents"
	"portsim.ai/internal/sim/catalogs"
	"portsim.ai/internal/sim/model"
)

type recordingLogger struct {
	entries []TickLogEntry
}

func (r *recordingLogger) WriteTick(e TickLogEntry) error {
	r.entries = append(r.entries, e)
	return nil
}

func loadCatalogs(t testing.TB) *catalogs.Catalogs {
	t.Helper()
	cats, err := catalogs.Load(filepath.Join("..", "..", "..", "configs"))
	require.NoError(t, err)
	return cats
}

func newTestWorld(t testing.TB, cfg WorldConfig, env Env) *World {
	t.Helper()
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	w, err := New(cfg, loadCatalogs(t), env)
	require.NoError(t, err)
	return w
}

func testContainer(id string) *model.Container {
	items := []model.Item{{Kind: "K", Amount: 1, Description: id, Price: 100}}
	return model.NewContainer(id, "Maersk", items, 15, model.Declaration{Items: items, Source: "Shanghai", Destination: "Santos", DeclaredTax: 15})
}

func TestNew_Layout(t *testing.T) {
	w := newTestWorld(t, WorldConfig{LazyAgents: 2}, Env{})

	require.Len(t, w.CustomsAgents(), 3)
	require.Len(t, w.Officers(), 3)
	assert.Equal(t, 7, w.Slots().Len())
	assert.Equal(t, "Agent01", w.CustomsAgents()[0].ID())
	assert.Equal(t, "PortAuthorityAgent03", w.Officers()[2].ID())
	assert.Equal(t, model.V(975, 270), w.Lead().Pos())
	assert.Equal(t, model.V(160, 550), w.Slots().At(6).InspectionPoint())

	assert.True(t, w.CustomsAgents()[0].Lazy())
	assert.True(t, w.CustomsAgents()[1].Lazy())
	assert.False(t, w.CustomsAgents()[2].Lazy())
}

func TestNew_RejectsBadInput(t *testing.T) {
	_, err := New(WorldConfig{}, nil, Env{})
	assert.Error(t, err)

	_, err = New(WorldConfig{}, &catalogs.Catalogs{Companies: []string{"x"}}, Env{})
	assert.Error(t, err)

	_, err = New(WorldConfig{TooLazyExpr: "virtual +"}, loadCatalogs(t), Env{})
	assert.Error(t, err)
}

func TestStep_ArrivalsEveryElevenTicks(t *testing.T) {
	w := newTestWorld(t, WorldConfig{}, Env{})
	rec := &recordingLogger{}
	w.SetTickLogger(rec)
	for i := 0; i < 34; i++ {
		w.StepOnce()
	}
	var arrivalTicks []uint64
	for _, e := range rec.entries {
		if len(e.Arrivals) > 0 {
			arrivalTicks = append(arrivalTicks, e.Tick)
		}
	}
	assert.Equal(t, []uint64{0, 11, 22, 33}, arrivalTicks)
	assert.Equal(t, "Container001", rec.entries[0].Arrivals[0])
}

func TestStep_ArrivalCadenceIsIdleTicksPlusOne(t *testing.T) {
	w := newTestWorld(t, WorldConfig{ArrivalEveryTicks: 3}, Env{})
	rec := &recordingLogger{}
	w.SetTickLogger(rec)
	for i := 0; i < 9; i++ {
		w.StepOnce()
	}
	var arrivalTicks []uint64
	for _, e := range rec.entries {
		if len(e.Arrivals) > 0 {
			arrivalTicks = append(arrivalTicks, e.Tick)
		}
	}
	assert.Equal(t, []uint64{0, 4, 8}, arrivalTicks)
}

func TestStep_ArrivalWaitsForFreeSlot(t *testing.T) {
	w := newTestWorld(t, WorldConfig{}, Env{})
	for i, sl := range w.Slots().All() {
		sl.Container = testContainer("Parked" + string(rune('A'+i)))
		sl.Assignee = w.Lead()
	}
	w.stepArrivals(0)
	assert.Empty(t, w.cur.arrivals)
	assert.Equal(t, w.cfg.ArrivalEveryTicks, w.sinceArrival, "the arrival is retried on the next tick")

	w.Slots().At(3).clear()
	w.stepArrivals(1)
	assert.Len(t, w.cur.arrivals, 1)
	assert.Equal(t, 0, w.sinceArrival)
	assert.NotNil(t, w.Slots().At(3).Container)
}

func TestSlotMaintenance_ResolvesThenEvicts(t *testing.T) {
	w := newTestWorld(t, WorldConfig{}, Env{})
	sl := w.Slots().At(2)
	c := testContainer("Container900")
	c.ClearedByPA = model.Cleared
	c.ClearedByCustoms = model.Uncleared
	sl.Container = c
	sl.Assignee = w.CustomsAgents()[0]

	w.stepSlotMaintenance(0)
	assert.Equal(t, model.Cleared, c.State(), "the overall state follows the port authority")
	assert.Same(t, c, sl.Container)

	w.stepSlotMaintenance(1)
	assert.Nil(t, sl.Container)
	assert.Nil(t, sl.Assignee)
	require.Len(t, w.cur.evictions, 1)
	assert.Equal(t, Eviction{
		Slot: 2, ContainerID: "Container900", Company: "Maersk", Source: "Shanghai",
		ClearedByCustoms: "UNCLEARED", ClearedByPA: "CLEARED", State: "CLEARED",
	}, w.cur.evictions[0])
	assert.Equal(t, []*model.Container{c}, w.Slots().Removed)
	assert.Equal(t, uint64(1), w.Slots().RemovedTotal())
}

func TestStep_RemovedHoldsOnlyThisTick(t *testing.T) {
	w := newTestWorld(t, WorldConfig{Seed: 7}, Env{})
	rec := &recordingLogger{}
	w.SetTickLogger(rec)

	var total uint64
	for i := 0; i < 20000; i++ {
		w.StepOnce()
		last := rec.entries[len(rec.entries)-1]
		require.Len(t, w.Slots().Removed, len(last.Evictions), "tick %d", last.Tick)
		for j, c := range w.Slots().Removed {
			require.Equal(t, last.Evictions[j].ContainerID, c.ID)
		}
		total += uint64(len(last.Evictions))
	}
	assert.Equal(t, total, w.Slots().RemovedTotal())
	assert.Greater(t, total, uint64(1000))
}

func TestSlotMaintenance_HandsOverFromOfficer(t *testing.T) {
	w := newTestWorld(t, WorldConfig{}, Env{})
	sl := w.Slots().At(1)
	c := testContainer("Container901")
	c.ClearedByPA = model.Cleared
	sl.Container = c
	sl.Assignee = w.Officers()[0]

	other := w.Slots().At(4)
	c2 := testContainer("Container902")
	c2.ClearedByPA = model.Cleared
	other.Container = c2
	other.Assignee = w.CustomsAgents()[2]

	w.stepSlotMaintenance(0)
	assert.Nil(t, sl.Assignee)
	assert.Same(t, w.CustomsAgents()[2], other.Assignee, "customs assignees are kept")

	w.stepAssignment(0)
	a := w.CustomsAgents()[0]
	assert.Same(t, a, sl.Assignee)
	assert.Equal(t, agents.Check, a.State())
	assert.Equal(t, sl.InspectionPoint(), a.Target())
	assert.Equal(t, []Assignment{{Slot: 1, ContainerID: "Container901", AgentID: "Agent01"}}, w.cur.assignments)
}

func TestAssignment_StopsWhenNoOfficerIsIdle(t *testing.T) {
	w := newTestWorld(t, WorldConfig{}, Env{})
	for i := 0; i < 5; i++ {
		w.Slots().At(i).Container = testContainer("Container90" + string(rune('0'+i)))
	}
	w.stepAssignment(0)

	require.Len(t, w.cur.assignments, 3)
	seen := map[string]bool{}
	for i, as := range w.cur.assignments {
		assert.Equal(t, i, as.Slot)
		assert.False(t, seen[as.AgentID], "agent %s assigned twice", as.AgentID)
		seen[as.AgentID] = true
	}
	assert.Nil(t, w.Slots().At(3).Assignee)
	assert.Nil(t, w.Slots().At(4).Assignee)
}

func TestAssignment_SkipsUnassignableContainer(t *testing.T) {
	w := newTestWorld(t, WorldConfig{}, Env{})
	c := testContainer("Container910")
	c.ClearedByPA = model.Uncleared
	w.Slots().At(0).Container = c
	w.Slots().At(1).Container = testContainer("Container911")

	w.stepAssignment(0)
	assert.Empty(t, w.cur.assignments, "assignment stops at the first container nobody can take")
}

func TestStep_Invariants(t *testing.T) {
	w := newTestWorld(t, WorldConfig{Seed: 7, LazyAgents: 1}, Env{})
	rec := &recordingLogger{}
	w.SetTickLogger(rec)

	resolvedAt := map[string]model.ClearanceState{}
	var pendingEviction []string

	for i := 0; i < 5000; i++ {
		w.StepOnce()
		e := rec.entries[len(rec.entries)-1]

		inYard := map[string]bool{}
		for _, sl := range w.Slots().All() {
			if sl.Container != nil {
				inYard[sl.Container.ID] = true
			}
		}
		for _, id := range pendingEviction {
			assert.False(t, inYard[id], "tick %d: %s still parked a tick after resolution", e.Tick, id)
		}
		pendingEviction = pendingEviction[:0]

		assigned := map[string]bool{}
		for _, as := range e.Assignments {
			require.False(t, assigned[as.AgentID], "tick %d: %s assigned twice", e.Tick, as.AgentID)
			assigned[as.AgentID] = true
		}

		for _, sl := range w.Slots().All() {
			c := sl.Container
			if c == nil {
				continue
			}
			if prev, ok := resolvedAt[c.ID]; ok {
				require.Equal(t, prev, c.State(), "tick %d: %s changed after resolution", e.Tick, c.ID)
			}
			if c.State() != model.Delivered {
				resolvedAt[c.ID] = c.State()
				pendingEviction = append(pendingEviction, c.ID)
			}
		}
		for _, ev := range e.Evictions {
			if prev, ok := resolvedAt[ev.ContainerID]; ok {
				require.Equal(t, prev.String(), ev.State)
			}
		}
	}

	cc := w.Stats().Containers()
	assert.Greater(t, cc.ClearedOK+cc.ClearedBad+cc.Rejected, 100)
	assert.NotZero(t, w.Slots().RemovedTotal())
}

func TestStep_Deterministic(t *testing.T) {
	run := func(seed int64) []string {
		w := newTestWorld(t, WorldConfig{Seed: seed, LazyAgents: 1}, Env{})
		out := make([]string, 0, 1500)
		for i := 0; i < 1500; i++ {
			_, d := w.StepOnce()
			out = append(out, d)
		}
		return out
	}
	a, b := run(99), run(99)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, run(100))
}

func TestStep_LazyAgentIsPunished(t *testing.T) {
	w := newTestWorld(t, WorldConfig{Seed: 3, LazyAgents: 1, LeadInspectionTicks: 10, LeadCooldownTicks: 20}, Env{})
	rec := &recordingLogger{}
	w.SetTickLogger(rec)

	punished, flagged := false, false
	for i := 0; i < 50000 && !punished; i++ {
		tick, digest := w.StepOnce()
		if slices.Contains(w.TickMsg(tick, digest).Lead.Flagged, "Agent01") {
			flagged = true
		}
		for _, id := range rec.entries[len(rec.entries)-1].Punishments {
			if id == "Agent01" {
				punished = true
			}
		}
	}
	require.True(t, punished)
	assert.True(t, flagged, "observers see the too-lazy rule before the punishment")
	assert.False(t, w.CustomsAgents()[0].Lazy())
}

func TestTeeTickLogger(t *testing.T) {
	a, b := &recordingLogger{}, &recordingLogger{}
	l := TeeTickLogger(a, nil, b)
	require.NoError(t, l.WriteTick(TickLogEntry{Tick: 4}))
	assert.Len(t, a.entries, 1)
	assert.Len(t, b.entries, 1)
}
