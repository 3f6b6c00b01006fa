package world

import (
	"context"
	"time"
)

func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.observerJoin:
			w.handleObserverJoin(req)
		case id := <-w.observerLeave:
			w.handleObserverLeave(id)
		case <-ticker.C:
			w.step()
			if w.cfg.MaxTicks > 0 && w.tick.Load() >= w.cfg.MaxTicks {
				w.log.Info("tick limit reached", "ticks", w.cfg.MaxTicks)
				return nil
			}
		}
	}
}

func (w *World) Stop() { w.stopOnce.Do(func() { close(w.stop) }) }

// StepOnce advances the world by a single tick using the same ordering semantics as Run.
// It is primarily intended for deterministic replays/tests.
func (w *World) StepOnce() (tick uint64, digest string) {
	return w.step()
}

func (w *World) step() (uint64, string) {
	nowTick := w.tick.Load()
	w.cur = tickRecord{}
	w.slots.resetRemoved()

	w.rules.Evaluate()
	w.stepArrivals(nowTick)
	w.stepSlotMaintenance(nowTick)
	w.stepAssignment(nowTick)
	w.stepPairing(nowTick)
	for _, o := range w.officers {
		o.Step()
	}
	for _, a := range w.customs {
		a.Step()
	}
	w.lead.Step()

	digest := w.stateDigest(nowTick)
	if w.tickLogger != nil {
		entry := TickLogEntry{
			RunID:       w.cfg.ID,
			Tick:        nowTick,
			Arrivals:    w.cur.arrivals,
			Evictions:   w.cur.evictions,
			Assignments: w.cur.assignments,
			Pairings:    w.cur.pairings,
			Punishments: w.cur.punishments,
			Digest:      digest,
		}
		if err := w.tickLogger.WriteTick(entry); err != nil {
			w.log.Warn("tick log write failed", "tick", nowTick, "err", err)
		}
	}
	w.stepObservers(nowTick, digest)
	w.metrics.recordTick(w.cur, w.slots.Occupied())

	w.tick.Add(1)
	return nowTick, digest
}
