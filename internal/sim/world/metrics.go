package world

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "portsim.ai/internal/sim/world"

type worldMetrics struct {
	ticks       metric.Int64Counter
	arrivals    metric.Int64Counter
	evictions   metric.Int64Counter
	assignments metric.Int64Counter
	pairings    metric.Int64Counter
	punishments metric.Int64Counter
	occupied    metric.Int64Gauge
}

func newWorldMetrics(mp metric.MeterProvider) (*worldMetrics, error) {
	m := mp.Meter(meterName)
	var (
		wm  worldMetrics
		err error
	)
	if wm.ticks, err = m.Int64Counter("portsim.ticks", metric.WithDescription("Ticks stepped")); err != nil {
		return nil, fmt.Errorf("ticks counter: %w", err)
	}
	if wm.arrivals, err = m.Int64Counter("portsim.containers.arrived", metric.WithDescription("Containers placed in a slot")); err != nil {
		return nil, fmt.Errorf("arrivals counter: %w", err)
	}
	if wm.evictions, err = m.Int64Counter("portsim.containers.removed", metric.WithDescription("Resolved containers removed from the yard, by final state")); err != nil {
		return nil, fmt.Errorf("evictions counter: %w", err)
	}
	if wm.assignments, err = m.Int64Counter("portsim.assignments", metric.WithDescription("Containers handed to an agent")); err != nil {
		return nil, fmt.Errorf("assignments counter: %w", err)
	}
	if wm.pairings, err = m.Int64Counter("portsim.pairings", metric.WithDescription("Officer and customs agent pairings")); err != nil {
		return nil, fmt.Errorf("pairings counter: %w", err)
	}
	if wm.punishments, err = m.Int64Counter("portsim.punishments", metric.WithDescription("Lazy agents punished by the lead agent")); err != nil {
		return nil, fmt.Errorf("punishments counter: %w", err)
	}
	if wm.occupied, err = m.Int64Gauge("portsim.slots.occupied", metric.WithDescription("Slots holding a container after the tick")); err != nil {
		return nil, fmt.Errorf("occupied gauge: %w", err)
	}
	return &wm, nil
}

func (m *worldMetrics) recordTick(rec tickRecord, occupied int) {
	ctx := context.Background()
	m.ticks.Add(ctx, 1)
	if n := len(rec.arrivals); n > 0 {
		m.arrivals.Add(ctx, int64(n))
	}
	for _, e := range rec.evictions {
		m.evictions.Add(ctx, 1, metric.WithAttributes(attribute.String("state", e.State)))
	}
	if n := len(rec.assignments); n > 0 {
		m.assignments.Add(ctx, int64(n))
	}
	if n := len(rec.pairings); n > 0 {
		m.pairings.Add(ctx, int64(n))
	}
	if n := len(rec.punishments); n > 0 {
		m.punishments.Add(ctx, int64(n))
	}
	m.occupied.Record(ctx, int64(occupied))
}
