package world

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"portsim.ai/internal/sim/agents"
	"portsim.ai/internal/sim/catalogs"
	"portsim.ai/internal/sim/generator"
	"portsim.ai/internal/sim/oracle"
	"portsim.ai/internal/sim/rng"
	"portsim.ai/internal/sim/rules"
	"portsim.ai/internal/sim/stats"
)

// Env carries the collaborators of a world. Zero fields are filled in by New:
// a PCG seeded from the config, a random oracle drawing from it, slog.Default
// and the global meter provider.
type Env struct {
	Rand   rng.Source
	Oracle oracle.Oracle
	Log    *slog.Logger
	Meter  metric.MeterProvider
}

// World is a single-threaded port simulation.
// All state must be accessed only from the world loop goroutine.
type World struct {
	cfg      WorldConfig
	catalogs *catalogs.Catalogs
	log      *slog.Logger

	tick atomic.Uint64

	rand   rng.Source
	oracle oracle.Oracle
	stats  *stats.Store
	gen    *generator.Generator
	rules  *rules.Engine

	slots    *Slots
	customs  []*agents.CustomsAgent
	officers []*agents.PortAuthorityOfficer
	lead     *agents.LeadCustomsAgent

	// sinceArrival counts ticks since the last container arrived.
	sinceArrival int

	observers     map[string]*observerClient
	observerJoin  chan ObserverJoinRequest
	observerLeave chan string
	stop          chan struct{}
	stopOnce      sync.Once

	// Optional (may be nil). Implemented in internal/persistence/*.
	tickLogger TickLogger

	metrics *worldMetrics

	cur tickRecord
}

// tickRecord collects what happened during the tick being stepped.
type tickRecord struct {
	arrivals    []string
	evictions   []Eviction
	assignments []Assignment
	pairings    []Pairing
	punishments []string
}

func New(cfg WorldConfig, cats *catalogs.Catalogs, env Env) (*World, error) {
	cfg.applyDefaults()
	if cats == nil {
		return nil, errors.New("world: nil catalogs")
	}
	if len(cats.Items) < generator.ItemsPerContainer {
		return nil, fmt.Errorf("world: %w (%d < %d)", generator.ErrCatalogTooSmall, len(cats.Items), generator.ItemsPerContainer)
	}
	if env.Rand == nil {
		env.Rand = rng.NewSeeded(cfg.Seed)
	}
	if env.Oracle == nil {
		env.Oracle = oracle.NewRandom(env.Rand)
	}
	if env.Log == nil {
		env.Log = slog.Default()
	}
	if env.Meter == nil {
		env.Meter = otel.GetMeterProvider()
	}

	cond, err := rules.CompileTooLazy(cfg.TooLazyExpr, env.Log)
	if err != nil {
		return nil, err
	}
	metrics, err := newWorldMetrics(env.Meter)
	if err != nil {
		return nil, err
	}

	w := &World{
		cfg:           cfg,
		catalogs:      cats,
		log:           env.Log,
		rand:          env.Rand,
		oracle:        env.Oracle,
		stats:         stats.New(),
		slots:         NewSlots(SlotPositions),
		sinceArrival:  cfg.ArrivalEveryTicks,
		observers:     map[string]*observerClient{},
		observerJoin:  make(chan ObserverJoinRequest, 16),
		observerLeave: make(chan string, 16),
		stop:          make(chan struct{}),
		metrics:       metrics,
	}
	w.gen = generator.New(cats, w.rand)

	deps := agents.Deps{Stats: w.stats, Oracle: w.oracle, Rand: w.rand, Log: w.log}
	for i, home := range CustomsHomes {
		var policy agents.ProperCheckPolicy = agents.Standard{}
		if i < cfg.LazyAgents {
			policy = &agents.Lazy{}
		}
		w.customs = append(w.customs, agents.NewCustomsAgent(customsID(i), home, deps, policy))
	}
	for i, home := range OfficerHomes {
		w.officers = append(w.officers, agents.NewPortAuthorityOfficer(officerID(i), home, deps))
	}
	w.lead = agents.NewLeadCustomsAgent(LeadID, LeadHome, deps)
	w.lead.InspectionTicks = cfg.LeadInspectionTicks
	w.lead.CooldownTicks = cfg.LeadCooldownTicks
	w.lead.OnPunish = func(id string) { w.cur.punishments = append(w.cur.punishments, id) }

	w.rules = rules.NewEngine(cond, w.stats, w.lead, w.customs, w.log)
	return w, nil
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type TickLogEntry struct {
	RunID       string       `json:"run_id,omitempty"`
	Tick        uint64       `json:"tick"`
	Arrivals    []string     `json:"arrivals,omitempty"`
	Evictions   []Eviction   `json:"evictions,omitempty"`
	Assignments []Assignment `json:"assignments,omitempty"`
	Pairings    []Pairing    `json:"pairings,omitempty"`
	Punishments []string     `json:"punishments,omitempty"`
	Digest      string       `json:"digest"`
}

// Eviction is a resolved container leaving its slot.
type Eviction struct {
	Slot             int    `json:"slot"`
	ContainerID      string `json:"container_id"`
	Company          string `json:"company"`
	Source           string `json:"source"`
	Faked            string `json:"faked,omitempty"`
	ClearedByCustoms string `json:"cleared_by_customs"`
	ClearedByPA      string `json:"cleared_by_pa"`
	State            string `json:"state"`
}

type Assignment struct {
	Slot        int    `json:"slot"`
	ContainerID string `json:"container_id"`
	AgentID     string `json:"agent_id"`
}

type Pairing struct {
	OfficerID   string `json:"officer_id"`
	AgentID     string `json:"agent_id"`
	ContainerID string `json:"container_id"`
}

// TeeTickLogger fans one entry out to several loggers and returns the first error.
func TeeTickLogger(ls ...TickLogger) TickLogger { return teeTickLogger(ls) }

type teeTickLogger []TickLogger

func (t teeTickLogger) WriteTick(entry TickLogEntry) error {
	var first error
	for _, l := range t {
		if l == nil {
			continue
		}
		if err := l.WriteTick(entry); err != nil && first == nil {
			first = err
		}
	}
	return first
}
