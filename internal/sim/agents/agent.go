// Package agents implements the inspectors working the yard: customs agents,
// port authority officers and the lead customs agent. Each is a finite state
// machine advanced by exactly one Step per tick.
package agents

import (
	"fmt"
	"io"
	"log/slog"

	"portsim.ai/internal/sim/model"
	"portsim.ai/internal/sim/oracle"
	"portsim.ai/internal/sim/rng"
	"portsim.ai/internal/sim/stats"
)

type State uint8

const (
	Idle State = iota
	Check
	Inspection
	Returning
	WaitingPA
	RequestAgent
	CheckWithAgent
	MovingToAgent
	DetailedCheck
)

var stateNames = [...]string{
	Idle:           "IDLE",
	Check:          "CHECK",
	Inspection:     "INSPECTION",
	Returning:      "RETURNING",
	WaitingPA:      "A_WAITING_PA",
	RequestAgent:   "PA_REQUEST_A",
	CheckWithAgent: "PA_CHECK_WITH_A",
	MovingToAgent:  "PA_MOVING_TO_A",
	DetailedCheck:  "PA_DETAILED_CHECK",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

const (
	// Speed is how far any agent walks per tick.
	Speed = 50.0
	// CheckTicks is the dwell time of a desk check.
	CheckTicks = 2
	// InspectionTicks is the dwell time at a container before the verdict.
	InspectionTicks = 2
)

type Agent interface {
	ID() string
	Pos() model.Vec2
	Home() model.Vec2
	State() State
	Step()
}

// Deps are the shared collaborators handed to every agent at construction.
type Deps struct {
	Stats  *stats.Store
	Oracle oracle.Oracle
	Rand   rng.Source
	Log    *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Log != nil {
		return d.Log
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type base struct {
	id     string
	pos    model.Vec2
	home   model.Vec2
	target model.Vec2
	state  State
	dwell  int

	container *model.Container

	stats  *stats.Store
	oracle oracle.Oracle
	rand   rng.Source
	log    *slog.Logger
}

func newBase(id string, home model.Vec2, d Deps) base {
	return base{
		id:     id,
		pos:    home,
		home:   home,
		target: home,
		stats:  d.Stats,
		oracle: d.Oracle,
		rand:   d.Rand,
		log:    d.logger().With("agent", id),
	}
}

func (b *base) ID() string                  { return b.id }
func (b *base) Pos() model.Vec2             { return b.pos }
func (b *base) Home() model.Vec2            { return b.home }
func (b *base) State() State                { return b.state }
func (b *base) Target() model.Vec2          { return b.target }
func (b *base) Container() *model.Container { return b.container }

func (b *base) mustBeIdle(op string) {
	if b.state != Idle {
		panic(fmt.Sprintf("agents: %s on %s in state %s", op, b.id, b.state))
	}
}

func (b *base) containerID() string {
	if b.container == nil {
		return ""
	}
	return b.container.ID
}

// moveTo walks toward p and reports whether the agent stood on p before moving.
func (b *base) moveTo(p model.Vec2) bool {
	if b.pos == p {
		return true
	}
	b.pos = b.pos.MoveToward(p, Speed)
	return false
}

// stepReturning walks home and goes idle on arrival.
func (b *base) stepReturning() {
	if b.moveTo(b.home) {
		b.log.Debug("is home")
		b.state = Idle
		return
	}
	b.log.Debug("moving home")
}
