// Package oracle answers risk questions asked by inspecting agents.
//
// A query names a scenario and binds one variable to a value. Implementations
// answer true or false only: a failed analysis is indistinguishable from a
// negative verdict.
package oracle

import (
	"errors"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"portsim.ai/internal/sim/rng"
)

// Scenario names understood by the analysis model.
const (
	ScenarioVirtualInspection = "VirtualInspection"
	ScenarioTax               = "Tax"
	ScenarioDangerous         = "Dangerous"
)

// ExitCodeTrue is the analysis process exit code that means "yes".
const ExitCodeTrue = 10

type Oracle interface {
	Decide(scenario, variable, value string) bool
}

// Random answers a fair coin flip drawn from src, ignoring the query.
type Random struct {
	src rng.Source
}

func NewRandom(src rng.Source) *Random { return &Random{src: src} }

func (r *Random) Decide(scenario, variable, value string) bool {
	return r.src.Bits(1) == 0
}

// Exec runs the external analysis binary once per query:
//
//	<Binary> -f <ModelPath> -u <scenario> -c <variable>:<value>
//
// The call blocks the caller until the process exits.
type Exec struct {
	Binary    string
	ModelPath string
	Log       *slog.Logger
}

func (e *Exec) Decide(scenario, variable, value string) bool {
	args := []string{"-f", e.ModelPath, "-u", scenario, "-c", variable + ":" + value}
	err := exec.Command(e.Binary, args...).Run()
	if err == nil {
		return false
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code != ExitCodeTrue {
			e.logger().Debug("analysis answered no", "scenario", scenario, "variable", variable, "value", value, "exit_code", code)
			return false
		}
		return true
	}
	e.logger().Warn("analysis failed", "scenario", scenario, "variable", variable, "value", value, "err", err)
	return false
}

func (e *Exec) logger() *slog.Logger {
	if e.Log != nil {
		return e.Log
	}
	return slog.Default()
}

type Func func(scenario, variable, value string) bool

func (f Func) Decide(scenario, variable, value string) bool { return f(scenario, variable, value) }

// Const always answers the same verdict.
type Const bool

func (c Const) Decide(string, string, string) bool { return bool(c) }

// FormatFloat renders v the way the analysis model expects numeric bindings:
// shortest representation with at least one fractional digit ("1.0", "0.25").
func FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}
