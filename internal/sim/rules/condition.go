// Package rules holds the self-adaptation rules evaluated at the start of
// every tick.
package rules

import (
	"fmt"
	"log/slog"

	"github.com/google/cel-go/cel"
)

// DefaultTooLazyExpr flags an agent with more than ten decisions of which over
// 30% were quick clearances.
const DefaultTooLazyExpr = "virtual + physical > 10 && double(virtual) / double(virtual + physical) > 0.3"

// TooLazy is a compiled too-lazy condition over an agent's virtual and physical
// inspection counts.
type TooLazy struct {
	expr string
	prg  cel.Program
	log  *slog.Logger
}

// CompileTooLazy compiles expr (DefaultTooLazyExpr when empty). The expression
// sees the int variables virtual and physical and must yield a bool.
func CompileTooLazy(expr string, log *slog.Logger) (*TooLazy, error) {
	if expr == "" {
		expr = DefaultTooLazyExpr
	}
	env, err := cel.NewEnv(
		cel.Variable("virtual", cel.IntType),
		cel.Variable("physical", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("too-lazy env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile too-lazy expression %q: %w", expr, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("too-lazy expression %q yields %s, want bool", expr, ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("too-lazy program: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &TooLazy{expr: expr, prg: prg, log: log}, nil
}

func (t *TooLazy) Expr() string { return t.expr }

// Eval reports whether the counts satisfy the condition. Evaluation errors,
// such as a division by zero, count as false.
func (t *TooLazy) Eval(virtual, physical int) bool {
	out, _, err := t.prg.Eval(map[string]any{
		"virtual":  int64(virtual),
		"physical": int64(physical),
	})
	if err != nil {
		t.log.Warn("too-lazy evaluation failed", "expr", t.expr, "virtual", virtual, "physical", physical, "err", err)
		return false
	}
	v, ok := out.Value().(bool)
	return ok && v
}

// tooLazyFormula is the reference formula for the default expression.
func tooLazyFormula(virtual, physical int) bool {
	both := virtual + physical
	return both > 10 && float64(virtual)/float64(both) > 0.3
}
