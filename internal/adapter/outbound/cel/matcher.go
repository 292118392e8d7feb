// Package cel implements the matcher evaluator (C6) on top of
// google/cel-go: it compiles a model's matcher expression once, against
// an environment whose variables are declared
// dynamically from the model's r_*/p_* tokens, and evaluates it once per
// candidate policy rule.
package cel

import (
	"context"
	"fmt"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/Sentinel-Gate/permkit/internal/builtin"
	"github.com/Sentinel-Gate/permkit/internal/domain/model"
	"github.com/Sentinel-Gate/permkit/internal/domain/rbac"
)

// evalTimeout bounds a single matcher evaluation against a pathological
// expression (e.g. runaway regexMatch backtracking behind RE2 is not
// actually possible, but a very large policy set feeding one compiled
// program still deserves a backstop).
const evalTimeout = 2 * time.Second

// maxCostBudget mirrors the CEL runtime cost limit the teacher's
// evaluator applies to keep one enforce() call boundable.
const maxCostBudget = 100_000

// Matcher compiles and evaluates a model's matcher expression. The
// Enforcer builds one Matcher per EnforceContext on first use and reuses
// it across every later Enforce call for that context;
// rebuilding it is only necessary when the model or role manager
// identity changes.
type Matcher struct {
	prg cel.Program
}

// NewMatcher declares a CEL variable for every r_*/p_* token the model's
// request and policy assertions define, registers the PERM built-in
// operators (keyMatch, keyMatch2, regexMatch, ipMatch) and the role
// predicates (g, g2, g3) bound to rm, and compiles expr once.
func NewMatcher(m *model.Model, rm rbac.RoleManager, expr string) (*Matcher, error) {
	env, err := newEnv(m, rm)
	if err != nil {
		return nil, fmt.Errorf("cel: build environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: matcher %q: %v", model.ErrEval, expr, issues.Err())
	}

	prg, err := env.Program(ast,
		cel.EvalOptions(cel.OptOptimize),
		cel.CostLimit(maxCostBudget),
	)
	if err != nil {
		return nil, fmt.Errorf("cel: build program: %w", err)
	}
	return &Matcher{prg: prg}, nil
}

// Eval binds vars (the r_*/p_* values for one candidate rule) and
// evaluates the compiled matcher expression, returning its boolean
// result.
func (m *Matcher) Eval(ctx context.Context, vars map[string]any) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, evalTimeout)
	defer cancel()

	out, _, err := m.prg.ContextEval(ctx, vars)
	if err != nil {
		return false, fmt.Errorf("%w: %v", model.ErrEval, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: matcher did not evaluate to a bool, got %T", model.ErrEval, out.Value())
	}
	return result, nil
}

func newEnv(m *model.Model, rm rbac.RoleManager) (*cel.Env, error) {
	opts := []cel.EnvOption{
		keyMatchFunc(),
		keyMatch2Func(),
		regexMatchFunc(),
		ipMatchFunc(),
		roleFunc("g", rm),
		roleFunc("g2", rm),
		roleFunc("g3", rm),
	}
	opts = append(opts, declareTokens(m, model.SectionRequest)...)
	opts = append(opts, declareTokens(m, model.SectionPolicy)...)
	return cel.NewEnv(opts...)
}

// declareTokens returns one cel.Variable option per qualified token
// ("r_sub", "p_obj", ...) the section's assertion(s) define.
func declareTokens(m *model.Model, sec string) []cel.EnvOption {
	var vars []cel.EnvOption
	for _, a := range m.Section(sec) {
		for _, tok := range a.Tokens {
			vars = append(vars, cel.Variable(tok, cel.DynType))
		}
	}
	return vars
}

func keyMatchFunc() cel.EnvOption {
	return cel.Function("keyMatch",
		cel.Overload("keyMatch_string_string",
			[]*cel.Type{cel.StringType, cel.StringType}, cel.BoolType,
			cel.BinaryBinding(func(a, b ref.Val) ref.Val {
				return types.Bool(builtin.KeyMatch(a.Value().(string), b.Value().(string)))
			}),
		),
	)
}

func keyMatch2Func() cel.EnvOption {
	return cel.Function("keyMatch2",
		cel.Overload("keyMatch2_string_string",
			[]*cel.Type{cel.StringType, cel.StringType}, cel.BoolType,
			cel.BinaryBinding(func(a, b ref.Val) ref.Val {
				return types.Bool(builtin.KeyMatch2(a.Value().(string), b.Value().(string)))
			}),
		),
	)
}

func regexMatchFunc() cel.EnvOption {
	return cel.Function("regexMatch",
		cel.Overload("regexMatch_string_string",
			[]*cel.Type{cel.StringType, cel.StringType}, cel.BoolType,
			cel.BinaryBinding(func(a, b ref.Val) ref.Val {
				return types.Bool(builtin.RegexMatch(a.Value().(string), b.Value().(string)))
			}),
		),
	)
}

func ipMatchFunc() cel.EnvOption {
	return cel.Function("ipMatch",
		cel.Overload("ipMatch_string_string",
			[]*cel.Type{cel.StringType, cel.StringType}, cel.BoolType,
			cel.BinaryBinding(func(a, b ref.Val) ref.Val {
				return types.Bool(builtin.IPMatch(a.Value().(string), b.Value().(string)))
			}),
		),
	)
}

// roleFunc registers name (g, g2, or g3) as a 2- or 3-argument function
// over rm.HasLink, closing over the live role manager so graph mutations
// (AddLink/DeleteLink) are visible without recompiling the matcher.
func roleFunc(name string, rm rbac.RoleManager) cel.EnvOption {
	binary := cel.Overload(name+"_string_string",
		[]*cel.Type{cel.StringType, cel.StringType}, cel.BoolType,
		cel.BinaryBinding(func(a, b ref.Val) ref.Val {
			return types.Bool(rm.HasLink(a.Value().(string), b.Value().(string), ""))
		}),
	)
	ternary := cel.Overload(name+"_string_string_string",
		[]*cel.Type{cel.StringType, cel.StringType, cel.StringType}, cel.BoolType,
		cel.FunctionBinding(func(args ...ref.Val) ref.Val {
			return types.Bool(rm.HasLink(
				args[0].Value().(string),
				args[1].Value().(string),
				args[2].Value().(string),
			))
		}),
	)
	return cel.Function(name, binary, ternary)
}
