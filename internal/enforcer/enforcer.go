// Package enforcer implements the matcher evaluator / enforcer (C6) and
// the management & RBAC façade (C7): the decision pipeline that binds a
// request against every stored policy rule, combines the per-rule
// effects, and the typed surface that keeps the policy store and role
// graph consistent.
package enforcer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	celmatcher "github.com/Sentinel-Gate/permkit/internal/adapter/outbound/cel"
	"github.com/Sentinel-Gate/permkit/internal/domain/model"
	"github.com/Sentinel-Gate/permkit/internal/domain/policy"
	"github.com/Sentinel-Gate/permkit/internal/domain/rbac"
	"github.com/Sentinel-Gate/permkit/internal/effect"
	"github.com/Sentinel-Gate/permkit/internal/instrumentation"
)

// EnforceContext names the model sections one Enforce call binds
// against, letting a single enforcer serve several request/policy/
// effect/matcher variants side by side (e.g. "r2"/"p2"/"e2"/"m2").
type EnforceContext struct {
	RType string
	PType string
	EType string
	MType string
}

// DefaultEnforceContext binds the conventional unsuffixed sections.
var DefaultEnforceContext = EnforceContext{RType: "r", PType: "p", EType: "e", MType: "m"}

// NewEnforceContext builds the EnforceContext for the numbered section
// family sharing suffix (e.g. suffix "2" yields r2/p2/e2/m2).
func NewEnforceContext(suffix string) EnforceContext {
	return EnforceContext{
		RType: "r" + suffix,
		PType: "p" + suffix,
		EType: "e" + suffix,
		MType: "m" + suffix,
	}
}

func (ec EnforceContext) cacheKey() string {
	return ec.RType + "|" + ec.PType + "|" + ec.EType + "|" + ec.MType
}

// Enforcer is the PERM decision engine: a model, a policy store, and a
// role-inheritance graph, bound together by one compiled matcher per
// EnforceContext. Decisions (Enforce*, Get*, Has*) take a read lock;
// mutations (Add*, Remove*, BuildRoleLinks) take a write lock, per the
// single-instance shared-read/exclusive-write contract this library is
// built against.
type Enforcer struct {
	mu          sync.RWMutex
	model       *model.Model
	store       policy.Store
	roleManager rbac.RoleManager

	matchersMu sync.RWMutex
	matchers   map[string]*celmatcher.Matcher

	autoBuildRoleLinks bool
	logger             *slog.Logger
	metrics            *instrumentation.Metrics
	tracer             trace.Tracer
}

// Option configures an Enforcer at construction time.
type Option func(*Enforcer)

// WithLogger overrides the default slog.Default() logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Enforcer) { e.logger = l }
}

// WithMetrics attaches Prometheus collectors to every Enforce call.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(e *Enforcer) { e.metrics = m }
}

// WithTracer attaches an OpenTelemetry tracer; every Enforce call is
// wrapped in a "permkit.enforce" span.
func WithTracer(t trace.Tracer) Option {
	return func(e *Enforcer) { e.tracer = t }
}

// WithAutoBuildRoleLinks controls whether a successful grouping-policy
// mutation triggers a full BuildRoleLinks. Defaults to true.
func WithAutoBuildRoleLinks(enabled bool) Option {
	return func(e *Enforcer) { e.autoBuildRoleLinks = enabled }
}

// New builds an Enforcer over an already-loaded model, policy store, and
// role manager, then performs an initial BuildRoleLinks so g-rules
// present at construction time are reflected in the role graph.
func New(m *model.Model, store policy.Store, rm rbac.RoleManager, opts ...Option) (*Enforcer, error) {
	e := &Enforcer{
		model:              m,
		store:              store,
		roleManager:        rm,
		matchers:           make(map[string]*celmatcher.Matcher),
		autoBuildRoleLinks: true,
		logger:             slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return e, nil
}

// matcherFor returns the compiled matcher for ec, compiling and caching
// it on first use. The matcher closes over the enforcer's role manager,
// so later AddLink/DeleteLink calls are visible without recompilation.
func (e *Enforcer) matcherFor(ec EnforceContext) (*celmatcher.Matcher, error) {
	key := ec.cacheKey()

	e.matchersMu.RLock()
	m, ok := e.matchers[key]
	e.matchersMu.RUnlock()
	if ok {
		return m, nil
	}

	e.matchersMu.Lock()
	defer e.matchersMu.Unlock()
	if m, ok := e.matchers[key]; ok {
		return m, nil
	}

	mAssertion := e.model.Get(model.SectionMatcher, ec.MType)
	if mAssertion == nil {
		return nil, fmt.Errorf("%w: no matcher definition %q", model.ErrMissingKey, ec.MType)
	}
	built, err := celmatcher.NewMatcher(e.model, e.roleManager, mAssertion.Value)
	if err != nil {
		return nil, err
	}
	e.matchers[key] = built
	return built, nil
}

// Enforce evaluates a request against the default (r/p/e/m) sections.
func (e *Enforcer) Enforce(rvals ...any) (bool, error) {
	return e.EnforceWithContext(context.Background(), DefaultEnforceContext, rvals...)
}

// EnforceWithoutUsers evaluates a request against a model whose request
// shape has no obj dimension (e.g. "r = sub, act").
func (e *Enforcer) EnforceWithoutUsers(sub, act string) (bool, error) {
	return e.Enforce(sub, act)
}

// EnforceWithDomain evaluates a request against a domain-aware model
// whose request shape is "r = sub, dom, obj, act".
func (e *Enforcer) EnforceWithDomain(sub, dom, obj, act string) (bool, error) {
	return e.Enforce(sub, dom, obj, act)
}

// EnforceWithContext evaluates a request against the named ec sections,
// under ctx (bounding each matcher evaluation, not the whole call — the
// decision itself is always synchronous).
func (e *Enforcer) EnforceWithContext(ctx context.Context, ec EnforceContext, rvals ...any) (result bool, err error) {
	start := time.Now()
	decisionID := uuid.NewString()

	if e.tracer != nil {
		var span trace.Span
		ctx, span = e.tracer.Start(ctx, "permkit.enforce", trace.WithAttributes(
			attribute.String("permkit.matcher", ec.MType),
			attribute.String("permkit.decision_id", decisionID),
		))
		defer func() {
			if err != nil {
				span.SetStatus(codes.Error, err.Error())
			}
			span.SetAttributes(attribute.Bool("permkit.result", result))
			span.End()
		}()
	}

	e.mu.RLock()
	result, err = e.enforceLocked(ctx, ec, rvals...)
	e.mu.RUnlock()

	if e.metrics != nil {
		label := "deny"
		if result {
			label = "allow"
		}
		if err != nil {
			label = "error"
		}
		e.metrics.DecisionsTotal.WithLabelValues(label).Inc()
		e.metrics.EnforceDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	}
	e.logger.Debug("enforce", "decision_id", decisionID, "matcher", ec.MType, "result", result, "error", err, "elapsed", time.Since(start))

	return result, err
}

func (e *Enforcer) enforceLocked(ctx context.Context, ec EnforceContext, rvals ...any) (bool, error) {
	rAssertion := e.model.Get(model.SectionRequest, ec.RType)
	if rAssertion == nil {
		return false, fmt.Errorf("%w: no request definition %q", model.ErrMissingKey, ec.RType)
	}
	if len(rvals) != len(rAssertion.Tokens) {
		return false, fmt.Errorf("%w: enforce: expected %d request values, got %d", model.ErrInvalidValue, len(rAssertion.Tokens), len(rvals))
	}
	eAssertion := e.model.Get(model.SectionEffect, ec.EType)
	if eAssertion == nil {
		return false, fmt.Errorf("%w: no effect definition %q", model.ErrMissingKey, ec.EType)
	}
	matcher, err := e.matcherFor(ec)
	if err != nil {
		return false, err
	}

	rVars := make(map[string]any, len(rAssertion.Tokens))
	for i, tok := range rAssertion.Tokens {
		rVars[tok] = rvals[i]
	}

	pAssertion := e.model.Get(model.SectionPolicy, ec.PType)
	var rules [][]string
	var pTokens []string
	if pAssertion != nil {
		rules = pAssertion.Policy
		pTokens = pAssertion.Tokens
	}
	eftIndex := -1
	for i, tok := range pTokens {
		if tok == ec.PType+"_eft" {
			eftIndex = i
			break
		}
	}

	effects := make([]effect.Effect, 0, len(rules))
	for _, rule := range rules {
		if len(rule) != len(pTokens) {
			return false, fmt.Errorf("%w: policy rule %v does not match %d declared tokens", model.ErrInvalidValue, rule, len(pTokens))
		}

		vars := make(map[string]any, len(rVars)+len(pTokens))
		for k, v := range rVars {
			vars[k] = v
		}
		for i, tok := range pTokens {
			vars[tok] = rule[i]
		}

		matched, err := matcher.Eval(ctx, vars)
		if err != nil {
			return false, err
		}

		eff := effect.Indeterminate
		if matched {
			eff = effect.Allow
			if eftIndex >= 0 && rule[eftIndex] == "deny" {
				eff = effect.Deny
			}
		}
		effects = append(effects, eff)
	}

	return effect.Merge(eAssertion.Value, effects)
}

// BuildRoleLinks clears the role graph and replays every rule in every
// role (g, g2, ...) assertion. It is idempotent: calling it twice in a
// row with no intervening mutation leaves the graph unchanged.
//
// A rule's arity selects the call: 2 fields is (user, role) with no
// domain, 3 fields is (user, role, domain). 4-field role rules are
// rejected with ErrParsingFailure rather than silently accepted, per
// the arity-4 semantics this library specifies explicitly.
func (e *Enforcer) BuildRoleLinks() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buildRoleLinksLocked()
}

func (e *Enforcer) buildRoleLinksLocked() error {
	e.roleManager.Clear()

	sec := e.model.Section(model.SectionRole)
	ptypes := make([]string, 0, len(sec))
	for ptype := range sec {
		ptypes = append(ptypes, ptype)
	}
	sort.Strings(ptypes)

	for _, ptype := range ptypes {
		for _, rule := range sec[ptype].Policy {
			switch len(rule) {
			case 2:
				e.roleManager.AddLink(rule[0], rule[1], "")
			case 3:
				e.roleManager.AddLink(rule[0], rule[1], rule[2])
			default:
				return fmt.Errorf("%w: role rule %v has unsupported arity %d", model.ErrParsingFailure, rule, len(rule))
			}
		}
	}
	return nil
}
