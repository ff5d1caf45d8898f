// Package validation checks decoded PDUs against the constraints of their
// schema and against user supplied rules. Every failure is collected; nothing
// stops at the first one.
package validation

import (
	"context"
	"fmt"
	"regexp"
	"runtime"
	"sync"

	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"

	"github.com/brightsparklabs/asanti-sub002/decoder"
	"github.com/brightsparklabs/asanti-sub002/logger"
	"github.com/brightsparklabs/asanti-sub002/metrics"
	"github.com/brightsparklabs/asanti-sub002/primitive"
	"github.com/brightsparklabs/asanti-sub002/schema"
)

// Failure is one failure found on one tag.
type Failure struct {
	Tag    string
	Type   schema.FailureType
	Reason string
	// Rule names the custom rule that reported the failure.
	Rule string
}

func (f Failure) String() string {
	if f.Rule != "" {
		return fmt.Sprintf("%s: %s [%s]: %s", f.Tag, f.Type, f.Rule, f.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", f.Tag, f.Type, f.Reason)
}

// Result holds every failure of one PDU, ordered by tag.
type Result struct {
	Failures []Failure
}

// Valid reports whether no failure was found.
func (r Result) Valid() bool { return len(r.Failures) == 0 }

// FailuresFor returns the failures of one tag.
func (r Result) FailuresFor(tag string) []Failure {
	var out []Failure
	for _, f := range r.Failures {
		if f.Tag == tag {
			out = append(out, f)
		}
	}
	return out
}

// Rule is a custom check run on every decoded tag matching Pattern. A nil
// Pattern matches every decoded tag. A non-nil error from Check is recorded
// as a CustomRule failure.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Check   func(ctx context.Context, tag string, data *decoder.Data) error
}

// Validator validates decoded PDUs. It is safe for concurrent use.
type Validator struct {
	rules       []Rule
	logger      logger.Logger
	metrics     *metrics.Metrics
	concurrency int
}

// Option configures a Validator.
type Option func(*Validator)

// WithRule adds a custom rule.
func WithRule(r Rule) Option {
	return func(v *Validator) {
		v.rules = append(v.rules, r)
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(v *Validator) {
		v.logger = l
	}
}

// WithMetrics records failure counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(v *Validator) {
		v.metrics = m
	}
}

// WithConcurrency bounds the number of rule checks running at once.
func WithConcurrency(n int) Option {
	return func(v *Validator) {
		v.concurrency = n
	}
}

// New creates a validator.
func New(opts ...Option) *Validator {
	v := &Validator{
		logger:      logger.NewLogger("validation"),
		concurrency: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks every decoded tag against its type and constraints, reports
// every unmapped tag, and runs the custom rules. The error is non-nil only if
// ctx ends before the rules have run.
func (v *Validator) Validate(ctx context.Context, data *decoder.Data) (Result, error) {
	var failures []Failure
	for _, tag := range data.Tags() {
		failures = append(failures, checkTag(data, tag)...)
	}
	for _, tag := range data.UnmappedTags() {
		prefix, _ := data.Prefix(tag)
		reason := "no schema path for this tag"
		if prefix != "" {
			reason = fmt.Sprintf("no schema path below %s", prefix)
		}
		failures = append(failures, Failure{Tag: tag, Type: schema.UnmappedTag, Reason: reason})
	}

	custom, err := v.runRules(ctx, data)
	if err != nil {
		return Result{}, err
	}
	failures = append(failures, custom...)

	slices.SortStableFunc(failures, compareFailures)
	for _, f := range failures {
		v.metrics.ValidationFailure(f.Type.String())
	}
	if len(failures) > 0 {
		v.logger.Debug("validation failed", "type", data.TopLevel(), "failures", len(failures))
	}
	return Result{Failures: failures}, nil
}

func compareFailures(a, b Failure) int {
	switch {
	case a.Tag < b.Tag:
		return -1
	case a.Tag > b.Tag:
		return 1
	case a.Type != b.Type:
		return int(a.Type) - int(b.Type)
	case a.Rule < b.Rule:
		return -1
	case a.Rule > b.Rule:
		return 1
	}
	return 0
}

// checkTag applies the byte check of the resolved primitive and every
// constraint along the type's reference chain.
func checkTag(data *decoder.Data, tag string) []Failure {
	typ, ok := data.Type(tag)
	if !ok {
		return nil
	}
	u := typ.Underlying()
	if u == nil {
		return []Failure{{Tag: tag, Type: schema.DataIncorrectlyFormatted, Reason: "unresolved type"}}
	}
	content, _ := data.Bytes(tag)

	var found []schema.Failure
	if content == nil {
		found = schema.ApplyAll(nil, nil, u.Builtin())
	} else {
		found = append(primitive.Validate(u.Builtin(), content), schema.ApplyAll(typ.EffectiveConstraints(), content, u.Builtin())...)
	}
	out := make([]Failure, len(found))
	for i, f := range found {
		out[i] = Failure{Tag: tag, Type: f.Type, Reason: f.Reason}
	}
	return out
}

func (v *Validator) runRules(ctx context.Context, data *decoder.Data) ([]Failure, error) {
	if len(v.rules) == 0 {
		return nil, nil
	}
	var (
		mu  sync.Mutex
		out []Failure
	)
	g, gctx := errgroup.WithContext(ctx)
	if v.concurrency > 0 {
		g.SetLimit(v.concurrency)
	}

schedule:
	for _, rule := range v.rules {
		for _, tag := range data.Tags() {
			if rule.Pattern != nil && !rule.Pattern.MatchString(tag) {
				continue
			}
			if gctx.Err() != nil {
				break schedule
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := rule.Check(gctx, tag, data); err != nil {
					mu.Lock()
					out = append(out, Failure{Tag: tag, Type: schema.CustomRule, Reason: err.Error(), Rule: rule.Name})
					mu.Unlock()
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("validation interrupted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("validation interrupted: %w", err)
	}
	return out, nil
}
