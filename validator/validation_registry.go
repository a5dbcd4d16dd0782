/*
 *
 * pageid - page identity validation for browser-driven tests
 * Copyright (C) 2021 Load Impact
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as
 * published by the Free Software Foundation, either version 3 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

package validator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/grafana/pageid/config"
	"github.com/grafana/pageid/metrics"
	"github.com/grafana/pageid/surface"
	"github.com/grafana/pageid/trace"
)

// ValidationRegistry maps page type names to the rules that confirm the
// page is displayed. A page type holds at most one rule per kind.
type ValidationRegistry struct {
	cfg config.Config
	deps

	mu    sync.RWMutex
	order []string
	rules map[string][]RuleSpec
}

// NewValidationRegistry returns an empty registry.
func NewValidationRegistry(cfg config.Config, opts ...Option) *ValidationRegistry {
	return newValidationRegistry(cfg, newDeps(opts))
}

func newValidationRegistry(cfg config.Config, d deps) *ValidationRegistry {
	return &ValidationRegistry{
		cfg:   cfg,
		deps:  d,
		rules: make(map[string][]RuleSpec),
	}
}

// Declare records the rule of the given kind for page, replacing an
// earlier rule of the same kind.
func (v *ValidationRegistry) Declare(page string, kind RuleKind, opts Options) error {
	r, err := opts.spec(page, kind)
	if err != nil {
		return err
	}
	v.put(page, r)
	return nil
}

// DeclareSpec is Declare for an already built rule.
func (v *ValidationRegistry) DeclareSpec(page string, r RuleSpec) error {
	if err := r.validate(page); err != nil {
		return err
	}
	v.put(page, r)
	return nil
}

// put stores r and reports whether it replaced a rule. A replaced rule
// keeps its position.
func (v *ValidationRegistry) put(page string, r RuleSpec) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	rules, ok := v.rules[page]
	if !ok {
		v.order = append(v.order, page)
	}
	for i := range rules {
		if rules[i].Kind == r.Kind {
			rules[i] = r
			return true
		}
	}
	v.rules[page] = append(rules, r)
	return false
}

// HasAnyDeclaration reports whether any rule was declared for page.
func (v *ValidationRegistry) HasAnyDeclaration(page string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.rules[page]) > 0
}

// Rules returns a copy of the rules of page in declaration order.
func (v *ValidationRegistry) Rules(page string) []RuleSpec {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]RuleSpec(nil), v.rules[page]...)
}

// Pages returns the page type names in declaration order.
func (v *ValidationRegistry) Pages() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]string(nil), v.order...)
}

// IsSatisfied reports whether every rule of page holds on s.
func (v *ValidationRegistry) IsSatisfied(ctx context.Context, page string, s surface.Surface) (bool, error) {
	rep, err := v.Check(ctx, page, s)
	if err != nil {
		return false, err
	}
	return rep.Satisfied(), nil
}

// Check evaluates every rule of page against s in declaration order and
// returns the per rule outcomes. Every rule is evaluated even after one
// fails. It returns a *NoRulesDefinedError if page has no rules.
func (v *ValidationRegistry) Check(ctx context.Context, page string, s surface.Surface) (Report, error) {
	rules := v.Rules(page)
	if len(rules) == 0 {
		err := &NoRulesDefinedError{Page: page}
		v.logger.Errorf("ValidationRegistry:Check", "%v", err)
		return Report{Page: page}, err
	}
	return v.run(ctx, page, rules, false, s)
}

func (v *ValidationRegistry) run(
	ctx context.Context, page string, rules []RuleSpec, legacy bool, s surface.Surface,
) (_ Report, err error) {
	ctx, span := v.tracer.TraceCheck(ctx, page)
	rep := Report{Page: page, Legacy: legacy, Results: make([]RuleResult, 0, len(rules))}
	defer func() {
		span.SetAttributes(trace.AttrMatched.Bool(rep.Satisfied()))
		trace.EndWithError(span, err)
		switch {
		case err != nil:
			v.metrics.ObserveCheck(page, metrics.OutcomeError)
		case rep.Satisfied():
			v.metrics.ObserveCheck(page, metrics.OutcomeOpen)
		default:
			v.metrics.ObserveCheck(page, metrics.OutcomeClosed)
		}
	}()

	var errs []error
	for _, r := range rules {
		if err := ctx.Err(); err != nil {
			return rep, fmt.Errorf("checking %q page: %w", page, err)
		}
		res := v.evaluate(ctx, page, r, s)
		rep.Results = append(rep.Results, res)

		switch {
		case res.Err != nil:
			errs = append(errs, res.Err)
		case res.TimedOut && v.cfg.TimeoutMode == config.TimeoutModeError:
			errs = append(errs, &TimeoutError{Page: page, Kind: r.Kind, Timeout: v.cfg.Timeout})
		}
	}
	v.logger.Debugf("ValidationRegistry:Check", "page:%q legacy:%t satisfied:%t", page, legacy, rep.Satisfied())

	if len(errs) > 0 {
		return rep, errors.Join(errs...)
	}
	return rep, nil
}

// evaluate runs one rule bounded by the configured timeout.
func (v *ValidationRegistry) evaluate(ctx context.Context, page string, r RuleSpec, s surface.Surface) RuleResult {
	ctx, span := v.tracer.TraceRule(ctx, page, r.Kind.String())

	start := time.Now()
	rctx, cancel := context.WithTimeout(ctx, v.cfg.Timeout)
	defer cancel()
	ok, err := Evaluate(rctx, r, s)

	res := RuleResult{Rule: r, Passed: ok && err == nil, Took: time.Since(start)}
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		res.TimedOut = true
		v.logger.Debugf("ValidationRegistry:evaluate", "page:%q rule:%s timed out after %s", page, r, v.cfg.Timeout)
	default:
		res.Err = fmt.Errorf("evaluating %s of %q page: %w", r, page, err)
	}

	v.metrics.ObserveRule(r.Kind.String(), res.Outcome(), res.Took)
	span.SetAttributes(attribute.String("rule.outcome", res.Outcome()))
	trace.EndWithError(span, res.Err)

	return res
}
