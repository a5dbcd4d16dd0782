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
	"sync"

	"github.com/grafana/pageid/config"
	"github.com/grafana/pageid/metrics"
	"github.com/grafana/pageid/surface"
	"github.com/grafana/pageid/trace"
)

// Registry is the page registry of one test run. It owns the validation
// and identifier registries and the page types declared against them.
// Build one per run and pass it to the page types.
type Registry struct {
	cfg config.Config
	deps

	validations *ValidationRegistry
	identifiers *IdentifierRegistry

	// declMu makes a declaration visible in both registries together.
	declMu sync.Mutex

	pagesMu   sync.RWMutex
	pages     map[string]*PageType
	pageOrder []string
}

// New returns an empty registry. Unset fields of cfg take their defaults.
func New(cfg config.Config, opts ...Option) *Registry {
	cfg = cfg.WithDefaults()
	d := newDeps(opts)
	return &Registry{
		cfg:         cfg,
		deps:        d,
		validations: newValidationRegistry(cfg, d),
		identifiers: NewIdentifierRegistry(),
		pages:       make(map[string]*PageType),
	}
}

// Config returns the registry configuration.
func (r *Registry) Config() config.Config { return r.cfg }

// Validations returns a read only view of the validation registry.
// Declarations go through Declare or a PageType.
func (r *Registry) Validations() ValidationView { return ValidationView{r.validations} }

// Identifiers returns a read only view of the identifier registry.
func (r *Registry) Identifiers() IdentifierView { return IdentifierView{r.identifiers} }

// Page returns the page type called name, creating it on first use.
func (r *Registry) Page(name string) *PageType {
	r.pagesMu.Lock()
	defer r.pagesMu.Unlock()

	if p, ok := r.pages[name]; ok {
		return p
	}
	p := newPageType(r, name)
	r.pages[name] = p
	r.pageOrder = append(r.pageOrder, name)
	r.identifiers.reserve(name)
	return p
}

// Lookup returns the page type called name if it was created.
func (r *Registry) Lookup(name string) (*PageType, bool) {
	r.pagesMu.RLock()
	defer r.pagesMu.RUnlock()
	p, ok := r.pages[name]
	return p, ok
}

// Pages returns every page type in creation order.
func (r *Registry) Pages() []*PageType {
	r.pagesMu.RLock()
	defer r.pagesMu.RUnlock()

	pages := make([]*PageType, 0, len(r.pageOrder))
	for _, name := range r.pageOrder {
		pages = append(pages, r.pages[name])
	}
	return pages
}

// Declare records rule for page in the validation registry and, for Url
// and Title rules, in the identifier registry.
func (r *Registry) Declare(page string, rule RuleSpec) error {
	if page == "" {
		return &InvalidOptionError{Kind: rule.Kind, Option: "page", Reason: "page type name is empty"}
	}
	if err := rule.validate(page); err != nil {
		r.logger.Errorf("Registry:Declare", "%v", err)
		return err
	}
	r.Page(page)

	r.declMu.Lock()
	defer r.declMu.Unlock()

	replaced := r.validations.put(page, rule)
	if rule.Passive() {
		r.identifiers.put(page, rule)
	}
	r.logger.Debugf("Registry:Declare", "page:%q rule:%s replaced:%t", page, rule, replaced)

	return nil
}

// IsOpen reports whether the page type called page is displayed on s.
// A name that was never declared is not created and gives a
// *NoRulesDefinedError.
func (r *Registry) IsOpen(ctx context.Context, page string, s surface.Surface) (bool, error) {
	p, ok := r.Lookup(page)
	if !ok {
		err := &NoRulesDefinedError{Page: page}
		r.logger.Errorf("Registry:IsOpen", "%v", err)
		return false, err
	}
	return p.IsOpen(ctx, s)
}

// MatchedPageTypes returns every page type that is currently open on s, in
// declaration order. Page types are checked concurrently, so s must be safe
// for concurrent use. Page types that can never be checked, having neither
// validations nor a usable legacy pattern, are skipped. Errors of individual
// checks are joined; the matches found are returned alongside.
func (r *Registry) MatchedPageTypes(ctx context.Context, s surface.Surface) ([]string, error) {
	var candidates []*PageType
	for _, p := range r.Pages() {
		if !p.checkable() {
			r.logger.Debugf("Registry:MatchedPageTypes", "skipping %q page: no validations", p.Name())
			continue
		}
		candidates = append(candidates, p)
	}

	var (
		wg   sync.WaitGroup
		open = make([]bool, len(candidates))
		errs = make([]error, len(candidates))
	)
	for n, p := range candidates {
		wg.Add(1)
		go func(n int, p *PageType) {
			defer wg.Done()
			open[n], errs[n] = p.IsOpen(ctx, s)
		}(n, p)
	}
	wg.Wait()

	var matched []string
	for n, p := range candidates {
		if open[n] {
			matched = append(matched, p.Name())
		}
	}
	err := errors.Join(errs...)
	if aerr := r.ambiguity("Registry:MatchedPageTypes", matched); aerr != nil {
		err = errors.Join(err, aerr)
	}
	return matched, err
}

// Identify maps url and title to a page type using the passive rules only.
// The first match in declaration order wins. With more than one match the
// configured ambiguity policy applies; under config.AmbiguityError the
// first match is still returned together with an *AmbiguousMatchError.
func (r *Registry) Identify(ctx context.Context, url, title string) (_ string, _ bool, err error) {
	_, span := r.tracer.TraceIdentify(ctx, url, title)
	defer func() { trace.EndWithError(span, err) }()

	matched := r.identifiers.FindAll(url, title)
	switch len(matched) {
	case 0:
		r.metrics.ObserveIdentify(metrics.OutcomeNoMatch)
		r.logger.Debugf("Registry:Identify", "url:%q title:%q no match", url, title)
		return "", false, nil
	case 1:
		r.metrics.ObserveIdentify(metrics.OutcomeMatch)
	default:
		r.metrics.ObserveIdentify(metrics.OutcomeAmbiguous)
	}
	span.SetAttributes(trace.AttrPage.String(matched[0]))

	return matched[0], true, r.ambiguity("Registry:Identify", matched)
}

func (r *Registry) ambiguity(category string, matched []string) error {
	if len(matched) < 2 {
		return nil
	}
	err := &AmbiguousMatchError{Candidates: matched}
	switch r.cfg.Ambiguity {
	case config.AmbiguityIgnore:
		return nil
	case config.AmbiguityError:
		r.logger.Errorf(category, "%v", err)
		return err
	default:
		r.logger.Warnf(category, "%v; using %q, check for overlapping page definitions", err, matched[0])
		return nil
	}
}

// ValidationView is the read side of a Registry's validations.
type ValidationView struct {
	v *ValidationRegistry
}

// Rules returns a copy of the rules of page in declaration order.
func (w ValidationView) Rules(page string) []RuleSpec { return w.v.Rules(page) }

// HasAnyDeclaration reports whether any rule was declared for page.
func (w ValidationView) HasAnyDeclaration(page string) bool { return w.v.HasAnyDeclaration(page) }

// Pages returns the names of the page types with rules.
func (w ValidationView) Pages() []string { return w.v.Pages() }

// IsSatisfied reports whether every rule of page holds on s.
func (w ValidationView) IsSatisfied(ctx context.Context, page string, s surface.Surface) (bool, error) {
	return w.v.IsSatisfied(ctx, page, s)
}

// Check evaluates every rule of page against s.
func (w ValidationView) Check(ctx context.Context, page string, s surface.Surface) (Report, error) {
	return w.v.Check(ctx, page, s)
}

// IdentifierView is the read side of a Registry's passive rules.
type IdentifierView struct {
	i *IdentifierRegistry
}

// Rules returns a copy of the passive rules of page.
func (w IdentifierView) Rules(page string) []RuleSpec { return w.i.Rules(page) }

// FindMatch returns the first page type, in creation order, matching url
// and title.
func (w IdentifierView) FindMatch(url, title string) (string, bool) { return w.i.FindMatch(url, title) }

// FindAll returns every page type matching url and title in creation order.
func (w IdentifierView) FindAll(url, title string) []string { return w.i.FindAll(url, title) }
