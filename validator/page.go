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

	"github.com/grafana/pageid/pattern"
	"github.com/grafana/pageid/surface"
)

// PageType describes one screen of the application under test. It holds
// no browser state: the surface is passed on every check.
type PageType struct {
	name string
	reg  *Registry

	mu        sync.RWMutex
	locators  map[string]string
	legacyURL pattern.Pattern

	legacyWarn sync.Once
}

func newPageType(reg *Registry, name string) *PageType {
	return &PageType{
		name:     name,
		reg:      reg,
		locators: make(map[string]string),
	}
}

// Name returns the page type name.
func (p *PageType) Name() string { return p.name }

// Validates declares a validation of kind for the page type. Declaring the
// same kind again replaces the earlier rule only.
func (p *PageType) Validates(kind RuleKind, opts Options) error {
	r, err := opts.spec(p.name, kind)
	if err != nil {
		p.reg.logger.Errorf("PageType:Validates", "%v", err)
		return err
	}
	return p.reg.Declare(p.name, r)
}

// MustValidate is like Validates but panics on error. A page type declared
// at package level with a bad validation aborts the program start.
func (p *PageType) MustValidate(kind RuleKind, opts Options) *PageType {
	if err := p.Validates(kind, opts); err != nil {
		panic(err)
	}
	return p
}

// ValidatesNamed declares a validation from loosely typed input, as read
// from a catalog. kind is one of "url", "title" or "element_presence".
func (p *PageType) ValidatesNamed(kind string, opts map[string]any) error {
	k, err := ParseRuleKind(kind)
	if err != nil {
		err := &UnknownRuleKindError{Page: p.name, Kind: kind}
		p.reg.logger.Errorf("PageType:ValidatesNamed", "%v", err)
		return err
	}
	o, err := OptionsFromMap(k, opts)
	if err != nil {
		var ioe *InvalidOptionError
		if errors.As(err, &ioe) {
			ioe.Page = p.name
		}
		return err
	}
	return p.Validates(k, o)
}

// Locator names a selector. ElementPresence rules refer to locators by
// name; a locator that is not declared is passed to the surface unchanged.
func (p *PageType) Locator(name, selector string) *PageType {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.locators[name] = selector
	return p
}

// LocatorFor resolves a locator name.
func (p *PageType) LocatorFor(name string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	sel, ok := p.locators[name]
	return sel, ok
}

// SetLegacyURL records the legacy URL pattern of the page type. It is only
// used when no validation is declared and config.LegacyFallback is on.
func (p *PageType) SetLegacyURL(pat pattern.Pattern) *PageType {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.legacyURL = pat
	return p
}

// LegacyURL returns the legacy URL pattern, if any.
func (p *PageType) LegacyURL() pattern.Pattern {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.legacyURL
}

// Rules returns the declared validations in declaration order.
func (p *PageType) Rules() []RuleSpec {
	return p.reg.validations.Rules(p.name)
}

// HasAnyDeclaration reports whether any validation was declared.
func (p *PageType) HasAnyDeclaration() bool {
	return p.reg.validations.HasAnyDeclaration(p.name)
}

// EnsureDeclared returns a *NoRulesDefinedError if the page type has no
// validation and no usable legacy fallback.
func (p *PageType) EnsureDeclared() error {
	if p.checkable() {
		return nil
	}
	err := &NoRulesDefinedError{Page: p.name}
	p.reg.logger.Errorf("PageType:EnsureDeclared", "%v", err)
	return err
}

// IsOpen reports whether the page type is currently displayed on s.
func (p *PageType) IsOpen(ctx context.Context, s surface.Surface) (bool, error) {
	rep, err := p.Check(ctx, s)
	if err != nil {
		return false, err
	}
	return rep.Satisfied(), nil
}

// Check is IsOpen with the per rule outcomes.
func (p *PageType) Check(ctx context.Context, s surface.Surface) (Report, error) {
	s = &locatorSurface{Surface: s, page: p}

	if p.HasAnyDeclaration() {
		return p.reg.validations.Check(ctx, p.name, s)
	}
	if legacy := p.legacyRule(); legacy != nil {
		p.reg.metrics.ObserveLegacyFallback(p.name)
		return p.reg.validations.run(ctx, p.name, []RuleSpec{*legacy}, true, s)
	}
	return p.reg.validations.Check(ctx, p.name, s)
}

func (p *PageType) checkable() bool {
	return p.HasAnyDeclaration() || p.legacyRule() != nil
}

// legacyRule returns the fallback Url rule when the configuration allows
// it, warning once per page type.
func (p *PageType) legacyRule() *RuleSpec {
	if !p.reg.cfg.LegacyFallback {
		return nil
	}
	pat := p.LegacyURL()
	if !pattern.Valid(pat) {
		return nil
	}
	p.legacyWarn.Do(func() {
		p.reg.logger.Warnf("PageType:legacy",
			"%q page has no validations and uses its legacy URL pattern %s; "+
				"the legacy pattern is deprecated, declare a url validation instead", p.name, pat)
	})
	r := URLRule(pat)
	return &r
}

// locatorSurface resolves locator names of a page type before finding elements.
type locatorSurface struct {
	surface.Surface
	page *PageType
}

func (s *locatorSurface) FindElement(ctx context.Context, locator string) (surface.Element, error) {
	if sel, ok := s.page.LocatorFor(locator); ok {
		locator = sel
	}
	return s.Surface.FindElement(ctx, locator)
}
