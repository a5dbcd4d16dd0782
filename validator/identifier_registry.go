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
	"sync"

	"github.com/grafana/pageid/pattern"
)

// IdentifierRegistry keeps the passive Url and Title rules of every page
// type so a raw URL and title can be mapped back to a page type without
// driving the browser.
type IdentifierRegistry struct {
	mu    sync.RWMutex
	order []string
	rules map[string][]RuleSpec
}

// NewIdentifierRegistry returns an empty registry.
func NewIdentifierRegistry() *IdentifierRegistry {
	return &IdentifierRegistry{rules: make(map[string][]RuleSpec)}
}

// Declare records the passive rule of kind for page. Only KindURL and
// KindTitle have a passive form.
func (i *IdentifierRegistry) Declare(page string, kind RuleKind, p pattern.Pattern) error {
	if !kind.valid() {
		return &UnknownRuleKindError{Page: page, Kind: kind.String()}
	}
	if !kind.Passive() {
		return &InvalidOptionError{
			Page: page, Kind: kind, Option: "kind",
			Reason: "only url and title validations can identify a page",
		}
	}
	r := RuleSpec{Kind: kind, Pattern: p}
	if err := r.validate(page); err != nil {
		return err
	}
	i.put(page, r)
	return nil
}

// reserve gives page its place in the match order before it has any
// passive rule, so lookups follow page type creation order.
func (i *IdentifierRegistry) reserve(page string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, ok := i.rules[page]; !ok {
		i.rules[page] = nil
		i.order = append(i.order, page)
	}
}

func (i *IdentifierRegistry) put(page string, r RuleSpec) {
	i.mu.Lock()
	defer i.mu.Unlock()

	rules, ok := i.rules[page]
	if !ok {
		i.order = append(i.order, page)
	}
	for n := range rules {
		if rules[n].Kind == r.Kind {
			rules[n] = r
			return
		}
	}
	i.rules[page] = append(rules, r)
}

// Rules returns a copy of the passive rules of page.
func (i *IdentifierRegistry) Rules(page string) []RuleSpec {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return append([]RuleSpec(nil), i.rules[page]...)
}

// FindMatch returns the first page type, in declaration order, whose every
// passive rule accepts url and title. A page type that only declared a Url
// rule ignores title and vice versa. No match is not an error.
func (i *IdentifierRegistry) FindMatch(url, title string) (string, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	for _, page := range i.order {
		if acceptsAll(i.rules[page], url, title) {
			return page, true
		}
	}
	return "", false
}

// FindAll returns every matching page type in declaration order.
func (i *IdentifierRegistry) FindAll(url, title string) []string {
	i.mu.RLock()
	defer i.mu.RUnlock()

	var matched []string
	for _, page := range i.order {
		if acceptsAll(i.rules[page], url, title) {
			matched = append(matched, page)
		}
	}
	return matched
}

func acceptsAll(rules []RuleSpec, url, title string) bool {
	if len(rules) == 0 {
		return false
	}
	for _, r := range rules {
		if !Accepts(r, url, title) {
			return false
		}
	}
	return true
}
