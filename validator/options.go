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
	"fmt"

	"github.com/grafana/pageid/pattern"
)

// Options are the declaration options of a validation. Url and Title use
// Pattern, ElementPresence uses Locator.
type Options struct {
	Pattern pattern.Pattern
	Locator string
}

// OptionsFromMap reads options from loosely typed input. The keys
// "pattern" and "locator" are accepted with or without a leading colon.
// A pattern must already be compiled; a raw string is rejected.
func OptionsFromMap(kind RuleKind, m map[string]any) (Options, error) {
	var opts Options

	if v, ok := lookup(m, "pattern"); ok && v != nil {
		p, ok := v.(pattern.Pattern)
		if !ok {
			return Options{}, &InvalidOptionError{
				Kind: kind, Option: "pattern",
				Reason: fmt.Sprintf("expected a compiled pattern, actual is '%T'", v),
			}
		}
		opts.Pattern = p
	}
	if v, ok := lookup(m, "locator"); ok && v != nil {
		l, ok := v.(string)
		if !ok {
			return Options{}, &InvalidOptionError{
				Kind: kind, Option: "locator",
				Reason: fmt.Sprintf("expected a string, actual is '%T'", v),
			}
		}
		opts.Locator = l
	}

	return opts, nil
}

func lookup(m map[string]any, key string) (any, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	v, ok := m[":"+key]
	return v, ok
}

// spec builds the rule for kind. Options unrelated to kind are ignored.
func (o Options) spec(page string, kind RuleKind) (RuleSpec, error) {
	var r RuleSpec
	switch kind {
	case KindURL, KindTitle:
		r = RuleSpec{Kind: kind, Pattern: o.Pattern}
	case KindElementPresence:
		r = RuleSpec{Kind: kind, Locator: o.Locator}
	default:
		return RuleSpec{}, &UnknownRuleKindError{Page: page, Kind: kind.String()}
	}
	if err := r.validate(page); err != nil {
		return RuleSpec{}, err
	}
	return r, nil
}
