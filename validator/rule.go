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

	"github.com/grafana/pageid/pattern"
	"github.com/grafana/pageid/surface"
)

// RuleSpec is one declared page validation. Url and Title rules carry a
// Pattern, ElementPresence rules carry a Locator.
type RuleSpec struct {
	Kind    RuleKind
	Pattern pattern.Pattern
	Locator string
}

// URLRule returns a Url rule.
func URLRule(p pattern.Pattern) RuleSpec { return RuleSpec{Kind: KindURL, Pattern: p} }

// TitleRule returns a Title rule.
func TitleRule(p pattern.Pattern) RuleSpec { return RuleSpec{Kind: KindTitle, Pattern: p} }

// ElementPresenceRule returns an ElementPresence rule.
func ElementPresenceRule(locator string) RuleSpec {
	return RuleSpec{Kind: KindElementPresence, Locator: locator}
}

// Passive reports whether the rule has a passive form.
func (r RuleSpec) Passive() bool { return r.Kind.Passive() }

func (r RuleSpec) String() string {
	switch r.Kind {
	case KindURL, KindTitle:
		if !pattern.Valid(r.Pattern) {
			return r.Kind.String()
		}
		return fmt.Sprintf("%s =~ %s", r.Kind, r.Pattern)
	case KindElementPresence:
		return fmt.Sprintf("%s(%s)", r.Kind, r.Locator)
	default:
		return r.Kind.String()
	}
}

// Validate checks the rule is well formed.
func (r RuleSpec) Validate() error {
	return r.validate("")
}

func (r RuleSpec) validate(page string) error {
	switch r.Kind {
	case KindURL, KindTitle:
		if !pattern.Valid(r.Pattern) {
			return &InvalidOptionError{
				Page: page, Kind: r.Kind, Option: "pattern",
				Reason: "please specify the pattern option as a compiled pattern",
			}
		}
	case KindElementPresence:
		if r.Locator == "" {
			return &InvalidOptionError{
				Page: page, Kind: r.Kind, Option: "locator",
				Reason: "please specify the locator option as one of the page locator names",
			}
		}
	default:
		return &UnknownRuleKindError{Page: page, Kind: r.Kind.String()}
	}
	return nil
}

// Evaluate runs the active form of r against s. Url and Title rules wait
// on the surface until they match or ctx is done. A missing element is a
// failed rule, not an error.
func Evaluate(ctx context.Context, r RuleSpec, s surface.Surface) (bool, error) {
	switch r.Kind {
	case KindURL:
		return s.WaitForURL(ctx, r.Pattern)
	case KindTitle:
		return s.WaitForTitle(ctx, r.Pattern)
	case KindElementPresence:
		_, err := s.FindElement(ctx, r.Locator)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, surface.ErrElementNotFound):
			return false, nil
		default:
			return false, err
		}
	default:
		return false, &UnknownRuleKindError{Kind: r.Kind.String()}
	}
}

// Accepts runs the passive form of r. Url rules match url, Title rules
// match title. Rules without a passive form never accept.
func Accepts(r RuleSpec, url, title string) bool {
	switch r.Kind {
	case KindURL:
		return r.Pattern.MatchString(url)
	case KindTitle:
		return r.Pattern.MatchString(title)
	default:
		return false
	}
}
