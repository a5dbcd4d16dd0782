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
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrConfiguration is the parent of every declaration time error.
	// These are defects in a page type declaration and are never retried.
	ErrConfiguration = errors.New("page validation configuration error")

	ErrInvalidOption   = fmt.Errorf("%w: invalid option", ErrConfiguration)
	ErrUnknownRuleKind = fmt.Errorf("%w: unknown validation type", ErrConfiguration)

	ErrNoRulesDefined = errors.New("no page validation defined")
	ErrTimeout        = errors.New("page validation timed out")
	ErrAmbiguousMatch = errors.New("ambiguous page match")
)

// InvalidOptionError reports a missing or malformed declaration option.
type InvalidOptionError struct {
	Page   string
	Kind   RuleKind
	Option string
	Reason string
}

func (e *InvalidOptionError) Error() string {
	if e.Page == "" {
		return fmt.Sprintf("invalid %s option %q: %s", e.Kind, e.Option, e.Reason)
	}
	return fmt.Sprintf("page %q: invalid %s option %q: %s", e.Page, e.Kind, e.Option, e.Reason)
}

func (e *InvalidOptionError) Unwrap() error { return ErrInvalidOption }

// UnknownRuleKindError reports a validation type outside url, title and
// element_presence.
type UnknownRuleKindError struct {
	Page string
	Kind string
}

func (e *UnknownRuleKindError) Error() string {
	if e.Page == "" {
		return fmt.Sprintf("unknown %q validation type", e.Kind)
	}
	return fmt.Sprintf("page %q: unknown %q validation type", e.Page, e.Kind)
}

func (e *UnknownRuleKindError) Unwrap() error { return ErrUnknownRuleKind }

// NoRulesDefinedError is returned when a page type is checked before any
// validation was declared for it.
type NoRulesDefinedError struct {
	Page string
}

func (e *NoRulesDefinedError) Error() string {
	return fmt.Sprintf("no page validation was found for %q page", e.Page)
}

func (e *NoRulesDefinedError) Unwrap() error { return ErrNoRulesDefined }

// TimeoutError reports a Url or Title wait that did not match in time.
// It is only returned with config.TimeoutModeError.
type TimeoutError struct {
	Page    string
	Kind    RuleKind
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("page %q: %s validation did not match within %s", e.Page, e.Kind, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// AmbiguousMatchError is returned with config.AmbiguityError when more than
// one page type matches. Candidates are in declaration order.
type AmbiguousMatchError struct {
	Candidates []string
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("%d page types match at once: %s", len(e.Candidates), strings.Join(e.Candidates, ", "))
}

func (e *AmbiguousMatchError) Unwrap() error { return ErrAmbiguousMatch }
