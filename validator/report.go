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

import "time"

// RuleResult is the outcome of one rule of a check.
type RuleResult struct {
	Rule     RuleSpec
	Passed   bool
	TimedOut bool
	// Err is set when the surface failed for a reason other than a timeout
	// or a missing element.
	Err  error
	Took time.Duration
}

// Outcome is one of "pass", "fail", "timeout" or "error".
func (r RuleResult) Outcome() string {
	switch {
	case r.Err != nil:
		return "error"
	case r.TimedOut:
		return "timeout"
	case r.Passed:
		return "pass"
	default:
		return "fail"
	}
}

// Report is the outcome of checking one page type.
type Report struct {
	Page string
	// Legacy is set when the results come from the legacy URL pattern
	// rather than declared validations.
	Legacy  bool
	Results []RuleResult
}

// Satisfied reports whether every rule passed.
func (r Report) Satisfied() bool {
	if len(r.Results) == 0 {
		return false
	}
	for _, res := range r.Results {
		if !res.Passed {
			return false
		}
	}
	return true
}

// Failed returns the results of the rules that did not pass.
func (r Report) Failed() []RuleResult {
	var failed []RuleResult
	for _, res := range r.Results {
		if !res.Passed {
			failed = append(failed, res)
		}
	}
	return failed
}
