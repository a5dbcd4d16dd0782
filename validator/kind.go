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
	"strings"
)

// RuleKind is the kind of a page validation.
type RuleKind int

const (
	KindURL RuleKind = iota + 1
	KindTitle
	KindElementPresence
)

// Kinds returns every rule kind in canonical order.
func Kinds() []RuleKind {
	return []RuleKind{KindURL, KindTitle, KindElementPresence}
}

func (k RuleKind) String() string {
	switch k {
	case KindURL:
		return "url"
	case KindTitle:
		return "title"
	case KindElementPresence:
		return "element_presence"
	default:
		return fmt.Sprintf("RuleKind(%d)", int(k))
	}
}

// Passive reports whether rules of this kind can be matched against a plain
// URL or title string.
func (k RuleKind) Passive() bool {
	return k == KindURL || k == KindTitle
}

func (k RuleKind) valid() bool {
	switch k {
	case KindURL, KindTitle, KindElementPresence:
		return true
	default:
		return false
	}
}

// ParseRuleKind parses "url", "title" or "element_presence". A leading
// colon is accepted so ":url" parses too.
func ParseRuleKind(s string) (RuleKind, error) {
	switch strings.TrimPrefix(s, ":") {
	case "url":
		return KindURL, nil
	case "title":
		return KindTitle, nil
	case "element_presence":
		return KindElementPresence, nil
	default:
		return 0, &UnknownRuleKindError{Kind: s}
	}
}
