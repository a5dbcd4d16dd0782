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

// Package pattern provides the compiled string patterns page validations
// match URLs and titles against.
package pattern

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/gobwas/glob"
)

// Pattern is a compiled matcher. *regexp.Regexp satisfies it.
type Pattern interface {
	MatchString(s string) bool
	String() string
}

// Syntax names a pattern dialect.
type Syntax string

const (
	SyntaxRegexp  Syntax = "regexp"
	SyntaxGlob    Syntax = "glob"
	SyntaxRegexp2 Syntax = "regexp2"
)

// Regexp2MatchTimeout bounds a single regexp2 match since backtracking
// patterns can run away on hostile input.
const Regexp2MatchTimeout = time.Second

// ErrUnknownSyntax is returned by Parse for an unsupported dialect.
var ErrUnknownSyntax = errors.New("unknown pattern syntax")

var _ Pattern = &regexp.Regexp{}

// Regexp compiles a Go (RE2) regular expression.
func Regexp(expr string) (Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compiling regexp %q: %w", expr, err)
	}
	return re, nil
}

// Glob compiles a shell style glob. Wildcards match across '/' so a
// pattern like "https://*/login" accepts any host.
func Glob(expr string) (Pattern, error) {
	g, err := glob.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compiling glob %q: %w", expr, err)
	}
	return &globPattern{g: g, expr: expr}, nil
}

// Regexp2 compiles a backtracking regular expression supporting lookaround
// and backreferences, for patterns carried over from suites written against
// non-RE2 engines.
func Regexp2(expr string) (Pattern, error) {
	re, err := regexp2.Compile(expr, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("compiling regexp2 %q: %w", expr, err)
	}
	re.MatchTimeout = Regexp2MatchTimeout
	return &regexp2Pattern{re: re}, nil
}

// Parse compiles expr using the given syntax. An empty syntax means SyntaxRegexp.
func Parse(syntax Syntax, expr string) (Pattern, error) {
	switch Syntax(strings.ToLower(string(syntax))) {
	case "", SyntaxRegexp:
		return Regexp(expr)
	case SyntaxGlob:
		return Glob(expr)
	case SyntaxRegexp2:
		return Regexp2(expr)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSyntax, syntax)
	}
}

// Valid reports whether p is usable: not nil and not a typed nil such as
// a (*regexp.Regexp)(nil) left by a failed compile.
func Valid(p Pattern) bool {
	if p == nil {
		return false
	}
	switch v := reflect.ValueOf(p); v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return !v.IsNil()
	default:
		return true
	}
}

// MustParse is like Parse but panics on error.
// It is meant for package level page declarations.
func MustParse(syntax Syntax, expr string) Pattern {
	p, err := Parse(syntax, expr)
	if err != nil {
		panic(err)
	}
	return p
}

type globPattern struct {
	g    glob.Glob
	expr string
}

func (p *globPattern) MatchString(s string) bool { return p.g.Match(s) }

func (p *globPattern) String() string { return p.expr }

type regexp2Pattern struct {
	re *regexp2.Regexp
}

// MatchString reports a match timeout as no match.
func (p *regexp2Pattern) MatchString(s string) bool {
	ok, err := p.re.MatchString(s)
	return err == nil && ok
}

func (p *regexp2Pattern) String() string { return p.re.String() }
