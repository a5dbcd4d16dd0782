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

// Package catalog declares page types from a YAML page catalog.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/grafana/pageid/pattern"
	"github.com/grafana/pageid/validator"
)

// Catalog is the top-level catalog document.
type Catalog struct {
	Pages []Page `yaml:"pages"`
}

// Page describes one page type.
type Page struct {
	Name        string            `yaml:"name"`
	LegacyURL   string            `yaml:"legacy_url"`
	Locators    map[string]string `yaml:"locators"`
	Validations []Validation      `yaml:"validations"`
}

// Validation is one declared validation of a page type.
type Validation struct {
	Kind    string `yaml:"kind"`
	Pattern string `yaml:"pattern"`
	Syntax  string `yaml:"syntax"` // regexp | glob | regexp2
	Locator string `yaml:"locator"`
}

// Error locates a declaration error in the catalog. Index is the position
// of the validation in the page, or -1 for page level fields.
type Error struct {
	Page  string
	Index int
	Err   error
}

func (e *Error) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("catalog page %q: %v", e.Page, e.Err)
	}
	return fmt.Sprintf("catalog page %q validation #%d: %v", e.Page, e.Index, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrNoName is returned for a page without a name.
var ErrNoName = fmt.Errorf("%w: page has no name", validator.ErrConfiguration)

// Load decodes a catalog. Unknown fields are rejected.
func Load(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return &c, nil
		}
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	return &c, nil
}

// LoadFile reads the catalog at path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Load(f)
}

// Declare declares every page of the catalog into reg, in catalog order.
// It stops at the first error.
func (c *Catalog) Declare(reg *validator.Registry) error {
	for i, p := range c.Pages {
		if p.Name == "" {
			return &Error{Page: fmt.Sprintf("#%d", i), Index: -1, Err: ErrNoName}
		}
		if err := p.declare(reg); err != nil {
			return err
		}
	}
	return nil
}

func (p Page) declare(reg *validator.Registry) error {
	pt := reg.Page(p.Name)
	for name, sel := range p.Locators {
		pt.Locator(name, sel)
	}
	if p.LegacyURL != "" {
		pat, err := pattern.Regexp(p.LegacyURL)
		if err != nil {
			return &Error{Page: p.Name, Index: -1, Err: &validator.InvalidOptionError{
				Page: p.Name, Kind: validator.KindURL, Option: "legacy_url", Reason: err.Error(),
			}}
		}
		pt.SetLegacyURL(pat)
	}

	for i, v := range p.Validations {
		opts, err := v.options(p.Name)
		if err == nil {
			err = pt.ValidatesNamed(v.Kind, opts)
		}
		if err != nil {
			return &Error{Page: p.Name, Index: i, Err: err}
		}
	}
	return nil
}

func (v Validation) options(page string) (map[string]any, error) {
	opts := make(map[string]any, 2)
	if v.Locator != "" {
		opts["locator"] = v.Locator
	}
	if v.Pattern == "" {
		return opts, nil
	}

	pat, err := pattern.Parse(pattern.Syntax(v.Syntax), v.Pattern)
	if err != nil {
		kind, kerr := validator.ParseRuleKind(v.Kind)
		if kerr != nil {
			return nil, &validator.UnknownRuleKindError{Page: page, Kind: v.Kind}
		}
		return nil, &validator.InvalidOptionError{Page: page, Kind: kind, Option: "pattern", Reason: err.Error()}
	}
	opts["pattern"] = pat
	return opts, nil
}
