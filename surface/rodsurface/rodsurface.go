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

// Package rodsurface adapts a go-rod page to surface.Surface.
package rodsurface

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"

	"github.com/grafana/pageid/pattern"
	"github.com/grafana/pageid/surface"
)

// page is the part of *rod.Page the surface uses.
type page interface {
	eval(ctx context.Context, js string) (string, error)
	has(ctx context.Context, selector string) (bool, any, error)
}

type rodPage struct {
	p *rod.Page
}

func (r rodPage) eval(ctx context.Context, js string) (string, error) {
	res, err := r.p.Context(ctx).Eval(js)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (r rodPage) has(ctx context.Context, selector string) (bool, any, error) {
	ok, el, err := r.p.Context(ctx).Has(selector)
	return ok, el, err
}

var _ surface.Surface = &Surface{}

// Surface reads page state with rod. Waits poll every pollInterval.
type Surface struct {
	page         page
	pollInterval time.Duration
}

// New returns a surface over p.
func New(p *rod.Page, pollInterval time.Duration) *Surface {
	return &Surface{page: rodPage{p}, pollInterval: pollInterval}
}

// Connect connects to the browser at controlURL and returns a surface over
// its first page. The returned browser is owned by the caller.
func Connect(controlURL string, pollInterval time.Duration) (*Surface, *rod.Browser, error) {
	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, nil, fmt.Errorf("rod: connect: %w", err)
	}
	pages, err := b.Pages()
	if err != nil {
		_ = b.Close()
		return nil, nil, fmt.Errorf("rod: listing pages: %w", err)
	}
	if len(pages) == 0 {
		_ = b.Close()
		return nil, nil, fmt.Errorf("rod: no page open at %q", controlURL)
	}
	return New(pages.First(), pollInterval), b, nil
}

// CurrentURL returns location.href of the page.
func (s *Surface) CurrentURL(ctx context.Context) (string, error) {
	url, err := s.page.eval(ctx, `() => location.href`)
	if err != nil {
		return "", fmt.Errorf("rod: reading url: %w", err)
	}
	return url, nil
}

// CurrentTitle returns document.title of the page.
func (s *Surface) CurrentTitle(ctx context.Context) (string, error) {
	title, err := s.page.eval(ctx, `() => document.title`)
	if err != nil {
		return "", fmt.Errorf("rod: reading title: %w", err)
	}
	return title, nil
}

// FindElement waits for the first *rod.Element matching the CSS selector.
func (s *Surface) FindElement(ctx context.Context, locator string) (surface.Element, error) {
	return surface.WaitForElement(ctx, s.pollInterval, locator, func(ctx context.Context) (surface.Element, error) {
		ok, el, err := s.page.has(ctx, locator)
		switch {
		case err != nil:
			return nil, fmt.Errorf("rod: finding %q: %w", locator, err)
		case !ok:
			return nil, surface.ErrElementNotFound
		}
		return el, nil
	})
}

func (s *Surface) WaitForURL(ctx context.Context, p pattern.Pattern) (bool, error) {
	return surface.WaitForString(ctx, s.pollInterval, p, s.CurrentURL)
}

func (s *Surface) WaitForTitle(ctx context.Context, p pattern.Pattern) (bool, error) {
	return surface.WaitForString(ctx, s.pollInterval, p, s.CurrentTitle)
}
