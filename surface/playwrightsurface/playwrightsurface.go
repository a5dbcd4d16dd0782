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

// Package playwrightsurface adapts a playwright-go page to surface.Surface.
package playwrightsurface

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/grafana/pageid/pattern"
	"github.com/grafana/pageid/surface"
)

// page is the part of playwright.Page the surface uses. Playwright calls
// take no context, so cancellation is only observed between polls.
type page interface {
	URL() string
	Title() (string, error)
	querySelector(selector string) (any, error)
}

type pwPage struct {
	playwright.Page
}

func (p pwPage) querySelector(selector string) (any, error) {
	el, err := p.Page.QuerySelector(selector)
	if err != nil || el == nil {
		return nil, err
	}
	return el, nil
}

var _ surface.Surface = &Surface{}

// Surface reads page state through playwright.
type Surface struct {
	page         page
	pollInterval time.Duration
}

// New returns a surface over p.
func New(p playwright.Page, pollInterval time.Duration) *Surface {
	return &Surface{page: pwPage{p}, pollInterval: pollInterval}
}

// CurrentURL returns the page URL as last reported by playwright.
func (s *Surface) CurrentURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.page.URL(), nil
}

// CurrentTitle returns the document title.
func (s *Surface) CurrentTitle(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	title, err := s.page.Title()
	if err != nil {
		return "", fmt.Errorf("playwright: reading title: %w", err)
	}
	return title, nil
}

// FindElement waits for the playwright.ElementHandle of the first element
// matching locator, which may use any playwright selector engine.
func (s *Surface) FindElement(ctx context.Context, locator string) (surface.Element, error) {
	return surface.WaitForElement(ctx, s.pollInterval, locator, func(ctx context.Context) (surface.Element, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		el, err := s.page.querySelector(locator)
		switch {
		case err != nil:
			return nil, fmt.Errorf("playwright: finding %q: %w", locator, err)
		case el == nil:
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
