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

// Package surface defines the view of a live browser page that page
// validations are evaluated against.
package surface

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/grafana/pageid/pattern"
)

// DefaultPollInterval is used by Poll when no interval is given.
const DefaultPollInterval = 100 * time.Millisecond

// ErrElementNotFound is returned by FindElement when no element matches
// the locator once the surface's own wait has elapsed.
var ErrElementNotFound = errors.New("element not found")

// Element is an opaque handle to an element found on a surface.
type Element any

// Surface exposes the primitive page operations validations need.
// Wait methods block until the pattern matches or ctx is done. FindElement
// waits for the element the same way.
type Surface interface {
	CurrentURL(ctx context.Context) (string, error)
	CurrentTitle(ctx context.Context) (string, error)
	FindElement(ctx context.Context, locator string) (Element, error)
	WaitForURL(ctx context.Context, p pattern.Pattern) (bool, error)
	WaitForTitle(ctx context.Context, p pattern.Pattern) (bool, error)
}

// Poll calls cond immediately and then every interval until it returns
// true, returns an error or ctx is done. When ctx ends first the result is
// false together with ctx.Err().
func Poll(ctx context.Context, interval time.Duration, cond func(context.Context) (bool, error)) (bool, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ok, err := cond(ctx)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}

// WaitForString polls read until p matches its result.
func WaitForString(
	ctx context.Context, interval time.Duration, p pattern.Pattern, read func(context.Context) (string, error),
) (bool, error) {
	return Poll(ctx, interval, func(ctx context.Context) (bool, error) {
		s, err := read(ctx)
		if err != nil {
			return false, err
		}
		return p.MatchString(s), nil
	})
}

// WaitForElement polls find until it returns an element or ctx is done.
// find reports a missing element with ErrElementNotFound. An element still
// missing when the ctx deadline passes gives an error wrapping
// ErrElementNotFound; a canceled ctx gives ctx.Err().
func WaitForElement(
	ctx context.Context, interval time.Duration, locator string, find func(context.Context) (Element, error),
) (Element, error) {
	var el Element
	_, err := Poll(ctx, interval, func(ctx context.Context) (bool, error) {
		e, err := find(ctx)
		switch {
		case errors.Is(err, ErrElementNotFound):
			return false, nil
		case err != nil:
			return false, err
		}
		el = e
		return true, nil
	})
	switch {
	case err == nil:
		return el, nil
	case errors.Is(err, context.DeadlineExceeded) && errors.Is(ctx.Err(), context.DeadlineExceeded):
		return nil, fmt.Errorf("%w: %q", ErrElementNotFound, locator)
	default:
		return nil, err
	}
}
