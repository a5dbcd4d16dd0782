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

package surface

import (
	"context"
	"fmt"

	"github.com/grafana/pageid/pattern"
)

var _ Surface = Static{}

// Static is a fixed snapshot of a page. Its waits never block because the
// state cannot change; they report whether the snapshot matches.
type Static struct {
	URL      string
	Title    string
	Elements []string
}

func (s Static) CurrentURL(context.Context) (string, error) { return s.URL, nil }

func (s Static) CurrentTitle(context.Context) (string, error) { return s.Title, nil }

// FindElement returns the locator itself as the handle.
func (s Static) FindElement(_ context.Context, locator string) (Element, error) {
	for _, l := range s.Elements {
		if l == locator {
			return l, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrElementNotFound, locator)
}

func (s Static) WaitForURL(_ context.Context, p pattern.Pattern) (bool, error) {
	return p.MatchString(s.URL), nil
}

func (s Static) WaitForTitle(_ context.Context, p pattern.Pattern) (bool, error) {
	return p.MatchString(s.Title), nil
}
