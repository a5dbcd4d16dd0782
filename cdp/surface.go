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

package cdp

import (
	"context"
	"time"

	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"
	"github.com/pkg/errors"

	"github.com/grafana/pageid/cdp/domains"
	"github.com/grafana/pageid/pattern"
	"github.com/grafana/pageid/surface"
)

// ErrNoPageTarget is returned by Attach when the browser has no page open.
var ErrNoPageTarget = errors.New("no page target found")

var _ surface.Surface = &Surface{}

// Surface is a page surface reading the state of one browser tab through
// Runtime.evaluate. Waits poll the page state.
type Surface struct {
	client       *Client
	targetID     string
	sessionID    string
	pollInterval time.Duration
}

// Attach attaches to the page target with the given ID, or to the first
// page target when targetID is empty.
func Attach(ctx context.Context, c *Client, targetID string, pollInterval time.Duration) (*Surface, error) {
	if targetID == "" {
		infos, err := c.Target.GetTargets(ctx)
		if err != nil {
			return nil, err
		}
		for _, info := range infos {
			if info.Type == domains.TargetTypePage {
				targetID = string(info.TargetID)
				break
			}
		}
		if targetID == "" {
			return nil, ErrNoPageTarget
		}
	}

	sid, err := c.Target.AttachToTarget(ctx, targetID, true)
	if err != nil {
		return nil, err
	}
	c.logger.Debugf("Surface:Attach", "tid:%v sid:%v", targetID, sid)

	return &Surface{
		client:       c,
		targetID:     targetID,
		sessionID:    sid,
		pollInterval: pollInterval,
	}, nil
}

// TargetID returns the ID of the attached target.
func (s *Surface) TargetID() string { return s.targetID }

// Navigate loads url in the attached page.
func (s *Surface) Navigate(ctx context.Context, url string) error {
	_, err := s.client.Page.Navigate(s.ctx(ctx), url, "")
	return err
}

// CurrentURL returns location.href of the page.
func (s *Surface) CurrentURL(ctx context.Context) (string, error) {
	return s.evalString(ctx, "location.href")
}

// CurrentTitle returns document.title of the page.
func (s *Surface) CurrentTitle(ctx context.Context) (string, error) {
	return s.evalString(ctx, "document.title")
}

// FindElement waits until a CSS selector matches an element. The
// returned element is the selector itself: the surface holds no remote
// object references.
func (s *Surface) FindElement(ctx context.Context, locator string) (surface.Element, error) {
	var w jwriter.Writer
	w.String(locator)
	quoted, err := w.BuildBytes()
	if err != nil {
		return nil, errors.Wrapf(err, "quoting locator %q", locator)
	}
	expr := "document.querySelector(" + string(quoted) + ") !== null"

	return surface.WaitForElement(ctx, s.pollInterval, locator, func(ctx context.Context) (surface.Element, error) {
		v, err := s.client.Runtime.Evaluate(s.ctx(ctx), expr)
		if err != nil {
			return nil, err
		}
		l := jlexer.Lexer{Data: v}
		found := l.Bool()
		if err := l.Error(); err != nil {
			return nil, errors.Wrapf(err, "decoding element lookup of %q", locator)
		}
		if !found {
			return nil, surface.ErrElementNotFound
		}
		return locator, nil
	})
}

// WaitForURL polls CurrentURL until p matches.
func (s *Surface) WaitForURL(ctx context.Context, p pattern.Pattern) (bool, error) {
	return surface.WaitForString(ctx, s.pollInterval, p, s.CurrentURL)
}

// WaitForTitle polls CurrentTitle until p matches.
func (s *Surface) WaitForTitle(ctx context.Context, p pattern.Pattern) (bool, error) {
	return surface.WaitForString(ctx, s.pollInterval, p, s.CurrentTitle)
}

func (s *Surface) evalString(ctx context.Context, expr string) (string, error) {
	v, err := s.client.Runtime.Evaluate(s.ctx(ctx), expr)
	if err != nil {
		return "", err
	}
	return decodeString(v)
}

func (s *Surface) ctx(ctx context.Context) context.Context {
	return WithSessionID(ctx, s.sessionID)
}

func decodeString(v easyjson.RawMessage) (string, error) {
	l := jlexer.Lexer{Data: v}
	str := l.String()
	if err := l.Error(); err != nil {
		return "", errors.Wrap(err, "decoding string result")
	}
	return str, nil
}
