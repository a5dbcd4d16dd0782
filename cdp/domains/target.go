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

package domains

import (
	"context"

	"github.com/chromedp/cdproto/cdp"
	cdpt "github.com/chromedp/cdproto/target"
	"github.com/pkg/errors"
)

// TargetTypePage is the type of page targets.
const TargetTypePage = "page"

// Target exposes the CDP Target domain actions.
type Target interface {
	GetTargets(ctx context.Context) ([]*cdpt.Info, error)
	AttachToTarget(ctx context.Context, targetID string, flatten bool) (sessionID string, err error)
}

var _ Target = &target{}

type target struct {
	exec cdp.Executor
}

// NewTarget returns a new CDP Target domain wrapper.
func NewTarget(exec cdp.Executor) Target {
	return &target{exec}
}

// GetTargets executes the CDP Target.getTargets command.
func (t *target) GetTargets(ctx context.Context) ([]*cdpt.Info, error) {
	infos, err := cdpt.GetTargets().Do(cdp.WithExecutor(ctx, t.exec))
	if err != nil {
		return nil, errors.Wrap(err, "listing targets")
	}
	return infos, nil
}

// AttachToTarget executes the CDP Target.attachToTarget command. With
// flatten the returned session ID routes commands over the same connection.
func (t *target) AttachToTarget(ctx context.Context, targetID string, flatten bool) (string, error) {
	action := cdpt.AttachToTarget(cdpt.ID(targetID)).WithFlatten(flatten)
	sid, err := action.Do(cdp.WithExecutor(ctx, t.exec))
	if err != nil {
		return "", errors.Wrapf(err, "attaching to target %q", targetID)
	}
	return string(sid), nil
}
