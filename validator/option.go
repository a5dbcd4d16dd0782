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
	"github.com/grafana/pageid/log"
	"github.com/grafana/pageid/metrics"
	"github.com/grafana/pageid/trace"
)

type deps struct {
	logger  *log.Logger
	tracer  *trace.Tracer
	metrics *metrics.Metrics
}

// Option configures the collaborators of a registry.
type Option func(*deps)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(d *deps) { d.logger = l }
}

// WithTracer sets the tracer. The default records no spans.
func WithTracer(t *trace.Tracer) Option {
	return func(d *deps) { d.tracer = t }
}

// WithMetrics sets the metrics. The default records nothing.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *deps) { d.metrics = m }
}

func newDeps(opts []Option) deps {
	d := deps{}
	for _, opt := range opts {
		opt(&d)
	}
	if d.logger == nil {
		d.logger = log.NewNullLogger()
	}
	if d.tracer == nil {
		d.tracer = trace.NewNoopTracer()
	}
	return d
}
