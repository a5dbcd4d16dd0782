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

// Package metrics exposes prometheus metrics for page checks and
// identification.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pageid"

// Outcome labels.
const (
	OutcomeOpen      = "open"
	OutcomeClosed    = "closed"
	OutcomeError     = "error"
	OutcomeMatch     = "match"
	OutcomeNoMatch   = "no_match"
	OutcomeAmbiguous = "ambiguous"
)

// Metrics are the custom metrics recorded by a page registry.
// A nil *Metrics records nothing.
type Metrics struct {
	PageChecks         *prometheus.CounterVec
	RuleEvaluations    *prometheus.CounterVec
	RuleEvalDuration   *prometheus.HistogramVec
	Identifications    *prometheus.CounterVec
	LegacyFallbackUsed *prometheus.CounterVec
}

// Register creates our metrics and registers them with registerer.
// It panics if any of them is already registered.
func Register(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		PageChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "page",
				Name:      "checks_total",
				Help:      "Total number of page open checks",
			},
			[]string{"page", "outcome"},
		),
		RuleEvaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rule",
				Name:      "evaluations_total",
				Help:      "Total number of rule evaluations against a live surface",
			},
			[]string{"kind", "result"},
		),
		RuleEvalDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "rule",
				Name:      "evaluation_duration_seconds",
				Help:      "Rule evaluation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		Identifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "identify",
				Name:      "total",
				Help:      "Total number of passive page identifications",
			},
			[]string{"outcome"},
		),
		LegacyFallbackUsed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "page",
				Name:      "legacy_fallback_total",
				Help:      "Total number of checks served by a legacy URL pattern",
			},
			[]string{"page"},
		),
	}
	registerer.MustRegister(
		m.PageChecks,
		m.RuleEvaluations,
		m.RuleEvalDuration,
		m.Identifications,
		m.LegacyFallbackUsed,
	)
	return m
}

// ObserveCheck counts a page check outcome.
func (m *Metrics) ObserveCheck(page, outcome string) {
	if m == nil {
		return
	}
	m.PageChecks.WithLabelValues(page, outcome).Inc()
}

// ObserveRule counts a rule evaluation and records how long it took.
func (m *Metrics) ObserveRule(kind, result string, took time.Duration) {
	if m == nil {
		return
	}
	m.RuleEvaluations.WithLabelValues(kind, result).Inc()
	m.RuleEvalDuration.WithLabelValues(kind).Observe(took.Seconds())
}

// ObserveIdentify counts a passive identification outcome.
func (m *Metrics) ObserveIdentify(outcome string) {
	if m == nil {
		return
	}
	m.Identifications.WithLabelValues(outcome).Inc()
}

// ObserveLegacyFallback counts a check that used the legacy URL pattern.
func (m *Metrics) ObserveLegacyFallback(page string) {
	if m == nil {
		return
	}
	m.LegacyFallbackUsed.WithLabelValues(page).Inc()
}
