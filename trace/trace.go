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

// Package trace provides tracing instrumentation for page checks.
package trace

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/grafana/pageid/log"
)

const tracerName = "pageid"

// Span attribute keys.
const (
	AttrPage    = attribute.Key("page.name")
	AttrKind    = attribute.Key("rule.kind")
	AttrURL     = attribute.Key("page.url")
	AttrTitle   = attribute.Key("page.title")
	AttrMatched = attribute.Key("page.matched")
)

// Tracer generates spans for page checks, rule evaluations and
// identifications, tagging every span with the tracer metadata.
type Tracer struct {
	trace.Tracer
	logger   *log.Logger
	metadata []attribute.KeyValue
}

// NewTracer creates a new Tracer from the given TracerProvider. Span
// lifecycle calls are logged at debug level when logger is not nil.
func NewTracer(
	tp trace.TracerProvider, logger *log.Logger, metadata map[string]string, options ...trace.TracerOption,
) *Tracer {
	return &Tracer{
		Tracer:   tp.Tracer(tracerName, options...),
		logger:   logger,
		metadata: buildMetadataAttributes(metadata),
	}
}

// NewNoopTracer returns a Tracer whose spans are never recorded.
func NewNoopTracer() *Tracer {
	return NewTracer(noop.NewTracerProvider(), nil, nil)
}

// Start overrides the underlying OTEL tracer method to include the tracer metadata.
func (t *Tracer) Start(
	ctx context.Context, spanName string, opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	opts = append(opts, trace.WithAttributes(t.metadata...))
	sCtx, span := t.Tracer.Start(ctx, spanName, opts...)
	if t.logger == nil {
		return sCtx, span
	}
	return sCtx, &SpanLogger{Span: span, logger: t.logger, spanName: spanName}
}

// TraceCheck starts the span of one page open check.
// It is the caller's responsibility to end the returned span.
func (t *Tracer) TraceCheck(ctx context.Context, page string) (context.Context, trace.Span) {
	return t.Start(ctx, "page.check", trace.WithAttributes(AttrPage.String(page)))
}

// TraceRule starts the span of one rule evaluation, a child of the check
// span carried by ctx.
func (t *Tracer) TraceRule(ctx context.Context, page, kind string) (context.Context, trace.Span) {
	return t.Start(ctx, "rule.evaluate", trace.WithAttributes(
		AttrPage.String(page),
		AttrKind.String(kind),
	))
}

// TraceIdentify starts the span of a passive identification.
func (t *Tracer) TraceIdentify(ctx context.Context, url, title string) (context.Context, trace.Span) {
	return t.Start(ctx, "page.identify", trace.WithAttributes(
		AttrURL.String(url),
		AttrTitle.String(title),
	))
}

// EndWithError records err on span, if any, and ends it.
func EndWithError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// GetTraceID returns the hex trace ID of spanCtx or an empty string.
func GetTraceID(spanCtx trace.SpanContext) string {
	if spanCtx.HasTraceID() {
		traceID := spanCtx.TraceID()
		return traceID.String()
	}
	return ""
}

func buildMetadataAttributes(metadata map[string]string) []attribute.KeyValue {
	meta := make([]attribute.KeyValue, 0, len(metadata))
	for mk, mv := range metadata {
		meta = append(meta, attribute.String(mk, mv))
	}
	return meta
}

// SpanLogger is a Span that will log the method calls.
type SpanLogger struct {
	trace.Span
	logger   *log.Logger
	spanName string
}

// SetStatus will log some info before calling the underlying SetStatus.
func (i *SpanLogger) SetStatus(code codes.Code, description string) {
	traceID := GetTraceID(i.SpanContext())
	i.logger.Debugf("Tracer:SetStatus", "spanName: %q traceID: %q code: %q description: %q",
		i.spanName, traceID, code, description)

	i.Span.SetStatus(code, description)
}

// End will log some info before calling the underlying End.
func (i *SpanLogger) End(options ...trace.SpanEndOption) {
	traceID := GetTraceID(i.SpanContext())
	i.logger.Debugf("Tracer:End", "spanName: %q traceID: %q", i.spanName, traceID)

	i.Span.End(options...)
}

// RecordError will log some info before calling the underlying RecordError.
func (i *SpanLogger) RecordError(err error, options ...trace.EventOption) {
	traceID := GetTraceID(i.SpanContext())
	i.logger.Debugf("Tracer:RecordError", "spanName: %q traceID: %q err: %q", i.spanName, traceID, err)

	i.Span.RecordError(err, options...)
}
