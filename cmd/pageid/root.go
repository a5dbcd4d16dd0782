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

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/grafana/pageid/catalog"
	"github.com/grafana/pageid/config"
	"github.com/grafana/pageid/log"
	"github.com/grafana/pageid/metrics"
	"github.com/grafana/pageid/trace"
	"github.com/grafana/pageid/validator"
)

type rootOptions struct {
	catalog      string
	timeout      time.Duration
	pollInterval time.Duration
	timeoutMode  string
	ambiguity    string
	legacy       bool
	logLevel     string
	otlpEndpoint string
	otlpInsecure bool
	metrics      bool
}

// app is the state shared by the subcommands of one invocation.
type app struct {
	opts rootOptions

	cfg      config.Config
	logger   *log.Logger
	promReg  *prometheus.Registry
	metrics  *metrics.Metrics
	tp       trace.TraceProvider
	registry *validator.Registry

	exitCode int
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "pageid",
		Short:         "Identify and validate the page types of a page catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown(cmd.Context(), cmd.OutOrStdout())
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&a.opts.catalog, "catalog", "c", "pages.yaml", "page catalog file")
	f.DurationVar(&a.opts.timeout, "timeout", config.DefaultTimeout, "timeout of each url and title wait")
	f.DurationVar(&a.opts.pollInterval, "poll-interval", config.DefaultPollInterval, "page polling interval")
	f.StringVar(&a.opts.timeoutMode, "timeout-mode", string(config.TimeoutModeFail), "timed out waits: fail or error")
	f.StringVar(&a.opts.ambiguity, "ambiguity", string(config.AmbiguityWarn), "several matching pages: warn, error or ignore")
	f.BoolVar(&a.opts.legacy, "legacy-fallback", false, "check undeclared page types against their legacy url")
	f.StringVar(&a.opts.logLevel, "log-level", "info", "log level")
	f.StringVar(&a.opts.otlpEndpoint, "otlp-endpoint", "", "export spans over OTLP/HTTP to this host:port")
	f.BoolVar(&a.opts.otlpInsecure, "otlp-insecure", false, "export spans without TLS")
	f.BoolVar(&a.opts.metrics, "metrics", false, "print prometheus metrics on exit")

	root.AddCommand(newListCmd(a), newIdentifyCmd(a), newCheckCmd(a))

	return root
}

// setup loads the PAGEID_* environment, applies the flags that were set on
// top of it and loads the catalog.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	f := cmd.Flags()
	if f.Changed("timeout") {
		cfg.Timeout = a.opts.timeout
	}
	if f.Changed("poll-interval") {
		cfg.PollInterval = a.opts.pollInterval
	}
	if f.Changed("timeout-mode") {
		cfg.TimeoutMode = config.TimeoutMode(a.opts.timeoutMode)
	}
	if f.Changed("ambiguity") {
		cfg.Ambiguity = config.AmbiguityPolicy(a.opts.ambiguity)
	}
	if f.Changed("legacy-fallback") {
		cfg.LegacyFallback = a.opts.legacy
	}
	if f.Changed("log-level") {
		cfg.LogLevel = a.opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	lg := logrus.New()
	lg.SetOutput(cmd.ErrOrStderr())
	a.logger = log.New(lg, nil)
	if err := a.logger.SetLevel(cfg.LogLevel); err != nil {
		return err
	}
	if err := a.logger.SetCategoryFilter(cfg.LogCategoryFilter); err != nil {
		return err
	}

	a.promReg = prometheus.NewRegistry()
	a.metrics = metrics.Register(a.promReg)

	a.tp = trace.NewNoopTraceProvider()
	if a.opts.otlpEndpoint != "" {
		if a.tp, err = trace.NewTraceProvider(cmd.Context(), "http", a.opts.otlpEndpoint, a.opts.otlpInsecure); err != nil {
			return err
		}
	}

	a.registry = validator.New(cfg,
		validator.WithLogger(a.logger),
		validator.WithMetrics(a.metrics),
		validator.WithTracer(trace.NewTracer(a.tp, a.logger, map[string]string{"catalog": a.opts.catalog})),
	)

	c, err := catalog.LoadFile(a.opts.catalog)
	if err != nil {
		return err
	}
	return c.Declare(a.registry)
}

func (a *app) teardown(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if a.tp != nil {
		if err := a.tp.Shutdown(ctx); err != nil {
			a.logger.Warnf("pageid", "shutting down trace provider: %v", err)
		}
	}
	if !a.opts.metrics {
		return nil
	}
	return writeMetrics(out, a.promReg)
}

func writeMetrics(out io.Writer, g prometheus.Gatherer) error {
	mfs, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(out, mf); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	return nil
}
