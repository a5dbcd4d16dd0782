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
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/grafana/pageid/cdp"
	"github.com/grafana/pageid/storage"
	"github.com/grafana/pageid/validator"
)

type checkOptions struct {
	ws     string
	target string
	page   string
	url    string
	report string
}

type checkReport struct {
	URL     string       `yaml:"url"`
	Title   string       `yaml:"title"`
	Matched []string     `yaml:"matched"`
	Pages   []pageReport `yaml:"pages,omitempty"`
	Error   string       `yaml:"error,omitempty"`
}

type pageReport struct {
	Name   string       `yaml:"name"`
	Open   bool         `yaml:"open"`
	Legacy bool         `yaml:"legacy,omitempty"`
	Rules  []ruleReport `yaml:"rules"`
}

type ruleReport struct {
	Rule    string `yaml:"rule"`
	Outcome string `yaml:"outcome"`
	Took    string `yaml:"took"`
	Error   string `yaml:"error,omitempty"`
}

func newCheckCmd(a *app) *cobra.Command {
	var o checkOptions

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check which page types are open in a browser tab",
		Long: "Check connects to a browser over the Chrome DevTools Protocol and " +
			"evaluates every validation of one page type (--page) or of all page " +
			"types against a tab. The exit status is 1 when nothing is open.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.check(cmd.Context(), cmd.OutOrStdout(), o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.ws, "ws", "", "browser DevTools websocket URL")
	f.StringVar(&o.target, "target", "", "target ID of the tab, the first tab by default")
	f.StringVar(&o.page, "page", "", "check only this page type")
	f.StringVar(&o.url, "goto", "", "navigate the tab to this URL first")
	f.StringVar(&o.report, "report", "", "write a YAML report to this file")
	_ = cmd.MarkFlagRequired("ws")

	return cmd
}

func (a *app) check(ctx context.Context, out io.Writer, o checkOptions) error {
	var page *validator.PageType
	if o.page != "" {
		p, ok := a.registry.Lookup(o.page)
		if !ok {
			return fmt.Errorf("unknown page type %q", o.page)
		}
		page = p
	}

	client := cdp.NewClient(a.logger)
	if err := client.Connect(ctx, o.ws); err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	if v, err := client.Browser.GetVersion(ctx); err == nil {
		a.logger.Infof("pageid:check", "browser:%q protocol:%q", v.Product, v.Protocol)
	}
	s, err := cdp.Attach(ctx, client, o.target, a.cfg.PollInterval)
	if err != nil {
		return err
	}
	if o.url != "" {
		if err := s.Navigate(ctx, o.url); err != nil {
			return err
		}
	}

	var rep checkReport
	if rep.URL, err = s.CurrentURL(ctx); err != nil {
		return err
	}
	if rep.Title, err = s.CurrentTitle(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s\n", faint("url:  "), rep.URL)
	fmt.Fprintf(out, "%s %s\n", faint("title:"), rep.Title)

	var checkErr error
	if page != nil {
		var r validator.Report
		r, checkErr = page.Check(ctx, s)
		printReport(out, r)
		rep.Pages = append(rep.Pages, newPageReport(r))
		if r.Satisfied() {
			rep.Matched = []string{r.Page}
		}
	} else {
		rep.Matched, checkErr = a.registry.MatchedPageTypes(ctx, s)
		if len(rep.Matched) > 0 {
			fmt.Fprintf(out, "%s %s\n", faint("open: "), green(strings.Join(rep.Matched, ", ")))
		}
	}
	if len(rep.Matched) == 0 {
		fmt.Fprintln(out, red("no page type is open"))
		a.exitCode = 1
	}
	if checkErr != nil {
		rep.Error = checkErr.Error()
	}

	if o.report != "" {
		if err := storage.PersistYAML(ctx, &storage.LocalFilePersister{}, o.report, rep); err != nil {
			return errors.Join(checkErr, err)
		}
	}

	return checkErr
}

func newPageReport(r validator.Report) pageReport {
	pr := pageReport{Name: r.Page, Open: r.Satisfied(), Legacy: r.Legacy, Rules: make([]ruleReport, 0, len(r.Results))}
	for _, res := range r.Results {
		rr := ruleReport{
			Rule:    res.Rule.String(),
			Outcome: res.Outcome(),
			Took:    res.Took.Round(time.Millisecond).String(),
		}
		if res.Err != nil {
			rr.Error = res.Err.Error()
		}
		pr.Rules = append(pr.Rules, rr)
	}
	return pr
}
