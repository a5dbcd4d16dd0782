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
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/grafana/pageid/validator"
)

var (
	bold   = color.New(color.Bold).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

func outcomeColor(outcome string) string {
	switch outcome {
	case "pass":
		return green(outcome)
	case "timeout":
		return yellow(outcome)
	default:
		return red(outcome)
	}
}

func printPage(w io.Writer, p *validator.PageType) {
	rules := p.Rules()
	if len(rules) == 0 {
		fmt.Fprintf(w, "%s %s\n", bold(p.Name()), faint("(no validations)"))
	} else {
		fmt.Fprintln(w, bold(p.Name()))
	}
	for _, r := range rules {
		line := "  " + r.String()
		if sel, ok := p.LocatorFor(r.Locator); ok && r.Kind == validator.KindElementPresence {
			line += faint(" -> " + sel)
		}
		fmt.Fprintln(w, line)
	}
	if legacy := p.LegacyURL(); legacy != nil {
		fmt.Fprintf(w, "  %s %s\n", faint("legacy url =~"), legacy)
	}
}

func printReport(w io.Writer, rep validator.Report) {
	state := red("closed")
	if rep.Satisfied() {
		state = green("open")
	}
	legacy := ""
	if rep.Legacy {
		legacy = yellow(" (legacy url)")
	}
	fmt.Fprintf(w, "%s %s%s\n", bold(rep.Page), state, legacy)
	for _, res := range rep.Results {
		fmt.Fprintf(w, "  %-7s %s %s\n", outcomeColor(res.Outcome()), res.Rule, faint(res.Took.Round(time.Millisecond)))
	}
}
