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
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newIdentifyCmd(a *app) *cobra.Command {
	var url, title string

	cmd := &cobra.Command{
		Use:   "identify",
		Short: "Name the page type a URL and title belong to",
		Long: "Identify matches the url and title validations of every page type " +
			"against the given URL and title. Element validations are not evaluated. " +
			"The exit status is 1 when no page type matches.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if url == "" && title == "" {
				return errors.New("at least one of --url or --title is required")
			}
			name, ok, err := a.registry.Identify(cmd.Context(), url, title)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), red("no page type matches"))
				a.exitCode = 1
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), green(name))
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "page URL")
	cmd.Flags().StringVar(&title, "title", "", "page title")

	return cmd
}
