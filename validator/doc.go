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

// Package validator is the page identity registry.
//
// Page types declare the conditions under which they are considered
// displayed:
//
//	var reg = validator.New(config.Default())
//
//	var LoginPage = reg.Page("LoginPage").
//		Locator("submit_btn", "button[type=submit]").
//		MustValidate(validator.KindURL, validator.Options{Pattern: pattern.MustParse("", `/login$`)}).
//		MustValidate(validator.KindElementPresence, validator.Options{Locator: "submit_btn"})
//
// and are later asked whether they are open on a live surface:
//
//	ok, err := LoginPage.IsOpen(ctx, srf)
//
// Url and Title declarations are mirrored into an IdentifierRegistry so a
// raw URL and title can be mapped back to a page type without touching the
// browser:
//
//	name, ok, err := reg.Identify(ctx, "https://example.com/login", "")
package validator
