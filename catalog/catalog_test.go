package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafana/pageid/config"
	"github.com/grafana/pageid/surface"
	"github.com/grafana/pageid/validator"
)

const pages = `
pages:
  - name: LoginPage
    locators:
      submit_btn: "#submit"
    validations:
      - kind: url
        pattern: '/login$'
      - kind: title
        pattern: 'Sign in*'
        syntax: glob
      - kind: element_presence
        locator: submit_btn
  - name: HomePage
    legacy_url: '/home$'
  - name: ProfilePage
    validations:
      - kind: url
        pattern: '/users/(?!new)\w+$'
        syntax: regexp2
`

func TestLoadAndDeclare(t *testing.T) {
	t.Parallel()

	c, err := Load(strings.NewReader(pages))
	require.NoError(t, err)
	require.Len(t, c.Pages, 3)

	cfg := config.Default()
	cfg.LegacyFallback = true
	reg := validator.New(cfg)
	require.NoError(t, c.Declare(reg))

	login, ok := reg.Lookup("LoginPage")
	require.True(t, ok)
	rules := login.Rules()
	require.Len(t, rules, 3)
	assert.Equal(t, validator.KindURL, rules[0].Kind)
	assert.Equal(t, validator.KindTitle, rules[1].Kind)
	assert.Equal(t, "submit_btn", rules[2].Locator)

	open, err := login.IsOpen(context.Background(), surface.Static{
		URL: "https://x/login", Title: "Sign in to x", Elements: []string{"#submit"},
	})
	require.NoError(t, err)
	assert.True(t, open)

	home, _ := reg.Lookup("HomePage")
	assert.False(t, home.HasAnyDeclaration())
	open, err = home.IsOpen(context.Background(), surface.Static{URL: "https://x/home"})
	require.NoError(t, err)
	assert.True(t, open)

	name, ok, err := reg.Identify(context.Background(), "https://x/users/jane", "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ProfilePage", name)
	_, ok, err = reg.Identify(context.Background(), "https://x/users/new", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeclareErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		doc   string
		page  string
		index int
		is    error
	}{
		{
			name:  "unknown_kind",
			doc:   "pages: [{name: A, validations: [{kind: url, pattern: a}, {kind: css, locator: b}]}]",
			page:  "A",
			index: 1,
			is:    validator.ErrUnknownRuleKind,
		},
		{
			name:  "missing_pattern",
			doc:   "pages: [{name: A, validations: [{kind: title}]}]",
			page:  "A",
			index: 0,
			is:    validator.ErrInvalidOption,
		},
		{
			name:  "missing_locator",
			doc:   "pages: [{name: A, validations: [{kind: element_presence, pattern: x}]}]",
			page:  "A",
			index: 0,
			is:    validator.ErrInvalidOption,
		},
		{
			name:  "bad_regexp",
			doc:   "pages: [{name: A, validations: [{kind: url, pattern: '('}]}]",
			page:  "A",
			index: 0,
			is:    validator.ErrInvalidOption,
		},
		{
			name:  "unknown_syntax",
			doc:   "pages: [{name: A, validations: [{kind: url, pattern: a, syntax: xpath}]}]",
			page:  "A",
			index: 0,
			is:    validator.ErrInvalidOption,
		},
		{
			name:  "bad_legacy_url",
			doc:   "pages: [{name: A, legacy_url: '['}]",
			page:  "A",
			index: -1,
			is:    validator.ErrConfiguration,
		},
		{
			name:  "no_name",
			doc:   "pages: [{validations: [{kind: url, pattern: a}]}]",
			page:  "#0",
			index: -1,
			is:    ErrNoName,
		},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c, err := Load(strings.NewReader(tc.doc))
			require.NoError(t, err)

			err = c.Declare(validator.New(config.Default()))
			var cerr *Error
			require.True(t, errors.As(err, &cerr), "%v", err)
			assert.Equal(t, tc.page, cerr.Page)
			assert.Equal(t, tc.index, cerr.Index)
			assert.ErrorIs(t, err, tc.is)
			assert.ErrorIs(t, err, validator.ErrConfiguration, "every catalog error is a configuration error")
		})
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	_, err := Load(strings.NewReader("pages: [{name: A, validation: []}]"))
	assert.Error(t, err)

	c, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, c.Pages)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "pages.yaml")
	require.NoError(t, os.WriteFile(path, []byte(pages), 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "LoginPage", c.Pages[0].Name)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
