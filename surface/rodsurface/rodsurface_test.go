package rodsurface

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafana/pageid/pattern"
	"github.com/grafana/pageid/surface"
)

type fakePage struct {
	mu      sync.Mutex
	values  map[string]string
	present map[string]bool
	err     error
}

func (f *fakePage) eval(_ context.Context, js string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.values[js], nil
}

func (f *fakePage) has(_ context.Context, selector string) (bool, any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, nil, f.err
	}
	return f.present[selector], selector, nil
}

func (f *fakePage) set(js, v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[js] = v
}

func TestSurface(t *testing.T) {
	t.Parallel()

	fp := &fakePage{
		values: map[string]string{
			`() => location.href`:  "https://x/login",
			`() => document.title`: "Sign in",
		},
		present: map[string]bool{"#submit": true},
	}
	s := &Surface{page: fp, pollInterval: 5 * time.Millisecond}
	ctx := context.Background()

	url, err := s.CurrentURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://x/login", url)
	title, err := s.CurrentTitle(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Sign in", title)

	_, err = s.FindElement(ctx, "#submit")
	require.NoError(t, err)
	fctx, fcancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer fcancel()
	_, err = s.FindElement(fctx, "#nope")
	assert.ErrorIs(t, err, surface.ErrElementNotFound)

	go func() {
		time.Sleep(15 * time.Millisecond)
		fp.set(`() => document.title`, "Dashboard")
	}()
	ok, err := s.WaitForTitle(ctx, pattern.MustParse(pattern.SyntaxRegexp, "^Dash"))
	require.NoError(t, err)
	assert.True(t, ok)

	boom := errors.New("target closed")
	fp.mu.Lock()
	fp.err = boom
	fp.mu.Unlock()
	_, err = s.WaitForURL(ctx, pattern.MustParse(pattern.SyntaxRegexp, "x"))
	assert.ErrorIs(t, err, boom)
	_, err = s.FindElement(ctx, "#submit")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, surface.ErrElementNotFound)
}

func TestFindElementWaits(t *testing.T) {
	t.Parallel()

	fp := &fakePage{values: map[string]string{}, present: map[string]bool{}}
	s := &Surface{page: fp, pollInterval: 5 * time.Millisecond}

	go func() {
		time.Sleep(15 * time.Millisecond)
		fp.mu.Lock()
		fp.present["#late"] = true
		fp.mu.Unlock()
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	el, err := s.FindElement(ctx, "#late")
	require.NoError(t, err)
	assert.Equal(t, "#late", el)

	cctx, ccancel := context.WithCancel(context.Background())
	ccancel()
	_, err = s.FindElement(cctx, "#never")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, surface.ErrElementNotFound)
}

// Set PAGEID_TEST_CONTROL_URL to a browser's DevTools websocket URL to run
// against a real page.
func TestConnect(t *testing.T) {
	t.Parallel()

	controlURL := os.Getenv("PAGEID_TEST_CONTROL_URL")
	if controlURL == "" {
		t.Skip("PAGEID_TEST_CONTROL_URL is not set")
	}

	s, b, err := Connect(controlURL, 50*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, b)

	_, err = s.CurrentURL(context.Background())
	assert.NoError(t, err)
}
