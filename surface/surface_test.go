package surface

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafana/pageid/pattern"
)

func TestPoll(t *testing.T) {
	t.Parallel()

	t.Run("ok/eventually_true", func(t *testing.T) {
		t.Parallel()

		var calls int64
		ok, err := Poll(context.Background(), time.Millisecond, func(context.Context) (bool, error) {
			return atomic.AddInt64(&calls, 1) == 3, nil
		})
		require.NoError(t, err)
		assert.True(t, ok)
		assert.EqualValues(t, 3, atomic.LoadInt64(&calls))
	})
	t.Run("err/deadline", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		ok, err := Poll(ctx, 5*time.Millisecond, func(context.Context) (bool, error) {
			return false, nil
		})
		assert.False(t, ok)
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	})
	t.Run("err/cond_error", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		ok, err := Poll(context.Background(), 0, func(context.Context) (bool, error) {
			return false, boom
		})
		assert.False(t, ok)
		assert.Equal(t, boom, err)
	})
}

func TestWaitForString(t *testing.T) {
	t.Parallel()

	urls := []string{"https://x/", "https://x/loading", "https://x/login"}
	var i int64
	read := func(context.Context) (string, error) {
		n := atomic.AddInt64(&i, 1) - 1
		if int(n) >= len(urls) {
			n = int64(len(urls) - 1)
		}
		return urls[n], nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ok, err := WaitForString(ctx, time.Millisecond, pattern.MustParse(pattern.SyntaxRegexp, `/login$`), read)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStatic(t *testing.T) {
	t.Parallel()

	s := Static{URL: "https://x/login", Title: "Sign in", Elements: []string{"#submit"}}
	ctx := context.Background()

	u, err := s.CurrentURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://x/login", u)

	title, err := s.CurrentTitle(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Sign in", title)

	el, err := s.FindElement(ctx, "#submit")
	require.NoError(t, err)
	assert.Equal(t, "#submit", el)

	_, err = s.FindElement(ctx, "#missing")
	assert.True(t, errors.Is(err, ErrElementNotFound))

	ok, err := s.WaitForURL(ctx, pattern.MustParse(pattern.SyntaxGlob, "*/login"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.WaitForTitle(ctx, pattern.MustParse(pattern.SyntaxRegexp, "^Home"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWaitForElement(t *testing.T) {
	t.Parallel()

	t.Run("ok/eventually_found", func(t *testing.T) {
		t.Parallel()

		var calls int64
		el, err := WaitForElement(context.Background(), time.Millisecond, "#x", func(context.Context) (Element, error) {
			if atomic.AddInt64(&calls, 1) < 3 {
				return nil, ErrElementNotFound
			}
			return "el", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "el", el)
	})
	t.Run("err/deadline", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := WaitForElement(ctx, 5*time.Millisecond, "#x", func(context.Context) (Element, error) {
			return nil, ErrElementNotFound
		})
		assert.True(t, errors.Is(err, ErrElementNotFound))
		assert.Contains(t, err.Error(), `"#x"`)
	})
	t.Run("err/find_error", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		_, err := WaitForElement(context.Background(), 0, "#x", func(context.Context) (Element, error) {
			return nil, boom
		})
		assert.Equal(t, boom, err)
	})
}
