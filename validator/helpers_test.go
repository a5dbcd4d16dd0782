package validator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/grafana/pageid/config"
	"github.com/grafana/pageid/log"
	"github.com/grafana/pageid/pattern"
	"github.com/grafana/pageid/surface"
)

// fakeSurface is a mutable page. Waits either answer immediately or, with
// block set, hold until ctx is done when the pattern does not match.
type fakeSurface struct {
	mu       sync.Mutex
	url      string
	title    string
	elements map[string]bool
	findErr  error
	block    bool
	found    []string
}

func newFakeSurface(url, title string, elements ...string) *fakeSurface {
	s := &fakeSurface{url: url, title: title, elements: make(map[string]bool)}
	for _, e := range elements {
		s.elements[e] = true
	}
	return s
}

func (s *fakeSurface) CurrentURL(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url, nil
}

func (s *fakeSurface) CurrentTitle(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title, nil
}

func (s *fakeSurface) FindElement(_ context.Context, locator string) (surface.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.found = append(s.found, locator)
	if s.findErr != nil {
		return nil, s.findErr
	}
	if !s.elements[locator] {
		return nil, fmt.Errorf("%w: %q", surface.ErrElementNotFound, locator)
	}
	return locator, nil
}

func (s *fakeSurface) WaitForURL(ctx context.Context, p pattern.Pattern) (bool, error) {
	return s.wait(ctx, p, func() string { return s.url })
}

func (s *fakeSurface) WaitForTitle(ctx context.Context, p pattern.Pattern) (bool, error) {
	return s.wait(ctx, p, func() string { return s.title })
}

func (s *fakeSurface) wait(ctx context.Context, p pattern.Pattern, read func() string) (bool, error) {
	s.mu.Lock()
	ok, block := p.MatchString(read()), s.block
	s.mu.Unlock()
	if ok || !block {
		return ok, nil
	}
	<-ctx.Done()
	return false, ctx.Err()
}

func (s *fakeSurface) lookups() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.found...)
}

func re(expr string) pattern.Pattern {
	return pattern.MustParse(pattern.SyntaxRegexp, expr)
}

func testConfig() config.Config {
	c := config.Default()
	c.Timeout = 50 * time.Millisecond
	c.PollInterval = 5 * time.Millisecond
	return c
}

func newTestRegistry(t *testing.T, modify func(*config.Config), opts ...Option) (*Registry, *logtest.Hook) {
	t.Helper()

	cfg := testConfig()
	if modify != nil {
		modify(&cfg)
	}
	lg, hook := logtest.NewNullLogger()
	lg.SetLevel(logrus.DebugLevel)
	opts = append([]Option{WithLogger(log.New(lg, nil))}, opts...)

	return New(cfg, opts...), hook
}

func entriesAt(hook *logtest.Hook, level logrus.Level) []*logrus.Entry {
	var es []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == level {
			es = append(es, e)
		}
	}
	return es
}
