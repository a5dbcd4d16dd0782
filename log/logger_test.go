package log

import (
	"regexp"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerCategoryFilter(t *testing.T) {
	t.Parallel()

	lg, hook := test.NewNullLogger()
	lg.SetLevel(logrus.DebugLevel)
	l := New(lg, regexp.MustCompile("^Registry"))

	l.Debugf("Registry:declare", "page:%q", "LoginPage")
	l.Debugf("cdp", "dropped")
	l.Warnf("Registry:identify", "ambiguous")

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, `page:"LoginPage"`, entries[0].Message)
	assert.Equal(t, "Registry:declare", entries[0].Data["category"])
	assert.Equal(t, logrus.WarnLevel, entries[1].Level)
}

func TestLoggerLevel(t *testing.T) {
	t.Parallel()

	lg, hook := test.NewNullLogger()
	l := New(lg, nil)
	require.NoError(t, l.SetLevel("warn"))
	assert.False(t, l.DebugMode())

	l.Infof("cat", "skipped")
	l.Errorf("cat", "kept")
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, "kept", hook.LastEntry().Message)

	require.NoError(t, l.SetLevel("debug"))
	assert.True(t, l.DebugMode())
	assert.Error(t, l.SetLevel("loud"))
}

func TestLoggerSetCategoryFilter(t *testing.T) {
	t.Parallel()

	lg, hook := test.NewNullLogger()
	l := New(lg, nil)

	require.NoError(t, l.SetCategoryFilter("^cdp"))
	l.Infof("Registry", "dropped")
	l.Infof("cdp:send", "kept")
	require.Len(t, hook.AllEntries(), 1)

	require.NoError(t, l.SetCategoryFilter(""))
	l.Infof("Registry", "kept too")
	assert.Len(t, hook.AllEntries(), 2)

	assert.Error(t, l.SetCategoryFilter("("))
}

func TestNilLogger(t *testing.T) {
	t.Parallel()

	var l *Logger
	assert.NotPanics(t, func() { l.Warnf("cat", "nothing") })
	assert.False(t, l.DebugMode())
	assert.NotPanics(t, func() { NewNullLogger().Errorf("cat", "discarded") })
}
