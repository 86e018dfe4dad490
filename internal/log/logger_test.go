package log

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"namescrub/internal/errors"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedUTC = time.Date(2024, time.March, 5, 21, 4, 9, 0, time.UTC)

func TestLineFormat(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(WithOutput(&buf))
	require.NoError(t, err)
	defer l.Close()

	l.WithTime(fixedUTC).Info("Renamed a b.pdf to ab.pdf")

	// Moscow is UTC+3, so 21:04:09 UTC rolls over to 00:04:09.
	assert.Equal(t, "[00:04:09 INFO |namescrub|] Renamed a b.pdf to ab.pdf\n", buf.String())
}

func TestLevelNames(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(WithOutput(&buf), WithLevel(logrus.TraceLevel), WithLocation(time.UTC))
	require.NoError(t, err)

	entry := l.WithTime(fixedUTC)
	entry.Trace("t")
	entry.Debug("d")
	entry.Info("i")
	entry.Warn("w")
	entry.Error("e")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "[21:04:09 TRACE |namescrub|] t", lines[0])
	assert.Equal(t, "[21:04:09 DEBUG |namescrub|] d", lines[1])
	assert.Equal(t, "[21:04:09 INFO |namescrub|] i", lines[2])
	assert.Equal(t, "[21:04:09 WARN |namescrub|] w", lines[3])
	assert.Equal(t, "[21:04:09 ERROR |namescrub|] e", lines[4])
}

func TestDefaultLevelSuppressesTrace(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(WithOutput(&buf))
	require.NoError(t, err)

	l.Trace("Processed 10 files")
	assert.Empty(t, buf.String())

	l.Debug("debug message")
	assert.Contains(t, buf.String(), "DEBUG")
	assert.Contains(t, buf.String(), "debug message")
}

func TestTargetAndFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(WithOutput(&buf), WithLocation(time.UTC), WithTag("renamer"))
	require.NoError(t, err)

	l.WithTime(fixedUTC).Info("plain")
	assert.Equal(t, "[21:04:09 INFO |renamer|] plain\n", buf.String())
	buf.Reset()

	l.WithTime(fixedUTC).WithField(TargetField, "watch").WithField("op", "CREATE").Info("event")
	assert.Equal(t, "[21:04:09 INFO |watch|] event op=CREATE\n", buf.String())
}

func TestFormatterWithoutLocation(t *testing.T) {
	f := &Formatter{}
	out, err := f.Format(&logrus.Entry{
		Time:    fixedUTC,
		Level:   logrus.WarnLevel,
		Message: "careful",
		Data:    logrus.Fields{},
	})
	require.NoError(t, err)
	assert.Equal(t, "[21:04:09 WARN |namescrub|] careful\n", string(out))
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)

	var console bytes.Buffer
	l, err := New(WithOutput(&console), WithFile(path))
	require.NoError(t, err)
	l.Info("first run")
	require.NoError(t, l.Close())

	// A second logger appends rather than truncating.
	l, err = New(WithOutput(&console), WithFile(path))
	require.NoError(t, err)
	l.Info("second run")
	require.NoError(t, l.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "first run")
	assert.Contains(t, string(content), "second run")
	assert.Equal(t, 2, strings.Count(string(content), "\n"))

	assert.Contains(t, console.String(), "first run")
	assert.Contains(t, console.String(), "second run")
}

func TestFileOpenFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", DefaultFile)
	l, err := New(WithOutput(&bytes.Buffer{}), WithFile(path))
	require.Error(t, err)
	assert.Nil(t, l)
	assert.True(t, errors.IsFileNotFound(err))
	assert.Contains(t, err.Error(), "failed to open log file")
}

func TestCloseWithoutFile(t *testing.T) {
	l, err := New(WithOutput(&bytes.Buffer{}))
	require.NoError(t, err)
	assert.NoError(t, l.Close())
	assert.NoError(t, l.Close())
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation(DefaultTimezone)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Moscow", loc.String())

	_, err = LoadLocation("Mars/Olympus_Mons")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidConfig(err))
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]logrus.Level{
		"trace": logrus.TraceLevel,
		"debug": logrus.DebugLevel,
		"info":  logrus.InfoLevel,
		"warn":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
	} {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got)
	}

	_, err := ParseLevel("loud")
	assert.True(t, errors.IsInvalidConfig(err))
}
