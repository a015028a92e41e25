package logger

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFormatsLine(t *testing.T) {
	var buf bytes.Buffer
	l := New("debug", &buf)
	l.Warnf("hello %s", "world")

	line := buf.String()
	assert.Contains(t, line, "[WARN]")
	assert.Contains(t, line, "logger_test.go:")
	assert.Contains(t, line, "hello world\n")
}

func TestFieldsAreSorted(t *testing.T) {
	var buf bytes.Buffer
	l := New("info", &buf)
	for i := 0; i < 5; i++ {
		l.WithFields(logrus.Fields{"zeta": 1, "alpha": 2, "mid": 3}).Info("fields")
	}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.True(t, strings.HasSuffix(line, "fields alpha=2 mid=3 zeta=1"), line)
	}
}

func TestNewFallsBackToInfo(t *testing.T) {
	l := New("not-a-level", &bytes.Buffer{})
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
}

func TestInitLoggerCreatesDirectory(t *testing.T) {
	old := Log
	t.Cleanup(func() { Log = old })

	path := filepath.Join(t.TempDir(), "logs", "review.log")
	require.NoError(t, InitLogger("info", path))
	assert.FileExists(t, path)
}

func TestOr(t *testing.T) {
	assert.Same(t, Log, Or(nil))
	l := New("info", &bytes.Buffer{})
	assert.Same(t, l, Or(l))
}
