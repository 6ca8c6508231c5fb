package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_ParsesLevelAndFormat(t *testing.T) {
	t.Parallel()

	l, err := New("debug", "console")
	require.NoError(t, err)
	require.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = New("warn", "")
	require.NoError(t, err)
	require.False(t, l.Core().Enabled(zapcore.InfoLevel))
}

func TestNew_RejectsUnknownValues(t *testing.T) {
	t.Parallel()

	_, err := New("loud", "json")
	require.Error(t, err)

	_, err = New("info", "xml")
	require.Error(t, err)
}

func TestOrNop(t *testing.T) {
	t.Parallel()

	require.NotNil(t, OrNop(nil))
}
