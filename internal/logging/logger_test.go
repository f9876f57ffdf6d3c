package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		opts      Options
		wantLevel zapcore.Level
	}{
		{name: "development", opts: Options{Development: true}, wantLevel: zapcore.DebugLevel},
		{name: "production", opts: Options{}, wantLevel: zapcore.InfoLevel},
		{name: "explicit level", opts: Options{Level: "warn"}, wantLevel: zapcore.WarnLevel},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			logger, err := New(tc.opts)
			require.NoError(t, err)
			require.True(t, logger.Core().Enabled(tc.wantLevel))
			require.False(t, logger.Core().Enabled(tc.wantLevel-1))
		})
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	t.Parallel()

	_, err := New(Options{Level: "loud"})
	require.ErrorContains(t, err, "parse log level")
}
