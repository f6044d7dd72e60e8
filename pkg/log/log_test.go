package log_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/draftkit/pkg/log"
)

func TestCreateHandlerWithStrings(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		check  func(t *testing.T, out string)
		format string
	}{
		"text": {
			format: "text",
			check: func(t *testing.T, out string) {
				t.Helper()
				assert.Contains(t, out, "WARN")
				assert.Contains(t, out, "layout=L1")
			},
		},
		"logfmt": {
			format: "logfmt",
			check: func(t *testing.T, out string) {
				t.Helper()
				assert.Contains(t, out, "level=warn")
				assert.Contains(t, out, "layout=L1")
			},
		},
		"json": {
			format: "json",
			check: func(t *testing.T, out string) {
				t.Helper()
				var m map[string]any
				require.NoError(t, json.Unmarshal([]byte(out), &m))
				assert.Equal(t, "WARN", m["level"])
				assert.Equal(t, "L1", m["layout"])
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			h, err := log.CreateHandlerWithStrings(&buf, "warn", tc.format)
			require.NoError(t, err)

			logger := slog.New(h)
			logger.Info("hidden")
			logger.Warn("plot failed", slog.String("layout", "L1"))

			assert.NotContains(t, buf.String(), "hidden")
			tc.check(t, buf.String())
		})
	}
}

func TestCreateHandlerErrors(t *testing.T) {
	t.Parallel()

	_, err := log.CreateHandlerWithStrings(&bytes.Buffer{}, "loud", "text")
	require.ErrorIs(t, err, log.ErrInvalidLevel)

	_, err = log.CreateHandlerWithStrings(&bytes.Buffer{}, "info", "xml")
	require.ErrorIs(t, err, log.ErrInvalidFormat)
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tcs := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
	}

	for in, want := range tcs {
		got, err := log.ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
