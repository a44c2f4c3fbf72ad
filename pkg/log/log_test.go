package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextLogger(t *testing.T) {
	ctx := context.Background()

	l1 := Ctx(ctx)
	require.NotNil(t, l1)
	assert.Equal(t, defaultLogger, l1, "Ctx should fall back to the default logger")

	var buf bytes.Buffer
	custom := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx = With(ctx, custom)
	assert.Equal(t, custom, Ctx(ctx))

	t.Run("WithAttrs", func(t *testing.T) {
		buf.Reset()
		actx := WithAttrs(ctx, slog.String("requestID", "abc"))
		Ctx(actx).InfoContext(actx, "hello")

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "hello", rec["msg"])
		assert.Equal(t, "abc", rec["requestID"])
	})
}
