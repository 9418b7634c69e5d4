package clarix

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := defLogOutput
	defLogOutput = &buf
	t.Cleanup(func() { defLogOutput = prev })

	t.Run("renders key value pairs", func(t *testing.T) {
		buf.Reset()

		defLogger{}.Error("sign out failed", "error", errors.New("boom"), "user_id", "abc")

		out := buf.String()
		assert.Contains(t, out, "[ERR] CLARIX sign out failed")
		assert.Contains(t, out, "error=boom")
		assert.Contains(t, out, "user_id=abc")
		assert.NotContains(t, out, "EXTRA")
	})

	t.Run("tolerates a dangling key", func(t *testing.T) {
		buf.Reset()

		defLogger{}.Warn("odd args", "lonely")

		out := buf.String()
		assert.Contains(t, out, "[WRN] CLARIX odd args lonely")
	})

	t.Run("message only", func(t *testing.T) {
		buf.Reset()

		defLogger{}.Info("plain message")

		assert.Equal(t, "[INF] CLARIX plain message\n", buf.String())
	})
}
