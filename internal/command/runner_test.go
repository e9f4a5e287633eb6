package command

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeStub(t *testing.T, name, script string) {
	t.Helper()
	stubDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(stubDir, name), []byte(script), 0o755))
	t.Setenv("PATH", stubDir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestRunnerRun(t *testing.T) {
	t.Run("captures combined output on success", func(t *testing.T) {
		writeStub(t, "stubtool", "#!/bin/sh\necho out-line\necho err-line >&2\nexit 0\n")

		r := NewRunner(nil, nil)
		res := r.Run(context.Background(), "stub invocation", "stubtool", "arg1")

		assert.True(t, res.Success)
		assert.Contains(t, res.Output, "out-line")
		assert.Contains(t, res.Output, "err-line")
		assert.Empty(t, res.Err)
	})

	t.Run("reports failure with output preserved", func(t *testing.T) {
		writeStub(t, "stubtool", "#!/bin/sh\necho boom\nexit 3\n")

		r := NewRunner(nil, nil)
		res := r.Run(context.Background(), "stub failure", "stubtool")

		assert.False(t, res.Success)
		assert.Contains(t, res.Output, "boom")
		assert.NotEmpty(t, res.Err)
	})

	t.Run("times out on hung command", func(t *testing.T) {
		writeStub(t, "stubtool", "#!/bin/sh\nexec sleep 30\n")

		r := NewRunner(nil, nil).WithTimeout(200 * time.Millisecond)
		start := time.Now()
		res := r.Run(context.Background(), "stub hang", "stubtool")

		assert.False(t, res.Success)
		assert.Less(t, time.Since(start), 5*time.Second)
	})

	t.Run("rejects empty argv", func(t *testing.T) {
		r := NewRunner(nil, nil)
		res := r.Run(context.Background(), "nothing")
		assert.False(t, res.Success)
		assert.Equal(t, "empty command", res.Err)
	})
}
