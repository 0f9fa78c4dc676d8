//go:build unix

package dbt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbtflow/dbtflow/internal/logger"
)

// fakeDBT writes a shell script that appends its first argument to a log
// file and fails when that argument matches failOn.
func fakeDBT(t *testing.T, failOn string) (bin, callLog string) {
	t.Helper()
	dir := t.TempDir()
	callLog = filepath.Join(dir, "calls.log")
	bin = filepath.Join(dir, "dbt")
	script := fmt.Sprintf(`#!/bin/sh
echo "$1" >> %q
if [ "$1" = %q ]; then
  exit 1
fi
exit 0
`, callLog, failOn)
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))
	return bin, callLog
}

func calls(t *testing.T, callLog string) []string {
	t.Helper()
	raw, err := os.ReadFile(callLog)
	require.NoError(t, err)
	return strings.Fields(string(raw))
}

func TestInvokeRunsCommandsInOrder(t *testing.T) {
	bin, callLog := fakeDBT(t, "")
	projectDir := t.TempDir()
	r := NewRunner(bin, projectDir, projectDir, logger.Nop())

	results := r.Invoke(context.Background(), []string{"deps", "seed", "run", "test"})
	require.Len(t, results, 4)
	require.Equal(t, 0, results.Failed())
	require.Equal(t, []string{"deps", "seed", "run", "test"}, calls(t, callLog))
}

func TestInvokeContinuesPastFailure(t *testing.T) {
	bin, callLog := fakeDBT(t, "seed")
	projectDir := t.TempDir()
	r := NewRunner(bin, projectDir, projectDir, logger.Nop())

	results := r.Invoke(context.Background(), []string{"deps", "seed", "run"})
	require.Len(t, results, 3)
	require.NoError(t, results[0].Err)
	require.Error(t, results[1].Err)
	require.NoError(t, results[2].Err)
	require.Equal(t, 1, results.Failed())

	// The failing command did not stop the sequence
	require.Equal(t, []string{"deps", "seed", "run"}, calls(t, callLog))
}

func TestInvokeSplitsCommandArguments(t *testing.T) {
	dir := t.TempDir()
	callLog := filepath.Join(dir, "calls.log")
	bin := filepath.Join(dir, "dbt")
	script := fmt.Sprintf("#!/bin/sh\necho \"$@\" >> %q\nexit 0\n", callLog)
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))

	projectDir := t.TempDir()
	r := NewRunner(bin, projectDir, projectDir, logger.Nop())
	results := r.Invoke(context.Background(), []string{"run --select staging"})
	require.Equal(t, 0, results.Failed())

	raw, err := os.ReadFile(callLog)
	require.NoError(t, err)
	line := strings.TrimSpace(string(raw))
	require.True(t, strings.HasPrefix(line, "run --select staging "), "got %q", line)
	require.Contains(t, line, "--project-dir "+projectDir)
	require.Contains(t, line, "--profiles-dir "+projectDir)
}

func TestInvokeRecordsUnparsableCommand(t *testing.T) {
	bin, callLog := fakeDBT(t, "")
	projectDir := t.TempDir()
	r := NewRunner(bin, projectDir, projectDir, logger.Nop())

	results := r.Invoke(context.Background(), []string{"run 'unterminated", "test"})
	require.Len(t, results, 2)
	require.Error(t, results[0].Err)
	require.NoError(t, results[1].Err)

	// Only the parsable command reached the binary
	require.Equal(t, []string{"test"}, calls(t, callLog))
}

func TestInvokeStopsOnCancelledContext(t *testing.T) {
	bin, _ := fakeDBT(t, "")
	projectDir := t.TempDir()
	r := NewRunner(bin, projectDir, projectDir, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := r.Invoke(ctx, []string{"deps", "seed"})
	require.Empty(t, results)
}

func TestNewRunnerDefaultsBin(t *testing.T) {
	r := NewRunner("", "/p", "/c", logger.Nop())
	require.Equal(t, "dbt", r.Bin)
}
