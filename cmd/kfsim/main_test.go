package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/milosgajdos/go-infokf/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())

	return out.String(), err
}

func TestDefaults(t *testing.T) {
	assert := assert.New(t)

	out, err := execute(t, "defaults")
	require.NoError(t, err)

	cfg, err := config.Parse([]byte(out))
	assert.NoError(err)
	assert.Equal(config.Default(), cfg)
}

func TestRun(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "trace.csv")
	plotPath := filepath.Join(dir, "x1.png")
	logPath := filepath.Join(dir, "kfsim.log")

	out, err := execute(t, "run",
		"--steps", "20",
		"--seed", "3",
		"--smooth",
		"--csv", csvPath,
		"--plot", plotPath,
		"--log-file", logPath,
		"--log-level", "debug")
	require.NoError(t, err)

	assert.Contains(out, "ESTIMATE RMSE")
	assert.Contains(out, "SMOOTHED RMSE")
	assert.FileExists(plotPath)
	assert.FileExists(logPath)

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	// header and one row per step
	assert.Len(lines, 21)
	assert.True(strings.HasPrefix(lines[0], "step,x1,x2,z1,z2,x1_est,x2_est,x1_smooth,x2_smooth,trace_p"))

	logs, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(string(logs), "running simulation")
}

func TestRunConfig(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
steps: 15
noise:
  q: [[0.001, 0], [0, 0.001]]
  relaxed: false
filter:
  form: gain
`), 0o644))

	out, err := execute(t, "run", "--config", path)
	assert.NoError(err)
	assert.Contains(out, "MEASUREMENT RMSE")
}

func TestRunGainFewerOutputs(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	csvPath := filepath.Join(dir, "trace.csv")
	require.NoError(t, os.WriteFile(path, []byte(`
steps: 10
model:
  h: [[1, 0]]
noise:
  q: [[0.001, 0], [0, 0.001]]
  relaxed: false
filter:
  form: gain
`), 0o644))

	out, err := execute(t, "run", "--config", path, "--csv", csvPath)
	require.NoError(t, err)
	assert.Contains(out, "ESTIMATE RMSE")

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.True(strings.HasPrefix(string(data), "step,x1,x2,z1,x1_est,x2_est,trace_p"))
}

func TestRunErrors(t *testing.T) {
	assert := assert.New(t)

	_, err := execute(t, "run", "--log-level", "loud")
	assert.Error(err)

	_, err = execute(t, "run", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(err)

	_, err = execute(t, "run", "--steps", "-1")
	assert.Error(err)

	_, err = execute(t, "run", "--plot", filepath.Join(t.TempDir(), "x.png"), "--component", "5")
	assert.Error(err)

	_, err = execute(t, "run", "extra")
	assert.Error(err)
}
