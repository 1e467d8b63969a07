package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig creates a console-only config with its own data directory.
func writeConfig(t *testing.T) (path, dataDir string) {
	t.Helper()
	dir := t.TempDir()
	dataDir = filepath.Join(dir, "data")
	path = filepath.Join(dir, "config.yaml")

	content := fmt.Sprintf(`checkin:
  duration_between_checkins: 7d
  output_retry_delay: 24h
  outputs:
    - type: console
      config: {}
recipient:
  max_time_since_last_checkin: 14d
  output_retry_delay: 24h
  last_signal_outputs:
    - type: console
      config: {}
app:
  data_directory: %q
`, dataDir)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path, dataDir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	a := New()
	var out, errOut, console bytes.Buffer
	a.console = &console
	a.rootCmd.SetOut(&out)
	a.rootCmd.SetErr(&errOut)
	a.rootCmd.SetArgs(args)
	err := a.Execute()
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	a := New()
	names := make([]string, 0)
	for _, c := range a.rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"run", "checkin", "status", "test", "whoop-auth", "version"})

	assert.NotNil(t, a.rootCmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, a.rootCmd.PersistentFlags().Lookup("verbose"))
}

func TestCheckinCmd_RecordsCheckin(t *testing.T) {
	cfgPath, dataDir := writeConfig(t)

	out, err := execute(t, "--config", cfgPath, "checkin")
	require.NoError(t, err)
	assert.Contains(t, out, "Check-in recorded at")

	raw, err := os.ReadFile(filepath.Join(dataDir, "state.json"))
	require.NoError(t, err)
	var st map[string]any
	require.NoError(t, json.Unmarshal(raw, &st))
	assert.NotNil(t, st["last_checkin"])
}

func TestCheckinCmd_MissingConfig(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "checkin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestStatusCmd_JSON(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	_, err := execute(t, "-c", cfgPath, "checkin")
	require.NoError(t, err)

	out, err := execute(t, "-c", cfgPath, "status", "--json")
	require.NoError(t, err)

	var st map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, "idle", st["phase"])
	assert.Equal(t, false, st["would_request_checkin"])
	assert.Equal(t, float64(1), st["checkin_channels"])
	assert.Equal(t, float64(1), st["recipients"])
}

func TestStatusCmd_Plain(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	out, err := execute(t, "-c", cfgPath, "status")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.NotContains(t, out, "\x1b[")
}

func TestStatusCmd_WatchRequiresTerminal(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	_, err := execute(t, "-c", cfgPath, "status", "--watch")
	assert.ErrorContains(t, err, "requires a terminal")

	_, err = execute(t, "-c", cfgPath, "status", "--watch", "--json")
	assert.ErrorContains(t, err, "cannot be combined")
}

func TestTestCmd_AllHealthy(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	out, err := execute(t, "-c", cfgPath, "test")
	require.NoError(t, err)
	assert.Contains(t, out, "All 2 output(s) healthy")
}

func TestTestCmd_ReportsUnhealthy(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	raw, err := os.ReadFile(cfgPath)
	require.NoError(t, err)

	// Swap the recipient console for a webhook with an unsupported scheme
	broken := bytes.Replace(raw, []byte(`  last_signal_outputs:
    - type: console
      config: {}`), []byte(`  last_signal_outputs:
    - type: webhook
      config:
        url: "ftp://example.invalid/hook"`), 1)
	require.NoError(t, os.WriteFile(cfgPath, broken, 0600))

	out, err := execute(t, "-c", cfgPath, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 output(s) unhealthy")
	assert.Contains(t, out, "webhook")
}

func TestWhoopAuthCmd_RequiresCredentials(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	_, err := execute(t, "-c", cfgPath, "whoop-auth")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client-id")
}
