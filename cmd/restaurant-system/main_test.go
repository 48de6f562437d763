//go:build unix

package main

import (
	"bytes"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-shm/internal/domain"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestStoreLifecycleCommands(t *testing.T) {
	t.Setenv("RESTAURANT_STORE_DIR", t.TempDir())
	t.Setenv("RESTAURANT_STORE_NAME", "cli_test")

	_, err := execute(t, "stats")
	require.Error(t, err, "stats before init")

	_, err = execute(t, "init", "--log-level", "error")
	require.NoError(t, err)

	out, err := execute(t, "stats")
	require.NoError(t, err)
	var view domain.StatsView
	require.NoError(t, sonic.UnmarshalString(out, &view))
	assert.Zero(t, view.TotalCreated)

	_, err = execute(t, "clear")
	require.NoError(t, err)
	_, err = execute(t, "destroy")
	require.NoError(t, err)

	_, err = execute(t, "stats")
	assert.Error(t, err)
}

func TestAgentRejectsBadID(t *testing.T) {
	_, err := execute(t, "producer", "--id", "11")
	assert.ErrorContains(t, err, "between 1 and 10")
}

func TestForwardArgs(t *testing.T) {
	defer func(c, l string) { cfgFile, logLevel = c, l }(cfgFile, logLevel)

	cfgFile, logLevel = "", ""
	assert.Empty(t, forwardArgs())

	cfgFile, logLevel = "/etc/restaurant.yaml", "debug"
	assert.Equal(t, []string{"--config", "/etc/restaurant.yaml", "--log-level", "debug"}, forwardArgs())
}
