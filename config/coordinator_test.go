package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfigPath(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "health.yml")
	require.NoError(t, os.WriteFile(path, []byte("health:\n  enabled: true\n"), 0o644))
	return path
}

func TestCoordinator_RegistersMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCoordinator(testConfigPath(t), reg, nil)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestCoordinator_ReloadNotifiesSubscribers(t *testing.T) {
	c := NewCoordinator(testConfigPath(t), prometheus.NewRegistry(), nil)

	called := false
	c.Subscribe(func(cfg *Config) error {
		called = true
		assert.True(t, cfg.Health.Enabled)
		return nil
	})

	require.NoError(t, c.Reload())
	assert.True(t, called)
	assert.NotNil(t, c.Config())
}

func TestCoordinator_ReloadFailsWhenSubscriberFails(t *testing.T) {
	c := NewCoordinator(testConfigPath(t), prometheus.NewRegistry(), nil)

	c.Subscribe(func(*Config) error {
		return errors.New("subscriber rejected config")
	})

	err := c.Reload()
	require.Error(t, err)
	assert.Equal(t, "subscriber rejected config", err.Error())
}

func TestCoordinator_ReloadFailsOnMissingFile(t *testing.T) {
	c := NewCoordinator(filepath.Join(t.TempDir(), "missing.yml"), prometheus.NewRegistry(), nil)
	assert.Error(t, c.Reload())
}
