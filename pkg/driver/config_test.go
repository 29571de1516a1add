package driver_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WebSims/jstrace/pkg/driver"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jstrace.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := driver.Default()
	assert.Equal(t, 10000, cfg.Limits.MaxSteps)
	assert.Equal(t, 128, cfg.Limits.MaxCallDepth)
	assert.Nil(t, cfg.Policy.ImplicitGlobalDeclare)
	assert.Empty(t, cfg.Storage.Path)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
limits:
  max_steps: 500
  max_call_depth: 16
policy:
  implicit_global_declare: false
storage:
  path: /var/lib/jstrace/traces.db
`)
	cfg, err := driver.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Limits.MaxSteps)
	assert.Equal(t, 16, cfg.Limits.MaxCallDepth)
	require.NotNil(t, cfg.Policy.ImplicitGlobalDeclare)
	assert.False(t, *cfg.Policy.ImplicitGlobalDeclare)
	assert.Equal(t, "/var/lib/jstrace/traces.db", cfg.Storage.Path)
}

func TestLoadPartialConfigKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
limits:
  max_steps: 42
`)
	cfg, err := driver.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Limits.MaxSteps)
	assert.Equal(t, driver.Default().Limits.MaxCallDepth, cfg.Limits.MaxCallDepth)
	assert.Nil(t, cfg.Policy.ImplicitGlobalDeclare)
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := writeConfig(t, "limits: [not a map")
	_, err := driver.Load(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := driver.Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)
}

func TestLoadNonPositiveLimitsFallBack(t *testing.T) {
	path := writeConfig(t, `
limits:
  max_steps: -1
  max_call_depth: 0
`)
	cfg, err := driver.Load(path)
	require.NoError(t, err)
	assert.Equal(t, driver.Default().Limits, cfg.Limits)
}

func TestOptionsTranslation(t *testing.T) {
	cfg := driver.Default()
	opts := cfg.Options()
	assert.Equal(t, 10000, opts.MaxSteps)
	assert.Equal(t, 128, opts.MaxCallDepth)
	assert.True(t, opts.ImplicitGlobalDeclare, "unset policy defaults to sloppy mode")

	off := false
	cfg.Policy.ImplicitGlobalDeclare = &off
	assert.False(t, cfg.Options().ImplicitGlobalDeclare)
}
