package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "fluffctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgFile := writeYAML(t, dir, "")

	cfg, err := LoadConfig(cfgFile, nil)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(dir, DefaultModelsDir), cfg.ModelsDir)
	assert.Equal(t, filepath.Join(dir, DefaultSQLFluffConfig), cfg.SQLFluffConfig)
	assert.Equal(t, DefaultDialect, cfg.Dialect)
	assert.Equal(t, DefaultTemplater, cfg.Templater)
	assert.Equal(t, DefaultJobs, cfg.Jobs)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Empty(t, cfg.DBTDir)
}

func TestLoadConfigFromFile(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgFile := writeYAML(t, dir, `
models_dir: sql/models
dialect: bigquery
jobs: 2
lint:
  excluded:
    - L031
    - L034
`)

	cfg, err := LoadConfig(cfgFile, nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "sql", "models"), cfg.ModelsDir)
	assert.Equal(t, "bigquery", cfg.Dialect)
	assert.Equal(t, 2, cfg.Jobs)
	require.NotNil(t, cfg.Lint)
	assert.Equal(t, []string{"L031", "L034"}, cfg.Lint.Excluded)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgFile := writeYAML(t, dir, "dialect: bigquery\n")

	t.Setenv("FLUFFCTL_DIALECT", "postgres")

	cfg, err := LoadConfig(cfgFile, nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Dialect)
}

func TestLoadConfigFlagsOverrideEnv(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgFile := writeYAML(t, dir, "dialect: bigquery\n")

	t.Setenv("FLUFFCTL_DIALECT", "postgres")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("dialect", "", "")
	require.NoError(t, flags.Parse([]string{"--dialect", "duckdb"}))

	cfg, err := LoadConfig(cfgFile, flags)
	require.NoError(t, err)
	assert.Equal(t, "duckdb", cfg.Dialect)
}

func TestLoadConfigUnsetFlagIgnored(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgFile := writeYAML(t, dir, "dialect: bigquery\n")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("dialect", "ansi", "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := LoadConfig(cfgFile, flags)
	require.NoError(t, err)
	assert.Equal(t, "bigquery", cfg.Dialect, "flag default must not override config file")
}

func TestLoadConfigEnvironmentOverride(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgFile := writeYAML(t, dir, `
dialect: snowflake
environments:
  ci:
    dialect: ansi
    models_dir: ci_models
`)

	cfg, err := LoadConfigWithEnv(cfgFile, "ci", nil)
	require.NoError(t, err)
	assert.Equal(t, "ansi", cfg.Dialect)
	assert.Equal(t, filepath.Join(dir, "ci_models"), cfg.ModelsDir)
}

func TestLoadConfigJobsFloor(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgFile := writeYAML(t, dir, "jobs: 0\n")

	cfg, err := LoadConfig(cfgFile, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Jobs)
}

func TestValidate(t *testing.T) {
	cfg := &Config{ModelsDir: "models", OutputFormat: "auto"}
	assert.NoError(t, cfg.Validate())

	cfg = &Config{OutputFormat: "auto"}
	assert.Error(t, cfg.Validate())

	cfg = &Config{ModelsDir: "models", OutputFormat: "yaml"}
	assert.Error(t, cfg.Validate())
}

func TestValidateModelsDir(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{ModelsDir: dir}
	assert.NoError(t, cfg.ValidateModelsDir())

	cfg = &Config{ModelsDir: filepath.Join(dir, "missing")}
	assert.Error(t, cfg.ValidateModelsDir())
}
