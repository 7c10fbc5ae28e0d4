package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// maxUpwardSearchLevels limits how far up the directory tree to search
// for a config file.
const maxUpwardSearchLevels = 10

var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

var configFileNames = []string{"fluffctl.yaml", "fluffctl.yml"}

func configExistsIn(dir string) bool {
	for _, name := range configFileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// findProjectRootUpward searches upward from startDir for a fluffctl
// config file. Returns empty string when none is found.
func findProjectRootUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if configExistsIn(dir) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// inferProjectRoot determines the project root. Priority:
//  1. Explicit --project-dir flag
//  2. Directory of an explicit config file
//  3. Upward search from CWD for fluffctl.yaml
//  4. Current working directory
func inferProjectRoot(cfgFile string, flags *pflag.FlagSet) string {
	if flags != nil && flags.Changed("project-dir") {
		if projectDir, _ := flags.GetString("project-dir"); projectDir != "" {
			if abs, err := filepath.Abs(projectDir); err == nil {
				return abs
			}
			return filepath.Clean(projectDir)
		}
	}

	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			return filepath.Dir(abs)
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		if root := findProjectRootUpward(cwd); root != "" {
			return root
		}
	}

	cwd, _ := os.Getwd()
	if cwd == "" {
		cwd = "."
	}
	return cwd
}

func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and
// flags. Precedence (highest to lowest): flags > env vars > config file
// > defaults.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	return LoadConfigWithEnv(cfgFile, "", flags)
}

// LoadConfigWithEnv loads configuration with an optional environment
// override selecting a block from the environments map.
func LoadConfigWithEnv(cfgFile, envOverride string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	projectRoot := inferProjectRoot(cfgFile, flags)

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"models_dir":      DefaultModelsDir,
		"sqlfluff_config": DefaultSQLFluffConfig,
		"audit_dir":       DefaultAuditDir,
		"dialect":         DefaultDialect,
		"templater":       DefaultTemplater,
		"venv_dir":        DefaultVenvDir,
		"requirements":    DefaultRequirements,
		"jobs":            DefaultJobs,
		"verbose":         false,
		"output":          DefaultOutput,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if cfgFile == "" {
		for _, name := range configFileNames {
			candidate := filepath.Join(projectRoot, name)
			if _, err := os.Stat(candidate); err == nil {
				cfgFile = candidate
				break
			}
		}
	}
	configFileUsed = ""
	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			configFileUsed = cfgFile
			if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
			}
		}
	}

	// 3. Environment variables: FLUFFCTL_MODELS_DIR -> models_dir
	if err := k.Load(env.Provider("FLUFFCTL_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "FLUFFCTL_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags, highest priority. Only explicitly set flags are loaded.
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			// --models-dir maps cleanly; --config and --project-dir are
			// handled outside the koanf tree.
			if key == "config" || key == "project_dir" || key == "env" {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.ProjectRoot = projectRoot

	// 6. Environment-specific overrides
	if envOverride != "" && cfg.Environments != nil {
		if envCfg, ok := cfg.Environments[envOverride]; ok {
			if envCfg.ModelsDir != "" {
				cfg.ModelsDir = envCfg.ModelsDir
			}
			if envCfg.DBTDir != "" {
				cfg.DBTDir = envCfg.DBTDir
			}
			if envCfg.SQLFluffConfig != "" {
				cfg.SQLFluffConfig = envCfg.SQLFluffConfig
			}
			if envCfg.Dialect != "" {
				cfg.Dialect = envCfg.Dialect
			}
		}
	}

	// 7. Resolve relative paths against the project root
	cfg.ModelsDir = resolvePathRelativeTo(cfg.ModelsDir, projectRoot)
	cfg.DBTDir = resolvePathRelativeTo(cfg.DBTDir, projectRoot)
	cfg.SQLFluffConfig = resolvePathRelativeTo(cfg.SQLFluffConfig, projectRoot)
	cfg.AuditDir = resolvePathRelativeTo(cfg.AuditDir, projectRoot)
	cfg.VenvDir = resolvePathRelativeTo(cfg.VenvDir, projectRoot)
	cfg.Requirements = resolvePathRelativeTo(cfg.Requirements, projectRoot)

	if cfg.Jobs < 1 {
		cfg.Jobs = 1
	}

	currentConfig = &cfg
	return &cfg, nil
}

// GetConfigFileUsed returns the path of the config file in effect.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the configuration loaded by the last
// LoadConfig call, or nil before any load.
func GetCurrentConfig() *Config {
	return currentConfig
}
