// Package commands implements the fluffctl subcommands.
package commands

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/harborview-data/fluffctl/internal/cli/config"
	"github.com/harborview-data/fluffctl/internal/cli/output"
	"github.com/harborview-data/fluffctl/internal/pyenv"
	"github.com/harborview-data/fluffctl/internal/sqlfluff"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext builds the shared dependencies from the command's
// context, set up by the root command's PersistentPreRunE.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// Venv returns the managed virtual environment.
func (c *CommandContext) Venv() *pyenv.Env {
	return &pyenv.Env{
		Python: c.Cfg.Python,
		Dir:    c.Cfg.VenvDir,
		Logger: c.Logger,
	}
}

// Runner returns a SQLFluff runner bound to the venv and config file.
func (c *CommandContext) Runner() *sqlfluff.Runner {
	bin := c.Cfg.SQLFluffBin
	if bin == "" {
		bin = c.Venv().Tool("sqlfluff")
	}
	configPath := ""
	if _, err := os.Stat(c.Cfg.SQLFluffConfig); err == nil {
		configPath = c.Cfg.SQLFluffConfig
	}
	return &sqlfluff.Runner{
		Bin:        bin,
		ConfigPath: configPath,
		Dialect:    c.Cfg.Dialect,
		Logger:     c.Logger,
	}
}

// getConfig returns the loaded configuration, falling back to
// environment variables with defaults when no load has happened (for
// example in direct command tests).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	jobs := config.DefaultJobs
	if v := os.Getenv("FLUFFCTL_JOBS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			jobs = n
		}
	}

	return &config.Config{
		ModelsDir:      getEnvOrDefault("FLUFFCTL_MODELS_DIR", config.DefaultModelsDir),
		DBTDir:         os.Getenv("FLUFFCTL_DBT_DIR"),
		SQLFluffConfig: getEnvOrDefault("FLUFFCTL_SQLFLUFF_CONFIG", config.DefaultSQLFluffConfig),
		AuditDir:       getEnvOrDefault("FLUFFCTL_AUDIT_DIR", config.DefaultAuditDir),
		Dialect:        getEnvOrDefault("FLUFFCTL_DIALECT", config.DefaultDialect),
		Templater:      getEnvOrDefault("FLUFFCTL_TEMPLATER", config.DefaultTemplater),
		Python:         os.Getenv("FLUFFCTL_PYTHON"),
		VenvDir:        getEnvOrDefault("FLUFFCTL_VENV_DIR", config.DefaultVenvDir),
		Requirements:   getEnvOrDefault("FLUFFCTL_REQUIREMENTS", config.DefaultRequirements),
		Jobs:           jobs,
		Verbose:        os.Getenv("FLUFFCTL_VERBOSE") == "true",
		OutputFormat:   getEnvOrDefault("FLUFFCTL_OUTPUT", config.DefaultOutput),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
