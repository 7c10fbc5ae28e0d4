// Package config provides configuration management for the fluffctl CLI.
//
// Settings come from four layers with increasing precedence: built-in
// defaults, the fluffctl.yaml project file, FLUFFCTL_* environment
// variables, and command-line flags.
package config

// Config holds all CLI configuration options.
type Config struct {
	// ProjectRoot is the directory all relative paths resolve against.
	// It is inferred at load time and never read from the file itself.
	ProjectRoot string `koanf:"-"`

	ModelsDir      string `koanf:"models_dir"`
	DBTDir         string `koanf:"dbt_dir"` // empty means auto-resolve
	SQLFluffConfig string `koanf:"sqlfluff_config"`
	AuditDir       string `koanf:"audit_dir"`
	Dialect        string `koanf:"dialect"`
	Templater      string `koanf:"templater"`

	Python       string `koanf:"python"` // base interpreter, empty = auto
	VenvDir      string `koanf:"venv_dir"`
	Requirements string `koanf:"requirements"`
	SQLFluffBin  string `koanf:"sqlfluff_bin"` // empty = resolve inside venv

	Jobs         int    `koanf:"jobs"`
	Verbose      bool   `koanf:"verbose"`
	OutputFormat string `koanf:"output"`

	Lint         *LintConfig          `koanf:"lint"`
	Environments map[string]EnvConfig `koanf:"environments"`
}

// LintConfig narrows which SQLFluff rules run.
type LintConfig struct {
	// Rules restricts linting to these rule codes when non-empty.
	Rules []string `koanf:"rules"`
	// Excluded rule codes are passed to SQLFluff as --exclude-rules.
	Excluded []string `koanf:"excluded"`
}

// EnvConfig holds environment-specific overrides.
type EnvConfig struct {
	ModelsDir      string `koanf:"models_dir"`
	DBTDir         string `koanf:"dbt_dir"`
	SQLFluffConfig string `koanf:"sqlfluff_config"`
	Dialect        string `koanf:"dialect"`
}

// Default configuration values.
const (
	DefaultModelsDir      = "models"
	DefaultSQLFluffConfig = ".sqlfluff"
	DefaultAuditDir       = ".fluffctl/audit"
	DefaultDialect        = "snowflake"
	DefaultTemplater      = "dbt"
	DefaultVenvDir        = ".venv"
	DefaultRequirements   = "requirements.txt"
	DefaultJobs           = 4
	DefaultOutput         = "auto" // TTY=text, non-TTY=markdown
)
