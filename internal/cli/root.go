// Package cli provides the command-line interface for fluffctl.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harborview-data/fluffctl/internal/cli/commands"
	"github.com/harborview-data/fluffctl/internal/cli/config"
	"github.com/harborview-data/fluffctl/internal/cli/output"
)

var (
	cfgFile string
	envFlag string
	cfg     *config.Config
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// configKey is used to store config in context.
type configKey struct{}

// rendererKey is used to store renderer in context.
type rendererKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fluffctl",
		Short: "fluffctl - SQLFluff harness for dbt projects",
		Long: `fluffctl wraps the SQLFluff linter/formatter for dbt-style SQL projects.

It bootstraps the Python environment SQLFluff runs in, keeps the
.sqlfluff configuration pointed at your dbt project directory, and runs
lint and fix with the pre-formatting passes applied first. All SQL
parsing and rule logic stays inside SQLFluff.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			var err error
			cfg, err = config.LoadConfigWithEnv(cfgFile, envFlag, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)

			logger := config.NewLogger(cfg.Verbose)
			ctx = context.WithValue(ctx, config.LoggerKey(), logger)

			mode := output.Mode(cfg.OutputFormat)
			renderer := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)
			ctx = context.WithValue(ctx, rendererKey{}, renderer)
			cmd.SetContext(ctx)

			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
SQLFluff harness for dbt projects
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./fluffctl.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFlag, "env", "", "Environment overrides to apply (e.g., ci)")
	rootCmd.PersistentFlags().String("project-dir", "", "Project root directory")
	rootCmd.PersistentFlags().String("models-dir", "", "Path to SQL models directory")
	rootCmd.PersistentFlags().String("dbt-dir", "", "Path to the dbt project directory (empty: auto-resolve)")
	rootCmd.PersistentFlags().String("sqlfluff-config", "", "Path to the .sqlfluff configuration file")
	rootCmd.PersistentFlags().String("audit-dir", "", "Directory for formatting audit snapshots")
	rootCmd.PersistentFlags().String("dialect", "", "SQL dialect passed to SQLFluff")
	rootCmd.PersistentFlags().String("python", "", "Base Python interpreter for the venv")
	rootCmd.PersistentFlags().String("venv-dir", "", "Virtual environment directory")
	rootCmd.PersistentFlags().String("requirements", "", "Pinned requirements file")
	rootCmd.PersistentFlags().Int("jobs", 0, "Maximum files formatted concurrently")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (auto|text|markdown|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "text", "markdown", "json"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("dialect", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"snowflake", "bigquery", "postgres", "duckdb", "ansi"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version, BuildDate, GitCommit))
	rootCmd.AddCommand(commands.NewInitCommand())
	rootCmd.AddCommand(commands.NewSetupCommand())
	rootCmd.AddCommand(commands.NewResolveCommand())
	rootCmd.AddCommand(commands.NewLintCommand())
	rootCmd.AddCommand(commands.NewFixCommand())
	rootCmd.AddCommand(commands.NewDoctorCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return &config.Config{
		ModelsDir:      config.DefaultModelsDir,
		SQLFluffConfig: config.DefaultSQLFluffConfig,
		AuditDir:       config.DefaultAuditDir,
		Dialect:        config.DefaultDialect,
		Templater:      config.DefaultTemplater,
		VenvDir:        config.DefaultVenvDir,
		Requirements:   config.DefaultRequirements,
		Jobs:           config.DefaultJobs,
		OutputFormat:   config.DefaultOutput,
	}
}

// GetRenderer retrieves the renderer from the command context.
func GetRenderer(ctx context.Context) *output.Renderer {
	if r, ok := ctx.Value(rendererKey{}).(*output.Renderer); ok {
		return r
	}
	return output.NewRenderer(os.Stdout, os.Stderr, output.ModeAuto)
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for fluffctl.

To load completions:

Bash:
  $ source <(fluffctl completion bash)

Zsh:
  $ fluffctl completion zsh > "${fpath[1]}/_fluffctl"

Fish:
  $ fluffctl completion fish | source

PowerShell:
  PS> fluffctl completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
