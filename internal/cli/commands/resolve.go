package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/harborview-data/fluffctl/internal/cli/output"
	"github.com/harborview-data/fluffctl/internal/project"
)

// ResolveOptions holds options for the resolve command.
type ResolveOptions struct {
	DryRun bool
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand() *cobra.Command {
	opts := &ResolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Point the SQLFluff config at the dbt project directory",
		Long: `Locate the dbt project directory and rewrite the project_dir line in
the .sqlfluff configuration to reference it.

Without --dbt-dir the project tree is searched for a directory named
"dbt"; the shallowest match wins. The config file is rewritten line by
line, so comments and every other setting survive untouched. A config
with no project_dir line is an error.`,
		Example: `  # Auto-locate dbt/ and patch .sqlfluff
  fluffctl resolve

  # Use an explicit directory
  fluffctl resolve --dbt-dir infra/dbt

  # Show what would change without writing
  fluffctl resolve --dry-run`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResolve(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Report the resolved directory without patching the config")

	return cmd
}

// ResolveOutput is the JSON output for the resolve command.
type ResolveOutput struct {
	DBTDir     string `json:"dbt_dir"`
	ConfigPath string `json:"config_path"`
	OldValue   string `json:"old_value"`
	NewValue   string `json:"new_value"`
	Changed    bool   `json:"changed"`
	DryRun     bool   `json:"dry_run,omitempty"`
}

func runResolve(cmd *cobra.Command, opts *ResolveOptions) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer

	dbtDir := cfg.DBTDir
	if dbtDir == "" {
		found, err := project.FindDBTDir(cfg.ProjectRoot)
		if err != nil {
			return err
		}
		dbtDir = found
		cmdCtx.Logger.Debug("located dbt directory", "dir", dbtDir)
	}

	if info, err := os.Stat(dbtDir); err != nil || !info.IsDir() {
		return fmt.Errorf("dbt directory does not exist: %s", dbtDir)
	}

	// SQLFluff resolves project_dir relative to the config file.
	configDir := filepath.Dir(cfg.SQLFluffConfig)
	rel, err := project.RelativeTo(configDir, dbtDir)
	if err != nil {
		return err
	}

	out := &ResolveOutput{
		DBTDir:     dbtDir,
		ConfigPath: cfg.SQLFluffConfig,
		NewValue:   rel,
		DryRun:     opts.DryRun,
	}

	if opts.DryRun {
		settings, err := project.ReadSettings(cfg.SQLFluffConfig)
		if err != nil {
			return err
		}
		out.OldValue = settings.ProjectDir
		out.Changed = settings.ProjectDir != rel
	} else {
		res, err := project.PatchProjectDir(cfg.SQLFluffConfig, rel)
		if err != nil {
			return err
		}
		out.OldValue = res.OldValue
		out.Changed = res.Changed
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}

	r.StatusLine("dbt dir", "success", dbtDir)
	switch {
	case opts.DryRun && out.Changed:
		r.StatusLine("project_dir", "warn", fmt.Sprintf("%q would become %q (dry run)", out.OldValue, out.NewValue))
	case opts.DryRun:
		r.StatusLine("project_dir", "success", fmt.Sprintf("already %q", out.NewValue))
	case out.Changed:
		r.StatusLine("project_dir", "success", fmt.Sprintf("%q -> %q", out.OldValue, out.NewValue))
	default:
		r.StatusLine("project_dir", "success", fmt.Sprintf("already %q", out.NewValue))
	}
	return nil
}
