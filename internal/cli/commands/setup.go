package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harborview-data/fluffctl/internal/pyenv"
	"github.com/harborview-data/fluffctl/internal/sqlfluff"
)

// SetupOptions holds options for the setup command.
type SetupOptions struct {
	SkipInstall bool // Create the venv but skip pip install
	Recreate    bool // Delete and recreate an existing venv
}

// NewSetupCommand creates the setup command.
func NewSetupCommand() *cobra.Command {
	opts := &SetupOptions{}
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the Python environment SQLFluff runs in",
		Long: `Create an isolated Python virtual environment and install the pinned
SQLFluff toolchain into it.

The base interpreter is resolved from --python, $FLUFFCTL_PYTHON, or
python3/python on PATH, in that order. Running setup again is a cheap
no-op when the environment already exists.`,
		Example: `  # Create the venv and install requirements
  fluffctl setup

  # Use a specific interpreter
  fluffctl setup --python /usr/bin/python3.12

  # Recreate from scratch
  fluffctl setup --recreate`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSetup(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.SkipInstall, "skip-install", false, "Create the venv but skip installing requirements")
	cmd.Flags().BoolVar(&opts.Recreate, "recreate", false, "Delete and recreate an existing venv")

	return cmd
}

func runSetup(cmd *cobra.Command, opts *SetupOptions) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer
	ctx := cmd.Context()

	python, err := pyenv.ResolveInterpreter(cfg.Python)
	if err != nil {
		return err
	}
	r.StatusLine("interpreter", "success", python)

	env := cmdCtx.Venv()
	env.Python = python

	if opts.Recreate && env.Exists() {
		if err := env.Remove(); err != nil {
			return fmt.Errorf("failed to remove existing venv: %w", err)
		}
		r.StatusLine("venv", "info", "removed "+cfg.VenvDir)
	}

	existed := env.Exists()
	if err := env.Create(ctx); err != nil {
		return err
	}
	if existed {
		r.StatusLine("venv", "success", cfg.VenvDir+" (already exists)")
	} else {
		r.StatusLine("venv", "success", cfg.VenvDir)
	}

	if opts.SkipInstall {
		r.Warning("Skipping requirements install (--skip-install)")
		return nil
	}

	if err := env.InstallRequirements(ctx, cfg.Requirements); err != nil {
		if errors.Is(err, pyenv.ErrRequirementsNotFound) {
			return fmt.Errorf("%w\nHint: run 'fluffctl init' to scaffold a pinned requirements.txt", err)
		}
		return err
	}
	r.StatusLine("requirements", "success", cfg.Requirements)

	runner := &sqlfluff.Runner{Bin: env.Tool("sqlfluff"), Logger: cmdCtx.Logger}
	version, err := runner.Version(ctx)
	if err != nil {
		return fmt.Errorf("venv created but sqlfluff is not runnable: %w", err)
	}
	r.StatusLine("sqlfluff", "success", version)

	r.Println("")
	r.Success("Environment ready.")
	return nil
}
