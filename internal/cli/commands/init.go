package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new fluffctl project",
		Long: `Initialize a new fluffctl project with default configuration.

This creates:
  - fluffctl.yaml configuration file
  - .sqlfluff linter configuration with a dbt templater section
  - requirements.txt pinning SQLFluff and the dbt templater
  - models/ directory with an example staging model

Run 'fluffctl setup' afterwards to create the Python environment.`,
		Example: `  # Initialize in current directory
  fluffctl init

  # Initialize in a new directory
  fluffctl init my-project

  # Force overwrite existing config
  fluffctl init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			cmdCtx := NewCommandContext(cmd)
			return runInit(cmdCtx, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

func runInit(c *CommandContext, dir string, force bool) error {
	r := c.Renderer

	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, "fluffctl.yaml")
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("fluffctl.yaml already exists. Use --force to overwrite")
	}

	if err := copyTemplate("minimal", dir, force); err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	files, _ := listTemplateFiles("minimal")
	for _, f := range files {
		r.StatusLine(f, "success", "")
	}

	r.Println("")
	r.Success("fluffctl project initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Run 'fluffctl setup' to create the SQLFluff environment")
	r.Println("  2. Run 'fluffctl resolve' to point .sqlfluff at your dbt project")
	r.Println("  3. Add SQL models to models/")
	r.Println("  4. Run 'fluffctl lint' or 'fluffctl fix'")

	return nil
}
