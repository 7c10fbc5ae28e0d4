package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/harborview-data/fluffctl/internal/cli/output"
	"github.com/harborview-data/fluffctl/internal/project"
	"github.com/harborview-data/fluffctl/internal/pyenv"
	"github.com/harborview-data/fluffctl/internal/sqlfluff"
)

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the SQLFluff toolchain is healthy",
		Long: `Check every piece the lint and fix commands depend on.

Doctor verifies the Python interpreter, the virtual environment, the
installed SQLFluff executable, the .sqlfluff configuration (including
whether project_dir points at a real dbt directory), the pinned
requirements file and the models directory. It reports each check and
exits non-zero when any fails.`,
		Example: `  # Run all checks
  fluffctl doctor

  # Machine-readable report
  fluffctl doctor -o json`,
		RunE: runDoctor,
	}
}

// DoctorCheck is a single environment check result.
type DoctorCheck struct {
	Group  string `json:"group"`
	Name   string `json:"name"`
	Status string `json:"status"` // "pass", "warn", "fail"
	Detail string `json:"detail,omitempty"`
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Checks  []DoctorCheck `json:"checks"`
	Healthy bool          `json:"healthy"`
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	out := collectDoctorChecks(cmd.Context(), cmdCtx)

	if r.EffectiveMode() == output.ModeJSON {
		if err := r.JSON(out); err != nil {
			return err
		}
	} else {
		renderDoctorReport(r, out)
	}

	if !out.Healthy {
		return fmt.Errorf("environment is not healthy, see failed checks above")
	}
	return nil
}

func collectDoctorChecks(ctx context.Context, c *CommandContext) *DoctorOutput {
	cfg := c.Cfg
	out := &DoctorOutput{Healthy: true}

	add := func(group, name, status, detail string) {
		out.Checks = append(out.Checks, DoctorCheck{Group: group, Name: name, Status: status, Detail: detail})
		if status == "fail" {
			out.Healthy = false
		}
	}

	// python environment
	python, err := pyenv.ResolveInterpreter(cfg.Python)
	if err != nil {
		add("python environment", "interpreter", "fail", err.Error())
	} else {
		add("python environment", "interpreter", "pass", python)
	}

	env := c.Venv()
	if env.Exists() {
		add("python environment", "venv", "pass", cfg.VenvDir)
	} else {
		add("python environment", "venv", "fail", fmt.Sprintf("%s missing, run 'fluffctl setup'", cfg.VenvDir))
	}

	if _, err := os.Stat(cfg.Requirements); err == nil {
		add("python environment", "requirements", "pass", cfg.Requirements)
	} else {
		add("python environment", "requirements", "warn", cfg.Requirements+" missing")
	}

	runner := c.Runner()
	if version, err := runner.Version(ctx); err != nil {
		if errors.Is(err, sqlfluff.ErrNotInstalled) {
			add("python environment", "sqlfluff", "fail", "not installed, run 'fluffctl setup'")
		} else {
			add("python environment", "sqlfluff", "fail", err.Error())
		}
	} else {
		add("python environment", "sqlfluff", "pass", version)
	}

	// configuration
	settings, err := project.ReadSettings(cfg.SQLFluffConfig)
	switch {
	case err != nil:
		add("configuration", "sqlfluff config", "fail", cfg.SQLFluffConfig+" is missing, run 'fluffctl init'")
	default:
		add("configuration", "sqlfluff config", "pass", cfg.SQLFluffConfig)
		if settings.Dialect != "" {
			add("configuration", "dialect", "pass", settings.Dialect)
		} else {
			add("configuration", "dialect", "warn", "not set in config, --dialect value used: "+cfg.Dialect)
		}
		if settings.Templater != "" {
			add("configuration", "templater", "pass", settings.Templater)
		} else {
			add("configuration", "templater", "warn", "not set in config")
		}
		checkProjectDir(add, cfg.SQLFluffConfig, settings.ProjectDir)
	}

	// project layout
	if info, err := os.Stat(cfg.ModelsDir); err == nil && info.IsDir() {
		files, _ := collectSQLFiles(cfg.ModelsDir, nil)
		add("project layout", "models dir", "pass", fmt.Sprintf("%s (%d SQL files)", cfg.ModelsDir, len(files)))
	} else {
		add("project layout", "models dir", "fail", cfg.ModelsDir+" does not exist")
	}

	if info, err := os.Stat(cfg.AuditDir); err == nil && info.IsDir() {
		add("project layout", "audit dir", "pass", cfg.AuditDir)
	} else {
		add("project layout", "audit dir", "warn", cfg.AuditDir+" will be created on the first 'fix --audit' run")
	}

	if cfg.DBTDir != "" {
		if info, err := os.Stat(cfg.DBTDir); err == nil && info.IsDir() {
			add("project layout", "dbt dir", "pass", cfg.DBTDir)
		} else {
			add("project layout", "dbt dir", "fail", cfg.DBTDir+" does not exist")
		}
	} else if found, err := project.FindDBTDir(cfg.ProjectRoot); err == nil {
		add("project layout", "dbt dir", "pass", found+" (auto-located)")
	} else {
		add("project layout", "dbt dir", "warn", "no dbt directory found; only needed for the dbt templater")
	}

	return out
}

// checkProjectDir verifies the configured project_dir resolves to a real
// directory relative to the config file.
func checkProjectDir(add func(group, name, status, detail string), configPath, projectDir string) {
	if projectDir == "" {
		add("configuration", "project_dir", "warn", "not set, run 'fluffctl resolve'")
		return
	}
	target := projectDir
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(configPath), filepath.FromSlash(projectDir))
	}
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		add("configuration", "project_dir", "pass", projectDir)
		return
	}
	add("configuration", "project_dir", "fail", fmt.Sprintf("%q does not resolve to a directory, run 'fluffctl resolve'", projectDir))
}

func renderDoctorReport(r *output.Renderer, out *DoctorOutput) {
	titleCaser := cases.Title(language.English)

	currentGroup := ""
	for _, check := range out.Checks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			if currentGroup != out.Checks[0].Group {
				r.Println("")
			}
			r.Header(2, titleCaser.String(currentGroup))
		}

		status := "success"
		switch check.Status {
		case "warn":
			status = "warn"
		case "fail":
			status = "error"
		}
		r.StatusLine(check.Name, status, check.Detail)
	}

	r.Println("")
	if out.Healthy {
		r.Success("Environment is healthy.")
	} else {
		r.Error("Environment has problems, see failed checks above.")
	}
}
