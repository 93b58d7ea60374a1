package commands

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/astrokit/internal/catalog"
	"git.home.luguber.info/inful/astrokit/internal/router"
)

// Global carries per-invocation state shared by all commands.
type Global struct {
	Ctx    context.Context
	Logger *slog.Logger
	// Forwarded holds the arguments after a launch command, untouched by flag parsing.
	Forwarded []string
	// Exit is the process exit code set by the command.
	Exit int
}

// CLI definition & global flags.
type CLI struct {
	Root        string           `help:"Installation root (default $ASTRO_HOME or ~/.astro)" placeholder:"DIR"`
	Config      string           `short:"c" help:"Configuration file path (default <root>/astro.yaml)" type:"path"`
	Verbose     bool             `short:"v" help:"Enable verbose logging"`
	MetricsFile string           `name:"metrics-file" help:"Write run metrics in node-exporter textfile format" type:"path"`
	Version     kong.VersionFlag `name:"version" help:"Show version and exit"`

	Install   InstallCmd   `cmd:"" help:"Install every component (or the named ones) that is missing"`
	Update    UpdateCmd    `cmd:"" help:"Reinstall every component asking for newer versions"`
	Doctor    DoctorCmd    `cmd:"" help:"Verify every component against the live system"`
	Repair    RepairCmd    `cmd:"" help:"Reinstall only degraded or broken components"`
	Status    StatusCmd    `cmd:"" help:"Show what the state store records"`
	Uninstall UninstallCmd `cmd:"" help:"Remove one component or the whole environment"`
	Init      InitCmd      `cmd:"" help:"Write an example configuration file"`
	Help      HelpCmd      `cmd:"" help:"List management and launch commands"`

	Python    PythonCmd    `cmd:"" help:"Run the managed Python interpreter"`
	Lab       LabCmd       `cmd:"" help:"Start JupyterLab in the work directory"`
	Dashboard DashboardCmd `cmd:"" help:"Run the starter kit dashboard"`
	Topcat    TopcatCmd    `cmd:"" help:"Start the TOPCAT table viewer"`
}

// AfterApply runs after flag parsing and installs a terminal logger. The
// configured handlers replace it once the configuration is loaded.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelWarn
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// getenv is swapped in tests.
var getenv = os.Getenv

// flagsWithValue are the global flags whose value is a separate argument.
var flagsWithValue = []string{"--root", "--config", "-c", "--metrics-file"}

// SplitArgs separates a launch invocation from the arguments it forwards.
// Everything after the first positional argument naming a launch target is
// returned as forwarded so that flags meant for the tool never reach the
// parser. A bare invocation is treated as help.
func SplitArgs(args []string) (parse, forwarded []string) {
	if len(args) == 0 {
		return []string{router.CmdHelp}, nil
	}
	launches := catalog.LaunchCommands()
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "-") {
			if slices.Contains(flagsWithValue, arg) {
				i++
			}
			continue
		}
		if slices.Contains(launches, arg) {
			return slices.Clone(args[:i+1]), slices.Clone(args[i+1:])
		}
		break
	}
	return args, nil
}
