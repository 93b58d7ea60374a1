package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Process exit codes. Per-component outcomes use ExitPartial/ExitTotal; the
// remaining codes come from classified errors that end a command early.
const (
	ExitOK       = 0
	ExitGeneral  = 1
	ExitUsage    = 2
	ExitPartial  = 3 // some components failed, at least one is fine
	ExitTotal    = 4 // nothing succeeded
	ExitConfig   = 7
	ExitFetch    = 8
	ExitInternal = 10
	ExitState    = 11
	ExitLaunch   = 12
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI applications.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		out:     os.Stderr,
	}
}

// WithOutput redirects user-facing messages (tests).
func (a *CLIErrorAdapter) WithOutput(w io.Writer) *CLIErrorAdapter {
	a.out = w
	return a
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	if classified, ok := AsClassified(err); ok {
		return exitCodeFromCategory(classified.Category())
	}
	return ExitGeneral
}

func exitCodeFromCategory(category ErrorCategory) int {
	switch category {
	case CategoryValidation, CategoryNotFound:
		return ExitUsage
	case CategoryConfig:
		return ExitConfig
	case CategoryFetch:
		return ExitFetch
	case CategoryInstall, CategoryVerify:
		return ExitTotal
	case CategoryLaunch:
		return ExitLaunch
	case CategoryState, CategoryFileSystem:
		return ExitState
	case CategoryInternal:
		return ExitInternal
	default:
		return ExitGeneral
	}
}

// FormatError formats an error for user-friendly display. Component-level
// failures always name the component and the check that failed.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	classified, ok := AsClassified(err)
	if !ok {
		return fmt.Sprintf("Error: %v", err)
	}
	if a.verbose {
		return err.Error()
	}

	var b strings.Builder
	b.WriteString("Error: ")
	if name := classified.Component(); name != "" {
		fmt.Fprintf(&b, "%s: ", name)
	}
	b.WriteString(classified.Message())
	if check := classified.Check(); check != "" {
		fmt.Fprintf(&b, " (check: %s)", check)
	}
	if cause := classified.Cause(); cause != nil {
		fmt.Fprintf(&b, ": %v", cause)
	}
	if hint := classified.FixHint(); hint != "" {
		fmt.Fprintf(&b, "\n  fix: %s", hint)
	}
	return b.String()
}

// Report logs and prints err and returns the exit code without exiting.
func (a *CLIErrorAdapter) Report(err error) int {
	if err == nil {
		return ExitOK
	}
	if a.shouldLog(err) {
		a.logError(err)
	}
	_, _ = fmt.Fprintln(a.out, a.FormatError(err))
	return a.ExitCodeFor(err)
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	os.Exit(a.Report(err))
}

// shouldLog determines if an error should be logged.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}
	if classified, ok := AsClassified(err); ok {
		return classified.Severity() == SeverityFatal
	}
	return true
}

// logError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) logError(err error) {
	classified, ok := AsClassified(err)
	if !ok {
		a.logger.Error("Unclassified error", "error", err)
		return
	}

	attrs := []slog.Attr{slog.String("category", string(classified.Category()))}
	if name := classified.Component(); name != "" {
		attrs = append(attrs, slog.String("component", name))
	}
	if check := classified.Check(); check != "" {
		attrs = append(attrs, slog.String("check", check))
	}
	if classified.CanRerun() {
		attrs = append(attrs, slog.Bool("rerunnable", true))
	}
	a.logger.LogAttrs(context.Background(), slogLevelFromSeverity(classified.Severity()), classified.Message(), attrs...)
}

func slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityError, SeverityFatal:
		return slog.LevelError
	default:
		return slog.LevelError
	}
}
