package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyRunKind    = "run_kind"
	KeyComponent  = "component"
	KeyStatus     = "status"
	KeyOutcome    = "outcome"
	KeyCheck      = "check"
	KeyCommand    = "command"
	KeyPath       = "path"
	KeyURL        = "url"
	KeyVariable   = "variable"
	KeySource     = "source"
	KeyExitCode   = "exit_code"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func RunKind(kind string) slog.Attr   { return slog.String(KeyRunKind, kind) }
func Component(name string) slog.Attr { return slog.String(KeyComponent, name) }
func Status(s string) slog.Attr       { return slog.String(KeyStatus, s) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func Check(name string) slog.Attr     { return slog.String(KeyCheck, name) }
func Command(name string) slog.Attr   { return slog.String(KeyCommand, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Variable(name string) slog.Attr  { return slog.String(KeyVariable, name) }
func Source(s string) slog.Attr       { return slog.String(KeySource, s) }
func ExitCode(code int) slog.Attr     { return slog.Int(KeyExitCode, code) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
