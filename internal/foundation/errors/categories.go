package errors

import "maps"

// ErrorCategory represents the broad category of an error for classification and routing.
type ErrorCategory string

const (
	// CategoryConfig covers fatal configuration problems such as a cyclic
	// component graph or an unreadable configuration file.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"

	// Component lifecycle failures. These are recorded per component and
	// never abort a whole run on their own.
	CategoryInstall ErrorCategory = "install"
	CategoryVerify  ErrorCategory = "verify"
	CategoryLaunch  ErrorCategory = "launch"

	// External collaborators and local resources.
	CategoryFetch      ErrorCategory = "fetch"
	CategoryState      ErrorCategory = "state"
	CategoryFileSystem ErrorCategory = "filesystem"

	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution completely
	SeverityError   ErrorSeverity = "error"   // Fails the current operation
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// RetryStrategy tells the user (not the program) whether re-running makes sense.
// Nothing in astro retries automatically; install actions are idempotent so a
// re-run is always safe.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never" // Permanent failure, re-running won't help
	RetryRerun      RetryStrategy = "rerun" // Transient; re-running the command may succeed
	RetryUserAction RetryStrategy = "user"  // Requires user intervention first
)

// ErrorContext provides structured context for errors.
type ErrorContext map[string]any

// Set adds or updates a context value.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

// Get retrieves a context value.
func (c ErrorContext) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	value, exists := c[key]
	return value, exists
}

// GetString retrieves a string context value.
func (c ErrorContext) GetString(key string) (string, bool) {
	if value, exists := c.Get(key); exists {
		if str, ok := value.(string); ok {
			return str, true
		}
	}
	return "", false
}

// Merge combines two contexts, with other taking precedence.
func (c ErrorContext) Merge(other ErrorContext) ErrorContext {
	if c == nil {
		return other
	}
	if other == nil {
		return c
	}
	result := make(ErrorContext, len(c)+len(other))
	maps.Copy(result, c)
	maps.Copy(result, other)
	return result
}

// Well-known context keys. User-visible failures always carry the
// component and the check that failed.
const (
	KeyComponent = "component"
	KeyCheck     = "check"
	KeyFixHint   = "fix_hint"
	KeyPath      = "path"
	KeyURL       = "url"
)
