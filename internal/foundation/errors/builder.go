package errors

// ErrorBuilder provides a fluent API for creating ClassifiedError instances.
type ErrorBuilder struct {
	category ErrorCategory
	severity ErrorSeverity
	retry    RetryStrategy
	message  string
	cause    error
	context  ErrorContext
}

// NewError creates a new ErrorBuilder with the specified category and message.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{
		category: category,
		severity: SeverityError,
		retry:    RetryNever,
		message:  message,
		context:  make(ErrorContext),
	}
}

// WrapError creates a new ErrorBuilder that wraps an existing error.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	return NewError(category, message).WithCause(err)
}

// WithCause sets the underlying error.
func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.cause = err
	return b
}

// WithSeverity sets the error severity.
func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.severity = severity
	return b
}

// WithRetry sets the retry strategy.
func (b *ErrorBuilder) WithRetry(strategy RetryStrategy) *ErrorBuilder {
	b.retry = strategy
	return b
}

// WithContext adds a context key-value pair.
func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.context = b.context.Set(key, value)
	return b
}

// ForComponent tags the error with the component it concerns.
func (b *ErrorBuilder) ForComponent(name string) *ErrorBuilder {
	return b.WithContext(KeyComponent, name)
}

// Check names the specific check that failed.
func (b *ErrorBuilder) Check(name string) *ErrorBuilder {
	return b.WithContext(KeyCheck, name)
}

// Hint attaches a short remedy shown to the user.
func (b *ErrorBuilder) Hint(hint string) *ErrorBuilder {
	return b.WithContext(KeyFixHint, hint)
}

// Fatal sets the severity to fatal.
func (b *ErrorBuilder) Fatal() *ErrorBuilder {
	return b.WithSeverity(SeverityFatal)
}

// Warning sets the severity to warning.
func (b *ErrorBuilder) Warning() *ErrorBuilder {
	return b.WithSeverity(SeverityWarning)
}

// Rerunnable marks the failure as transient.
func (b *ErrorBuilder) Rerunnable() *ErrorBuilder {
	return b.WithRetry(RetryRerun)
}

// UserAction sets the retry strategy to require user action.
func (b *ErrorBuilder) UserAction() *ErrorBuilder {
	return b.WithRetry(RetryUserAction)
}

// Build creates the final ClassifiedError.
func (b *ErrorBuilder) Build() *ClassifiedError {
	return &ClassifiedError{
		category: b.category,
		severity: b.severity,
		retry:    b.retry,
		message:  b.message,
		cause:    b.cause,
		context:  b.context,
	}
}

// ConfigError creates a configuration error. Configuration errors are fatal
// and re-running without changing the configuration never helps.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal()
}

// ValidationError creates a usage/input error.
func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message)
}

// InstallError creates a per-component install failure.
func InstallError(component, message string) *ErrorBuilder {
	return NewError(CategoryInstall, message).ForComponent(component).Rerunnable()
}

// VerifyError creates a per-component verification failure.
func VerifyError(component, message string) *ErrorBuilder {
	return NewError(CategoryVerify, message).ForComponent(component).Warning()
}

// LaunchError creates a launch failure for a wrapped tool.
func LaunchError(component, message string) *ErrorBuilder {
	return NewError(CategoryLaunch, message).ForComponent(component)
}

// FetchError creates an error from the external fetch collaborator.
func FetchError(message string) *ErrorBuilder {
	return NewError(CategoryFetch, message).Rerunnable()
}

// StateError creates a state store error. Corrupt entries are demoted to
// warnings by the caller; only an unusable store is an error.
func StateError(message string) *ErrorBuilder {
	return NewError(CategoryState, message)
}

// FileSystemError creates a filesystem error.
func FileSystemError(message string) *ErrorBuilder {
	return NewError(CategoryFileSystem, message)
}

// InternalError creates an internal error.
func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message).Fatal()
}
