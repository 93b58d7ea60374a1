package errors

import (
	stderrors "errors"
	"fmt"
)

// ClassifiedError represents a structured error with category, severity, and context.
type ClassifiedError struct {
	category ErrorCategory
	severity ErrorSeverity
	retry    RetryStrategy
	message  string
	cause    error
	context  ErrorContext
}

// Error implements the standard error interface.
func (e *ClassifiedError) Error() string {
	prefix := string(e.category)
	if name, ok := e.context.GetString(KeyComponent); ok && name != "" {
		prefix += ":" + name
	}
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", prefix, e.message)
}

// Unwrap implements Go 1.13+ error unwrapping.
func (e *ClassifiedError) Unwrap() error {
	return e.cause
}

// Category returns the error category.
func (e *ClassifiedError) Category() ErrorCategory {
	return e.category
}

// Severity returns the error severity.
func (e *ClassifiedError) Severity() ErrorSeverity {
	return e.severity
}

// RetryStrategy returns the recommended retry strategy.
func (e *ClassifiedError) RetryStrategy() RetryStrategy {
	return e.retry
}

// Message returns the error message.
func (e *ClassifiedError) Message() string {
	return e.message
}

// Cause returns the underlying error.
func (e *ClassifiedError) Cause() error {
	return e.cause
}

// Context returns the error context.
func (e *ClassifiedError) Context() ErrorContext {
	return e.context
}

// Component returns the component the error is about, if any.
func (e *ClassifiedError) Component() string {
	s, _ := e.context.GetString(KeyComponent)
	return s
}

// Check returns the name of the check that failed, if any.
func (e *ClassifiedError) Check() string {
	s, _ := e.context.GetString(KeyCheck)
	return s
}

// FixHint returns the suggested remedy, if any.
func (e *ClassifiedError) FixHint() string {
	s, _ := e.context.GetString(KeyFixHint)
	return s
}

// WithContext adds context to the error and returns a new error.
func (e *ClassifiedError) WithContext(key string, value any) *ClassifiedError {
	merged := e.context.Merge(ErrorContext{key: value})
	return &ClassifiedError{
		category: e.category,
		severity: e.severity,
		retry:    e.retry,
		message:  e.message,
		cause:    e.cause,
		context:  merged,
	}
}

// Is implements error comparison for Go 1.13+ error handling.
func (e *ClassifiedError) Is(target error) bool {
	if other, ok := target.(*ClassifiedError); ok {
		return e.category == other.category && e.message == other.message
	}
	return false
}

// IsCategory checks if the error belongs to a specific category.
func (e *ClassifiedError) IsCategory(category ErrorCategory) bool {
	return e.category == category
}

// IsFatal checks if the error is fatal (should stop execution).
func (e *ClassifiedError) IsFatal() bool {
	return e.severity == SeverityFatal
}

// CanRerun reports whether simply re-running the command may help.
func (e *ClassifiedError) CanRerun() bool {
	return e.retry == RetryRerun
}

// AsClassified finds the first ClassifiedError in err's chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var classified *ClassifiedError
	if stderrors.As(err, &classified) {
		return classified, true
	}
	return nil, false
}

// IsClassified checks if an error chain contains a ClassifiedError.
func IsClassified(err error) bool {
	_, ok := AsClassified(err)
	return ok
}

// HasCategory checks if any error in the chain belongs to a category.
func HasCategory(err error, category ErrorCategory) bool {
	if classified, ok := AsClassified(err); ok {
		return classified.IsCategory(category)
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal.
func GetCategory(err error) ErrorCategory {
	if classified, ok := AsClassified(err); ok {
		return classified.Category()
	}
	return CategoryInternal
}

// CheckOf returns the failed check name carried by err, or fallback.
func CheckOf(err error, fallback string) string {
	if classified, ok := AsClassified(err); ok && classified.Check() != "" {
		return classified.Check()
	}
	return fallback
}

// FixHintOf returns the fix hint carried by err, if any.
func FixHintOf(err error) string {
	if classified, ok := AsClassified(err); ok {
		return classified.FixHint()
	}
	return ""
}
