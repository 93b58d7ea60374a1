// Package errors provides the classified error type used across astro.
//
// Every failure that reaches the user carries a category (config, install,
// verify, launch, fetch, state, ...), a severity, a re-run hint and structured
// context. Component-level failures always name the component and the check
// that failed so the CLI never prints a generic message.
//
// Example usage:
//
//	err := errors.InstallError("topcat", "download failed").
//		Check("fetch-jar").
//		WithCause(httpErr).
//		Build()
package errors
