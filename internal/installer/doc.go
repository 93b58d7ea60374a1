// Package installer walks the component registry in dependency order and
// installs, verifies and records each component exactly once per run.
//
// A run never aborts early. A failed component blocks its dependents while
// independent branches continue, so the returned Report always covers every
// component that was asked for.
package installer
