// Package workspace describes the directory tree astro owns under its root
// and the filesystem operations performed on it.
//
// The tree holds the state store, the Python environment, fetched
// applications, the starter kit scripts, logs, and a work directory for
// user-generated files. The work directory is never removed implicitly.
package workspace
