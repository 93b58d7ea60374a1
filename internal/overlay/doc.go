// Package overlay computes the environment variables a launch target needs.
//
// Each variable resolves in priority order: a value already present in the
// process environment, then the variable's probes (inspecting the running
// session), then a static fallback. A variable nothing resolves is left out
// so the launched tool reports the consequence itself. Resolution is done on
// every launch and never cached.
package overlay
