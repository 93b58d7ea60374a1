package overlay

import (
	"bufio"
	"bytes"
	"context"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// X11SocketDir is where X servers publish their sockets.
const X11SocketDir = "/tmp/.X11-unix"

// X11Socket finds the lowest-numbered local X server socket (X<n>) and
// returns ":<n>".
func X11Socket(_ context.Context, sys System, _ Overlay) (string, bool) {
	if sys.Glob == nil {
		return "", false
	}
	matches, err := sys.Glob(filepath.Join(X11SocketDir, "X*"))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	var displays []int
	for _, m := range matches {
		n, err := strconv.Atoi(strings.TrimPrefix(filepath.Base(m), "X"))
		if err == nil {
			displays = append(displays, n)
		}
	}
	if len(displays) == 0 {
		return "", false
	}
	slices.Sort(displays)
	return ":" + strconv.Itoa(displays[0]), true
}

// WSLHost returns "<windows-host-ip>:0" under WSL2, where the X server runs
// on the Windows side and the host is the resolv.conf nameserver.
func WSLHost(_ context.Context, sys System, _ Overlay) (string, bool) {
	if sys.ReadFile == nil {
		return "", false
	}
	version, err := sys.ReadFile("/proc/version")
	if err != nil || !bytes.Contains(bytes.ToLower(version), []byte("microsoft")) {
		return "", false
	}
	resolv, err := sys.ReadFile("/etc/resolv.conf")
	if err != nil {
		return "", false
	}
	scanner := bufio.NewScanner(bytes.NewReader(resolv))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[0] == "nameserver" {
			return fields[1] + ":0", true
		}
	}
	return "", false
}

// XAuthorityFile finds the X authority cookie file, but only when a display
// has been resolved.
func XAuthorityFile(_ context.Context, sys System, resolved Overlay) (string, bool) {
	if _, ok := resolved.Lookup("DISPLAY"); !ok || sys.Stat == nil {
		return "", false
	}
	var candidates []string
	if sys.Getenv != nil {
		if home := sys.Getenv("HOME"); home != "" {
			candidates = append(candidates, filepath.Join(home, ".Xauthority"))
		}
	}
	if sys.UID != nil {
		candidates = append(candidates, filepath.Join("/run/user", strconv.Itoa(sys.UID()), "gdm", "Xauthority"))
	}
	for _, c := range candidates {
		if info, err := sys.Stat(c); err == nil && !info.IsDir() {
			return c, true
		}
	}
	return "", false
}

// WaylandSocket finds a compositor socket under $XDG_RUNTIME_DIR.
func WaylandSocket(_ context.Context, sys System, _ Overlay) (string, bool) {
	if sys.Getenv == nil || sys.Glob == nil {
		return "", false
	}
	runtimeDir := sys.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		return "", false
	}
	matches, err := sys.Glob(filepath.Join(runtimeDir, "wayland-*"))
	if err != nil {
		return "", false
	}
	slices.Sort(matches)
	for _, m := range matches {
		if !strings.HasSuffix(m, ".lock") {
			return filepath.Base(m), true
		}
	}
	return "", false
}

// HeadlessBackend selects matplotlib's Agg backend when no display has been
// resolved. With a display, matplotlib picks its own backend.
func HeadlessBackend(_ context.Context, _ System, resolved Overlay) (string, bool) {
	if _, ok := resolved.Lookup("DISPLAY"); ok {
		return "", false
	}
	if _, ok := resolved.Lookup("WAYLAND_DISPLAY"); ok {
		return "", false
	}
	return "Agg", true
}

// DisplayVars are the display-server variables GUI launch targets need.
func DisplayVars() []Var {
	return []Var{
		{Name: "DISPLAY", Probes: []Probe{X11Socket, WSLHost}},
		{Name: "WAYLAND_DISPLAY", Probes: []Probe{WaylandSocket}},
		{Name: "XAUTHORITY", Probes: []Probe{XAuthorityFile}},
	}
}
