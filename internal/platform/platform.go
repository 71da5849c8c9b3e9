// Package platform maps the host operating system to the vendored toolchain
// layout under <root>/libraries.
package platform

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Name is a canonical platform identifier.
type Name string

const (
	Darwin  Name = "darwin"
	Linux   Name = "linux"
	Windows Name = "windows"
)

func (n Name) String() string { return string(n) }

// MobileCapable reports whether iOS projects can be generated and built on n.
func (n Name) MobileCapable() bool { return n == Darwin }

// Detect maps a GOOS value to a platform name. Unrecognized systems fall back
// to Windows; fallback reports whether that happened.
func Detect(goos string) (name Name, fallback bool) {
	switch goos {
	case "darwin":
		return Darwin, false
	case "linux":
		return Linux, false
	case "windows":
		return Windows, false
	}
	return Windows, true
}

// Info holds the resolved toolchain paths for a platform.
type Info struct {
	Name     Name
	Fallback bool
	// OS is the lowercase host system name used in artifact paths. It
	// differs from Name when Fallback is set.
	OS string

	CC        string // C compiler
	CXX       string // C++ compiler
	RC        string // resource compiler
	Generator string // make program used by the Ninja generator
}

const (
	clangDir = "clang-12"
	ninjaDir = "ninja"
)

// Resolve derives toolchain paths under root/libraries for name. Nothing is
// checked for existence.
func Resolve(root string, name Name) Info {
	bin := filepath.Join(root, "libraries", clangDir, string(name), "bin")
	info := Info{
		Name:      name,
		OS:        string(name),
		CC:        filepath.Join(bin, "clang"),
		CXX:       filepath.Join(bin, "clang++"),
		RC:        filepath.Join(bin, "llvm-rc"),
		Generator: filepath.Join(root, "libraries", ninjaDir, string(name), "ninja"),
	}
	if name == Windows {
		// CMake rejects backslashes in path-valued cache entries.
		for _, p := range []*string{&info.CC, &info.CXX, &info.RC, &info.Generator} {
			*p = windowsExe(*p)
		}
	}
	return info
}

// Host detects goos and resolves its toolchain under root.
func Host(root, goos string) Info {
	name, fallback := Detect(goos)
	info := Resolve(root, name)
	info.Fallback = fallback
	info.OS = strings.ToLower(goos)
	return info
}

func windowsExe(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	if !strings.HasSuffix(p, ".exe") {
		p += ".exe"
	}
	return p
}

// UnsupportedHostError is returned when a mobile target is requested on a
// host that cannot build it.
type UnsupportedHostError struct {
	Host   Name
	Target string
}

func (e *UnsupportedHostError) Error() string {
	return fmt.Sprintf("%s targets can only be generated on %s, host is %s", e.Target, Darwin, e.Host)
}

// RequireMobile returns an *UnsupportedHostError unless host can build target.
func RequireMobile(host Name, target string) error {
	if host.MobileCapable() {
		return nil
	}
	return &UnsupportedHostError{Host: host, Target: target}
}
