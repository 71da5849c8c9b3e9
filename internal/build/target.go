package build

import "github.com/snowmeltarcade/pfbuild/internal/config"

// Target is the kind of binary a build produces.
type Target int

const (
	Desktop Target = iota
	MobileDevice
	MobileSimulator
)

// TargetOf maps a pipeline mode to its build target.
func TargetOf(m config.Mode) Target {
	switch m {
	case config.ModeMobileDevice:
		return MobileDevice
	case config.ModeMobileSimulator:
		return MobileSimulator
	}
	return Desktop
}

func (t Target) String() string {
	switch t {
	case MobileDevice:
		return "iOS"
	case MobileSimulator:
		return "iOS Simulator"
	}
	return "desktop"
}

// IsMobile reports whether t is built through the Xcode generator.
func (t Target) IsMobile() bool { return t != Desktop }

// Generator returns the CMake generator for t.
func (t Target) Generator() string {
	if t.IsMobile() {
		return "Xcode"
	}
	return "Ninja"
}

// Arch returns the single architecture built for a mobile target.
func (t Target) Arch() string {
	switch t {
	case MobileDevice:
		return "arm64"
	case MobileSimulator:
		return "x86_64"
	}
	return ""
}

// SDK returns the xcodebuild SDK selecting device or simulator.
func (t Target) SDK() string {
	switch t {
	case MobileDevice:
		return "iphoneos"
	case MobileSimulator:
		return "iphonesimulator"
	}
	return ""
}
