// Package config holds the pipeline switches and the optional pfbuild.yaml
// project file.
package config

import (
	"fmt"
	"strings"
)

// Mode is the target of one main-pipeline run.
type Mode int

const (
	ModeDesktop Mode = iota
	ModeMobileDevice
	ModeMobileSimulator
)

func (m Mode) String() string {
	switch m {
	case ModeMobileDevice:
		return "ios"
	case ModeMobileSimulator:
		return "ios-simulator"
	default:
		return "desktop"
	}
}

// IsMobile reports whether m produces an Xcode build.
func (m Mode) IsMobile() bool { return m != ModeDesktop }

// ModeFromFlags maps the --ios / --ios-simulator switches to a Mode. Only
// one build tree is produced per run, so both together are rejected.
func ModeFromFlags(ios, iosSimulator bool) (Mode, error) {
	switch {
	case ios && iosSimulator:
		return ModeDesktop, fmt.Errorf("--ios and --ios-simulator are mutually exclusive")
	case ios:
		return ModeMobileDevice, nil
	case iosSimulator:
		return ModeMobileSimulator, nil
	}
	return ModeDesktop, nil
}

// Targets selects the projects produced by the iOS project generator.
type Targets struct {
	Device    bool
	Simulator bool
}

// DefaultTargets is used when no target was requested.
var DefaultTargets = Targets{Device: true, Simulator: true}

// TargetsFromFlags returns the requested targets, or DefaultTargets when
// neither flag is set.
func TargetsFromFlags(ios, iosSimulator bool) Targets {
	if !ios && !iosSimulator {
		return DefaultTargets
	}
	return Targets{Device: ios, Simulator: iosSimulator}
}

// BuildType is a CMake build configuration.
type BuildType string

const (
	Debug   BuildType = "Debug"
	Release BuildType = "Release"
)

// ParseBuildType accepts debug or release in any case.
func ParseBuildType(s string) (BuildType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug, nil
	case "release", "":
		return Release, nil
	}
	return "", fmt.Errorf("invalid config %q: want debug or release", s)
}

// Options are the switches of the main pipeline. They are not modified
// once parsed.
type Options struct {
	InstallAssets       bool
	InstallDependencies bool
	NoBuild             bool
	NoInstall           bool
	Cleanup             bool
	ArchiveName         string
	Mode                Mode
	BuildType           BuildType
	VerboseBuild        bool
}
