// Package iosgen generates Xcode projects for the iOS device and simulator
// targets.
package iosgen

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"go.uber.org/zap"

	"github.com/snowmeltarcade/pfbuild/internal/config"
	"github.com/snowmeltarcade/pfbuild/internal/fsutil"
	"github.com/snowmeltarcade/pfbuild/internal/platform"
	"github.com/snowmeltarcade/pfbuild/internal/runner"
	"github.com/snowmeltarcade/pfbuild/pkgs/buildsys/cmake"
)

const (
	DeviceDir    = "iosbuild"
	SimulatorDir = "iossimbuild"

	// ToolchainFile is relative to the project root.
	ToolchainFile = "cmake/ios.toolchain.cmake"
)

// project is one Xcode project to generate.
type project struct {
	name     string
	dir      string
	platform string
}

var (
	device    = project{name: "iOS", dir: DeviceDir, platform: "OS64"}
	simulator = project{name: "iOS Simulator", dir: SimulatorDir, platform: "SIMULATOR64"}
)

// Options selects what Generate produces.
type Options struct {
	Targets config.Targets
	Config  config.BuildType
}

// Generator writes Xcode project trees into the project root.
type Generator struct {
	Root   string           // absolute project root
	FS     billy.Filesystem // rooted at Root
	Runner runner.Runner
	Host   platform.Name
	CMake  string
	Env    map[string]string
	Log    *zap.SugaredLogger
}

// Generate produces a fresh project directory per requested target. On a
// host that cannot build iOS nothing is created.
func (g *Generator) Generate(ctx context.Context, opts Options) error {
	if err := platform.RequireMobile(g.Host, "iOS"); err != nil {
		return err
	}
	if opts.Config == "" {
		opts.Config = config.Release
	}

	var projects []project
	if opts.Targets.Device {
		projects = append(projects, device)
	}
	if opts.Targets.Simulator {
		projects = append(projects, simulator)
	}

	g.Log.Infow("Generating projects", "count", len(projects), "config", opts.Config)
	for _, p := range projects {
		if err := g.generate(ctx, p, opts.Config); err != nil {
			return err
		}
	}
	g.Log.Info("Generated projects")
	return nil
}

func (g *Generator) generate(ctx context.Context, p project, buildType config.BuildType) error {
	g.Log.Infow("Generating project", "target", p.name, "dir", p.dir)

	if err := fsutil.RemoveDir(g.FS, p.dir); err != nil {
		g.Log.Warnw("Failed to remove project directory", "error", err)
	}
	if err := fsutil.MakeDir(g.FS, p.dir); err != nil {
		g.Log.Warnw("Failed to create project directory", "error", err)
	}

	c := cmake.New(g.Runner, g.Root, filepath.Join(g.Root, p.dir)).
		Programs(g.CMake, "").
		Generator("Xcode").
		Toolchain(filepath.ToSlash(filepath.Join(g.Root, ToolchainFile))).
		BuildType(string(buildType)).
		Define("PLATFORM", p.platform)
	for k, v := range g.Env {
		c.Env(k, v)
	}
	if err := c.Configure(ctx); err != nil {
		return fmt.Errorf("failed to generate %s project: %w", p.name, err)
	}
	g.Log.Infow("Generated project", "target", p.name)
	return nil
}
