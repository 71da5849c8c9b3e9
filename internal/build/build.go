// Package build drives configure, compile, test and install of the project
// and collects the installed tree under install/<host>.
package build

import (
	"context"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"go.uber.org/zap"

	"github.com/snowmeltarcade/pfbuild/internal/config"
	"github.com/snowmeltarcade/pfbuild/internal/fsutil"
	"github.com/snowmeltarcade/pfbuild/internal/manifest"
	"github.com/snowmeltarcade/pfbuild/internal/platform"
	"github.com/snowmeltarcade/pfbuild/internal/runner"
	"github.com/snowmeltarcade/pfbuild/pkgs/buildsys"
	"github.com/snowmeltarcade/pfbuild/pkgs/buildsys/cmake"
)

// Directory names relative to the project root.
const (
	BuildDirName   = "build"
	InstallDirName = "install"
)

// Artifact locates the output of one run. Paths are relative to the
// project root.
type Artifact struct {
	BuildDir      string // build/
	InstallSource string // build/install
	InstallDest   string // install/<host>
}

// NewArtifact returns the layout used for hostOS.
func NewArtifact(hostOS string) *Artifact {
	return &Artifact{
		BuildDir:      BuildDirName,
		InstallSource: filepath.Join(BuildDirName, InstallDirName),
		InstallDest:   filepath.Join(InstallDirName, hostOS),
	}
}

// Tools are the executables invoked by the driver.
type Tools struct {
	CMake string
	CTest string
}

// Driver builds one target of the project rooted at Root.
type Driver struct {
	Root   string           // absolute project root
	FS     billy.Filesystem // rooted at Root
	Runner runner.Runner
	Host   platform.Info
	Target Target
	Tools  Tools
	Env    map[string]string
	Bundle config.Bundle
	Log    *zap.SugaredLogger

	BuildType config.BuildType
	NoBuild   bool
	Verbose   bool

	// Version is called once, only when bundle metadata is needed.
	Version func() (manifest.Version, error)
}

// Run executes the build stages and returns where the output landed.
// A mobile target on a host that cannot build it fails before anything is
// created or invoked.
func (d *Driver) Run(ctx context.Context) (*Artifact, error) {
	if d.Target.IsMobile() {
		if err := platform.RequireMobile(d.Host.Name, d.Target.String()); err != nil {
			return nil, err
		}
	}
	d.Log.Infow("Making", "target", d.Target.String(), "host", d.Host.Name)

	var version manifest.Version
	if d.Target.IsMobile() && !d.NoBuild {
		v, err := d.Version()
		if err != nil {
			return nil, err
		}
		version = v
	}

	art := NewArtifact(d.Host.OS)
	if err := fsutil.MakeDir(d.FS, art.BuildDir); err != nil {
		d.Log.Warnw("Failed to create build directory", "error", err)
	}

	if !d.NoBuild {
		if err := d.compile(ctx, d.cmake(art, version)); err != nil {
			return nil, err
		}
	}

	if err := fsutil.MakeDir(d.FS, art.InstallDest); err != nil {
		d.Log.Warnw("Failed to create install directory", "error", err)
	}
	if err := fsutil.CopyDir(d.FS, art.InstallSource, art.InstallDest); err != nil {
		d.Log.Warnw("Failed to copy install tree", "error", err)
	} else {
		d.Log.Infow("Copied install tree", "from", art.InstallSource, "to", art.InstallDest)
	}

	d.Log.Infow("Made", "target", d.Target.String())
	return art, nil
}

func (d *Driver) compile(ctx context.Context, c buildsys.BuildSystem) error {
	if err := c.Configure(ctx); err != nil {
		return err
	}
	var nativeArgs []string
	if sdk := d.Target.SDK(); sdk != "" {
		nativeArgs = []string{"--", "-sdk", sdk}
	}
	if err := c.Build(ctx, nativeArgs...); err != nil {
		return err
	}
	if err := c.Test(ctx); err != nil {
		return err
	}
	return c.Install(ctx)
}

// cmake prepares the CMake invocation for the driver's target. version is
// only used by mobile targets.
func (d *Driver) cmake(art *Artifact, version manifest.Version) *cmake.CMake {
	buildType := d.BuildType
	if buildType == "" {
		buildType = config.Release
	}
	c := cmake.New(d.Runner, d.Root, filepath.Join(d.Root, art.BuildDir)).
		Programs(d.Tools.CMake, d.Tools.CTest).
		Generator(d.Target.Generator()).
		BuildType(string(buildType)).
		Verbose(d.Verbose)
	c.InstallDir(filepath.Join(d.Root, art.InstallSource))
	for k, v := range d.Env {
		c.Env(k, v)
	}

	if !d.Target.IsMobile() {
		c.DefineFile("CMAKE_MAKE_PROGRAM", d.Host.Generator)
		c.DefineFile("CMAKE_C_COMPILER", d.Host.CC)
		c.DefineFile("CMAKE_CXX_COMPILER", d.Host.CXX)
		c.DefineFile("CMAKE_RC_COMPILER", d.Host.RC)
		return c
	}

	c.Define("CMAKE_SYSTEM_NAME", "iOS")
	c.Define("CMAKE_XCODE_ATTRIBUTE_ONLY_ACTIVE_ARCH", "NO")
	c.Define("CMAKE_OSX_DEPLOYMENT_TARGET", d.Bundle.DeploymentTarget)
	c.Define("CMAKE_OSX_ARCHITECTURES", d.Target.Arch())
	c.Define("MACOSX_BUNDLE_BUNDLE_NAME", d.Bundle.Name)
	c.Define("MACOSX_BUNDLE_BUNDLE_VERSION", version.String())
	c.Define("MACOSX_BUNDLE_SHORT_VERSION_STRING", version.String())
	c.Define("MACOSX_BUNDLE_COPYRIGHT", d.Bundle.Copyright)
	c.Define("MACOSX_BUNDLE_GUI_IDENTIFIER", d.Bundle.Identifier)
	return c
}
