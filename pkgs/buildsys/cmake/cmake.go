// Package cmake wraps the cmake configure/build/test/install workflow.
package cmake

import (
	"context"
	"fmt"
	"sort"

	"github.com/snowmeltarcade/pfbuild/internal/runner"
	"github.com/snowmeltarcade/pfbuild/pkgs/buildsys"
)

type defineValue struct {
	value    string
	typeName string
}

// CMake drives CMake-based builds through a runner.Runner.
type CMake struct {
	run        runner.Runner
	cmake      string
	ctest      string
	sourceDir  string
	buildDir   string
	installDir string
	generator  string
	buildType  string
	toolchain  string
	verbose    bool
	defines    map[string]defineValue
	env        map[string]string
}

var _ buildsys.BuildSystem = (*CMake)(nil)

// New returns a CMake building sourceDir into buildDir.
func New(r runner.Runner, sourceDir, buildDir string) *CMake {
	return &CMake{
		run:       r,
		cmake:     "cmake",
		ctest:     "ctest",
		sourceDir: sourceDir,
		buildDir:  buildDir,
		defines:   map[string]defineValue{},
		env:       map[string]string{},
	}
}

// Programs overrides the cmake and ctest executables. Empty values keep
// the defaults.
func (c *CMake) Programs(cmake, ctest string) *CMake {
	if cmake != "" {
		c.cmake = cmake
	}
	if ctest != "" {
		c.ctest = ctest
	}
	return c
}

// InstallDir sets the prefix used by Install.
func (c *CMake) InstallDir(dir string) { c.installDir = dir }

// Generator sets the CMake generator (e.g. "Ninja", "Xcode").
func (c *CMake) Generator(name string) *CMake {
	c.generator = name
	return c
}

// BuildType sets CMAKE_BUILD_TYPE and the --config used by multi-config
// generators.
func (c *CMake) BuildType(name string) *CMake {
	c.buildType = name
	return c
}

// Toolchain sets CMAKE_TOOLCHAIN_FILE.
func (c *CMake) Toolchain(path string) *CMake {
	c.toolchain = path
	return c
}

// Verbose makes Build pass --verbose.
func (c *CMake) Verbose(v bool) *CMake {
	c.verbose = v
	return c
}

// Define adds a -D<key>:STRING=<value> definition.
func (c *CMake) Define(key, value string) *CMake {
	c.defines[key] = defineValue{value: value, typeName: "STRING"}
	return c
}

// DefineFile adds a -D<key>:FILEPATH=<value> definition.
func (c *CMake) DefineFile(key, value string) *CMake {
	c.defines[key] = defineValue{value: value, typeName: "FILEPATH"}
	return c
}

// Env sets a variable for every cmake and ctest invocation.
func (c *CMake) Env(key, value string) {
	c.env[key] = value
}

// Configure runs "cmake -S <source> -B <build>" with all configured options.
// Extra args are appended at the end. The build directory must exist.
func (c *CMake) Configure(ctx context.Context, args ...string) error {
	if c.toolchain != "" {
		c.DefineFile("CMAKE_TOOLCHAIN_FILE", c.toolchain)
	}
	if c.buildType != "" {
		c.Define("CMAKE_BUILD_TYPE", c.buildType)
	}
	cmakeArgs := []string{"-S", c.sourceDir, "-B", c.buildDir}
	if c.generator != "" {
		cmakeArgs = append(cmakeArgs, "-G", c.generator)
	}
	cmakeArgs = append(cmakeArgs, c.definesArgs()...)
	cmakeArgs = append(cmakeArgs, args...)
	return c.exec(ctx, "configure", c.cmake, cmakeArgs)
}

// Build runs "cmake --build <build>". Extra args are appended; pass "--"
// first to forward arguments to the native tool.
func (c *CMake) Build(ctx context.Context, args ...string) error {
	cmdArgs := []string{"--build", c.buildDir}
	if c.buildType != "" {
		cmdArgs = append(cmdArgs, "--config", c.buildType)
	}
	if c.verbose {
		cmdArgs = append(cmdArgs, "--verbose")
	}
	cmdArgs = append(cmdArgs, args...)
	return c.exec(ctx, "build", c.cmake, cmdArgs)
}

// Test runs ctest against the build tree.
func (c *CMake) Test(ctx context.Context, args ...string) error {
	cmdArgs := []string{"--test-dir", c.buildDir}
	if c.buildType != "" {
		cmdArgs = append(cmdArgs, "-C", c.buildType)
	}
	cmdArgs = append(cmdArgs, "--output-on-failure")
	cmdArgs = append(cmdArgs, args...)
	return c.exec(ctx, "test", c.ctest, cmdArgs)
}

// Install runs "cmake --install <build>".
func (c *CMake) Install(ctx context.Context, args ...string) error {
	cmdArgs := []string{"--install", c.buildDir}
	if c.buildType != "" {
		cmdArgs = append(cmdArgs, "--config", c.buildType)
	}
	if c.installDir != "" {
		cmdArgs = append(cmdArgs, "--prefix", c.installDir)
	}
	cmdArgs = append(cmdArgs, args...)
	return c.exec(ctx, "install", c.cmake, cmdArgs)
}

func (c *CMake) exec(ctx context.Context, step, name string, args []string) error {
	var env map[string]string
	if len(c.env) > 0 {
		env = c.env
	}
	_, err := c.run.Run(ctx, runner.Cmd{Name: name, Args: args, Dir: c.buildDir, Env: env})
	if err != nil {
		return fmt.Errorf("cmake %s: %w", step, err)
	}
	return nil
}

func (c *CMake) definesArgs() []string {
	if len(c.defines) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.defines))
	for k := range c.defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		d := c.defines[k]
		args = append(args, "-D"+k+":"+d.typeName+"="+d.value)
	}
	return args
}
