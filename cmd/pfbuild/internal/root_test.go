package internal

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowmeltarcade/pfbuild/internal/platform"
)

const cmakeLists = `cmake_minimum_required(VERSION 3.20)
project(projectfarm VERSION 1.2.3 LANGUAGES C CXX)
`

// resetFlags restores every flag to its default so commands can be run
// repeatedly in one process.
func resetFlags() {
	for _, c := range []*cobra.Command{rootCmd, buildCmd, iosCmd, versionCmd} {
		for _, fs := range []*pflag.FlagSet{c.Flags(), c.PersistentFlags()} {
			fs.VisitAll(func(f *pflag.Flag) {
				_ = f.Value.Set(f.DefValue)
				f.Changed = false
			})
		}
	}
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err = rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CMakeLists.txt"), []byte(cmakeLists), 0o644))
	return dir
}

func withHost(t *testing.T, goos string) {
	t.Helper()
	old := hostOS
	hostOS = goos
	t.Cleanup(func() { hostOS = old })
}

func TestVersion(t *testing.T) {
	dir := newProject(t)
	out, _, err := execute(t, "version", "--project-dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3\n", out)
}

func TestVersionMissingManifest(t *testing.T) {
	_, _, err := execute(t, "version", "--project-dir", t.TempDir())
	assert.Error(t, err)
}

func TestOverride(t *testing.T) {
	var v string
	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().StringVar(&v, "build-type", "", "")

	assert.Equal(t, "debug", override(cmd, "build-type", v, "debug"))
	require.NoError(t, cmd.Flags().Set("build-type", "release"))
	assert.Equal(t, "release", override(cmd, "build-type", v, "debug"))
}

func TestBuildRejectsBothIOSFlags(t *testing.T) {
	_, _, err := execute(t, "build", "--project-dir", newProject(t), "--ios", "--ios-simulator")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestBuildRejectsUnknownGitBackend(t *testing.T) {
	_, _, err := execute(t, "build", "--project-dir", newProject(t), "--git-backend", "svn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported git backend")
}

func TestBuildDryRun(t *testing.T) {
	withHost(t, "linux")
	dir := newProject(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "build", "install", "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "build", "install", "bin", "projectfarm"), []byte("bin"), 0o755))

	out, _, err := execute(t, "build", "--project-dir", dir, "--dry-run", "--install-dependencies")
	require.NoError(t, err)
	assert.Contains(t, out, "Build succeeded.")
	assert.FileExists(t, filepath.Join(dir, "install", "linux", "bin", "projectfarm"))
	assert.FileExists(t, filepath.Join(dir, "archives", "projectfarm-1.2.3-linux.zip"))
	assert.NoDirExists(t, filepath.Join(dir, "build", "CMakeFiles"))
}

func TestBuildFallbackHostNamesArtifacts(t *testing.T) {
	withHost(t, "freebsd")
	dir := newProject(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "build", "install"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "build", "install", "readme.txt"), []byte("x"), 0o644))

	_, logs, err := execute(t, "build", "--project-dir", dir, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, logs, "clang-12/windows/bin/clang.exe")
	assert.FileExists(t, filepath.Join(dir, "install", "freebsd", "readme.txt"))
	assert.FileExists(t, filepath.Join(dir, "archives", "projectfarm-1.2.3-freebsd.zip"))
}

func TestBuildDryRunHelp(t *testing.T) {
	f := buildCmd.Flags().Lookup("dry-run")
	require.NotNil(t, f)
	assert.Contains(t, f.Usage, "still written")
	assert.Contains(t, buildCmd.Long, "--dry-run")
}

func TestBuildFlagsOverrideConfigFile(t *testing.T) {
	withHost(t, "linux")
	dir := newProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pfbuild.yaml"), []byte("build_type: debug\n"), 0o644))

	_, logs, err := execute(t, "build", "--project-dir", dir, "--dry-run", "--no-install")
	require.NoError(t, err)
	assert.Contains(t, logs, "--config Debug")

	_, logs, err = execute(t, "build", "--project-dir", dir, "--dry-run", "--no-install", "--build-type", "release")
	require.NoError(t, err)
	assert.Contains(t, logs, "--config Release")
	assert.NotContains(t, logs, "--config Debug")
}

func TestBuildReportsFailedStage(t *testing.T) {
	withHost(t, "linux")
	dir := newProject(t)

	// Nothing was installed, so packaging has nothing to archive.
	out, _, err := execute(t, "build", "--project-dir", dir, "--dry-run", "--cleanup")
	require.Error(t, err)
	assert.Contains(t, out, "Build failed at package.")
	assert.DirExists(t, filepath.Join(dir, "build"))
}

func TestIOSInvalidConfig(t *testing.T) {
	_, _, err := execute(t, "ios", "--project-dir", newProject(t), "--config", "fast")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestIOSUnsupportedHost(t *testing.T) {
	withHost(t, "linux")
	dir := newProject(t)

	_, _, err := execute(t, "ios", "--project-dir", dir, "--config", "Debug")
	var uerr *platform.UnsupportedHostError
	require.True(t, errors.As(err, &uerr))
	assert.NoDirExists(t, filepath.Join(dir, "iosbuild"))
	assert.NoDirExists(t, filepath.Join(dir, "iossimbuild"))
}
