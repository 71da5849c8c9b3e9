package installer

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/snowmeltarcade/pfbuild/internal/fsutil"
	"github.com/snowmeltarcade/pfbuild/internal/runner"
	"github.com/snowmeltarcade/pfbuild/internal/vcs"
)

type fakeCloner struct {
	fs    billy.Filesystem
	root  string
	err   error
	calls []string
}

func (c *fakeCloner) Clone(_ context.Context, remote, dir string) error {
	c.calls = append(c.calls, remote+" "+dir)
	if c.err != nil {
		return c.err
	}
	rel, _ := filepath.Rel(c.root, dir)
	return c.fs.MkdirAll(rel, 0o755)
}

func newInstaller(fs billy.Filesystem, cl vcs.Cloner, r runner.Runner) *Installer {
	return &Installer{
		Root:   "/proj",
		FS:     fs,
		Cloner: cl,
		Runner: r,
		Python: "python3",
		Env:    map[string]string{"CC": "clang"},
		Log:    zap.NewNop().Sugar(),
	}
}

var deps = Source{Name: "project-dependencies", URL: "https://example.com/project-dependencies.git", Script: "install_all.py"}

// scratchLeft reports whether the scratch directory of the first clone
// still exists.
func scratchLeft(t *testing.T, fs billy.Filesystem, cl *fakeCloner) bool {
	t.Helper()
	require.NotEmpty(t, cl.calls)
	_, dir, _ := strings.Cut(cl.calls[0], " ")
	rel, err := filepath.Rel("/proj", dir)
	require.NoError(t, err)
	scratch := strings.Split(filepath.ToSlash(rel), "/")[0]
	require.True(t, strings.HasPrefix(scratch, scratchPrefix+"-"), scratch)
	return fsutil.Exists(fs, scratch)
}

func TestInstall(t *testing.T) {
	fs := memfs.New()
	cl := &fakeCloner{fs: fs, root: "/proj"}
	rec := &runner.Recorder{}

	require.NoError(t, newInstaller(fs, cl, rec).Install(context.Background(), deps))

	require.Len(t, cl.calls, 1)
	assert.True(t, strings.HasPrefix(cl.calls[0], deps.URL+" /proj/__temp-"))

	cmds := rec.Cmds()
	require.Len(t, cmds, 1)
	assert.Equal(t, "python3", cmds[0].Name)
	assert.Equal(t, []string{"install_all.py", "-p", "/proj"}, cmds[0].Args)
	assert.True(t, strings.HasSuffix(cmds[0].Dir, "/project-dependencies"))
	assert.Equal(t, "clang", cmds[0].Env["CC"])

	assert.False(t, scratchLeft(t, fs, cl), "scratch directory left behind")
}

func TestInstallCloneFailure(t *testing.T) {
	fs := memfs.New()
	boom := errors.New("network down")
	cl := &fakeCloner{fs: fs, root: "/proj", err: boom}
	rec := &runner.Recorder{}

	err := newInstaller(fs, cl, rec).Install(context.Background(), deps)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, rec.Cmds(), "script must not run after a failed clone")
	assert.False(t, scratchLeft(t, fs, cl))
}

func TestInstallScriptFailure(t *testing.T) {
	fs := memfs.New()
	cl := &fakeCloner{fs: fs, root: "/proj"}
	rec := &runner.Recorder{Fail: func(runner.Cmd) bool { return true }}

	err := newInstaller(fs, cl, rec).Install(context.Background(), deps)
	var pe *runner.ProcessError
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, err.Error(), "project-dependencies")
	assert.False(t, scratchLeft(t, fs, cl))
}
