// Package installer runs the external dependency and asset installers. Each
// installer lives in its own repository, which is cloned into a scratch
// directory under the project root and asked to install into the project.
package installer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/snowmeltarcade/pfbuild/internal/fsutil"
	"github.com/snowmeltarcade/pfbuild/internal/runner"
	"github.com/snowmeltarcade/pfbuild/internal/vcs"
)

// Source is an installer repository.
type Source struct {
	Name   string // used in logs and the clone directory name
	URL    string
	Script string // path of the installer script inside the clone
}

// Installer clones installer repositories and runs their scripts.
type Installer struct {
	Root   string          // absolute project root
	FS     billy.Filesystem // rooted at Root
	Cloner vcs.Cloner
	Runner runner.Runner
	Python string
	Env    map[string]string
	Log    *zap.SugaredLogger
}

const scratchPrefix = "__temp"

// Install clones src into a fresh scratch directory, runs its script with
// "-p <root>" from inside the clone, and removes the scratch directory
// whatever the outcome.
func (in *Installer) Install(ctx context.Context, src Source) (err error) {
	in.Log.Infow("Installing", "name", src.Name, "url", src.URL)

	scratch := scratchPrefix + "-" + uuid.NewString()
	if err := fsutil.MakeDir(in.FS, scratch); err != nil {
		return fmt.Errorf("install %s: %w", src.Name, err)
	}
	defer func() {
		if rerr := fsutil.RemoveDir(in.FS, scratch); rerr != nil {
			in.Log.Warnw("Failed to remove scratch directory", "error", rerr)
		}
	}()

	cloneDir := filepath.Join(in.Root, scratch, src.Name)
	if err := in.Cloner.Clone(ctx, src.URL, cloneDir); err != nil {
		return fmt.Errorf("install %s: %w", src.Name, err)
	}

	_, err = in.Runner.Run(ctx, runner.Cmd{
		Name: in.Python,
		Args: []string{src.Script, "-p", in.Root},
		Dir:  cloneDir,
		Env:  in.Env,
	})
	if err != nil {
		return fmt.Errorf("install %s: %w", src.Name, err)
	}

	in.Log.Infow("Installed", "name", src.Name)
	return nil
}
