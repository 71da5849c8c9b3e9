package vcs

import (
	"context"
	"fmt"
	"io"

	"github.com/go-git/go-git/v5"

	"github.com/snowmeltarcade/pfbuild/internal/runner"
)

// Cloner fetches a remote repository into a local directory.
type Cloner interface {
	// Clone clones remote into dir. dir must not exist or be empty.
	Clone(ctx context.Context, remote, dir string) error
}

// Backend names a Cloner implementation.
type Backend string

const (
	BackendGit   Backend = "git"    // the git command line client
	BackendGoGit Backend = "go-git" // the pure Go implementation
)

// gitCLI implements Cloner by running git through a runner.Runner.
type gitCLI struct {
	run runner.Runner
	git string
}

// GitOption configures the git command line backend.
type GitOption func(*gitCLI)

// WithGitPath sets a custom git executable path.
func WithGitPath(path string) GitOption {
	return func(g *gitCLI) {
		if path != "" {
			g.git = path
		}
	}
}

// NewGitCLI returns a Cloner that shells out to git.
func NewGitCLI(r runner.Runner, opts ...GitOption) Cloner {
	g := &gitCLI{run: r, git: "git"}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *gitCLI) Clone(ctx context.Context, remote, dir string) error {
	_, err := g.run.Run(ctx, runner.Cmd{
		Name: g.git,
		Args: []string{"clone", "--depth", "1", remote, dir},
	})
	if err != nil {
		return fmt.Errorf("clone %s: %w", remote, err)
	}
	return nil
}

// goGit implements Cloner with go-git.
type goGit struct {
	progress io.Writer
}

// NewGoGit returns a Cloner that does not need a git binary. progress may
// be nil.
func NewGoGit(progress io.Writer) Cloner {
	return &goGit{progress: progress}
}

func (g *goGit) Clone(ctx context.Context, remote, dir string) error {
	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:      remote,
		Progress: g.progress,
	})
	if err != nil {
		return fmt.Errorf("clone %s: %w", remote, err)
	}
	return nil
}

// New returns the Cloner for backend.
func New(backend Backend, r runner.Runner, progress io.Writer, opts ...GitOption) (Cloner, error) {
	switch backend {
	case "", BackendGit:
		return NewGitCLI(r, opts...), nil
	case BackendGoGit:
		return NewGoGit(progress), nil
	default:
		return nil, fmt.Errorf("unsupported git backend: %s", backend)
	}
}
