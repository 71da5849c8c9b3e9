// Package pipeline sequences the stages of a build run and reports the
// outcome of each one.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/snowmeltarcade/pfbuild/internal/archive"
	"github.com/snowmeltarcade/pfbuild/internal/build"
	"github.com/snowmeltarcade/pfbuild/internal/cleanup"
	"github.com/snowmeltarcade/pfbuild/internal/config"
	"github.com/snowmeltarcade/pfbuild/internal/installer"
	"github.com/snowmeltarcade/pfbuild/internal/manifest"
	"github.com/snowmeltarcade/pfbuild/internal/platform"
)

// Stage names in execution order.
const (
	StageDependencies = "install-dependencies"
	StageAssets       = "install-assets"
	StageBuild        = "build"
	StagePackage      = "package"
	StageCleanup      = "cleanup"
)

var stageNames = []string{StageDependencies, StageAssets, StageBuild, StagePackage, StageCleanup}

// Status is the outcome of one stage.
type Status string

const (
	Passed  Status = "passed"
	Failed  Status = "failed"
	Skipped Status = "skipped"
)

// StageResult is one line of a Report. Err may be set on a passed stage to
// carry non-fatal warnings.
type StageResult struct {
	Name     string
	Status   Status
	Err      error
	Duration time.Duration
}

// Report lists every stage of a run in order.
type Report struct {
	RunID  string
	Stages []StageResult
}

// Failed returns the first failed stage, or nil.
func (r *Report) Failed() *StageResult {
	for i := range r.Stages {
		if r.Stages[i].Status == Failed {
			return &r.Stages[i]
		}
	}
	return nil
}

// Stage returns the result named name, or nil.
func (r *Report) Stage(name string) *StageResult {
	for i := range r.Stages {
		if r.Stages[i].Name == name {
			return &r.Stages[i]
		}
	}
	return nil
}

// Print writes a summary table to w.
func (r *Report) Print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Run %s\n", r.RunID)
	for _, s := range r.Stages {
		line := fmt.Sprintf("  %s\t%s\t%s", s.Name, s.Status, s.Duration.Round(time.Millisecond))
		if s.Err != nil {
			line += "\t" + s.Err.Error()
		}
		fmt.Fprintln(tw, line)
	}
	if f := r.Failed(); f != nil {
		fmt.Fprintf(tw, "Build failed at %s.\n", f.Name)
	} else {
		fmt.Fprintln(tw, "Build succeeded.")
	}
	return tw.Flush()
}

// Deps are the collaborators of a run.
type Deps struct {
	FS           billy.Filesystem // rooted at the project root
	Installer    *installer.Installer
	Dependencies installer.Source
	Assets       installer.Source
	Driver       *build.Driver
	Packager     *archive.Packager
	Log          *zap.SugaredLogger

	// Version reads the project version. It is called at most once.
	Version func() (manifest.Version, error)
}

// Run executes the stages selected by opts. The first failing stage stops
// the run and the remaining stages are reported as skipped. The returned
// error is that of the failed stage.
func Run(ctx context.Context, deps Deps, opts config.Options) (*Report, error) {
	r := &run{
		deps:   deps,
		opts:   opts,
		report: &Report{RunID: uuid.NewString()},
	}
	r.version = sync.OnceValues(deps.Version)
	deps.Driver.Version = r.version

	log := deps.Log.With("run", r.report.RunID)
	log.Infow("Starting build", "mode", opts.Mode.String())

	// A mobile build on an incapable host fails before any stage touches
	// the project or runs a command.
	if opts.Mode.IsMobile() {
		if err := platform.RequireMobile(deps.Driver.Host.Name, deps.Driver.Target.String()); err != nil {
			for _, name := range stageNames {
				res := StageResult{Name: name, Status: Skipped}
				if name == StageBuild {
					res.Status, res.Err = Failed, err
				}
				r.report.Stages = append(r.report.Stages, res)
			}
			log.Errorw("Build failed", "stage", StageBuild, "error", err)
			return r.report, fmt.Errorf("%s: %w", StageBuild, err)
		}
	}

	r.stage(ctx, StageDependencies, opts.InstallDependencies, func(ctx context.Context) error {
		return deps.Installer.Install(ctx, deps.Dependencies)
	})
	r.stage(ctx, StageAssets, opts.InstallAssets, func(ctx context.Context) error {
		return deps.Installer.Install(ctx, deps.Assets)
	})
	r.stage(ctx, StageBuild, true, r.build)
	r.stage(ctx, StagePackage, !opts.NoInstall, r.pack)
	r.stage(ctx, StageCleanup, opts.Cleanup, func(context.Context) error {
		// Removal failures are warnings; the stage still passes.
		if err := cleanup.Clean(deps.FS, deps.Log, build.BuildDirName, build.InstallDirName); err != nil {
			r.report.Stages[len(r.report.Stages)-1].Err = err
		}
		return nil
	})

	if f := r.report.Failed(); f != nil {
		log.Errorw("Build failed", "stage", f.Name, "error", f.Err)
		return r.report, fmt.Errorf("%s: %w", f.Name, f.Err)
	}
	log.Info("Finished build")
	return r.report, nil
}

type run struct {
	deps     Deps
	opts     config.Options
	report   *Report
	version  func() (manifest.Version, error)
	artifact *build.Artifact
	failed   bool
}

func (r *run) stage(ctx context.Context, name string, enabled bool, fn func(context.Context) error) {
	if !enabled || r.failed {
		r.report.Stages = append(r.report.Stages, StageResult{Name: name, Status: Skipped})
		return
	}
	r.report.Stages = append(r.report.Stages, StageResult{Name: name})
	res := &r.report.Stages[len(r.report.Stages)-1]

	start := time.Now()
	err := ctx.Err()
	if err == nil {
		err = fn(ctx)
	}
	res.Duration = time.Since(start)
	if err != nil {
		r.failed = true
		res.Status, res.Err = Failed, err
		r.deps.Log.Errorw("Stage failed", "stage", name, "error", err)
		return
	}
	res.Status = Passed
	r.deps.Log.Debugw("Stage passed", "stage", name, "duration", res.Duration)
}

func (r *run) build(ctx context.Context) error {
	art, err := r.deps.Driver.Run(ctx)
	if err != nil {
		return err
	}
	r.artifact = art
	return nil
}

func (r *run) pack(context.Context) error {
	if r.artifact == nil {
		return errors.New("no build artifact to package")
	}
	v, err := r.version()
	if err != nil {
		return err
	}
	_, err = r.deps.Packager.Pack(r.artifact.InstallDest, v, r.opts.ArchiveName)
	return err
}
