package internal

import (
	"github.com/spf13/cobra"

	"github.com/snowmeltarcade/pfbuild/internal/archive"
	"github.com/snowmeltarcade/pfbuild/internal/build"
	"github.com/snowmeltarcade/pfbuild/internal/config"
	"github.com/snowmeltarcade/pfbuild/internal/installer"
	"github.com/snowmeltarcade/pfbuild/internal/pipeline"
	"github.com/snowmeltarcade/pfbuild/internal/runner"
	"github.com/snowmeltarcade/pfbuild/internal/vcs"
)

var (
	buildInstallAssets       bool
	buildInstallDependencies bool
	buildNoBuild             bool
	buildNoInstall           bool
	buildArchiveName         string
	buildCleanup             bool
	buildIOS                 bool
	buildIOSSimulator        bool
	buildType                string
	buildVerbose             bool
	buildGitBackend          string
	buildDryRun              bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build, test, install and package the project",
	Long: `Build runs the pipeline stages in order: install dependencies, install
assets, configure/build/test/install, package, clean up. The first failing
stage stops the run and a per-stage summary is printed.

With --dry-run no external command is run, but the filesystem steps are:
build/ and install/<os> are created and an archive is written from whatever
build/install already holds.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	flags := buildCmd.Flags()
	flags.BoolVar(&buildInstallAssets, "install-assets", false, "Install assets before building")
	flags.BoolVar(&buildInstallDependencies, "install-dependencies", false, "Install dependencies before building")
	flags.BoolVar(&buildNoBuild, "no-build", false, "Skip configure, build, test and install; reuse the previous output")
	flags.BoolVar(&buildNoInstall, "no-install", false, "Do not package the installed tree")
	flags.StringVar(&buildArchiveName, "archive-name", "", "Archive base name (default projectfarm-<version>-<os>)")
	flags.BoolVar(&buildCleanup, "cleanup", false, "Remove the build and install directories afterwards")
	flags.BoolVar(&buildIOS, "ios", false, "Build for iOS devices")
	flags.BoolVar(&buildIOSSimulator, "ios-simulator", false, "Build for the iOS Simulator")
	flags.StringVar(&buildType, "build-type", "", "debug or release (default from "+config.FileName+", else release)")
	flags.BoolVar(&buildVerbose, "verbose-build", false, "Pass --verbose to cmake --build")
	flags.StringVar(&buildGitBackend, "git-backend", "", "Clone with git or go-git (default from "+config.FileName+", else git)")
	flags.BoolVar(&buildDryRun, "dry-run", false, "Log external commands instead of running them; directories, the install copy and the archive are still written")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	mode, err := config.ModeFromFlags(buildIOS, buildIOSSimulator)
	if err != nil {
		return usageError(err)
	}

	p, err := loadProject(cmd)
	if err != nil {
		return err
	}
	bt, err := config.ParseBuildType(override(cmd, "build-type", buildType, p.file.BuildType))
	if err != nil {
		return usageError(err)
	}
	opts := config.Options{
		InstallAssets:       buildInstallAssets,
		InstallDependencies: buildInstallDependencies,
		NoBuild:             buildNoBuild,
		NoInstall:           buildNoInstall,
		Cleanup:             buildCleanup,
		ArchiveName:         buildArchiveName,
		Mode:                mode,
		BuildType:           bt,
		VerboseBuild:        buildVerbose,
	}

	r := newRunner(cmd, p)
	backend := vcs.Backend(override(cmd, "git-backend", buildGitBackend, p.file.GitBackend))
	if buildDryRun {
		r = &runner.DryRun{Log: p.log}
		// go-git clones in process; only the CLI backend goes through r.
		backend = vcs.BackendGit
	}
	cloner, err := vcs.New(backend, r, cmd.ErrOrStderr(), vcs.WithGitPath(p.file.Tools.Git))
	if err != nil {
		return usageError(err)
	}

	deps := pipeline.Deps{
		FS: p.fs,
		Installer: &installer.Installer{
			Root:   p.root,
			FS:     p.fs,
			Cloner: cloner,
			Runner: r,
			Python: tool(p.file.Tools.Python, "python3"),
			Env:    p.env,
			Log:    p.log,
		},
		Dependencies: installer.Source{Name: "dependencies", URL: p.file.Dependencies.URL, Script: p.file.Dependencies.Script},
		Assets:       installer.Source{Name: "assets", URL: p.file.Assets.URL, Script: p.file.Assets.Script},
		Driver: &build.Driver{
			Root:   p.root,
			FS:     p.fs,
			Runner: r,
			Host:   p.host,
			Target: build.TargetOf(mode),
			Tools: build.Tools{
				CMake: tool(p.file.Tools.CMake, "cmake"),
				CTest: tool(p.file.Tools.CTest, "ctest"),
			},
			Env:       p.env,
			Bundle:    p.file.Bundle,
			Log:       p.log,
			BuildType: opts.BuildType,
			NoBuild:   opts.NoBuild,
			Verbose:   opts.VerboseBuild,
		},
		Packager: &archive.Packager{FS: p.fs, Project: p.file.Project, HostOS: p.host.OS, Log: p.log},
		Log:      p.log,
		Version:  p.version,
	}

	report, err := pipeline.Run(cmd.Context(), deps, opts)
	if perr := report.Print(cmd.OutOrStdout()); perr != nil {
		p.log.Warnw("Failed to print summary", "error", perr)
	}
	return err
}
