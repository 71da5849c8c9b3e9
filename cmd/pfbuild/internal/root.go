package internal

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/go-git/go-billy/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/snowmeltarcade/pfbuild/internal/config"
	"github.com/snowmeltarcade/pfbuild/internal/env"
	"github.com/snowmeltarcade/pfbuild/internal/fsutil"
	"github.com/snowmeltarcade/pfbuild/internal/logging"
	"github.com/snowmeltarcade/pfbuild/internal/manifest"
	"github.com/snowmeltarcade/pfbuild/internal/platform"
	"github.com/snowmeltarcade/pfbuild/internal/runner"
)

var (
	projectDir string
	configFile string
	verbose    bool
)

// hostOS is replaced in tests.
var hostOS = runtime.GOOS

var rootCmd = &cobra.Command{
	Use:   "pfbuild",
	Short: "pfbuild builds and packages projectfarm",
	Long: `pfbuild drives the projectfarm CMake build: it installs dependencies and
assets, configures, builds, tests and installs the project with the vendored
toolchain, packages the result into a zip archive and generates Xcode projects
for iOS.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&projectDir, "project-dir", "", "Project root (default: nearest directory with a versioned CMakeLists.txt)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config-file", "", "Project file (default: <project-dir>/"+config.FileName+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Fatal(err)
	}
}

// project is everything a command needs to know about the project it
// operates on.
type project struct {
	root string
	fs   billy.Filesystem
	file *config.File
	env  map[string]string
	host platform.Info
	log  *zap.SugaredLogger
}

func loadProject(cmd *cobra.Command) (*project, error) {
	logger := logging.New(cmd.ErrOrStderr(), verbose)

	file := config.Default()
	if configFile != "" {
		f, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		file = f
	}
	root, err := env.ProjectDir(projectDir, file.Project)
	if err != nil {
		return nil, err
	}
	if configFile == "" {
		if file, err = config.Load(filepath.Join(root, config.FileName)); err != nil {
			return nil, err
		}
	}
	vars, err := file.LoadEnv(root)
	if err != nil {
		return nil, err
	}

	host := platform.Host(root, hostOS)
	if host.Fallback {
		logger.Warnw("Unrecognized host OS, using the windows toolchain", "goos", hostOS)
	}
	logger.Debugw("Loaded project", "root", root, "host", host.Name)

	return &project{
		root: root,
		fs:   fsutil.OS(root),
		file: file,
		env:  vars,
		host: host,
		log:  logger,
	}, nil
}

func (p *project) version() (manifest.Version, error) {
	return manifest.Load(p.root, p.file.Project)
}

func newRunner(cmd *cobra.Command, p *project) runner.Runner {
	return &runner.Exec{Log: p.log, Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()}
}

// tool returns override when set, otherwise name resolved on PATH.
func tool(override, name string) string {
	if override != "" {
		return override
	}
	return runner.LookPath(name)
}

// override returns the flag value when the flag was set on the command
// line, otherwise the value from the project file.
func override(cmd *cobra.Command, flag, flagValue, fileValue string) string {
	if cmd.Flags().Changed(flag) {
		return flagValue
	}
	return fileValue
}

func usageError(err error) error {
	return fmt.Errorf("invalid usage: %w", err)
}
