package internal

import (
	"github.com/spf13/cobra"

	"github.com/snowmeltarcade/pfbuild/internal/config"
	"github.com/snowmeltarcade/pfbuild/internal/iosgen"
)

var (
	iosDevice    bool
	iosSimulator bool
	iosConfig    string
)

var iosCmd = &cobra.Command{
	Use:   "ios",
	Short: "Generate Xcode projects for iOS",
	Long: `Ios generates the Xcode projects iosbuild/ (device) and iossimbuild/
(simulator). Both are generated unless one is selected. Only available on macOS.`,
	Args: cobra.NoArgs,
	RunE: runIOS,
}

func init() {
	iosCmd.Flags().BoolVar(&iosDevice, "ios", false, "Generate only the iOS device project")
	iosCmd.Flags().BoolVar(&iosSimulator, "ios-simulator", false, "Generate only the iOS Simulator project")
	iosCmd.Flags().StringVar(&iosConfig, "config", "release", "Build configuration: debug or release")
	rootCmd.AddCommand(iosCmd)
}

func runIOS(cmd *cobra.Command, args []string) error {
	bt, err := config.ParseBuildType(iosConfig)
	if err != nil {
		return usageError(err)
	}
	p, err := loadProject(cmd)
	if err != nil {
		return err
	}

	g := &iosgen.Generator{
		Root:   p.root,
		FS:     p.fs,
		Runner: newRunner(cmd, p),
		Host:   p.host.Name,
		CMake:  tool(p.file.Tools.CMake, "cmake"),
		Env:    p.env,
		Log:    p.log,
	}
	return g.Generate(cmd.Context(), iosgen.Options{
		Targets: config.TargetsFromFlags(iosDevice, iosSimulator),
		Config:  bt,
	})
}
