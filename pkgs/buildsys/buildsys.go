package buildsys

import "context"

// BuildSystem captures the lifecycle shared by build generators.
// Every step runs in the build directory it was configured with; nothing
// depends on the process working directory.
type BuildSystem interface {
	Configure(ctx context.Context, args ...string) error
	Build(ctx context.Context, args ...string) error
	Test(ctx context.Context, args ...string) error
	Install(ctx context.Context, args ...string) error
}
