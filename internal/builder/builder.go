package builder

import "context"

// RunCtx carries the shared state of a generation run between steps.
type RunCtx struct {
	// Version is the resolved Theia IDE version, without a leading v
	Version string

	// SrcDir is the source tree the steps read from: the fresh clone when
	// the main source step ran, the project root otherwise
	SrcDir string

	// WorkDir is the scratch directory, removed after the run
	WorkDir string

	// OutDir is the persistent output directory for finished artifacts
	OutDir string
}

// Step is one artifact-producing stage of a generation run
type Step interface {
	// Name returns the human-readable step name for logs
	Name() string

	// Run produces the step's artifacts in run.OutDir
	Run(ctx context.Context, run *RunCtx) error
}
