package driving

import "context"

// IngestStats aggregates counters for a completed or in-progress ingest
// run, the way the teacher's domain.SyncStats does for source syncs.
type IngestStats struct {
	Processed  int
	Added      int
	Removed    int
	Rejected   int // failed Normalize
	Filtered   int // dropped by ShouldFilter
	SegmentErrors int
}

// FullBuildOptions configures a full-build ingest run.
type FullBuildOptions struct {
	InputPath      string
	OutputPath     string
	HeapBytes      int64
	CommitInterval int
	WordBatchSize  int
}

// DailyDeltaOptions configures a daily-delta ingest run.
type DailyDeltaOptions struct {
	AdditionsPath string // optional, "" to skip
	RemovalsPath  string // optional, "" to skip
	IndexPath     string
	WordBatchSize int
}

// IngestService is the driving port the CLI calls into for the two
// ingest modes plus the administrative stats/optimize operations.
type IngestService interface {
	FullBuild(ctx context.Context, opts FullBuildOptions) (IngestStats, error)
	DailyDelta(ctx context.Context, opts DailyDeltaOptions) (IngestStats, error)
	Stats(ctx context.Context) (map[string]any, error)
	Optimize(ctx context.Context) error
}
