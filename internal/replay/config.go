package replay

import (
	"time"

	"github.com/okian/redzone/internal/domain/types"
)

// Config holds configuration for a replay run.
type Config struct {
	FixtureFile  string        // YAML fixture to replay
	ChannelsFile string        // optional event to channel map
	Tenant       string        // tenant id used for the run
	Start        time.Time     // virtual clock at frame 0
	Step         time.Duration // virtual time between frames
	Hysteresis   float64       // hysteresis bonus, 0 keeps the default
	Expect       []string      // expected target per frame, "" means no target, "*" skips
	OutputFile   string        // JSON report path; empty disables the report
	LogFile      string        // log file for run output
	Verbose      bool          // print the ranking of every frame
}

// FrameResult is what one frame produced.
type FrameResult struct {
	Frame   int                 `json:"frame"`
	At      time.Time           `json:"at"`
	Report  types.CycleReport   `json:"report"`
	Ranking []types.RankedEvent `json:"ranking"`
}

// Stats holds run statistics.
type Stats struct {
	Frames     int
	Switches   int
	Stale      int
	Evicted    int
	NoTarget   int
	Mismatches int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}

// Report is the full outcome of a replay.
type Report struct {
	Fixture  string        `json:"fixture"`
	Tenant   string        `json:"tenant"`
	Frames   []FrameResult `json:"frames"`
	Switches []string      `json:"switches"`
}
