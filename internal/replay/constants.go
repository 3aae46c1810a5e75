package replay

import "time"

// Defaults for a replay run.
const (
	DefaultTenant = "replay"
	DefaultStep   = 30 * time.Second

	// AnyTarget in Config.Expect accepts whatever the frame selected.
	AnyTarget = "*"
)

const (
	filePermission      = 0600
	directoryPermission = 0750
)
