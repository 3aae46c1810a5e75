package replay

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/redzone/pkg/logger"
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		logFile = "replay_log_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	log.SetOutput(io.MultiWriter(os.Stdout, file))
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the replay tool.
func ShowHelp() {
	os.Stdout.WriteString(`Redzone Replay
==============

Replays a recorded Sunday through the ranking engine, one monitoring
cycle per fixture frame, and prints what would have been on air.

Usage:
  go run ./cmd/replay -fixture testdata/sunday.yaml [options]

Options:
  -fixture string
        Fixture YAML to replay (required)
  -channels string
        Channel map YAML (event_id -> channel)
  -step duration
        Virtual time between frames (default 30s)
  -hysteresis float
        Hysteresis bonus for the current event (default 5)
  -expect string
        Comma separated expected target per frame; "*" skips a frame
  -output string
        Write the JSON report to this file
  -log string
        Log file (default: replay_log_TIMESTAMP.log)
  -verbose
        Print the ranking of every frame
  -help
        Show this help message

Examples:
  go run ./cmd/replay -fixture testdata/sunday.yaml -verbose
  go run ./cmd/replay -fixture testdata/sunday.yaml -expect 401,401,401,402
`)
}
