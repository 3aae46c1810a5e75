package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/redzone/internal/replay"
)

const defaultRunTimeout = 5 * time.Minute

func main() {
	var (
		fixtureFile  = flag.String("fixture", "", "Fixture YAML to replay")
		channelsFile = flag.String("channels", "", "Channel map YAML")
		step         = flag.Duration("step", replay.DefaultStep, "Virtual time between frames")
		hysteresis   = flag.Float64("hysteresis", 0, "Hysteresis bonus for the current event")
		expect       = flag.String("expect", "", "Comma separated expected target per frame")
		outputFile   = flag.String("output", "", "Write the JSON report to this file")
		logFile      = flag.String("log", "", "Log file (default: replay_log_TIMESTAMP.log)")
		verbose      = flag.Bool("verbose", false, "Print the ranking of every frame")
		help         = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help || *fixtureFile == "" {
		replay.ShowHelp()
		return
	}

	if err := replay.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &replay.Config{
		FixtureFile:  *fixtureFile,
		ChannelsFile: *channelsFile,
		Step:         *step,
		Hysteresis:   *hysteresis,
		Expect:       replay.ParseExpect(*expect),
		OutputFile:   *outputFile,
		LogFile:      *logFile,
		Verbose:      *verbose,
	}

	if _, err := replay.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Replay failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}
