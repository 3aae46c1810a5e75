package replay

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/okian/redzone/internal/adapters/actuator"
	"github.com/okian/redzone/internal/adapters/channels"
	"github.com/okian/redzone/internal/adapters/provider/fixture"
	service "github.com/okian/redzone/internal/app"
	"github.com/okian/redzone/internal/domain/types"
	"github.com/okian/redzone/pkg/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Run replays the fixture and returns the per-frame results. A non-empty
// Config.Expect that disagrees with the selections yields ErrMismatch along
// with the report.
func Run(ctx context.Context, config *Config) (*Report, error) {
	if config.FixtureFile == "" {
		return nil, ErrNoFixture
	}
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("replay")

	prov, err := fixture.Load(config.FixtureFile)
	if err != nil {
		return nil, fmt.Errorf("load fixture: %w", err)
	}
	chans := channels.New()
	if config.ChannelsFile != "" {
		if chans, err = channels.Load(config.ChannelsFile); err != nil {
			return nil, fmt.Errorf("load channels: %w", err)
		}
	}

	start := config.Start
	if start.IsZero() {
		start = time.Now().UTC().Truncate(time.Second)
	}
	step := config.Step
	if step <= 0 {
		step = DefaultStep
	}
	tenantID := config.Tenant
	if tenantID == "" {
		tenantID = DefaultTenant
	}

	var frame atomic.Int64
	clock := func() time.Time { return start.Add(time.Duration(frame.Load()) * step) }

	act := actuator.NewLog()
	opts := []service.Option{
		service.WithChannels(chans),
		service.WithClock(clock),
		service.WithLogger(log),
	}
	if config.Hysteresis > 0 {
		opts = append(opts, service.WithHysteresisBonus(config.Hysteresis))
	}
	svc := service.New(prov, act, opts...)
	if err := svc.Start(ctx); err != nil {
		return nil, fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop(context.WithoutCancel(ctx))

	if _, err := svc.CreateTenant(ctx, tenantID, ""); err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}

	log.Info(ctx, "starting replay",
		logger.String("fixture", config.FixtureFile),
		logger.Int("frames", prov.Frames()),
		logger.Duration("step", step))

	report := &Report{Fixture: config.FixtureFile, Tenant: tenantID}
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		idx := prov.Frame()
		frame.Store(int64(idx))

		rep, err := svc.Refresh(ctx, tenantID)
		if err != nil {
			return report, fmt.Errorf("frame %d: %w", idx, err)
		}
		ranking, err := svc.RankedEvents(ctx, tenantID)
		if err != nil {
			return report, fmt.Errorf("frame %d: %w", idx, err)
		}
		report.Frames = append(report.Frames, FrameResult{Frame: idx, At: clock(), Report: rep, Ranking: ranking})
		tally(stats, rep)
		if config.Verbose {
			displayFrame(idx, report.Frames[len(report.Frames)-1])
		}

		if !prov.Advance() {
			break
		}
	}
	report.Switches = act.Switches()

	mismatches := verifyTargets(ctx, config.Expect, report.Frames)
	stats.Mismatches = len(mismatches)

	if config.OutputFile != "" {
		if err := saveReport(config.OutputFile, report); err != nil {
			log.Warn(ctx, "failed to save report", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	if len(mismatches) > 0 {
		return report, fmt.Errorf("%w: %v", ErrMismatch, mismatches)
	}
	return report, nil
}

func tally(stats *Stats, rep types.CycleReport) {
	stats.Frames++
	stats.Stale += len(rep.Stale)
	stats.Evicted += len(rep.Evicted)
	if rep.Switched {
		stats.Switches++
	}
	if rep.Target == "" {
		stats.NoTarget++
	}
}

func saveReport(path string, report *Report) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, data, filePermission); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
