package replay

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/okian/redzone/pkg/logger"
)

// verifyTargets compares each frame's selected target with the expectation.
// Frames past the end of expect are not checked.
func verifyTargets(ctx context.Context, expect []string, frames []FrameResult) []string {
	var mismatches []string
	for i, want := range expect {
		if i >= len(frames) {
			mismatches = append(mismatches, fmt.Sprintf("frame %d: not replayed", i))
			continue
		}
		want = strings.TrimSpace(want)
		if want == AnyTarget {
			continue
		}
		if got := frames[i].Report.Target; got != want {
			mismatches = append(mismatches, fmt.Sprintf("frame %d: want %q got %q", i, want, got))
		}
	}
	if len(mismatches) > 0 {
		logger.Get().Warn(ctx, "selection mismatches", logger.Int("count", len(mismatches)))
	}
	return mismatches
}

// ParseExpect splits a comma separated list of targets. "-" stands for no
// target.
func ParseExpect(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "-" {
			p = ""
		}
		parts[i] = p
	}
	return parts
}

func displayFrame(idx int, fr FrameResult) {
	r := fr.Report
	log.Printf("frame %d at %s: live=%d target=%q outcome=%s stale=%v evicted=%v",
		idx, fr.At.Format("15:04:05"), r.Live, r.Target, r.Outcome, r.Stale, r.Evicted)
	for _, e := range fr.Ranking {
		marker := " "
		if e.Current {
			marker = "*"
		}
		log.Printf("  %s %2d. %-8s %9.1f  %s", marker, e.Rank, e.EventID, e.Score, e.Reason)
	}
}

func displayFinalStats(stats *Stats) {
	log.Printf("replay finished in %s: frames=%d switches=%d stale=%d evicted=%d no_target=%d mismatches=%d",
		stats.Duration, stats.Frames, stats.Switches, stats.Stale, stats.Evicted, stats.NoTarget, stats.Mismatches)
}
