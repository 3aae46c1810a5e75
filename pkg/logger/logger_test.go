package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoggerInit(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	if err := InitWithWriter(nil); err == nil {
		t.Fatal("expected an error for a nil writer")
	}
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	Get().Info(ctx, "cycle finished",
		String("tenant", "default"),
		Int("events", 3),
		Bool("switched", true),
		Duration("took", 1500*time.Millisecond),
		Error(errors.New("boom")),
	)

	out := buf.String()
	for _, want := range []string{"cycle finished", "tenant=default", "events=3", "switched=true", "took=1.5s", "error=boom", "source="} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = SetLevelString("info") }()

	ctx := context.Background()
	Get().Debug(ctx, "hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug record written at info level: %q", buf.String())
	}

	if err := SetLevelString("DEBUG"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	Get().Debug(ctx, "visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("debug record missing: %q", buf.String())
	}

	if err := SetLevelString("loud"); err == nil {
		t.Fatal("expected an error for an unknown level")
	}
}

func TestLoggerNamedAndWith(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Named("tracker").With(String("tenant", "t1")).Warn(context.Background(), "score regression", Int("home", 7))

	out := buf.String()
	if !strings.Contains(out, "tracker.tenant=t1") {
		t.Errorf("expected grouped tenant field in %q", out)
	}
	if !strings.Contains(out, "tracker.home=7") {
		t.Errorf("expected grouped home field in %q", out)
	}
}
