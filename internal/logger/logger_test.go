package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestJSONLevelFiltering(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelWarn)
	log.Info("hidden")
	if buf.Len() > 0 {
		t.Fatalf("info leaked at warn level: %s", buf.String())
	}

	log.Warn("plan", "kc", 256)
	out := buf.String()
	if !strings.Contains(out, `"kc":256`) || !strings.Contains(out, `"level":"WARN"`) {
		t.Fatalf("unexpected JSON output: %s", out)
	}
}

func TestPrettyAttrs(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := Pretty(&buf, slog.LevelDebug).With("run", "abc").WithGroup("blocks")
	log.Debug("tuned", "kc", 128, "elapsed", 1500*time.Microsecond, "note", "two words")

	out := buf.String()
	for _, want := range []string{"tuned", "run=abc", "blocks.kc=128", "blocks.elapsed=1.5ms", `blocks.note="two words"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
	if strings.Contains(out, "blocks.run") {
		t.Fatalf("attr added before group was prefixed: %q", out)
	}
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("expected one line, got %q", out)
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	for _, format := range []string{"", "pretty", "json", "TEXT"} {
		var buf bytes.Buffer
		log, err := Open(&buf, format, "info")
		if err != nil {
			t.Fatalf("Open(%q): %v", format, err)
		}
		log.Info("hello")
		if !strings.Contains(buf.String(), "hello") {
			t.Fatalf("Open(%q) wrote %q", format, buf.String())
		}
	}
	if _, err := Open(&bytes.Buffer{}, "xml", "info"); err == nil {
		t.Fatal("expected error for unknown format")
	}
	if _, err := Open(&bytes.Buffer{}, "json", "loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	ctx := WithContext(context.Background(), JSON(&buf, slog.LevelInfo))
	FromContext(ctx).Info("from ctx")
	if !strings.Contains(buf.String(), "from ctx") {
		t.Fatalf("context logger not used: %q", buf.String())
	}
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext returned nil without a logger")
	}
	Discard().Error("dropped")
}
