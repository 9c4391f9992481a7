package obslog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARN":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		" error ": zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNormalizeFormat(t *testing.T) {
	if got := normalizeFormat(" JSON "); got != "json" {
		t.Fatalf("normalizeFormat json: %q", got)
	}
	if got := normalizeFormat("xml"); got != "legacy" {
		t.Fatalf("normalizeFormat fallback: %q", got)
	}
}

func TestBuildWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "review.log")
	logger, err := Build(Options{Level: "info", ToFile: true, FilePath: path, Format: "json"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	logger.Info("hello from test")
	_ = logger.Sync()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(raw), "hello from test") {
		t.Fatalf("log file missing entry: %s", raw)
	}
}

func TestLDefaultsToNop(t *testing.T) {
	if L() == nil {
		t.Fatalf("global logger must never be nil")
	}
}
