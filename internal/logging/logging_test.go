package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "debug", Format: "json", Output: &buf}).With(String("component", "engine"))
	l.Info(context.Background(), "target committed", String("target", "Mars"), Float("distance", 1.5), Err(errors.New("boom")))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected a JSON record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "target committed" {
		t.Errorf("expected msg, got %v", rec["msg"])
	}
	if rec["component"] != "engine" || rec["target"] != "Mars" {
		t.Errorf("expected fields, got %v", rec)
	}
	if rec["error"] != "boom" {
		t.Errorf("expected error field, got %v", rec["error"])
	}
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Output: &buf})
	l.Info(context.Background(), "quiet")
	l.Warn(context.Background(), "loud")
	if strings.Contains(buf.String(), "quiet") {
		t.Errorf("expected info to be filtered, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "loud") {
		t.Errorf("expected warn to be written, got %q", buf.String())
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("ORRERY_LOG_LEVEL", "debug")
	t.Setenv("ORRERY_LOG_FORMAT", "json")
	cfg := FromEnv(Config{Format: "text"})
	if cfg.Level != "debug" {
		t.Errorf("expected debug, got %q", cfg.Level)
	}
	if cfg.Format != "text" {
		t.Errorf("expected explicit format to win, got %q", cfg.Format)
	}
}

func TestWithJump(t *testing.T) {
	var buf bytes.Buffer
	ctx, l := WithJump(context.Background(), New(Config{Output: &buf}))
	id := JumpID(ctx)
	if id == "" {
		t.Fatal("expected a jump id")
	}
	ctx2, _ := WithJump(ctx, nil)
	if JumpID(ctx2) != id {
		t.Errorf("expected id to be reused, got %q", JumpID(ctx2))
	}
	l.Info(ctx, "fetch")
	if !strings.Contains(buf.String(), "jump_id="+id) {
		t.Errorf("expected jump id in %q", buf.String())
	}
}

func TestNoop(t *testing.T) {
	l := Noop().With(Int("n", 1))
	l.Error(context.Background(), "dropped")
}
