package diag

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New("test", LevelWarn, &buf)

	l.Debugf("should not appear")
	l.Infof("should not appear either")
	l.Warnf("this one shows up")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Fatalf("logger wrote below its configured level: %q", out)
	}
	if !strings.Contains(out, "this one shows up") {
		t.Fatalf("logger dropped a message at its configured level: %q", out)
	}
	if !strings.Contains(out, "[test]") {
		t.Fatalf("expected subsystem prefix in output: %q", out)
	}
}

func TestDiscardWritesNothing(t *testing.T) {
	l := Discard()
	l.Errorf("boom")
	// Discard has no observable writer; just assert it doesn't panic.
}

func TestWithSubsystem(t *testing.T) {
	var buf bytes.Buffer
	l := New("orchestrator", LevelInfo, &buf)
	child := l.WithSubsystem("parse")
	child.Infof("hello")
	if !strings.Contains(buf.String(), "[orchestrator.parse]") {
		t.Fatalf("expected nested subsystem prefix, got %q", buf.String())
	}
}
