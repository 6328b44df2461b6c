package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func resetLogger() {
	defaultLogger = nil
	once = *new(sync.Once)
}

func TestLevelFiltering(t *testing.T) {
	resetLogger()
	var buf bytes.Buffer
	Init("warn")
	SetOutput(&buf)
	SetColorEnable(false)

	Debugf("debug message")
	Infof("info message")
	Warnf("warn message")
	Errorf("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") {
		t.Error("debug message should be filtered at warn level")
	}
	if strings.Contains(out, "info message") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, "warn message") {
		t.Error("warn message not found in output")
	}
	if !strings.Contains(out, "error message") {
		t.Error("error message not found in output")
	}
}

func TestSetLevel(t *testing.T) {
	resetLogger()
	var buf bytes.Buffer
	Init("error")
	SetOutput(&buf)
	SetColorEnable(false)

	Infof("before")
	SetLevel("debug")
	Infof("after")

	out := buf.String()
	if strings.Contains(out, "before") {
		t.Error("message logged before level change should be filtered")
	}
	if !strings.Contains(out, "after") {
		t.Error("message logged after level change not found")
	}
}

func TestColorDisabled(t *testing.T) {
	resetLogger()
	var buf bytes.Buffer
	Init("info")
	SetOutput(&buf)
	SetColorEnable(false)

	Infof("plain message")

	out := buf.String()
	if strings.Contains(out, "\033[") {
		t.Error("output contains ANSI color codes with colors disabled")
	}
	if !strings.Contains(out, "[INFO] plain message") {
		t.Errorf("expected level tag in output, got: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DEBUG,
		"DEBUG":   DEBUG,
		"info":    INFO,
		"warn":    WARN,
		"warning": WARN,
		"error":   ERROR,
		"fatal":   FATAL,
		"bogus":   INFO,
		"":        INFO,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
