package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileOutput(t *testing.T) {
	tempDir := t.TempDir()
	logFile := filepath.Join(tempDir, "test.log")

	opts := Options{
		Level:      "debug",
		File:       logFile,
		Console:    false,
		MaxSizeMB:  1,
		MaxBackups: 1,
		MaxAgeDays: 1,
	}
	if err := InitWithOptions(opts); err != nil {
		t.Fatalf("init: %v", err)
	}

	Info("frame submitted")
	Debug("upload complete")
	Sync()

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	text := string(data)

	if !strings.Contains(text, "frame submitted") {
		t.Error("info message missing from log file")
	}
	if !strings.Contains(text, "upload complete") {
		t.Error("debug message missing from log file")
	}
}

func TestLevelFiltering(t *testing.T) {
	tempDir := t.TempDir()
	logFile := filepath.Join(tempDir, "warn.log")

	opts := Options{
		Level:      "warn",
		File:       logFile,
		Console:    false,
		MaxSizeMB:  1,
		MaxBackups: 1,
		MaxAgeDays: 1,
	}
	if err := InitWithOptions(opts); err != nil {
		t.Fatalf("init: %v", err)
	}

	Info("should be filtered")
	Warn("should appear")
	Sync()

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	text := string(data)

	if strings.Contains(text, "should be filtered") {
		t.Error("info message leaked through warn level")
	}
	if !strings.Contains(text, "should appear") {
		t.Error("warn message missing")
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("debug").String() != "debug" {
		t.Error("debug level not parsed")
	}
	if parseLevel("bogus").String() != "info" {
		t.Error("unknown level should default to info")
	}
}
