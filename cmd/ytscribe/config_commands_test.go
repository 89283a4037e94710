package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCommandForTest(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCommandForTest(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Errorf("output should mention target path:\n%s", out)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[whisper]") {
		t.Error("sample missing [whisper] section")
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if _, err := runCommandForTest(t, "config", "init", "--path", target); err != nil {
		t.Fatalf("first init: %v", err)
	}
	if _, err := runCommandForTest(t, "config", "init", "--path", target); err == nil {
		t.Error("second init without --overwrite should fail")
	}
	if _, err := runCommandForTest(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Errorf("init with --overwrite: %v", err)
	}
}

func TestConfigShowUsesConfigFlag(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "config.toml")
	content := "[batch]\nconcurrency = 4\n\n[whisper]\nmodel = \"large-v3\"\n"
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, err := runCommandForTest(t, "--config", target, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "large-v3") {
		t.Errorf("show should reflect configured model:\n%s", out)
	}
	if !strings.Contains(out, "4") {
		t.Errorf("show should reflect configured concurrency:\n%s", out)
	}
}

func TestRunRejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(target, []byte(""), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := runCommandForTest(t, "--config", target, "run", "--format", "docx", "https://youtu.be/x")
	if err == nil || !strings.Contains(err.Error(), "unsupported export format") {
		t.Errorf("err = %v, want unsupported format error", err)
	}
}

func TestDoctorReportsToolStatus(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "stub-tool")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	target := filepath.Join(dir, "config.toml")
	content := "[downloader]\nbinary = \"" + stub + "\"\n\n" +
		"[whisper]\nbinary = \"" + stub + "\"\nffmpeg_binary = \"" + filepath.Join(dir, "absent") + "\"\n"
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, err := runCommandForTest(t, "--config", target, "doctor")
	if err == nil || !strings.Contains(err.Error(), "ffmpeg") {
		t.Errorf("err = %v, want missing ffmpeg", err)
	}
	for _, want := range []string{"yt-dlp", "ok", "missing"} {
		if !strings.Contains(out, want) {
			t.Errorf("doctor output missing %q:\n%s", want, out)
		}
	}
}

func TestRunRequiresURLs(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(target, []byte(""), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := runCommandForTest(t, "--config", target, "run")
	if err == nil || !strings.Contains(err.Error(), "no URLs") {
		t.Errorf("err = %v, want missing URL error", err)
	}
}
