package backup

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestRun_ArchiveNameAndContents verifies the dated zip holds each source
// under its own subfolder
func TestRun_ArchiveNameAndContents(t *testing.T) {
	sessionDir := t.TempDir()
	logsDir := t.TempDir()
	os.WriteFile(filepath.Join(sessionDir, "creds.json"), []byte("{}"), 0644)
	os.WriteFile(filepath.Join(logsDir, "2025-03-14.log"), []byte("line\n"), 0644)

	svc := NewService(t.TempDir(), []Source{
		{Name: "auth_info", Path: sessionDir},
		{Name: "logs", Path: logsDir},
	})
	svc.now = func() time.Time {
		return time.Date(2025, 3, 14, 3, 0, 0, 0, time.UTC)
	}

	path, err := svc.Run()
	if err != nil {
		t.Fatalf("backup failed: %v", err)
	}
	if filepath.Base(path) != "backup-2025-03-14.zip" {
		t.Errorf("unexpected archive name %s", filepath.Base(path))
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("archive unreadable: %v", err)
	}
	defer zr.Close()

	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	if !names["auth_info/creds.json"] {
		t.Errorf("session file missing from archive: %v", names)
	}
	if !names["logs/2025-03-14.log"] {
		t.Errorf("log file missing from archive: %v", names)
	}
}

// TestRun_MissingSourcesSkipped verifies absent directories are not errors
func TestRun_MissingSourcesSkipped(t *testing.T) {
	svc := NewService(t.TempDir(), []Source{
		{Name: "auth_info", Path: filepath.Join(t.TempDir(), "does-not-exist")},
	})

	path, err := svc.Run()
	if err != nil {
		t.Fatalf("backup should succeed with missing sources: %v", err)
	}
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("archive unreadable: %v", err)
	}
	zr.Close()
}

// TestRun_SecondConcurrentRejected verifies the single-flight invariant
func TestRun_SecondConcurrentRejected(t *testing.T) {
	svc := NewService(t.TempDir(), nil)

	// Simulate an in-flight run by holding the guard.
	svc.mu.Lock()
	_, err := svc.Run()
	svc.mu.Unlock()

	if !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy while a run is in flight, got %v", err)
	}
}

// TestRun_SequentialRunsAllowed verifies the guard releases after completion
func TestRun_SequentialRunsAllowed(t *testing.T) {
	svc := NewService(t.TempDir(), nil)
	if _, err := svc.Run(); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if _, err := svc.Run(); err != nil {
		t.Fatalf("second sequential run should succeed: %v", err)
	}
}
