package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAcquireWritesPID(t *testing.T) {
	dir := t.TempDir()
	lock, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer lock.Release()

	if lock.Path() != filepath.Join(dir, LockFileName) {
		t.Errorf("Path = %q", lock.Path())
	}
	content, err := os.ReadFile(lock.Path())
	if err != nil {
		t.Fatalf("read lock file: %v", err)
	}
	if want := fmt.Sprintf("pid=%d\n", os.Getpid()); string(content) != want {
		t.Errorf("lock content = %q, want %q", content, want)
	}
}

func TestAcquireCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	lock, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer lock.Release()
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("state directory missing: %v", err)
	}
}

func TestAcquireConflict(t *testing.T) {
	dir := t.TempDir()
	first, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer first.Release()

	second, err := Acquire(dir)
	if err == nil {
		second.Release()
		t.Fatal("second Acquire should fail")
	}
	var lockErr *LockError
	if !errors.As(err, &lockErr) {
		t.Fatalf("error = %T, want *LockError", err)
	}
	if !strings.Contains(lockErr.Holder, fmt.Sprintf("PID %d (running)", os.Getpid())) {
		t.Errorf("holder = %q", lockErr.Holder)
	}
	if !strings.Contains(err.Error(), "another MoodLens instance") || !strings.Contains(err.Error(), dir) {
		t.Errorf("error message = %q", err.Error())
	}

	// A failed attempt must not clobber the holder's pid.
	content, _ := os.ReadFile(first.Path())
	if want := fmt.Sprintf("pid=%d\n", os.Getpid()); string(content) != want {
		t.Errorf("lock content after conflict = %q", content)
	}
}

func TestReleaseAllowsReacquire(t *testing.T) {
	dir := t.TempDir()
	lock, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Errorf("second Release: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, LockFileName)); !os.IsNotExist(err) {
		t.Errorf("lock file not removed: %v", err)
	}

	again, err := Acquire(dir)
	if err != nil {
		t.Fatalf("re-Acquire: %v", err)
	}
	again.Release()
}

func TestParsePID(t *testing.T) {
	tests := map[string]int{
		"pid=1234\n":     1234,
		"pid=42":         42,
		"junk\npid=7\n":  7,
		"":               0,
		"pid=abc":        0,
		"something else": 0,
	}
	for in, want := range tests {
		if got := parsePID(in); got != want {
			t.Errorf("parsePID(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestDescribeHolderStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), LockFileName)
	// PIDs are bounded well below this on Linux.
	if err := os.WriteFile(path, []byte("pid=999999999\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := describeHolder(path); got != "PID 999999999 (not running)" {
		t.Errorf("describeHolder = %q", got)
	}
}
