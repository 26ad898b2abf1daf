package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLevelWatcherFiresOnLevelChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "redcored.yaml")
	if err := os.WriteFile(path, []byte("loglevel: info\n"), 0644); err != nil {
		t.Fatalf("seed config file: %v", err)
	}

	w, err := NewLevelWatcher(path)
	if err != nil {
		t.Fatalf("NewLevelWatcher: %v", err)
	}
	defer w.Stop()

	levels := make(chan string, 4)
	readLevel := func(p string) (string, error) {
		if p != path {
			t.Fatalf("readLevel called with %q, want %q", p, path)
		}
		return "debug", nil
	}
	go w.Start(readLevel, func(level string) { levels <- level })

	// Give the watcher goroutine time to register before the write fires.
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("loglevel: debug\n"), 0644); err != nil {
		t.Fatalf("rewrite config file: %v", err)
	}

	select {
	case got := <-levels:
		if got != "debug" {
			t.Errorf("onLevelChange called with %q, want %q", got, "debug")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for onLevelChange after write")
	}
}

func TestLevelWatcherIgnoresUnrelatedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "redcored.yaml")
	other := filepath.Join(dir, "unrelated.txt")
	if err := os.WriteFile(path, []byte("loglevel: info\n"), 0644); err != nil {
		t.Fatalf("seed config file: %v", err)
	}

	w, err := NewLevelWatcher(path)
	if err != nil {
		t.Fatalf("NewLevelWatcher: %v", err)
	}
	defer w.Stop()

	levels := make(chan string, 4)
	readLevel := func(string) (string, error) { return "debug", nil }
	go w.Start(readLevel, func(level string) { levels <- level })

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(other, []byte("noise"), 0644); err != nil {
		t.Fatalf("write unrelated file: %v", err)
	}

	select {
	case got := <-levels:
		t.Fatalf("onLevelChange unexpectedly called with %q after write to unrelated file", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestLevelWatcherStopEndsStart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "redcored.yaml")
	if err := os.WriteFile(path, []byte("loglevel: info\n"), 0644); err != nil {
		t.Fatalf("seed config file: %v", err)
	}

	w, err := NewLevelWatcher(path)
	if err != nil {
		t.Fatalf("NewLevelWatcher: %v", err)
	}

	done := make(chan struct{})
	go func() {
		w.Start(func(string) (string, error) { return "", nil }, func(string) {})
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
}
