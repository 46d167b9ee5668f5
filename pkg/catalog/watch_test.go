package catalog

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestWatcherReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plants.yaml")
	if err := os.WriteFile(path, []byte("plants:\n  - id: TOM\n    light: high\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := make(chan *Catalog, 4)
	w := &Watcher{
		Path:     path,
		Debounce: 20 * time.Millisecond,
		Logger:   log.New(io.Discard),
		OnChange: func(c *Catalog) { got <- c },
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Watch() error: %v", err)
		}
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	// An invalid edit is skipped.
	if err := os.WriteFile(path, []byte("plants: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	select {
	case c := <-got:
		t.Fatalf("invalid catalogue delivered: %d plants", c.Len())
	default:
	}

	if err := os.WriteFile(path, []byte("plants:\n  - id: TOM\n    light: high\n  - id: BAS\n    light: medium\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case c := <-got:
		if c.Len() != 2 {
			t.Errorf("reloaded catalogue has %d plants, want 2", c.Len())
		}
	case <-time.After(3 * time.Second):
		t.Fatal("catalogue was not reloaded")
	}
}

func TestWatcherMissingDir(t *testing.T) {
	w := &Watcher{Path: filepath.Join(t.TempDir(), "missing", "plants.yaml"), Logger: log.New(io.Discard)}
	if err := w.Watch(context.Background()); err == nil {
		t.Error("Watch() on a missing directory should fail")
	}
}
