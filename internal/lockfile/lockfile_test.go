package lockfile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/maktaba-project/maktaba/core/errors"
)

func TestAcquireRelease(t *testing.T) {
	root := t.TempDir()
	lock, err := Acquire(root)
	if err != nil {
		t.Fatal(err)
	}
	if lock.Token == "" || lock.PID != os.Getpid() {
		t.Errorf("lock = %+v", lock)
	}
	if _, err := os.Stat(filepath.Join(root, Name)); err != nil {
		t.Fatalf("lock file not created: %v", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(root, Name)); !os.IsNotExist(err) {
		t.Error("lock file not removed on release")
	}
}

func TestAcquireContended(t *testing.T) {
	root := t.TempDir()
	lock, err := Acquire(root)
	if err != nil {
		t.Fatal(err)
	}
	defer lock.Release()

	if _, err := Acquire(root); !errors.Is(err, ErrLocked) {
		t.Errorf("second acquire error = %v, want ErrLocked", err)
	}
}

func TestAcquireReplacesStaleLock(t *testing.T) {
	root := t.TempDir()
	stale := Lock{Token: "dead", PID: 1 << 30, Acquired: time.Now().Add(-time.Hour)}
	data, err := json.Marshal(stale)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, Name), data, 0644); err != nil {
		t.Fatal(err)
	}

	lock, err := Acquire(root)
	if err != nil {
		t.Fatalf("stale lock not replaced: %v", err)
	}
	defer lock.Release()
	if lock.Token == "dead" {
		t.Error("stale lock token survived")
	}
}

func TestReleaseIsNoOpWhenReplaced(t *testing.T) {
	root := t.TempDir()
	lock, err := Acquire(root)
	if err != nil {
		t.Fatal(err)
	}

	// Simulate another process replacing the lock.
	other := Lock{Token: "other", PID: os.Getpid(), Acquired: time.Now()}
	data, _ := json.Marshal(other)
	if err := os.WriteFile(filepath.Join(root, Name), data, 0644); err != nil {
		t.Fatal(err)
	}

	if err := lock.Release(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(root, Name)); err != nil {
		t.Error("release removed a lock it no longer owns")
	}
}

func TestReleaseTwice(t *testing.T) {
	root := t.TempDir()
	lock, err := Acquire(root)
	if err != nil {
		t.Fatal(err)
	}
	if err := lock.Release(); err != nil {
		t.Fatal(err)
	}
	if err := lock.Release(); err != nil {
		t.Errorf("second release should be a no-op: %v", err)
	}
}
