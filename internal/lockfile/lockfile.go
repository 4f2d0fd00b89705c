// Package lockfile provides an advisory corpus-root lock so two batch tools
// do not rewrite the same tree concurrently. The lock is a small JSON file
// holding a random token and the owning pid; it is advisory only, nothing
// enforces it against tools that do not check.
package lockfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/maktaba-project/maktaba/core/errors"
)

// Name is the lock filename created under the corpus root.
const Name = ".maktaba.lock"

// ErrLocked reports that another process holds the lock.
var ErrLocked = fmt.Errorf("corpus is locked")

// Lock is a held advisory lock.
type Lock struct {
	Token    string    `json:"token"`
	PID      int       `json:"pid"`
	Acquired time.Time `json:"acquired"`

	path string
}

// Acquire takes the advisory lock under root. A live lock held by a running
// process fails with ErrLocked; a lock whose owner is gone is considered
// stale and replaced.
func Acquire(root string) (*Lock, error) {
	p := filepath.Join(root, Name)

	if existing, err := read(p); err == nil {
		if processAlive(existing.PID) {
			return nil, errors.Wrapf(ErrLocked, "held by pid %d since %s",
				existing.PID, existing.Acquired.Format(time.RFC3339))
		}
		// Stale lock from a dead process.
		if err := os.Remove(p); err != nil {
			return nil, errors.NewIO("remove stale lock", p, err)
		}
	}

	l := &Lock{
		Token:    uuid.NewString(),
		PID:      os.Getpid(),
		Acquired: time.Now().UTC(),
		path:     p,
	}
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode lock")
	}

	// O_EXCL closes the race between the staleness check and creation.
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, ErrLocked
		}
		return nil, errors.NewIO("create", p, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(p)
		return nil, errors.NewIO("write", p, err)
	}
	if err := f.Close(); err != nil {
		return nil, errors.NewIO("close", p, err)
	}
	return l, nil
}

// Release removes the lock if we still own it. Releasing a lock someone else
// replaced is a no-op.
func (l *Lock) Release() error {
	current, err := read(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if current.Token != l.Token {
		return nil
	}
	if err := os.Remove(l.path); err != nil {
		return errors.NewIO("remove", l.path, err)
	}
	return nil
}

func read(p string) (*Lock, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	var l Lock
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, errors.Wrap(err, "parse lock file")
	}
	l.path = p
	return &l, nil
}

// processAlive reports whether pid still refers to a running process. On
// unix FindProcess always succeeds, so a zero signal probes for liveness.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
