// Package state holds the mutable serving state of the spry server: the
// active root directory and the optional direct-file target.
//
// The pair is guarded by a read/write mutex so many concurrent serving
// requests can snapshot it while control mutations stay exclusive and atomic.
// Every successful mutation nudges the watch pipeline to rebind and publishes
// one reload signal, in that order, only after the new state is committed.
package state

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/conneroisu/spry/internal/errors"
)

// Publisher receives one reload signal per committed mutation.
type Publisher interface {
	Publish()
}

// ServingState owns the (root, directFile) pair.
type ServingState struct {
	mu         sync.RWMutex
	root       string
	directFile string

	rebind chan struct{}
	pub    Publisher
}

// New creates a ServingState rooted at dir. The path is canonicalized; an
// error is returned if it does not name an existing directory.
func New(dir string, pub Publisher) (*ServingState, error) {
	canonical, err := canonicalizeDir(dir)
	if err != nil {
		return nil, err
	}

	return &ServingState{
		root:   canonical,
		rebind: make(chan struct{}, 1),
		pub:    pub,
	}, nil
}

// Root returns the current serving root.
func (s *ServingState) Root() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root
}

// DirectFile returns the direct-file target and whether one is set.
func (s *ServingState) DirectFile() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.directFile, s.directFile != ""
}

// Snapshot returns the (root, directFile) pair as one consistent read.
func (s *ServingState) Snapshot() (root, directFile string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root, s.directFile
}

// Rebind exposes the channel the watch pipeline waits on. A value arrives
// after every committed mutation; the channel is buffered and lossy because
// the pipeline always rebinds to the latest root.
func (s *ServingState) Rebind() <-chan struct{} {
	return s.rebind
}

// SetDirectory makes dir the serving root and clears the direct-file target.
// Returns the canonical root.
func (s *ServingState) SetDirectory(dir string) (string, error) {
	canonical, err := canonicalizeDir(dir)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.root = canonical
	s.directFile = ""
	s.mu.Unlock()

	s.notify()
	return canonical, nil
}

// SetFile puts the server in direct-file mode: the root becomes the file's
// parent directory and the root URL serves the file. Returns the canonical
// file path.
func (s *ServingState) SetFile(file string) (string, error) {
	info, err := os.Stat(file)
	if err != nil {
		return "", errors.NotFound(file)
	}
	if info.IsDir() {
		return "", errors.NotAFile(file)
	}

	canonical, err := filepath.EvalSymlinks(file)
	if err != nil {
		return "", errors.NotFound(file)
	}
	canonical, err = filepath.Abs(canonical)
	if err != nil {
		return "", errors.InternalIO(file, err)
	}

	parent := filepath.Dir(canonical)
	if parent == canonical {
		return "", errors.NoParentDirectory(canonical)
	}

	s.mu.Lock()
	s.root = parent
	s.directFile = canonical
	s.mu.Unlock()

	s.notify()
	return canonical, nil
}

// notify runs after the state write is committed: first nudge the watcher to
// rebind, then publish the reload signal.
func (s *ServingState) notify() {
	select {
	case s.rebind <- struct{}{}:
	default:
	}

	if s.pub != nil {
		s.pub.Publish()
	}
}

func canonicalizeDir(dir string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return "", errors.NotFound(dir)
	}
	if !info.IsDir() {
		return "", errors.NotADirectory(dir)
	}

	canonical, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return "", errors.NotFound(dir)
	}
	canonical, err = filepath.Abs(canonical)
	if err != nil {
		return "", errors.InternalIO(dir, err)
	}

	return canonical, nil
}
