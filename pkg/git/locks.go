package git

import (
	"path/filepath"
	"sync"
)

// pathLocks serializes operations per repository path. A second caller is
// refused rather than queued.
type pathLocks struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func newPathLocks() *pathLocks {
	return &pathLocks{held: make(map[string]struct{})}
}

// tryLock claims path. It returns a release function, or false if the path
// is already held.
func (l *pathLocks) tryLock(path string) (func(), bool) {
	key := filepath.Clean(path)

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[key]; busy {
		return nil, false
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, true
}

// isHeld reports whether path is currently claimed.
func (l *pathLocks) isHeld(path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, busy := l.held[filepath.Clean(path)]
	return busy
}
