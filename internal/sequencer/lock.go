package sequencer

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
)

// LockFileName is the lock file, relative to the git dir, guarding the state.
const LockFileName = DirName + ".lock"

// ErrLocked is returned by TryLock when another process holds the lock.
var ErrLocked = errors.New("lock is held by another process")

// FileLock is an flock on the operation lock file of a git dir.
type FileLock struct {
	path string
	file *os.File
}

// NewLock returns the operation lock for a git dir.
func NewLock(gitDir string) *FileLock {
	return &FileLock{path: filepath.Join(gitDir, LockFileName)}
}

// Lock acquires the lock, blocking until it is available.
func (l *FileLock) Lock() error {
	return l.acquire(syscall.LOCK_EX)
}

// TryLock acquires the lock without waiting. It returns ErrLocked when the
// lock is held elsewhere.
func (l *FileLock) TryLock() error {
	err := l.acquire(syscall.LOCK_EX | syscall.LOCK_NB)
	if errors.Is(err, syscall.EWOULDBLOCK) {
		return ErrLocked
	}
	return err
}

func (l *FileLock) acquire(how int) error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return err
	}
	if err := syscall.Flock(int(f.Fd()), how); err != nil {
		f.Close()
		return err
	}
	l.file = f
	return nil
}

// Unlock releases the lock. Unlocking a lock that is not held is a no-op.
func (l *FileLock) Unlock() error {
	f := l.file
	if f == nil {
		return nil
	}
	l.file = nil

	unlockErr := syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	closeErr := f.Close()
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}
