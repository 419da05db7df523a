package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// pidFile holds the server's PID file, flocked when locked is set
type pidFile struct {
	path   string
	file   *os.File
	locked bool
}

// acquirePIDFile writes the process ID to path. With lock set a live owner of
// an existing file blocks startup and a dead one is taken over.
func acquirePIDFile(path string, lock bool) (*pidFile, error) {
	if lock {
		if err := refuseLiveOwner(path); err != nil {
			return nil, err
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("cannot open PID file: %w", err)
	}
	p := &pidFile{path: path, file: f}

	if lock {
		if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
			f.Close()
			if errors.Is(err, syscall.EWOULDBLOCK) {
				return nil, errors.New("cannot acquire PID lock: another instance is running")
			}
			return nil, fmt.Errorf("PID lock failed: %w", err)
		}
		p.locked = true
	}

	// truncate only once the lock is ours
	if err := p.write(os.Getpid()); err != nil {
		p.Release()
		return nil, err
	}
	return p, nil
}

func (p *pidFile) write(pid int) error {
	if err := p.file.Truncate(0); err != nil {
		return fmt.Errorf("cannot truncate PID file: %w", err)
	}
	if _, err := p.file.WriteAt([]byte(strconv.Itoa(pid)+"\n"), 0); err != nil {
		return fmt.Errorf("cannot write PID: %w", err)
	}
	return p.file.Sync()
}

// Release unlocks and removes the file
func (p *pidFile) Release() {
	if p.locked {
		syscall.Flock(int(p.file.Fd()), syscall.LOCK_UN)
	}
	p.file.Close()
	os.Remove(p.path)
}

// refuseLiveOwner fails when path names a running process. A missing or
// empty file, or one left by a dead process, is fine.
func refuseLiveOwner(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot read existing PID file: %w", err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil
	}
	pid, err := strconv.Atoi(text)
	if err != nil || pid <= 0 {
		return fmt.Errorf("corrupted PID file (contains: %q)", text)
	}

	// FindProcess never fails on Unix; signal 0 only checks existence
	proc, _ := os.FindProcess(pid)
	switch err := proc.Signal(syscall.Signal(0)); {
	case err == nil:
		return fmt.Errorf("process %d is already running", pid)
	case errors.Is(err, os.ErrProcessDone), errors.Is(err, syscall.ESRCH):
		return nil
	default:
		return fmt.Errorf("process %d exists but cannot be checked: %v", pid, err)
	}
}
