// Package daemon holds process-level guards for the long-running `run` mode.
package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// PIDFileName is the PID file name inside the data directory.
const PIDFileName = "lastsignal.pid"

// ErrAlreadyRunning is returned when another live process holds the PID file.
var ErrAlreadyRunning = errors.New("lastsignal is already running")

// PIDFile enforces a single daemon per data directory.
type PIDFile struct {
	path string
}

// NewPIDFile creates a PIDFile for dataDir.
func NewPIDFile(dataDir string) *PIDFile {
	return &PIDFile{path: filepath.Join(dataDir, PIDFileName)}
}

// Path returns the PID file location.
func (p *PIDFile) Path() string {
	return p.path
}

// Acquire creates the PID file exclusively. A file left behind by a dead
// process is replaced; one held by a live process yields ErrAlreadyRunning.
func (p *PIDFile) Acquire() error {
	for attempt := 0; attempt < 2; attempt++ {
		// 1. Try exclusive create
		f, err := os.OpenFile(p.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if err == nil {
			_, werr := f.WriteString(strconv.Itoa(os.Getpid()))
			cerr := f.Close()
			if werr != nil || cerr != nil {
				os.Remove(p.path)
				return fmt.Errorf("failed to write PID file: %w", errors.Join(werr, cerr))
			}
			return nil
		}
		if !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("failed to create PID file: %w", err)
		}

		// 2. Someone holds it; check whether they are alive
		pid, err := ReadPID(p.path)
		if err == nil && pid > 0 && IsProcessRunning(pid) {
			return fmt.Errorf("%w (PID %d)", ErrAlreadyRunning, pid)
		}

		// 3. Stale or unreadable; remove and retry once
		if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove stale PID file: %w", err)
		}
	}
	return fmt.Errorf("failed to acquire PID file %s", p.path)
}

// Release removes the PID file.
// Safe to call multiple times.
func (p *PIDFile) Release() error {
	err := os.Remove(p.path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// Running returns the PID of a live daemon using dataDir, or 0.
func Running(dataDir string) int {
	pid, err := ReadPID(filepath.Join(dataDir, PIDFileName))
	if err != nil || pid <= 0 || !IsProcessRunning(pid) {
		return 0
	}
	return pid
}

// IsProcessRunning checks if a process with the given PID exists.
func IsProcessRunning(pid int) bool {
	// Signal 0 checks existence without delivering anything
	err := syscall.Kill(pid, syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

// ReadPID reads the PID from a file.
func ReadPID(path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to read PID file: %w", err)
	}

	pidStr := strings.TrimSpace(string(content))
	if pidStr == "" {
		return 0, fmt.Errorf("PID file is empty")
	}

	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return 0, fmt.Errorf("invalid PID in file: %w", err)
	}
	return pid, nil
}
