// Package daemon starts and stops the background recorder through a PID file.
package daemon

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidPID indicates the PID file exists but cannot be parsed.
	ErrInvalidPID = errors.New("pid file contains invalid data")
	// ErrAlreadyRunning indicates a live recorder is already recorded.
	ErrAlreadyRunning = errors.New("keyboard recorder is already running")
	// ErrExitedEarly indicates the spawned recorder died during startup.
	ErrExitedEarly = errors.New("keyboard recorder exited during startup")
)

const defaultStartupGrace = 300 * time.Millisecond

// ReadPID returns the recorded PID. ok is false when no PID file exists.
func ReadPID(path string) (pid int, ok bool, err error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to read pid file: %w", err)
	}
	pid, err = strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil || pid <= 0 {
		return 0, false, fmt.Errorf("%w: %s", ErrInvalidPID, path)
	}
	return pid, true, nil
}

// WritePID records pid in the PID file, creating its directory.
func WritePID(path string, pid int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create pid directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return fmt.Errorf("failed to write pid file: %w", err)
	}
	return nil
}

// RemovePID deletes the PID file. A missing file is not an error.
func RemovePID(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove pid file: %w", err)
	}
	return nil
}

// ReleaseIfOwned removes the PID file only when it records pid. An unreadable
// or corrupt PID file is left in place and its error returned.
func ReleaseIfOwned(path string, pid int) error {
	recorded, ok, err := ReadPID(path)
	if err != nil {
		return err
	}
	if !ok || recorded != pid {
		return nil
	}
	return RemovePID(path)
}

// State describes the recorded background process.
type State struct {
	PID     int
	Running bool
	// Stale is true when a PID is recorded but the process is gone.
	Stale bool
}

// Status reports whether the recorded process is alive.
func Status(path string) (State, error) {
	pid, ok, err := ReadPID(path)
	if err != nil {
		return State{}, err
	}
	if !ok {
		return State{}, nil
	}
	if IsProcessAlive(pid) {
		return State{PID: pid, Running: true}, nil
	}
	return State{PID: pid, Stale: true}, nil
}

// StartOptions configures Start.
type StartOptions struct {
	PIDPath    string
	Executable string
	Args       []string
	// StartupGrace is how long to watch the child for an immediate exit.
	StartupGrace time.Duration
}

// Start spawns the detached recorder and records its PID. It refuses when a
// live recorder is already recorded and clears stale PID files.
func Start(opts StartOptions) (int, error) {
	state, err := Status(opts.PIDPath)
	if err != nil {
		return 0, err
	}
	if state.Running {
		return 0, fmt.Errorf("%w (PID %d)", ErrAlreadyRunning, state.PID)
	}
	if state.Stale {
		if err := RemovePID(opts.PIDPath); err != nil {
			return 0, err
		}
	}

	exe := opts.Executable
	if exe == "" {
		exe, err = os.Executable()
		if err != nil {
			return 0, fmt.Errorf("failed to resolve executable: %w", err)
		}
	}
	cmd := exec.Command(exe, opts.Args...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	detach(cmd)
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start background process: %w", err)
	}
	pid := cmd.Process.Pid
	if err := WritePID(opts.PIDPath, pid); err != nil {
		// Best-effort kill of the orphaned child.
		_ = cmd.Process.Kill()
		return 0, err
	}

	// Reap the child when it exits so liveness checks see it gone.
	exited := make(chan error, 1)
	go func() {
		exited <- cmd.Wait()
	}()
	grace := opts.StartupGrace
	if grace <= 0 {
		grace = defaultStartupGrace
	}
	select {
	case werr := <-exited:
		_ = RemovePID(opts.PIDPath)
		if werr != nil {
			return 0, fmt.Errorf("%w: %v", ErrExitedEarly, werr)
		}
		return 0, ErrExitedEarly
	case <-time.After(grace):
	}
	return pid, nil
}

// StopResult reports what Stop found.
type StopResult struct {
	PID        int
	WasRunning bool
}

// Stop terminates the recorded process and removes the PID file. A missing
// or stale PID file means the recorder was not running.
func Stop(path string) (StopResult, error) {
	state, err := Status(path)
	if err != nil {
		return StopResult{}, err
	}
	if !state.Running {
		if state.Stale {
			if err := RemovePID(path); err != nil {
				return StopResult{}, err
			}
		}
		return StopResult{PID: state.PID}, nil
	}
	if err := terminateProcess(state.PID); err != nil {
		return StopResult{}, fmt.Errorf("failed to terminate process %d: %w", state.PID, err)
	}
	if err := RemovePID(path); err != nil {
		return StopResult{}, err
	}
	return StopResult{PID: state.PID, WasRunning: true}, nil
}
