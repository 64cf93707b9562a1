// Package deploy guards the overlay server process: one PID file per data
// directory, recording which process serves which address.
package deploy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

var (
	ErrAlreadyRunning = errors.New("server already running")
	ErrNotRunning     = errors.New("server is not running")
)

// Info is what the PID file records.
type Info struct {
	PID  int
	Addr string
}

// PIDFile manages the server's PID file. The file holds the PID on the
// first line and the listen address on the second.
type PIDFile struct {
	path string
}

// NewPIDFile creates a PID file manager for path.
func NewPIDFile(path string) *PIDFile {
	return &PIDFile{path: path}
}

// Path returns the full path to the PID file.
func (p *PIDFile) Path() string {
	return p.path
}

// Write records the current process serving addr.
func (p *PIDFile) Write(addr string) error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("create pid dir: %w", err)
	}
	data := []byte(strconv.Itoa(os.Getpid()) + "\n" + addr + "\n")
	if err := os.WriteFile(p.path, data, 0o644); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	return nil
}

// Read returns the recorded info. A missing file yields a zero Info.
func (p *PIDFile) Read() (Info, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Info{}, nil
		}
		return Info{}, fmt.Errorf("read pid file: %w", err)
	}
	first, rest, _ := strings.Cut(string(data), "\n")
	pid, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil || pid <= 0 {
		return Info{}, fmt.Errorf("invalid pid %q", strings.TrimSpace(first))
	}
	return Info{PID: pid, Addr: strings.TrimSpace(rest)}, nil
}

// Remove deletes the PID file.
func (p *PIDFile) Remove() error {
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove pid file: %w", err)
	}
	return nil
}

// Running reports the live server, if any. A stale file left by a dead
// process is removed.
func (p *PIDFile) Running() (Info, bool) {
	info, err := p.Read()
	if err != nil || info.PID == 0 {
		return Info{}, false
	}
	if !processExists(info.PID) {
		p.Remove()
		return Info{}, false
	}
	return info, true
}

// Guard fails with ErrAlreadyRunning if another live process owns the file,
// otherwise claims it for this process.
func (p *PIDFile) Guard(addr string) error {
	if info, running := p.Running(); running && info.PID != os.Getpid() {
		return fmt.Errorf("%w (pid=%d, addr=%s)", ErrAlreadyRunning, info.PID, info.Addr)
	}
	return p.Write(addr)
}

// processExists checks if a process with the given PID is alive.
func processExists(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix, FindProcess always succeeds. Signal 0 checks existence.
	return proc.Signal(syscall.Signal(0)) == nil
}

// Stop sends SIGTERM to the recorded server and waits up to timeout for it
// to exit.
func (p *PIDFile) Stop(timeout time.Duration) (Info, error) {
	info, running := p.Running()
	if !running {
		return Info{}, ErrNotRunning
	}

	proc, err := os.FindProcess(info.PID)
	if err != nil {
		return info, fmt.Errorf("find process %d: %w", info.PID, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return info, fmt.Errorf("send SIGTERM to %d: %w", info.PID, err)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !processExists(info.PID) {
			p.Remove()
			return info, nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return info, fmt.Errorf("pid %d still alive after %s", info.PID, timeout)
}
