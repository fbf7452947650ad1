package process

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

const DefaultStopSignal = syscall.SIGTERM

var ErrNotRunning = errors.New("daemon is not running")

// PidFile records the pid of a running daemon so other invocations can find and signal it.
type PidFile struct {
	Path string
}

func NewPidFile(path string) *PidFile {
	return &PidFile{Path: path}
}

// Write records the current process. It fails while another live process owns the file, a stale file is
// overwritten.
func (p *PidFile) Write() error {
	if p.IsActive() {
		return fmt.Errorf("daemon already running, pid file %s", p.Path)
	}
	if err := os.MkdirAll(filepath.Dir(p.Path), 0755); err != nil {
		return err
	}
	pid := strconv.Itoa(os.Getpid())
	if err := os.WriteFile(p.Path, []byte(pid), 0644); err != nil {
		return fmt.Errorf("failed to write pid, err:%v", err)
	}
	return nil
}

func (p *PidFile) Remove() error {
	if err := os.Remove(p.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete pid file, err:%v", err)
	}
	return nil
}

func (p *PidFile) Pid() (int, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrNotRunning
		}
		return 0, fmt.Errorf("error reading PID file: %v", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("error converting PID to integer: %v", err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("invalid pid %d", pid)
	}
	return pid, nil
}

// IsActive reports whether the recorded process is alive.
func (p *PidFile) IsActive() bool {
	pid, err := p.Pid()
	if err != nil {
		return false
	}
	pr, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return pr.Signal(syscall.Signal(0)) == nil
}

// Stop signals the recorded process, DefaultStopSignal when none is given.
func (p *PidFile) Stop(signal ...os.Signal) (int, error) {
	if !p.IsActive() {
		return 0, ErrNotRunning
	}
	pid, err := p.Pid()
	if err != nil {
		return 0, err
	}
	pr, err := os.FindProcess(pid)
	if err != nil {
		return 0, fmt.Errorf("error finding process: %v", err)
	}

	var sig os.Signal = DefaultStopSignal
	if len(signal) > 0 {
		sig = signal[0]
	}
	if err := pr.Signal(sig); err != nil {
		return 0, fmt.Errorf("error stopping process: %v", err)
	}
	return pid, nil
}
