package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// Info describes a background watcher process
type Info struct {
	PID       int
	ClassID   string
	Dir       string
	StartTime time.Time
	IsRunning bool
}

// Process manages the background `lectern watch` process through a PID file
type Process struct {
	pidFile string
	logFile string
}

// NewProcess keeps its PID and log files under stateDir
func NewProcess(stateDir string) (*Process, error) {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create daemon dir: %w", err)
	}
	return &Process{
		pidFile: filepath.Join(stateDir, "watch.pid"),
		logFile: filepath.Join(stateDir, "watch.log"),
	}, nil
}

// LogFile is where the background process writes its output
func (p *Process) LogFile() string {
	return p.logFile
}

// Status reads the PID file and checks that the process is alive.
// A stale PID file is removed.
func (p *Process) Status() (*Info, error) {
	data, err := os.ReadFile(p.pidFile)
	if err != nil {
		if os.IsNotExist(err) {
			return &Info{}, nil
		}
		return nil, fmt.Errorf("failed to read PID file: %w", err)
	}

	// PID|CLASS|DIR|TIMESTAMP
	parts := strings.SplitN(strings.TrimSpace(string(data)), "|", 4)
	if len(parts) != 4 {
		_ = p.RemovePIDFile()
		return &Info{}, nil
	}
	pid, err := strconv.Atoi(parts[0])
	if err != nil {
		_ = p.RemovePIDFile()
		return &Info{}, nil
	}
	started, err := time.Parse(time.RFC3339, parts[3])
	if err != nil {
		started = time.Time{}
	}

	if !isProcessRunning(pid) {
		_ = p.RemovePIDFile()
		return &Info{}, nil
	}
	return &Info{
		PID:       pid,
		ClassID:   parts[1],
		Dir:       parts[2],
		StartTime: started,
		IsRunning: true,
	}, nil
}

// WritePIDFile records a running watcher
func (p *Process) WritePIDFile(pid int, classID, dir string) error {
	data := fmt.Sprintf("%d|%s|%s|%s\n", pid, classID, dir, time.Now().Format(time.RFC3339))
	return os.WriteFile(p.pidFile, []byte(data), 0644)
}

// RemovePIDFile removes the PID file
func (p *Process) RemovePIDFile() error {
	err := os.Remove(p.pidFile)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Start re-executes the current binary with args, detached, logging to
// LogFile
func (p *Process) Start(classID, dir string, args []string) (int, error) {
	info, err := p.Status()
	if err != nil {
		return 0, fmt.Errorf("failed to check watcher status: %w", err)
	}
	if info.IsRunning {
		return 0, fmt.Errorf("watcher already running (PID %d, class %s)", info.PID, info.ClassID)
	}

	executable, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("failed to get executable path: %w", err)
	}

	f, err := os.OpenFile(p.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	cmd := exec.Command(executable, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Stdout = f
	cmd.Stderr = f

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start watcher: %w", err)
	}
	pid := cmd.Process.Pid
	if err := p.WritePIDFile(pid, classID, dir); err != nil {
		_ = cmd.Process.Kill()
		return 0, fmt.Errorf("failed to write PID file: %w", err)
	}
	_ = cmd.Process.Release()

	time.Sleep(100 * time.Millisecond)
	if !isProcessRunning(pid) {
		return 0, fmt.Errorf("watcher failed to start (check %s for errors)", p.logFile)
	}
	return pid, nil
}

// Stop sends SIGTERM, then SIGKILL after five seconds
func (p *Process) Stop() error {
	info, err := p.Status()
	if err != nil {
		return fmt.Errorf("failed to get watcher status: %w", err)
	}
	if !info.IsRunning {
		return fmt.Errorf("watcher is not running")
	}

	process, err := os.FindProcess(info.PID)
	if err != nil {
		return fmt.Errorf("failed to find process: %w", err)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to send SIGTERM: %w", err)
	}

	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		if !isProcessRunning(info.PID) {
			return p.RemovePIDFile()
		}
	}

	if err := process.Signal(syscall.SIGKILL); err != nil {
		return fmt.Errorf("failed to kill watcher: %w", err)
	}
	return p.RemovePIDFile()
}

func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

// FormatUptime formats duration as human-readable uptime
func FormatUptime(d time.Duration) string {
	d = d.Round(time.Second)
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
