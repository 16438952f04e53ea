// Package logger installs the structured logger and records crash reports
// for sdlc-agent.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

const (
	// CrashLogDir is the directory for crash logs relative to .sdlc-agent
	CrashLogDir = "crash_logs"

	// MaxCrashLogs is the maximum number of crash logs to keep
	MaxCrashLogs = 10
)

type crashContext struct {
	mu        sync.RWMutex
	basePath  string
	version   string
	command   string
	lastInput string
	step      int
	provider  string
}

var globalContext = &crashContext{}

// SetBasePath sets the directory crash logs are written under.
func SetBasePath(path string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.basePath = path
}

// SetVersion sets the application version for crash logs.
func SetVersion(version string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.version = version
}

// SetCommand sets the current command being executed.
func SetCommand(cmd string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.command = cmd
}

// SetLastInput records the last user input (requirements text, artifact edit).
func SetLastInput(input string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.lastInput = truncateForLog(strings.TrimSpace(input), 500)
}

// SetPipeline records the step being worked on and the active provider.
func SetPipeline(step int, provider string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.step = step
	globalContext.provider = provider
}

func truncateForLog(value string, maxLen int) string {
	if len(value) <= maxLen {
		return value
	}
	return value[:maxLen] + "... [truncated]"
}

// CrashLog is one crash report.
type CrashLog struct {
	Timestamp  time.Time
	Version    string
	Command    string
	Step       int
	Provider   string
	PanicValue string
	StackTrace string
	LastInput  string
	GoVersion  string
	OS         string
	Arch       string
}

// HandlePanic recovers a panic, writes a crash log and exits with status 1.
// Usage: defer logger.HandlePanic()
func HandlePanic() {
	r := recover()
	if r == nil {
		return
	}
	log := newCrashLog(r)
	path, err := writeCrashLog(log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\n[CRASH] Failed to write crash log: %v\n", err)
		fmt.Fprintf(os.Stderr, "[CRASH] Panic: %v\n%s\n", r, log.StackTrace)
		os.Exit(1)
	}

	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "sdlc-agent stopped unexpectedly.")
	fmt.Fprintf(os.Stderr, "A crash log has been saved to:\n  %s\n\n", path)
	os.Exit(1)
}

func newCrashLog(panicValue any) CrashLog {
	globalContext.mu.RLock()
	defer globalContext.mu.RUnlock()

	return CrashLog{
		Timestamp:  time.Now(),
		Version:    globalContext.version,
		Command:    globalContext.command,
		Step:       globalContext.step,
		Provider:   globalContext.provider,
		PanicValue: fmt.Sprintf("%v", panicValue),
		StackTrace: string(debug.Stack()),
		LastInput:  globalContext.lastInput,
		GoVersion:  runtime.Version(),
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
	}
}

// writeCrashLog prunes old logs and writes log, returning its path.
func writeCrashLog(log CrashLog) (string, error) {
	dir := crashLogDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create crash log dir: %w", err)
	}
	// Make room for the new file.
	if err := pruneCrashLogs(dir, MaxCrashLogs-1); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Failed to clean old crash logs: %v\n", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("crash_%s.log", log.Timestamp.Format("20060102_150405.000")))
	if err := os.WriteFile(path, []byte(log.String()), 0644); err != nil {
		return "", fmt.Errorf("write crash log: %w", err)
	}
	return path, nil
}

func crashLogDir() string {
	globalContext.mu.RLock()
	basePath := globalContext.basePath
	globalContext.mu.RUnlock()
	if basePath == "" {
		basePath = ".sdlc-agent"
	}
	return filepath.Join(basePath, CrashLogDir)
}

// String renders the crash log as plain text.
func (c CrashLog) String() string {
	var sb strings.Builder
	rule := strings.Repeat("-", 80) + "\n"
	section := func(title, body string) {
		sb.WriteString("\n" + rule + title + "\n" + rule)
		sb.WriteString(strings.TrimRight(body, "\n") + "\n")
	}

	sb.WriteString(strings.Repeat("=", 80) + "\nSDLC-AGENT CRASH LOG\n" + strings.Repeat("=", 80) + "\n\n")
	fmt.Fprintf(&sb, "Timestamp: %s\n", c.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Version:   %s\n", c.Version)
	fmt.Fprintf(&sb, "Command:   %s\n", c.Command)
	if c.Step > 0 {
		fmt.Fprintf(&sb, "Step:      %d\n", c.Step)
	}
	if c.Provider != "" {
		fmt.Fprintf(&sb, "Provider:  %s\n", c.Provider)
	}
	fmt.Fprintf(&sb, "Go:        %s\n", c.GoVersion)
	fmt.Fprintf(&sb, "OS/Arch:   %s/%s\n", c.OS, c.Arch)

	section("PANIC VALUE", c.PanicValue)
	section("STACK TRACE", c.StackTrace)
	if c.LastInput != "" {
		section("LAST USER INPUT", c.LastInput)
	}
	return sb.String()
}

func isCrashLog(e os.DirEntry) bool {
	return !e.IsDir() && strings.HasPrefix(e.Name(), "crash_") && strings.HasSuffix(e.Name(), ".log")
}

// pruneCrashLogs keeps only the newest keep crash logs in dir.
func pruneCrashLogs(dir string, keep int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var logs []string
	for _, e := range entries {
		if isCrashLog(e) {
			logs = append(logs, e.Name())
		}
	}
	// ReadDir sorts by name and names embed the timestamp, so oldest come first.
	for i := 0; i < len(logs)-keep; i++ {
		if err := os.Remove(filepath.Join(dir, logs[i])); err != nil {
			return fmt.Errorf("remove old crash log %s: %w", logs[i], err)
		}
	}
	return nil
}

// ListCrashLogs returns the paths of all crash logs, oldest first.
func ListCrashLogs() ([]string, error) {
	dir := crashLogDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var logs []string
	for _, e := range entries {
		if isCrashLog(e) {
			logs = append(logs, filepath.Join(dir, e.Name()))
		}
	}
	return logs, nil
}
