package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"qsoview/config"
)

const (
	logTimestampLayout = "2006/01/02 15:04:05"
	logFileDateLayout  = "02-Jan-2006"
	maxLogBufferBytes  = 16 * 1024
	maxHeldLines       = 500
)

type lineSink interface {
	WriteLine(line string, now time.Time)
	Close() error
}

type ioLineSink struct {
	w io.Writer
}

func (s *ioLineSink) WriteLine(line string, now time.Time) {
	if s == nil || s.w == nil {
		return
	}
	_, _ = io.WriteString(s.w, formatLogTimestamp(now)+" "+line+"\n")
}

func (s *ioLineSink) Close() error { return nil }

// dailyFileSink appends to one file per UTC day and prunes files older than
// the retention window whenever it opens a new one.
type dailyFileSink struct {
	mu            sync.Mutex
	dir           string
	retentionDays int
	currentDate   string
	file          *os.File
	lastErrorAt   time.Time
}

func newDailyFileSink(dir string, retentionDays int) (*dailyFileSink, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, fmt.Errorf("log directory is empty")
	}
	if retentionDays <= 0 {
		retentionDays = 7
	}
	if err := os.MkdirAll(trimmed, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %q: %w", trimmed, err)
	}
	return &dailyFileSink{dir: trimmed, retentionDays: retentionDays}, nil
}

// Purpose: Append a timestamped line to today's log file.
// Key aspects: Opens a new file on UTC day change; file errors go to stderr
// at most once a minute.
// Upstream: logFanout.Write.
// Downstream: openLocked, cleanupOldLogs.
func (s *dailyFileSink) WriteLine(line string, now time.Time) {
	if s == nil {
		return
	}
	now = now.UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	if date := now.Format(logFileDateLayout); s.file == nil || s.currentDate != date {
		s.openLocked(date, now)
	}
	if s.file == nil {
		return
	}
	if _, err := s.file.WriteString(formatLogTimestamp(now) + " " + line + "\n"); err != nil {
		s.reportErrorLocked(now, fmt.Errorf("write failed: %w", err))
	}
}

func (s *dailyFileSink) openLocked(date string, now time.Time) {
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}
	path := filepath.Join(s.dir, logFileNameForDate(now))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		s.reportErrorLocked(now, fmt.Errorf("open failed for %s: %w", path, err))
		return
	}
	s.file = file
	s.currentDate = date
	if err := cleanupOldLogs(s.dir, now, s.retentionDays); err != nil {
		s.reportErrorLocked(now, fmt.Errorf("cleanup failed: %w", err))
	}
}

func (s *dailyFileSink) reportErrorLocked(now time.Time, err error) {
	if !s.lastErrorAt.IsZero() && now.Sub(s.lastErrorAt) < time.Minute {
		return
	}
	s.lastErrorAt = now
	fmt.Fprintf(os.Stderr, "Logging: %v\n", err)
}

func (s *dailyFileSink) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	s.currentDate = ""
	return err
}

// logFanout is the log.Logger output. It splits writes into lines and
// copies each to the console and file sinks. While the terminal belongs to
// the slideshow, console lines are held and replayed on release.
type logFanout struct {
	mu      sync.Mutex
	buf     []byte
	console lineSink
	file    lineSink

	holding bool
	held    []heldLine
	dropped int
}

type heldLine struct {
	line string
	at   time.Time
}

func newLogFanout(console, file lineSink) *logFanout {
	return &logFanout{console: console, file: file}
}

// Purpose: Wire logging from config without blocking startup.
// Key aspects: Returns a console-only fanout even when the file sink fails.
// Upstream: main startup.
// Downstream: newDailyFileSink.
func setupLogging(cfg config.LoggingConfig, console io.Writer) (*logFanout, error) {
	fanout := newLogFanout(&ioLineSink{w: console}, nil)
	if !cfg.Enabled {
		return fanout, nil
	}
	sink, err := newDailyFileSink(cfg.Dir, cfg.RetentionDays)
	if err != nil {
		return fanout, err
	}
	fanout.mu.Lock()
	fanout.file = sink
	fanout.mu.Unlock()
	return fanout, nil
}

// HoldConsole stops console output until ReleaseConsole. File output is
// unaffected.
func (f *logFanout) HoldConsole() {
	f.mu.Lock()
	f.holding = true
	f.mu.Unlock()
}

// ReleaseConsole writes the held lines to the console and resumes direct
// output. Lines past the hold limit are summarized as a count.
func (f *logFanout) ReleaseConsole() {
	f.mu.Lock()
	held, dropped, console := f.held, f.dropped, f.console
	f.held, f.dropped, f.holding = nil, 0, false
	f.mu.Unlock()
	if console == nil {
		return
	}
	if dropped > 0 {
		console.WriteLine(fmt.Sprintf("Logging: %d earlier line(s) not shown", dropped), time.Now())
	}
	for _, h := range held {
		console.WriteLine(h.line, h.at)
	}
}

func (f *logFanout) Write(p []byte) (int, error) {
	if f == nil {
		return len(p), nil
	}
	now := time.Now().UTC()
	f.mu.Lock()
	f.buf = append(f.buf, p...)
	data := f.buf
	var lines []string
	for {
		idx := bytes.IndexByte(data, '\n')
		if idx == -1 {
			break
		}
		lines = append(lines, string(bytes.TrimRight(data[:idx], "\r")))
		data = data[idx+1:]
	}
	if len(data) > maxLogBufferBytes {
		if trimmed := string(bytes.TrimRight(data, "\r")); trimmed != "" {
			lines = append(lines, trimmed)
		}
		data = data[:0]
	}
	f.buf = data
	console, file := f.console, f.file
	if f.holding {
		for _, line := range lines {
			f.held = append(f.held, heldLine{line: line, at: now})
		}
		if over := len(f.held) - maxHeldLines; over > 0 {
			f.held = append(f.held[:0], f.held[over:]...)
			f.dropped += over
		}
		console = nil
	}
	f.mu.Unlock()

	for _, line := range lines {
		if console != nil {
			console.WriteLine(line, now)
		}
		if file != nil {
			file.WriteLine(line, now)
		}
	}
	return len(p), nil
}

func (f *logFanout) Close() error {
	if f == nil {
		return nil
	}
	f.ReleaseConsole()
	f.mu.Lock()
	file := f.file
	f.mu.Unlock()
	if file != nil {
		return file.Close()
	}
	return nil
}

func formatLogTimestamp(now time.Time) string {
	return now.UTC().Format(logTimestampLayout)
}

func logFileNameForDate(now time.Time) string {
	return now.UTC().Format(logFileDateLayout) + ".log"
}

func parseLogFileDate(name string) (time.Time, bool) {
	if filepath.Ext(name) != ".log" {
		return time.Time{}, false
	}
	base := strings.TrimSuffix(name, ".log")
	parsed, err := time.ParseInLocation(logFileDateLayout, base, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

func cleanupOldLogs(dir string, now time.Time, retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	y, m, d := now.UTC().Date()
	cutoff := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(retentionDays - 1))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if date, ok := parseLogFileDate(entry.Name()); ok && date.Before(cutoff) {
			_ = os.Remove(filepath.Join(dir, entry.Name()))
		}
	}
	return nil
}
