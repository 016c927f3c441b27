// Package export writes rendered artifacts to disk as PNG files plus a
// status.json summary, for publishing the dashboard outside the terminal.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/zeebo/xxh3"

	"qsoview/render"
	"qsoview/worker"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	statusFile         = "status.json"
	postCommandTimeout = 30 * time.Second
)

// SlotStatus describes one exported artifact.
type SlotStatus struct {
	Slot  int    `json:"slot"`
	Kind  string `json:"kind"`
	Title string `json:"title"`
	File  string `json:"file"`
	Hash  string `json:"hash"`
}

// Status is the content of status.json.
type Status struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Watermark   int64        `json:"watermark"`
	TotalQSOs   int64        `json:"total_qsos"`
	LastQSO     string       `json:"last_qso"`
	DataError   string       `json:"data_error,omitempty"`
	Slots       []SlotStatus `json:"slots"`
}

// Exporter keeps per-slot hashes so unchanged images are not rewritten.
// It is not safe for concurrent use; call it from the worker goroutine.
type Exporter struct {
	dir         string
	postCommand string
	logf        func(string, ...any)
	now         func() time.Time
	runCommand  func(ctx context.Context, command string) error

	slots map[int]SlotStatus

	// Last good values; no-op and failed cycles carry neither.
	lastQSO   string
	total     int64
	dataError string
	wroteOnce bool
}

// New prepares dir and returns an exporter. An empty dir is an error; the
// caller decides whether export is enabled.
func New(dir, postCommand string, logf func(string, ...any)) (*Exporter, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("export: directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("export: create directory: %w", err)
	}
	if logf == nil {
		logf = log.Printf
	}
	return &Exporter{
		dir:         dir,
		postCommand: strings.TrimSpace(postCommand),
		logf:        logf,
		now:         time.Now,
		runCommand:  runShell,
		slots:       make(map[int]SlotStatus),
	}, nil
}

// AfterCycle is the worker hook. Errors are logged, never returned, so a
// full disk cannot stop the dashboard.
func (e *Exporter) AfterCycle(report worker.CycleReport) {
	written, err := e.Export(report)
	if err != nil {
		e.logf("Export: %v", err)
		return
	}
	if written > 0 {
		e.logf("Export: wrote %d image(s) to %s", written, e.dir)
	}
}

// Purpose: Persist one cycle's artifacts and status.
// Key aspects: Skips images whose pixel hash is unchanged; status.json and
// the post command run only when something changed.
// Upstream: AfterCycle.
// Downstream: writeImage, writeStatus, runCommand.
// Export returns the number of image files written.
func (e *Exporter) Export(report worker.CycleReport) (int, error) {
	var errs []error
	written := 0
	for _, art := range report.Artifacts {
		if art == nil || art.Image == nil {
			continue
		}
		hash := xxh3.Hash(art.Image.Pix)
		hashText := strconv.FormatUint(hash, 16)
		if prev, ok := e.slots[art.Slot]; ok && prev.Hash == hashText {
			continue
		}
		name := FileName(art)
		if err := e.writeImage(name, art); err != nil {
			errs = append(errs, err)
			continue
		}
		e.slots[art.Slot] = SlotStatus{Slot: art.Slot, Kind: art.Kind.String(), Title: art.Title, File: name, Hash: hashText}
		written++
	}

	textChanged := report.Freshness.Changed && report.Freshness.Text != e.lastQSO
	if report.Freshness.Changed {
		e.lastQSO = report.Freshness.Text
	}
	if report.Snapshot != nil {
		e.total = report.Snapshot.Total()
	}
	dataError := ""
	if report.Freshness.Err != nil {
		dataError = report.Freshness.Err.Error()
	}
	errorFlipped := (dataError == "") != (e.dataError == "")
	e.dataError = dataError

	if written == 0 && !textChanged && !errorFlipped && e.wroteOnce {
		return 0, errors.Join(errs...)
	}

	if err := e.writeStatus(report); err != nil {
		return written, errors.Join(append(errs, err)...)
	}
	e.wroteOnce = true
	if e.postCommand != "" && written > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), postCommandTimeout)
		if err := e.runCommand(ctx, e.postCommand); err != nil {
			errs = append(errs, fmt.Errorf("post command: %w", err))
		}
		cancel()
	}
	return written, errors.Join(errs...)
}

// Status returns the per-slot export state, ordered by slot.
func (e *Exporter) Status() []SlotStatus {
	out := make([]SlotStatus, 0, len(e.slots))
	for _, s := range e.slots {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out
}

func (e *Exporter) writeImage(name string, art *render.Artifact) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, art.Image); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return writeAtomic(filepath.Join(e.dir, name), buf.Bytes())
}

func (e *Exporter) writeStatus(report worker.CycleReport) error {
	status := Status{
		GeneratedAt: e.now().UTC(),
		Watermark:   report.Watermark.Timestamp,
		TotalQSOs:   e.total,
		LastQSO:     e.lastQSO,
		DataError:   e.dataError,
		Slots:       e.Status(),
	}
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}
	return writeAtomic(filepath.Join(e.dir, statusFile), data)
}

// writeAtomic replaces path through a temp file in the same directory so
// readers never see a partial file.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("finalize %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func runShell(ctx context.Context, command string) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// FileName derives the export file name from the artifact title, keeping
// only [A-Za-z0-9_-] and collapsing everything else to single underscores.
func FileName(art *render.Artifact) string {
	var b strings.Builder
	underscore := false
	for _, r := range art.Title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
			underscore = r == '_'
		default:
			if !underscore && b.Len() > 0 {
				b.WriteByte('_')
				underscore = true
			}
		}
	}
	name := strings.TrimRight(b.String(), "_")
	if name == "" {
		name = "slot-" + strconv.Itoa(art.Slot)
	}
	return name + ".png"
}
