// Package log journals simulation ticks as hourly-rotated, zstd-compressed
// JSON lines.
package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"portsim.ai/internal/sim/world"
)

// JSONLZstdWriter appends JSON values, one per line, to <dir>/<prefix>-<hour>.jsonl.zst.
// A new file is started whenever the UTC hour changes.
type JSONLZstdWriter struct {
	baseDir string
	prefix  string
	now     func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	buf     *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{baseDir: baseDir, prefix: prefix, now: time.Now}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if hour := w.now().UTC().Format("2006-01-02-15"); hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}
	if _, err := w.buf.Write(b); err != nil {
		return err
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		return err
	}
	return w.buf.Flush()
}

func (w *JSONLZstdWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	path := w.pathForHour(hour)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f, w.enc = f, enc
	w.buf = bufio.NewWriterSize(enc, 64*1024)
	w.curHour = hour
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err error
	if w.buf != nil {
		_ = w.buf.Flush()
		w.buf = nil
	}
	if w.enc != nil {
		err = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		if cerr := w.f.Close(); err == nil {
			err = cerr
		}
		w.f = nil
	}
	w.curHour = ""
	return err
}

func (w *JSONLZstdWriter) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

// TickLogger journals the ticks of one run. Entries must arrive in tick
// order without gaps so cmd/replay can step the world alongside the journal.
// Like the world loop that feeds it, it is not safe for concurrent use.
type TickLogger struct {
	w     *JSONLZstdWriter
	runID string

	next    uint64
	started bool
}

// NewTickLogger journals into <runDir>/events. Entries without a run ID are
// stamped with runID; entries of another run are refused.
func NewTickLogger(runDir, runID string) *TickLogger {
	return &TickLogger{w: NewJSONLZstdWriter(EventsDir(runDir), "events"), runID: runID}
}

func EventsDir(runDir string) string { return filepath.Join(runDir, "events") }

func (l *TickLogger) WriteTick(e world.TickLogEntry) error {
	switch {
	case e.RunID == "":
		e.RunID = l.runID
	case l.runID != "" && e.RunID != l.runID:
		return fmt.Errorf("journal of run %s: tick %d belongs to run %s", l.runID, e.Tick, e.RunID)
	}
	if l.started && e.Tick != l.next {
		return fmt.Errorf("journal of run %s: expected tick %d, got %d", l.runID, l.next, e.Tick)
	}
	if err := l.w.Write(e); err != nil {
		return err
	}
	l.started, l.next = true, e.Tick+1
	return nil
}

func (l *TickLogger) Close() error { return l.w.Close() }
