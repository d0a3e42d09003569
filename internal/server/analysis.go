package server

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/rev4switch/internal/logging"
	"github.com/muurk/rev4switch/internal/protocol"
)

// CaptureRecord is one line of a capture file.
type CaptureRecord struct {
	Timestamp   time.Time `json:"timestamp"`
	Seq         int       `json:"seq"`
	RemoteAddr  string    `json:"remote_addr"`
	Origin      string    `json:"origin"`
	Protocol    string    `json:"protocol"`
	ID          int       `json:"id"`
	Unit        int       `json:"unit"`
	State       string    `json:"state"`
	Frame       string    `json:"frame"`
	PulseLength int       `json:"pulse_length"`
	Pulses      []int     `json:"pulses"`
	Shape       string    `json:"shape"`
}

// Analyzer appends every code the bridge sees to a daily JSONL file so
// captures from real remotes can be compared offline.
type Analyzer struct {
	dir string
	now func() time.Time

	mu  sync.Mutex
	seq int
}

// NewAnalyzer returns an analyzer writing into dir. An empty dir disables
// capture and Record becomes a no-op.
func NewAnalyzer(dir string) *Analyzer {
	return &Analyzer{dir: dir, now: time.Now}
}

// Enabled reports whether records are written.
func (a *Analyzer) Enabled() bool {
	return a != nil && a.dir != ""
}

// Path returns the capture file for t.
func (a *Analyzer) Path(t time.Time) string {
	return filepath.Join(a.dir, fmt.Sprintf("capture-%s.jsonl", t.Format("20060102")))
}

// Record appends one code. Failures are logged, never returned.
func (a *Analyzer) Record(remoteAddr, origin string, c protocol.Command, pulses []int, pulseLength int) {
	if !a.Enabled() {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.seq++
	ts := a.now()
	rec := CaptureRecord{
		Timestamp:   ts,
		Seq:         a.seq,
		RemoteAddr:  remoteAddr,
		Origin:      origin,
		Protocol:    protocol.ProtocolID,
		ID:          c.ID,
		Unit:        c.Unit,
		State:       c.State.String(),
		Frame:       c.Frame().String(),
		PulseLength: pulseLength,
		Pulses:      pulses,
	}
	if shape, err := protocol.ClassifyPulses(pulses, pulseLength); err == nil {
		rec.Shape = shape.String()
	}

	filename := a.Path(ts)
	if err := os.MkdirAll(a.dir, 0755); err != nil {
		logging.Error("Failed to create analysis directory",
			zap.String("dir", a.dir),
			zap.Error(err),
		)
		return
	}

	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		logging.Error("Failed to open analysis file",
			zap.String("filename", filename),
			zap.Error(err),
		)
		return
	}
	defer func() { _ = f.Close() }()

	data, err := json.Marshal(rec)
	if err != nil {
		logging.Error("Failed to marshal capture record", zap.Error(err))
		return
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		logging.Error("Failed to write to analysis file",
			zap.String("filename", filename),
			zap.Error(err),
		)
		return
	}

	logging.Debug("Saved code to analysis file",
		zap.String("filename", filename),
		zap.Int("seq", rec.Seq),
	)
}
