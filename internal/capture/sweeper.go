package capture

import (
	"os"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// DefaultRetention is how long capture files stay on disk before the
// sweeper collects them.
const DefaultRetention = 72 * time.Hour

// Sweeper deletes stale capture files from the capture directory. It runs
// inline before every session start, so retention needs no background
// scheduler; the cost is a little start latency on large directories.
type Sweeper struct {
	dir       string
	retention time.Duration
	clock     clock.Clock
	log       *zap.Logger
}

// NewSweeper creates a sweeper over dir. Zero values fall back to the
// system temp directory, DefaultRetention, the wall clock and no logging.
func NewSweeper(dir string, retention time.Duration, clk clock.Clock, log *zap.Logger) *Sweeper {
	if dir == "" {
		dir = os.TempDir()
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Sweeper{dir: dir, retention: retention, clock: clk, log: log}
}

// Retention returns the active retention window.
func (s *Sweeper) Retention() time.Duration { return s.retention }

// Dir returns the swept directory.
func (s *Sweeper) Dir() string { return s.dir }

// SweptFile is the per-file outcome of a sweep pass.
type SweptFile struct {
	Path    string
	Age     time.Duration
	Size    int64
	Deleted bool
	Err     error
}

// SweepResult summarizes one sweep pass. Scanned counts capture files
// examined, Matched those past retention.
type SweepResult struct {
	Scanned int
	Matched int
	Deleted int
	Failed  int
	Freed   int64
}

// Sweep removes capture files older than the retention window. It never
// returns an error: a failed sweep must not stop a capture from starting.
func (s *Sweeper) Sweep() SweepResult {
	res, _ := s.Run(false)
	return res
}

// Run performs one sweep pass. With dryRun, matching files are reported
// but kept on disk.
func (s *Sweeper) Run(dryRun bool) (SweepResult, []SweptFile) {
	var res SweepResult
	var files []SweptFile

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.log.Debug("sweep: read capture dir", zap.String("dir", s.dir), zap.Error(err))
		return res, nil
	}

	now := s.clock.Now()
	cutoff := now.Add(-s.retention)
	for _, e := range entries {
		if e.IsDir() || !IsCaptureFile(e.Name()) {
			continue
		}
		res.Scanned++

		info, err := e.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		res.Matched++

		sf := SweptFile{
			Path: filepath.Join(s.dir, e.Name()),
			Age:  now.Sub(info.ModTime()),
			Size: info.Size(),
		}
		if dryRun {
			files = append(files, sf)
			continue
		}

		if err := os.Remove(sf.Path); err != nil {
			res.Failed++
			sf.Err = err
			s.log.Warn("sweep: delete stale capture file",
				zap.String("path", sf.Path), zap.Error(err))
		} else {
			res.Deleted++
			res.Freed += sf.Size
			sf.Deleted = true
			s.log.Debug("sweep: deleted stale capture file",
				zap.String("path", sf.Path), zap.Duration("age", sf.Age))
		}
		files = append(files, sf)
	}
	return res, files
}
