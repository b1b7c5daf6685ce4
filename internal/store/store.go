// Package store persists extraction results: segment artifacts as EDF files
// on disk and the bookkeeping rows (runs, processed cases, exclusions,
// segment index) in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/OpenPSG/edf"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hemodyn-data/ioh.report/internal/extract"
	"github.com/hemodyn-data/ioh.report/internal/vitaldb"
	"github.com/hemodyn-data/ioh.report/internal/waveform"
)

// Store wraps the SQLite bookkeeping database and the segments directory.
type Store struct {
	*sql.DB
	SegmentsDir string
}

// Open opens the bookkeeping database and remembers the segments directory.
// The schema is managed by migrations, not by Open.
func Open(dbPath, segmentsDir string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// modernc.org/sqlite serializes writes on a single connection
	db.SetMaxOpenConns(1)

	return &Store{DB: db, SegmentsDir: segmentsDir}, nil
}

// BeginRun records the start of an extraction run and returns its id.
func (s *Store) BeginRun(ctx context.Context) (string, error) {
	runID := uuid.NewString()
	_, err := s.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at) VALUES (?, ?)`,
		runID, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to record run start: %w", err)
	}
	return runID, nil
}

// RunStats summarizes the outcome of a run.
type RunStats struct {
	Processed int
	Skipped   int
	Excluded  int
	Failed    int
}

// FinishRun records the completion of a run and its counters.
func (s *Store) FinishRun(ctx context.Context, runID string, stats RunStats) error {
	_, err := s.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, processed = ?, skipped = ?, excluded = ?, failed = ?
		 WHERE run_id = ?`,
		time.Now().UTC(), stats.Processed, stats.Skipped, stats.Excluded, stats.Failed, runID)
	if err != nil {
		return fmt.Errorf("failed to record run completion: %w", err)
	}
	return nil
}

// IsCaseProcessed reports whether a previous run already persisted this case.
func (s *Store) IsCaseProcessed(ctx context.Context, caseID int) (bool, error) {
	var n int
	err := s.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM processed_cases WHERE case_id = ?`, caseID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check case %d: %w", caseID, err)
	}
	return n > 0, nil
}

// RecordExclusion marks a case as excluded with a reason, so reruns can skip
// it without reloading the recording.
func (s *Store) RecordExclusion(ctx context.Context, runID string, caseID int, reason string) error {
	_, err := s.ExecContext(ctx,
		`INSERT OR REPLACE INTO excluded_cases (case_id, run_id, reason, excluded_at)
		 VALUES (?, ?, ?, ?)`,
		caseID, runID, reason, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record exclusion of case %d: %w", caseID, err)
	}
	return nil
}

// PersistSegments writes one EDF artifact per segment under the per-case
// directory, then records the segment index and the processed marker in a
// single transaction. A case with zero segments still gets its marker so it
// is never rescanned.
func (s *Store) PersistSegments(ctx context.Context, caseID int, runID string, tracks *vitaldb.CaseTracks, res extract.Result) error {
	caseDir := filepath.Join(s.SegmentsDir, fmt.Sprintf("%04d", caseID))
	if err := os.MkdirAll(caseDir, 0o755); err != nil {
		return fmt.Errorf("failed to create segment dir for case %d: %w", caseID, err)
	}

	type row struct {
		label       bool
		leadMinutes int
		start, end  int
		artifact    string
	}
	rows := make([]row, 0, len(res.Positives)+len(res.Negatives))

	for _, seg := range res.Positives {
		name := fmt.Sprintf("%04d_%d_%02d_True.edf", caseID, seg.Start, seg.LeadMinutes)
		if err := writeSegment(filepath.Join(caseDir, name), tracks, seg.Start, seg.End); err != nil {
			return fmt.Errorf("case %d segment %s: %w", caseID, name, err)
		}
		rows = append(rows, row{true, seg.LeadMinutes, seg.Start, seg.End, name})
	}
	for _, seg := range res.Negatives {
		name := fmt.Sprintf("%04d_%d_00_False.edf", caseID, seg.Start)
		if err := writeSegment(filepath.Join(caseDir, name), tracks, seg.Start, seg.End); err != nil {
			return fmt.Errorf("case %d segment %s: %w", caseID, name, err)
		}
		rows = append(rows, row{false, 0, seg.Start, seg.End, name})
	}

	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for case %d: %w", caseID, err)
	}
	defer tx.Rollback()

	for _, r := range rows {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO segments (case_id, run_id, label, lead_minutes, start_second, end_second, artifact)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			caseID, runID, r.label, r.leadMinutes, r.start, r.end, r.artifact); err != nil {
			return fmt.Errorf("failed to index segment %s: %w", r.artifact, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO processed_cases (case_id, run_id, track_start_index, positives, negatives, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		caseID, runID, res.TrackStartIndex, len(res.Positives), len(res.Negatives), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to mark case %d processed: %w", caseID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit case %d: %w", caseID, err)
	}
	return nil
}

// Physical calibration ranges for the emitted EDF signals.
var segmentSignalRanges = map[string][2]float64{
	vitaldb.ARTTrackName: {-150, 350},
	vitaldb.ECGTrackName: {-50, 50},
	vitaldb.EEGTrackName: {-500, 500},
}

// writeSegment writes one EDF artifact covering [startSec, endSec) of the
// three waveforms, one-second data records. NaN samples are stored as zero;
// EDF has no missing-sample encoding.
func writeSegment(path string, tracks *vitaldb.CaseTracks, startSec, endSec int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	channels := []*waveform.Track{tracks.ABP, tracks.ECG, tracks.EEG}
	signals := make([]edf.Signal, len(channels))
	for i, tr := range channels {
		r, ok := segmentSignalRanges[tr.Name]
		if !ok {
			r = [2]float64{-1000, 1000}
		}
		signals[i] = edf.Signal{
			Label:            tr.Name,
			PhysicalMin:      r[0],
			PhysicalMax:      r[1],
			DigitalMin:       -32768,
			DigitalMax:       32767,
			SamplesPerRecord: tr.RateHz,
		}
	}

	w, err := edf.Create(f, edf.Header{
		Version:            edf.Version0,
		RecordingID:        "hemodyn segment",
		StartTime:          time.Now().UTC(),
		DataRecordDuration: time.Second,
		SignalCount:        len(signals),
		Signals:            signals,
	})
	if err != nil {
		return err
	}

	for sec := startSec; sec < endSec; sec++ {
		record := make([][]float64, len(channels))
		for i, tr := range channels {
			record[i] = sanitizedSecond(tr, sec)
		}
		if err := w.WriteRecord(record); err != nil {
			return err
		}
	}
	return w.Close()
}

// sanitizedSecond returns one second of samples with NaN replaced by zero,
// zero-padded when the track ends short.
func sanitizedSecond(tr *waveform.Track, sec int) []float64 {
	out := make([]float64, tr.RateHz)
	lo := sec * tr.RateHz
	for i := range out {
		j := lo + i
		if j >= len(tr.Samples) {
			break
		}
		if v := tr.Samples[j]; !math.IsNaN(v) {
			out[i] = v
		}
	}
	return out
}
