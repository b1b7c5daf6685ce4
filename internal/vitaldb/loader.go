package vitaldb

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/OpenPSG/edf"

	"github.com/hemodyn-data/ioh.report/internal/waveform"
)

// VitalDB track names for the three required waveforms.
const (
	ARTTrackName = "SNUADC/ART"
	ECGTrackName = "SNUADC/ECG_II"
	EEGTrackName = "BIS/EEG1_WAV"
)

// Case recordings carry the three waveforms at fixed signal positions.
const (
	artSignalIndex = 0
	ecgSignalIndex = 1
	eegSignalIndex = 2
)

// Rates holds the per-channel sample rates of the case recordings.
type Rates struct {
	ArterialHz int
	ECGHz      int
	EEGHz      int
}

// DefaultRates returns the VitalDB device rates.
func DefaultRates() Rates {
	return Rates{ArterialHz: 500, ECGHz: 500, EEGHz: 128}
}

// CaseTracks bundles the preprocessed waveforms of one case. ABP is the raw
// arterial pressure; ECG and EEG are band-passed (and the ECG z-scored) and
// only flow into the emitted artifacts, never into detection.
type CaseTracks struct {
	ABP *waveform.Track
	ECG *waveform.Track
	EEG *waveform.Track
}

// Loader reads case recordings from a directory of %04d.edf files, applying
// the per-channel preprocessing and caching decoded cases when a cache is
// attached.
type Loader struct {
	Dir   string
	Rates Rates

	cache *TrackCache
}

// NewLoader returns a loader over dir. cache may be nil.
func NewLoader(dir string, rates Rates, cache *TrackCache) *Loader {
	return &Loader{Dir: dir, Rates: rates, cache: cache}
}

// LoadCase reads and preprocesses the three waveforms of a case.
func (l *Loader) LoadCase(ctx context.Context, caseID int) (*CaseTracks, error) {
	if tracks, ok := l.cache.Get(caseID); ok {
		return tracks, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(l.Dir, fmt.Sprintf("%04d.edf", caseID))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording for case %d: %w", caseID, err)
	}
	defer f.Close()

	r, err := edf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse recording for case %d: %w", caseID, err)
	}

	abp, err := readSignal(r, artSignalIndex)
	if err != nil {
		return nil, fmt.Errorf("case %d arterial signal: %w", caseID, err)
	}
	ecg, err := readSignal(r, ecgSignalIndex)
	if err != nil {
		return nil, fmt.Errorf("case %d ECG signal: %w", caseID, err)
	}
	eeg, err := readSignal(r, eegSignalIndex)
	if err != nil {
		return nil, fmt.Errorf("case %d EEG signal: %w", caseID, err)
	}

	ecg = waveform.Normalize(waveform.BandPass(ecg, 1, 40, l.Rates.ECGHz))
	eeg = waveform.BandPass(eeg, 0.5, 50, l.Rates.EEGHz)

	tracks := &CaseTracks{
		ABP: waveform.NewTrack(ARTTrackName, l.Rates.ArterialHz, abp),
		ECG: waveform.NewTrack(ECGTrackName, l.Rates.ECGHz, ecg),
		EEG: waveform.NewTrack(EEGTrackName, l.Rates.EEGHz, eeg),
	}
	l.cache.Put(caseID, tracks)
	return tracks, nil
}

// readSignal drains one signal of the recording into memory.
func readSignal(r *edf.Reader, index int) ([]float64, error) {
	sr, err := r.Signal(index)
	if err != nil {
		return nil, err
	}

	var out []float64
	buf := make([]float64, 8192)
	for {
		n, err := sr.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
