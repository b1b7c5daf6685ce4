package vitaldb

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/OpenPSG/edf"
)

// writeRecording writes a %04d.edf fixture with the fixed three-signal
// layout: constant arterial pressure, a low-amplitude ECG sine and a flat
// EEG, one-second data records.
func writeRecording(t *testing.T, dir string, caseID int, rates Rates, seconds int, abpValue float64) {
	t.Helper()

	f, err := os.Create(filepath.Join(dir, fmt.Sprintf("%04d.edf", caseID)))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	hdr := edf.Header{
		Version:            edf.Version0,
		PatientID:          fmt.Sprintf("case %d", caseID),
		RecordingID:        "synthetic recording",
		StartTime:          time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
		DataRecordDuration: time.Second,
		SignalCount:        3,
		Signals: []edf.Signal{
			{Label: ARTTrackName, PhysicalDimension: "mmHg", PhysicalMin: -150, PhysicalMax: 350,
				DigitalMin: -32768, DigitalMax: 32767, SamplesPerRecord: rates.ArterialHz},
			{Label: ECGTrackName, PhysicalDimension: "mV", PhysicalMin: -5, PhysicalMax: 5,
				DigitalMin: -32768, DigitalMax: 32767, SamplesPerRecord: rates.ECGHz},
			{Label: EEGTrackName, PhysicalDimension: "uV", PhysicalMin: -500, PhysicalMax: 500,
				DigitalMin: -32768, DigitalMax: 32767, SamplesPerRecord: rates.EEGHz},
		},
	}
	w, err := edf.Create(f, hdr)
	if err != nil {
		t.Fatal(err)
	}

	for rec := 0; rec < seconds; rec++ {
		abp := make([]float64, rates.ArterialHz)
		for i := range abp {
			abp[i] = abpValue
		}
		ecg := make([]float64, rates.ECGHz)
		for i := range ecg {
			ecg[i] = 0.5 * math.Sin(2*math.Pi*5*float64(i)/float64(rates.ECGHz))
		}
		eeg := make([]float64, rates.EEGHz)
		if err := w.WriteRecord([][]float64{abp, ecg, eeg}); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestLoaderLoadCase(t *testing.T) {
	dir := t.TempDir()
	rates := DefaultRates()
	writeRecording(t, dir, 1, rates, 5, 80)

	l := NewLoader(dir, rates, nil)
	tracks, err := l.LoadCase(context.Background(), 1)
	if err != nil {
		t.Fatalf("LoadCase: %v", err)
	}

	if tracks.ABP.Name != ARTTrackName || tracks.ABP.RateHz != rates.ArterialHz {
		t.Errorf("ABP track = %q @ %d Hz", tracks.ABP.Name, tracks.ABP.RateHz)
	}
	if got := tracks.ABP.DurationSeconds(); got != 5 {
		t.Errorf("ABP duration = %d s, want 5", got)
	}
	// constant pressure survives the digital round trip up to quantization
	if got := tracks.ABP.MeanBetween(0, 5); math.Abs(got-80) > 0.05 {
		t.Errorf("ABP mean = %v, want ~80", got)
	}

	if got := len(tracks.ECG.Samples); got != 5*rates.ECGHz {
		t.Errorf("ECG samples = %d, want %d", got, 5*rates.ECGHz)
	}
	if got := len(tracks.EEG.Samples); got != 5*rates.EEGHz {
		t.Errorf("EEG samples = %d, want %d", got, 5*rates.EEGHz)
	}
	for i, v := range tracks.ECG.Samples {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("ECG sample %d is %v after preprocessing", i, v)
		}
	}
}

func TestLoaderCacheHit(t *testing.T) {
	dir := t.TempDir()
	rates := DefaultRates()
	writeRecording(t, dir, 7, rates, 2, 90)

	l := NewLoader(dir, rates, NewTrackCache(4))
	first, err := l.LoadCase(context.Background(), 7)
	if err != nil {
		t.Fatalf("LoadCase: %v", err)
	}

	// remove the file: a second load can only succeed from the cache
	if err := os.Remove(filepath.Join(dir, "0007.edf")); err != nil {
		t.Fatal(err)
	}
	second, err := l.LoadCase(context.Background(), 7)
	if err != nil {
		t.Fatalf("cached LoadCase: %v", err)
	}
	if second != first {
		t.Error("cached load should return the same tracks")
	}
}

func TestLoaderMissingRecording(t *testing.T) {
	l := NewLoader(t.TempDir(), DefaultRates(), nil)
	if _, err := l.LoadCase(context.Background(), 42); err == nil {
		t.Error("expected error for a missing recording")
	}
}

func TestLoaderCancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeRecording(t, dir, 1, DefaultRates(), 1, 80)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := NewLoader(dir, DefaultRates(), nil)
	if _, err := l.LoadCase(ctx, 1); err == nil {
		t.Error("expected context error")
	}
}
