package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hemodyn-data/ioh.report/internal/extract"
)

// DefaultConfigPath is the path to the canonical extraction defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/extraction.defaults.json"

// Tuning represents the root configuration for the extraction pipeline.
// Every field is a pointer so that partial JSON files are safe: fields
// omitted from the file keep their defaults via the Get* accessors.
type Tuning struct {
	// Detection params
	OnsetThresholdMmHg *float64 `json:"onset_threshold_mmhg,omitempty"`
	CleanThresholdMmHg *float64 `json:"clean_threshold_mmhg,omitempty"`
	EventWindowSeconds *int     `json:"event_window_seconds,omitempty"`
	CleanWindowSeconds *int     `json:"clean_window_seconds,omitempty"`
	StrideSeconds      *int     `json:"stride_seconds,omitempty"`
	SegmentSeconds     *int     `json:"segment_seconds,omitempty"`
	LeadTimesMinutes   *[]int   `json:"lead_times_minutes,omitempty"`
	MinEventGapSeconds *int     `json:"min_event_gap_seconds,omitempty"`

	// Channel sample rates
	ArterialRateHz *int `json:"arterial_rate_hz,omitempty"`
	ECGRateHz      *int `json:"ecg_rate_hz,omitempty"`
	EEGRateHz      *int `json:"eeg_rate_hz,omitempty"`

	// Run params
	Workers         *int  `json:"workers,omitempty"`
	MaxCases        *int  `json:"max_cases,omitempty"`
	TrackCacheSize  *int  `json:"track_cache_size,omitempty"`
	ShuffleCaseList *bool `json:"shuffle_case_list,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrBool(v bool) *bool          { return &v }

// EmptyTuning returns a Tuning with all fields set to nil.
// Use LoadTuning to load actual values from a config file.
func EmptyTuning() *Tuning {
	return &Tuning{}
}

// LoadTuning loads a Tuning from a JSON file. The file must have a .json
// extension and stay under the max file size. Fields omitted from the JSON
// retain their default values, so partial configs are safe.
func LoadTuning(path string) (*Tuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuning()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *Tuning) Validate() error {
	if c.OnsetThresholdMmHg != nil && *c.OnsetThresholdMmHg <= 0 {
		return fmt.Errorf("onset_threshold_mmhg must be positive, got %f", *c.OnsetThresholdMmHg)
	}
	if c.CleanThresholdMmHg != nil && *c.CleanThresholdMmHg <= 0 {
		return fmt.Errorf("clean_threshold_mmhg must be positive, got %f", *c.CleanThresholdMmHg)
	}
	if c.EventWindowSeconds != nil && *c.EventWindowSeconds <= 0 {
		return fmt.Errorf("event_window_seconds must be positive, got %d", *c.EventWindowSeconds)
	}
	if c.CleanWindowSeconds != nil && *c.CleanWindowSeconds <= 0 {
		return fmt.Errorf("clean_window_seconds must be positive, got %d", *c.CleanWindowSeconds)
	}
	if c.StrideSeconds != nil && *c.StrideSeconds <= 0 {
		return fmt.Errorf("stride_seconds must be positive, got %d", *c.StrideSeconds)
	}
	if c.SegmentSeconds != nil && *c.SegmentSeconds <= 0 {
		return fmt.Errorf("segment_seconds must be positive, got %d", *c.SegmentSeconds)
	}
	if c.LeadTimesMinutes != nil {
		if len(*c.LeadTimesMinutes) == 0 {
			return fmt.Errorf("lead_times_minutes must not be empty when set")
		}
		for _, lead := range *c.LeadTimesMinutes {
			if lead <= 0 {
				return fmt.Errorf("lead times must be positive, got %d", lead)
			}
		}
	}
	if c.MinEventGapSeconds != nil && *c.MinEventGapSeconds < 0 {
		return fmt.Errorf("min_event_gap_seconds must be non-negative, got %d", *c.MinEventGapSeconds)
	}
	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}
	if c.MaxCases != nil && *c.MaxCases < 0 {
		return fmt.Errorf("max_cases must be non-negative, got %d", *c.MaxCases)
	}
	if c.TrackCacheSize != nil && *c.TrackCacheSize < 0 {
		return fmt.Errorf("track_cache_size must be non-negative, got %d", *c.TrackCacheSize)
	}
	return nil
}

// GetOnsetThresholdMmHg returns the onset/recovery threshold or the default.
func (c *Tuning) GetOnsetThresholdMmHg() float64 {
	if c.OnsetThresholdMmHg == nil {
		return 65
	}
	return *c.OnsetThresholdMmHg
}

// GetCleanThresholdMmHg returns the clean-window threshold or the default.
func (c *Tuning) GetCleanThresholdMmHg() float64 {
	if c.CleanThresholdMmHg == nil {
		return 75
	}
	return *c.CleanThresholdMmHg
}

// GetEventWindowSeconds returns the event detection window or the default.
func (c *Tuning) GetEventWindowSeconds() int {
	if c.EventWindowSeconds == nil {
		return 60
	}
	return *c.EventWindowSeconds
}

// GetCleanWindowSeconds returns the clean-window length or the default.
func (c *Tuning) GetCleanWindowSeconds() int {
	if c.CleanWindowSeconds == nil {
		return 1800
	}
	return *c.CleanWindowSeconds
}

// GetStrideSeconds returns the clean-window scan stride or the default.
func (c *Tuning) GetStrideSeconds() int {
	if c.StrideSeconds == nil {
		return 10
	}
	return *c.StrideSeconds
}

// GetSegmentSeconds returns the emitted segment length or the default.
func (c *Tuning) GetSegmentSeconds() int {
	if c.SegmentSeconds == nil {
		return 60
	}
	return *c.SegmentSeconds
}

// GetLeadTimesMinutes returns the configured lead times or the defaults.
func (c *Tuning) GetLeadTimesMinutes() []int {
	if c.LeadTimesMinutes == nil {
		return []int{3, 5, 10, 15}
	}
	return *c.LeadTimesMinutes
}

// GetMinEventGapSeconds returns the minimum event separation or the default.
// Zero disables the gap check, matching the historical preprocessing.
func (c *Tuning) GetMinEventGapSeconds() int {
	if c.MinEventGapSeconds == nil {
		return 0
	}
	return *c.MinEventGapSeconds
}

// GetArterialRateHz returns the arterial pressure sample rate or the default.
func (c *Tuning) GetArterialRateHz() int {
	if c.ArterialRateHz == nil {
		return 500
	}
	return *c.ArterialRateHz
}

// GetECGRateHz returns the ECG sample rate or the default.
func (c *Tuning) GetECGRateHz() int {
	if c.ECGRateHz == nil {
		return 500
	}
	return *c.ECGRateHz
}

// GetEEGRateHz returns the EEG sample rate or the default.
func (c *Tuning) GetEEGRateHz() int {
	if c.EEGRateHz == nil {
		return 128
	}
	return *c.EEGRateHz
}

// GetWorkers returns the case-level parallelism or the default.
func (c *Tuning) GetWorkers() int {
	if c.Workers == nil {
		return 1
	}
	return *c.Workers
}

// GetMaxCases returns the case-count cap. Zero means no cap.
func (c *Tuning) GetMaxCases() int {
	if c.MaxCases == nil {
		return 0
	}
	return *c.MaxCases
}

// GetTrackCacheSize returns the in-memory track cache capacity in cases.
// Zero disables caching.
func (c *Tuning) GetTrackCacheSize() int {
	if c.TrackCacheSize == nil {
		return 0
	}
	return *c.TrackCacheSize
}

// GetShuffleCaseList reports whether the case list is shuffled before
// processing, spreading long cases across workers.
func (c *Tuning) GetShuffleCaseList() bool {
	if c.ShuffleCaseList == nil {
		return true
	}
	return *c.ShuffleCaseList
}

// ExtractionParams converts the tuning into the detector parameter set.
func (c *Tuning) ExtractionParams() extract.Params {
	return extract.Params{
		OnsetThresholdMmHg: c.GetOnsetThresholdMmHg(),
		CleanThresholdMmHg: c.GetCleanThresholdMmHg(),
		EventWindowSeconds: c.GetEventWindowSeconds(),
		CleanWindowSeconds: c.GetCleanWindowSeconds(),
		StrideSeconds:      c.GetStrideSeconds(),
		SegmentSeconds:     c.GetSegmentSeconds(),
		LeadTimesMinutes:   c.GetLeadTimesMinutes(),
		MinEventGapSeconds: c.GetMinEventGapSeconds(),
	}
}
