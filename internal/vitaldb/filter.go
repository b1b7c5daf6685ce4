package vitaldb

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/hemodyn-data/ioh.report/internal/monitoring"
)

// Criteria is the case inclusion filter. Each field drives one stage; every
// stage logs how many cases it removed.
type Criteria struct {
	MinAge             float64
	AnesthesiaType     string
	ExcludedOpKeywords []string
	RequiredTracks     []string

	// SQIAllowlist restricts the cohort to cases whose arterial signal
	// passed an external quality screen. Nil disables the stage.
	SQIAllowlist map[int]bool
}

// DefaultCriteria returns the standard adult general-anesthesia cohort.
func DefaultCriteria() Criteria {
	return Criteria{
		MinAge:             18,
		AnesthesiaType:     "General",
		ExcludedOpKeywords: []string{"cardiac", "aneurysmal"},
		RequiredTracks:     []string{ARTTrackName, ECGTrackName, EEGTrackName},
	}
}

// LoadSQIAllowlist reads a caseid-per-row CSV of quality-screened cases.
// A header row is tolerated; non-numeric first fields are skipped.
func LoadSQIAllowlist(path string) (map[int]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQI allowlist: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	out := make(map[int]bool)
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse SQI allowlist: %w", err)
		}
		if len(row) == 0 {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			continue
		}
		out[id] = true
	}
	return out, nil
}

// SelectCases applies the inclusion criteria in order and returns the
// surviving case ids sorted ascending.
func SelectCases(cases []Case, tracks []TrackInfo, crit Criteria) []int {
	selected := make(map[int]Case, len(cases))
	for _, cs := range cases {
		selected[cs.ID] = cs
	}
	total := len(selected)

	stage := func(name string, keep func(Case) bool) {
		before := len(selected)
		for id, cs := range selected {
			if !keep(cs) {
				delete(selected, id)
			}
		}
		monitoring.Logf("%s criteria: excluded %d cases, %d of %d remaining",
			name, before-len(selected), len(selected), total)
	}

	stage("age", func(cs Case) bool {
		return cs.Age >= crit.MinAge
	})

	stage("anesthesia type", func(cs Case) bool {
		return strings.EqualFold(cs.AnesthesiaType, crit.AnesthesiaType)
	})

	stage("operation name", func(cs Case) bool {
		op := strings.ToLower(cs.OperationName)
		for _, kw := range crit.ExcludedOpKeywords {
			if strings.Contains(op, strings.ToLower(kw)) {
				return false
			}
		}
		return true
	})

	// track availability: a case qualifies only when every required track
	// appears in the trks table
	haveTracks := make(map[int]map[string]bool, len(selected))
	for _, tr := range tracks {
		if _, ok := selected[tr.CaseID]; !ok {
			continue
		}
		m := haveTracks[tr.CaseID]
		if m == nil {
			m = make(map[string]bool, len(crit.RequiredTracks))
			haveTracks[tr.CaseID] = m
		}
		m[tr.Name] = true
	}
	stage("required tracks", func(cs Case) bool {
		m := haveTracks[cs.ID]
		for _, name := range crit.RequiredTracks {
			if !m[name] {
				return false
			}
		}
		return true
	})

	if crit.SQIAllowlist != nil {
		stage("signal quality", func(cs Case) bool {
			return crit.SQIAllowlist[cs.ID]
		})
	}

	out := make([]int, 0, len(selected))
	for id := range selected {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
