// Package pipeline orchestrates extraction across a cohort: per-case load,
// detect, persist, with idempotent skip and a bounded worker pool.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hemodyn-data/ioh.report/internal/extract"
	"github.com/hemodyn-data/ioh.report/internal/monitoring"
	"github.com/hemodyn-data/ioh.report/internal/vitaldb"
)

// Loader provides the preprocessed waveforms of a case.
type Loader interface {
	LoadCase(ctx context.Context, caseID int) (*vitaldb.CaseTracks, error)
}

// Persister records extraction outcomes.
type Persister interface {
	IsCaseProcessed(ctx context.Context, caseID int) (bool, error)
	RecordExclusion(ctx context.Context, runID string, caseID int, reason string) error
	PersistSegments(ctx context.Context, caseID int, runID string, tracks *vitaldb.CaseTracks, res extract.Result) error
}

// Outcome classifies how a case ended.
type Outcome int

const (
	OutcomeProcessed Outcome = iota
	OutcomeSkipped
	OutcomeExcluded
)

// Stats aggregates the outcomes of one run.
type Stats struct {
	Processed int
	Skipped   int
	Excluded  int
	Failed    int
	Positives int
	Negatives int
}

// Pipeline drives extraction for a list of cases.
type Pipeline struct {
	Loader  Loader
	Store   Persister
	Params  extract.Params
	Workers int
}

// ProcessCase runs the full extraction for one case. Cases persisted by an
// earlier run are skipped; cases without a usable arterial track are
// excluded. A failure in one case never aborts the run.
func (p *Pipeline) ProcessCase(ctx context.Context, runID string, caseID int) (Outcome, extract.Result, error) {
	done, err := p.Store.IsCaseProcessed(ctx, caseID)
	if err != nil {
		return 0, extract.Result{}, err
	}
	if done {
		monitoring.Logf("case %04d already processed, skipping", caseID)
		return OutcomeSkipped, extract.Result{}, nil
	}

	tracks, err := p.Loader.LoadCase(ctx, caseID)
	if err != nil {
		return 0, extract.Result{}, fmt.Errorf("load: %w", err)
	}
	if tracks.ABP == nil || tracks.ABP.Empty() {
		if err := p.Store.RecordExclusion(ctx, runID, caseID, "empty arterial track"); err != nil {
			return 0, extract.Result{}, err
		}
		monitoring.Logf("case %04d excluded: empty arterial track", caseID)
		return OutcomeExcluded, extract.Result{}, nil
	}

	res := extract.Run(tracks.ABP, p.Params)
	if err := p.Store.PersistSegments(ctx, caseID, runID, tracks, res); err != nil {
		return 0, extract.Result{}, fmt.Errorf("persist: %w", err)
	}

	monitoring.Logf("case %04d: %d events, %d clean windows, %d positive and %d negative segments",
		caseID, len(res.Events), len(res.CleanWindows), len(res.Positives), len(res.Negatives))
	return OutcomeProcessed, res, nil
}

// Run processes the cases with a pool of workers and returns the aggregate
// stats. Cancelling the context stops feeding new cases; in-flight cases
// finish or fail on their own.
func (p *Pipeline) Run(ctx context.Context, runID string, caseIDs []int) Stats {
	workers := p.Workers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var stats Stats

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for caseID := range jobs {
				outcome, res, err := p.ProcessCase(ctx, runID, caseID)

				mu.Lock()
				switch {
				case errors.Is(err, context.Canceled):
					// shutdown, not a case failure
				case err != nil:
					stats.Failed++
					monitoring.Logf("case %04d failed: %v", caseID, err)
				case outcome == OutcomeSkipped:
					stats.Skipped++
				case outcome == OutcomeExcluded:
					stats.Excluded++
				default:
					stats.Processed++
					stats.Positives += len(res.Positives)
					stats.Negatives += len(res.Negatives)
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, caseID := range caseIDs {
		select {
		case jobs <- caseID:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	return stats
}
