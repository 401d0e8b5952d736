package tasks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/songmatch/internal/models"
)

// BatchOpts contains configuration for batch resolution.
type BatchOpts struct {
	Platform   models.Platform // Declared source platform; unknown lets each input decide
	NumWorkers int             // Concurrent workers (default: 4, max: 10)
	RateLimit  float64         // Resolutions started per second (default: 5)
}

// BatchItem is the outcome for one input line.
type BatchItem struct {
	Index  int
	Input  string
	Result models.MatchResult
}

// BatchResult summarizes a batch run. Items are in input order.
type BatchResult struct {
	Total     int
	Succeeded int
	Failed    int
	CacheHits int
	Items     []BatchItem
	Elapsed   time.Duration
}

// MatchPercentage returns the success rate as a percentage.
func (r *BatchResult) MatchPercentage() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Succeeded) / float64(r.Total) * 100
}

type batchJob struct {
	index int
	input string
}

// Batch resolves many inputs concurrently with rate limiting and progress tracking.
//
// Each input goes through [MatchEngine.MatchTrack], so duplicates and earlier
// results are served from the cache. Cancellation stops dispatch; inputs that
// were never started are absent from the result and ctx.Err() is returned.
func (e *MatchEngine) Batch(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	inputs []string,
	opts BatchOpts,
) (*BatchResult, error) {
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	started := time.Now()
	total := len(inputs)
	result := &BatchResult{Total: total, Items: make([]BatchItem, 0, total)}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan batchJob, total)
	results := make(chan BatchItem, total)

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.matchWorker(ctx, &wg, jobs, results, opts.Platform)
	}

	e.sendProgress(prog, readInputsUpdate(total))

	go func() {
		defer close(jobs)
		for i, input := range inputs {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			jobs <- batchJob{index: i, input: input}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for item := range results {
		completed++
		result.Items = append(result.Items, item)

		if item.Result.Success {
			result.Succeeded++
		} else {
			result.Failed++
		}
		if item.Result.Method == models.MethodCache {
			result.CacheHits++
		}

		e.sendProgress(prog, matchCompletedUpdate(completed, total, item))
	}

	sort.Slice(result.Items, func(i, j int) bool {
		return result.Items[i].Index < result.Items[j].Index
	})
	result.Elapsed = time.Since(started)

	e.sendProgress(prog, summaryUpdate(result))

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("batch stopped after %d of %d tracks: %w", completed, total, err)
	}
	return result, nil
}

// matchWorker resolves inputs from the jobs channel.
func (e *MatchEngine) matchWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan batchJob,
	results chan<- BatchItem,
	platform models.Platform,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- BatchItem{
			Index:  job.index,
			Input:  job.input,
			Result: e.MatchTrack(ctx, job.input, platform),
		}
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *MatchEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}
