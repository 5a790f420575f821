package repair

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"sync"
)

// State is the lifecycle of a batch.
type State int

const (
	StateInit State = iota
	StateReferenceLoaded
	StateRepairing
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateReferenceLoaded:
		return "reference_loaded"
	case StateRepairing:
		return "repairing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Summary aggregates a finished batch. Results are sorted by path.
type Summary struct {
	Total     int
	Repaired  int
	Failed    int
	Skipped   int
	Cancelled bool
	Results   []Result
}

// Batch repairs many corrupted files against one reference.
type Batch struct {
	Reference  *Reference
	OutputRoot string
	Workers    int
	Sink       Sink

	state State
}

// NewBatch loads the reference and prepares the output folder. A reference
// that cannot produce a header prefix leaves the batch failed before any
// file is touched.
func NewBatch(referencePath, outputRoot string, workers int, sink Sink) (*Batch, error) {
	b := &Batch{OutputRoot: outputRoot, Workers: workers, Sink: sink}

	ref, err := LoadReference(referencePath)
	if err != nil {
		b.state = StateFailed
		return b, err
	}
	if err := os.MkdirAll(outputRoot, 0755); err != nil {
		b.state = StateFailed
		return b, fmt.Errorf("creating output folder: %w", err)
	}
	b.Reference = ref
	b.state = StateReferenceLoaded
	return b, nil
}

// State returns where the batch is in its lifecycle. It must not be called
// concurrently with Run.
func (b *Batch) State() State {
	return b.state
}

// Run repairs paths on a bounded pool of workers and blocks until every
// dispatched file has finished. Workers never report directly: results are
// funneled to this goroutine, which alone updates the counters and calls
// the Sink. Sink.Done is always called once, also when ctx is cancelled, in
// which case files not yet dispatched are counted as skipped.
func (b *Batch) Run(ctx context.Context, paths []string) Summary {
	b.state = StateRepairing
	sink := b.Sink
	if sink == nil {
		sink = discardSink{}
	}

	workers := b.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = max(1, min(workers, len(paths)))

	summary := Summary{Total: len(paths)}
	sink.Started(summary.Total)

	jobs := make(chan string)
	results := make(chan Result)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				res, err := RepairFile(b.Reference, path, b.OutputRoot)
				res.Err = err
				results <- res
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, path := range paths {
			if ctx.Err() != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case jobs <- path:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		if res.OK() {
			summary.Repaired++
		} else {
			summary.Failed++
		}
		summary.Results = append(summary.Results, res)
		sink.FileDone(res, completed, summary.Total)
	}

	if completed < summary.Total {
		summary.Cancelled = true
		summary.Skipped = summary.Total - completed
	}
	sort.Slice(summary.Results, func(i, j int) bool {
		return summary.Results[i].Path < summary.Results[j].Path
	})

	b.state = StateDone
	sink.Done(summary)
	return summary
}
