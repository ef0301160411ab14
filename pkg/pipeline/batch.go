package pipeline

import (
	"context"
	"fmt"

	"github.com/alitto/pond/v2"

	"github.com/malbeclabs/scichart/pkg/plan"
)

const defaultBatchConcurrency = 4

// Turn is one independent question in a batch.
type Turn struct {
	Text string
	Prev plan.Raw
}

type BatchResult struct {
	Turn   Turn
	Result *Result
	Err    error
}

// Batch runs independent turns on a bounded worker pool. Results are in
// input order. A failed turn does not stop the others; only cancellation of
// ctx does.
func (p *Pipeline) Batch(ctx context.Context, turns []Turn, concurrency int) ([]BatchResult, error) {
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}
	pool := pond.NewResultPool[BatchResult](concurrency, pond.WithContext(ctx))
	defer pool.StopAndWait()

	group := pool.NewGroupContext(ctx)
	for _, turn := range turns {
		group.Submit(func() BatchResult {
			res, err := p.Run(ctx, turn.Text, turn.Prev)
			return BatchResult{Turn: turn, Result: res, Err: err}
		})
	}

	results, err := group.Wait()
	if err != nil {
		return nil, fmt.Errorf("failed to run batch: %w", err)
	}
	return results, nil
}
