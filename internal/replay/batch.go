package replay

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/woozymasta/dzmeasure/internal/config"
)

// Outcome is the result of one script in a batch.
type Outcome struct {
	Script *Script
	Result *Result
	Err    error
	Index  int
}

type job struct {
	script *Script
	index  int
}

// RunAll replays scripts with up to concurrency workers. Every script gets
// its own manager; outcomes are returned in script order.
func RunAll(ctx context.Context, cfg *config.Config, scripts []*Script, concurrency int) []Outcome {
	if concurrency <= 0 {
		concurrency = 1
	}

	jobs := make(chan job, len(scripts))
	results := make(chan Outcome, len(scripts))

	go func() {
		for i, s := range scripts {
			jobs <- job{script: s, index: i}
		}
		close(jobs)
	}()

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				res, err := Run(ctx, cfg, j.script)
				if err != nil {
					log.Trace().
						Err(err).
						Str("script", j.script.Name).
						Msg("Failed to replay script")
				}
				results <- Outcome{Script: j.script, Result: res, Err: err, Index: j.index}
			}
		}()
	}
	wg.Wait()
	close(results)

	outcomes := make([]Outcome, len(scripts))
	for res := range results {
		outcomes[res.Index] = res
	}

	return outcomes
}
