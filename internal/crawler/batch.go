package crawler

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/webcrawl/internal/config"
	"github.com/nao1215/webcrawl/internal/model"
)

// BatchResult pairs one seed with the outcome of its run. Err is set
// when the engine could not be built or the run was cut short; Result
// holds whatever was collected either way.
type BatchResult struct {
	Seed   string
	Result *model.CrawlResult
	Err    error
}

// RunBatch crawls every configured seed, at most cfg.BatchSize runs at
// a time. Each seed gets its own Engine, so frontiers, dedup indexes,
// and rate limiter state never leak between sites. Results come back
// in seed order regardless of completion order.
//
// A failing seed does not abort its siblings; the joined error of all
// failures is returned after every run has finished.
func RunBatch(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]BatchResult, error) {
	results := make([]BatchResult, len(cfg.Seeds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.BatchSize)

	for i, seed := range cfg.Seeds {
		g.Go(func() error {
			results[i] = runSeed(gctx, cfg, seed, logger)
			return nil
		})
	}
	// Workers never return errors; Wait only observes ctx cancellation.
	_ = g.Wait()

	errs := make([]error, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return results, errors.Join(errs...)
}

func runSeed(ctx context.Context, cfg *config.Config, seed string, logger *slog.Logger) BatchResult {
	engine, err := New(cfg, seed, logger)
	if err != nil {
		return BatchResult{Seed: seed, Err: err}
	}
	result, err := engine.Run(ctx)
	return BatchResult{Seed: seed, Result: result, Err: err}
}
