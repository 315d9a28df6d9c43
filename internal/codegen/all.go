package codegen

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"blockgen/internal/trace"
)

// GenerateAll runs one pass per request with at most jobs passes in
// flight (GOMAXPROCS when jobs <= 0). Results keep the request order. A
// failing workspace does not stop the others; only cancellation of ctx
// is returned as an error.
func GenerateAll(ctx context.Context, reqs []Request, jobs int) ([]Result, error) {
	results := make([]Result, len(reqs))
	if len(reqs) == 0 {
		return results, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	span := trace.Begin(trace.FromContext(ctx), trace.ScopeDriver, "generate_all", trace.CurrentSpan(ctx).SpanID)
	defer span.End("")
	ctx = trace.WithSpanContext(ctx, trace.SpanContext{SpanID: span.ID()})

	for i := range reqs {
		emitEvent(reqs[i].Progress, reqs[i].Name, StageDecode, StatusQueued, nil, 0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(reqs)))
	for i := range reqs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			// index i is unique per goroutine, no lock needed
			results[i], _ = Generate(gctx, &reqs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}
