package pipeline

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"Pontis/internal/design"
)

type BatchItem struct {
	Intent      design.Intent      `json:"intent"`
	Constraints design.Constraints `json:"constraints"`
}

// RefineBatch refines items concurrently; results keep the input order.
// It stops early only when ctx is cancelled.
func (s *Service) RefineBatch(ctx context.Context, items []BatchItem) ([]Evaluation, error) {
	out := make([]Evaluation, len(items))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, it := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = s.RefineAndValidate(it.Intent, it.Constraints)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
