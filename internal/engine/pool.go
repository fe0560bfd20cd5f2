package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/trevnoctilla/campaigns-api/internal/entity"
)

// Pool admits a bounded number of company runs at a time ("rapid-all").
// Companies beyond the bound queue until a slot frees. A run's failure is
// its own; the pool never aborts siblings.
type Pool struct {
	size int
}

// NewPool builds a pool with the given bound. Non-positive sizes fall back
// to 5, the observed production default.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = 5
	}
	return &Pool{size: size}
}

// Size reports the concurrency bound.
func (p *Pool) Size() int {
	return p.size
}

// Process fans the companies out over the pool and blocks until every
// admitted run returned. Cancelling ctx stops admissions; companies never
// admitted are simply skipped and stay pending.
func (p *Pool) Process(ctx context.Context, companies []entity.Company, run func(context.Context, entity.Company)) {
	group := new(errgroup.Group)
	group.SetLimit(p.size)

	for _, company := range companies {
		if ctx.Err() != nil {
			break
		}
		company := company
		group.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			run(ctx, company)
			return nil
		})
	}

	_ = group.Wait()
}
