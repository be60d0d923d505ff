package sim

import (
	"context"
	"runtime"

	"github.com/san-kum/odestep/internal/dynamo"
	"golang.org/x/sync/errgroup"
)

// Batch integrates the same ODE from several initial states at once.
// Runs share nothing but f, the mesh and the params, all of which are read
// only; each run gets its own stepper. Observers passed as options are
// shared and must be safe for concurrent use.
type Batch struct {
	newStepper func() dynamo.Stepper
	opts       []Option
	workers    int
}

func NewBatch(newStepper func() dynamo.Stepper, opts ...Option) *Batch {
	return &Batch{newStepper: newStepper, opts: opts, workers: runtime.NumCPU()}
}

// SetWorkers caps the number of concurrent runs.
func (b *Batch) SetWorkers(n int) {
	if n > 0 {
		b.workers = n
	}
}

func (b *Batch) Run(ctx context.Context, f dynamo.Derivative, points []float64, initial []dynamo.State, p dynamo.Params) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, len(initial))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for i, x0 := range initial {
		i, x0 := i, x0
		g.Go(func() error {
			s := New(b.newStepper(), b.opts...)
			res, err := s.Run(gctx, f, points, x0, p)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
