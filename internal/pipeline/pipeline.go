// Package pipeline implements spec.md §4.E: turn an ordered sequence of
// work items into a stream of decoded Data values produced on N worker
// goroutines but consumed, in the exact input order, on one coordinator
// goroutine.
package pipeline

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Options configures a Run. Workers defaults to runtime.GOMAXPROCS(0) when
// zero; QueueFactor defaults to 2, giving the "≈2×workers outstanding Data
// values" back-pressure bound from spec.md §4.E/§5.
type Options struct {
	Workers     int
	QueueFactor int
}

// Run feeds every index in [0, n) through produce on a worker pool, then
// delivers each produced value to consume in strict index order. The first
// error from either produce or consume aborts the whole pipeline and is
// returned; remaining work is abandoned (spec.md §4.E cancellation).
//
// consume is only ever called from whichever worker goroutine currently
// owns the next-to-deliver slot, one at a time, in index order — it never
// needs its own locking.
func Run[D any](ctx context.Context, n int, opts Options, produce func(ctx context.Context, i int) (D, error), consume func(i int, d D) error) error {
	if n == 0 {
		return nil
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
		if workers < 1 {
			workers = 1
		}
	}
	queueFactor := opts.QueueFactor
	if queueFactor <= 0 {
		queueFactor = 2
	}

	g, gctx := errgroup.WithContext(ctx)

	// sem bounds in-flight (produced-but-not-yet-dropped) Data values to
	// ~queueFactor*workers: the memory bound spec.md §5 describes.
	sem := make(chan struct{}, queueFactor*workers)

	// mu/cond order delivery: a worker that finishes index i before index
	// i-1 has been delivered blocks on cond until its turn, per spec.md
	// §4.E ("worker k blocks on a condition variable until it is item
	// k-1's turn to be delivered").
	var mu sync.Mutex
	cond := sync.NewCond(&mu)
	nextToClaim := 0
	nextToDeliver := 0
	pending := make(map[int]D)

	// drop is the dedicated drain thread: large decoded blocks are hand
	// off here immediately after consume runs, so the coordinator never
	// stalls waiting on a GC of the structure it just wrote out.
	drop := make(chan D, queueFactor*workers)
	var dropWG sync.WaitGroup
	dropWG.Add(1)
	go func() {
		defer dropWG.Done()
		for range drop {
		}
	}()

	claim := func() (int, bool) {
		mu.Lock()
		defer mu.Unlock()
		if nextToClaim >= n {
			return 0, false
		}
		i := nextToClaim
		nextToClaim++
		return i, true
	}

	// abandon gives up a claimed item that was never produced: it waits for
	// i's delivery turn and steps past it, so later workers are not left
	// blocked on cond.
	abandon := func(i int) {
		mu.Lock()
		for nextToDeliver != i {
			cond.Wait()
		}
		nextToDeliver++
		cond.Broadcast()
		mu.Unlock()
	}

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				i, ok := claim()
				if !ok {
					return nil
				}

				select {
				case sem <- struct{}{}:
				case <-gctx.Done():
					abandon(i)
					return gctx.Err()
				}

				d, err := produce(gctx, i)
				if err != nil {
					<-sem
					abandon(i)
					return err
				}

				mu.Lock()
				pending[i] = d
				for nextToDeliver != i {
					cond.Wait()
				}
				own := pending[i]
				delete(pending, i)
				var cerr error
				if gctx.Err() != nil {
					// Pipeline already aborting: skip consume so a
					// partially-written failure doesn't advance past the
					// block that caused it, but still advance
					// nextToDeliver so no later worker deadlocks on cond.
					cerr = gctx.Err()
				} else {
					cerr = consume(i, own)
				}
				nextToDeliver++
				cond.Broadcast()
				mu.Unlock()

				if cerr != nil {
					<-sem
					return cerr
				}

				drop <- own
				<-sem
			}
		})
	}

	err := g.Wait()
	close(drop)
	dropWG.Wait()
	return err
}
