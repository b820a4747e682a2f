// Package workload simulates a small build/cache worker pool whose sole
// purpose is to drive real traffic through internal/counters end to end:
// every worker binds its own child Typed[Op], so call sites exercise
// parent propagation the same way a build farm's per-worker counter
// trees roll up into a process-wide total. Workers generate their own
// synthetic work instead of consuming a shared queue.
package workload

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/23skdu/shardstat/internal/counters"
	"go.uber.org/zap"
)

// Op enumerates the build-pipeline stages the simulated workers drive
// counters for.
type Op int

const (
	OpCompile   Op = 0
	OpLink      Op = 1
	OpCacheHit  Op = 2
	OpCacheMiss Op = 3
)

// Members returns the enum member table binding Op to counter metadata.
func Members() []counters.Member[Op] {
	return []counters.Member[Op]{
		{Value: OpCompile, Kind: counters.KindStopwatch, Name: "Compile"},
		{Value: OpLink, Kind: counters.KindStopwatch, Name: "Link"},
		{Value: OpCacheHit, Kind: counters.KindNumeric, Name: "CacheHit"},
		{Value: OpCacheMiss, Kind: counters.KindNumeric, Name: "CacheMiss"},
	}
}

// Pool runs a fixed number of simulated build workers, each against its
// own child counter tree rolled up into Parent.
type Pool struct {
	Parent  *counters.Typed[Op]
	logger  *zap.Logger
	workers int
	wg      sync.WaitGroup
}

// NewPool builds a Pool with the given worker count and a freshly bound,
// parentless root Typed[Op].
func NewPool(workers int, logger *zap.Logger) (*Pool, error) {
	if workers < 1 {
		workers = 1
	}
	parent, err := counters.Bind(Members(), (*counters.Typed[Op])(nil))
	if err != nil {
		return nil, err
	}
	return &Pool{Parent: parent, logger: logger, workers: workers}, nil
}

// Run starts every worker and blocks until ctx is cancelled and all
// workers have returned.
func (p *Pool) Run(ctx context.Context) error {
	for i := 0; i < p.workers; i++ {
		child, err := counters.Bind(Members(), p.Parent)
		if err != nil {
			return err
		}
		p.wg.Add(1)
		go p.runWorker(ctx, i, child)
	}
	p.wg.Wait()
	return nil
}

func (p *Pool) runWorker(ctx context.Context, id int, child *counters.Typed[Op]) {
	defer p.wg.Done()
	rnd := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		simulateBuildStep(child, rnd)
	}
}

func simulateBuildStep(child *counters.Typed[Op], rnd *rand.Rand) {
	if err := child.WithStopwatch(OpCompile, func() {
		time.Sleep(time.Duration(rnd.Intn(500)) * time.Microsecond)
	}); err != nil {
		return
	}

	if rnd.Intn(3) == 0 {
		_ = child.WithStopwatch(OpLink, func() {
			time.Sleep(time.Duration(rnd.Intn(800)) * time.Microsecond)
		})
	}

	if rnd.Intn(2) == 0 {
		_ = child.Increment(OpCacheHit)
	} else {
		_ = child.Increment(OpCacheMiss)
	}
}
