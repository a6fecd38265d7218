package workers

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"yuu/pipeline"
)

var (
	ErrQueueFull   = errors.New("analysis queue is full")
	ErrPoolStopped = errors.New("analysis pool is stopped")
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, dreamID string) error
	Rerun(ctx context.Context, dreamID string) error
}

type job struct {
	dreamID string
	force   bool
}

// AnalysisPool runs submitted analyses on a fixed number of goroutines.
// Runs are detached from the request that submitted them.
type AnalysisPool struct {
	runner     Runner
	resolver   *pipeline.Resolver
	queue      chan job
	size       int
	runTimeout time.Duration

	mu      sync.RWMutex
	started bool
	stopped bool
	wg      sync.WaitGroup
}

// NewAnalysisPool: runTimeout 0 means runs have no deadline.
func NewAnalysisPool(runner Runner, resolver *pipeline.Resolver, size, queueSize int, runTimeout time.Duration) *AnalysisPool {
	if size <= 0 {
		size = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	return &AnalysisPool{
		runner:     runner,
		resolver:   resolver,
		queue:      make(chan job, queueSize),
		size:       size,
		runTimeout: runTimeout,
	}
}

// Resolver is the content policy used for the trigger precondition.
func (p *AnalysisPool) Resolver() *pipeline.Resolver {
	return p.resolver
}

func (p *AnalysisPool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true

	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.work(i)
	}
	log.Printf("analysis worker: started %d workers (queue=%d)", p.size, cap(p.queue))
}

// Submit schedules one run and returns immediately.
func (p *AnalysisPool) Submit(dreamID string) error {
	return p.enqueue(job{dreamID: dreamID})
}

// Resubmit schedules a run allowed to take over a dream stuck in processing.
func (p *AnalysisPool) Resubmit(dreamID string) error {
	return p.enqueue(job{dreamID: dreamID, force: true})
}

func (p *AnalysisPool) enqueue(j job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrPoolStopped
	}
	select {
	case p.queue <- j:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop stops accepting work and waits for queued runs until ctx is done.
// Runs still executing when ctx expires are not interrupted.
func (p *AnalysisPool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Printf("analysis worker: stopped")
		return nil
	case <-ctx.Done():
		log.Printf("analysis worker: stop deadline reached with runs in flight")
		return ctx.Err()
	}
}

func (p *AnalysisPool) work(n int) {
	defer p.wg.Done()
	for j := range p.queue {
		p.handle(n, j)
	}
}

func (p *AnalysisPool) handle(n int, j job) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("analysis worker %d: panic on dream_id=%s: %v", n, j.dreamID, r)
		}
	}()

	ctx := context.Background()
	if p.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.runTimeout)
		defer cancel()
	}

	var err error
	if j.force {
		err = p.runner.Rerun(ctx, j.dreamID)
	} else {
		err = p.runner.Run(ctx, j.dreamID)
	}
	if err != nil {
		log.Printf("analysis worker %d: dream_id=%s finished with error: %v", n, j.dreamID, err)
	}
}
