package worker

import (
	"context"
	"sort"
	"sync"
)

// Job is a unit of work executed by the pool
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is produced by a Job. Position is the submission order.
type Result interface {
	Position() int
	Err() error
}

// Pool runs jobs on a fixed number of workers and returns results in submission order
type Pool struct {
	workers   int
	jobQueue  chan Job
	results   chan Result
	wg        sync.WaitGroup
	collected []Result
	done      chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewPool creates a pool bound to ctx. Cancelling ctx stops idle workers.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:  workers,
		jobQueue: make(chan Job, workers*2),
		results:  make(chan Result, workers*2),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the workers and the result collector
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	go p.collect()
}

// collect drains results as they arrive so workers never block on a full channel
func (p *Pool) collect() {
	defer close(p.done)
	for result := range p.results {
		p.collected = append(p.collected, result)
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			p.results <- job.Execute(p.ctx)
		}
	}
}

// Submit queues a job. It returns false if the pool was cancelled first.
func (p *Pool) Submit(job Job) bool {
	select {
	case <-p.ctx.Done():
		return false
	case p.jobQueue <- job:
		return true
	}
}

// Wait closes the queue, waits for the workers and returns the results sorted by Position.
// Submit must not be called after Wait.
func (p *Pool) Wait() []Result {
	close(p.jobQueue)
	p.wg.Wait()
	p.closeResults()
	<-p.done
	p.cancel()

	results := p.collected

	sort.Slice(results, func(i, j int) bool { return results[i].Position() < results[j].Position() })
	return results
}

// Shutdown stops a started pool without running queued jobs. Jobs already executing finish.
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
	p.closeResults()
	<-p.done
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
