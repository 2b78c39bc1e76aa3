// Package workpool runs batches of independent jobs on a fixed set of
// goroutines.
//
// Each worker owns a queue. Jobs of a batch are dealt round-robin over the
// queues; a worker whose queue runs dry takes jobs from the others, so one
// slow job does not hold up the rest of its queue.
package workpool

import (
	"runtime"
	"sync"
)

// Pool is a fixed set of worker goroutines.
//
// Pool is safe for concurrent use.
type Pool struct {
	queues []chan func()
	done   chan struct{}
	wg     sync.WaitGroup

	// mu is held for reading while Run queues jobs, so Close cannot
	// stop the workers between a send and its pickup.
	mu     sync.RWMutex
	closed bool
}

// New starts a pool of workers goroutines. Non-positive means
// GOMAXPROCS.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	depth := max(workers*4, 8)

	p := &Pool{
		queues: make([]chan func(), workers),
		done:   make(chan struct{}),
	}
	for i := range p.queues {
		p.queues[i] = make(chan func(), depth)
	}
	p.wg.Add(workers)
	for i := range workers {
		go p.work(i)
	}
	return p
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int { return len(p.queues) }

// Run executes every job and returns when all have finished. After Close
// the jobs run on the calling goroutine.
func (p *Pool) Run(jobs []func()) {
	if len(jobs) == 0 {
		return
	}
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		for _, job := range jobs {
			job()
		}
		return
	}

	var pending sync.WaitGroup
	pending.Add(len(jobs))
	for i, job := range jobs {
		p.queues[i%len(p.queues)] <- func() {
			defer pending.Done()
			job()
		}
	}
	p.mu.RUnlock()
	pending.Wait()
}

// Close stops the workers once their queued jobs are done. Safe to call
// more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.done)
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) work(id int) {
	defer p.wg.Done()
	own := p.queues[id]

	for {
		select {
		case job := <-own:
			job()
			continue
		default:
		}
		if job := p.steal(id); job != nil {
			job()
			continue
		}
		select {
		case job := <-own:
			job()
		case <-p.done:
			p.drain(own)
			return
		}
	}
}

// steal takes one job from another worker's queue, or returns nil.
func (p *Pool) steal(id int) func() {
	for i, q := range p.queues {
		if i == id {
			continue
		}
		select {
		case job := <-q:
			return job
		default:
		}
	}
	return nil
}

func (p *Pool) drain(q chan func()) {
	for {
		select {
		case job := <-q:
			job()
		default:
			return
		}
	}
}
