// Package workers runs blocking I/O jobs on a fixed number of goroutines.
// The pool is built once by the composition root and passed to whoever needs it.
package workers

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var ErrClosed = errors.New("workers: pool closed")

type Outcome int

const (
	Succeeded Outcome = iota
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Result is delivered exactly once per submitted job.
type Result struct {
	Outcome Outcome
	Err     error
}

type job struct {
	fn   func() error
	done chan Result
}

type Pool struct {
	jobs   chan job
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

func NewPool(size int, logger *slog.Logger) *Pool {
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pool{
		jobs:   make(chan job),
		logger: logger.With("component", "workers"),
	}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
	p.logger.Info("worker pool started", "size", size)
	return p
}

func (p *Pool) run(id int) {
	defer p.wg.Done()
	for j := range p.jobs {
		j.done <- p.exec(id, j.fn)
	}
}

func (p *Pool) exec(id int, fn func() error) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("job panicked", "worker", id, "panic", r)
			res = Result{Outcome: Failed, Err: fmt.Errorf("workers: job panicked: %v", r)}
		}
	}()
	if err := fn(); err != nil {
		return Result{Outcome: Failed, Err: err}
	}
	return Result{Outcome: Succeeded}
}

// Submit hands fn to the next free worker and returns a channel that receives
// its result. Submit blocks while every worker is busy. Jobs cannot be
// cancelled once submitted.
func (p *Pool) Submit(fn func() error) <-chan Result {
	done := make(chan Result, 1)

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		done <- Result{Outcome: Failed, Err: ErrClosed}
		return done
	}
	p.jobs <- job{fn: fn, done: done}
	return done
}

// Close stops accepting jobs and waits for in-flight ones to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}
