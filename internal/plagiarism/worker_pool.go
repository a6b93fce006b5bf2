package plagiarism

import (
	"context"
	"runtime"
	"sync"

	"github.com/Ammarkarimi/plagarism-detector/internal/models"
	"github.com/rs/zerolog/log"
)

type Job interface {
	Execute(ctx context.Context) error
}

// WorkerPool bounds how many analyses run at once
type WorkerPool struct {
	workers  int
	jobQueue chan Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc

	// held shared by Submit while it may send, exclusively by Close while it drains
	mu     sync.RWMutex
	closed bool
}

// NewWorkerPool starts size workers; size <= 0 selects a CPU-based default
func NewWorkerPool(ctx context.Context, size int) *WorkerPool {
	if size <= 0 {
		totalCPU := runtime.NumCPU()
		systemReserve := max(1, totalCPU/4) // Reserve 1/4 of the CPU for system processes
		size = max(1, totalCPU-systemReserve)
	}
	log.Info().
		Int("workers", size).
		Msg("Worker pool initialized")
	poolCtx, cancel := context.WithCancel(ctx)

	pool := &WorkerPool{
		workers:  size,
		jobQueue: make(chan Job, size*2), // Buffer 2x the worker count
		ctx:      poolCtx,
		cancel:   cancel,
	}

	pool.start()

	return pool
}

func (p *WorkerPool) start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return // Channel closed
			}
			if err := job.Execute(p.ctx); err != nil {
				log.Debug().Err(err).Int("worker", id).Msg("Job finished with error")
			}
		}
	}
}

// Submit queues a job, blocking while the queue is full. A queued job always runs, even if
// only to fail during Close.
func (p *WorkerPool) Submit(ctx context.Context, job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return context.Canceled
	}
	if err := p.ctx.Err(); err != nil {
		return err
	}
	select {
	case <-p.ctx.Done():
		return p.ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	case p.jobQueue <- job:
		return nil
	}
}

// Close stops the workers and fails the jobs still queued
func (p *WorkerPool) Close() {
	// wakes Submits blocked on a full queue so they release the read lock
	p.cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.wg.Wait()
	for {
		select {
		case job := <-p.jobQueue:
			_ = job.Execute(p.ctx)
		default:
			return
		}
	}
}

func (p *WorkerPool) Size() int {
	return p.workers
}

type analysisOutcome struct {
	result *models.AnalysisResult
	err    error
}

// AnalysisJob runs one comparison on the pool
type AnalysisJob struct {
	ctx    context.Context
	engine *Engine
	a, b   models.SourceFile
	done   chan analysisOutcome
}

func NewAnalysisJob(ctx context.Context, engine *Engine, a, b models.SourceFile) *AnalysisJob {
	return &AnalysisJob{
		ctx:    ctx,
		engine: engine,
		a:      a,
		b:      b,
		done:   make(chan analysisOutcome, 1),
	}
}

func (j *AnalysisJob) Execute(ctx context.Context) error {
	// pool shut down, or the submitter gave up while the job was queued
	for _, c := range []context.Context{ctx, j.ctx} {
		if err := c.Err(); err != nil {
			j.done <- analysisOutcome{err: err}
			return err
		}
	}

	result, err := j.engine.Analyze(j.ctx, j.a, j.b)
	j.done <- analysisOutcome{result: result, err: err}
	return err
}

// Wait blocks until the job ran or ctx is done
func (j *AnalysisJob) Wait(ctx context.Context) (*models.AnalysisResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-j.done:
		return out.result, out.err
	}
}

// Analyze runs engine.Analyze(a, b) on a pool worker
func (p *WorkerPool) Analyze(ctx context.Context, engine *Engine, a, b models.SourceFile) (*models.AnalysisResult, error) {
	job := NewAnalysisJob(ctx, engine, a, b)
	if err := p.Submit(ctx, job); err != nil {
		return nil, err
	}
	return job.Wait(ctx)
}
