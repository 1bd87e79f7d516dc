package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrWorkerQueueFull is returned by Submit when the queue has no room.
	ErrWorkerQueueFull = errors.New("worker queue full")

	// ErrJobTimeout is the result error of a unit that ran past its timeout.
	ErrJobTimeout = errors.New("job timed out")

	// ErrPoolStopped is returned by Submit after the pool was stopped.
	ErrPoolStopped = errors.New("pool stopped")
)

// Handler runs a work unit and returns its value.
// Implementations must be safe for concurrent use.
type Handler func(ctx context.Context, unit *WorkUnit) (any, error)

// WorkUnit is a single task submitted to the pool.
type WorkUnit struct {
	ID      string
	Task    string
	Payload any

	// Timeout bounds the handler. Zero means no limit.
	Timeout time.Duration
}

// WorkResult reports the outcome of a work unit.
type WorkResult struct {
	Unit     *WorkUnit
	Success  bool
	Value    any
	Error    error
	Duration time.Duration
}

// PoolStatus reports a pool's current state.
type PoolStatus struct {
	Name       string `json:"name" yaml:"name"`
	Workers    int    `json:"workers" yaml:"workers"`
	InFlight   int    `json:"in_flight" yaml:"in_flight"`
	QueueDepth int    `json:"queue_depth" yaml:"queue_depth"`
	Completed  int64  `json:"completed" yaml:"completed"`
	Failed     int64  `json:"failed" yaml:"failed"`
}

// CPUWorkerPool runs CPU-bound work units on a fixed number of workers.
// All workers share a single queue.
type CPUWorkerPool struct {
	name        string
	logger      *slog.Logger
	workerCount int

	queue   chan *WorkUnit
	results chan WorkResult

	handlers map[string]Handler
	mu       sync.RWMutex

	inFlight  atomic.Int32
	completed atomic.Int64
	failed    atomic.Int64

	stopped atomic.Bool
	wg      sync.WaitGroup
}

// CPUWorkerPoolConfig configures a new CPU worker pool.
type CPUWorkerPoolConfig struct {
	Name        string
	Logger      *slog.Logger
	WorkerCount int // Number of worker goroutines (default: 1)
	QueueSize   int // Queue size (default: 32)
}

// NewCPUWorkerPool creates a new CPU worker pool.
func NewCPUWorkerPool(cfg CPUWorkerPoolConfig) *CPUWorkerPool {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	name := cfg.Name
	if name == "" {
		name = "cpu"
	}

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 32
	}

	workerCount := cfg.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
	}

	return &CPUWorkerPool{
		name:        name,
		logger:      logger.With("pool", name, "workers", workerCount),
		workerCount: workerCount,
		queue:       make(chan *WorkUnit, queueSize),
		results:     make(chan WorkResult, queueSize),
		handlers:    make(map[string]Handler),
	}
}

// RegisterHandler registers a handler for a task type.
// Must be called before Start.
func (p *CPUWorkerPool) RegisterHandler(task string, handler Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[task] = handler
	p.logger.Debug("registered task handler", "task", task)
}

// Name returns the pool name.
func (p *CPUWorkerPool) Name() string {
	return p.name
}

// Results returns the channel work results are delivered on.
// It is closed once Start returns.
func (p *CPUWorkerPool) Results() <-chan WorkResult {
	return p.results
}

// Start begins the pool's processing. Blocks until ctx cancelled and
// every worker has returned.
func (p *CPUWorkerPool) Start(ctx context.Context) {
	p.logger.Info("pool starting")

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	<-ctx.Done()
	p.stopped.Store(true)
	p.wg.Wait()
	close(p.results)
	p.logger.Info("pool stopped")
}

func (p *CPUWorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)
	for {
		select {
		case <-ctx.Done():
			return

		case unit := <-p.queue:
			p.inFlight.Add(1)
			result := p.process(ctx, unit)
			p.inFlight.Add(-1)
			if result.Success {
				p.completed.Add(1)
			} else {
				p.failed.Add(1)
			}
			p.logger.Debug("worker completed unit", "worker_id", id, "unit_id", unit.ID, "success", result.Success)

			select {
			case p.results <- result:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Submit adds a work unit to the pool's queue.
func (p *CPUWorkerPool) Submit(unit *WorkUnit) error {
	if p.stopped.Load() {
		return fmt.Errorf("%w: %s", ErrPoolStopped, p.name)
	}
	select {
	case p.queue <- unit:
		p.logger.Debug("pool accepted unit", "unit_id", unit.ID, "task", unit.Task, "queue_len", len(p.queue))
		return nil
	default:
		p.logger.Warn("pool queue full", "unit_id", unit.ID, "task", unit.Task)
		return fmt.Errorf("%w: %s", ErrWorkerQueueFull, p.name)
	}
}

// Status returns current pool status.
func (p *CPUWorkerPool) Status() PoolStatus {
	return PoolStatus{
		Name:       p.name,
		Workers:    p.workerCount,
		InFlight:   int(p.inFlight.Load()),
		QueueDepth: len(p.queue),
		Completed:  p.completed.Load(),
		Failed:     p.failed.Load(),
	}
}

// process executes a work unit. A handler still running when the unit's
// timeout expires is abandoned and its late result discarded.
func (p *CPUWorkerPool) process(ctx context.Context, unit *WorkUnit) WorkResult {
	start := time.Now()
	result := WorkResult{Unit: unit}

	p.mu.RLock()
	handler, ok := p.handlers[unit.Task]
	p.mu.RUnlock()

	if !ok {
		result.Error = fmt.Errorf("no handler registered for task: %s", unit.Task)
		result.Duration = time.Since(start)
		return result
	}

	runCtx := ctx
	if unit.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, unit.Timeout)
		defer cancel()
	}

	type outcome struct {
		value any
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("task %s panicked: %v", unit.Task, r)}
			}
		}()
		v, err := handler(runCtx, unit)
		done <- outcome{value: v, err: err}
	}()

	select {
	case out := <-done:
		result.Value = out.value
		result.Error = out.err
	case <-runCtx.Done():
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			result.Error = fmt.Errorf("%w after %s", ErrJobTimeout, unit.Timeout)
		} else {
			result.Error = runCtx.Err()
		}
		p.logger.Warn("work unit abandoned", "unit_id", unit.ID, "task", unit.Task, "error", result.Error)
	}

	result.Success = result.Error == nil
	result.Duration = time.Since(start)
	return result
}
