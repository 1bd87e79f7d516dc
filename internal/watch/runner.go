// Package watch runs sticker jobs dropped into the inbox of a stickers home.
//
// A job is a <name>.job.json descriptor next to its input files. Each job
// runs on a worker of a CPU pool in its own work directory. The sorted PDF
// and a <name>.result.yaml report go to the outbox; failed jobs leave their
// report in failed/.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/carden-code/wb-stickers/internal/config"
	"github.com/carden-code/wb-stickers/internal/errs"
	"github.com/carden-code/wb-stickers/internal/home"
	"github.com/carden-code/wb-stickers/internal/jobs"
	"github.com/carden-code/wb-stickers/internal/output"
	"github.com/carden-code/wb-stickers/internal/pipeline"
)

const taskSortStickers = "sort-stickers"

// errDescriptorGone marks a descriptor removed before it could be read.
var errDescriptorGone = errors.New("job descriptor removed")

// ExecFunc runs a parsed job, writing the sorted PDF to out.
type ExecFunc func(job *Job, inputs []string, out string, cfg *config.Config) *pipeline.Result

// Options configures a Runner. Zero values are taken from the watch config.
type Options struct {
	Workers int

	// Exec replaces the pipeline call. Used by tests.
	Exec ExecFunc
}

// Report is written to <name>.result.yaml for every finished job.
type Report struct {
	Job       string           `yaml:"job" json:"job"`
	ID        string           `yaml:"id" json:"id"`
	Status    string           `yaml:"status" json:"status"`
	Error     string           `yaml:"error,omitempty" json:"error,omitempty"`
	ErrorKind errs.Kind        `yaml:"error_kind,omitempty" json:"error_kind,omitempty"`
	Elapsed   string           `yaml:"elapsed" json:"elapsed"`
	Result    *pipeline.Result `yaml:"result,omitempty" json:"result,omitempty"`
}

const (
	StatusDone   = "done"
	StatusFailed = "failed"
)

// Runner watches the inbox and runs jobs on a worker pool.
type Runner struct {
	home   *home.Dir
	cfg    *config.Manager
	pool   *jobs.CPUWorkerPool
	exec   ExecFunc
	logger *slog.Logger

	// pending holds the names of queued jobs; owned by the Run loop.
	pending map[string]bool
}

// New creates a Runner for the given home directory.
func New(dir *home.Dir, cm *config.Manager, opts Options, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	wc := cm.Get().Watch

	workers := opts.Workers
	if workers <= 0 {
		workers = wc.Workers
	}

	r := &Runner{
		home:    dir,
		cfg:     cm,
		exec:    opts.Exec,
		logger:  logger.With("component", "watch"),
		pending: make(map[string]bool),
	}
	if r.exec == nil {
		r.exec = runPipeline
	}
	r.pool = jobs.NewCPUWorkerPool(jobs.CPUWorkerPoolConfig{
		Name:        "stickers",
		Logger:      logger,
		WorkerCount: workers,
		QueueSize:   wc.QueueSize,
	})
	r.pool.RegisterHandler(taskSortStickers, r.handle)
	return r
}

// Status returns the worker pool status.
func (r *Runner) Status() jobs.PoolStatus {
	return r.pool.Status()
}

// Run watches the inbox until ctx is cancelled. Descriptors already in the
// inbox are queued on start.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.home.EnsureExists(); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(r.home.InboxDir()); err != nil {
		return fmt.Errorf("failed to watch %s: %w", r.home.InboxDir(), err)
	}

	poolCtx, stopPool := context.WithCancel(context.Background())
	poolDone := make(chan struct{})
	go func() {
		r.pool.Start(poolCtx)
		close(poolDone)
	}()
	defer func() {
		stopPool()
		<-poolDone
	}()

	if err := r.scan(); err != nil {
		return err
	}
	r.logger.Info("watching inbox", "dir", r.home.InboxDir())

	results := r.pool.Results()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("watch stopped", "pending", len(r.pending))
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
				if IsDescriptor(ev.Name) {
					r.enqueue(ev.Name)
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("watcher error", "error", err)

		case res, ok := <-results:
			if !ok {
				return nil
			}
			r.finish(res)
		}
	}
}

// scan queues every descriptor already in the inbox.
func (r *Runner) scan() error {
	matches, err := filepath.Glob(filepath.Join(r.home.InboxDir(), "*"+JobSuffix))
	if err != nil {
		return fmt.Errorf("failed to scan inbox: %w", err)
	}
	for _, m := range matches {
		if IsDescriptor(m) {
			r.enqueue(m)
		}
	}
	return nil
}

func (r *Runner) enqueue(path string) {
	name := JobName(path)
	if r.pending[name] {
		return
	}

	unit := &jobs.WorkUnit{
		ID:      uuid.NewString(),
		Task:    taskSortStickers,
		Payload: path,
		Timeout: r.cfg.Get().Watch.JobTimeout,
	}
	if err := r.pool.Submit(unit); err != nil {
		r.logger.Warn("job rejected", "job", name, "error", err)
		r.report(unit, name, Report{Status: StatusFailed, Error: err.Error(), ErrorKind: errs.KindUnknown})
		return
	}
	r.pending[name] = true
	r.logger.Info("job queued", "job", name, "id", unit.ID)
}

// finish records the outcome of a work unit.
func (r *Runner) finish(res jobs.WorkResult) {
	path := res.Unit.Payload.(string)
	name := JobName(path)
	delete(r.pending, name)

	if errors.Is(res.Error, errDescriptorGone) {
		r.logger.Debug("job descriptor disappeared", "job", name)
		return
	}

	rep := Report{Status: StatusDone, Elapsed: res.Duration.Round(time.Millisecond).String()}
	switch {
	case !res.Success:
		rep.Status = StatusFailed
		rep.Error = res.Error.Error()
		rep.ErrorKind = errs.Classify(res.Error)
	default:
		result, _ := res.Value.(*pipeline.Result)
		rep.Result = result
		if result == nil || !result.OK() {
			rep.Status = StatusFailed
		}
	}
	r.report(res.Unit, name, rep)
}

// report writes rep next to the descriptor's final place and moves the
// descriptor out of the inbox.
func (r *Runner) report(unit *jobs.WorkUnit, name string, rep Report) {
	rep.Job = name
	rep.ID = unit.ID
	dest := r.home.OutboxDir()
	if rep.Status == StatusFailed {
		dest = r.home.FailedDir()
	}

	if err := output.WriteFile(r.home.ResultPath(dest, name), rep); err != nil {
		r.logger.Error("failed to write job report", "job", name, "error", err)
	}
	path := unit.Payload.(string)
	if err := os.Rename(path, filepath.Join(dest, filepath.Base(path))); err != nil && !errors.Is(err, fs.ErrNotExist) {
		r.logger.Warn("failed to move job descriptor", "job", name, "error", err)
	}

	logger := r.logger.With("job", name, "id", unit.ID, "status", rep.Status)
	if rep.Status == StatusFailed {
		logger.Warn("job failed", "error", rep.Error)
		return
	}
	logger.Info("job done", "elapsed", rep.Elapsed)
}

// handle runs on a pool worker.
func (r *Runner) handle(ctx context.Context, unit *jobs.WorkUnit) (any, error) {
	path := unit.Payload.(string)
	job, err := r.settle(ctx, path)
	if err != nil {
		return nil, err
	}

	inputs := make([]string, 0, 2)
	for _, in := range job.Inputs() {
		p, err := r.home.InboxPath(in)
		if err != nil {
			return nil, &errs.FormatError{Path: path, Reason: err.Error()}
		}
		inputs = append(inputs, p)
	}

	workDir, err := r.home.EnsureWorkDir(unit.ID)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(workDir)

	res := r.exec(job, inputs, filepath.Join(workDir, job.Output), r.cfg.Get())
	if !res.OK() {
		return res, nil
	}
	// A job past its timeout has already been reported as failed.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	final := filepath.Join(r.home.OutboxDir(), job.Output)
	if err := os.Rename(res.Output, final); err != nil {
		return nil, &errs.PersistenceError{Path: final, Err: err}
	}
	res.Output = final
	return res, nil
}

// settle waits until the descriptor parses and its inputs are readable.
// Descriptors and inputs may still be in the middle of being copied.
func (r *Runner) settle(ctx context.Context, path string) (*Job, error) {
	wc := r.cfg.Get().Watch
	name := JobName(path)

	var job *Job
	err := retry.Do(
		func() error {
			data, err := os.ReadFile(path)
			if errors.Is(err, fs.ErrNotExist) {
				return retry.Unrecoverable(errDescriptorGone)
			}
			if err != nil {
				return err
			}
			j, err := ParseJob(name, data)
			if err != nil {
				return err
			}
			for _, in := range j.Inputs() {
				p, err := r.home.InboxPath(in)
				if err != nil {
					return retry.Unrecoverable(&errs.FormatError{Path: path, Reason: err.Error()})
				}
				if err := errs.CheckReadable(p); err != nil {
					return err
				}
			}
			job = j
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(max(wc.SettleAttempts, 1)),
		retry.Delay(wc.SettleDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return job, nil
}

func runPipeline(job *Job, inputs []string, out string, cfg *config.Config) *pipeline.Result {
	opts, err := cfg.PipelineOptions(job.Variant)
	if err != nil {
		return &pipeline.Result{Variant: job.Variant, Err: err, Error: err.Error(), ErrorKind: errs.KindUnknown}
	}
	if job.Variant == pipeline.VariantOzon {
		return pipeline.RunOzon(inputs[0], inputs[1], out, opts)
	}
	return pipeline.RunWB(inputs[0], inputs[1], out, opts)
}
