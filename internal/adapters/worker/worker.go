// Package worker runs batches of assessments on a bounded set of workers.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	service "github.com/okian/creditrisk/internal/app"
	"github.com/okian/creditrisk/internal/domain/applicant"
	"github.com/okian/creditrisk/pkg/logger"
	"github.com/okian/creditrisk/pkg/metrics"
)

// Default pool configuration constants.
const (
	defaultMaxBatch = 100
	defaultTimeout  = 12 * time.Second
	maxWorkers      = 16
)

// Assessor runs one assessment. *service.Service satisfies it.
type Assessor interface {
	Assess(ctx context.Context, rec *applicant.Record) (service.Assessment, error)
}

// Job is one record of a batch. Index is echoed back in the Result.
type Job struct {
	Index  int
	Record *applicant.Record
}

// Result is the outcome of one Job. Exactly one of Assessment and Err is
// meaningful.
type Result struct {
	Index      int
	Assessment service.Assessment
	Err        error
}

// Pool fans a batch out to a fixed number of workers. Each job is an
// independent request-scoped assessment; the pool holds no state between
// Run calls and is safe for concurrent use.
type Pool struct {
	assessor Assessor
	workers  int
	maxBatch int
	timeout  time.Duration
	logger   logger.Logger
}

// NewPool creates a pool with configuration options.
func NewPool(a Assessor, opts ...Option) (*Pool, error) {
	if a == nil {
		return nil, ErrNoAssessor
	}
	p := &Pool{
		assessor: a,
		workers:  min(runtime.NumCPU(), maxWorkers),
		maxBatch: defaultMaxBatch,
		timeout:  defaultTimeout,
		logger:   logger.Get().Named("worker-pool"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Workers returns the configured worker count.
func (p *Pool) Workers() int { return p.workers }

// MaxBatch returns the largest batch Run accepts.
func (p *Pool) MaxBatch() int { return p.maxBatch }

// Timeout returns the bound on one Run call.
func (p *Pool) Timeout() time.Duration { return p.timeout }

// Run assesses every job and returns one Result per job, in job order.
// Per-job failures are reported in Result.Err; Run itself only fails when
// the batch is empty or too large. Jobs not started before ctx is done or
// the pool timeout expires carry the context error.
func (p *Pool) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	switch {
	case len(jobs) == 0:
		return nil, ErrEmptyBatch
	case len(jobs) > p.maxBatch:
		return nil, fmt.Errorf("%w: %d records, limit %d", ErrBatchTooLarge, len(jobs), p.maxBatch)
	}
	metrics.RecordBatch(len(jobs))

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	results := make([]Result, len(jobs))
	queue := make(chan int, len(jobs))
	for i := range jobs {
		queue <- i
	}
	close(queue)

	n := min(p.workers, len(jobs))
	var wg sync.WaitGroup
	wg.Add(n)
	for w := 0; w < n; w++ {
		go func(name string) {
			defer wg.Done()
			p.work(ctx, name, jobs, queue, results)
		}("worker-" + strconv.Itoa(w))
	}
	wg.Wait()

	p.logger.Debug(ctx, "batch finished",
		logger.Int("jobs", len(jobs)),
		logger.Int("workers", n),
	)
	return results, nil
}

// work drains the queue. Each index is read by exactly one worker, so
// results[i] has a single writer.
func (p *Pool) work(ctx context.Context, name string, jobs []Job, queue <-chan int, results []Result) {
	for i := range queue {
		job := jobs[i]
		res := Result{Index: job.Index}
		if err := ctx.Err(); err != nil {
			res.Err = err
			results[i] = res
			continue
		}

		metrics.AddBatchWorkersBusy(1)
		res.Assessment, res.Err = p.assessor.Assess(ctx, job.Record)
		metrics.AddBatchWorkersBusy(-1)

		if res.Err != nil {
			p.logger.Debug(ctx, "batch job failed",
				logger.String("worker", name),
				logger.Int("index", job.Index),
				logger.Error(res.Err),
			)
		}
		results[i] = res
	}
}
