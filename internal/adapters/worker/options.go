package worker

import (
	"time"

	"github.com/okian/creditrisk/pkg/logger"
)

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithWorkerCount sets how many assessments run at once.
func WithWorkerCount(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithMaxBatch caps the number of jobs accepted by one Run call.
func WithMaxBatch(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.maxBatch = n
		}
	}
}

// WithTimeout bounds one Run call. Jobs not started by then report
// context.DeadlineExceeded.
func WithTimeout(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets a custom logger for the pool.
func WithLogger(l logger.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}
