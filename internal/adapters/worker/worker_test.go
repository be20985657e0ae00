package worker_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/creditrisk/internal/adapters/worker"
	service "github.com/okian/creditrisk/internal/app"
	"github.com/okian/creditrisk/internal/domain/applicant"
	"github.com/okian/creditrisk/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// mockAssessor echoes the record's income back as the probability and
// tracks how many calls run at once.
type mockAssessor struct {
	delay    time.Duration
	fail     map[float64]error
	inFlight atomic.Int32
	peak     atomic.Int32
	calls    atomic.Int32
	mu       sync.Mutex
}

func (m *mockAssessor) Assess(ctx context.Context, rec *applicant.Record) (service.Assessment, error) {
	m.calls.Add(1)
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	v, _ := rec.Get(applicant.FieldIncome)
	m.mu.Lock()
	err := m.fail[v.Float()]
	m.mu.Unlock()
	if err != nil {
		return service.Assessment{}, err
	}
	return service.Assessment{Outcome: service.OutcomeFavorable, Probability: v.Float()}, nil
}

func jobs(n int) []worker.Job {
	out := make([]worker.Job, n)
	for i := range out {
		r := applicant.NewRecord()
		r.Set(applicant.FieldIncome, applicant.Number(float64(i)))
		out[i] = worker.Job{Index: i * 10, Record: r}
	}
	return out
}

func TestNewPool(t *testing.T) {
	convey.Convey("Given pool construction", t, func() {
		convey.Convey("When no assessor is given", func() {
			_, err := worker.NewPool(nil)
			convey.So(errors.Is(err, worker.ErrNoAssessor), convey.ShouldBeTrue)
		})

		convey.Convey("When options are applied", func() {
			p, err := worker.NewPool(&mockAssessor{}, worker.WithWorkerCount(3), worker.WithMaxBatch(7))
			convey.So(err, convey.ShouldBeNil)
			convey.So(p.Workers(), convey.ShouldEqual, 3)
			convey.So(p.MaxBatch(), convey.ShouldEqual, 7)
			convey.So(p.Timeout(), convey.ShouldEqual, 12*time.Second)
		})

		convey.Convey("When options carry invalid values", func() {
			p, err := worker.NewPool(&mockAssessor{}, worker.WithWorkerCount(0), worker.WithMaxBatch(-1))
			convey.So(err, convey.ShouldBeNil)
			convey.So(p.Workers(), convey.ShouldBeGreaterThan, 0)
			convey.So(p.MaxBatch(), convey.ShouldEqual, 100)
		})
	})
}

func TestPoolRun(t *testing.T) {
	convey.Convey("Given a pool of two workers", t, func() {
		m := &mockAssessor{delay: 5 * time.Millisecond}
		p, err := worker.NewPool(m, worker.WithWorkerCount(2), worker.WithMaxBatch(10))
		convey.So(err, convey.ShouldBeNil)
		ctx := context.Background()

		convey.Convey("When a batch runs", func() {
			res, err := p.Run(ctx, jobs(6))

			convey.Convey("Then every job has a result in job order", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(res, convey.ShouldHaveLength, 6)
				for i, r := range res {
					convey.So(r.Index, convey.ShouldEqual, i*10)
					convey.So(r.Err, convey.ShouldBeNil)
					convey.So(r.Assessment.Probability, convey.ShouldEqual, float64(i))
				}
				convey.So(m.calls.Load(), convey.ShouldEqual, 6)
			})

			convey.Convey("Then no more than two assessments ran at once", func() {
				convey.So(m.peak.Load(), convey.ShouldBeLessThanOrEqualTo, 2)
			})
		})

		convey.Convey("When one job fails", func() {
			boom := errors.New("boom")
			m.fail = map[float64]error{2: boom}
			res, err := p.Run(ctx, jobs(4))

			convey.Convey("Then only that result carries the error", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(errors.Is(res[2].Err, boom), convey.ShouldBeTrue)
				convey.So(res[1].Err, convey.ShouldBeNil)
				convey.So(res[3].Err, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the batch is empty", func() {
			_, err := p.Run(ctx, nil)
			convey.So(errors.Is(err, worker.ErrEmptyBatch), convey.ShouldBeTrue)
		})

		convey.Convey("When the batch exceeds the limit", func() {
			_, err := p.Run(ctx, jobs(11))
			convey.So(errors.Is(err, worker.ErrBatchTooLarge), convey.ShouldBeTrue)
			convey.So(m.calls.Load(), convey.ShouldEqual, 0)
		})

		convey.Convey("When the batch outlives the pool timeout", func() {
			slow := &mockAssessor{delay: 50 * time.Millisecond}
			sp, err := worker.NewPool(slow, worker.WithWorkerCount(1), worker.WithTimeout(75*time.Millisecond))
			convey.So(err, convey.ShouldBeNil)

			start := time.Now()
			res, err := sp.Run(ctx, jobs(4))
			elapsed := time.Since(start)

			convey.Convey("Then late jobs report the deadline instead of running", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(res[0].Err, convey.ShouldBeNil)
				convey.So(errors.Is(res[3].Err, context.DeadlineExceeded), convey.ShouldBeTrue)
				convey.So(slow.calls.Load(), convey.ShouldBeLessThan, 4)
				convey.So(elapsed.Milliseconds(), convey.ShouldBeLessThan, 200)
			})
		})

		convey.Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			res, err := p.Run(cctx, jobs(3))

			convey.Convey("Then no job runs and each reports the cancellation", func() {
				convey.So(err, convey.ShouldBeNil)
				for _, r := range res {
					convey.So(errors.Is(r.Err, context.Canceled), convey.ShouldBeTrue)
				}
				convey.So(m.calls.Load(), convey.ShouldEqual, 0)
			})
		})
	})
}
