package worker

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Brownie44l1/classify-api/internal/classify"
	"github.com/Brownie44l1/classify-api/internal/labels"
	"github.com/Brownie44l1/classify-api/internal/model"
	"github.com/Brownie44l1/classify-api/internal/preprocess"
)

// ErrClosed is returned by Submit after Close has been called.
var ErrClosed = errors.New("worker queue is closed")

type job struct {
	id     uuid.UUID
	img    image.Image
	tensor []float32
	result chan outcome
}

type outcome struct {
	res classify.Result
	err error
}

// Pending is the one-shot completion handle for a submitted request.
type Pending struct {
	ID uuid.UUID
	ch chan outcome
}

// Wait blocks until the request completes or ctx is done. The job itself is
// not cancelled by ctx; it runs to completion on the worker.
func (p *Pending) Wait(ctx context.Context) (classify.Result, error) {
	select {
	case out := <-p.ch:
		return out.res, out.err
	case <-ctx.Done():
		return classify.Result{}, ctx.Err()
	}
}

// Queue runs preprocess+classify jobs on a single goroutine, FIFO. At most
// one inference is in flight at a time; results complete in submission order.
// The handle and label table are shared read-only across all jobs.
type Queue struct {
	handle model.Handle
	table  labels.Table
	log    *logrus.Logger

	mu     sync.RWMutex
	closed bool
	jobs   chan job
	quit   chan struct{}
	done   chan struct{}
}

// New starts the worker goroutine. depth bounds how many requests may wait
// in the queue before Submit blocks.
func New(h model.Handle, table labels.Table, depth int, log *logrus.Logger) *Queue {
	if depth < 1 {
		depth = 1
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	q := &Queue{
		handle: h,
		table:  table,
		log:    log,
		jobs:   make(chan job, depth),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go q.run()
	return q
}

// Submit enqueues a decoded image for classification.
func (q *Queue) Submit(ctx context.Context, img image.Image) (*Pending, error) {
	return q.submit(ctx, job{img: img})
}

// SubmitTensor enqueues an already-built input tensor, skipping preprocessing.
func (q *Queue) SubmitTensor(ctx context.Context, tensor []float32) (*Pending, error) {
	return q.submit(ctx, job{tensor: tensor})
}

func (q *Queue) submit(ctx context.Context, j job) (*Pending, error) {
	q.mu.RLock()
	closed := q.closed
	q.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}

	j.id = uuid.New()
	j.result = make(chan outcome, 1)

	select {
	case q.jobs <- j:
		return &Pending{ID: j.id, ch: j.result}, nil
	case <-q.quit:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops accepting new work, finishes already-queued jobs, and waits
// for the worker to exit.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.quit)
	q.mu.Unlock()

	<-q.done
}

func (q *Queue) run() {
	defer close(q.done)
	for {
		select {
		case j := <-q.jobs:
			j.result <- q.process(j)
		case <-q.quit:
			for {
				select {
				case j := <-q.jobs:
					j.result <- q.process(j)
				default:
					return
				}
			}
		}
	}
}

// process converts any panic into a failed outcome; one bad request must
// never take down the worker.
func (q *Queue) process(j job) (out outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			q.log.WithField("job", j.id).Errorf("classification panic: %v", r)
			out = outcome{err: errors.Errorf("classification panic: %v", r)}
		}
	}()

	tensor := j.tensor
	if tensor == nil {
		tensor = preprocess.ImageToTensor(j.img)
	}

	res, err := classify.Classify(q.handle, q.table, tensor)
	if err != nil {
		q.log.WithField("job", j.id).WithError(err).Warn("classification failed")
		return outcome{err: err}
	}

	q.log.WithFields(logrus.Fields{
		"job":   j.id,
		"label": res.Label,
		"took":  time.Since(start),
	}).Info("classified")
	return outcome{res: res}
}
