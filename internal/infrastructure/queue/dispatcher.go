package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/coursehub/coursehub-api/internal/core/ports"
	"github.com/coursehub/coursehub-api/internal/pkg/metrics"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Dispatcher routes edge repairs to a fixed set of workers using consistent
// hashing on the course id, so repairs touching one course run in order.
type Dispatcher struct {
	workers  []chan ports.EdgeRepair
	repairer ports.EdgeRepairer
	log      zerolog.Logger
	wg       sync.WaitGroup
	done     <-chan struct{}

	repaired atomic.Int64
	failed   atomic.Int64
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repairer ports.EdgeRepairer, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan ports.EdgeRepair, numWorkers),
		repairer: repairer,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.EdgeRepair, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers exit when their channel is
// closed by Close or when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	d.done = ctx.Done()
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends a repair to the worker responsible for its course. It blocks
// once that worker's buffer is full; after cancellation the repair is dropped
// and counted as failed.
func (d *Dispatcher) Enqueue(r ports.EdgeRepair) {
	idx := d.shardIndex(r.CourseID)
	select {
	case d.workers[idx] <- r:
	case <-d.done:
		d.failed.Add(1)
		return
	}
	metrics.ReconcileQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
}

// Close stops accepting work, waits for the workers to drain and returns the
// repair counts. Scanned is left for the caller to fill in.
func (d *Dispatcher) Close() ports.ReconcileReport {
	for _, ch := range d.workers {
		close(ch)
	}
	d.wg.Wait()
	return ports.ReconcileReport{
		Repaired: d.repaired.Load(),
		Failed:   d.failed.Load(),
	}
}

// shardIndex maps a course id deterministically to a worker index.
func (d *Dispatcher) shardIndex(courseID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(courseID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.EdgeRepair) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-ch:
			if !ok {
				return
			}
			metrics.ReconcileQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			written, err := d.repairer.RepairEdge(ctx, r)
			if err != nil {
				d.failed.Add(1)
				d.log.Error().Err(err).
					Str("user_id", r.UserID).
					Str("course_id", r.CourseID).
					Int("worker_id", id).
					Msg("edge repair failed")
				continue
			}
			if written {
				d.repaired.Add(1)
			}
		}
	}
}
