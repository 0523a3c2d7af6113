package classfinder

import (
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// WriteBuffer batches source records and commits them on a background
// goroutine, by size or by time, whichever comes first. Producers never
// block on the store; after shutdown an enqueue is silently dropped.
//
// The pending counter moves in step with the queue and is mirrored to a
// sidecar file next to the store so external processes can watch backlog
// without opening the database.
type WriteBuffer struct {
	c *Cache

	lock     sync.Mutex
	cond     *sync.Cond
	queue    []Entry
	enqueued uint64
	flushed  uint64
	closed   bool
	dead     bool

	signal chan struct{}
	done   chan struct{}

	pending   atomic.Int64
	gaugePath string
}

func newWriteBuffer(c *Cache) *WriteBuffer {
	wb := &WriteBuffer{
		c:         c,
		signal:    make(chan struct{}, 1),
		done:      make(chan struct{}),
		gaugePath: c.PendingGaugePath(),
	}
	wb.cond = sync.NewCond(&wb.lock)
	go wb.run()
	return wb
}

// Enqueue queues one source record for the flush loop. The pending count
// is bumped while the entry is queued, so any observer sees them move
// together.
func (wb *WriteBuffer) Enqueue(key, value string) {
	wb.lock.Lock()
	if wb.closed {
		wb.lock.Unlock()
		return
	}
	first := wb.pending.Add(1) == 1
	wb.enqueued++
	wb.queue = append(wb.queue, Entry{Key: key, Value: value})
	wb.lock.Unlock()

	if first {
		wb.writeGauge(1)
	}
	BufferEnqueueCount.Inc()
	BufferPendingGauge.Inc()
	wb.wake()
}

// Pending reports how many enqueued records have not been committed yet.
func (wb *WriteBuffer) Pending() int64 {
	return wb.pending.Load()
}

// Flush blocks until everything enqueued before the call has been
// committed. Safe to call concurrently with producers.
func (wb *WriteBuffer) Flush() {
	wb.wake()
	wb.lock.Lock()
	target := wb.enqueued
	for wb.flushed < target && !wb.dead {
		wb.cond.Wait()
	}
	wb.lock.Unlock()
}

// ShutdownAndFlush stops accepting records, waits for the loop to drain
// the queue, and removes the gauge sidecar. Idempotent.
func (wb *WriteBuffer) ShutdownAndFlush() {
	wb.lock.Lock()
	wb.closed = true
	wb.lock.Unlock()
	wb.wake()
	<-wb.done
	_ = os.Remove(wb.gaugePath)
}

func (wb *WriteBuffer) wake() {
	select {
	case wb.signal <- struct{}{}:
	default:
	}
}

func (wb *WriteBuffer) run() {
	defer close(wb.done)
	batchSize := wb.c.opts.BufferBatchSize
	for {
		batch := wb.take(batchSize)
		if len(batch) > 0 {
			wb.flush(batch)
			continue
		}
		wb.lock.Lock()
		drained := wb.closed && len(wb.queue) == 0
		if drained {
			wb.dead = true
		}
		wb.lock.Unlock()
		if drained {
			wb.cond.Broadcast()
			wb.writeGauge(0)
			return
		}
		select {
		case <-wb.signal:
		case <-time.After(wb.c.opts.BufferFlushInterval):
		}
	}
}

func (wb *WriteBuffer) take(max int) []Entry {
	wb.lock.Lock()
	defer wb.lock.Unlock()
	n := len(wb.queue)
	if n == 0 {
		return nil
	}
	if n > max {
		n = max
	}
	batch := make([]Entry, n)
	copy(batch, wb.queue[:n])
	wb.queue = wb.queue[n:]
	return batch
}

// flush commits one batch. The pending count comes down whether the
// commit succeeded or not; a failed batch is reported and dropped rather
// than retried forever.
func (wb *WriteBuffer) flush(batch []Entry) {
	if err := wb.c.PutMany(TableSources, batch); err != nil {
		BufferFlushCount.WithLabelValues("error").Inc()
		wb.c.log.Error("write buffer flush failed", "entries", len(batch), "err", err)
	} else {
		BufferFlushCount.WithLabelValues("ok").Inc()
	}
	left := wb.pending.Add(-int64(len(batch)))
	BufferPendingGauge.Sub(float64(len(batch)))
	wb.writeGauge(left)

	wb.lock.Lock()
	wb.flushed += uint64(len(batch))
	wb.lock.Unlock()
	wb.cond.Broadcast()
}

func (wb *WriteBuffer) writeGauge(pending int64) {
	_ = os.WriteFile(wb.gaugePath, []byte(strconv.FormatInt(pending, 10)+"\n"), 0o644)
}
