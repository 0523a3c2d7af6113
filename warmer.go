package classfinder

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Groos-dev/class-finder/cfr"
	"github.com/Groos-dev/class-finder/utils"
)

type WarmupPriority int

const (
	PriorityLow WarmupPriority = iota
	PriorityNormal
	PriorityHigh
)

func (p WarmupPriority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	default:
		return "low"
	}
}

type WarmupMode int

const (
	// ModeTopLevelOnly skips nested classes and synthetic members for a
	// quick first pass.
	ModeTopLevelOnly WarmupMode = iota
	// ModeAllClasses caches everything the decompiler produces.
	ModeAllClasses
)

func (m WarmupMode) String() string {
	if m == ModeAllClasses {
		return "all_classes"
	}
	return "top_level_only"
}

type WarmupTask struct {
	JarPath  string
	Priority WarmupPriority
	Mode     WarmupMode
	// Exclude lists class names already cached, so a warmup does not
	// redo what a foreground find just did.
	Exclude map[string]struct{}

	// id names the task in logs; Submit assigns it.
	id string
}

type WarmerStats struct {
	Pending    int64
	Running    int64
	Completed  int64
	Failed     int64
	AvgSeconds float64
}

// Warmer decompiles whole artifacts in the background. A single
// scheduling goroutine owns the priority queue and the in-flight set; a
// bounded set of workers runs the tasks. At most one task per artifact
// runs at any moment, and a queued duplicate of a running artifact is
// discarded when popped rather than run twice.
type Warmer struct {
	c *Cache

	lock   sync.RWMutex
	closed bool

	tasks chan WarmupTask
	done  chan struct{}

	pending   atomic.Int64
	running   atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64

	took *utils.AvgVal
}

func newWarmer(c *Cache) *Warmer {
	w := &Warmer{
		c:     c,
		tasks: make(chan WarmupTask, 1024),
		done:  make(chan struct{}),
		took:  &utils.AvgVal{},
	}
	go w.run()
	return w
}

// Submit queues a warmup. Safe from any goroutine; after Shutdown it
// fails with ErrWarmerClosed.
func (w *Warmer) Submit(task WarmupTask) error {
	w.lock.RLock()
	defer w.lock.RUnlock()
	if w.closed {
		return ErrWarmerClosed
	}
	task.id = uuid.Must(uuid.NewV7()).String()
	w.pending.Add(1)
	WarmupTaskCount.WithLabelValues(task.Priority.String(), task.Mode.String()).Inc()
	w.tasks <- task
	return nil
}

func (w *Warmer) Stats() WarmerStats {
	return WarmerStats{
		Pending:    w.pending.Load(),
		Running:    w.running.Load(),
		Completed:  w.completed.Load(),
		Failed:     w.failed.Load(),
		AvgSeconds: w.took.Val(),
	}
}

// Idle reports whether nothing is queued or running.
func (w *Warmer) Idle() bool {
	return w.pending.Load() == 0 && w.running.Load() == 0
}

// WaitIdle polls until the warmer goes idle or the context ends.
func (w *Warmer) WaitIdle(ctx context.Context) error {
	for !w.Idle() {
		if err := ctx.Err(); err != nil {
			return err
		}
		time.Sleep(w.c.opts.WarmerPollInterval)
	}
	return nil
}

// Shutdown stops intake and waits for every queued and running task to
// finish. Idempotent.
func (w *Warmer) Shutdown() {
	w.lock.Lock()
	already := w.closed
	w.closed = true
	w.lock.Unlock()
	if !already {
		close(w.tasks)
	}
	<-w.done
}

func (w *Warmer) run() {
	defer close(w.done)

	var (
		queue    taskHeap
		inFlight = make(map[string]struct{})
		finished = make(chan string, w.c.opts.MaxConcurrentWarmups)
		nextSeq  uint64
		draining bool
		intake   = w.tasks
	)

	for {
		select {
		case task, ok := <-intake:
			if !ok {
				draining = true
				intake = nil
			} else {
				queue.Push(queuedTask{priority: task.Priority, seq: nextSeq, task: task})
				nextSeq++
			}
		case jar := <-finished:
			delete(inFlight, jar)
		case <-time.After(w.c.opts.WarmerPollInterval):
		}

		for int(w.running.Load()) < w.c.opts.MaxConcurrentWarmups && queue.Len() > 0 {
			next := queue.Pop()
			if _, dup := inFlight[next.task.JarPath]; dup {
				w.pending.Add(-1)
				WarmupTaskResults.WithLabelValues("discarded").Inc()
				continue
			}
			inFlight[next.task.JarPath] = struct{}{}
			// running comes up before pending goes down, so an idle
			// poller never sees both at zero mid-dispatch.
			w.running.Add(1)
			w.pending.Add(-1)
			go w.execute(next.task, finished)
		}

		if draining && queue.Len() == 0 && w.running.Load() == 0 {
			return
		}
	}
}

func (w *Warmer) execute(task WarmupTask, finished chan<- string) {
	start := time.Now()
	count, err := w.warmupJar(task)
	if err != nil {
		w.failed.Add(1)
		WarmupTaskResults.WithLabelValues("failed").Inc()
		w.c.log.Error("warmup failed", "task", task.id, "jar", task.JarPath,
			"mode", task.Mode.String(), "err", err)
	} else {
		w.completed.Add(1)
		WarmupTaskResults.WithLabelValues("completed").Inc()
		WarmupDuration.WithLabelValues(task.Mode.String()).Observe(time.Since(start).Seconds())
		w.took.Add(time.Since(start).Seconds())
		if merr := w.c.MarkWarmed(task.JarPath, uint32(count)); merr != nil {
			w.c.log.Warn("failed to mark artifact warmed", "jar", task.JarPath, "err", merr)
		}
		w.c.log.Debug("warmup done", "task", task.id, "jar", task.JarPath,
			"classes", count, "mode", task.Mode.String(), "took", time.Since(start))
	}
	w.running.Add(-1)
	finished <- task.JarPath
}

// warmupJar decompiles the whole artifact and pushes every kept class
// through the write buffer, then waits for those records to commit so
// the warmed marker never runs ahead of the cache. The returned count is
// what the decompiler produced, before any filtering.
func (w *Warmer) warmupJar(task WarmupTask) (int, error) {
	dec := w.c.opts.Decompiler
	if dec == nil {
		return 0, ErrNoDecompiler
	}
	dump, err := dec.DecompileJar(context.Background(), task.JarPath)
	if err != nil {
		return 0, err
	}
	classes := cfr.ParseOutput(dump)
	for _, cls := range classes {
		if _, skip := task.Exclude[cls.Name]; skip {
			continue
		}
		if task.Mode == ModeTopLevelOnly && strings.Contains(cls.Name, "$") {
			continue
		}
		if strings.HasSuffix(cls.Name, "package-info") || strings.HasSuffix(cls.Name, "module-info") {
			continue
		}
		w.c.buffer.Enqueue(SourceKey(cls.Name, task.JarPath), cls.Content)
	}
	w.c.buffer.Flush()
	return len(classes), nil
}
