package transport

import (
	"sync"
	"time"

	"github.com/nexmda/groupcore/framework/log"
	"github.com/nexmda/groupcore/internal/common"
)

// PoolConfig configures the worker pool sizing (spec §4.4.1).
type PoolConfig struct {
	ThreadsMin   int
	ThreadsMax   int
	FreeContexts int
	MimeRatio    int
}

// idleShrinkThreshold is MAX_TIMES_NOT_SERVED from the original (spec
// §4.4.1: "a worker that finds no dequeue item ... for >= 5 consecutive
// seconds ... exits").
const idleShrinkThreshold = 5 * time.Second

// WorkerPool is the MPC worker pool (spec §3.4, §4.4.1): a dynamically
// sized set of goroutines draining Dequeue and the in-process re-injection
// queue through a shared Registry.
type WorkerPool struct {
	cfg      PoolConfig
	registry *Registry
	dequeue  Dequeue
	mime     *common.MIMEPool
	ctxPool  *ContextPool
	reinject *reinjectQueue
	log      log.Logger

	mu     sync.Mutex
	active int

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewWorkerPool builds a pool, preallocating the MIME pool sized
// (threads_max + free_contexts) * mime_ratio (spec §4.4.1).
func NewWorkerPool(cfg PoolConfig, registry *Registry, dequeue Dequeue, logger log.Logger) *WorkerPool {
	total := (cfg.ThreadsMax + cfg.FreeContexts) * cfg.MimeRatio
	mime := common.NewMIMEPool(total)
	return &WorkerPool{
		cfg:      cfg,
		registry: registry,
		dequeue:  dequeue,
		mime:     mime,
		ctxPool:  NewContextPool(mime, cfg.FreeContexts),
		reinject: newReinjectQueue(),
		log:      logger,
		stop:     make(chan struct{}),
	}
}

// Start launches threads_min workers and the scanner goroutine (spec
// §4.4.1). The remaining threads_max - threads_min slots stay unused until
// the scanner grows the pool.
func (p *WorkerPool) Start() {
	for i := 0; i < p.cfg.ThreadsMin; i++ {
		p.spawnWorker()
	}
	p.wg.Add(1)
	go p.scanLoop()
}

// Stop signals every worker and the scanner to exit and waits for them.
func (p *WorkerPool) Stop() {
	close(p.stop)
	p.wg.Wait()
}

func (p *WorkerPool) spawnWorker() bool {
	p.mu.Lock()
	if p.active >= p.cfg.ThreadsMax {
		p.mu.Unlock()
		return false
	}
	p.active++
	p.mu.Unlock()

	p.wg.Add(1)
	go p.workerLoop()
	return true
}

// scanLoop grows the pool once a second while the dequeue is non-empty and
// the pool is below capacity (spec §4.4.1 dxp_scanwork).
func (p *WorkerPool) scanLoop() {
	defer p.wg.Done()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			if p.dequeue.HasPending() {
				p.spawnWorker()
			}
		}
	}
}

// workerLoop is one worker thread's dequeue loop (spec §4.4.4): drain the
// authoritative dequeue, then the re-injection queue, dispatching each item
// through the hook chain. A worker above threads_min that stays idle for
// idleShrinkThreshold exits and releases its slot.
func (p *WorkerPool) workerLoop() {
	defer p.wg.Done()
	d := NewDispatcher(p.registry, p.ctxPool, p.reinject, p.log)
	var idleSince time.Time

	for {
		select {
		case <-p.stop:
			p.releaseSlot()
			return
		default:
		}

		if item, ok := p.dequeue.Get(); ok {
			idleSince = time.Time{}
			p.handleDequeueItem(d, item)
			continue
		}

		if ctx, ok := p.reinject.Pop(); ok {
			idleSince = time.Time{}
			d.Reset()
			d.Dispatch(ctx)
			p.ctxPool.Put(ctx)
			continue
		}

		if idleSince.IsZero() {
			idleSince = time.Now()
		}

		select {
		case <-p.stop:
			p.releaseSlot()
			return
		case <-p.reinject.wake:
			continue
		case <-time.After(time.Second):
		}

		if time.Since(idleSince) >= idleShrinkThreshold {
			if p.tryShrink() {
				return
			}
			idleSince = time.Time{}
		}
	}
}

// tryShrink releases this worker's slot if doing so keeps the pool at or
// above threads_min, reporting whether it did (spec §4.4.1).
func (p *WorkerPool) tryShrink() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active <= p.cfg.ThreadsMin {
		return false
	}
	p.active--
	return true
}

func (p *WorkerPool) releaseSlot() {
	p.mu.Lock()
	p.active--
	p.mu.Unlock()
}

// handleDequeueItem implements spec §4.4.4 steps 1-3 for one item popped
// off the authoritative dequeue.
func (p *WorkerPool) handleDequeueItem(d *Dispatcher, item *DequeueItem) {
	control := ControlBlock{
		QueueID:      item.QueueID,
		BoundType:    item.BoundType,
		IsSpam:       item.IsSpam,
		NeedBounce:   true,
		EnvelopeFrom: item.EnvelopeFrom,
		Rcpts:        item.Rcpts,
	}

	ctx, err := ParseContext(p.mime, item.Raw, control)
	if err != nil {
		p.log.Error("failed to load queued message into a mail object", err, "queue_id", item.QueueID)
		p.dequeue.Save(item)
		p.dequeue.Put(item)
		return
	}

	d.Reset()
	if !d.Dispatch(ctx) {
		p.log.Msg("message cannot be processed by any hook registered in MPC", "queue_id", item.QueueID)
		p.dequeue.Save(item)
	}
	ctx.Release(p.mime)
	p.dequeue.Put(item)
}
