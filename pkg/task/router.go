package task

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/small-frappuccino/applygate/pkg/log"
)

// Handler processes a task payload.
type Handler func(ctx context.Context, payload any) error

// Options configures how a task is dispatched and executed.
type Options struct {
	// GroupKey serializes execution for tasks sharing the same group. Use it
	// to guarantee order per guild. Empty means the global group.
	GroupKey string

	// IdempotencyKey deduplicates tasks enqueued within the IdempotencyTTL
	// window.
	IdempotencyKey string

	// MaxAttempts bounds retries on handler error. 0 uses Config.DefaultMaxAttempts.
	MaxAttempts int

	// InitialBackoff is the first retry delay. 0 uses Config.InitialBackoff.
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential backoff. 0 uses Config.MaxBackoff.
	MaxBackoff time.Duration

	// IdempotencyTTL controls how long the idempotency key dedupes. 0 uses
	// Config.IdempotencyTTL.
	IdempotencyTTL time.Duration
}

// Task is one unit of work for the router.
type Task struct {
	Type    string
	Payload any
	Options Options
}

// Config tunes the router.
type Config struct {
	DefaultMaxAttempts int
	InitialBackoff     time.Duration
	MaxBackoff         time.Duration
	IdempotencyTTL     time.Duration
	GroupBuffer        int
	GroupIdleTTL       time.Duration
	CleanupInterval    time.Duration
}

// Defaults returns a Config with sensible defaults.
func Defaults() Config {
	return Config{
		DefaultMaxAttempts: 3,
		InitialBackoff:     1 * time.Second,
		MaxBackoff:         30 * time.Second,
		IdempotencyTTL:     60 * time.Second,
		GroupBuffer:        64,
		GroupIdleTTL:       2 * time.Minute,
		CleanupInterval:    15 * time.Second,
	}
}

// Errors returned by the router.
var (
	ErrRouterClosed    = errors.New("task router is closed")
	ErrUnknownTaskType = errors.New("unknown task type")
	ErrDuplicateTask   = errors.New("duplicate task (idempotency key present)")
)

const globalGroup = "_global"

// Router is an in-memory dispatcher with serialized execution per group,
// idempotency-key dedupe, retry with exponential backoff, and interval cron
// jobs. One worker goroutine runs per group.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	groups   map[string]*groupWorker
	inflight map[string]time.Time // idempotency key -> expiry
	closed   bool
	cfg      Config
	wg       sync.WaitGroup
	stopOnce sync.Once
	stopCh   chan struct{}

	randMu sync.Mutex

	cronMu   sync.Mutex
	cronJobs []*cronJob
}

type groupWorker struct {
	key        string
	ch         chan *enqueuedTask
	lastActive time.Time
	stopping   bool
}

type enqueuedTask struct {
	task    Task
	attempt int
}

type cronJob struct {
	interval time.Duration
	task     Task
	lastRun  time.Time
	stopped  bool
}

// NewRouter creates a router with cfg, filling zero values from Defaults.
func NewRouter(cfg Config) *Router {
	def := Defaults()
	if cfg.DefaultMaxAttempts <= 0 {
		cfg.DefaultMaxAttempts = def.DefaultMaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = def.IdempotencyTTL
	}
	if cfg.GroupBuffer <= 0 {
		cfg.GroupBuffer = def.GroupBuffer
	}
	if cfg.GroupIdleTTL <= 0 {
		cfg.GroupIdleTTL = def.GroupIdleTTL
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}

	r := &Router{
		handlers: make(map[string]Handler),
		groups:   make(map[string]*groupWorker),
		inflight: make(map[string]time.Time),
		cfg:      cfg,
		stopCh:   make(chan struct{}),
	}

	r.wg.Add(1)
	go r.backgroundLoop()
	return r
}

// RegisterHandler registers the handler for a task type.
func (r *Router) RegisterHandler(taskType string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[taskType] = handler
}

// Dispatch enqueues a task, respecting grouping and idempotency.
func (r *Router) Dispatch(ctx context.Context, t Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRouterClosed
	}

	handler, ok := r.handlers[t.Type]
	if !ok || handler == nil {
		return ErrUnknownTaskType
	}

	eff := r.effectiveOptions(t.Options)

	if eff.IdempotencyKey != "" {
		if expiry, exists := r.inflight[eff.IdempotencyKey]; exists && time.Now().Before(expiry) {
			return ErrDuplicateTask
		}
		r.inflight[eff.IdempotencyKey] = time.Now().Add(eff.IdempotencyTTL)
	}

	groupKey := eff.GroupKey
	if groupKey == "" {
		groupKey = globalGroup
	}
	gw := r.ensureGroupLocked(groupKey)

	enq := &enqueuedTask{task: t, attempt: 1}
	select {
	case gw.ch <- enq:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the router and waits for workers to exit. Tasks not yet picked
// up may be dropped.
func (r *Router) Close() {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		for _, gw := range r.groups {
			if gw != nil && !gw.stopping {
				gw.stopping = true
				close(gw.ch)
			}
		}
		r.mu.Unlock()
		close(r.stopCh)
		r.wg.Wait()
	})
}

// ScheduleEvery registers a periodic job dispatching t at the given interval.
// The first dispatch happens on the next cleanup tick. Returns a cancel
// function.
func (r *Router) ScheduleEvery(interval time.Duration, t Task) func() {
	job := &cronJob{interval: interval, task: t}
	r.cronMu.Lock()
	r.cronJobs = append(r.cronJobs, job)
	r.cronMu.Unlock()

	return func() {
		r.cronMu.Lock()
		job.stopped = true
		r.cronMu.Unlock()
	}
}

// --- Internals ---

func (r *Router) effectiveOptions(opt Options) Options {
	if opt.MaxAttempts <= 0 {
		opt.MaxAttempts = r.cfg.DefaultMaxAttempts
	}
	if opt.InitialBackoff <= 0 {
		opt.InitialBackoff = r.cfg.InitialBackoff
	}
	if opt.MaxBackoff <= 0 {
		opt.MaxBackoff = r.cfg.MaxBackoff
	}
	if opt.IdempotencyTTL <= 0 {
		opt.IdempotencyTTL = r.cfg.IdempotencyTTL
	}
	return opt
}

func (r *Router) ensureGroupLocked(key string) *groupWorker {
	if gw, ok := r.groups[key]; ok && gw != nil {
		return gw
	}
	gw := &groupWorker{
		key:        key,
		ch:         make(chan *enqueuedTask, r.cfg.GroupBuffer),
		lastActive: time.Now(),
	}
	r.groups[key] = gw
	r.wg.Add(1)
	go r.groupLoop(gw)
	return gw
}

func (r *Router) groupLoop(gw *groupWorker) {
	defer r.wg.Done()

	for enq := range gw.ch {
		gw.lastActive = time.Now()

		r.mu.RLock()
		handler := r.handlers[enq.task.Type]
		eff := r.effectiveOptions(enq.task.Options)
		r.mu.RUnlock()

		if handler == nil {
			log.ApplicationLogger().Warn("Task dropped (handler not registered)",
				"type", enq.task.Type, "group", gw.key)
			continue
		}

		err := handler(context.Background(), enq.task.Payload)
		if err == nil {
			continue
		}

		if enq.attempt >= eff.MaxAttempts {
			log.ErrorLoggerRaw().Error("Task failed; max attempts reached",
				"type", enq.task.Type, "group", gw.key, "attempts", enq.attempt, "error", err)
			continue
		}

		delay := r.computeBackoff(eff.InitialBackoff, eff.MaxBackoff, enq.attempt)
		log.ApplicationLogger().Warn("Task failed, scheduling retry",
			"type", enq.task.Type, "group", gw.key,
			"attempt", enq.attempt+1, "max_attempts", eff.MaxAttempts,
			"backoff", delay.String(), "error", err)
		r.requeueAfter(gw.key, enq, delay)
	}
}

// requeueAfter re-enqueues a failed task on its group after the backoff,
// unless the router shuts down first.
func (r *Router) requeueAfter(groupKey string, enq *enqueuedTask, delay time.Duration) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-timer.C:
			enq.attempt++
			r.mu.RLock()
			gw := r.groups[groupKey]
			closed := r.closed
			r.mu.RUnlock()
			if gw == nil || closed {
				return
			}
			select {
			case gw.ch <- enq:
			case <-r.stopCh:
			}
		case <-r.stopCh:
		}
	}()
}

func (r *Router) computeBackoff(initial, max time.Duration, attempt int) time.Duration {
	backoff := initial
	for i := 1; i < attempt; i++ {
		backoff *= 2
		if backoff > max {
			backoff = max
			break
		}
	}
	// 10% jitter
	r.randMu.Lock()
	delta := int64(float64(backoff) * 0.1)
	var jitter time.Duration
	if delta > 0 {
		jitter = time.Duration(rand.Int63n(2*delta+1) - delta)
	}
	r.randMu.Unlock()

	return clampDuration(backoff+jitter, initial, max)
}

func clampDuration(v, lo, hi time.Duration) time.Duration {
	return max(min(v, hi), lo)
}

func (r *Router) backgroundLoop() {
	defer r.wg.Done()
	t := time.NewTicker(r.cfg.CleanupInterval)
	defer t.Stop()
	for {
		select {
		case <-r.stopCh:
			return
		case <-t.C:
			r.cleanupOnce()
			r.runCronOnce()
		}
	}
}

func (r *Router) cleanupOnce() {
	now := time.Now()

	r.mu.Lock()
	for k, expiry := range r.inflight {
		if now.After(expiry) {
			delete(r.inflight, k)
		}
	}
	for key, gw := range r.groups {
		if gw == nil || gw.stopping {
			continue
		}
		if now.Sub(gw.lastActive) >= r.cfg.GroupIdleTTL && len(gw.ch) == 0 {
			gw.stopping = true
			close(gw.ch)
			delete(r.groups, key)
		}
	}
	r.mu.Unlock()
}

func (r *Router) runCronOnce() {
	now := time.Now()
	r.cronMu.Lock()
	for _, job := range r.cronJobs {
		if job == nil || job.stopped {
			continue
		}
		if job.lastRun.IsZero() || now.Sub(job.lastRun) >= job.interval {
			_ = r.Dispatch(context.Background(), job.task)
			job.lastRun = now
		}
	}
	r.cronMu.Unlock()
}
