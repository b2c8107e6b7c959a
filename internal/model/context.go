package model

import (
	"sync"
	"sync/atomic"
	"time"
)

// Well-known message keys. Everything the engine stores in the message bag
// lives under the "reshape." namespace.
const (
	// PanicMessage, once set, is a terminal signal: no recipe begins new
	// visiting work for the remainder of the run.
	PanicMessage = "reshape.panic"
)

// ExecutionContext is the per-run mutable shared state passed explicitly to
// every operation: a keyed message bag with a dirty flag, error and timeout
// sinks, a timeout policy and monotonic counters. It is safe for concurrent
// use by parallel per-file visits.
type ExecutionContext struct {
	mu             sync.RWMutex
	messages       map[string]any
	hasNewMessages bool

	sinkMu     sync.Mutex
	onError    func(error)
	onTimeout  func(error, *ExecutionContext)
	runTimeout func(batchSize int) time.Duration

	uncaughtFailures atomic.Uint64
}

// ExecutionContextOption configures a new ExecutionContext.
type ExecutionContextOption func(*ExecutionContext)

// WithOnError installs the error sink invoked for every reported failure.
func WithOnError(fn func(error)) ExecutionContextOption {
	return func(ctx *ExecutionContext) { ctx.onError = fn }
}

// WithOnTimeout installs the timeout sink.
func WithOnTimeout(fn func(error, *ExecutionContext)) ExecutionContextOption {
	return func(ctx *ExecutionContext) { ctx.onTimeout = fn }
}

// WithRunTimeout installs the policy mapping batch size to the wall-time
// budget of one recipe-batch step.
func WithRunTimeout(fn func(batchSize int) time.Duration) ExecutionContextOption {
	return func(ctx *ExecutionContext) { ctx.runTimeout = fn }
}

// NewExecutionContext builds a context with no-op sinks and a default
// timeout policy of five minutes plus one second per file in the batch.
func NewExecutionContext(opts ...ExecutionContextOption) *ExecutionContext {
	ctx := &ExecutionContext{
		messages:  map[string]any{},
		onError:   func(error) {},
		onTimeout: func(error, *ExecutionContext) {},
		runTimeout: func(batchSize int) time.Duration {
			return 5*time.Minute + time.Duration(batchSize)*time.Second
		},
	}

	for _, opt := range opts {
		opt(ctx)
	}

	return ctx
}

// GetMessage returns the value stored under key, or nil.
func (ctx *ExecutionContext) GetMessage(key string) any {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()

	return ctx.messages[key]
}

// PutMessage stores value under key (latest write wins) and marks the
// context dirty.
func (ctx *ExecutionContext) PutMessage(key string, value any) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	ctx.messages[key] = value
	ctx.hasNewMessages = true
}

// PutMessageIfAbsent stores value under key only when no value is present
// yet (first write wins) and returns the value now stored.
func (ctx *ExecutionContext) PutMessageIfAbsent(key string, value any) any {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if existing, ok := ctx.messages[key]; ok {
		return existing
	}

	ctx.messages[key] = value
	ctx.hasNewMessages = true

	return value
}

// HasNewMessages reports whether any message was written since the last
// reset. The cycle driver uses it for fixed-point detection.
func (ctx *ExecutionContext) HasNewMessages() bool {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()

	return ctx.hasNewMessages
}

// ResetHasNewMessages clears the dirty flag at a cycle boundary.
func (ctx *ExecutionContext) ResetHasNewMessages() {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	ctx.hasNewMessages = false
}

// ReportError routes a failure to the error sink. Calls are serialized so
// the sink needs no locking of its own.
func (ctx *ExecutionContext) ReportError(err error) {
	ctx.sinkMu.Lock()
	defer ctx.sinkMu.Unlock()

	ctx.onError(err)
}

// ReportTimeout routes a timeout to the timeout sink.
func (ctx *ExecutionContext) ReportTimeout(err error) {
	ctx.sinkMu.Lock()
	defer ctx.sinkMu.Unlock()

	ctx.onTimeout(err, ctx)
}

// RunTimeout returns the wall-time budget for a batch of the given size.
func (ctx *ExecutionContext) RunTimeout(batchSize int) time.Duration {
	return ctx.runTimeout(batchSize)
}

// IncrementAndGetUncaughtFailureCount advances the uncaught-failure counter
// used to name diagnostic pseudo-files deterministically.
func (ctx *ExecutionContext) IncrementAndGetUncaughtFailureCount() uint64 {
	return ctx.uncaughtFailures.Add(1)
}
