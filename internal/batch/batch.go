// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch runs the per-document pipeline concurrently over many
// documents with bounded retries and per-item failure isolation.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/extract-engine/pkg/types"
)

// Processor runs the whole single-document pipeline for one document.
type Processor func(ctx context.Context, doc types.Document) (*types.AnnotatedDocument, error)

// Sleeper waits for d or until ctx is done, returning ctx.Err() in the
// latter case. Injected so tests never sleep for real.
type Sleeper func(ctx context.Context, d time.Duration) error

// Jitter perturbs a backoff delay. Injected for deterministic tests.
type Jitter func(d time.Duration) time.Duration

// Coordinator fans the pipeline out over a fixed-size worker pool. Workers
// pull items independently; the only shared structure is the synchronized
// results collector. Transient generator failures are retried with
// exponential backoff; permanent ones fail the item immediately.
type Coordinator struct {
	width      int
	maxRetries int
	initial    time.Duration

	sleep   Sleeper
	jitter  Jitter
	breaker *Breaker

	progress io.Writer
}

// Option customizes a Coordinator at construction.
type Option func(*Coordinator)

// WithSleeper injects the backoff wait.
func WithSleeper(s Sleeper) Option {
	return func(c *Coordinator) { c.sleep = s }
}

// WithJitter injects the backoff jitter source.
func WithJitter(j Jitter) Option {
	return func(c *Coordinator) { c.jitter = j }
}

// WithProgress directs per-item progress lines to w.
func WithProgress(w io.Writer) Option {
	return func(c *Coordinator) { c.progress = w }
}

// WithBreaker guards every processor call with b: while b is open, attempts
// fail fast as transient errors instead of reaching the processor.
func WithBreaker(b *Breaker) Option {
	return func(c *Coordinator) { c.breaker = b }
}

// NewCoordinator builds a Coordinator. Zero config fields take the defaults
// (10 workers, 3 retries, 2s initial backoff); negative values are a
// configuration error.
func NewCoordinator(cfg types.BatchConfig, opts ...Option) (*Coordinator, error) {
	width := cfg.MaxWorkers
	if width == 0 {
		width = types.DefaultMaxWorkers
	}
	if width < 0 {
		return nil, fmt.Errorf("batch: max workers %d is negative", width)
	}
	retries := cfg.MaxRetries
	if retries == 0 {
		retries = types.DefaultMaxRetries
	}
	if retries < 0 {
		return nil, fmt.Errorf("batch: max retries %d is negative", retries)
	}
	initial := cfg.InitialBackoff
	if initial == 0 {
		initial = types.DefaultInitialBackoff
	}
	if initial < 0 {
		return nil, fmt.Errorf("batch: initial backoff %v is negative", initial)
	}

	c := &Coordinator{
		width:      width,
		maxRetries: retries,
		initial:    initial,
		sleep:      ctxSleep,
		jitter:     defaultJitter,
		progress:   io.Discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// collector is the append-only synchronized results store shared by workers.
type collector struct {
	mu      sync.Mutex
	items   []types.ItemResult
	started int
	retries int
}

func newCollector(n int) *collector {
	c := &collector{items: make([]types.ItemResult, n)}
	for i := range c.items {
		c.items[i] = types.ItemResult{Index: i, State: types.ItemQueued}
	}
	return c
}

func (c *collector) markRunning(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[i].State = types.ItemRunning
	c.started++
}

func (c *collector) settle(i int, result *types.AnnotatedDocument, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.items[i].State = types.ItemFailed
		c.items[i].Err = err
		return
	}
	c.items[i].State = types.ItemSucceeded
	c.items[i].Result = result
}

func (c *collector) addRetry() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retries++
}

// Run processes every document and aggregates the outcomes in submission
// order. Cancelling ctx stops new dispatch immediately; items already
// running complete on a detached context and their results are included. A
// cancelled batch reports PartiallyCompleted unless no item had started.
func (c *Coordinator) Run(ctx context.Context, docs []types.Document, process Processor) *types.BatchResult {
	col := newCollector(len(docs))

	queue := make(chan int)
	go func() {
		defer close(queue)
		for i := range docs {
			select {
			case queue <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Detached from batch cancellation: a picked-up item runs to
	// completion.
	itemCtx := context.WithoutCancel(ctx)

	var g errgroup.Group
	for range c.width {
		g.Go(func() error {
			for i := range queue {
				col.markRunning(i)
				fmt.Fprintf(c.progress, "processing %s\n", docs[i].ID)

				result, err := c.processWithRetry(ctx, itemCtx, docs[i], process, col)
				col.settle(i, result, err)

				if err != nil {
					fmt.Fprintf(c.progress, "failed  %s: %v\n", docs[i].ID, err)
				} else {
					fmt.Fprintf(c.progress, "done    %s\n", docs[i].ID)
				}
			}
			return nil
		})
	}
	g.Wait()

	return c.aggregate(ctx, col)
}

// processWithRetry retries transient failures up to the retry budget with
// exponential backoff (initial * 2^attempt, plus jitter). Permanent and
// unclassified failures return immediately. Backoff waits abort when the
// batch context is cancelled.
func (c *Coordinator) processWithRetry(ctx, itemCtx context.Context, doc types.Document, process Processor, col *collector) (*types.AnnotatedDocument, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			col.addRetry()
			delay := c.initial << (attempt - 1)
			if err := c.sleep(ctx, c.jitter(delay)); err != nil {
				return nil, fmt.Errorf("retry wait: %w", lastErr)
			}
		}

		result, err := c.attempt(itemCtx, doc, process)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !types.IsTransient(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}

// attempt runs one processor call through the optional circuit breaker. A
// shed call counts as transient so the retry loop waits out the cooldown.
func (c *Coordinator) attempt(ctx context.Context, doc types.Document, process Processor) (*types.AnnotatedDocument, error) {
	if c.breaker == nil {
		return process(ctx, doc)
	}
	if !c.breaker.Allow() {
		return nil, types.Transient(errors.New("circuit open"))
	}
	result, err := process(ctx, doc)
	if err != nil {
		c.breaker.Failure()
		return nil, err
	}
	c.breaker.Success()
	return result, nil
}

// aggregate assembles the submission-ordered result and decides the pool
// status.
func (c *Coordinator) aggregate(ctx context.Context, col *collector) *types.BatchResult {
	col.mu.Lock()
	defer col.mu.Unlock()

	cancelled := ctx.Err() != nil
	result := &types.BatchResult{
		Items:   col.items,
		Retries: col.retries,
	}

	for i := range col.items {
		item := &col.items[i]
		if item.State == types.ItemQueued {
			// Never dispatched: the batch was cancelled first.
			item.State = types.ItemFailed
			item.Err = context.Canceled
		}
		switch item.State {
		case types.ItemSucceeded:
			result.Succeeded++
			result.Successes = append(result.Successes, item.Result)
		case types.ItemFailed:
			result.Failed++
			result.Failures = append(result.Failures, types.ItemFailure{Index: i, Err: item.Err})
		}
	}

	result.Status = poolStatus(result, cancelled, col.started)
	return result
}

// poolStatus: zero failures is Completed, success rate above 0.5 is
// PartiallyCompleted, anything worse is Failed. A cancelled batch is
// PartiallyCompleted whenever at least one item had started.
func poolStatus(r *types.BatchResult, cancelled bool, started int) types.BatchStatus {
	if cancelled {
		if started == 0 {
			return types.BatchFailed
		}
		return types.BatchPartiallyCompleted
	}
	if r.Failed == 0 {
		return types.BatchCompleted
	}
	if r.SuccessRate() > 0.5 {
		return types.BatchPartiallyCompleted
	}
	return types.BatchFailed
}

// ctxSleep is the production Sleeper.
func ctxSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// defaultJitter adds up to 10% to the delay.
func defaultJitter(d time.Duration) time.Duration {
	return d + time.Duration(rand.Int63n(int64(d)/10+1))
}
