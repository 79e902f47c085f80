// Package batch drives concurrent uploads of a selection of assets and
// aggregates their outcomes into one verdict.
//
// Every asset gets a stable index on Add. Each index has exactly one writer
// (the goroutine running its attempt), so per-index state needs only its own
// lock; the index map is locked for structural changes only.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/gophstore/internal/catalog"
	"github.com/dmitrijs2005/gophstore/internal/client/models"
	"github.com/dmitrijs2005/gophstore/internal/client/uploader"
	"github.com/dmitrijs2005/gophstore/internal/logging"
)

var ErrUnknownIndex = errors.New("unknown asset index")

// Authorizer obtains one single-use credential per call.
type Authorizer interface {
	Authorize(ctx context.Context) (catalog.Credential, error)
}

// Uploader transfers one asset under one credential.
type Uploader interface {
	Upload(ctx context.Context, asset models.Asset, cred catalog.Credential, onProgress func(int)) (string, error)
}

type Options struct {
	// MaxParallel caps simultaneous attempts. Zero means no cap.
	MaxParallel int
	// Retries is how many extra tries a retryable failure gets within one
	// Run. Each try authorizes afresh.
	Retries int
	// Backoff builds the delay policy between tries. Nil uses exponential
	// backoff starting at 200ms.
	Backoff func() backoff.BackOff
	Logger  logging.Logger
}

type Coordinator struct {
	auth   Authorizer
	up     Uploader
	opts   Options
	logger logging.Logger

	runMu sync.Mutex

	mu       sync.RWMutex
	attempts map[int]*attempt
	order    []int
	next     int
	subs     map[int]func(AttemptState)
	nextSub  int
}

type attempt struct {
	asset models.Asset

	// emitMu keeps this index's events in order across writers.
	emitMu sync.Mutex

	mu      sync.Mutex
	st      AttemptState
	cancel  context.CancelFunc
	removed bool
}

func New(auth Authorizer, up Uploader, opts Options) *Coordinator {
	if opts.Logger == nil {
		opts.Logger = logging.Nop{}
	}
	if opts.Backoff == nil {
		opts.Backoff = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			return b
		}
	}
	return &Coordinator{
		auth:     auth,
		up:       up,
		opts:     opts,
		logger:   opts.Logger.With("module", "batch"),
		attempts: make(map[int]*attempt),
		subs:     make(map[int]func(AttemptState)),
	}
}

// Add registers assets as pending attempts and returns their indices in
// selection order.
func (c *Coordinator) Add(assets ...models.Asset) []int {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]int, 0, len(assets))
	for _, as := range assets {
		idx := c.next
		c.next++
		as.Index = idx
		c.attempts[idx] = &attempt{
			asset: as,
			st:    AttemptState{Index: idx, FileName: as.FileName, State: StatePending},
		}
		c.order = append(c.order, idx)
		out = append(out, idx)
	}
	return out
}

// RemoveAsset drops index from the batch. An in-flight transfer is cancelled
// and ends as Aborted; siblings are unaffected. A URL it already produced no
// longer appears in any result.
func (c *Coordinator) RemoveAsset(index int) error {
	c.mu.Lock()
	a, ok := c.attempts[index]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrUnknownIndex, index)
	}
	delete(c.attempts, index)
	for i, idx := range c.order {
		if idx == index {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.mu.Unlock()

	a.emitMu.Lock()
	a.mu.Lock()
	a.removed = true
	cancel := a.cancel
	st := a.st
	st.Removed = true
	a.mu.Unlock()
	c.notify(st)
	a.emitMu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.logger.Debug(context.Background(), "asset removed", "index", index, "state", st.State.String())
	return nil
}

// Reset cancels everything in flight and empties the batch. Indices keep
// counting up.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	idx := append([]int(nil), c.order...)
	c.mu.Unlock()
	for _, i := range idx {
		_ = c.RemoveAsset(i)
	}
}

// Run launches every attempt that has not succeeded, concurrently, and
// returns once all of them are terminal. Succeeded attempts are never
// re-uploaded. A failure does not cancel siblings. Assets added while a run
// is in flight are picked up by the same run. Calls are serialized.
func (c *Coordinator) Run(ctx context.Context) Outcome {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	launched := make(map[*attempt]bool)
	for {
		var targets []*attempt
		for _, a := range c.unfinished() {
			if !launched[a] {
				launched[a] = true
				targets = append(targets, a)
			}
		}
		if len(targets) == 0 {
			break
		}
		c.logger.Info(ctx, "batch run started", "attempts", len(targets))

		var g errgroup.Group
		if c.opts.MaxParallel > 0 {
			g.SetLimit(c.opts.MaxParallel)
		}
		for _, a := range targets {
			g.Go(func() error {
				c.runAttempt(ctx, a)
				return nil
			})
		}
		_ = g.Wait()
	}

	out := c.outcome()
	c.logger.Info(ctx, "batch run finished", "status", out.Status.String(), "failures", len(out.Failures))
	return out
}

func (c *Coordinator) unfinished() []*attempt {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*attempt
	for _, idx := range c.order {
		a := c.attempts[idx]
		a.mu.Lock()
		done := a.st.State == StateSucceeded
		a.mu.Unlock()
		if !done {
			out = append(out, a)
		}
	}
	return out
}

func (c *Coordinator) runAttempt(parent context.Context, a *attempt) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	a.mu.Lock()
	if a.removed {
		a.mu.Unlock()
		return
	}
	a.cancel = cancel
	a.mu.Unlock()

	index := a.asset.Index
	c.update(a, func(s *AttemptState) {
		s.State = StatePending
		s.Progress = 0
		s.Err = nil
	})

	var url string
	op := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		c.update(a, func(s *AttemptState) {
			s.State = StateAuthorizing
			s.Progress = 0
			s.Tries++
		})
		cred, err := c.auth.Authorize(ctx)
		if err != nil {
			return retryable(uploader.Classify(index, err))
		}

		c.update(a, func(s *AttemptState) { s.State = StateUploading })
		u, err := c.up.Upload(ctx, a.asset, cred, func(p int) { c.progress(a, p) })
		if err != nil {
			return retryable(uploader.Classify(index, err))
		}
		url = u
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(c.opts.Backoff(), uint64(max(c.opts.Retries, 0))), ctx)
	err := backoff.RetryNotify(op, b, func(err error, d time.Duration) {
		c.logger.Warn(ctx, "upload failed, retrying", "index", index, "in", d, "error", err)
	})

	if err != nil {
		ue := uploader.Classify(index, err)
		c.update(a, func(s *AttemptState) {
			s.State = StateFailed
			s.Err = ue
		})
		c.logger.Warn(ctx, "upload failed", "index", index, "kind", ue.Kind.String(), "error", ue.Err)
		return
	}
	c.update(a, func(s *AttemptState) {
		s.State = StateSucceeded
		s.Progress = 100
		s.URL = url
	})
}

func retryable(ue *uploader.Error) error {
	if ue.Kind.Retryable() {
		return ue
	}
	return backoff.Permanent(ue)
}

// update applies fn to a's state and notifies subscribers. Events of a
// removed attempt are recorded but not published.
func (c *Coordinator) update(a *attempt, fn func(*AttemptState)) {
	a.emitMu.Lock()
	defer a.emitMu.Unlock()

	a.mu.Lock()
	fn(&a.st)
	st := a.st
	removed := a.removed
	a.mu.Unlock()

	if !removed {
		c.notify(st)
	}
}

// progress accepts only rising values while uploading.
func (c *Coordinator) progress(a *attempt, p int) {
	a.emitMu.Lock()
	defer a.emitMu.Unlock()

	a.mu.Lock()
	if a.st.State != StateUploading || p <= a.st.Progress || a.removed {
		a.mu.Unlock()
		return
	}
	a.st.Progress = min(p, 100)
	st := a.st
	a.mu.Unlock()

	c.notify(st)
}

func (c *Coordinator) notify(st AttemptState) {
	c.mu.RLock()
	subs := make([]func(AttemptState), 0, len(c.subs))
	keys := make([]int, 0, len(c.subs))
	for k := range c.subs {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		subs = append(subs, c.subs[k])
	}
	c.mu.RUnlock()

	for _, fn := range subs {
		fn(st)
	}
}

// Subscribe registers fn for every state change. fn runs on the goroutine
// that made the change and must not block; it may call the read methods.
func (c *Coordinator) Subscribe(fn func(AttemptState)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

// Snapshot returns every attempt's state in selection order.
func (c *Coordinator) Snapshot() []AttemptState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]AttemptState, 0, len(c.order))
	for _, idx := range c.order {
		a := c.attempts[idx]
		a.mu.Lock()
		out = append(out, a.st)
		a.mu.Unlock()
	}
	return out
}

// Len is the number of assets currently selected.
func (c *Coordinator) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Status aggregates the current attempt states.
func (c *Coordinator) Status() Status {
	return aggregate(c.Snapshot())
}

// Result maps index to URL. ok is false unless every attempt succeeded. An
// empty batch is trivially complete.
func (c *Coordinator) Result() (map[int]string, bool) {
	snap := c.Snapshot()
	out := make(map[int]string, len(snap))
	for _, s := range snap {
		if s.State != StateSucceeded {
			return nil, false
		}
		out[s.Index] = s.URL
	}
	return out, true
}

// URLs returns the succeeded URLs in selection order, with the same ok rule
// as Result.
func (c *Coordinator) URLs() ([]string, bool) {
	snap := c.Snapshot()
	out := make([]string, 0, len(snap))
	for _, s := range snap {
		if s.State != StateSucceeded {
			return nil, false
		}
		out = append(out, s.URL)
	}
	return out, true
}

// Complete reports whether Result would succeed.
func (c *Coordinator) Complete() bool {
	_, ok := c.Result()
	return ok
}

func (c *Coordinator) outcome() Outcome {
	snap := c.Snapshot()
	out := Outcome{Status: aggregate(snap), URLs: make(map[int]string)}
	if out.Status == StatusEmpty {
		out.Status = StatusSucceeded
	}
	for _, s := range snap {
		switch s.State {
		case StateSucceeded:
			out.URLs[s.Index] = s.URL
		case StateFailed:
			out.Failures = append(out.Failures, s.Err)
		}
	}
	return out
}
