// Package gate turns a validated draft plus a fully uploaded batch into
// exactly one record store call per submit.
package gate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophstore/internal/catalog"
	"github.com/dmitrijs2005/gophstore/internal/client/batch"
	"github.com/dmitrijs2005/gophstore/internal/logging"
)

var (
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
	ErrAlreadySubmitted   = errors.New("draft already submitted")
	ErrRecordStoreFailure = errors.New("record store failure")
)

// Phase is the gate's position in its state machine:
//
//	idle -> validating -> (uploading) -> submitting -> submitted | editable
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseUploading
	PhaseSubmitting
	PhaseSubmitted
	PhaseEditable
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseValidating:
		return "validating"
	case PhaseUploading:
		return "uploading"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSubmitted:
		return "submitted"
	case PhaseEditable:
		return "editable"
	default:
		return "unknown"
	}
}

// Policy decides what happens to the draft after a successful submit.
type Policy int

const (
	// PolicyPreserve keeps fields and uploaded assets, e.g. to submit a
	// near-duplicate after Restart.
	PolicyPreserve Policy = iota
	// PolicyReset clears fields and the batch.
	PolicyReset
)

// Form is the draft owner.
type Form interface {
	Validate() error
	Draft() catalog.Product
	Reset()
}

// Batch is the asset upload owner.
type Batch interface {
	Len() int
	Complete() bool
	Run(ctx context.Context) batch.Outcome
	URLs() ([]string, bool)
	Reset()
}

// RecordStore persists a finished product and returns its id.
type RecordStore interface {
	CreateProduct(ctx context.Context, p catalog.Product) (string, error)
}

type Options struct {
	Policy Policy
	// OnPhase, if set, observes every phase change.
	OnPhase func(Phase)
	Logger  logging.Logger
}

type Gate struct {
	form   Form
	batch  Batch
	store  RecordStore
	opts   Options
	logger logging.Logger

	mu       sync.Mutex
	phase    Phase
	inFlight bool
	lastErr  error
	recordID string
}

func New(form Form, b Batch, store RecordStore, opts Options) *Gate {
	if opts.Logger == nil {
		opts.Logger = logging.Nop{}
	}
	return &Gate{
		form:   form,
		batch:  b,
		store:  store,
		opts:   opts,
		logger: opts.Logger.With("module", "gate"),
	}
}

// Submit validates the draft, uploads whatever is missing and sends the
// product to the record store once. It returns the new record id.
//
// Validation problems come back as *catalog.ValidationError before any
// network call. A store failure wraps ErrRecordStoreFailure and leaves every
// field as it was.
func (g *Gate) Submit(ctx context.Context) (string, error) {
	g.mu.Lock()
	switch {
	case g.inFlight:
		g.mu.Unlock()
		return "", ErrSubmissionInFlight
	case g.phase == PhaseSubmitted:
		g.mu.Unlock()
		return "", ErrAlreadySubmitted
	}
	g.inFlight = true
	g.lastErr = nil
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.inFlight = false
		g.mu.Unlock()
	}()

	g.setPhase(PhaseValidating)
	if err := g.validate(); err != nil {
		return g.fail(ctx, err)
	}

	if !g.batch.Complete() {
		g.setPhase(PhaseUploading)
		if out := g.batch.Run(ctx); !out.Succeeded() {
			return g.fail(ctx, uploadFailure(out))
		}
	}
	urls, ok := g.batch.URLs()
	if !ok || len(urls) == 0 {
		verr := &catalog.ValidationError{}
		verr.Add("images", "uploads are incomplete")
		return g.fail(ctx, verr)
	}

	payload := g.form.Draft()
	payload.Images = urls

	g.setPhase(PhaseSubmitting)
	id, err := g.store.CreateProduct(ctx, payload)
	if err != nil {
		return g.fail(ctx, fmt.Errorf("%w: %w", ErrRecordStoreFailure, err))
	}

	g.mu.Lock()
	g.recordID = id
	g.mu.Unlock()
	g.setPhase(PhaseSubmitted)
	g.logger.Info(ctx, "product submitted", "id", id, "slug", payload.Slug, "images", len(urls))

	if g.opts.Policy == PolicyReset {
		g.form.Reset()
		g.batch.Reset()
	}
	return id, nil
}

func (g *Gate) validate() error {
	verr := &catalog.ValidationError{}
	if err := g.form.Validate(); err != nil && !errors.As(err, &verr) {
		return err
	}
	if g.batch.Len() == 0 {
		verr.Add("images", "at least one image is required")
	}
	return verr.Err()
}

func uploadFailure(out batch.Outcome) error {
	verr := &catalog.ValidationError{}
	for _, f := range out.Failures {
		verr.Add(fmt.Sprintf("images[%d]", f.Index), "upload failed: "+f.Kind.String())
	}
	if len(verr.Fields) == 0 {
		verr.Add("images", "uploads are incomplete")
	}
	return verr
}

func (g *Gate) fail(ctx context.Context, err error) (string, error) {
	g.mu.Lock()
	g.lastErr = err
	g.mu.Unlock()
	g.setPhase(PhaseEditable)
	g.logger.Warn(ctx, "submission rejected", "error", err)
	return "", err
}

func (g *Gate) setPhase(p Phase) {
	g.mu.Lock()
	g.phase = p
	g.mu.Unlock()
	if g.opts.OnPhase != nil {
		g.opts.OnPhase(p)
	}
}

// Restart starts a new draft instance after a submit. Fields are whatever
// the policy left behind.
func (g *Gate) Restart() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight {
		return ErrSubmissionInFlight
	}
	g.phase = PhaseIdle
	g.lastErr = nil
	g.recordID = ""
	return nil
}

func (g *Gate) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// LastError is the error of the last failed submit, nil after a success.
func (g *Gate) LastError() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastErr
}

// RecordID is the id returned by the last successful submit.
func (g *Gate) RecordID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.recordID
}

// InFlight reports whether a submit is running.
func (g *Gate) InFlight() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight
}
