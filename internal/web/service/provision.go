package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/econest/web/internal/web/domain"
	"github.com/econest/web/internal/web/metrics"
	"github.com/econest/web/internal/web/store"
	"github.com/econest/web/pkg/idx"
	"github.com/econest/web/pkg/slogx"
)

var (
	ErrProfileLookup = errors.New("profile lookup failed")
	ErrProfileInsert = errors.New("profile insert failed")
)

// Outcome is what one provisioning attempt did.
type Outcome string

const (
	OutcomeExisting     Outcome = "existing"
	OutcomeCreated      Outcome = "created"
	OutcomeCancelled    Outcome = "cancelled"
	OutcomeLookupFailed Outcome = "lookup_failed"
	OutcomeInsertFailed Outcome = "insert_failed"
)

// DefaultProvisionTimeout bounds one background attempt.
const DefaultProvisionTimeout = 10 * time.Second

// ProfileProvisioner makes sure every authenticated identity has exactly one
// profile row. Failures are logged and never retried here; the next mount of
// an authenticated view tries again. Build it with NewProfileProvisioner.
type ProfileProvisioner struct {
	Store   store.Store
	Metrics *metrics.Metrics
	Timeout time.Duration
	Now     func() time.Time

	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

func NewProfileProvisioner(st store.Store, m *metrics.Metrics, timeout time.Duration) *ProfileProvisioner {
	if timeout <= 0 {
		timeout = DefaultProvisionTimeout
	}
	base, cancel := context.WithCancel(context.Background())
	return &ProfileProvisioner{
		Store:   st,
		Metrics: m,
		Timeout: timeout,
		base:    base,
		cancel:  cancel,
	}
}

func (p *ProfileProvisioner) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now().UTC()
}

// EnsureProfile runs one attempt synchronously. ctx is the cancellation
// token: it is checked before the lookup, after it, and again before the
// insert, so a cancelled attempt never writes.
func (p *ProfileProvisioner) EnsureProfile(ctx context.Context, id domain.Identity) (Outcome, error) {
	outcome, err := p.ensure(ctx, id)
	p.Metrics.Provision(string(outcome))

	l := slogx.FromContext(ctx).With(slog.String("user_id", id.UserID), slog.String("outcome", string(outcome)))
	switch outcome {
	case OutcomeLookupFailed, OutcomeInsertFailed:
		l.Error("profile provisioning failed", slog.Any("error", err))
	case OutcomeCreated:
		l.Info("profile created")
	default:
		l.Debug("profile provisioning finished")
	}
	return outcome, err
}

func (p *ProfileProvisioner) ensure(ctx context.Context, id domain.Identity) (Outcome, error) {
	userID, err := domain.ParseUserID(id.UserID)
	if err != nil {
		return OutcomeLookupFailed, fmt.Errorf("%w: %v", ErrProfileLookup, err)
	}
	if ctx.Err() != nil {
		return OutcomeCancelled, ctx.Err()
	}

	_, err = p.Store.Profiles().GetProfileByUserID(ctx, userID)
	if ctx.Err() != nil {
		return OutcomeCancelled, ctx.Err()
	}
	switch {
	case err == nil:
		return OutcomeExisting, nil
	case !errors.Is(err, store.ErrNotFound):
		return OutcomeLookupFailed, fmt.Errorf("%w: %v", ErrProfileLookup, err)
	}

	now := p.now()
	created, err := p.Store.Profiles().InsertProfileIfMissing(ctx, domain.Profile{
		ID:        idx.NewAt(now).String(),
		UserID:    userID,
		Email:     id.Email,
		CreatedAt: now,
		UpdatedAt: now,
	})
	switch {
	case err != nil && ctx.Err() != nil:
		return OutcomeCancelled, ctx.Err()
	case err != nil:
		return OutcomeInsertFailed, fmt.Errorf("%w: %v", ErrProfileInsert, err)
	case !created:
		// A concurrent attempt won the insert.
		return OutcomeExisting, nil
	}
	return OutcomeCreated, nil
}

// Task is a background provisioning attempt.
type Task struct {
	cancel  context.CancelFunc
	done    chan struct{}
	outcome Outcome
	err     error
}

// Cancel turns every remaining step of the attempt into a no-op. Safe to call
// more than once and after completion.
func (t *Task) Cancel() { t.cancel() }

func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the attempt finishes.
func (t *Task) Wait() (Outcome, error) {
	<-t.done
	return t.outcome, t.err
}

// Start runs EnsureProfile in the background. The attempt keeps ctx's values
// (logger, request id) but not its deadline: it ends on Task.Cancel, on
// Shutdown, or after the provisioner's timeout.
func (p *ProfileProvisioner) Start(ctx context.Context, id domain.Identity) *Task {
	t := &Task{done: make(chan struct{})}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		t.cancel = func() {}
		t.outcome, t.err = OutcomeCancelled, context.Canceled
		close(t.done)
		p.Metrics.Provision(string(OutcomeCancelled))
		return t
	}
	p.wg.Add(1)
	p.mu.Unlock()

	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.Timeout)
	stop := context.AfterFunc(p.base, cancel)
	t.cancel = cancel

	go func() {
		defer p.wg.Done()
		defer close(t.done)
		defer stop()
		defer cancel()
		t.outcome, t.err = p.EnsureProfile(runCtx, id)
	}()
	return t
}

// Shutdown cancels running attempts and waits for them to return, or for ctx.
func (p *ProfileProvisioner) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
