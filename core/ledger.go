package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"rwaledger/core/events"
	"rwaledger/core/state"
	"rwaledger/core/types"
	"rwaledger/native/bank"
	"rwaledger/native/common"
	"rwaledger/native/rwa"
	"rwaledger/observability"
	"rwaledger/storage"
)

// Call exposes the collaborators bound to one ledger operation. Everything
// reachable from it shares the operation's state transaction.
type Call struct {
	Engine *rwa.Engine
	Bank   *bank.Ledger
	State  *state.Manager
	Caller [20]byte
}

// Ledger serialises every operation behind one lock and runs each inside its
// own state transaction. Effects and events of a failed operation are
// discarded; a successful one commits as a single batch before its events are
// released to the sink.
type Ledger struct {
	mu     sync.RWMutex
	db     storage.Database
	sink   events.Emitter
	pauses common.PauseView
	nowFn  func() int64
	logger *slog.Logger
	tracer trace.Tracer
}

// Option customises a Ledger.
type Option func(*Ledger)

// WithEmitter sets the sink receiving committed events.
func WithEmitter(sink events.Emitter) Option {
	return func(l *Ledger) {
		if sink != nil {
			l.sink = sink
		}
	}
}

// WithPauses wires the operator pause controls.
func WithPauses(p common.PauseView) Option { return func(l *Ledger) { l.pauses = p } }

// WithNowFunc overrides the clock. Intended for tests.
func WithNowFunc(now func() int64) Option {
	return func(l *Ledger) {
		if now != nil {
			l.nowFn = now
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLedger opens a ledger over db after checking the state schema version.
func NewLedger(db storage.Database, opts ...Option) (*Ledger, error) {
	if db == nil {
		return nil, fmt.Errorf("ledger: database required")
	}
	if err := state.EnsureStateVersion(db, false); err != nil {
		return nil, err
	}
	l := &Ledger{
		db:     db,
		sink:   events.NoopEmitter{},
		nowFn:  func() int64 { return time.Now().Unix() },
		logger: slog.Default(),
		tracer: otel.Tracer("rwaledger/core"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func (l *Ledger) bind(tx *state.Tx, caller [20]byte, emitter events.Emitter) *Call {
	manager := state.NewManager(tx)
	ledger := bank.NewLedger(manager)
	ledger.SetEmitter(emitter)
	engine := rwa.NewEngine()
	engine.SetState(manager)
	engine.SetTokens(ledger)
	engine.SetAuthorizer(rwa.Caller(caller))
	engine.SetEmitter(emitter)
	engine.SetPauses(l.pauses)
	engine.SetNowFunc(l.nowFn)
	return &Call{Engine: engine, Bank: ledger, State: manager, Caller: caller}
}

// Execute runs fn as one atomic operation on behalf of caller.
func (l *Ledger) Execute(ctx context.Context, caller [20]byte, op string, fn func(*Call) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, span := l.tracer.Start(ctx, "rwa."+op, trace.WithAttributes(attribute.String("rwa.op", op)))
	defer span.End()
	start := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	tx := state.Begin(l.db)
	buf := &events.Buffer{}
	call := l.bind(tx, caller, buf)
	if err := fn(call); err != nil {
		tx.Discard()
		l.fail(ctx, span, op, err, start)
		return err
	}
	committed, err := l.sequence(call.State, buf.Drain())
	if err != nil {
		tx.Discard()
		l.fail(ctx, span, op, err, start)
		return err
	}
	tvl, tvlErr := call.State.RWATotalValueLocked()
	if err := tx.Commit(); err != nil {
		l.fail(ctx, span, op, err, start)
		return err
	}
	observability.Ledger().Observe(op, "", time.Since(start))
	if tvlErr == nil {
		value, _ := new(big.Float).SetInt(tvl).Float64()
		observability.Ledger().SetTotalValueLocked(value)
	}
	span.SetAttributes(attribute.Int("rwa.events", len(committed)))
	for _, evt := range committed {
		observability.Events().RecordCommitted(evt.Type)
		l.sink.Emit(events.Committed{Payload: evt})
	}
	return nil
}

// sequence stamps buffered events with consecutive sequence numbers and the
// commit time, persisting the high-water mark in the same transaction.
func (l *Ledger) sequence(manager *state.Manager, pending []*types.Event) ([]*types.Event, error) {
	if len(pending) == 0 {
		return nil, nil
	}
	last, err := manager.EventSequence()
	if err != nil {
		return nil, err
	}
	now := l.nowFn()
	for _, evt := range pending {
		last++
		evt.Sequence = last
		evt.Timestamp = now
	}
	if err := manager.SetEventSequence(last); err != nil {
		return nil, err
	}
	return pending, nil
}

func (l *Ledger) fail(ctx context.Context, span trace.Span, op string, err error, start time.Time) {
	outcome := rwa.KindOf(err).String()
	if errors.Is(err, bank.ErrInsufficientFunds) {
		outcome = "insufficient_funds"
	}
	observability.Ledger().Observe(op, outcome, time.Since(start))
	span.RecordError(err)
	span.SetStatus(codes.Error, outcome)
	l.logger.DebugContext(ctx, "ledger operation aborted",
		slog.String("op", op),
		slog.String("kind", outcome),
		slog.String("error", err.Error()))
}

// View runs fn against committed state. Writes made by fn are dropped.
func (l *Ledger) View(ctx context.Context, fn func(*Call) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	tx := state.Begin(l.db)
	defer tx.Discard()
	return fn(l.bind(tx, [20]byte{}, events.NoopEmitter{}))
}

// Bootstrap seeds an uninitialised ledger through seed, run as admin. An
// already initialised ledger is left untouched and reported as not seeded.
func (l *Ledger) Bootstrap(ctx context.Context, admin [20]byte, seed func(*Call) error) (bool, error) {
	initialised := false
	err := l.View(ctx, func(c *Call) error {
		_, ok, err := c.State.RWAAdmin()
		initialised = ok
		return err
	})
	if err != nil || initialised {
		return false, err
	}
	if err := l.Execute(ctx, admin, "genesis", seed); err != nil {
		return false, err
	}
	l.logger.InfoContext(ctx, "ledger seeded from genesis")
	return true, nil
}
