package rwa

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"rwaledger/core/events"
	"rwaledger/core/types"
	"rwaledger/crypto"
	"rwaledger/native/common"
)

// ModuleName identifies the module for pause controls.
const ModuleName = "rwa"

var moduleAddress = crypto.DeriveModuleAddress("rwa/module-custody")

// ModuleAddress is the custody account holding undistributed payouts.
func ModuleAddress() [20]byte { return moduleAddress }

type engineState interface {
	RWAAdmin() ([20]byte, bool, error)
	RWAPutAdmin(admin [20]byte) error
	RWAAssetCount() (uint64, error)
	RWASetAssetCount(n uint64) error
	RWADistributionCount() (uint64, error)
	RWASetDistributionCount(n uint64) error
	RWATotalValueLocked() (*big.Int, error)
	RWAPutTotalValueLocked(v *big.Int) error

	RWAGetAsset(id uint64) (*Asset, bool, error)
	RWAPutAsset(asset *Asset) error
	RWAGetInvestor(addr [20]byte) (*Investor, bool, error)
	RWAPutInvestor(inv *Investor) error
	RWAGetHolding(assetID uint64, investor [20]byte) (*Holding, bool, error)
	RWAPutHolding(h *Holding) error
	RWAAssetHolders(assetID uint64) ([][20]byte, error)
	RWAGetDistribution(id uint64) (*Distribution, bool, error)
	RWAPutDistribution(d *Distribution) error
	RWAAssetDistributions(assetID uint64) ([]uint64, error)
	RWAClaimed(distributionID uint64, investor [20]byte) (bool, error)
	RWAMarkClaimed(distributionID uint64, investor [20]byte) error

	RWACountryAllowed(code string) (bool, error)
	RWASetCountryAllowed(code string, allowed bool) error
	RWABlacklisted(addr [20]byte) (bool, error)
	RWASetBlacklisted(addr [20]byte, flag bool) error
}

// TokenTransfer moves fungible value between accounts. It either fully succeeds
// or returns an error, which aborts the enclosing operation.
type TokenTransfer interface {
	Transfer(token string, from, to [20]byte, amount *big.Int) error
}

// Authorizer proves that the invoking identity controls an account.
type Authorizer interface {
	RequireCaller(account [20]byte) error
}

// Caller authorizes exactly one account.
type Caller [20]byte

// RequireCaller implements Authorizer.
func (c Caller) RequireCaller(account [20]byte) error {
	if [20]byte(c) != account {
		return fmt.Errorf("%w: caller %s cannot act for %s", ErrUnauthorized, fmtAddr(c), fmtAddr(account))
	}
	return nil
}

// Engine applies RWA operations against a state backend. A single Engine is
// not safe for concurrent use; callers serialise access.
type Engine struct {
	state   engineState
	tokens  TokenTransfer
	auth    Authorizer
	emitter events.Emitter
	pauses  common.PauseView
	nowFn   func() int64
}

// NewEngine creates an engine with a no-op emitter and the wall clock.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetTokens configures the transfer service used for payments and payouts.
func (e *Engine) SetTokens(tokens TokenTransfer) { e.tokens = tokens }

// SetAuthorizer configures the caller check. A nil authorizer rejects every
// authorized operation.
func (e *Engine) SetAuthorizer(auth Authorizer) { e.auth = auth }

// SetPauses wires the pause view consulted before mutating operations.
func (e *Engine) SetPauses(p common.PauseView) { e.pauses = p }

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetEmitter configures the event emitter used by the engine. Passing nil resets
// the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(rwaEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	return nil
}

// mutable guards every state-changing entry point.
func (e *Engine) mutable() error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := common.Guard(e.pauses, ModuleName); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidState, err)
	}
	return nil
}

func (e *Engine) requireCaller(account [20]byte) error {
	if e.auth == nil {
		return fmt.Errorf("%w: authorizer not configured", ErrUnauthorized)
	}
	if err := e.auth.RequireCaller(account); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return nil
}

func (e *Engine) admin() ([20]byte, error) {
	admin, ok, err := e.state.RWAAdmin()
	if err != nil {
		return [20]byte{}, err
	}
	if !ok {
		return [20]byte{}, ErrNotInitialized
	}
	return admin, nil
}

// requireAdmin returns the stored admin once the caller has proven control of it.
func (e *Engine) requireAdmin() ([20]byte, error) {
	admin, err := e.admin()
	if err != nil {
		return [20]byte{}, err
	}
	if err := e.requireCaller(admin); err != nil {
		return [20]byte{}, err
	}
	return admin, nil
}

func (e *Engine) transfer(token string, from, to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if e.tokens == nil {
		return fmt.Errorf("rwa engine: token transfer service not configured")
	}
	if err := e.tokens.Transfer(token, from, to, amount); err != nil {
		return fmt.Errorf("transfer %s %s: %w", amount, token, err)
	}
	return nil
}

func (e *Engine) loadAsset(assetID uint64) (*Asset, error) {
	asset, ok, err := e.state.RWAGetAsset(assetID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: asset %d", ErrNotFound, assetID)
	}
	return asset, nil
}

func positive(v *big.Int) bool { return v != nil && v.Sign() > 0 }
