package bank

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"rwaledger/core/events"
	"rwaledger/core/state"
	"rwaledger/core/types"
	"rwaledger/crypto"
)

const (
	EventTypeTransfer = "bank.transfer"
	EventTypeMint     = "bank.mint"
)

var (
	ErrInsufficientFunds = errors.New("bank: insufficient funds")
	ErrInvalidAmount     = errors.New("bank: invalid amount")
	ErrTokenRequired     = errors.New("bank: token symbol required")
)

// NormalizeToken canonicalises a token symbol.
func NormalizeToken(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

type bankEvent struct {
	evt *types.Event
}

func (e bankEvent) EventType() string { return e.evt.Type }

func (e bankEvent) Event() *types.Event { return e.evt }

// Ledger moves fungible token balances held in ledger state. It shares the
// caller's state transaction, so its writes commit or roll back together with
// the operation that triggered them.
type Ledger struct {
	manager *state.Manager
	emitter events.Emitter
}

// NewLedger binds the bank to a state manager.
func NewLedger(manager *state.Manager) *Ledger {
	return &Ledger{manager: manager, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event emitter. Passing nil discards events.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

// Balance returns the token balance of addr.
func (l *Ledger) Balance(token string, addr [20]byte) (*big.Int, error) {
	if l == nil || l.manager == nil {
		return nil, fmt.Errorf("bank: state manager required")
	}
	symbol := NormalizeToken(token)
	if symbol == "" {
		return nil, ErrTokenRequired
	}
	return l.manager.Balance(symbol, addr)
}

// Transfer moves amount of token from one account to another.
func (l *Ledger) Transfer(token string, from, to [20]byte, amount *big.Int) error {
	if l == nil || l.manager == nil {
		return fmt.Errorf("bank: state manager required")
	}
	symbol := NormalizeToken(token)
	if symbol == "" {
		return ErrTokenRequired
	}
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}
	fromBalance, err := l.manager.Balance(symbol, from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s %s, needs %s", ErrInsufficientFunds, crypto.FromRaw(from), fromBalance, symbol, amount)
	}
	toBalance, err := l.manager.Balance(symbol, to)
	if err != nil {
		return err
	}
	if err := l.manager.SetBalance(symbol, from, new(big.Int).Sub(fromBalance, amount)); err != nil {
		return err
	}
	if err := l.manager.SetBalance(symbol, to, new(big.Int).Add(toBalance, amount)); err != nil {
		return err
	}
	l.emitter.Emit(bankEvent{evt: &types.Event{
		Type: EventTypeTransfer,
		Attributes: map[string]string{
			"token":  symbol,
			"from":   crypto.FromRaw(from).String(),
			"to":     crypto.FromRaw(to).String(),
			"amount": amount.String(),
		},
	}})
	return nil
}

// Mint credits newly issued tokens to addr and grows the token supply.
func (l *Ledger) Mint(token string, to [20]byte, amount *big.Int) error {
	if l == nil || l.manager == nil {
		return fmt.Errorf("bank: state manager required")
	}
	symbol := NormalizeToken(token)
	if symbol == "" {
		return ErrTokenRequired
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: mint amount must be positive", ErrInvalidAmount)
	}
	balance, err := l.manager.Balance(symbol, to)
	if err != nil {
		return err
	}
	if _, err := l.manager.AdjustTokenSupply(symbol, amount); err != nil {
		return err
	}
	if err := l.manager.SetBalance(symbol, to, new(big.Int).Add(balance, amount)); err != nil {
		return err
	}
	l.emitter.Emit(bankEvent{evt: &types.Event{
		Type: EventTypeMint,
		Attributes: map[string]string{
			"token":  symbol,
			"to":     crypto.FromRaw(to).String(),
			"amount": amount.String(),
		},
	}})
	return nil
}

// Supply returns the total minted amount of token.
func (l *Ledger) Supply(token string) (*big.Int, error) {
	if l == nil || l.manager == nil {
		return nil, fmt.Errorf("bank: state manager required")
	}
	return l.manager.TokenSupply(NormalizeToken(token))
}
