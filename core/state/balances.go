package state

import (
	"fmt"
	"math/big"
	"strings"
)

var (
	balancePrefix     = []byte("bank/balance/")
	tokenSupplyPrefix = []byte("bank/supply/")
	tokenListKey      = []byte("bank/tokens")
)

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func balanceKey(symbol string, addr [20]byte) []byte {
	return composeKey(balancePrefix, []byte(symbol), []byte{':'}, addr[:])
}

func tokenSupplyKey(symbol string) []byte {
	return composeKey(tokenSupplyPrefix, []byte(symbol))
}

// Balance returns the holdings of addr in the token. Missing balances read as
// zero.
func (m *Manager) Balance(symbol string, addr [20]byte) (*big.Int, error) {
	normalized := normalizeSymbol(symbol)
	if normalized == "" {
		return nil, fmt.Errorf("token symbol required")
	}
	balance := new(big.Int)
	ok, err := m.KVGet(balanceKey(normalized, addr), balance)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return balance, nil
}

// SetBalance overwrites the stored balance. Zero balances are removed.
func (m *Manager) SetBalance(symbol string, addr [20]byte, amount *big.Int) error {
	normalized := normalizeSymbol(symbol)
	if normalized == "" {
		return fmt.Errorf("token symbol required")
	}
	if amount == nil || amount.Sign() == 0 {
		return m.KVDelete(balanceKey(normalized, addr))
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("token %s balance cannot be negative", normalized)
	}
	return m.KVPut(balanceKey(normalized, addr), amount)
}

// TokenSupply returns the persisted total supply for the provided token. Missing
// entries default to zero.
func (m *Manager) TokenSupply(symbol string) (*big.Int, error) {
	normalized := normalizeSymbol(symbol)
	if normalized == "" {
		return nil, fmt.Errorf("token symbol required")
	}
	total := new(big.Int)
	ok, err := m.KVGet(tokenSupplyKey(normalized), total)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return total, nil
}

// AdjustTokenSupply increments the stored total supply by the supplied delta and
// returns the updated total. New tokens are added to the token list.
func (m *Manager) AdjustTokenSupply(symbol string, delta *big.Int) (*big.Int, error) {
	normalized := normalizeSymbol(symbol)
	current, err := m.TokenSupply(normalized)
	if err != nil {
		return nil, err
	}
	if delta == nil {
		return current, nil
	}
	updated := new(big.Int).Add(current, delta)
	if updated.Sign() < 0 {
		return nil, fmt.Errorf("token %s supply cannot be negative", normalized)
	}
	if err := m.KVPut(tokenSupplyKey(normalized), updated); err != nil {
		return nil, err
	}
	if err := m.KVAppend(tokenListKey, []byte(normalized)); err != nil {
		return nil, err
	}
	return updated, nil
}

// Tokens lists every token that has ever been minted.
func (m *Manager) Tokens() ([]string, error) {
	var raw [][]byte
	if err := m.KVGetList(tokenListKey, &raw); err != nil {
		return nil, err
	}
	out := make([]string, len(raw))
	for i, entry := range raw {
		out[i] = string(entry)
	}
	return out, nil
}
