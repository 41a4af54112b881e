package rwa

import (
	"fmt"
	"math/big"
)

func (e *Engine) loadHolding(assetID uint64, investor [20]byte) (*Holding, bool, error) {
	return e.state.RWAGetHolding(assetID, investor)
}

// creditHolding adds units to a position, creating it when absent. update,
// when set, runs before the position is stored and learns whether it is new.
func (e *Engine) creditHolding(assetID uint64, investor [20]byte, units *big.Int, update func(h *Holding, created bool)) (*Holding, error) {
	holding, ok, err := e.loadHolding(assetID, investor)
	if err != nil {
		return nil, err
	}
	if !ok {
		holding = &Holding{
			AssetID:       assetID,
			Investor:      investor,
			Quantity:      big.NewInt(0),
			PurchasePrice: big.NewInt(0),
			AcquiredAt:    e.now(),
		}
	}
	holding.Quantity = new(big.Int).Add(holding.Quantity, units)
	if update != nil {
		update(holding, !ok)
	}
	if err := e.state.RWAPutHolding(holding); err != nil {
		return nil, err
	}
	return holding, nil
}

func (e *Engine) debitHolding(holding *Holding, units *big.Int) error {
	if holding.Quantity.Cmp(units) < 0 {
		return fmt.Errorf("%w: holding %s below %s", ErrInsufficientBalance, holding.Quantity, units)
	}
	holding.Quantity = new(big.Int).Sub(holding.Quantity, units)
	return e.state.RWAPutHolding(holding)
}

// averagePrice blends the prior price with the unit price of a top-up as a
// plain two-point mean.
func averagePrice(previous, payment, units *big.Int) *big.Int {
	unitPrice := new(big.Int).Quo(payment, units)
	if previous == nil {
		return unitPrice
	}
	sum := new(big.Int).Add(previous, unitPrice)
	return sum.Quo(sum, big.NewInt(2))
}
