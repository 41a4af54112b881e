package rwa

import (
	"fmt"
	"math/big"
)

// Transfer moves units of an asset between two investors. Cost basis is not
// carried to the recipient.
func (e *Engine) Transfer(assetID uint64, from, to [20]byte, amount *big.Int) (bool, error) {
	if err := e.mutable(); err != nil {
		return false, err
	}
	if err := e.requireCaller(from); err != nil {
		return false, err
	}
	if !positive(amount) {
		return false, fmt.Errorf("%w: amount must be positive", ErrInvalidArgument)
	}
	if from == to {
		return false, fmt.Errorf("%w: sender and recipient are the same account", ErrInvalidArgument)
	}
	asset, err := e.loadAsset(assetID)
	if err != nil {
		return false, err
	}
	if !asset.Active || !asset.Transferable {
		return false, fmt.Errorf("%w: asset %d not transferable", ErrInvalidState, assetID)
	}
	if e.IsBlacklisted(from) || e.IsBlacklisted(to) {
		return false, fmt.Errorf("%w: party blacklisted", ErrComplianceViolation)
	}
	if err := e.requireCompliant(asset, to); err != nil {
		return false, err
	}
	sender, ok, err := e.loadHolding(assetID, from)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, fmt.Errorf("%w: no holding for sender", ErrNotFound)
	}
	if sender.Quantity.Cmp(amount) < 0 {
		return false, fmt.Errorf("%w: holding %s below %s", ErrInsufficientBalance, sender.Quantity, amount)
	}
	if sender.LockedUntil > e.now() {
		return false, fmt.Errorf("%w: until %d", ErrLocked, sender.LockedUntil)
	}

	if err := e.transfer(asset.SettlementToken, from, to, amount); err != nil {
		return false, err
	}
	if err := e.debitHolding(sender, amount); err != nil {
		return false, err
	}
	if _, err := e.creditHolding(assetID, to, amount, nil); err != nil {
		return false, err
	}
	e.emit(NewTransferEvent(assetID, from, to, amount))
	return true, nil
}
