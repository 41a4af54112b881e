package rwa

import (
	"fmt"
	"math/big"
)

// Invest admits capital into an asset. The investor pays paymentAmount of
// paymentToken to the custodian and receives amount units from the issuer.
func (e *Engine) Invest(assetID uint64, investor [20]byte, amount *big.Int, paymentToken string, paymentAmount *big.Int) (bool, error) {
	if err := e.mutable(); err != nil {
		return false, err
	}
	if err := e.requireCaller(investor); err != nil {
		return false, err
	}
	if e.IsBlacklisted(investor) {
		return false, fmt.Errorf("%w: investor blacklisted", ErrComplianceViolation)
	}
	asset, err := e.loadAsset(assetID)
	if err != nil {
		return false, err
	}
	if !asset.Active {
		return false, fmt.Errorf("%w: asset %d inactive", ErrInvalidState, assetID)
	}
	if !positive(amount) {
		return false, fmt.Errorf("%w: amount must be positive", ErrInvalidArgument)
	}
	if paymentAmount == nil || paymentAmount.Sign() < 0 {
		return false, fmt.Errorf("%w: payment amount must not be negative", ErrInvalidArgument)
	}
	if amount.Cmp(asset.MinInvestment) < 0 {
		return false, fmt.Errorf("%w: amount %s below minimum %s", ErrInvalidArgument, amount, asset.MinInvestment)
	}
	issued := new(big.Int).Add(asset.CirculatingSupply, amount)
	if issued.Cmp(asset.TotalSupply) > 0 {
		return false, fmt.Errorf("%w: %s exceeds total supply %s", ErrCapacityExceeded, issued, asset.TotalSupply)
	}
	if err := e.requireCompliant(asset, investor); err != nil {
		return false, err
	}

	payToken := NormalizeToken(paymentToken)
	if payToken == "" {
		payToken = asset.SettlementToken
	}
	if err := e.transfer(payToken, investor, asset.Custodian, paymentAmount); err != nil {
		return false, err
	}
	if err := e.transfer(asset.SettlementToken, asset.Issuer, investor, amount); err != nil {
		return false, err
	}

	_, err = e.creditHolding(assetID, investor, amount, func(h *Holding, created bool) {
		if created {
			h.PurchasePrice = averagePrice(nil, paymentAmount, amount)
			return
		}
		h.PurchasePrice = averagePrice(h.PurchasePrice, paymentAmount, amount)
	})
	if err != nil {
		return false, err
	}

	asset.CirculatingSupply = issued
	if err := e.state.RWAPutAsset(asset); err != nil {
		return false, err
	}
	record, _, err := e.state.RWAGetInvestor(investor)
	if err != nil {
		return false, err
	}
	record.TotalInvested = new(big.Int).Add(cloneBigInt(record.TotalInvested), paymentAmount)
	if err := e.state.RWAPutInvestor(record); err != nil {
		return false, err
	}
	e.emit(NewInvestmentEvent(assetID, investor, amount, paymentAmount, payToken))
	return true, nil
}
