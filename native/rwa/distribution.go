package rwa

import (
	"fmt"
	"math/big"
)

// CreateDistribution pulls totalAmount of payoutToken from the admin into
// module custody and fixes the per-unit payout against the current circulating
// supply. Truncation dust stays in custody.
func (e *Engine) CreateDistribution(assetID uint64, totalAmount *big.Int, payoutToken string) (uint64, error) {
	if err := e.mutable(); err != nil {
		return 0, err
	}
	admin, err := e.requireAdmin()
	if err != nil {
		return 0, err
	}
	asset, err := e.loadAsset(assetID)
	if err != nil {
		return 0, err
	}
	if asset.CirculatingSupply.Sign() == 0 {
		return 0, fmt.Errorf("%w: asset %d has no circulating supply", ErrInvalidState, assetID)
	}
	if !positive(totalAmount) {
		return 0, fmt.Errorf("%w: total amount must be positive", ErrInvalidArgument)
	}
	token := NormalizeToken(payoutToken)
	if token == "" {
		return 0, fmt.Errorf("%w: payout token required", ErrInvalidArgument)
	}
	if err := e.transfer(token, admin, ModuleAddress(), totalAmount); err != nil {
		return 0, err
	}

	count, err := e.state.RWADistributionCount()
	if err != nil {
		return 0, err
	}
	now := e.now()
	dist := &Distribution{
		ID:           count + 1,
		AssetID:      assetID,
		TotalAmount:  cloneBigInt(totalAmount),
		PerUnit:      new(big.Int).Quo(totalAmount, asset.CirculatingSupply),
		PayoutToken:  token,
		SnapshotTime: now,
		CreatedAt:    now,
	}
	if err := e.state.RWAPutDistribution(dist); err != nil {
		return 0, err
	}
	if err := e.state.RWASetDistributionCount(dist.ID); err != nil {
		return 0, err
	}
	e.emit(NewDistributionCreatedEvent(dist))
	return dist.ID, nil
}

// ClaimDistribution pays quantity × per-unit to a holder that acquired its
// position at or before the snapshot. Each holder claims at most once.
func (e *Engine) ClaimDistribution(distributionID uint64, investor [20]byte) (*big.Int, error) {
	if err := e.mutable(); err != nil {
		return nil, err
	}
	if err := e.requireCaller(investor); err != nil {
		return nil, err
	}
	claimed, err := e.state.RWAClaimed(distributionID, investor)
	if err != nil {
		return nil, err
	}
	if claimed {
		return nil, fmt.Errorf("%w: distribution %d", ErrAlreadyClaimed, distributionID)
	}
	dist, ok, err := e.state.RWAGetDistribution(distributionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: distribution %d", ErrNotFound, distributionID)
	}
	holding, ok, err := e.loadHolding(dist.AssetID, investor)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: no holding in asset %d", ErrNotFound, dist.AssetID)
	}
	if holding.AcquiredAt > dist.SnapshotTime {
		return nil, fmt.Errorf("%w: acquired after snapshot", ErrNotEligible)
	}
	payout := new(big.Int).Mul(holding.Quantity, dist.PerUnit)
	if payout.Sign() <= 0 {
		return nil, ErrNothingToClaim
	}
	if err := e.transfer(dist.PayoutToken, ModuleAddress(), investor, payout); err != nil {
		return nil, err
	}
	if err := e.state.RWAMarkClaimed(distributionID, investor); err != nil {
		return nil, err
	}
	e.emit(NewDistributionClaimedEvent(dist, investor, payout))
	return payout, nil
}
