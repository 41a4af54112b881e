package rwa

import (
	"fmt"
	"math/big"
)

// Admin returns the current admin account.
func (e *Engine) Admin() ([20]byte, error) {
	if err := e.ready(); err != nil {
		return [20]byte{}, err
	}
	return e.admin()
}

func (e *Engine) Asset(assetID uint64) (*Asset, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.loadAsset(assetID)
}

func (e *Engine) Investor(account [20]byte) (*Investor, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	investor, ok, err := e.state.RWAGetInvestor(account)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: investor %s", ErrNotFound, fmtAddr(account))
	}
	return investor, nil
}

func (e *Engine) Holding(assetID uint64, account [20]byte) (*Holding, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	holding, ok, err := e.loadHolding(assetID, account)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: holding %d/%s", ErrNotFound, assetID, fmtAddr(account))
	}
	return holding, nil
}

func (e *Engine) Distribution(distributionID uint64) (*Distribution, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	dist, ok, err := e.state.RWAGetDistribution(distributionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: distribution %d", ErrNotFound, distributionID)
	}
	return dist, nil
}

// IsDistributionClaimed reports whether the investor already claimed.
func (e *Engine) IsDistributionClaimed(distributionID uint64, account [20]byte) bool {
	if e.ready() != nil {
		return false
	}
	claimed, err := e.state.RWAClaimed(distributionID, account)
	return err == nil && claimed
}

func (e *Engine) TotalValueLocked() (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.state.RWATotalValueLocked()
}

func (e *Engine) AssetCount() (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	return e.state.RWAAssetCount()
}

func (e *Engine) DistributionCount() (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	return e.state.RWADistributionCount()
}

// AssetHolders lists every position ever opened in the asset, including
// emptied ones, in order of first acquisition.
func (e *Engine) AssetHolders(assetID uint64) ([]*Holding, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if _, err := e.loadAsset(assetID); err != nil {
		return nil, err
	}
	accounts, err := e.state.RWAAssetHolders(assetID)
	if err != nil {
		return nil, err
	}
	out := make([]*Holding, 0, len(accounts))
	for _, account := range accounts {
		holding, ok, err := e.loadHolding(assetID, account)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, holding)
		}
	}
	return out, nil
}

// AssetDistributions lists the distributions created for the asset.
func (e *Engine) AssetDistributions(assetID uint64) ([]*Distribution, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	ids, err := e.state.RWAAssetDistributions(assetID)
	if err != nil {
		return nil, err
	}
	out := make([]*Distribution, 0, len(ids))
	for _, id := range ids {
		dist, ok, err := e.state.RWAGetDistribution(id)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, dist)
		}
	}
	return out, nil
}
