package rwa

import (
	"fmt"
	"math/big"
	"strings"
)

// CreateAsset lists a new asset issued by the current admin and returns its id.
func (e *Engine) CreateAsset(params AssetParams) (uint64, error) {
	if err := e.mutable(); err != nil {
		return 0, err
	}
	admin, err := e.requireAdmin()
	if err != nil {
		return 0, err
	}
	name := strings.TrimSpace(params.Name)
	symbol := NormalizeToken(params.Symbol)
	token := NormalizeToken(params.SettlementToken)
	switch {
	case !positive(params.TotalSupply):
		return 0, fmt.Errorf("%w: total supply must be positive", ErrInvalidArgument)
	case !positive(params.Valuation):
		return 0, fmt.Errorf("%w: valuation must be positive", ErrInvalidArgument)
	case params.MinInvestment != nil && params.MinInvestment.Sign() < 0:
		return 0, fmt.Errorf("%w: minimum investment must not be negative", ErrInvalidArgument)
	case name == "" || symbol == "":
		return 0, fmt.Errorf("%w: name and symbol required", ErrInvalidArgument)
	case token == "":
		return 0, fmt.Errorf("%w: settlement token required", ErrInvalidArgument)
	case !params.Class.Valid():
		return 0, fmt.Errorf("%w: unknown asset class %d", ErrInvalidArgument, params.Class)
	}

	count, err := e.state.RWAAssetCount()
	if err != nil {
		return 0, err
	}
	now := e.now()
	asset := &Asset{
		ID:                count + 1,
		Name:              name,
		Symbol:            symbol,
		Class:             params.Class,
		TotalSupply:       cloneBigInt(params.TotalSupply),
		CirculatingSupply: big.NewInt(0),
		Issuer:            admin,
		Custodian:         params.Custodian,
		SettlementToken:   token,
		Valuation:         cloneBigInt(params.Valuation),
		CreatedAt:         now,
		LastValuation:     now,
		Active:            true,
		Transferable:      true,
		MinInvestment:     cloneBigInt(params.MinInvestment),
		AccreditedOnly:    params.AccreditedOnly,
	}
	if err := e.state.RWAPutAsset(asset); err != nil {
		return 0, err
	}
	if err := e.state.RWASetAssetCount(asset.ID); err != nil {
		return 0, err
	}
	if err := e.adjustTVL(asset.Valuation); err != nil {
		return 0, err
	}
	e.emit(NewAssetCreatedEvent(asset))
	return asset.ID, nil
}

// UpdateValuation replaces an asset's valuation and moves TVL by the delta.
// It reports false when the asset does not exist. Zero is accepted.
func (e *Engine) UpdateValuation(assetID uint64, valuation *big.Int) (bool, error) {
	if err := e.mutable(); err != nil {
		return false, err
	}
	if _, err := e.requireAdmin(); err != nil {
		return false, err
	}
	asset, ok, err := e.state.RWAGetAsset(assetID)
	if err != nil || !ok {
		return false, err
	}
	if valuation == nil || valuation.Sign() < 0 {
		return false, fmt.Errorf("%w: valuation must not be negative", ErrInvalidArgument)
	}
	previous := cloneBigInt(asset.Valuation)
	asset.Valuation = cloneBigInt(valuation)
	asset.LastValuation = e.now()
	if err := e.state.RWAPutAsset(asset); err != nil {
		return false, err
	}
	if err := e.adjustTVL(new(big.Int).Sub(valuation, previous)); err != nil {
		return false, err
	}
	e.emit(NewValuationUpdatedEvent(assetID, previous, valuation))
	return true, nil
}

// SetAssetTransferable toggles secondary transfers. It reports false when the
// asset does not exist.
func (e *Engine) SetAssetTransferable(assetID uint64, transferable bool) (bool, error) {
	if err := e.mutable(); err != nil {
		return false, err
	}
	if _, err := e.requireAdmin(); err != nil {
		return false, err
	}
	asset, ok, err := e.state.RWAGetAsset(assetID)
	if err != nil || !ok {
		return false, err
	}
	asset.Transferable = transferable
	if err := e.state.RWAPutAsset(asset); err != nil {
		return false, err
	}
	e.emit(NewTransferabilityChangedEvent(assetID, transferable))
	return true, nil
}

// TokenPrice returns valuation / total supply, truncated. Missing assets and
// empty supplies price at zero.
func (e *Engine) TokenPrice(assetID uint64) *big.Int {
	if e.ready() != nil {
		return big.NewInt(0)
	}
	asset, ok, err := e.state.RWAGetAsset(assetID)
	if err != nil || !ok || !positive(asset.TotalSupply) {
		return big.NewInt(0)
	}
	return new(big.Int).Quo(asset.Valuation, asset.TotalSupply)
}

func (e *Engine) adjustTVL(delta *big.Int) error {
	tvl, err := e.state.RWATotalValueLocked()
	if err != nil {
		return err
	}
	return e.state.RWAPutTotalValueLocked(new(big.Int).Add(tvl, delta))
}
