package rwa

import (
	"math/big"
	"strconv"

	"rwaledger/core/types"
	"rwaledger/crypto"
)

const (
	EventTypeInitialized            = "rwa.initialized"
	EventTypeAdminUpdated           = "rwa.admin_updated"
	EventTypeCountryWhitelisted     = "rwa.country_whitelisted"
	EventTypeAddressBlacklisted     = "rwa.address_blacklisted"
	EventTypeAssetCreated           = "rwa.asset_created"
	EventTypeValuationUpdated       = "rwa.valuation_updated"
	EventTypeTransferabilityChanged = "rwa.transferability_changed"
	EventTypeInvestorRegistered     = "rwa.investor_registered"
	EventTypeAccreditationUpdated   = "rwa.accreditation_updated"
	EventTypeInvestment             = "rwa.investment"
	EventTypeTransfer               = "rwa.transfer"
	EventTypeDistributionCreated    = "rwa.distribution_created"
	EventTypeDistributionClaimed    = "rwa.distribution_claimed"
)

type rwaEvent struct {
	evt *types.Event
}

func (e rwaEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e rwaEvent) Event() *types.Event { return e.evt }

func newEvent(kind string, attrs map[string]string) *types.Event {
	return &types.Event{Type: kind, Attributes: attrs}
}

func fmtAddr(a [20]byte) string { return crypto.FromRaw(a).String() }

func fmtAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func fmtID(v uint64) string { return strconv.FormatUint(v, 10) }

// NewInitializedEvent is emitted once when the admin is first recorded.
func NewInitializedEvent(admin [20]byte) *types.Event {
	return newEvent(EventTypeInitialized, map[string]string{"admin": fmtAddr(admin)})
}

// NewAdminUpdatedEvent records a change of owner.
func NewAdminUpdatedEvent(previous, next [20]byte) *types.Event {
	return newEvent(EventTypeAdminUpdated, map[string]string{
		"previous": fmtAddr(previous),
		"admin":    fmtAddr(next),
	})
}

func NewCountryWhitelistedEvent(code string, allowed bool) *types.Event {
	return newEvent(EventTypeCountryWhitelisted, map[string]string{
		"country": code,
		"allowed": strconv.FormatBool(allowed),
	})
}

func NewAddressBlacklistedEvent(account [20]byte, flag bool) *types.Event {
	return newEvent(EventTypeAddressBlacklisted, map[string]string{
		"account":     fmtAddr(account),
		"blacklisted": strconv.FormatBool(flag),
	})
}

// NewAssetCreatedEvent returns the canonical payload for a newly listed asset.
func NewAssetCreatedEvent(a *Asset) *types.Event {
	return newEvent(EventTypeAssetCreated, map[string]string{
		"assetId":     fmtID(a.ID),
		"name":        a.Name,
		"symbol":      a.Symbol,
		"class":       a.Class.String(),
		"totalSupply": fmtAmount(a.TotalSupply),
		"valuation":   fmtAmount(a.Valuation),
		"issuer":      fmtAddr(a.Issuer),
		"custodian":   fmtAddr(a.Custodian),
	})
}

func NewValuationUpdatedEvent(assetID uint64, previous, next *big.Int) *types.Event {
	return newEvent(EventTypeValuationUpdated, map[string]string{
		"assetId":  fmtID(assetID),
		"previous": fmtAmount(previous),
		"newValue": fmtAmount(next),
	})
}

func NewTransferabilityChangedEvent(assetID uint64, transferable bool) *types.Event {
	return newEvent(EventTypeTransferabilityChanged, map[string]string{
		"assetId":      fmtID(assetID),
		"transferable": strconv.FormatBool(transferable),
	})
}

func NewInvestorRegisteredEvent(inv *Investor) *types.Event {
	return newEvent(EventTypeInvestorRegistered, map[string]string{
		"investor":   fmtAddr(inv.Address),
		"country":    inv.Country,
		"accredited": strconv.FormatBool(inv.Accredited),
		"kycExpiry":  strconv.FormatInt(inv.KYCExpiry, 10),
	})
}

func NewAccreditationUpdatedEvent(investor [20]byte, accredited bool) *types.Event {
	return newEvent(EventTypeAccreditationUpdated, map[string]string{
		"investor":   fmtAddr(investor),
		"accredited": strconv.FormatBool(accredited),
	})
}

// NewInvestmentEvent carries the units issued and the payment collected.
func NewInvestmentEvent(assetID uint64, investor [20]byte, units, payment *big.Int, paymentToken string) *types.Event {
	return newEvent(EventTypeInvestment, map[string]string{
		"assetId":       fmtID(assetID),
		"investor":      fmtAddr(investor),
		"amount":        fmtAmount(units),
		"paymentAmount": fmtAmount(payment),
		"paymentToken":  paymentToken,
	})
}

func NewTransferEvent(assetID uint64, from, to [20]byte, units *big.Int) *types.Event {
	return newEvent(EventTypeTransfer, map[string]string{
		"assetId": fmtID(assetID),
		"from":    fmtAddr(from),
		"to":      fmtAddr(to),
		"amount":  fmtAmount(units),
	})
}

func NewDistributionCreatedEvent(d *Distribution) *types.Event {
	return newEvent(EventTypeDistributionCreated, map[string]string{
		"distributionId": fmtID(d.ID),
		"assetId":        fmtID(d.AssetID),
		"totalAmount":    fmtAmount(d.TotalAmount),
		"perUnit":        fmtAmount(d.PerUnit),
		"payoutToken":    d.PayoutToken,
		"snapshotTime":   strconv.FormatInt(d.SnapshotTime, 10),
	})
}

func NewDistributionClaimedEvent(d *Distribution, investor [20]byte, payout *big.Int) *types.Event {
	return newEvent(EventTypeDistributionClaimed, map[string]string{
		"distributionId": fmtID(d.ID),
		"assetId":        fmtID(d.AssetID),
		"investor":       fmtAddr(investor),
		"payout":         fmtAmount(payout),
	})
}
