package state

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"rwaledger/native/rwa"
)

var (
	rwaAdminKey             = []byte("rwa/admin")
	rwaAssetCounterKey      = []byte("rwa/asset-counter")
	rwaDistributionCountKey = []byte("rwa/distribution-counter")
	rwaTVLKey               = []byte("rwa/tvl")

	rwaAssetPrefix              = []byte("rwa/asset/")
	rwaInvestorPrefix           = []byte("rwa/investor/")
	rwaHoldingPrefix            = []byte("rwa/holding/")
	rwaDistributionPrefix       = []byte("rwa/distribution/")
	rwaClaimPrefix              = []byte("rwa/claim/")
	rwaCountryPrefix            = []byte("rwa/country/")
	rwaBlacklistPrefix          = []byte("rwa/blacklist/")
	rwaAssetHoldersPrefix       = []byte("rwa/asset-holders/")
	rwaAssetDistributionsPrefix = []byte("rwa/asset-distributions/")
)

func composeKey(prefix []byte, parts ...[]byte) []byte {
	size := len(prefix)
	for _, part := range parts {
		size += len(part)
	}
	key := make([]byte, 0, size)
	key = append(key, prefix...)
	for _, part := range parts {
		key = append(key, part...)
	}
	return key
}

func idBytes(id uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], id)
	return buf[:]
}

func RWAAssetKey(id uint64) []byte { return composeKey(rwaAssetPrefix, idBytes(id)) }

func RWAInvestorKey(addr [20]byte) []byte { return composeKey(rwaInvestorPrefix, addr[:]) }

func RWAHoldingKey(assetID uint64, addr [20]byte) []byte {
	return composeKey(rwaHoldingPrefix, idBytes(assetID), addr[:])
}

func RWADistributionKey(id uint64) []byte { return composeKey(rwaDistributionPrefix, idBytes(id)) }

func RWAClaimKey(distributionID uint64, addr [20]byte) []byte {
	return composeKey(rwaClaimPrefix, idBytes(distributionID), addr[:])
}

func RWACountryKey(code string) []byte { return composeKey(rwaCountryPrefix, []byte(code)) }

func RWABlacklistKey(addr [20]byte) []byte { return composeKey(rwaBlacklistPrefix, addr[:]) }

type storedAsset struct {
	ID                uint64
	Name              string
	Symbol            string
	Class             uint8
	TotalSupply       *big.Int
	CirculatingSupply *big.Int
	Issuer            [20]byte
	Custodian         [20]byte
	SettlementToken   string
	Valuation         *big.Int
	CreatedAt         uint64
	LastValuation     uint64
	Active            bool
	Transferable      bool
	MinInvestment     *big.Int
	AccreditedOnly    bool
}

type storedInvestor struct {
	Address       [20]byte
	Accredited    bool
	KYCVerified   bool
	KYCExpiry     uint64
	Country       string
	TotalInvested *big.Int
	RegisteredAt  uint64
}

type storedHolding struct {
	AssetID       uint64
	Investor      [20]byte
	Quantity      *big.Int
	PurchasePrice *big.Int
	AcquiredAt    uint64
	LockedUntil   uint64
}

type storedDistribution struct {
	ID           uint64
	AssetID      uint64
	TotalAmount  *big.Int
	PerUnit      *big.Int
	PayoutToken  string
	SnapshotTime uint64
	CreatedAt    uint64
}

// storedSigned carries a signed integer, which rlp cannot encode directly.
type storedSigned struct {
	Negative bool
	Abs      *big.Int
}

func nonNegative(v *big.Int, field string) (*big.Int, error) {
	if v == nil {
		return big.NewInt(0), nil
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("rwa state: %s must not be negative", field)
	}
	return v, nil
}

// Timestamps are stored as their two's complement bit pattern.
func toStoredTime(v int64) uint64   { return uint64(v) }
func fromStoredTime(v uint64) int64 { return int64(v) }

func (m *Manager) RWAAdmin() ([20]byte, bool, error) {
	var admin [20]byte
	ok, err := m.KVGet(rwaAdminKey, &admin)
	return admin, ok, err
}

func (m *Manager) RWAPutAdmin(admin [20]byte) error { return m.KVPut(rwaAdminKey, admin) }

func (m *Manager) RWAAssetCount() (uint64, error) { return m.getUint64(rwaAssetCounterKey) }

func (m *Manager) RWASetAssetCount(n uint64) error { return m.KVPut(rwaAssetCounterKey, n) }

func (m *Manager) RWADistributionCount() (uint64, error) {
	return m.getUint64(rwaDistributionCountKey)
}

func (m *Manager) RWASetDistributionCount(n uint64) error {
	return m.KVPut(rwaDistributionCountKey, n)
}

// RWATotalValueLocked returns the signed TVL aggregate. Missing values read as
// zero.
func (m *Manager) RWATotalValueLocked() (*big.Int, error) {
	var stored storedSigned
	ok, err := m.KVGet(rwaTVLKey, &stored)
	if err != nil {
		return nil, err
	}
	if !ok || stored.Abs == nil {
		return big.NewInt(0), nil
	}
	value := new(big.Int).Set(stored.Abs)
	if stored.Negative {
		value.Neg(value)
	}
	return value, nil
}

func (m *Manager) RWAPutTotalValueLocked(v *big.Int) error {
	if v == nil {
		v = big.NewInt(0)
	}
	return m.KVPut(rwaTVLKey, storedSigned{Negative: v.Sign() < 0, Abs: new(big.Int).Abs(v)})
}

func (m *Manager) RWAGetAsset(id uint64) (*rwa.Asset, bool, error) {
	var stored storedAsset
	ok, err := m.KVGet(RWAAssetKey(id), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &rwa.Asset{
		ID:                stored.ID,
		Name:              stored.Name,
		Symbol:            stored.Symbol,
		Class:             rwa.AssetClass(stored.Class),
		TotalSupply:       orZero(stored.TotalSupply),
		CirculatingSupply: orZero(stored.CirculatingSupply),
		Issuer:            stored.Issuer,
		Custodian:         stored.Custodian,
		SettlementToken:   stored.SettlementToken,
		Valuation:         orZero(stored.Valuation),
		CreatedAt:         fromStoredTime(stored.CreatedAt),
		LastValuation:     fromStoredTime(stored.LastValuation),
		Active:            stored.Active,
		Transferable:      stored.Transferable,
		MinInvestment:     orZero(stored.MinInvestment),
		AccreditedOnly:    stored.AccreditedOnly,
	}, true, nil
}

func (m *Manager) RWAPutAsset(asset *rwa.Asset) error {
	if asset == nil {
		return fmt.Errorf("rwa state: nil asset")
	}
	total, err := nonNegative(asset.TotalSupply, "total supply")
	if err != nil {
		return err
	}
	circulating, err := nonNegative(asset.CirculatingSupply, "circulating supply")
	if err != nil {
		return err
	}
	valuation, err := nonNegative(asset.Valuation, "valuation")
	if err != nil {
		return err
	}
	minimum, err := nonNegative(asset.MinInvestment, "minimum investment")
	if err != nil {
		return err
	}
	return m.KVPut(RWAAssetKey(asset.ID), storedAsset{
		ID:                asset.ID,
		Name:              asset.Name,
		Symbol:            asset.Symbol,
		Class:             uint8(asset.Class),
		TotalSupply:       total,
		CirculatingSupply: circulating,
		Issuer:            asset.Issuer,
		Custodian:         asset.Custodian,
		SettlementToken:   asset.SettlementToken,
		Valuation:         valuation,
		CreatedAt:         toStoredTime(asset.CreatedAt),
		LastValuation:     toStoredTime(asset.LastValuation),
		Active:            asset.Active,
		Transferable:      asset.Transferable,
		MinInvestment:     minimum,
		AccreditedOnly:    asset.AccreditedOnly,
	})
}

func (m *Manager) RWAGetInvestor(addr [20]byte) (*rwa.Investor, bool, error) {
	var stored storedInvestor
	ok, err := m.KVGet(RWAInvestorKey(addr), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &rwa.Investor{
		Address:       stored.Address,
		Accredited:    stored.Accredited,
		KYCVerified:   stored.KYCVerified,
		KYCExpiry:     fromStoredTime(stored.KYCExpiry),
		Country:       stored.Country,
		TotalInvested: orZero(stored.TotalInvested),
		RegisteredAt:  fromStoredTime(stored.RegisteredAt),
	}, true, nil
}

func (m *Manager) RWAPutInvestor(inv *rwa.Investor) error {
	if inv == nil {
		return fmt.Errorf("rwa state: nil investor")
	}
	invested, err := nonNegative(inv.TotalInvested, "total invested")
	if err != nil {
		return err
	}
	return m.KVPut(RWAInvestorKey(inv.Address), storedInvestor{
		Address:       inv.Address,
		Accredited:    inv.Accredited,
		KYCVerified:   inv.KYCVerified,
		KYCExpiry:     toStoredTime(inv.KYCExpiry),
		Country:       inv.Country,
		TotalInvested: invested,
		RegisteredAt:  toStoredTime(inv.RegisteredAt),
	})
}

func (m *Manager) RWAGetHolding(assetID uint64, addr [20]byte) (*rwa.Holding, bool, error) {
	var stored storedHolding
	ok, err := m.KVGet(RWAHoldingKey(assetID, addr), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &rwa.Holding{
		AssetID:       stored.AssetID,
		Investor:      stored.Investor,
		Quantity:      orZero(stored.Quantity),
		PurchasePrice: orZero(stored.PurchasePrice),
		AcquiredAt:    fromStoredTime(stored.AcquiredAt),
		LockedUntil:   fromStoredTime(stored.LockedUntil),
	}, true, nil
}

// RWAPutHolding stores the position and records the holder in the asset's
// holder index.
func (m *Manager) RWAPutHolding(h *rwa.Holding) error {
	if h == nil {
		return fmt.Errorf("rwa state: nil holding")
	}
	quantity, err := nonNegative(h.Quantity, "holding quantity")
	if err != nil {
		return err
	}
	price, err := nonNegative(h.PurchasePrice, "purchase price")
	if err != nil {
		return err
	}
	if err := m.KVPut(RWAHoldingKey(h.AssetID, h.Investor), storedHolding{
		AssetID:       h.AssetID,
		Investor:      h.Investor,
		Quantity:      quantity,
		PurchasePrice: price,
		AcquiredAt:    toStoredTime(h.AcquiredAt),
		LockedUntil:   toStoredTime(h.LockedUntil),
	}); err != nil {
		return err
	}
	return m.KVAppend(composeKey(rwaAssetHoldersPrefix, idBytes(h.AssetID)), h.Investor[:])
}

func (m *Manager) RWAAssetHolders(assetID uint64) ([][20]byte, error) {
	var raw [][]byte
	if err := m.KVGetList(composeKey(rwaAssetHoldersPrefix, idBytes(assetID)), &raw); err != nil {
		return nil, err
	}
	out := make([][20]byte, 0, len(raw))
	for _, entry := range raw {
		if len(entry) != 20 {
			return nil, fmt.Errorf("rwa state: malformed holder index entry")
		}
		var addr [20]byte
		copy(addr[:], entry)
		out = append(out, addr)
	}
	return out, nil
}

func (m *Manager) RWAGetDistribution(id uint64) (*rwa.Distribution, bool, error) {
	var stored storedDistribution
	ok, err := m.KVGet(RWADistributionKey(id), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &rwa.Distribution{
		ID:           stored.ID,
		AssetID:      stored.AssetID,
		TotalAmount:  orZero(stored.TotalAmount),
		PerUnit:      orZero(stored.PerUnit),
		PayoutToken:  stored.PayoutToken,
		SnapshotTime: fromStoredTime(stored.SnapshotTime),
		CreatedAt:    fromStoredTime(stored.CreatedAt),
	}, true, nil
}

// RWAPutDistribution stores the distribution and indexes it under its asset.
func (m *Manager) RWAPutDistribution(d *rwa.Distribution) error {
	if d == nil {
		return fmt.Errorf("rwa state: nil distribution")
	}
	total, err := nonNegative(d.TotalAmount, "distribution total")
	if err != nil {
		return err
	}
	perUnit, err := nonNegative(d.PerUnit, "per-unit payout")
	if err != nil {
		return err
	}
	if err := m.KVPut(RWADistributionKey(d.ID), storedDistribution{
		ID:           d.ID,
		AssetID:      d.AssetID,
		TotalAmount:  total,
		PerUnit:      perUnit,
		PayoutToken:  d.PayoutToken,
		SnapshotTime: toStoredTime(d.SnapshotTime),
		CreatedAt:    toStoredTime(d.CreatedAt),
	}); err != nil {
		return err
	}
	return m.KVAppend(composeKey(rwaAssetDistributionsPrefix, idBytes(d.AssetID)), idBytes(d.ID))
}

func (m *Manager) RWAAssetDistributions(assetID uint64) ([]uint64, error) {
	var raw [][]byte
	if err := m.KVGetList(composeKey(rwaAssetDistributionsPrefix, idBytes(assetID)), &raw); err != nil {
		return nil, err
	}
	out := make([]uint64, 0, len(raw))
	for _, entry := range raw {
		if len(entry) != 8 {
			return nil, fmt.Errorf("rwa state: malformed distribution index entry")
		}
		out = append(out, binary.BigEndian.Uint64(entry))
	}
	return out, nil
}

func (m *Manager) RWAClaimed(distributionID uint64, addr [20]byte) (bool, error) {
	return m.KVGet(RWAClaimKey(distributionID, addr), nil)
}

func (m *Manager) RWAMarkClaimed(distributionID uint64, addr [20]byte) error {
	return m.KVPut(RWAClaimKey(distributionID, addr), true)
}

func (m *Manager) RWACountryAllowed(code string) (bool, error) {
	if code == "" {
		return false, nil
	}
	return m.KVGet(RWACountryKey(code), nil)
}

func (m *Manager) RWASetCountryAllowed(code string, allowed bool) error {
	if code == "" {
		return fmt.Errorf("rwa state: country code required")
	}
	if !allowed {
		return m.KVDelete(RWACountryKey(code))
	}
	return m.KVPut(RWACountryKey(code), true)
}

func (m *Manager) RWABlacklisted(addr [20]byte) (bool, error) {
	return m.KVGet(RWABlacklistKey(addr), nil)
}

func (m *Manager) RWASetBlacklisted(addr [20]byte, flag bool) error {
	if !flag {
		return m.KVDelete(RWABlacklistKey(addr))
	}
	return m.KVPut(RWABlacklistKey(addr), true)
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}
