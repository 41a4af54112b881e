package rwa

import (
	"fmt"
	"math/big"
	"strings"
)

// AssetClass tags the kind of off-chain asset a token represents.
type AssetClass uint8

const (
	AssetClassRealEstate AssetClass = iota
	AssetClassCommodity
	AssetClassSecurity
	AssetClassBond
	AssetClassArt
	AssetClassCollectible
	AssetClassInvoice
	AssetClassEquipment
	AssetClassIntellectualProperty
	AssetClassOther
)

var assetClassNames = [...]string{
	AssetClassRealEstate:           "real-estate",
	AssetClassCommodity:            "commodity",
	AssetClassSecurity:             "security",
	AssetClassBond:                 "bond",
	AssetClassArt:                  "art",
	AssetClassCollectible:          "collectible",
	AssetClassInvoice:              "invoice",
	AssetClassEquipment:            "equipment",
	AssetClassIntellectualProperty: "intellectual-property",
	AssetClassOther:                "other",
}

// Valid reports whether the class is one of the known tags.
func (c AssetClass) Valid() bool { return int(c) < len(assetClassNames) }

func (c AssetClass) String() string {
	if !c.Valid() {
		return fmt.Sprintf("asset-class(%d)", uint8(c))
	}
	return assetClassNames[c]
}

// ParseAssetClass resolves a class tag. Underscores and case are ignored.
func ParseAssetClass(raw string) (AssetClass, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	for i, name := range assetClassNames {
		if name == normalized {
			return AssetClass(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown asset class %q", ErrInvalidArgument, raw)
}

// Asset is a tokenized real-world asset.
type Asset struct {
	ID                uint64
	Name              string
	Symbol            string
	Class             AssetClass
	TotalSupply       *big.Int
	CirculatingSupply *big.Int
	Issuer            [20]byte
	Custodian         [20]byte
	SettlementToken   string
	Valuation         *big.Int
	CreatedAt         int64
	LastValuation     int64
	Active            bool
	Transferable      bool
	MinInvestment     *big.Int
	AccreditedOnly    bool
}

// Clone returns a deep copy of the asset.
func (a *Asset) Clone() *Asset {
	if a == nil {
		return nil
	}
	clone := *a
	clone.TotalSupply = cloneBigInt(a.TotalSupply)
	clone.CirculatingSupply = cloneBigInt(a.CirculatingSupply)
	clone.Valuation = cloneBigInt(a.Valuation)
	clone.MinInvestment = cloneBigInt(a.MinInvestment)
	return &clone
}

// AssetParams carries the issuer-supplied fields of a new asset.
type AssetParams struct {
	Name            string
	Symbol          string
	Class           AssetClass
	TotalSupply     *big.Int
	Valuation       *big.Int
	Custodian       [20]byte
	SettlementToken string
	MinInvestment   *big.Int
	AccreditedOnly  bool
}

// Investor is a registered participant. KYCVerified is set by registration.
type Investor struct {
	Address       [20]byte
	Accredited    bool
	KYCVerified   bool
	KYCExpiry     int64
	Country       string
	TotalInvested *big.Int
	RegisteredAt  int64
}

func (i *Investor) Clone() *Investor {
	if i == nil {
		return nil
	}
	clone := *i
	clone.TotalInvested = cloneBigInt(i.TotalInvested)
	return &clone
}

// Holding is the position of one investor in one asset.
type Holding struct {
	AssetID       uint64
	Investor      [20]byte
	Quantity      *big.Int
	PurchasePrice *big.Int
	AcquiredAt    int64
	LockedUntil   int64
}

func (h *Holding) Clone() *Holding {
	if h == nil {
		return nil
	}
	clone := *h
	clone.Quantity = cloneBigInt(h.Quantity)
	clone.PurchasePrice = cloneBigInt(h.PurchasePrice)
	return &clone
}

// Distribution is an immutable yield payout against an asset. Per-investor
// claims are tracked separately.
type Distribution struct {
	ID           uint64
	AssetID      uint64
	TotalAmount  *big.Int
	PerUnit      *big.Int
	PayoutToken  string
	SnapshotTime int64
	CreatedAt    int64
}

func (d *Distribution) Clone() *Distribution {
	if d == nil {
		return nil
	}
	clone := *d
	clone.TotalAmount = cloneBigInt(d.TotalAmount)
	clone.PerUnit = cloneBigInt(d.PerUnit)
	return &clone
}

// NormalizeCountry canonicalises an ISO country code.
func NormalizeCountry(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeToken canonicalises a token symbol.
func NormalizeToken(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
