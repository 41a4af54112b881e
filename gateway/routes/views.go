package routes

import "rwaledger/native/rwa"

type assetView struct {
	ID                uint64 `json:"id"`
	Name              string `json:"name"`
	Symbol            string `json:"symbol"`
	Class             string `json:"class"`
	TotalSupply       string `json:"totalSupply"`
	CirculatingSupply string `json:"circulatingSupply"`
	Issuer            string `json:"issuer"`
	Custodian         string `json:"custodian"`
	SettlementToken   string `json:"settlementToken"`
	Valuation         string `json:"valuation"`
	TokenPrice        string `json:"tokenPrice,omitempty"`
	CreatedAt         int64  `json:"createdAt"`
	LastValuation     int64  `json:"lastValuation"`
	Active            bool   `json:"active"`
	Transferable      bool   `json:"transferable"`
	MinInvestment     string `json:"minInvestment"`
	AccreditedOnly    bool   `json:"accreditedOnly"`
}

func newAssetView(a *rwa.Asset) assetView {
	return assetView{
		ID:                a.ID,
		Name:              a.Name,
		Symbol:            a.Symbol,
		Class:             a.Class.String(),
		TotalSupply:       amountString(a.TotalSupply),
		CirculatingSupply: amountString(a.CirculatingSupply),
		Issuer:            addrString(a.Issuer),
		Custodian:         addrString(a.Custodian),
		SettlementToken:   a.SettlementToken,
		Valuation:         amountString(a.Valuation),
		CreatedAt:         a.CreatedAt,
		LastValuation:     a.LastValuation,
		Active:            a.Active,
		Transferable:      a.Transferable,
		MinInvestment:     amountString(a.MinInvestment),
		AccreditedOnly:    a.AccreditedOnly,
	}
}

type investorView struct {
	Address       string `json:"address"`
	Accredited    bool   `json:"accredited"`
	KYCVerified   bool   `json:"kycVerified"`
	KYCExpiry     int64  `json:"kycExpiry"`
	Country       string `json:"country"`
	TotalInvested string `json:"totalInvested"`
	RegisteredAt  int64  `json:"registeredAt"`
}

func newInvestorView(i *rwa.Investor) investorView {
	return investorView{
		Address:       addrString(i.Address),
		Accredited:    i.Accredited,
		KYCVerified:   i.KYCVerified,
		KYCExpiry:     i.KYCExpiry,
		Country:       i.Country,
		TotalInvested: amountString(i.TotalInvested),
		RegisteredAt:  i.RegisteredAt,
	}
}

type holdingView struct {
	AssetID       uint64 `json:"assetId"`
	Investor      string `json:"investor"`
	Quantity      string `json:"quantity"`
	PurchasePrice string `json:"purchasePrice"`
	AcquiredAt    int64  `json:"acquiredAt"`
	LockedUntil   int64  `json:"lockedUntil"`
}

func newHoldingView(h *rwa.Holding) holdingView {
	return holdingView{
		AssetID:       h.AssetID,
		Investor:      addrString(h.Investor),
		Quantity:      amountString(h.Quantity),
		PurchasePrice: amountString(h.PurchasePrice),
		AcquiredAt:    h.AcquiredAt,
		LockedUntil:   h.LockedUntil,
	}
}

type distributionView struct {
	ID           uint64 `json:"id"`
	AssetID      uint64 `json:"assetId"`
	TotalAmount  string `json:"totalAmount"`
	PerUnit      string `json:"perUnit"`
	PayoutToken  string `json:"payoutToken"`
	SnapshotTime int64  `json:"snapshotTime"`
	CreatedAt    int64  `json:"createdAt"`
}

func newDistributionView(d *rwa.Distribution) distributionView {
	return distributionView{
		ID:           d.ID,
		AssetID:      d.AssetID,
		TotalAmount:  amountString(d.TotalAmount),
		PerUnit:      amountString(d.PerUnit),
		PayoutToken:  d.PayoutToken,
		SnapshotTime: d.SnapshotTime,
		CreatedAt:    d.CreatedAt,
	}
}
