package rwa

import (
	"fmt"
	"math/big"
)

// IsCountryAllowed reports whether the country is whitelisted.
func (e *Engine) IsCountryAllowed(code string) bool {
	if e.ready() != nil {
		return false
	}
	allowed, err := e.state.RWACountryAllowed(NormalizeCountry(code))
	return err == nil && allowed
}

// IsBlacklisted reports whether the account is barred. Lookup failures are
// treated as barred.
func (e *Engine) IsBlacklisted(account [20]byte) bool {
	if e.ready() != nil {
		return true
	}
	flagged, err := e.state.RWABlacklisted(account)
	return err != nil || flagged
}

// RegisterInvestor records a KYC attestation for an account from a
// whitelisted country. Re-registering refreshes the attestation and keeps the
// cumulative invested amount.
func (e *Engine) RegisterInvestor(account [20]byte, accredited bool, country string, kycExpiry int64) (bool, error) {
	if err := e.mutable(); err != nil {
		return false, err
	}
	if _, err := e.requireAdmin(); err != nil {
		return false, err
	}
	code := NormalizeCountry(country)
	allowed, err := e.state.RWACountryAllowed(code)
	if err != nil {
		return false, err
	}
	if code == "" || !allowed {
		return false, fmt.Errorf("%w: country not whitelisted", ErrComplianceViolation)
	}
	invested := big.NewInt(0)
	existing, ok, err := e.state.RWAGetInvestor(account)
	if err != nil {
		return false, err
	}
	if ok {
		invested = cloneBigInt(existing.TotalInvested)
	}
	investor := &Investor{
		Address:       account,
		Accredited:    accredited,
		KYCVerified:   true,
		KYCExpiry:     kycExpiry,
		Country:       code,
		TotalInvested: invested,
		RegisteredAt:  e.now(),
	}
	if err := e.state.RWAPutInvestor(investor); err != nil {
		return false, err
	}
	e.emit(NewInvestorRegisteredEvent(investor))
	return true, nil
}

// UpdateAccreditation sets the accredited flag of a registered investor. It
// reports false when the investor is unknown.
func (e *Engine) UpdateAccreditation(account [20]byte, accredited bool) (bool, error) {
	if err := e.mutable(); err != nil {
		return false, err
	}
	if _, err := e.requireAdmin(); err != nil {
		return false, err
	}
	investor, ok, err := e.state.RWAGetInvestor(account)
	if err != nil || !ok {
		return false, err
	}
	investor.Accredited = accredited
	if err := e.state.RWAPutInvestor(investor); err != nil {
		return false, err
	}
	e.emit(NewAccreditationUpdatedEvent(account, accredited))
	return true, nil
}

// CheckEligibility evaluates the eligibility predicate without aborting.
func (e *Engine) CheckEligibility(assetID uint64, account [20]byte) bool {
	if e.ready() != nil || e.IsBlacklisted(account) {
		return false
	}
	asset, ok, err := e.state.RWAGetAsset(assetID)
	if err != nil || !ok || !asset.Active {
		return false
	}
	return e.requireCompliant(asset, account) == nil
}

// requireCompliant aborts unless the account holds a current KYC attestation
// satisfying the asset's accreditation requirement.
func (e *Engine) requireCompliant(asset *Asset, account [20]byte) error {
	investor, ok, err := e.state.RWAGetInvestor(account)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, fmtAddr(account))
	}
	if !investor.KYCVerified || investor.KYCExpiry < e.now() {
		return fmt.Errorf("%w: KYC missing or expired", ErrComplianceViolation)
	}
	if asset.AccreditedOnly && !investor.Accredited {
		return fmt.Errorf("%w: accredited investors only", ErrComplianceViolation)
	}
	return nil
}
