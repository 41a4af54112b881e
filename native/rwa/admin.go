package rwa

import (
	"fmt"
	"math/big"
)

// Initialize records the first admin. The admin must authorize the call.
func (e *Engine) Initialize(admin [20]byte) error {
	if err := e.mutable(); err != nil {
		return err
	}
	_, ok, err := e.state.RWAAdmin()
	if err != nil {
		return err
	}
	if ok {
		return ErrAlreadyInitialized
	}
	if err := e.requireCaller(admin); err != nil {
		return err
	}
	if err := e.state.RWAPutAdmin(admin); err != nil {
		return err
	}
	if err := e.state.RWASetAssetCount(0); err != nil {
		return err
	}
	if err := e.state.RWASetDistributionCount(0); err != nil {
		return err
	}
	if err := e.state.RWAPutTotalValueLocked(big.NewInt(0)); err != nil {
		return err
	}
	e.emit(NewInitializedEvent(admin))
	return nil
}

// SetAdmin hands administration to a new account.
func (e *Engine) SetAdmin(newAdmin [20]byte) error {
	if err := e.mutable(); err != nil {
		return err
	}
	current, err := e.requireAdmin()
	if err != nil {
		return err
	}
	if newAdmin == ([20]byte{}) {
		return fmt.Errorf("%w: admin must not be the zero address", ErrInvalidArgument)
	}
	if err := e.state.RWAPutAdmin(newAdmin); err != nil {
		return err
	}
	e.emit(NewAdminUpdatedEvent(current, newAdmin))
	return nil
}

// WhitelistCountry toggles whether investors from the country may register.
func (e *Engine) WhitelistCountry(code string, allowed bool) error {
	if err := e.mutable(); err != nil {
		return err
	}
	if _, err := e.requireAdmin(); err != nil {
		return err
	}
	normalized := NormalizeCountry(code)
	if normalized == "" {
		return fmt.Errorf("%w: country code required", ErrInvalidArgument)
	}
	if err := e.state.RWASetCountryAllowed(normalized, allowed); err != nil {
		return err
	}
	e.emit(NewCountryWhitelistedEvent(normalized, allowed))
	return nil
}

// BlacklistAddress flags or clears an account.
func (e *Engine) BlacklistAddress(account [20]byte, flag bool) error {
	if err := e.mutable(); err != nil {
		return err
	}
	if _, err := e.requireAdmin(); err != nil {
		return err
	}
	if err := e.state.RWASetBlacklisted(account, flag); err != nil {
		return err
	}
	e.emit(NewAddressBlacklistedEvent(account, flag))
	return nil
}
