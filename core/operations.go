package core

import (
	"context"
	"fmt"
	"math/big"

	"rwaledger/core/genesis"
	"rwaledger/native/rwa"
)

// ApplyGenesis seeds an empty ledger from spec. It reports false when the
// ledger already holds state.
func (l *Ledger) ApplyGenesis(ctx context.Context, spec *genesis.GenesisSpec) (bool, error) {
	if spec == nil {
		return false, nil
	}
	return l.Bootstrap(ctx, spec.AdminAccount(), func(c *Call) error {
		return genesis.Apply(spec, c.Engine, c.Bank)
	})
}

func (l *Ledger) Initialize(ctx context.Context, caller, admin [20]byte) error {
	return l.Execute(ctx, caller, "initialize", func(c *Call) error {
		return c.Engine.Initialize(admin)
	})
}

func (l *Ledger) SetAdmin(ctx context.Context, caller, admin [20]byte) error {
	return l.Execute(ctx, caller, "set_admin", func(c *Call) error {
		return c.Engine.SetAdmin(admin)
	})
}

func (l *Ledger) WhitelistCountry(ctx context.Context, caller [20]byte, code string, allowed bool) error {
	return l.Execute(ctx, caller, "whitelist_country", func(c *Call) error {
		return c.Engine.WhitelistCountry(code, allowed)
	})
}

func (l *Ledger) BlacklistAddress(ctx context.Context, caller, account [20]byte, flag bool) error {
	return l.Execute(ctx, caller, "blacklist_address", func(c *Call) error {
		return c.Engine.BlacklistAddress(account, flag)
	})
}

func (l *Ledger) CreateAsset(ctx context.Context, caller [20]byte, params rwa.AssetParams) (uint64, error) {
	var id uint64
	err := l.Execute(ctx, caller, "create_asset", func(c *Call) error {
		var err error
		id, err = c.Engine.CreateAsset(params)
		return err
	})
	return id, err
}

func (l *Ledger) UpdateValuation(ctx context.Context, caller [20]byte, assetID uint64, valuation *big.Int) (bool, error) {
	var ok bool
	err := l.Execute(ctx, caller, "update_valuation", func(c *Call) error {
		var err error
		ok, err = c.Engine.UpdateValuation(assetID, valuation)
		return err
	})
	return ok, err
}

func (l *Ledger) SetAssetTransferable(ctx context.Context, caller [20]byte, assetID uint64, transferable bool) (bool, error) {
	var ok bool
	err := l.Execute(ctx, caller, "set_asset_transferable", func(c *Call) error {
		var err error
		ok, err = c.Engine.SetAssetTransferable(assetID, transferable)
		return err
	})
	return ok, err
}

func (l *Ledger) RegisterInvestor(ctx context.Context, caller, account [20]byte, accredited bool, country string, kycExpiry int64) (bool, error) {
	var ok bool
	err := l.Execute(ctx, caller, "register_investor", func(c *Call) error {
		var err error
		ok, err = c.Engine.RegisterInvestor(account, accredited, country, kycExpiry)
		return err
	})
	return ok, err
}

func (l *Ledger) UpdateAccreditation(ctx context.Context, caller, account [20]byte, accredited bool) (bool, error) {
	var ok bool
	err := l.Execute(ctx, caller, "update_accreditation", func(c *Call) error {
		var err error
		ok, err = c.Engine.UpdateAccreditation(account, accredited)
		return err
	})
	return ok, err
}

// Invest buys units on behalf of the caller.
func (l *Ledger) Invest(ctx context.Context, caller [20]byte, assetID uint64, amount *big.Int, paymentToken string, paymentAmount *big.Int) (bool, error) {
	var ok bool
	err := l.Execute(ctx, caller, "invest", func(c *Call) error {
		var err error
		ok, err = c.Engine.Invest(assetID, caller, amount, paymentToken, paymentAmount)
		return err
	})
	return ok, err
}

// Transfer moves units from the caller to another investor.
func (l *Ledger) Transfer(ctx context.Context, caller [20]byte, assetID uint64, to [20]byte, amount *big.Int) (bool, error) {
	var ok bool
	err := l.Execute(ctx, caller, "transfer", func(c *Call) error {
		var err error
		ok, err = c.Engine.Transfer(assetID, caller, to, amount)
		return err
	})
	return ok, err
}

func (l *Ledger) CreateDistribution(ctx context.Context, caller [20]byte, assetID uint64, total *big.Int, payoutToken string) (uint64, error) {
	var id uint64
	err := l.Execute(ctx, caller, "create_distribution", func(c *Call) error {
		var err error
		id, err = c.Engine.CreateDistribution(assetID, total, payoutToken)
		return err
	})
	return id, err
}

// ClaimDistribution pays the caller's share of a distribution.
func (l *Ledger) ClaimDistribution(ctx context.Context, caller [20]byte, distributionID uint64) (*big.Int, error) {
	var payout *big.Int
	err := l.Execute(ctx, caller, "claim_distribution", func(c *Call) error {
		var err error
		payout, err = c.Engine.ClaimDistribution(distributionID, caller)
		return err
	})
	return payout, err
}

// Mint credits fungible tokens. Restricted to the module admin.
func (l *Ledger) Mint(ctx context.Context, caller [20]byte, token string, to [20]byte, amount *big.Int) error {
	return l.Execute(ctx, caller, "mint", func(c *Call) error {
		admin, err := c.Engine.Admin()
		if err != nil {
			return err
		}
		if admin != caller {
			return fmt.Errorf("%w: mint restricted to admin", rwa.ErrUnauthorized)
		}
		return c.Bank.Mint(token, to, amount)
	})
}

// Balance returns the fungible token balance of an account.
func (l *Ledger) Balance(ctx context.Context, token string, account [20]byte) (*big.Int, error) {
	var balance *big.Int
	err := l.View(ctx, func(c *Call) error {
		var err error
		balance, err = c.Bank.Balance(token, account)
		return err
	})
	return balance, err
}
