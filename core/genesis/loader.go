// core/genesis/loader.go
package genesis

import (
	"fmt"

	"rwaledger/native/bank"
	"rwaledger/native/rwa"
)

// Apply seeds the ledger through the regular engine operations. The engine must
// be authorized as the genesis admin.
func Apply(spec *GenesisSpec, engine *rwa.Engine, ledger *bank.Ledger) error {
	if spec == nil {
		return fmt.Errorf("genesis spec must not be nil")
	}
	if engine == nil || ledger == nil {
		return fmt.Errorf("genesis: engine and bank required")
	}
	if err := engine.Initialize(spec.admin); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	for _, code := range spec.Countries {
		if err := engine.WhitelistCountry(code, true); err != nil {
			return fmt.Errorf("whitelist %s: %w", code, err)
		}
	}
	for _, addr := range spec.blacklist {
		if err := engine.BlacklistAddress(addr, true); err != nil {
			return fmt.Errorf("blacklist: %w", err)
		}
	}
	for _, alloc := range spec.allocs {
		if err := ledger.Mint(alloc.token, alloc.addr, alloc.amount); err != nil {
			return fmt.Errorf("alloc %s: %w", alloc.token, err)
		}
	}
	for _, asset := range spec.Assets {
		if _, err := engine.CreateAsset(asset.params); err != nil {
			return fmt.Errorf("asset %s: %w", asset.Symbol, err)
		}
	}
	for _, inv := range spec.Investors {
		if _, err := engine.RegisterInvestor(inv.addr, inv.Accredited, inv.Country, inv.KYCExpiry); err != nil {
			return fmt.Errorf("investor %s: %w", inv.Address, err)
		}
	}
	return nil
}
