package genesis

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"rwaledger/core/state"
	"rwaledger/crypto"
	"rwaledger/native/bank"
	"rwaledger/native/rwa"
	"rwaledger/storage"
)

func testAddress(fill byte) [20]byte {
	var addr [20]byte
	copy(addr[:], bytes.Repeat([]byte{fill}, 20))
	return addr
}

func bech(addr [20]byte) string { return crypto.FromRaw(addr).String() }

var (
	adminAddr     = testAddress(0xA1)
	custodianAddr = testAddress(0xC1)
	aliceAddr     = testAddress(0x11)
	mallory       = testAddress(0x66)
)

func sampleYAML() string {
	return fmt.Sprintf(`admin: %s
countries: [us, gb]
blacklist: [%s]
alloc:
  %s:
    usdc: "5000000"
    prop: "0"
assets:
  - name: Harbour Tower
    symbol: hbt
    class: real_estate
    totalSupply: "1000000"
    valuation: "10000000"
    custodian: %s
    settlementToken: prop
    minInvestment: "100"
investors:
  - address: %s
    country: us
    accredited: true
    kycExpiry: 1900000000
`, bech(adminAddr), bech(mallory), bech(aliceAddr), bech(custodianAddr), bech(aliceAddr))
}

func mustNoErr(t *testing.T, what string, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", what, err)
	}
}

func newApplyTarget(spec *GenesisSpec, db storage.Database) (*state.Tx, *rwa.Engine, *bank.Ledger) {
	tx := state.Begin(db)
	manager := state.NewManager(tx)
	ledger := bank.NewLedger(manager)
	engine := rwa.NewEngine()
	engine.SetState(manager)
	engine.SetTokens(ledger)
	engine.SetAuthorizer(rwa.Caller(spec.AdminAccount()))
	engine.SetNowFunc(func() int64 { return 1_700_000_000 })
	return tx, engine, ledger
}

func TestParseGenesisSpecYAML(t *testing.T) {
	spec, err := ParseGenesisSpec([]byte(sampleYAML()))
	mustNoErr(t, "parse", err)
	if spec.AdminAccount() != adminAddr {
		t.Fatalf("unexpected admin %x", spec.AdminAccount())
	}
	// zero allocations are skipped
	if len(spec.allocs) != 1 || spec.allocs[0].token != "USDC" {
		t.Fatalf("unexpected allocations: %+v", spec.allocs)
	}
	params := spec.Assets[0].params
	if params.Class != rwa.AssetClassRealEstate {
		t.Fatalf("class: got %v", params.Class)
	}
	if params.TotalSupply.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("total supply: got %s", params.TotalSupply)
	}
}

func TestParseGenesisSpecJSON(t *testing.T) {
	raw := fmt.Sprintf(`{"admin":%q,"countries":["DE"]}`, bech(adminAddr))
	spec, err := ParseGenesisSpec([]byte(raw))
	mustNoErr(t, "parse", err)
	if len(spec.Countries) != 1 || spec.Countries[0] != "DE" {
		t.Fatalf("countries: %v", spec.Countries)
	}
}

func TestParseGenesisSpecRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"missing admin":   `countries: [US]`,
		"bad blacklist":   fmt.Sprintf("admin: %s\nblacklist: [nope]", bech(adminAddr)),
		"negative alloc":  fmt.Sprintf("admin: %s\nalloc:\n  %s:\n    usdc: \"-1\"", bech(adminAddr), bech(aliceAddr)),
		"unknown class":   fmt.Sprintf("admin: %s\nassets:\n  - class: spaceship\n    custodian: %s", bech(adminAddr), bech(custodianAddr)),
		"empty country":   fmt.Sprintf("admin: %s\ncountries: [\"  \"]", bech(adminAddr)),
		"garbage amounts": fmt.Sprintf("admin: %s\nassets:\n  - class: other\n    totalSupply: lots\n    custodian: %s", bech(adminAddr), bech(custodianAddr)),
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseGenesisSpec([]byte(raw)); err == nil {
				t.Fatalf("expected parse error")
			}
		})
	}
}

func TestLoadGenesisSpec(t *testing.T) {
	if _, err := LoadGenesisSpec(""); err == nil {
		t.Fatalf("expected error for empty path")
	}

	path := filepath.Join(t.TempDir(), "genesis.yaml")
	mustNoErr(t, "write", os.WriteFile(path, []byte(sampleYAML()), 0o600))
	spec, err := LoadGenesisSpec(path)
	mustNoErr(t, "load", err)
	if len(spec.Investors) != 1 {
		t.Fatalf("investors: got %d", len(spec.Investors))
	}
}

func TestApplySeedsLedger(t *testing.T) {
	spec, err := ParseGenesisSpec([]byte(sampleYAML()))
	mustNoErr(t, "parse", err)

	db := storage.NewMemDB()
	tx, engine, ledger := newApplyTarget(spec, db)
	mustNoErr(t, "apply", Apply(spec, engine, ledger))
	mustNoErr(t, "commit", tx.Commit())

	check := state.NewManager(state.Begin(db))
	admin, ok, err := check.RWAAdmin()
	if err != nil || !ok || admin != adminAddr {
		t.Fatalf("admin: %x ok=%v err=%v", admin, ok, err)
	}

	allowed, err := check.RWACountryAllowed("GB")
	if err != nil || !allowed {
		t.Fatalf("GB not whitelisted: %v", err)
	}
	barred, err := check.RWABlacklisted(mallory)
	if err != nil || !barred {
		t.Fatalf("blacklist not seeded: %v", err)
	}

	count, err := check.RWAAssetCount()
	mustNoErr(t, "asset count", err)
	if count != 1 {
		t.Fatalf("asset count: got %d", count)
	}

	balance, err := bank.NewLedger(check).Balance("USDC", aliceAddr)
	mustNoErr(t, "balance", err)
	if balance.Cmp(big.NewInt(5_000_000)) != 0 {
		t.Fatalf("alice balance: got %s", balance)
	}

	investor, ok, err := check.RWAGetInvestor(aliceAddr)
	if err != nil || !ok {
		t.Fatalf("investor: ok=%v err=%v", ok, err)
	}
	if !investor.Accredited || investor.Country != "US" {
		t.Fatalf("unexpected investor: %+v", investor)
	}
}

func TestApplyRejectsSecondRun(t *testing.T) {
	spec, err := ParseGenesisSpec([]byte(sampleYAML()))
	mustNoErr(t, "parse", err)
	_, engine, ledger := newApplyTarget(spec, storage.NewMemDB())

	mustNoErr(t, "first apply", Apply(spec, engine, ledger))
	if err := Apply(spec, engine, ledger); !errors.Is(err, rwa.ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}
	if err := Apply(nil, engine, ledger); err == nil {
		t.Fatalf("expected error for nil spec")
	}
}
