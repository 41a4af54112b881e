package state

import (
	"bytes"
	"errors"
	"math/big"
	"reflect"
	"testing"

	"rwaledger/native/rwa"
	"rwaledger/storage"
)

func testAddr(fill byte) [20]byte {
	var out [20]byte
	for i := range out {
		out[i] = fill
	}
	return out
}

func mustNoErr(t *testing.T, what string, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", what, err)
	}
}

func TestTxOverlayCommitAndDiscard(t *testing.T) {
	db := storage.NewMemDB()
	defer db.Close()
	mustNoErr(t, "seed", db.Put([]byte("keep"), []byte("v0")))

	tx := Begin(db)
	mustNoErr(t, "put", tx.Put([]byte("a"), []byte("1")))
	mustNoErr(t, "delete", tx.Delete([]byte("keep")))
	got, err := tx.Get([]byte("a"))
	mustNoErr(t, "get a", err)
	if !bytes.Equal(got, []byte("1")) {
		t.Fatalf("overlay read: got %q", got)
	}
	got, err = tx.Get([]byte("keep"))
	mustNoErr(t, "get keep", err)
	if got != nil {
		t.Fatalf("deleted key still visible: %q", got)
	}

	// Nothing reaches the database before commit.
	if _, err := db.Get([]byte("a")); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("uncommitted write leaked: %v", err)
	}

	tx.Discard()
	if _, err := tx.Get([]byte("a")); err == nil {
		t.Fatalf("expected error reading a discarded tx")
	}
	value, err := db.Get([]byte("keep"))
	mustNoErr(t, "get keep after discard", err)
	if !bytes.Equal(value, []byte("v0")) {
		t.Fatalf("discard changed stored value: %q", value)
	}

	tx = Begin(db)
	mustNoErr(t, "put", tx.Put([]byte("a"), []byte("1")))
	mustNoErr(t, "delete", tx.Delete([]byte("keep")))
	if dirty := tx.Dirty(); dirty != 2 {
		t.Fatalf("dirty: got %d want 2", dirty)
	}
	mustNoErr(t, "commit", tx.Commit())
	if err := tx.Commit(); err == nil {
		t.Fatalf("expected second commit to fail")
	}

	value, err = db.Get([]byte("a"))
	mustNoErr(t, "get a after commit", err)
	if !bytes.Equal(value, []byte("1")) {
		t.Fatalf("committed value: got %q", value)
	}
	has, err := db.Has([]byte("keep"))
	mustNoErr(t, "has keep", err)
	if has {
		t.Fatalf("committed delete not applied")
	}
}

func TestKVAppendDeduplicates(t *testing.T) {
	db := storage.NewMemDB()
	defer db.Close()
	mgr := NewManager(Begin(db))

	var empty [][]byte
	mustNoErr(t, "empty list", mgr.KVGetList([]byte("index"), &empty))
	if len(empty) != 0 {
		t.Fatalf("expected empty list, got %v", empty)
	}

	mustNoErr(t, "append 1", mgr.KVAppend([]byte("index"), []byte{1}))
	mustNoErr(t, "append 2", mgr.KVAppend([]byte("index"), []byte{2}))
	mustNoErr(t, "append 1 again", mgr.KVAppend([]byte("index"), []byte{1}))
	var list [][]byte
	mustNoErr(t, "list", mgr.KVGetList([]byte("index"), &list))
	if !reflect.DeepEqual(list, [][]byte{{1}, {2}}) {
		t.Fatalf("unexpected index: %v", list)
	}

	if err := mgr.KVPut(nil, uint64(1)); !errors.Is(err, ErrEmptyKey) {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
}

func TestRWARecordsRoundTrip(t *testing.T) {
	db := storage.NewMemDB()
	defer db.Close()
	tx := Begin(db)
	mgr := NewManager(tx)

	asset := &rwa.Asset{
		ID:                3,
		Name:              "Vineyard",
		Symbol:            "VIN",
		Class:             rwa.AssetClassCommodity,
		TotalSupply:       big.NewInt(1_000),
		CirculatingSupply: big.NewInt(10),
		Issuer:            testAddr(1),
		Custodian:         testAddr(2),
		SettlementToken:   "VIN",
		Valuation:         big.NewInt(99_000),
		CreatedAt:         1_700_000_000,
		LastValuation:     1_700_000_500,
		Active:            true,
		MinInvestment:     big.NewInt(5),
		AccreditedOnly:    true,
	}
	mustNoErr(t, "put asset", mgr.RWAPutAsset(asset))
	mustNoErr(t, "put holding", mgr.RWAPutHolding(&rwa.Holding{
		AssetID:       3,
		Investor:      testAddr(7),
		Quantity:      big.NewInt(10),
		PurchasePrice: big.NewInt(99),
		AcquiredAt:    1_700_000_100,
		LockedUntil:   -1,
	}))
	mustNoErr(t, "put distribution", mgr.RWAPutDistribution(&rwa.Distribution{ID: 1, AssetID: 3, TotalAmount: big.NewInt(50), PerUnit: big.NewInt(5), PayoutToken: "USDC"}))
	mustNoErr(t, "put tvl", mgr.RWAPutTotalValueLocked(big.NewInt(-42)))
	mustNoErr(t, "commit", tx.Commit())

	reader := NewManager(Begin(db))
	loaded, ok, err := reader.RWAGetAsset(3)
	if err != nil || !ok {
		t.Fatalf("get asset: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(asset, loaded) {
		t.Fatalf("asset mismatch:\n got %+v\nwant %+v", loaded, asset)
	}

	holding, ok, err := reader.RWAGetHolding(3, testAddr(7))
	if err != nil || !ok {
		t.Fatalf("get holding: ok=%v err=%v", ok, err)
	}
	if holding.LockedUntil != -1 {
		t.Fatalf("locked until: got %d", holding.LockedUntil)
	}
	holders, err := reader.RWAAssetHolders(3)
	mustNoErr(t, "holders", err)
	if len(holders) != 1 || holders[0] != testAddr(7) {
		t.Fatalf("unexpected holders: %x", holders)
	}

	dists, err := reader.RWAAssetDistributions(3)
	mustNoErr(t, "distributions", err)
	if len(dists) != 1 || dists[0] != 1 {
		t.Fatalf("unexpected distributions: %v", dists)
	}

	tvl, err := reader.RWATotalValueLocked()
	mustNoErr(t, "tvl", err)
	if tvl.String() != "-42" {
		t.Fatalf("tvl: got %s", tvl)
	}

	_, ok, err = reader.RWAGetAsset(4)
	mustNoErr(t, "get absent asset", err)
	if ok {
		t.Fatalf("absent asset reported present")
	}
}

func TestRWARejectsNegativeAmounts(t *testing.T) {
	mgr := NewManager(Begin(storage.NewMemDB()))
	if err := mgr.RWAPutHolding(&rwa.Holding{AssetID: 1, Quantity: big.NewInt(-1)}); err == nil {
		t.Fatalf("expected negative quantity to be rejected")
	}
}

func TestComplianceFlagsClearOnFalse(t *testing.T) {
	mgr := NewManager(Begin(storage.NewMemDB()))
	check := func(wantAllowed, wantFlagged bool) {
		t.Helper()
		allowed, err := mgr.RWACountryAllowed("US")
		mustNoErr(t, "country", err)
		flagged, err := mgr.RWABlacklisted(testAddr(9))
		mustNoErr(t, "blacklist", err)
		if allowed != wantAllowed || flagged != wantFlagged {
			t.Fatalf("allowed=%v flagged=%v, want %v %v", allowed, flagged, wantAllowed, wantFlagged)
		}
	}

	mustNoErr(t, "allow", mgr.RWASetCountryAllowed("US", true))
	mustNoErr(t, "blacklist", mgr.RWASetBlacklisted(testAddr(9), true))
	check(true, true)

	mustNoErr(t, "disallow", mgr.RWASetCountryAllowed("US", false))
	mustNoErr(t, "unblacklist", mgr.RWASetBlacklisted(testAddr(9), false))
	check(false, false)
}

func TestEnsureStateVersion(t *testing.T) {
	db := storage.NewMemDB()
	defer db.Close()

	mustNoErr(t, "first open", EnsureStateVersion(db, false))
	mustNoErr(t, "second open", EnsureStateVersion(db, false))

	tx := Begin(db)
	mustNoErr(t, "bump version", NewManager(tx).SetStateVersion(StateVersion+1))
	mustNoErr(t, "commit", tx.Commit())

	if err := EnsureStateVersion(db, false); !errors.Is(err, ErrStateVersionMismatch) {
		t.Fatalf("expected ErrStateVersionMismatch, got %v", err)
	}
	mustNoErr(t, "override", EnsureStateVersion(db, true))
}

func TestBalancesAndSupply(t *testing.T) {
	mgr := NewManager(Begin(storage.NewMemDB()))
	mustNoErr(t, "set balance", mgr.SetBalance("usdc", testAddr(1), big.NewInt(10)))
	bal, err := mgr.Balance("USDC", testAddr(1))
	mustNoErr(t, "balance", err)
	if bal.String() != "10" {
		t.Fatalf("balance: got %s", bal)
	}
	if err := mgr.SetBalance("USDC", testAddr(1), big.NewInt(-1)); err == nil {
		t.Fatalf("expected negative balance to be rejected")
	}

	total, err := mgr.AdjustTokenSupply("usdc", big.NewInt(10))
	mustNoErr(t, "adjust supply", err)
	if total.String() != "10" {
		t.Fatalf("supply: got %s", total)
	}
	if _, err := mgr.AdjustTokenSupply("USDC", big.NewInt(-11)); err == nil {
		t.Fatalf("expected supply underflow to fail")
	}
	tokens, err := mgr.Tokens()
	mustNoErr(t, "tokens", err)
	if len(tokens) != 1 || tokens[0] != "USDC" {
		t.Fatalf("tokens: %v", tokens)
	}

	mustNoErr(t, "set sequence", mgr.SetEventSequence(12))
	seq, err := mgr.EventSequence()
	mustNoErr(t, "sequence", err)
	if seq != 12 {
		t.Fatalf("sequence: got %d", seq)
	}
}
