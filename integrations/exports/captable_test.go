package exports

import (
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"strings"
	"testing"

	"rwaledger/native/rwa"
)

func sampleAsset() *rwa.Asset {
	return &rwa.Asset{ID: 3, Symbol: "HBT", CirculatingSupply: big.NewInt(400)}
}

func sampleHolding(fill byte, qty int64) *rwa.Holding {
	var addr [20]byte
	addr[19] = fill
	return &rwa.Holding{
		AssetID:       3,
		Investor:      addr,
		Quantity:      big.NewInt(qty),
		PurchasePrice: big.NewInt(100),
		AcquiredAt:    1_700_000_000,
	}
}

func TestCapTableCSV(t *testing.T) {
	holdings := []*rwa.Holding{sampleHolding(1, 300), sampleHolding(2, 100), sampleHolding(3, 0)}
	data, checksum, err := CapTableCSV(sampleAsset(), holdings)
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	sum := sha256.Sum256(data)
	if checksum != hex.EncodeToString(sum[:]) {
		t.Fatalf("checksum mismatch")
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and two holders, got %d lines:\n%s", len(lines), data)
	}
	if lines[0] != strings.Join(csvHeader, ",") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.Contains(lines[1], ",300,7500,100,2023-11-14T22:13:20Z,") {
		t.Fatalf("unexpected first row %q", lines[1])
	}
	if !strings.HasPrefix(strings.Split(lines[1], ",")[2], "rwa1") {
		t.Fatalf("expected bech32 investor in %q", lines[1])
	}
}

func TestCapTableJSONL(t *testing.T) {
	locked := sampleHolding(1, 400)
	locked.LockedUntil = 1_800_000_000
	data, checksum, err := CapTable(FormatJSONL, sampleAsset(), []*rwa.Holding{locked})
	if err != nil {
		t.Fatalf("jsonl: %v", err)
	}
	if checksum == "" {
		t.Fatalf("expected checksum")
	}
	output := string(data)
	if !strings.Contains(output, "\"ownership_bps\":\"10000\"") {
		t.Fatalf("unexpected payload: %s", output)
	}
	if !strings.Contains(output, "\"locked_until\":\"2027-01-15T08:00:00Z\"") {
		t.Fatalf("missing lock: %s", output)
	}
}

func TestCapTableRejectsUnknownFormat(t *testing.T) {
	if _, _, err := CapTable("parquet", sampleAsset(), nil); err == nil {
		t.Fatalf("expected error")
	}
	if _, _, err := CapTable(FormatCSV, nil, nil); err == nil {
		t.Fatalf("expected error for missing asset")
	}
}
