package exports

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math/big"
	"strconv"
	"time"

	"rwaledger/crypto"
	"rwaledger/native/rwa"
)

// Format names an export encoding.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSONL Format = "jsonl"
)

var csvHeader = []string{"asset_id", "symbol", "investor", "quantity", "ownership_bps", "purchase_price", "acquired_at", "locked_until"}

type row struct {
	AssetID       uint64 `json:"asset_id"`
	Symbol        string `json:"symbol"`
	Investor      string `json:"investor"`
	Quantity      string `json:"quantity"`
	OwnershipBps  string `json:"ownership_bps"`
	PurchasePrice string `json:"purchase_price"`
	AcquiredAt    string `json:"acquired_at"`
	LockedUntil   string `json:"locked_until,omitempty"`
}

// CapTable serialises the holders of asset in the requested format and
// returns the payload alongside its SHA-256 checksum.
func CapTable(format Format, asset *rwa.Asset, holdings []*rwa.Holding) ([]byte, string, error) {
	switch format {
	case FormatCSV:
		return CapTableCSV(asset, holdings)
	case FormatJSONL, "":
		return CapTableJSONL(asset, holdings)
	default:
		return nil, "", errors.New("exports: unsupported format " + string(format))
	}
}

// CapTableCSV builds a CSV export with a header line.
func CapTableCSV(asset *rwa.Asset, holdings []*rwa.Holding) ([]byte, string, error) {
	rows, err := capTableRows(asset, holdings)
	if err != nil {
		return nil, "", err
	}
	buffer := &bytes.Buffer{}
	writer := csv.NewWriter(buffer)
	if err := writer.Write(csvHeader); err != nil {
		return nil, "", err
	}
	for _, r := range rows {
		record := []string{
			strconv.FormatUint(r.AssetID, 10),
			r.Symbol,
			r.Investor,
			r.Quantity,
			r.OwnershipBps,
			r.PurchasePrice,
			r.AcquiredAt,
			r.LockedUntil,
		}
		if err := writer.Write(record); err != nil {
			return nil, "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}
	return withChecksum(buffer.Bytes())
}

// CapTableJSONL builds a JSON Lines export, one holder per line.
func CapTableJSONL(asset *rwa.Asset, holdings []*rwa.Holding) ([]byte, string, error) {
	rows, err := capTableRows(asset, holdings)
	if err != nil {
		return nil, "", err
	}
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	for _, r := range rows {
		if err := encoder.Encode(r); err != nil {
			return nil, "", err
		}
	}
	return withChecksum(buffer.Bytes())
}

func capTableRows(asset *rwa.Asset, holdings []*rwa.Holding) ([]row, error) {
	if asset == nil {
		return nil, errors.New("exports: asset required")
	}
	circulating := asset.CirculatingSupply
	rows := make([]row, 0, len(holdings))
	for _, h := range holdings {
		if h == nil || h.Quantity == nil || h.Quantity.Sign() == 0 {
			continue
		}
		bps := big.NewInt(0)
		if circulating != nil && circulating.Sign() > 0 {
			bps.Mul(h.Quantity, big.NewInt(10_000))
			bps.Quo(bps, circulating)
		}
		r := row{
			AssetID:       asset.ID,
			Symbol:        asset.Symbol,
			Investor:      crypto.FromRaw(h.Investor).String(),
			Quantity:      h.Quantity.String(),
			OwnershipBps:  bps.String(),
			PurchasePrice: amountString(h.PurchasePrice),
			AcquiredAt:    time.Unix(h.AcquiredAt, 0).UTC().Format(time.RFC3339),
		}
		if h.LockedUntil > 0 {
			r.LockedUntil = time.Unix(h.LockedUntil, 0).UTC().Format(time.RFC3339)
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func withChecksum(data []byte) ([]byte, string, error) {
	checksum := sha256.Sum256(data)
	return data, hex.EncodeToString(checksum[:]), nil
}
