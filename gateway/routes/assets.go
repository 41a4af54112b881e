package routes

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rwaledger/core"
	"rwaledger/gateway/middleware"
	"rwaledger/integrations/exports"
	"rwaledger/native/rwa"
)

type createAssetRequest struct {
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	Class           string `json:"class"`
	TotalSupply     string `json:"totalSupply"`
	Valuation       string `json:"valuation"`
	Custodian       string `json:"custodian"`
	SettlementToken string `json:"settlementToken"`
	MinInvestment   string `json:"minInvestment"`
	AccreditedOnly  bool   `json:"accreditedOnly"`
}

func (req createAssetRequest) params() (rwa.AssetParams, error) {
	class, err := rwa.ParseAssetClass(req.Class)
	if err != nil {
		return rwa.AssetParams{}, err
	}
	supply, err := parseAmount(req.TotalSupply, "totalSupply")
	if err != nil {
		return rwa.AssetParams{}, err
	}
	valuation, err := parseAmount(req.Valuation, "valuation")
	if err != nil {
		return rwa.AssetParams{}, err
	}
	minimum, err := parseAmount(req.MinInvestment, "minInvestment")
	if err != nil {
		return rwa.AssetParams{}, err
	}
	custodian, err := parseAccount(req.Custodian, "custodian")
	if err != nil {
		return rwa.AssetParams{}, err
	}
	return rwa.AssetParams{
		Name:            req.Name,
		Symbol:          req.Symbol,
		Class:           class,
		TotalSupply:     supply,
		Valuation:       valuation,
		Custodian:       custodian,
		SettlementToken: req.SettlementToken,
		MinInvestment:   minimum,
		AccreditedOnly:  req.AccreditedOnly,
	}, nil
}

type valuationRequest struct {
	Valuation string `json:"valuation"`
}

type transferableRequest struct {
	Transferable bool `json:"transferable"`
}

type investRequest struct {
	Amount        string `json:"amount"`
	PaymentToken  string `json:"paymentToken"`
	PaymentAmount string `json:"paymentAmount"`
}

type transferRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func (h *handlers) mountAssets(r chi.Router) {
	r.Get("/assets", h.listAssets)
	r.Get("/assets/{assetID}", h.getAsset)
	r.Get("/assets/{assetID}/holders", h.getHolders)
	r.Get("/assets/{assetID}/holders/export", h.exportHolders)
	r.Get("/assets/{assetID}/holdings/{account}", h.getHolding)
	r.Get("/assets/{assetID}/eligibility/{account}", h.getEligibility)

	r.Post("/assets", h.createAsset)
	r.Post("/assets/{assetID}/valuation", h.updateValuation)
	r.Post("/assets/{assetID}/transferable", h.setTransferable)
	r.Post("/assets/{assetID}/invest", h.invest)
	r.Post("/assets/{assetID}/transfer", h.transfer)
}

func (h *handlers) listAssets(w http.ResponseWriter, r *http.Request) {
	var out []assetView
	err := h.ledger.View(r.Context(), func(c *core.Call) error {
		count, err := c.Engine.AssetCount()
		if err != nil {
			return err
		}
		out = make([]assetView, 0, count)
		for id := uint64(1); id <= count; id++ {
			asset, err := c.Engine.Asset(id)
			if err != nil {
				return err
			}
			view := newAssetView(asset)
			view.TokenPrice = amountString(c.Engine.TokenPrice(id))
			out = append(out, view)
		}
		return nil
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"assets": out})
}

func (h *handlers) getAsset(w http.ResponseWriter, r *http.Request) {
	assetID, err := uintParam(r, "assetID")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var view assetView
	err = h.ledger.View(r.Context(), func(c *core.Call) error {
		asset, err := c.Engine.Asset(assetID)
		if err != nil {
			return err
		}
		view = newAssetView(asset)
		view.TokenPrice = amountString(c.Engine.TokenPrice(assetID))
		return nil
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handlers) getHolders(w http.ResponseWriter, r *http.Request) {
	assetID, err := uintParam(r, "assetID")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var out []holdingView
	err = h.ledger.View(r.Context(), func(c *core.Call) error {
		holdings, err := c.Engine.AssetHolders(assetID)
		if err != nil {
			return err
		}
		out = make([]holdingView, 0, len(holdings))
		for _, holding := range holdings {
			out = append(out, newHoldingView(holding))
		}
		return nil
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"holders": out})
}

func (h *handlers) exportHolders(w http.ResponseWriter, r *http.Request) {
	assetID, err := uintParam(r, "assetID")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	format := exports.Format(r.URL.Query().Get("format"))
	var (
		data     []byte
		checksum string
	)
	err = h.ledger.View(r.Context(), func(c *core.Call) error {
		asset, err := c.Engine.Asset(assetID)
		if err != nil {
			return err
		}
		holdings, err := c.Engine.AssetHolders(assetID)
		if err != nil {
			return err
		}
		data, checksum, err = exports.CapTable(format, asset, holdings)
		if err != nil {
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return nil
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	contentType := "application/x-ndjson"
	if format == exports.FormatCSV {
		contentType = "text/csv"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Checksum-SHA256", checksum)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *handlers) getHolding(w http.ResponseWriter, r *http.Request) {
	assetID, err := uintParam(r, "assetID")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	account, err := accountParam(r, "account")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var view holdingView
	err = h.ledger.View(r.Context(), func(c *core.Call) error {
		holding, err := c.Engine.Holding(assetID, account)
		if err != nil {
			return err
		}
		view = newHoldingView(holding)
		return nil
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handlers) getEligibility(w http.ResponseWriter, r *http.Request) {
	assetID, err := uintParam(r, "assetID")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	account, err := accountParam(r, "account")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var eligible bool
	_ = h.ledger.View(r.Context(), func(c *core.Call) error {
		eligible = c.Engine.CheckEligibility(assetID, account)
		return nil
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{"assetId": assetID, "account": addrString(account), "eligible": eligible})
}

func (h *handlers) createAsset(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.CallerFromContext(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	var req createAssetRequest
	if err := decodeBody(r, &req); err != nil {
		writeLedgerError(w, err)
		return
	}
	params, err := req.params()
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	id, err := h.ledger.CreateAsset(r.Context(), caller, params)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uint64{"id": id})
}

func (h *handlers) updateValuation(w http.ResponseWriter, r *http.Request) {
	caller, assetID, err := h.assetCall(r)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	var req valuationRequest
	if err := decodeBody(r, &req); err != nil {
		writeLedgerError(w, err)
		return
	}
	valuation, err := parseAmount(req.Valuation, "valuation")
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	updated, err := h.ledger.UpdateValuation(r.Context(), caller, assetID, valuation)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"updated": updated})
}

func (h *handlers) setTransferable(w http.ResponseWriter, r *http.Request) {
	caller, assetID, err := h.assetCall(r)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	var req transferableRequest
	if err := decodeBody(r, &req); err != nil {
		writeLedgerError(w, err)
		return
	}
	updated, err := h.ledger.SetAssetTransferable(r.Context(), caller, assetID, req.Transferable)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"updated": updated})
}

func (h *handlers) invest(w http.ResponseWriter, r *http.Request) {
	caller, assetID, err := h.assetCall(r)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	var req investRequest
	if err := decodeBody(r, &req); err != nil {
		writeLedgerError(w, err)
		return
	}
	amount, err := parseAmount(req.Amount, "amount")
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	payment, err := parseAmount(req.PaymentAmount, "paymentAmount")
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	ok, err := h.ledger.Invest(r.Context(), caller, assetID, amount, req.PaymentToken, payment)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": ok})
}

func (h *handlers) transfer(w http.ResponseWriter, r *http.Request) {
	caller, assetID, err := h.assetCall(r)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	var req transferRequest
	if err := decodeBody(r, &req); err != nil {
		writeLedgerError(w, err)
		return
	}
	to, err := parseAccount(req.To, "to")
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	amount, err := parseAmount(req.Amount, "amount")
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	ok, err := h.ledger.Transfer(r.Context(), caller, assetID, to, amount)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": ok})
}

// assetCall resolves the authenticated caller and the asset path parameter.
func (h *handlers) assetCall(r *http.Request) ([20]byte, uint64, error) {
	caller, err := middleware.CallerFromContext(r.Context())
	if err != nil {
		return caller, 0, err
	}
	assetID, err := uintParam(r, "assetID")
	return caller, assetID, err
}
