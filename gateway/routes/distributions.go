package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"rwaledger/core"
	"rwaledger/gateway/middleware"
)

type createDistributionRequest struct {
	TotalAmount string `json:"totalAmount"`
	PayoutToken string `json:"payoutToken"`
}

func (h *handlers) mountDistributions(r chi.Router) {
	r.Get("/assets/{assetID}/distributions", h.listDistributions)
	r.Post("/assets/{assetID}/distributions", h.createDistribution)
	r.Get("/distributions/{distributionID}", h.getDistribution)
	r.Get("/distributions/{distributionID}/claims/{account}", h.getClaimed)
	r.Post("/distributions/{distributionID}/claim", h.claimDistribution)
}

func (h *handlers) listDistributions(w http.ResponseWriter, r *http.Request) {
	assetID, err := uintParam(r, "assetID")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var out []distributionView
	err = h.ledger.View(r.Context(), func(c *core.Call) error {
		dists, err := c.Engine.AssetDistributions(assetID)
		if err != nil {
			return err
		}
		out = make([]distributionView, 0, len(dists))
		for _, dist := range dists {
			out = append(out, newDistributionView(dist))
		}
		return nil
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"distributions": out})
}

func (h *handlers) createDistribution(w http.ResponseWriter, r *http.Request) {
	caller, assetID, err := h.assetCall(r)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	var req createDistributionRequest
	if err := decodeBody(r, &req); err != nil {
		writeLedgerError(w, err)
		return
	}
	total, err := parseAmount(req.TotalAmount, "totalAmount")
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	id, err := h.ledger.CreateDistribution(r.Context(), caller, assetID, total, req.PayoutToken)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uint64{"id": id})
}

func (h *handlers) getDistribution(w http.ResponseWriter, r *http.Request) {
	distID, err := uintParam(r, "distributionID")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var view distributionView
	err = h.ledger.View(r.Context(), func(c *core.Call) error {
		dist, err := c.Engine.Distribution(distID)
		if err != nil {
			return err
		}
		view = newDistributionView(dist)
		return nil
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handlers) getClaimed(w http.ResponseWriter, r *http.Request) {
	distID, err := uintParam(r, "distributionID")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	account, err := accountParam(r, "account")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var claimed bool
	_ = h.ledger.View(r.Context(), func(c *core.Call) error {
		claimed = c.Engine.IsDistributionClaimed(distID, account)
		return nil
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{"distributionId": distID, "account": addrString(account), "claimed": claimed})
}

func (h *handlers) claimDistribution(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.CallerFromContext(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	distID, err := uintParam(r, "distributionID")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	payout, err := h.ledger.ClaimDistribution(r.Context(), caller, distID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"payout": amountString(payout)})
}
