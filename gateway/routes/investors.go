package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"rwaledger/core"
	"rwaledger/gateway/middleware"
)

type registerInvestorRequest struct {
	Account    string `json:"account"`
	Accredited bool   `json:"accredited"`
	Country    string `json:"country"`
	KYCExpiry  int64  `json:"kycExpiry"`
}

type accreditationRequest struct {
	Accredited bool `json:"accredited"`
}

func (h *handlers) mountInvestors(r chi.Router) {
	r.Get("/investors/{account}", h.getInvestor)
	r.Post("/investors", h.registerInvestor)
	r.Post("/investors/{account}/accreditation", h.updateAccreditation)
}

func (h *handlers) getInvestor(w http.ResponseWriter, r *http.Request) {
	account, err := accountParam(r, "account")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var view investorView
	err = h.ledger.View(r.Context(), func(c *core.Call) error {
		investor, err := c.Engine.Investor(account)
		if err != nil {
			return err
		}
		view = newInvestorView(investor)
		return nil
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handlers) registerInvestor(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.CallerFromContext(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	var req registerInvestorRequest
	if err := decodeBody(r, &req); err != nil {
		writeLedgerError(w, err)
		return
	}
	account, err := parseAccount(req.Account, "account")
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	ok, err := h.ledger.RegisterInvestor(r.Context(), caller, account, req.Accredited, req.Country, req.KYCExpiry)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"registered": ok})
}

func (h *handlers) updateAccreditation(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.CallerFromContext(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	account, err := accountParam(r, "account")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var req accreditationRequest
	if err := decodeBody(r, &req); err != nil {
		writeLedgerError(w, err)
		return
	}
	ok, err := h.ledger.UpdateAccreditation(r.Context(), caller, account, req.Accredited)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"updated": ok})
}
