package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"rwaledger/core"
	"rwaledger/gateway/middleware"
	"rwaledger/native/rwa"
)

type adminRequest struct {
	Admin string `json:"admin"`
}

type countryRequest struct {
	Code    string `json:"code"`
	Allowed bool   `json:"allowed"`
}

type blacklistRequest struct {
	Account     string `json:"account"`
	Blacklisted bool   `json:"blacklisted"`
}

type mintRequest struct {
	Token  string `json:"token"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func (h *handlers) mountAdmin(r chi.Router) {
	r.Get("/admin", h.getAdmin)
	r.Get("/stats", h.getStats)
	r.Get("/countries/{code}", h.getCountry)
	r.Get("/blacklist/{account}", h.getBlacklisted)
	r.Get("/balances/{token}/{account}", h.getBalance)

	r.Post("/initialize", h.initialize)
	r.Post("/admin", h.setAdmin)
	r.Post("/countries", h.whitelistCountry)
	r.Post("/blacklist", h.blacklistAddress)
	r.Post("/mint", h.mint)
}

func (h *handlers) getAdmin(w http.ResponseWriter, r *http.Request) {
	var admin [20]byte
	err := h.ledger.View(r.Context(), func(c *core.Call) error {
		var err error
		admin, err = c.Engine.Admin()
		return err
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"admin": addrString(admin)})
}

func (h *handlers) getStats(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AssetCount        uint64 `json:"assetCount"`
		DistributionCount uint64 `json:"distributionCount"`
		TotalValueLocked  string `json:"totalValueLocked"`
	}
	err := h.ledger.View(r.Context(), func(c *core.Call) error {
		var err error
		if body.AssetCount, err = c.Engine.AssetCount(); err != nil {
			return err
		}
		if body.DistributionCount, err = c.Engine.DistributionCount(); err != nil {
			return err
		}
		tvl, err := c.Engine.TotalValueLocked()
		body.TotalValueLocked = amountString(tvl)
		return err
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *handlers) getCountry(w http.ResponseWriter, r *http.Request) {
	code := rwa.NormalizeCountry(chi.URLParam(r, "code"))
	var allowed bool
	_ = h.ledger.View(r.Context(), func(c *core.Call) error {
		allowed = c.Engine.IsCountryAllowed(code)
		return nil
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{"code": code, "allowed": allowed})
}

func (h *handlers) getBlacklisted(w http.ResponseWriter, r *http.Request) {
	account, err := accountParam(r, "account")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var flagged bool
	_ = h.ledger.View(r.Context(), func(c *core.Call) error {
		flagged = c.Engine.IsBlacklisted(account)
		return nil
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{"account": addrString(account), "blacklisted": flagged})
}

func (h *handlers) getBalance(w http.ResponseWriter, r *http.Request) {
	account, err := accountParam(r, "account")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	token := rwa.NormalizeToken(chi.URLParam(r, "token"))
	balance, err := h.ledger.Balance(r.Context(), token, account)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token, "account": addrString(account), "balance": amountString(balance)})
}

func (h *handlers) initialize(w http.ResponseWriter, r *http.Request) {
	caller, admin, err := h.adminBody(r)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if err := h.ledger.Initialize(r.Context(), caller, admin); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"admin": addrString(admin)})
}

func (h *handlers) setAdmin(w http.ResponseWriter, r *http.Request) {
	caller, admin, err := h.adminBody(r)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if err := h.ledger.SetAdmin(r.Context(), caller, admin); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"admin": addrString(admin)})
}

func (h *handlers) adminBody(r *http.Request) ([20]byte, [20]byte, error) {
	caller, err := middleware.CallerFromContext(r.Context())
	if err != nil {
		return caller, [20]byte{}, err
	}
	var req adminRequest
	if err := decodeBody(r, &req); err != nil {
		return caller, [20]byte{}, err
	}
	admin, err := parseAccount(req.Admin, "admin")
	return caller, admin, err
}

func (h *handlers) whitelistCountry(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.CallerFromContext(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	var req countryRequest
	if err := decodeBody(r, &req); err != nil {
		writeLedgerError(w, err)
		return
	}
	if err := h.ledger.WhitelistCountry(r.Context(), caller, req.Code, req.Allowed); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"code": rwa.NormalizeCountry(req.Code), "allowed": req.Allowed})
}

func (h *handlers) blacklistAddress(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.CallerFromContext(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	var req blacklistRequest
	if err := decodeBody(r, &req); err != nil {
		writeLedgerError(w, err)
		return
	}
	account, err := parseAccount(req.Account, "account")
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if err := h.ledger.BlacklistAddress(r.Context(), caller, account, req.Blacklisted); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"account": addrString(account), "blacklisted": req.Blacklisted})
}

func (h *handlers) mint(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.CallerFromContext(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	var req mintRequest
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
	if err := h.ledger.Mint(r.Context(), caller, req.Token, to, amount); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": rwa.NormalizeToken(req.Token), "to": addrString(to), "amount": amount.String()})
}
