package handlers

import (
	"net/http"

	"github.com/erickcordeiroa/my-invoices/internal/auth"
	"github.com/erickcordeiroa/my-invoices/internal/httpx"
	"github.com/erickcordeiroa/my-invoices/internal/services"
)

type WalletHandler struct {
	svc *services.WalletService
}

func NewWalletHandler(svc *services.WalletService) *WalletHandler { return &WalletHandler{svc: svc} }

func (h *WalletHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		methodNotAllowed(w, "GET,POST")
	}
}

func (h *WalletHandler) list(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	page := queryInt(r, "page")
	wallets, total, err := h.svc.List(r.Context(), uid, page, queryInt(r, "per_page"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if page < 1 {
		page = 1
	}
	httpx.JSON(w, http.StatusOK, pageResponse{Items: wallets, Total: total, Page: page})
}

func (h *WalletHandler) create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var in struct {
		Name    string `json:"name"`
		Balance int64  `json:"balance"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.Name == "" {
		httpx.JSONError(w, http.StatusBadRequest, "name required", nil)
		return
	}
	wallet, err := h.svc.Create(r.Context(), uid, services.WalletInput{Name: in.Name, Balance: in.Balance})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, wallet)
}

func (h *WalletHandler) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	wallets, err := h.svc.Search(r.Context(), uid, r.URL.Query().Get("name"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, wallets)
}

func (h *WalletHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	var in struct {
		ID      uint   `json:"id"`
		Name    string `json:"name"`
		Balance int64  `json:"balance"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	wallet, err := h.svc.Update(r.Context(), uid, in.ID, services.WalletInput{Name: in.Name, Balance: in.Balance})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, wallet)
}

func (h *WalletHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	var in struct {
		ID uint `json:"id"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := h.svc.Delete(r.Context(), uid, in.ID); err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
