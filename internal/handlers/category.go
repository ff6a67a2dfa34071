package handlers

import (
	"net/http"

	"github.com/erickcordeiroa/my-invoices/internal/auth"
	"github.com/erickcordeiroa/my-invoices/internal/httpx"
	"github.com/erickcordeiroa/my-invoices/internal/models"
	"github.com/erickcordeiroa/my-invoices/internal/services"
)

type CategoryHandler struct {
	svc *services.CategoryService
}

func NewCategoryHandler(svc *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{svc: svc}
}

func (h *CategoryHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		methodNotAllowed(w, "GET,POST")
	}
}

func (h *CategoryHandler) list(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	page := queryInt(r, "page")
	categories, total, err := h.svc.List(r.Context(), uid, page, queryInt(r, "per_page"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if page < 1 {
		page = 1
	}
	httpx.JSON(w, http.StatusOK, pageResponse{Items: categories, Total: total, Page: page})
}

func (h *CategoryHandler) create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var in struct {
		Name string           `json:"name"`
		Type models.EntryType `json:"type"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.Name == "" || !in.Type.Valid() {
		httpx.JSONError(w, http.StatusBadRequest, "name and a valid type required", nil)
		return
	}
	category, err := h.svc.Create(r.Context(), uid, services.CategoryInput{Name: in.Name, Type: in.Type})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, category)
}

func (h *CategoryHandler) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	typ := models.EntryType(r.URL.Query().Get("type"))
	if typ != "" && !typ.Valid() {
		httpx.JSONError(w, http.StatusBadRequest, "invalid type", nil)
		return
	}
	categories, err := h.svc.Search(r.Context(), uid, r.URL.Query().Get("name"), typ)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	var in struct {
		ID   uint             `json:"id"`
		Name string           `json:"name"`
		Type models.EntryType `json:"type"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.Name == "" || !in.Type.Valid() {
		httpx.JSONError(w, http.StatusBadRequest, "name and a valid type required", nil)
		return
	}
	category, err := h.svc.Update(r.Context(), uid, in.ID, services.CategoryInput{Name: in.Name, Type: in.Type})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, category)
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
