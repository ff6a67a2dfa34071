package handlers

import (
	"net/http"
	"time"

	"github.com/erickcordeiroa/my-invoices/internal/auth"
	"github.com/erickcordeiroa/my-invoices/internal/httpx"
	"github.com/erickcordeiroa/my-invoices/internal/models"
	"github.com/erickcordeiroa/my-invoices/internal/services"
)

type InvoiceHandler struct {
	svc *services.InvoiceService
}

func NewInvoiceHandler(svc *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{svc: svc}
}

// invoiceRequest is the JSON body shared by create and update. Dates are
// YYYY-MM-DD.
type invoiceRequest struct {
	ID          uint             `json:"id,omitempty"`
	WalletID    uint             `json:"wallet_id"`
	CategoryID  uint             `json:"category_id"`
	Description string           `json:"description"`
	Type        models.EntryType `json:"type"`
	Amount      int64            `json:"amount"`
	Currency    string           `json:"currency"`
	DueAt       string           `json:"due_at"`
	RepeatWhen  *string          `json:"repeat_when,omitempty"`
	Period      models.Period    `json:"period,omitempty"`
	Enrollments *int             `json:"enrollments,omitempty"`
}

func (req *invoiceRequest) toInput(w http.ResponseWriter) (services.InvoiceInput, bool) {
	dueAt, err := time.Parse("2006-01-02", req.DueAt)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "due_at must be YYYY-MM-DD", nil)
		return services.InvoiceInput{}, false
	}
	return services.InvoiceInput{
		WalletID:    req.WalletID,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Type:        req.Type,
		Amount:      req.Amount,
		Currency:    req.Currency,
		DueAt:       dueAt,
		RepeatWhen:  req.RepeatWhen,
		Period:      req.Period,
		Enrollments: req.Enrollments,
	}, true
}

func (h *InvoiceHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		methodNotAllowed(w, "GET,POST")
	}
}

func (h *InvoiceHandler) list(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	if id := queryUint(r, "id"); id != 0 {
		invoice, err := h.svc.Get(r.Context(), uid, id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, invoice)
		return
	}
	page := queryInt(r, "page")
	invoices, total, err := h.svc.List(r.Context(), uid, page, queryInt(r, "per_page"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if page < 1 {
		page = 1
	}
	httpx.JSON(w, http.StatusOK, pageResponse{Items: invoices, Total: total, Page: page})
}

func (h *InvoiceHandler) create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var req invoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, ok := req.toInput(w)
	if !ok {
		return
	}
	created, err := h.svc.Create(r.Context(), uid, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *InvoiceHandler) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	filter := services.InvoiceFilter{
		Description: r.URL.Query().Get("description"),
		Type:        models.EntryType(r.URL.Query().Get("type")),
		Status:      models.InvoiceStatus(r.URL.Query().Get("status")),
		WalletID:    queryUint(r, "wallet_id"),
		CategoryID:  queryUint(r, "category_id"),
		DateFrom:    queryDate(r, "from"),
		DateTo:      queryDate(r, "to"),
	}
	invoices, err := h.svc.Search(r.Context(), uid, filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoices)
}

func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	var req invoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, ok := req.toInput(w)
	if !ok {
		return
	}
	invoice, err := h.svc.Update(r.Context(), uid, req.ID, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoice)
}

func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

func (h *InvoiceHandler) Pay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	var in struct {
		ID     uint   `json:"id"`
		PaidAt string `json:"paid_at,omitempty"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	var paidAt *time.Time
	if in.PaidAt != "" {
		t, err := time.Parse("2006-01-02", in.PaidAt)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "paid_at must be YYYY-MM-DD", nil)
			return
		}
		paidAt = &t
	}
	invoice, err := h.svc.Pay(r.Context(), uid, in.ID, paidAt)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoice)
}

func (h *InvoiceHandler) Unpay(w http.ResponseWriter, r *http.Request) {
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
	invoice, err := h.svc.Unpay(r.Context(), uid, in.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoice)
}
