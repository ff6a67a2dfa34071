package handlers

import (
	"net/http"

	"github.com/erickcordeiroa/my-invoices/internal/auth"
	"github.com/erickcordeiroa/my-invoices/internal/httpx"
	"github.com/erickcordeiroa/my-invoices/internal/models"
	"github.com/erickcordeiroa/my-invoices/internal/services"
)

type ReportHandler struct {
	svc *services.ReportService
}

func NewReportHandler(svc *services.ReportService) *ReportHandler { return &ReportHandler{svc: svc} }

// CashFlow serves GET /reports/cashflow?from=YYYY-MM-DD&to=YYYY-MM-DD with
// optional wallet_id, category_id, type, status and only_installments.
func (h *ReportHandler) CashFlow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())

	from := queryDate(r, "from")
	to := queryDate(r, "to")
	if from == nil || to == nil {
		httpx.JSONError(w, http.StatusBadRequest, "from and to are required as YYYY-MM-DD", nil)
		return
	}
	filter := services.CashFlowFilter{
		From:             *from,
		To:               *to,
		WalletID:         queryUint(r, "wallet_id"),
		CategoryID:       queryUint(r, "category_id"),
		Type:             models.EntryType(r.URL.Query().Get("type")),
		Status:           models.InvoiceStatus(r.URL.Query().Get("status")),
		OnlyInstallments: r.URL.Query().Get("only_installments") == "1",
	}
	report, err := h.svc.CashFlow(r.Context(), uid, filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}
