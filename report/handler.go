package report

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/treadline/treadline/internal/platform/httpx"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// MountRoutes registers the PDF endpoints on the given router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/invoices/{id}/pdf", h.invoicePDF)
	r.Get("/quotations/{id}/pdf", h.quotationPDF)
}

func (h *Handler) invoicePDF(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid invoice id")
		return
	}
	doc, err := h.service.InvoicePDF(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	writePDF(w, doc)
}

func (h *Handler) quotationPDF(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid quotation id")
		return
	}
	doc, err := h.service.QuotationPDF(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	writePDF(w, doc)
}

func writePDF(w http.ResponseWriter, doc *Document) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.PDF)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.PDF)
}
