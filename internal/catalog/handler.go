package catalog

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/treadline/treadline/internal/platform/httpx"
)

// Handler exposes the catalog endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers the catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/tires", h.ListTires)
	r.Post("/tires", h.CreateTire)
	r.Get("/tires/{id}", h.ShowTire)
	r.Get("/services", h.ListShopServices)
	r.Post("/services", h.CreateShopService)
	r.Get("/services/{id}", h.ShowShopService)
}

func (h *Handler) ListTires(w http.ResponseWriter, r *http.Request) {
	tires, err := h.service.ListTires(r.Context())
	if err != nil {
		h.logger.Error("list tires", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tires": tires})
}

func (h *Handler) ShowTire(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid tire id")
		return
	}
	tire, err := h.service.GetTire(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tire)
}

func (h *Handler) CreateTire(w http.ResponseWriter, r *http.Request) {
	var req CreateTireRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	tire, err := h.service.CreateTire(r.Context(), req)
	if err != nil {
		h.logger.Error("create tire", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, tire)
}

func (h *Handler) ListShopServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.service.ListShopServices(r.Context())
	if err != nil {
		h.logger.Error("list shop services", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"services": services})
}

func (h *Handler) ShowShopService(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid service id")
		return
	}
	svc, err := h.service.GetShopService(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, svc)
}

func (h *Handler) CreateShopService(w http.ResponseWriter, r *http.Request) {
	var req CreateShopServiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	svc, err := h.service.CreateShopService(r.Context(), req)
	if err != nil {
		h.logger.Error("create shop service", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, svc)
}
