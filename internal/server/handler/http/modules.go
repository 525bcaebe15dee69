package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/handmind/internal/httputil"
	"github.com/atinyakov/handmind/internal/models"
	"github.com/atinyakov/handmind/internal/service"
	"go.uber.org/zap"
)

// ModuleService defines the module operations required by ModuleHandler.
type ModuleService interface {
	List(ctx context.Context, search string) ([]models.Module, error)
	Get(ctx context.Context, id int64) (models.Module, error)
	Create(ctx context.Context, in service.CreateModuleInput) (models.Module, error)
	Update(ctx context.Context, id int64, in service.UpdateModuleInput) (models.Module, error)
	Delete(ctx context.Context, id int64) error
}

// ModuleHandler serves the /api/modules resource.
type ModuleHandler struct {
	ModuleService ModuleService
	Logger        *zap.Logger
}

// NewModuleHandler creates a ModuleHandler. A nil logger discards output.
func NewModuleHandler(svc ModuleService, logger *zap.Logger) *ModuleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModuleHandler{ModuleService: svc, Logger: logger}
}

// List handles GET /api/modules[?search=term].
func (h *ModuleHandler) List(w http.ResponseWriter, r *http.Request) {
	modules, err := h.ModuleService.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, modules)
}

// Get handles GET /api/modules/{id}.
func (h *ModuleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	m, err := h.ModuleService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

// Create handles POST /api/modules.
func (h *ModuleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CreateModuleInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	m, err := h.ModuleService.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, m)
}

// Update handles PUT /api/modules/{id}. Only the fields present in the body change.
func (h *ModuleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	var in service.UpdateModuleInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	m, err := h.ModuleService.Update(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

// Delete handles DELETE /api/modules/{id}.
func (h *ModuleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	if err := h.ModuleService.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
