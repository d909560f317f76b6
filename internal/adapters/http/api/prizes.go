package api

import (
	"errors"
	"net/http"
	"strings"

	service "github.com/okian/prizewheel/internal/app"
	"github.com/okian/prizewheel/internal/domain/model"
	"github.com/okian/prizewheel/pkg/logger"
)

// PrizeHandler serves the public prize pages.
type PrizeHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewPrizeHandler creates a new prize handler.
func NewPrizeHandler(deps Dependencies, l logger.Logger) *PrizeHandler {
	return &PrizeHandler{deps: deps, logger: l}
}

type entryRequest struct {
	Name    string `json:"name"`
	Twitter string `json:"twitter"`
}

func (e entryRequest) validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return errors.New("missing name")
	}
	return nil
}

// galleryRequest moves the gallery by Direction, or to Index when set.
type galleryRequest struct {
	Direction int  `json:"direction"`
	Index     *int `json:"index"`
}

func (g galleryRequest) validate() error {
	if g.Index == nil && g.Direction != 1 && g.Direction != -1 {
		return errors.New("direction must be 1 or -1, or index must be set")
	}
	return nil
}

// HandleList handles GET /api/prizes.
func (h *PrizeHandler) HandleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Prizes())
}

// HandleGet handles GET /api/prizes/{id}.
func (h *PrizeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_prize"
	card, err := h.deps.Prize(r.PathValue("id"))
	if err != nil {
		respond(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// HandleAddEntry handles POST /api/prizes/{id}/entries.
func (h *PrizeHandler) HandleAddEntry(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_entry"
	var req entryRequest
	if err := decode(r, &req); err != nil {
		respond(r.Context(), h.logger, w, op, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	id := r.PathValue("id")
	if err := h.deps.AddEntry(r.Context(), id, model.Entry{Name: req.Name, Twitter: req.Twitter}); err != nil {
		respond(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// HandleGallery handles POST /api/prizes/{id}/gallery.
func (h *PrizeHandler) HandleGallery(w http.ResponseWriter, r *http.Request) {
	const op = "api.gallery"
	var req galleryRequest
	if err := decode(r, &req); err != nil {
		respond(r.Context(), h.logger, w, op, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	id := r.PathValue("id")
	var (
		card service.PrizeCard
		err  error
	)
	if req.Index != nil {
		card, err = h.deps.SelectImage(id, *req.Index)
	} else {
		card, err = h.deps.StepImage(id, req.Direction)
	}
	if err != nil {
		respond(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// HandleOpenViewer handles POST /api/prizes/{id}/viewer.
func (h *PrizeHandler) HandleOpenViewer(w http.ResponseWriter, r *http.Request) {
	const op = "api.open_viewer"
	state, err := h.deps.OpenViewer(r.PathValue("id"))
	if err != nil {
		respond(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// HandleViewer handles GET /api/viewer.
func (h *PrizeHandler) HandleViewer(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Viewer())
}

// HandleCloseViewer handles DELETE /api/viewer.
func (h *PrizeHandler) HandleCloseViewer(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.CloseViewer())
}

// HandleLabels handles GET /api/labels.
func (h *PrizeHandler) HandleLabels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Labels())
}

// HandleNotifications handles GET /api/notifications.
func (h *PrizeHandler) HandleNotifications(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Notifications())
}
