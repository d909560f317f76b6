package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/prizewheel/internal/admin"
	"github.com/okian/prizewheel/internal/domain/draw"
	"github.com/okian/prizewheel/internal/domain/model"
	"github.com/okian/prizewheel/pkg/logger"
)

// AdminHandler serves the admin console.
type AdminHandler struct {
	console Console
	deps    Dependencies
	now     func() time.Time
	logger  logger.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(console Console, deps Dependencies, now func() time.Time, l logger.Logger) *AdminHandler {
	return &AdminHandler{console: console, deps: deps, now: now, logger: l}
}

type prizeListResponse struct {
	State  admin.State      `json:"state"`
	Prizes []admin.PrizeRow `json:"prizes"`
}

type prizeFormResponse struct {
	State admin.State     `json:"state"`
	Form  admin.PrizeForm `json:"form"`
}

type labelRequest struct {
	Text string `json:"text"`
}

type labelListResponse struct {
	State  admin.State      `json:"state"`
	Labels []admin.LabelRow `json:"labels"`
}

type labelFormResponse struct {
	State admin.State `json:"state"`
	Text  string      `json:"text"`
}

type tabRequest struct {
	Tab     admin.Tab     `json:"tab"`
	DrawTab admin.DrawTab `json:"draw_tab"`
}

// drawResponse is the winner announcement. It is built from the draw
// result, not from the cache, which may not show the winner yet.
type drawResponse struct {
	PrizeID     string      `json:"prize_id"`
	PrizeName   string      `json:"prize_name"`
	Description string      `json:"description"`
	Image       string      `json:"image,omitempty"`
	Winner      model.Entry `json:"winner"`
	Handle      string      `json:"handle"`
	Message     string      `json:"message"`
	Spin        draw.Spin   `json:"spin"`
}

// HandleListPrizes handles GET /api/admin/prizes.
func (h *AdminHandler) HandleListPrizes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, prizeListResponse{
		State:  h.console.State(),
		Prizes: h.console.PrizeRows(h.now()),
	})
}

// HandleSubmitPrize handles POST /api/admin/prizes. It updates the prize
// being edited, or adds a new one.
func (h *AdminHandler) HandleSubmitPrize(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_prize"
	var form admin.PrizeForm
	if err := decode(r, &form); err != nil {
		respond(r.Context(), h.logger, w, op, err)
		return
	}
	editing := h.console.State().EditingPrize != ""
	if !h.console.SubmitPrize(r.Context(), form) {
		if _, err := form.Parse(time.UTC); err != nil {
			respond(r.Context(), h.logger, w, op, err)
			return
		}
		respond(r.Context(), h.logger, w, op, ErrNotSaved)
		return
	}
	status := http.StatusCreated
	if editing {
		status = http.StatusOK
	}
	writeJSON(w, status, h.console.State())
}

// HandleEditPrize handles POST /api/admin/prizes/{id}/edit.
func (h *AdminHandler) HandleEditPrize(w http.ResponseWriter, r *http.Request) {
	const op = "api.edit_prize"
	form, ok := h.console.EditPrize(r.Context(), r.PathValue("id"))
	if !ok {
		respond(r.Context(), h.logger, w, op, ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, prizeFormResponse{State: h.console.State(), Form: form})
}

// HandleCancelPrizeEdit handles DELETE /api/admin/prizes/edit.
func (h *AdminHandler) HandleCancelPrizeEdit(w http.ResponseWriter, _ *http.Request) {
	h.console.CancelPrizeEdit()
	writeJSON(w, http.StatusOK, h.console.State())
}

// HandleDeletePrize handles DELETE /api/admin/prizes/{id}.
func (h *AdminHandler) HandleDeletePrize(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_prize"
	id := r.PathValue("id")
	if _, err := h.deps.Prize(id); err != nil {
		respond(r.Context(), h.logger, w, op, err)
		return
	}
	if !h.console.DeletePrize(r.Context(), id) {
		respond(r.Context(), h.logger, w, op, ErrNotSaved)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleParticipants handles GET /api/admin/prizes/{id}/participants.
func (h *AdminHandler) HandleParticipants(w http.ResponseWriter, r *http.Request) {
	const op = "api.participants"
	list, ok := h.console.Participants(r.PathValue("id"))
	if !ok {
		respond(r.Context(), h.logger, w, op, ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleListLabels handles GET /api/admin/labels.
func (h *AdminHandler) HandleListLabels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, labelListResponse{
		State:  h.console.State(),
		Labels: h.console.LabelRows(),
	})
}

// HandleSubmitLabel handles POST /api/admin/labels.
func (h *AdminHandler) HandleSubmitLabel(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_label"
	var req labelRequest
	if err := decode(r, &req); err != nil {
		respond(r.Context(), h.logger, w, op, err)
		return
	}
	editing := h.console.State().EditingLabel != ""
	if !h.console.SubmitLabel(r.Context(), req.Text) {
		if strings.TrimSpace(req.Text) == "" {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing text")))
			return
		}
		respond(r.Context(), h.logger, w, op, ErrNotSaved)
		return
	}
	status := http.StatusCreated
	if editing {
		status = http.StatusOK
	}
	writeJSON(w, status, h.console.State())
}

// HandleEditLabel handles POST /api/admin/labels/{id}/edit.
func (h *AdminHandler) HandleEditLabel(w http.ResponseWriter, r *http.Request) {
	const op = "api.edit_label"
	text, ok := h.console.EditLabel(r.PathValue("id"))
	if !ok {
		respond(r.Context(), h.logger, w, op, ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, labelFormResponse{State: h.console.State(), Text: text})
}

// HandleCancelLabelEdit handles DELETE /api/admin/labels/edit.
func (h *AdminHandler) HandleCancelLabelEdit(w http.ResponseWriter, _ *http.Request) {
	h.console.CancelLabelEdit()
	writeJSON(w, http.StatusOK, h.console.State())
}

// HandleDeleteLabel handles DELETE /api/admin/labels/{id}.
func (h *AdminHandler) HandleDeleteLabel(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_label"
	if !h.console.DeleteLabel(r.Context(), r.PathValue("id")) {
		respond(r.Context(), h.logger, w, op, ErrNotSaved)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDrawBoard handles GET /api/admin/draws.
func (h *AdminHandler) HandleDrawBoard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.console.DrawBoard(h.now()))
}

// HandleDraw handles POST /api/admin/draws/{id}. A prize without entries
// is answered with 409 no_entries and nothing is written.
func (h *AdminHandler) HandleDraw(w http.ResponseWriter, r *http.Request) {
	const op = "api.draw"
	res, err := h.deps.Draw(r.Context(), r.PathValue("id"))
	if err != nil {
		respond(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, drawResponse{
		PrizeID:     res.Prize.ID,
		PrizeName:   res.Prize.Name,
		Description: res.Prize.Description,
		Image:       res.Prize.CoverImage(),
		Winner:      res.Winner,
		Handle:      admin.Handle(res.Winner.Twitter),
		Message:     draw.Announcement(res.Winner),
		Spin:        res.Spin,
	})
}

// HandleState handles GET /api/admin/tab.
func (h *AdminHandler) HandleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.console.State())
}

// HandleSetTab handles PUT /api/admin/tab.
func (h *AdminHandler) HandleSetTab(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_tab"
	var req tabRequest
	if err := decode(r, &req); err != nil {
		respond(r.Context(), h.logger, w, op, err)
		return
	}
	if req.Tab != "" {
		if err := h.console.SetTab(req.Tab); err != nil {
			respond(r.Context(), h.logger, w, op, err)
			return
		}
	}
	if req.DrawTab != "" {
		if err := h.console.SetDrawTab(req.DrawTab); err != nil {
			respond(r.Context(), h.logger, w, op, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, h.console.State())
}
