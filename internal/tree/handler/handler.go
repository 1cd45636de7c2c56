package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"arbor/internal/tree/models"
	"arbor/pkg/domain"
	dErrors "arbor/pkg/domain-errors"
	"arbor/pkg/platform/httputil"
	"arbor/pkg/requestcontext"
)

// Service is the tree registry as seen by HTTP.
type Service interface {
	Register(ctx context.Context, cmd models.RegisterTreeCommand) (*models.Tree, error)
	Update(ctx context.Context, id domain.TreeID, cmd models.UpdateTreeCommand) (*models.Tree, error)
	UpdateStatus(ctx context.Context, id domain.TreeID, status models.Status, notes string) (*models.Tree, error)
	TransferOwnership(ctx context.Context, id domain.TreeID, newOwner domain.Principal) (*models.Tree, error)
	Get(ctx context.Context, id domain.TreeID) (*models.Tree, error)
	HistoryRecord(ctx context.Context, id domain.TreeID, sequence int64) (*models.HistoryRecord, error)
	HistoryCount(ctx context.Context, id domain.TreeID) (int64, error)
	History(ctx context.Context, id domain.TreeID) ([]*models.HistoryRecord, error)
}

type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

// Register mounts the tree routes. Authentication and the shared middleware
// chain are applied by the caller.
func (h *Handler) Register(r chi.Router) {
	r.Route("/trees", func(r chi.Router) {
		r.Post("/", h.handleRegister)
		r.Get("/{treeID}", h.handleGet)
		r.Put("/{treeID}", h.handleUpdate)
		r.Put("/{treeID}/status", h.handleUpdateStatus)
		r.Post("/{treeID}/transfer", h.handleTransfer)
		r.Get("/{treeID}/history", h.handleHistory)
		r.Get("/{treeID}/history/count", h.handleHistoryCount)
		r.Get("/{treeID}/history/{sequence}", h.handleHistoryRecord)
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterTreeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	tree, err := h.service.Register(ctx, req.cmd)
	if err != nil {
		h.fail(ctx, w, "failed to register tree", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, MutationResponse{OK: true, Tree: tree})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.treeID(w, r)
	if !ok {
		return
	}
	tree, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(r.Context(), w, "failed to get tree", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tree)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.treeID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateTreeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	tree, err := h.service.Update(ctx, id, req.cmd)
	if err != nil {
		h.fail(ctx, w, "failed to update tree", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MutationResponse{OK: true, Tree: tree})
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.treeID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateStatusRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	tree, err := h.service.UpdateStatus(ctx, id, req.status, req.Notes)
	if err != nil {
		h.fail(ctx, w, "failed to update tree status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MutationResponse{OK: true, Tree: tree})
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.treeID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransferRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	tree, err := h.service.TransferOwnership(ctx, id, req.newOwner)
	if err != nil {
		h.fail(ctx, w, "failed to transfer tree", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MutationResponse{OK: true, Tree: tree})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.treeID(w, r)
	if !ok {
		return
	}
	records, err := h.service.History(r.Context(), id)
	if err != nil {
		h.fail(r.Context(), w, "failed to list tree history", err)
		return
	}
	if records == nil {
		records = []*models.HistoryRecord{}
	}
	httputil.WriteJSON(w, http.StatusOK, HistoryListResponse{TreeID: id, Records: records})
}

func (h *Handler) handleHistoryCount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.treeID(w, r)
	if !ok {
		return
	}
	n, err := h.service.HistoryCount(r.Context(), id)
	if err != nil {
		h.fail(r.Context(), w, "failed to count tree history", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, HistoryCountResponse{TreeID: id, Count: n})
}

func (h *Handler) handleHistoryRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := h.treeID(w, r)
	if !ok {
		return
	}
	sequence, err := strconv.ParseInt(chi.URLParam(r, "sequence"), 10, 64)
	if err != nil || sequence < 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "sequence must be a non-negative integer"))
		return
	}
	rec, err := h.service.HistoryRecord(r.Context(), id, sequence)
	if err != nil {
		h.fail(r.Context(), w, "failed to get tree history record", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) treeID(w http.ResponseWriter, r *http.Request) (domain.TreeID, bool) {
	id, err := domain.ParseTreeID(chi.URLParam(r, "treeID"))
	if err != nil {
		httputil.WriteError(w, err)
		return "", false
	}
	return id, true
}

// fail logs at warn for caller errors and error for internal ones, then
// writes the mapped response.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"principal", requestcontext.Principal(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
