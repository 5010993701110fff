package httpapi

import (
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/predict-league/internal/usecase"
)

func (h *Handler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetUserStats")
	defer span.End()

	fid, err := pathFID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	stats, err := h.userService.Stats(ctx, fid)
	if err != nil {
		h.logger.WarnContext(ctx, "get user stats failed", "fid", fid, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, userStatsToDTO(stats))
}

func (h *Handler) UpdateUserTitle(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateUserTitle")
	defer span.End()

	fid, err := pathFID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	var req updateTitleRequest
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.userService.UpdateTitle(ctx, fid, req.Title); err != nil {
		h.logger.WarnContext(ctx, "update user title failed", "fid", fid, "title", req.Title, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"title": req.Title})
}

func (h *Handler) ListLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLeaderboard")
	defer span.End()

	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	users, err := h.userService.Leaderboard(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "list leaderboard failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]userDTO, 0, len(users))
	for _, item := range users {
		items = append(items, userToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}
