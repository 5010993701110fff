package httpapi

import (
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/predict-league/internal/usecase"
)

func (h *Handler) PlaceBet(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PlaceBet")
	defer span.End()

	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	var req placeBetRequest
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	placed, err := h.betService.PlaceBet(ctx, usecase.PlaceBetInput{
		FID:          req.FID,
		Username:     req.Username,
		PfpURL:       req.PfpURL,
		MatchID:      req.MatchID,
		Prediction:   req.Prediction,
		DoubleChance: req.DoubleChance,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "place bet failed", "fid", req.FID, "match_id", req.MatchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, betToDTO(placed))
}

func (h *Handler) ListUserBets(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListUserBets")
	defer span.End()

	fid, err := pathFID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	gw, err := queryInt(r, "gameweek")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if gw <= 0 {
		gw, err = h.matchDataService.CurrentGameweek(ctx)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
	}

	bets, err := h.betService.ListUserBets(ctx, fid, gw)
	if err != nil {
		h.logger.ErrorContext(ctx, "list user bets failed", "fid", fid, "gameweek", gw, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]betDTO, 0, len(bets))
	for _, item := range bets {
		items = append(items, betToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListUserResults(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListUserResults")
	defer span.End()

	fid, err := pathFID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	before, err := queryInt(r, "before_gameweek")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if before <= 0 {
		current, err := h.matchDataService.CurrentGameweek(ctx)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		before = current
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	summaries, err := h.betService.PreviousResults(ctx, fid, before, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "list user results failed", "fid", fid, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]betSummaryDTO, 0, len(summaries))
	for _, item := range summaries {
		items = append(items, betSummaryToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}
