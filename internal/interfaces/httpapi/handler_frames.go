package httpapi

import (
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/predict-league/internal/interfaces/frames"
	"github.com/riskibarqy/predict-league/internal/usecase"
)

func (h *Handler) HandleFrameAction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.HandleFrameAction")
	defer span.End()

	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	var req frameActionRequest
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	frame, err := h.frameRouter.Route(ctx, frames.Request{
		FID:      req.FID,
		Username: req.Username,
		PfpURL:   req.PfpURL,
		Screen:   frames.Screen(req.Screen),
		Button:   req.Button,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "frame action failed", "fid", req.FID, "screen", req.Screen, "button", req.Button, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, frame)
}
