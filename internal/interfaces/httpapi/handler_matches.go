package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/predict-league/internal/usecase"
)

func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatches")
	defer span.End()

	gw, err := queryInt(r, "gameweek")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	fresh := strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("fresh")), "true")

	matches, err := h.matchDataService.GetMatches(ctx, usecase.GetMatchesInput{
		Gameweek:    gw,
		BypassCache: fresh,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "list matches failed", "gameweek", gw, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]matchDTO, 0, len(matches))
	for _, item := range matches {
		items = append(items, matchToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetCurrentGameweek(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCurrentGameweek")
	defer span.End()

	gw, err := h.matchDataService.CurrentGameweek(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "resolve current gameweek failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]int{"gameweek": gw})
}
