package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/predict-league/internal/domain/jobscheduler"
	"github.com/riskibarqy/predict-league/internal/domain/settlement"
	"github.com/riskibarqy/predict-league/internal/usecase"
	"go.opentelemetry.io/otel/trace"
)

var internalJobDispatchUnsafeRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func (h *Handler) RunSettlementJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSettlementJob")
	defer span.End()

	if h.settlementService == nil {
		writeError(ctx, w, fmt.Errorf("%w: settlement service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	req, err := decodeInternalSettlementJobRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	report, err := h.settlementService.Run(ctx)
	if err != nil {
		h.recordInternalJobDispatch(ctx, req, jobscheduler.DispatchEvent{
			JobName:      "settlement",
			JobPath:      "/v1/internal/jobs/settlement",
			Gameweek:     req.Gameweek,
			Status:       jobscheduler.StatusFailed,
			Payload:      buildInternalJobPayload(req),
			ErrorMessage: err.Error(),
			OccurredAt:   time.Now().UTC(),
		})
		h.logger.ErrorContext(ctx, "run settlement job failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	h.recordInternalJobDispatch(ctx, req, jobscheduler.DispatchEvent{
		JobName:    "settlement",
		JobPath:    "/v1/internal/jobs/settlement",
		Gameweek:   req.Gameweek,
		Status:     jobscheduler.StatusCompleted,
		Payload:    buildInternalJobPayload(req),
		OccurredAt: time.Now().UTC(),
	})

	writeSuccess(ctx, w, http.StatusOK, settlementReportToDTO(report))
}

func settlementReportToDTO(report settlement.RunReport) settlementReportDTO {
	return settlementReportDTO{
		StartedAt:          report.StartedAt.UTC().Format(time.RFC3339),
		SettledMatches:     len(report.SettledMatches),
		PerfectScoreFIDs:   report.PerfectScoreFIDs,
		UsersReconciled:    report.UsersReconciled,
		CompletedGameweeks: report.CompletedGameweeks,
		InitializedGW:      report.InitializedGW,
	}
}

func decodeInternalSettlementJobRequest(r *http.Request) (internalSettlementJobRequest, error) {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)

	var req internalSettlementJobRequest
	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return internalSettlementJobRequest{}, nil
		}
		return internalSettlementJobRequest{}, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return req, nil
}

func (h *Handler) recordInternalJobDispatch(ctx context.Context, req internalSettlementJobRequest, event jobscheduler.DispatchEvent) {
	if h.jobDispatchRepo == nil {
		return
	}

	dispatchID := strings.TrimSpace(req.DispatchID)
	if dispatchID == "" {
		dispatchID = buildManualDispatchID(event.JobName, req.Gameweek, event.OccurredAt)
	}
	event.DispatchID = dispatchID

	traceID, spanID := traceMetaFromContext(ctx)
	event.TraceID = traceID
	event.SpanID = spanID

	if err := h.jobDispatchRepo.UpsertEvent(ctx, event); err != nil {
		h.logger.WarnContext(ctx, "record internal job dispatch failed",
			"dispatch_id", event.DispatchID,
			"job_name", event.JobName,
			"status", event.Status,
			"error", err,
		)
	}
}

func buildInternalJobPayload(req internalSettlementJobRequest) map[string]any {
	payload := map[string]any{
		"gameweek": req.Gameweek,
	}
	if strings.TrimSpace(req.DispatchID) != "" {
		payload["dispatch_id"] = req.DispatchID
	}
	return payload
}

func buildManualDispatchID(jobName string, gameweek int, now time.Time) string {
	jobName = sanitizeDispatchPart(jobName)
	gw := sanitizeDispatchPart(strconv.Itoa(gameweek))
	ts := now.UTC().Format("20060102T150405.000000000Z")
	return "manual-" + jobName + "-gw" + gw + "-" + ts
}

func sanitizeDispatchPart(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return internalJobDispatchUnsafeRegex.ReplaceAllString(value, "-")
}

func traceMetaFromContext(ctx context.Context) (string, string) {
	spanContext := trace.SpanFromContext(ctx).SpanContext()
	if !spanContext.IsValid() {
		return "", ""
	}
	return spanContext.TraceID().String(), spanContext.SpanID().String()
}
