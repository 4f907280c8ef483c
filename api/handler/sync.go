package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskmirror/backend/api/transport"
	"github.com/taskmirror/backend/pkg/httpcontext"
	"github.com/taskmirror/backend/repository"
	"github.com/taskmirror/backend/usecase/reconcile"
)

type SyncHandler struct {
	baseHandler
	engine   *reconcile.Engine
	settings repository.SettingsRepository
	reports  repository.ReportRepository
}

func NewSyncHandler(engine *reconcile.Engine, settings repository.SettingsRepository, reports repository.ReportRepository, adapter *httpcontext.Adapter, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		baseHandler: newBaseHandler(adapter, logger),
		engine:      engine,
		settings:    settings,
		reports:     reports,
	}
}

// @Summary Run a reconciliation cycle
// @Tags sync
// @Router /api/v1/sync [post]
func (h *SyncHandler) RunCycle(ctx *fasthttp.RequestCtx) {
	var req transport.SyncRequest
	if len(ctx.PostBody()) > 0 {
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			h.respondJSON(ctx, http.StatusBadRequest, transport.NewError("INVALID", "invalid payload", nil))
			return
		}
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	markComplete := false
	if settings, err := h.settings.Get(stdCtx); err == nil {
		markComplete = settings.MarkExternalComplete
	}
	if req.MarkExternalComplete != nil {
		markComplete = *req.MarkExternalComplete
	}

	report, err := h.engine.RunCycle(stdCtx, reconcile.TriggerManual, markComplete)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, report)
}

// @Summary List past reconciliation reports
// @Tags sync
// @Router /api/v1/sync/reports [get]
func (h *SyncHandler) ListReports(ctx *fasthttp.RequestCtx) {
	filter := repository.ReportFilter{
		Trigger: string(ctx.QueryArgs().Peek("trigger")),
	}
	if raw := ctx.QueryArgs().Peek("limit"); len(raw) > 0 {
		if limit, err := strconv.Atoi(string(raw)); err == nil {
			filter.Limit = limit
		}
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	reports, err := h.reports.List(stdCtx, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, reports)
}
