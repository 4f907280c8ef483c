package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskmirror/backend/api/transport"
	"github.com/taskmirror/backend/domain"
	"github.com/taskmirror/backend/pkg/httpcontext"
	settingsUC "github.com/taskmirror/backend/usecase/settings"
)

type SettingsHandler struct {
	baseHandler
	uc *settingsUC.UseCase
}

func NewSettingsHandler(uc *settingsUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Get settings
// @Tags settings
// @Router /api/v1/settings [get]
func (h *SettingsHandler) GetSettings(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	settings, err := h.uc.Get(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, settings)
}

// @Summary Update settings
// @Tags settings
// @Router /api/v1/settings [put]
func (h *SettingsHandler) UpdateSettings(ctx *fasthttp.RequestCtx) {
	var req transport.SettingsRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.Update(stdCtx, &domain.Settings{
		VisibleCollections:   req.VisibleCollections,
		MarkExternalComplete: req.MarkExternalComplete,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary List external collections
// @Tags settings
// @Router /api/v1/collections [get]
func (h *SettingsHandler) GetCollections(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	collections, err := h.uc.ListCollections(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, collections)
}
