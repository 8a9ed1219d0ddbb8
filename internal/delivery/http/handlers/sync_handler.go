package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/LavaJover/shvark-crm-reconciler/internal/delivery/http/dto"
	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
	"github.com/gin-gonic/gin"
)

type Syncer interface {
	Sync(ctx context.Context, kind domain.EntityKind, primaryID string) error
}

type SyncHandler struct {
	Syncer Syncer
	Logger *slog.Logger
}

func NewSyncHandler(syncer Syncer, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{Syncer: syncer, Logger: logger}
}

func (h *SyncHandler) Sync(c *gin.Context) {
	kind, err := domain.ParseEntityKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	primaryID := c.Param("id")

	if err := h.Syncer.Sync(c.Request.Context(), kind, primaryID); err != nil {
		h.Logger.Error("sync failed", "kind", kind, "primary_id", primaryID, "error", err)
		status := http.StatusInternalServerError
		if domain.IsTransient(err) || errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusBadGateway
		}
		c.JSON(status, dto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.SyncResponse{Kind: string(kind), PrimaryID: primaryID, Status: "synced"})
}
