package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/LavaJover/shvark-crm-reconciler/internal/delivery/http/dto"
	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/stripe"
	"github.com/gin-gonic/gin"
)

const maxWebhookBodyBytes = 1 << 20

// WebhookHandler accepts Stripe notifications and queues them. It never processes
// inline, so Stripe gets its answer before any crm call is made.
type WebhookHandler struct {
	Queue    domain.EventQueue
	Verifier stripe.Verifier
	Logger   *slog.Logger
}

func NewWebhookHandler(queue domain.EventQueue, verifier stripe.Verifier, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{Queue: queue, Verifier: verifier, Logger: logger}
}

func (h *WebhookHandler) Stripe(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "failed to read body"})
		return
	}
	if len(body) > maxWebhookBodyBytes {
		c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{Error: "payload too large"})
		return
	}

	event, err := h.Verifier.VerifyAndParse(body, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.Logger.Warn("rejected stripe webhook", "error", err)
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.Queue.Enqueue(c.Request.Context(), stripe.RoutingKey(event), body); err != nil {
		switch {
		case errors.Is(err, domain.ErrQueueFull), domain.IsTransient(err):
			h.Logger.Warn("webhook intake saturated", "event_id", event.ID, "error", err)
			c.Header("Retry-After", "5")
			c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "try again later"})
		default:
			h.Logger.Error("failed to enqueue webhook", "event_id", event.ID, "error", err)
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to enqueue event"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.WebhookAcceptedResponse{Received: true, EventID: event.ID})
}
