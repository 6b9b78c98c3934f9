package handlers

import (
	"github.com/gin-gonic/gin"

	apperrors "budgetly/internal/errors"
	"budgetly/internal/events"
	"budgetly/internal/logger"
)

// FeedHandler upgrades requests to the websocket change feed.
type FeedHandler struct {
	hub *events.Hub
}

// NewFeedHandler creates a new FeedHandler.
func NewFeedHandler(hub *events.Hub) *FeedHandler {
	return &FeedHandler{hub: hub}
}

// Subscribe handles a websocket subscription.
// @Summary     Change feed
// @Description Upgrade to a websocket that receives expense and budget change events. Pass resource=expense or resource=budget to receive only one kind.
// @Tags        events
// @Param       resource query string false "expense or budget"
// @Success     101 "Switching protocols"
// @Failure     400 {object} ErrorResponse "Invalid resource"
// @Router      /ws [get]
func (h *FeedHandler) Subscribe(c *gin.Context) {
	switch c.Query("resource") {
	case "", "expense", "budget":
	default:
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "resource must be 'expense' or 'budget'"))
		return
	}

	// The upgrader writes its own response on failure.
	if err := h.hub.HandleRequest(c.Writer, c.Request); err != nil {
		logger.Get().Debugw("websocket session ended", "error", err, "client_ip", c.ClientIP())
	}
}
