package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"marketly.com/app/internal/http/middleware"
	"marketly.com/app/internal/modules/chat"
	"marketly.com/app/internal/shared/pagination"
)

type ChatHandlers struct {
	chat   *chat.Service
	hub    *chat.Hub
	logger *slog.Logger
}

func NewChatHandlers(chatSvc *chat.Service, hub *chat.Hub, logger *slog.Logger) *ChatHandlers {
	return &ChatHandlers{chat: chatSvc, hub: hub, logger: logger}
}

// GET /api/chat/conversations
func (h *ChatHandlers) Conversations(c *gin.Context) {
	page, err := h.chat.Conversations(c.Request.Context(), middleware.MustUser(c).ID, pageParams(c, pagination.DefaultDashboardSize))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

type startConversationRequest struct {
	ShopID string `json:"shop_id" binding:"required"`
}

// POST /api/chat/conversations
func (h *ChatHandlers) Start(c *gin.Context) {
	var in startConversationRequest
	if !bindJSON(c, &in) {
		return
	}
	conv, err := h.chat.Start(c.Request.Context(), middleware.MustUser(c).ID, in.ShopID)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// GET /api/chat/conversations/:id/messages
func (h *ChatHandlers) Messages(c *gin.Context) {
	page, err := h.chat.Messages(c.Request.Context(), middleware.MustUser(c).ID, c.Param("id"), pageParams(c, pagination.DefaultDashboardSize))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

type sendMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

// POST /api/chat/conversations/:id/messages
func (h *ChatHandlers) Send(c *gin.Context) {
	var in sendMessageRequest
	if !bindJSON(c, &in) {
		return
	}
	m, err := h.chat.Send(c.Request.Context(), middleware.MustUser(c).ID, c.Param("id"), in.Body)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// POST /api/chat/conversations/:id/read
func (h *ChatHandlers) MarkRead(c *gin.Context) {
	n, err := h.chat.MarkRead(c.Request.Context(), middleware.MustUser(c).ID, c.Param("id"))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": n})
}

// GET /ws/chat
func (h *ChatHandlers) Socket(c *gin.Context) {
	u := middleware.MustUser(c)
	if err := h.hub.Serve(c.Writer, c.Request, u.ID); err != nil {
		// the upgrader has already answered the request
		h.logger.Debug("ws_upgrade_failed",
			"request_id", middleware.GetRequestID(c),
			"user_id", u.ID,
			"error", err,
		)
	}
}
