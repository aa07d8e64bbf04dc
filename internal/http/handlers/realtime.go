package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kysclient/foodly-backend/internal/pkg/logger"
	"github.com/kysclient/foodly-backend/internal/pkg/requestdata"
	"github.com/kysclient/foodly-backend/internal/realtime"
)

type RealtimeHandler struct {
	Log *logger.Logger
	Hub *realtime.Hub

	mu      sync.RWMutex
	clients map[uuid.UUID]*realtime.Client // key: SessionID
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{
		Log:     log,
		Hub:     hub,
		clients: make(map[uuid.UUID]*realtime.Client),
	}
}

// GET /api/sse/stream
//
// Every connection is subscribed to the user's own channel, so plan status
// events reach all of a user's open sessions without an explicit subscribe.
func (h *RealtimeHandler) SSEStream(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	userID := rd.UserID
	sessionID := rd.SessionID
	if sessionID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session id"})
		return
	}
	h.Log.Info("SSEStream open", "user_id", userID.String(), "session_id", sessionID.String())

	h.mu.Lock()
	// A session gets one live stream; a reconnect replaces the old one.
	if existing, ok := h.clients[sessionID]; ok {
		h.Hub.CloseClient(existing)
		delete(h.clients, sessionID)
	}
	client := h.Hub.NewClient(userID)
	h.clients[sessionID] = client
	h.mu.Unlock()

	h.Hub.AddChannel(client, realtime.UserChannel(userID))

	h.Hub.ServeHTTP(c.Writer, c.Request, client)

	h.release(sessionID, client)
}

// release tears down a finished stream. The map entry is removed only while it
// still points at this stream's client; a reconnect may already have replaced
// it, and the replacement must stay registered.
func (h *RealtimeHandler) release(sessionID uuid.UUID, client *realtime.Client) {
	h.mu.Lock()
	if cur, ok := h.clients[sessionID]; ok && cur == client {
		delete(h.clients, sessionID)
	}
	h.mu.Unlock()
	h.Hub.CloseClient(client)
}

// POST /api/sse/subscribe
//
// The body names a meal plan, never a raw channel. Channels double as user
// ids, so accepting arbitrary strings would let one user join another's feed.
func (h *RealtimeHandler) SSESubscribe(c *gin.Context) {
	client, channel, ok := h.bindPlanChannelRequest(c)
	if !ok {
		return
	}
	h.Hub.AddChannel(client, channel)
	c.JSON(http.StatusOK, gin.H{"message": "subscribed", "channel": channel})
}

// POST /api/sse/unsubscribe
func (h *RealtimeHandler) SSEUnsubscribe(c *gin.Context) {
	client, channel, ok := h.bindPlanChannelRequest(c)
	if !ok {
		return
	}
	h.Hub.RemoveChannel(client, channel)
	c.JSON(http.StatusOK, gin.H{"message": "unsubscribed", "channel": channel})
}

func (h *RealtimeHandler) bindPlanChannelRequest(c *gin.Context) (*realtime.Client, string, bool) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return nil, "", false
	}
	if rd.SessionID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session id"})
		return nil, "", false
	}

	var req struct {
		MealPlanID string `json:"mealPlanId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.MealPlanID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing meal plan id"})
		return nil, "", false
	}
	planID, err := uuid.Parse(req.MealPlanID)
	if err != nil || planID == uuid.Nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meal plan id"})
		return nil, "", false
	}

	h.mu.RLock()
	client, exists := h.clients[rd.SessionID]
	h.mu.RUnlock()
	if !exists {
		c.JSON(http.StatusConflict, gin.H{"error": "no active SSE connection for this session"})
		return nil, "", false
	}
	return client, realtime.PlanChannel(planID), true
}
