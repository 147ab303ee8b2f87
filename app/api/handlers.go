package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Kwabenabassaw/feed-backend/app/analytics"
	"github.com/Kwabenabassaw/feed-backend/app/database"
	"github.com/Kwabenabassaw/feed-backend/app/feed"
	"github.com/Kwabenabassaw/feed-backend/app/index"
	"github.com/Kwabenabassaw/feed-backend/app/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

var validEventTypes = map[string]bool{
	"impression": true,
	"click":      true,
	"watch":      true,
	"save":       true,
}

func NewHandler(service FeedServiceInterface, pool *index.Pool, hydrator *feed.Hydrator,
	emitter *analytics.Emitter, contentRepo database.ContentRepository, version string) *Handler {
	return &Handler{
		service:     service,
		pool:        pool,
		hydrator:    hydrator,
		emitter:     emitter,
		contentRepo: contentRepo,
		version:     version,
	}
}

func (h *Handler) GetFeed(c *gin.Context) {
	start := time.Now()

	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing X-User-ID header"})
		return
	}

	cursor := c.Query("cursor")
	limit := parseLimit(c.Query("limit"))

	page, err := h.service.GetFeed(c.Request.Context(), userID, cursor, limit)
	if err != nil {
		h.renderFeedError(c, userID, err)
		return
	}

	if h.emitter != nil {
		for i, item := range page.Items {
			h.emitter.Emit(analytics.Event{
				Type:      "impression",
				UserID:    userID,
				SessionID: page.SessionID,
				ItemID:    item.ID,
				Position:  i,
			})
		}
	}

	c.JSON(http.StatusOK, FeedResponse{
		Items:      page.Items,
		SessionID:  page.SessionID,
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
		Degraded:   page.Degraded,
		LatencyMs:  time.Since(start).Milliseconds(),
	})
}

func (h *Handler) renderFeedError(c *gin.Context, userID string, err error) {
	switch {
	case errors.Is(err, feed.ErrInvalidCursor):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cursor"})
	case errors.Is(err, feed.ErrExpiredSession):
		c.JSON(http.StatusGone, gin.H{"error": "Session expired, restart the feed"})
	case errors.Is(err, store.ErrUnavailable):
		slog.Error("Feed request failed, shared store unavailable", "user", userID, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Feed temporarily unavailable"})
	default:
		slog.Error("Feed request failed", "user", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

func (h *Handler) PostEvent(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing X-User-ID header"})
		return
	}

	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event body", "details": err.Error()})
		return
	}

	if !validEventTypes[req.Type] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown event type: " + req.Type})
		return
	}

	h.emitter.Emit(analytics.Event{
		Type:      req.Type,
		UserID:    userID,
		SessionID: req.SessionID,
		ItemID:    req.ItemID,
		Position:  req.Position,
	})

	c.JSON(http.StatusAccepted, gin.H{"accepted": true})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.version,
	}

	if count, err := h.contentRepo.GetItemCount(c.Request.Context()); err == nil {
		health["content_items"] = count
	}

	health["index_buckets"] = len(h.pool.Stats())

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"index": map[string]interface{}{
			"epoch":   h.pool.Epoch(),
			"buckets": h.pool.Stats(),
		},
	}

	hits, misses, size := h.hydrator.Stats()
	stats["hydration_cache"] = map[string]interface{}{
		"hits":   hits,
		"misses": misses,
		"size":   size,
	}

	if h.emitter != nil {
		flushed, dropped, buffered := h.emitter.Stats()
		stats["events"] = map[string]interface{}{
			"flushed":  flushed,
			"dropped":  dropped,
			"buffered": buffered,
		}
	}

	c.JSON(http.StatusOK, stats)
}

func parseLimit(raw string) int {
	if raw == "" {
		return defaultPageSize
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}
