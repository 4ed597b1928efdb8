package server

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/nixlim/chat-top/internal/chart"
	"github.com/nixlim/chat-top/internal/events"
	"github.com/nixlim/chat-top/internal/fetch"
	"github.com/nixlim/chat-top/internal/projector"
	"github.com/nixlim/chat-top/internal/state"
)

func (s *Service) initRouter() {
	s.router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	api := s.router.Group("/api/v1")
	{
		api.GET("/stats", s.handleStats)
		api.GET("/recent", s.handleRecent)
		api.GET("/events", s.handleEvents)
		api.GET("/chart/:section/:index", s.handleChart)
	}
}

func (s *Service) queryFrom(c *gin.Context) fetch.Query {
	q := fetch.Query{
		ChatID:   strings.TrimSpace(c.Query("chatId")),
		FromDate: strings.TrimSpace(c.Query("fromDate")),
	}
	if q.ChatID == "" {
		q.ChatID = s.defaults.ChatID
	}
	if q.FromDate == "" {
		q.FromDate = s.defaults.FromDate
	}
	return q
}

// project fetches and projects the record for the request's query. On
// failure it writes the error response and returns false.
func (s *Service) project(c *gin.Context) (fetch.Query, projector.Projection, bool) {
	q, err := s.queryFrom(c).Normalize()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query", "detail": err.Error()})
		return q, projector.Projection{}, false
	}

	rec, err := s.fetcher.Fetch(c.Request.Context(), q)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, fetch.ErrInvalidQuery) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": "fetching stats failed", "detail": err.Error()})
		return q, projector.Projection{}, false
	}

	if _, err := state.Remember(s.store, q.ChatID); err != nil {
		log.Warn().Err(err).Str("chat_id", q.ChatID).Msg("failed to remember chat id")
	}
	return q, s.projector.Project(rec), true
}

func (s *Service) handleStats(c *gin.Context) {
	q, proj, ok := s.project(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"chatId":                q.ChatID,
		"fromDate":              q.FromDate,
		"classificationVersion": s.projector.Classification().Version,
		"projection":            proj,
	})
}

func (s *Service) handleRecent(c *gin.Context) {
	ids, err := s.store.Load()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"ids": ids})
}

// handleEvents lists fetch activity oldest first, optionally filtered by
// chatId and kind.
func (s *Service) handleEvents(c *gin.Context) {
	list := []events.FormattedEvent{}
	if s.events != nil {
		chatID := strings.TrimSpace(c.Query("chatId"))
		kind := strings.TrimSpace(c.Query("kind"))
		var found []events.FormattedEvent
		switch {
		case chatID != "":
			found = s.events.ListByChat(chatID)
		case kind != "":
			found = s.events.ListByKind(kind)
		default:
			found = s.events.ListAll()
		}
		for _, e := range found {
			if kind != "" && e.Kind != kind {
				continue
			}
			list = append(list, e)
		}
	}
	c.JSON(http.StatusOK, gin.H{"events": list})
}

func (s *Service) handleChart(c *gin.Context) {
	section := c.Param("section")
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be a non-negative integer"})
		return
	}

	_, proj, ok := s.project(c)
	if !ok {
		return
	}

	series, known := proj.Section(section)
	if !known {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown chart section", "section": section})
		return
	}
	if !proj.ChartsEnabled {
		c.JSON(http.StatusNotFound, gin.H{
			"error":          "charts are disabled for this chat",
			"contactDays":    proj.ContactDays,
			"minContactDays": s.projector.Classification().MinContactDays,
		})
		return
	}
	if index >= len(series) {
		c.JSON(http.StatusNotFound, gin.H{"error": "chart index out of range", "count": len(series)})
		return
	}

	var buf bytes.Buffer
	if err := chart.RenderPNG(&buf, series[index], chart.Options{}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "rendering chart failed", "detail": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}
