// Package api serves the curated collection over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"hallyu-journalist/internal/model"
	"hallyu-journalist/internal/storage"
)

type Handler struct {
	store      storage.ReadStore
	categories map[model.Category]bool
}

func NewHandler(store storage.ReadStore, categories []model.Category) *Handler {
	h := &Handler{store: store, categories: map[model.Category]bool{}}
	for _, c := range categories {
		h.categories[c] = true
	}
	return h
}

// Register mounts the routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/health", h.GetHealth)
	r.GET("/news", h.GetNews)
	r.GET("/news/:id", h.GetNewsItem)
	r.POST("/news/:id/like", h.React(storage.ReactionLike))
	r.POST("/news/:id/dislike", h.React(storage.ReactionDislike))
	r.GET("/rankings", h.GetRankings)
	r.GET("/keywords", h.GetKeywords)
	r.GET("/archive", h.GetArchive)
}

func (h *Handler) GetHealth(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "disconnected",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "connected",
	})
}

// category reads the required category parameter. It writes the error
// response and returns false when the value is missing or unknown.
func (h *Handler) category(c *gin.Context, required bool) (model.Category, bool) {
	raw := c.Query("category")
	if raw == "" && !required {
		return "", true
	}
	cat := model.Category(raw)
	if !h.categories[cat] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown category"})
		return "", false
	}
	return cat, true
}

func (h *Handler) GetNews(c *gin.Context) {
	cat, ok := h.category(c, true)
	if !ok {
		return
	}
	limit := getQueryLimit(c, 30)
	items, err := h.store.ListNews(c.Request.Context(), cat, limit)
	if err != nil {
		slog.Error("api: error fetching news", "category", cat, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	res := NewsListResponse{Category: string(cat), Items: []NewsResponse{}}
	for _, it := range items {
		res.Items = append(res.Items, newsResponse(it))
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetNewsItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	it, err := h.store.GetNews(c.Request.Context(), id)
	if err != nil {
		slog.Error("api: error fetching news item", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if it == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "News not found"})
		return
	}
	c.JSON(http.StatusOK, newsResponse(*it))
}

func (h *Handler) React(reaction string) gin.HandlerFunc {
	like := reaction == storage.ReactionLike
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		it, err := h.store.React(c.Request.Context(), id, like)
		if err != nil {
			slog.Error("api: error recording reaction", "id", id, "reaction", reaction, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		if it == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "News not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": it.ID, "likes": it.Likes, "dislikes": it.Dislikes})
	}
}

func (h *Handler) GetRankings(c *gin.Context) {
	cat, ok := h.category(c, true)
	if !ok {
		return
	}
	entries, err := h.store.ListRankings(c.Request.Context(), cat)
	if err != nil {
		slog.Error("api: error fetching rankings", "category", cat, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	res := RankingsResponse{Category: string(cat), Rankings: []RankingResponse{}}
	for _, e := range entries {
		res.Rankings = append(res.Rankings, RankingResponse{
			Rank:      e.Rank,
			Title:     e.Title,
			MetaInfo:  e.MetaInfo,
			Score:     e.Score,
			UpdatedAt: e.UpdatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetKeywords(c *gin.Context) {
	kws, err := h.store.ListKeywords(c.Request.Context())
	if err != nil {
		slog.Error("api: error fetching keywords", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	res := []KeywordResponse{}
	for _, k := range kws {
		res = append(res, KeywordResponse{Keyword: k.Keyword, Count: k.Count, Rank: k.Rank, UpdatedAt: k.UpdatedAt.Format(time.RFC3339)})
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetArchive(c *gin.Context) {
	cat, ok := h.category(c, false)
	if !ok {
		return
	}
	limit := getQueryLimit(c, 20)
	offset := getQueryOffset(c)
	recs, total, err := h.store.ListArchive(c.Request.Context(), cat, limit, offset)
	if err != nil {
		slog.Error("api: error fetching archive", "category", cat, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	res := ArchiveListResponse{Records: []ArchiveResponse{}, Total: total, Limit: limit, Offset: offset}
	for _, r := range recs {
		res.Records = append(res.Records, ArchiveResponse{
			Category:    string(r.Category),
			Keyword:     r.Keyword,
			Title:       r.Title,
			Summary:     r.Summary,
			Link:        r.Link,
			ImageURL:    r.ImageURL,
			Score:       r.Score,
			Rank:        r.Rank,
			ArchivedAt:  r.ArchivedAt.Format(time.RFC3339),
			PublishedAt: formatTime(r.PublishedAt),
		})
	}
	c.JSON(http.StatusOK, res)
}

func newsResponse(it model.NewsItem) NewsResponse {
	return NewsResponse{
		ID:          it.ID,
		Category:    string(it.Category),
		Keyword:     it.Keyword,
		Title:       it.Title,
		Summary:     it.Summary,
		Link:        it.Link,
		ImageURL:    it.ImageURL,
		Score:       it.Score,
		Rank:        it.Rank,
		Likes:       it.Likes,
		Dislikes:    it.Dislikes,
		CreatedAt:   it.CreatedAt.Format(time.RFC3339),
		PublishedAt: formatTime(it.PublishedAt),
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func parseID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		slog.Warn("api: invalid news id", "id", raw)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid news id"})
		return 0, false
	}
	return id, true
}

func getQueryInt(name string, defaultValue int, c *gin.Context) int {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("api: invalid query parameter, using default", "param", name, "value", raw, "error", err)
		return defaultValue
	}
	return v
}

func getQueryLimit(c *gin.Context, defaultLimit int) int {
	const maxLimit = 100
	limit := getQueryInt("limit", defaultLimit, c)
	if limit < 1 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func getQueryOffset(c *gin.Context) int {
	offset := getQueryInt("offset", 0, c)
	if offset < 0 {
		return 0
	}
	return offset
}
