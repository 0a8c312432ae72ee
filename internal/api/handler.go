// Package api exposes approved articles and the on-demand summary and audio
// operations over HTTP.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pders01/bytenews/internal/audio"
	"github.com/pders01/bytenews/internal/debuglog"
	"github.com/pders01/bytenews/internal/news"
	"github.com/pders01/bytenews/internal/storage"
)

type Handler struct {
	svc *news.Service
}

func NewHandler(svc *news.Service) *Handler {
	return &Handler{svc: svc}
}

func RegisterRoutes(r *gin.Engine, h *Handler) {
	a := r.Group("/api")
	{
		a.GET("/articles", h.ListArticles)
		a.GET("/articles/:id", h.GetArticle)
		a.GET("/search", h.Search)
		a.POST("/articles/:id/summary", h.GenerateSummary)
		a.POST("/articles/:id/audio", h.GenerateAudio)
		a.POST("/articles/:id/feedback", h.Feedback)
		a.POST("/articles/:id/approve", h.Approve)
	}
}

// ArticleResponse is the public JSON shape of an article.
type ArticleResponse struct {
	ID            uint64    `json:"id"`
	Title         string    `json:"title"`
	Summary       string    `json:"summary"`
	Content       string    `json:"content"`
	Author        string    `json:"author"`
	PublishedDate time.Time `json:"published_date"`
	Category      string    `json:"category"`
	AudioFile     *string   `json:"audio_file"`
}

func toResponse(a *storage.Article) ArticleResponse {
	resp := ArticleResponse{
		ID:            a.ID,
		Title:         a.Title,
		Summary:       a.Summary,
		Content:       a.Content,
		Author:        a.Author,
		PublishedDate: a.Published,
		Category:      a.Category,
	}
	if a.AudioRef != "" {
		ref := a.AudioRef
		resp.AudioFile = &ref
	}
	return resp
}

func toResponses(articles []*storage.Article) []ArticleResponse {
	out := make([]ArticleResponse, 0, len(articles))
	for _, a := range articles {
		out = append(out, toResponse(a))
	}
	return out
}

// ListArticles: GET /api/articles?category=World&limit=20
func (h *Handler) ListArticles(c *gin.Context) {
	articles, err := h.svc.ListApproved(c.Query("category"), parseLimit(c.DefaultQuery("limit", "50")))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toResponses(articles))
}

// GetArticle: GET /api/articles/:id
func (h *Handler) GetArticle(c *gin.Context) {
	id, ok := articleID(c)
	if !ok {
		return
	}
	article, err := h.svc.GetApproved(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(article))
}

// Search: GET /api/search?q=flood&limit=10
func (h *Handler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing q parameter"})
		return
	}
	articles, err := h.svc.Search(q, parseLimit(c.DefaultQuery("limit", "10")))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toResponses(articles))
}

// GenerateSummary: POST /api/articles/:id/summary
func (h *Handler) GenerateSummary(c *gin.Context) {
	id, ok := articleID(c)
	if !ok {
		return
	}
	article, err := h.svc.GenerateSummary(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": article.ID, "summary": article.Summary})
}

// GenerateAudio: POST /api/articles/:id/audio
func (h *Handler) GenerateAudio(c *gin.Context) {
	id, ok := articleID(c)
	if !ok {
		return
	}
	ref, err := h.svc.GenerateAudio(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "Audio summary generated successfully",
		"audio_url": ref,
	})
}

type feedbackRequest struct {
	Feedback string `json:"feedback" binding:"required"`
}

// Feedback: POST /api/articles/:id/feedback {"feedback": "helpful"}
func (h *Handler) Feedback(c *gin.Context) {
	id, ok := articleID(c)
	if !ok {
		return
	}
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	article, err := h.svc.Feedback(id, req.Feedback)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"helpful_count":     article.HelpfulCount,
		"not_helpful_count": article.NotHelpfulCount,
	})
}

// Approve: POST /api/articles/:id/approve
func (h *Handler) Approve(c *gin.Context) {
	id, ok := articleID(c)
	if !ok {
		return
	}
	if _, err := h.svc.Approve(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"approved": true})
}

func articleID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
		return 0, false
	}
	return id, true
}

func respondError(c *gin.Context, err error) {
	var synthErr *audio.SynthesisError
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, news.ErrNotApproved):
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
	case errors.Is(err, news.ErrInvalidFeedback):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &synthErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		debuglog.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// parseLimit ensures a sane integer limit, with bounds
func parseLimit(s string) int {
	l, err := strconv.Atoi(s)
	if err != nil || l <= 0 {
		return 10
	}
	if l > 200 {
		return 200
	}
	return l
}
