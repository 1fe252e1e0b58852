package api

import (
	"context"
	"errors"
	log "log/slog"
	"net/http"
	"time"

	"github.com/axellelanca/portfolio/internal/content"
	apperrors "github.com/axellelanca/portfolio/internal/errors"
	"github.com/axellelanca/portfolio/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger checks that the store answers. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Dependencies groups what the routes need. Catalog and DB may be nil.
type Dependencies struct {
	Metrics *services.MetricsService
	Contact *services.ContactService
	Catalog *content.Catalog
	DB      Pinger
}

// SetupRoutes configures all Gin API routes and injects necessary dependencies.
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	// Health Check Route - used by load balancers and uptime checks
	router.GET("/health", HealthCheckHandler(deps.DB))

	// Prometheus scrape endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.POST("/views/:slug", RecordViewHandler(deps.Metrics))
		api.GET("/views/:slug", GetViewsHandler(deps.Metrics))

		api.POST("/likes/:slug", RecordLikeHandler(deps.Metrics))
		api.GET("/likes/:slug", GetLikesHandler(deps.Metrics))

		api.POST("/contact", ContactHandler(deps.Contact))
		api.GET("/projects", ListProjectsHandler(deps.Catalog, deps.Metrics))
	}
}

// HealthCheckHandler handles the /health route. It answers 503 when the
// store does not respond to a ping.
func HealthCheckHandler(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			log.WarnContext(ctx, "Health check: database unreachable", "err", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "connected"})
	}
}

// ViewResponse is the body of POST /api/views/:slug.
type ViewResponse struct {
	Views       int64 `json:"views"`
	RateLimited bool  `json:"rateLimited"`
}

// MetricsResponse is the body of GET /api/views/:slug.
type MetricsResponse struct {
	Views int64 `json:"views"`
	Likes int64 `json:"likes"`
}

// LikeResponse is the body of both /api/likes/:slug routes. Message is only
// set on a duplicate like.
type LikeResponse struct {
	Likes        int64  `json:"likes"`
	AlreadyLiked bool   `json:"alreadyLiked"`
	Message      string `json:"message,omitempty"`
}

// RecordViewHandler counts one view of the slug, at most once per visitor
// and view window.
func RecordViewHandler(metrics *services.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := metrics.RecordView(c.Request.Context(), VisitorKey(c.Request), c.Param("slug"))
		if err != nil {
			respondError(c, err, "Failed to update views")
			return
		}
		c.JSON(http.StatusOK, ViewResponse{Views: res.Views, RateLimited: res.RateLimited})
	}
}

// GetViewsHandler returns both counters of the slug.
func GetViewsHandler(metrics *services.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		counts, err := metrics.GetMetrics(c.Request.Context(), c.Param("slug"))
		if err != nil {
			respondError(c, err, "Failed to get views")
			return
		}
		c.JSON(http.StatusOK, MetricsResponse{Views: counts.Views, Likes: counts.Likes})
	}
}

// RecordLikeHandler credits the visitor's like, once ever per slug.
func RecordLikeHandler(metrics *services.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := metrics.RecordLike(c.Request.Context(), VisitorKey(c.Request), c.Param("slug"))
		if err != nil {
			respondError(c, err, "Failed to update likes")
			return
		}
		c.JSON(http.StatusOK, LikeResponse{Likes: res.Likes, AlreadyLiked: res.AlreadyLiked, Message: res.Message})
	}
}

// GetLikesHandler returns the like count and whether this visitor already liked.
func GetLikesHandler(metrics *services.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		slug := c.Param("slug")

		liked, err := metrics.HasLiked(ctx, VisitorKey(c.Request), slug)
		if err != nil {
			respondError(c, err, "Failed to get likes")
			return
		}
		counts, err := metrics.GetMetrics(ctx, slug)
		if err != nil {
			respondError(c, err, "Failed to get likes")
			return
		}
		c.JSON(http.StatusOK, LikeResponse{Likes: counts.Likes, AlreadyLiked: liked})
	}
}

// ContactHandler stores a contact form submission.
func ContactHandler(contact *services.ContactService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.ContactRequest

		// Gin validates lengths and email format from the binding tags
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid form data"})
			return
		}

		msg, err := contact.Submit(c.Request.Context(), VisitorKey(c.Request), req)
		if err != nil {
			respondError(c, err, "Failed to send message")
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Message sent successfully", "id": msg.ID})
	}
}

// ProjectResponse is a catalog entry with its counters.
type ProjectResponse struct {
	content.Project
	Views int64 `json:"views"`
	Likes int64 `json:"likes"`
}

// ListProjectsHandler lists the catalog, newest first, joined with the
// counters. ?featured=true keeps featured projects only.
func ListProjectsHandler(catalog *content.Catalog, metrics *services.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if catalog == nil {
			c.JSON(http.StatusOK, []ProjectResponse{})
			return
		}

		projects := catalog.All()
		if c.Query("featured") == "true" {
			projects = catalog.Featured()
		}

		counts, err := metrics.AllMetrics(c.Request.Context())
		if err != nil {
			respondError(c, err, "Failed to get projects")
			return
		}

		out := make([]ProjectResponse, 0, len(projects))
		for _, p := range projects {
			m := counts[p.Slug]
			out = append(out, ProjectResponse{Project: p, Views: m.Views, Likes: m.Likes})
		}
		c.JSON(http.StatusOK, out)
	}
}

// respondError maps service errors to a status code. Storage causes are
// logged by the services and never echoed to the client.
func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidSlug):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid slug"})
	case errors.Is(err, apperrors.ErrInvalidMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid form data"})
	case errors.Is(err, apperrors.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, please try again later"})
	default:
		if !errors.Is(err, apperrors.ErrStorageUnavailable) {
			log.ErrorContext(c.Request.Context(), "Unexpected handler error", "path", c.FullPath(), "err", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
