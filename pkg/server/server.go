package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/elonfeng/toughnews/internal/archive"
	"github.com/elonfeng/toughnews/internal/pipeline"
	"github.com/elonfeng/toughnews/internal/store"
	"github.com/elonfeng/toughnews/pkg/source"
)

const (
	defaultArchiveLimit = 10
	maxArchiveLimit     = 100
)

// Runner triggers a batch run on demand.
type Runner interface {
	RunOnce(ctx context.Context) (pipeline.Result, error)
}

// Options configures the HTTP server.
type Options struct {
	Port           int
	ArticlesKey    string
	AllowedOrigins []string
}

// Server provides the HTTP API.
type Server struct {
	store       store.Store
	archiver    *archive.Archiver
	runner      Runner
	articlesKey string
	port        int
	origins     []string
	logger      *log.Logger
}

// New creates a new HTTP server.
func New(s store.Store, archiver *archive.Archiver, runner Runner, opts Options, logger *log.Logger) *Server {
	if opts.Port == 0 {
		opts.Port = 8080
	}
	if opts.ArticlesKey == "" {
		opts.ArticlesKey = "articles"
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		store:       s,
		archiver:    archiver,
		runner:      runner,
		articlesKey: opts.ArticlesKey,
		port:        opts.Port,
		origins:     opts.AllowedOrigins,
		logger:      logger.WithPrefix("server"),
	}
}

// Handler builds the gin router.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	if len(s.origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: s.origins,
			AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type"},
		}))
	}

	r.GET("/health", s.handleHealth)
	v1 := r.Group("/api/v1")
	v1.GET("/articles", s.handleArticles)
	v1.PUT("/articles/shown", s.handleSetShown)
	v1.GET("/archive", s.handleArchive)
	v1.POST("/run", s.handleRun)
	return r
}

// ListenAndServe starts the HTTP server and shuts it down when ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleArticles(c *gin.Context) {
	articles, err := store.LoadArticles(c.Request.Context(), s.store, s.articlesKey, s.logger)
	if err != nil {
		s.logger.Error("error loading articles", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store error"})
		return
	}

	if raw := c.Query("shown"); raw != "" {
		want, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "shown must be true or false"})
			return
		}
		articles = filterShown(articles, want)
	}
	if articles == nil {
		articles = []source.Article{}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  articles,
		"count": len(articles),
	})
}

func filterShown(articles []source.Article, shown bool) []source.Article {
	out := make([]source.Article, 0, len(articles))
	for _, a := range articles {
		if a.Shown == shown {
			out = append(out, a)
		}
	}
	return out
}

// ShownRequest is the body of PUT /api/v1/articles/shown.
type ShownRequest struct {
	Key   string `json:"key" binding:"required"`
	Shown *bool  `json:"shown" binding:"required"`
}

func (s *Server) handleSetShown(c *gin.Context) {
	var req ShownRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"key\": string, \"shown\": bool}"})
		return
	}

	err := store.SetShown(c.Request.Context(), s.store, s.articlesKey, req.Key, *req.Shown, s.logger)
	if errors.Is(err, store.ErrArticleNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return
	}
	if err != nil {
		s.logger.Error("error updating article", "key", req.Key, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": req.Key, "shown": *req.Shown})
}

func (s *Server) handleArchive(c *gin.Context) {
	limit := queryLimit(c)

	snaps, err := s.archiver.Recent(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("error loading archive", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store error"})
		return
	}
	if snaps == nil {
		snaps = []archive.Snapshot{}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  snaps,
		"count": len(snaps),
	})
}

func (s *Server) handleRun(c *gin.Context) {
	res, err := s.runner.RunOnce(c.Request.Context())
	if err != nil {
		s.logger.Error("run failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func queryLimit(c *gin.Context) int {
	raw := c.Query("limit")
	if raw == "" {
		return defaultArchiveLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return defaultArchiveLimit
	}
	if limit > maxArchiveLimit {
		return maxArchiveLimit
	}
	return limit
}
