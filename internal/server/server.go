package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ledcanvas/internal/artifact"
	"ledcanvas/internal/events"
	"ledcanvas/internal/models"
)

const (
	ownerHeader = "X-Owner-ID"
	ownerKey    = "owner_id"
	uploadsPath = "/uploads"

	defaultPublishTimeout = 5 * time.Second
)

type ArtifactStore interface {
	Persist(ctx context.Context, req artifact.PersistRequest) (*models.Artifact, error)
}

type ArtifactRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Artifact, error)
	List(ctx context.Context) ([]models.Artifact, error)
}

// BlobReader resolves stored artifacts. Path rejects keys that are not plain,
// visible file names, which keeps in-flight temp files unreachable.
type BlobReader interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Path(key string) (string, error)
}

type Deps struct {
	Store ArtifactStore
	Repo  ArtifactRepository
	Blobs BlobReader
	// Publisher may be nil.
	Publisher events.Publisher
	// PublishTimeout bounds each event publish. Zero means 5s.
	PublishTimeout time.Duration
}

type Server struct {
	cfg    *models.Config
	router *gin.Engine
	http   *http.Server
	deps   Deps
	logger *slog.Logger

	publishing sync.WaitGroup
}

func NewServer(cfg *models.Config, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	s := &Server{cfg: cfg, router: r, deps: deps, logger: logger.With("component", "server")}

	if s.deps.PublishTimeout <= 0 {
		s.deps.PublishTimeout = defaultPublishTimeout
	}

	r.Use(gin.Recovery(), s.requestLogger())
	r.GET(uploadsPath+"/:filename", s.handleUploadedFile)
	r.HEAD(uploadsPath+"/:filename", s.handleUploadedFile)

	limited := r.Group("/", s.limitBody(cfg.MaxUploadBytes()), s.requireOwner())
	limited.POST("/upload", s.handleUpload)
	limited.POST("/save_drawing", s.handleSaveDrawing)

	api := r.Group("/api")
	api.GET("/displays", s.handleListDisplays)
	api.GET("/images", s.handleListImages)
	api.GET("/download/:id", s.handleDownload)
	api.GET("/image/:id/rgb", s.handleImageRGB)

	s.http = &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.cfg.ServerAddr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the HTTP server down, then waits for in-flight event publishes
// until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	err := s.http.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		s.publishing.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("event publishes still pending at shutdown")
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// limitBody rejects bodies over limit bytes with 413.
func (s *Server) limitBody(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request entity too large"})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// requireOwner reads the owner id set by the upstream auth proxy.
func (s *Server) requireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.GetHeader(ownerHeader), 10, 64)
		if err != nil || id <= 0 {
			s.fail(c, fmt.Errorf("%w: %s header required", ErrUnauthorized, ownerHeader))
			c.Abort()
			return
		}
		c.Set(ownerKey, id)
		c.Next()
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := MapHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
	} else {
		s.logger.Debug("request rejected", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": userMessage(err)})
}

// publish announces a stored artifact off the request goroutine. The artifact
// is already durable, so failures are only logged and never reach the client.
func (s *Server) publish(ctx context.Context, a *models.Artifact) {
	if s.deps.Publisher == nil {
		return
	}

	ev := *a
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.deps.PublishTimeout)
	s.publishing.Add(1)
	go func() {
		defer s.publishing.Done()
		defer cancel()
		if err := s.deps.Publisher.ArtifactCreated(ctx, &ev); err != nil {
			s.logger.Warn("failed to publish artifact event", "id", ev.ID, "error", err)
		}
	}()
}
