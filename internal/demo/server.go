package demo

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/csheth/candyrag/internal/catalog"
	"github.com/csheth/candyrag/internal/i18n"
)

const (
	serviceName     = "AI Candy Store RAG API"
	welcomeMessage  = "Welcome to the AI Candy Store RAG Demo! 🍭"
	resetMessage    = "Demo reset successfully"
	shutdownTimeout = 5 * time.Second
)

// Options configures the demo backend.
type Options struct {
	// Candies replaces the bundled catalog when non-nil. An empty, non-nil
	// slice serves an empty catalog.
	Candies         []catalog.Candy
	SimulateLatency bool
	CacheTTL        time.Duration
	Logger          *zap.Logger
}

// Server is the demo backend: an HTTP API that answers queries with
// synthetic pipeline diagnostics.
type Server struct {
	engine *gin.Engine
	logger *zap.Logger
}

// NewServer wires routes and middleware.
func NewServer(opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("demo")

	candies := opts.Candies
	if candies == nil {
		bundled, err := Catalog()
		if err != nil {
			return nil, err
		}
		candies = bundled
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(requestLogger(logger), gin.Recovery())

	handler := newStoreHandler(NewGenerator(candies, opts.SimulateLatency), newResponseCache(opts.CacheTTL), candies, logger)
	engine.GET("/", handler.Welcome)
	engine.GET("/health", handler.Health)
	engine.GET("/candies", handler.Candies)
	engine.POST("/query", handler.Query)
	engine.POST("/reset", handler.Reset)

	return &Server{engine: engine, logger: logger}, nil
}

// Handler exposes the routes for embedding or httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", listener.Addr().String()))
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.String("request_id", c.GetHeader("X-Request-ID")),
			zap.Duration("duration", time.Since(started)))
	}
}

// storeHandler holds the generator, response cache and catalog.
type storeHandler struct {
	generator *Generator
	cache     *responseCache
	candies   []catalog.Candy
	logger    *zap.Logger
}

func newStoreHandler(generator *Generator, cache *responseCache, candies []catalog.Candy, logger *zap.Logger) *storeHandler {
	return &storeHandler{
		generator: generator,
		cache:     cache,
		candies:   candies,
		logger:    logger,
	}
}

type queryRequest struct {
	Query    string `json:"query" binding:"required"`
	Language string `json:"language" binding:"omitempty,oneof=en fi"`
}

func (h *storeHandler) Welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": welcomeMessage})
}

func (h *storeHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": serviceName})
}

func (h *storeHandler) Candies(c *gin.Context) {
	candies := h.candies
	if candies == nil {
		candies = []catalog.Candy{}
	}
	c.JSON(http.StatusOK, gin.H{"candies": candies})
}

// Query answers from the cache when an equivalent query was seen before.
func (h *storeHandler) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": ErrEmptyQuery.Error()})
		return
	}
	lang := i18n.Default
	if parsed, ok := i18n.Parse(req.Language); ok {
		lang = parsed
	}

	if cached, ok := h.cache.Get(lang, req.Query); ok {
		h.logger.Debug("cache hit", zap.String("language", string(lang)))
		c.JSON(http.StatusOK, cached)
		return
	}

	resp, err := h.generator.Run(c.Request.Context(), req.Query, lang)
	if err != nil {
		h.logger.Error("query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Error processing query: " + err.Error()})
		return
	}
	h.cache.Set(lang, req.Query, resp)
	c.JSON(http.StatusOK, resp)
}

func (h *storeHandler) Reset(c *gin.Context) {
	h.cache.Flush()
	h.logger.Info("demo reset requested")
	c.JSON(http.StatusOK, gin.H{"message": resetMessage})
}
