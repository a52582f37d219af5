// Package server exposes the HTTP API: health, per-ticker sentiment with a
// TTL cache in front of the analysis pipeline, and cache management.
package server

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"sentiflow/cache"
	"sentiflow/config"
	"sentiflow/logger"
	"sentiflow/models"
	"sentiflow/sentiment"
)

const shutdownTimeout = 5 * time.Second

// Analyzer produces a sentiment report for a ticker. Satisfied by
// sentiment.Aggregator; tests substitute a stub.
type Analyzer interface {
	Run(ctx context.Context, ticker string) (*models.SentimentReport, error)
}

// Server hosts the SentiFlow HTTP API.
type Server struct {
	cfg        config.ServerConfig
	log        *logger.Log
	analyzer   Analyzer
	store      *cache.Store[*models.SentimentReport]
	ttl        time.Duration
	httpServer *http.Server
	now        func() time.Time
}

// NewServer wires the API server to its analyzer and report cache.
func NewServer(cfg config.ServerConfig, analyzer Analyzer, store *cache.Store[*models.SentimentReport], ttl time.Duration, log *logger.Log) *Server {
	cfg.Address = normalizeAddress(cfg.Address)
	return &Server{
		cfg:      cfg,
		log:      log,
		analyzer: analyzer,
		store:    store,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Run starts the HTTP server and blocks until the context is cancelled or
// the listener fails.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:    s.cfg.Address,
		Handler: s.buildRouter(),
	}

	s.log.WithComponent("server").WithFields(logger.Fields{
		"address": s.cfg.Address,
	}).Info("HTTP API listening")

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if err == nil {
			return nil
		}
		return err
	}
}

// Address reports the normalized listen address.
func (s *Server) Address() string {
	return s.cfg.Address
}

func (s *Server) buildRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), corsMiddleware(), s.requestLog())

	api := router.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/sentiment/:ticker", s.handleSentiment)
	api.GET("/cache/stats", s.handleCacheStats)
	api.POST("/cache/clear", s.handleCacheClear)

	return router
}

// sentimentResponse is a report plus cache metadata. CacheAge is seconds
// since the cached report was generated; it is set on every hit, zero
// included, and omitted on misses.
type sentimentResponse struct {
	*models.SentimentReport
	Cached   bool `json:"cached"`
	CacheAge *int `json:"cacheAge,omitempty"`
}

func (s *Server) handleSentiment(c *gin.Context) {
	logger.IncrementRequest()
	log := s.log.WithComponent("server")

	symbol, err := sentiment.NormalizeTicker(c.Param("ticker"))
	if err != nil {
		logger.IncrementCacheMiss()
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Invalid ticker",
			"message": err.Error(),
		})
		return
	}

	key := "sentiment:" + symbol
	if report, ok := s.store.Get(key); ok {
		logger.IncrementCacheHit()
		age := int(math.Round(s.now().Sub(report.GeneratedAt).Seconds()))
		if age < 0 {
			age = 0
		}
		log.WithFields(logger.Fields{"ticker": symbol, "cache_age_s": age}).Debug("cache hit")
		c.JSON(http.StatusOK, sentimentResponse{SentimentReport: report, Cached: true, CacheAge: &age})
		return
	}
	logger.IncrementCacheMiss()

	report, err := s.analyzer.Run(c.Request.Context(), symbol)
	if err != nil {
		if errors.Is(err, sentiment.ErrInvalidTicker) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Invalid ticker",
				"message": err.Error(),
			})
			return
		}
		log.WithError(err).WithFields(logger.Fields{"ticker": symbol}).Error("analysis failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to analyze sentiment",
			"message": err.Error(),
		})
		return
	}

	s.store.SetTTL(key, report, s.ttl)
	c.JSON(http.StatusOK, sentimentResponse{SentimentReport: report, Cached: false})
}

func (s *Server) handleHealth(c *gin.Context) {
	logger.IncrementRequest()
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"cache":     s.store.Stats(),
	})
}

func (s *Server) handleCacheStats(c *gin.Context) {
	logger.IncrementRequest()
	c.JSON(http.StatusOK, s.store.Stats())
}

func (s *Server) handleCacheClear(c *gin.Context) {
	logger.IncrementRequest()
	s.store.Clear()
	s.log.WithComponent("server").Info("cache cleared")
	c.JSON(http.StatusOK, gin.H{"message": "Cache cleared"})
}

func (s *Server) requestLog() gin.HandlerFunc {
	log := s.log.WithComponent("server")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logger.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Debug("request handled")
	}
}

// corsMiddleware allows any origin; the API serves public read-mostly data
// to browser dashboards.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func normalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)

	if addr == "" {
		return "0.0.0.0:3001"
	}

	if strings.Contains(addr, "://") {
		if parsed, err := url.Parse(addr); err == nil {
			if host := parsed.Host; host != "" {
				addr = host
			} else if parsed.Opaque != "" {
				addr = parsed.Opaque
			}
		}
	}

	if strings.HasPrefix(addr, ":") {
		if len(addr) > 1 && addr[1] >= '0' && addr[1] <= '9' {
			return "0.0.0.0" + addr
		}
	}

	host, port, err := net.SplitHostPort(addr)
	if err == nil {
		if host == "" || host == "*" {
			host = "0.0.0.0"
		}
		if port == "" {
			port = "3001"
		}
		return net.JoinHostPort(host, port)
	}

	if ip := net.ParseIP(addr); ip != nil {
		return net.JoinHostPort(addr, "3001")
	}

	if !strings.Contains(addr, ":") {
		return net.JoinHostPort(addr, "3001")
	}

	return addr
}
