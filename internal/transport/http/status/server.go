// Package status exposes a minimal read-only HTTP surface: health, roster,
// recent rounds and latest point totals.
package status

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"perpfarm/internal/logger"
	"perpfarm/internal/registry"
	"perpfarm/internal/store"

	"github.com/gin-gonic/gin"
)

// Server serves the status API.
type Server struct {
	addr   string
	router *gin.Engine
}

// ServerConfig wires the server's read-only dependencies.
type ServerConfig struct {
	Addr     string
	Registry *registry.Registry
	Store    *store.Store
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Registry == nil {
		return nil, errors.New("status server requires account registry")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9982"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.GET("/accounts", func(c *gin.Context) {
		snap := cfg.Registry.Snapshot()
		type row struct {
			Name  string `json:"name"`
			Phone string `json:"phone"`
		}
		rows := make([]row, 0, len(snap.Specs))
		for _, spec := range snap.Specs {
			rows = append(rows, row{Name: spec.Name, Phone: spec.Phone})
		}
		c.JSON(http.StatusOK, gin.H{
			"version":  snap.Version,
			"accounts": rows,
		})
	})
	api.GET("/rounds", func(c *gin.Context) {
		if cfg.Store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store disabled"})
			return
		}
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		recs, err := cfg.Store.RecentRounds(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"rounds": recs})
	})
	api.GET("/points", func(c *gin.Context) {
		if cfg.Store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store disabled"})
			return
		}
		snaps, err := cfg.Store.LatestPoints(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		total := 0
		for _, s := range snaps {
			total += s.Points
		}
		c.JSON(http.StatusOK, gin.H{"points": snaps, "total": total})
	})

	return &Server{addr: cfg.Addr, router: router}, nil
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("status http server listening on %s", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugf("http %s %s -> %d (%s)",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
