package observability

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/danmuck/beatbridge/internal/bridge"
)

// MetricsServer exposes the running bridge's telemetry over HTTP while a
// simulation is in flight: prometheus text on /metrics, a JSON snapshot on
// /telemetry, and the usual health probe.
type MetricsServer struct {
	addr     string
	source   func() bridge.Telemetry
	logger   zerolog.Logger
	appeared time.Time
}

func NewMetricsServer(addr string, source func() bridge.Telemetry, logger zerolog.Logger) *MetricsServer {
	return &MetricsServer{
		addr:     addr,
		source:   source,
		logger:   logger,
		appeared: time.Now(),
	}
}

func (s *MetricsServer) Routes() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(s.logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"uptime":    time.Since(s.appeared).String(),
			"component": "beatbridge",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/telemetry", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.source())
	})
	return r
}

// Serve registers the bridge collectors and blocks on the listener.
func (s *MetricsServer) Serve() error {
	RegisterBridge(s.source)
	s.logger.Info().Str("addr", s.addr).Msg("metrics server listening")
	return http.ListenAndServe(s.addr, s.Routes())
}
