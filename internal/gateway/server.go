// Package gateway exposes one instrument connection over HTTP. Requests are
// serialized onto the connection; a connection broken by a failed request
// is replaced before the next one.
package gateway

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/spmctl/internal/auth"
	"github.com/danmuck/spmctl/internal/config"
	"github.com/danmuck/spmctl/internal/instrument"
	"github.com/danmuck/spmctl/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type Server struct {
	cfg      config.GatewayConfig
	logger   zerolog.Logger
	router   *gin.Engine
	session  *session
	inst     *instrument.Instrument
	appeared time.Time
}

func New(cfg config.GatewayConfig, logger zerolog.Logger, dial DialFunc) (*Server, error) {
	if err := config.ValidateGatewayConfig(cfg); err != nil {
		return nil, err
	}
	backoff, err := config.RedialBackoff(cfg.Redial)
	if err != nil {
		return nil, err
	}

	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestID())
	r.Use(observability.RequestLogger(logger))
	r.Use(observability.RequestMetricsMiddleware(cfg.Name))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.CorsOrigins),
		AllowMethods: []string{"GET", "PUT", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type", observability.RequestIDHeader},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	sess := newSession(dial, backoff, logger)
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		router:   r,
		session:  sess,
		inst:     instrument.New(sess.locked),
		appeared: time.Now(),
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully and closes
// the instrument connection.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return err
	}
	s.logger.Info().Str("listen", ln.Addr().String()).Msg("gateway listening")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout(s.cfg))
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	err = multierr.Append(g.Wait(), s.session.close())
	s.logger.Info().Msg("gateway stopped")
	return err
}

// Close releases the instrument connection without serving.
func (s *Server) Close() error {
	return s.session.close()
}

func (s *Server) registerRoutes() {
	r := s.router
	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	if s.cfg.RateLimit > 0 {
		v1.Use(rateLimit(rate.NewLimiter(rate.Limit(s.cfg.RateLimit), s.cfg.RateBurst)))
	}
	writes := []gin.HandlerFunc{}
	if s.cfg.AuthToken != "" {
		writes = append(writes, auth.Require(auth.StaticToken{Token: s.cfg.AuthToken}))
	}
	v1.GET("/version", s.version)
	v1.GET("/bias", s.biasGet)
	v1.PUT("/bias", append(writes, s.biasSet)...)
	v1.GET("/signals", s.signals)
	v1.POST("/transact", append(writes, s.transact)...)
}

func rateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "rate limit exceeded",
				"request_id": observability.RequestIDFrom(c),
			})
			return
		}
		c.Next()
	}
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, o := range in {
		if v := strings.TrimSpace(o); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return []string{"http://localhost:3000"}
	}
	return out
}
