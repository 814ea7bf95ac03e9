package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campusevents/internal/auth"
	"campusevents/internal/campus"
	"campusevents/internal/config"
	"campusevents/internal/handler"
	"campusevents/internal/httpmiddleware"
	"campusevents/internal/metrics"
	"campusevents/internal/queue"
	"campusevents/internal/reportcache"
	"campusevents/internal/store"
	"campusevents/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := run(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func run(cfg config.App) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "campusevents-api", cfg.OTelEndpoint)
	if err != nil {
		log.Printf("warning: tracing disabled: %v", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	checks := map[string]handler.HealthCheck{}

	var st campus.Store
	if cfg.StoreBackend == config.BackendMemory {
		log.Println("using in-memory store; data is lost on restart")
		st = campus.NewMemoryStore()
	} else {
		db, err := store.NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		st = campus.NewRepository(db.Client)
		checks["db"] = db.Healthy
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	var cache *reportcache.Cache
	if cfg.ReportCacheTTL > 0 {
		cache = reportcache.New(redisClient.Client, cfg.ReportCacheTTL)
		checks["redis"] = redisClient.Healthy
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var q queue.Queue
	if cfg.QueueBackend == config.BackendRedis {
		q = queue.NewRedisQueue(redisClient.Client, queue.DefaultKey)
		checks["redis"] = redisClient.Healthy
	} else {
		mem := queue.NewInMemory(256)
		msgs, err := mem.Consume(ctx)
		if err != nil {
			return err
		}
		go cache.Invalidate(ctx, msgs, func(msg queue.Message, err error) {
			m.ActivityConsumed(string(msg.Kind), err)
		})
		q = mem
	}

	h := handler.New(campus.NewService(st), handler.Options{
		Cache:   cache,
		Queue:   q,
		Metrics: m,
		Checks:  checks,
	})

	limiter := httpmiddleware.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Sweep(ctx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:          12 * time.Hour,
	}))
	r.Use(securityHeaders())
	r.Use(limiter.GinMiddleware())
	r.Use(h.Instrument())

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	if !cfg.AuthEnabled() {
		log.Println("warning: JWT_SIGNING_KEY unset, admin routes are open")
	}
	h.Mount(r, auth.RequireRole(cfg.JWTSigningKey, cfg.JWTIssuer, auth.RoleOperator))

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Println("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced shutdown: %v", err)
	}
	log.Println("server exited")
	return nil
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
