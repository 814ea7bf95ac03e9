package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campusevents/internal/config"
	"campusevents/internal/metrics"
	"campusevents/internal/queue"
	"campusevents/internal/reportcache"
	"campusevents/internal/store"
)

// Worker drains the Redis activity queue and drops stale cached reports.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.QueueBackend != config.BackendRedis {
		log.Fatalf("worker needs QUEUE_BACKEND=redis; the memory queue is consumed inside the api process")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()
	if !redisClient.Healthy(ctx) {
		log.Printf("WARNING: redis at %s not reachable yet, consumer will keep retrying", cfg.RedisAddr)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	metricsSrv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server: %v", err)
		}
	}()

	q := queue.NewRedisQueue(redisClient.Client, queue.DefaultKey)
	cache := reportcache.New(redisClient.Client, cfg.ReportCacheTTL)

	msgs, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	cache.Invalidate(ctx, msgs, func(msg queue.Message, err error) {
		m.ActivityConsumed(string(msg.Kind), err)
		if err == nil {
			log.Printf("purged reports after %s (registration=%s event=%s)", msg.Kind, msg.RegistrationID, msg.EventID)
		}
	})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Println("worker stopped")
}
