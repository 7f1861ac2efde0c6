package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	ContentLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "content_loads_total",
		Help: "Загрузки каталога по источникам (local/remote/fallback)",
	}, []string{"source"})

	MissionsCompletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "missions_completed_total",
		Help: "Выполненные миссии",
	})

	LessonsStudiedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lessons_studied_total",
		Help: "Изученные уроки",
	})

	ImportsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "admin_imports_total",
		Help: "Слияния импорта в админке",
	})

	ImportItemsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_import_items_total",
		Help: "Элементы импорта по результату (inserted/renamed/invalid/ignored)",
	}, []string{"result"})

	ImportMergeSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "admin_import_merge_seconds",
		Help:    "Время слияния импорта",
		Buckets: prometheus.DefBuckets,
	})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		ContentLoadsTotal,
		MissionsCompletedTotal,
		LessonsStudiedTotal,
		ImportsTotal,
		ImportItemsTotal,
		ImportMergeSeconds,
	)
}

// IncContentLoad увеличивает счётчик загрузок каталога.
func IncContentLoad(source string) {
	ContentLoadsTotal.WithLabelValues(source).Inc()
}

// ObserveImport записывает счётчики и длительность одного слияния.
func ObserveImport(inserted, renamed, invalid, ignored int, start time.Time) {
	ImportsTotal.Inc()
	ImportItemsTotal.WithLabelValues("inserted").Add(float64(inserted))
	ImportItemsTotal.WithLabelValues("renamed").Add(float64(renamed))
	ImportItemsTotal.WithLabelValues("invalid").Add(float64(invalid))
	ImportItemsTotal.WithLabelValues("ignored").Add(float64(ignored))
	ImportMergeSeconds.Observe(time.Since(start).Seconds())
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
	}()
}
