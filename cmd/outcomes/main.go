package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wcpay-checkout/internal/application/outcomes"
	"wcpay-checkout/internal/common/configs"
	"wcpay-checkout/internal/common/health"
	"wcpay-checkout/internal/common/logger"
	"wcpay-checkout/internal/common/metrics"
	"wcpay-checkout/internal/infrastructure/dlq"
	"wcpay-checkout/internal/infrastructure/errors"
	"wcpay-checkout/internal/infrastructure/eventbus"
	httphandler "wcpay-checkout/internal/infrastructure/http"
	"wcpay-checkout/internal/infrastructure/orderstore"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	port := configs.PortOutcomesService
	dbURL := configs.GetDatabaseURL()

	l, flush, err := logger.NewZapLogger(configs.ServiceNameOutcomes, configs.GetAppEnv())
	if err != nil {
		panic(err)
	}
	defer flush()

	m := metrics.NewPrometheusCollector("wcpay_outcomes")

	db, err := orderstore.OpenPostgres(dbURL)
	if err != nil {
		l.Error("Failed to initialize database", logger.Field{Key: "error", Value: err})
		os.Exit(1)
	}
	defer db.Close()

	dbErrors := errors.NewDBErrors(db)

	queue := dlq.NewKafkaQueue(configs.GetKafkaBrokers(), configs.TopicDLQ, l)
	defer queue.Close()

	eventBus, err := eventbus.NewEventBus(l)
	if err != nil {
		l.Error("Failed to initialize event bus", logger.Field{Key: "error", Value: err})
		os.Exit(1)
	}
	defer eventBus.Close()

	service := outcomes.NewService(eventBus, queue, dbErrors, m, l)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := service.Start(ctx); err != nil {
		l.Error("Failed to start consumers", logger.Field{Key: "error", Value: err})
		os.Exit(1)
	}
	l.Info("Event consumers started")

	router := setupRouter(dbErrors, health.NewDBHealthChecker(db), m)

	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	l.Info("Starting outcomes service", logger.Field{Key: "port", Value: port})

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Error("Server failed", logger.Field{Key: "error", Value: err})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		l.Error("Server forced to shutdown", logger.Field{Key: "error", Value: err})
	}
}

func setupRouter(dbErrors *errors.DBErrors, hc health.HealthChecker, m *metrics.PrometheusCollector) *gin.Engine {
	router := gin.Default()

	router.GET("/health", httphandler.HealthHandler(hc))
	router.GET("/metrics", gin.WrapH(m.Handler()))

	router.GET("/api/errors", func(c *gin.Context) {
		entries, err := dbErrors.GetUnresolvedErrors(c.Request.Context(), 100)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		views := make([]gin.H, 0, len(entries))
		for _, e := range entries {
			views = append(views, errorView(e))
		}
		c.JSON(http.StatusOK, views)
	})
	router.POST("/api/errors/:id/resolve", func(c *gin.Context) {
		errorID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid error id"})
			return
		}
		if err := dbErrors.MarkAsResolved(c.Request.Context(), errorID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	})

	return router
}

func errorView(e errors.ErrorLog) gin.H {
	view := gin.H{
		"error_id":          e.ErrorID,
		"dlq_entry_id":      e.DLQEntryID,
		"error_type":        e.ErrorType,
		"error_reason":      e.ErrorReason,
		"original_event":    json.RawMessage(e.OriginalEvent),
		"retry_history":     json.RawMessage(e.RetryHistory),
		"first_occurred_at": e.FirstOccurredAt,
		"last_occurred_at":  e.LastOccurredAt,
		"created_at":        e.CreatedAt,
	}
	if e.OrderID.Valid {
		view["order_id"] = e.OrderID.Int64
	}
	if e.IntentID.Valid {
		view["intent_id"] = e.IntentID.String
	}
	return view
}
