package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wcpay-checkout/internal/application/checkout"
	"wcpay-checkout/internal/application/outcomes"
	"wcpay-checkout/internal/application/payment/services"
	"wcpay-checkout/internal/application/payment/state"
	"wcpay-checkout/internal/common/configs"
	"wcpay-checkout/internal/common/health"
	"wcpay-checkout/internal/common/logger"
	"wcpay-checkout/internal/common/metrics"
	"wcpay-checkout/internal/infrastructure/dlq"
	"wcpay-checkout/internal/infrastructure/eventbus"
	httphandler "wcpay-checkout/internal/infrastructure/http"
	"wcpay-checkout/internal/infrastructure/mock"
	"wcpay-checkout/internal/infrastructure/orderstore"
	"wcpay-checkout/internal/infrastructure/stripe"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	outcomeBufferSize = 1024
	outcomeWorkers    = 4
)

func main() {
	dbURL := configs.GetDatabaseURL()
	port := configs.PortCheckoutService

	l, flush, err := logger.NewZapLogger(configs.ServiceNameCheckout, configs.GetAppEnv())
	if err != nil {
		panic(err)
	}
	defer flush()

	m := metrics.NewPrometheusCollector("wcpay_checkout")

	db, err := orderstore.OpenPostgres(dbURL)
	if err != nil {
		l.Error("Failed to initialize database", logger.Field{Key: "error", Value: err})
		os.Exit(1)
	}
	defer db.Close()

	orders := orderstore.NewPostgresStore(db)

	eventBus, err := eventbus.NewEventBus(l)
	if err != nil {
		l.Error("Failed to initialize event bus", logger.Field{Key: "error", Value: err})
		os.Exit(1)
	}
	defer eventBus.Close()

	queue := dlq.NewKafkaQueue(configs.GetKafkaBrokers(), configs.TopicDLQ, l)
	defer queue.Close()

	publisher := outcomes.NewAsyncPublisher(
		outcomes.NewPublisher(eventBus, queue, configs.TopicPaymentOutcomes, configs.ServiceNameCheckout, outcomes.DefaultRetryPolicy(), l, m),
		outcomeBufferSize, outcomeWorkers, l, m,
	)

	api, mockAPI := initIntentAPI(l)
	paymentRequests := services.NewPaymentRequestService(api, configs.GetManualCapture())
	nonces := services.NewNonceService(configs.GetNonceSecret())

	deps := state.Dependencies{
		Orders:          services.NewOrderService(orders, configs.GetSiteURL(), l),
		PaymentRequests: paymentRequests,
		Encryption:      services.NewCheckoutEncryptionService(configs.GetCheckoutEncryptionKey()),
		Nonces:          nonces,
		Duplicates:      services.NewDuplicatePaymentPreventionService(orders, configs.GetDuplicateWindow()),
		Logger:          l,
		Metrics:         m,
	}

	gateway := checkout.NewGateway(deps, paymentRequests, nonces, publisher, l)

	router := setupRouter(
		httphandler.NewCheckoutHandler(gateway),
		httphandler.NewOrderHandler(orders),
		health.NewDBHealthChecker(db),
		m,
		mockAPI,
	)

	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	l.Info("Starting checkout service", logger.Field{Key: "port", Value: port})

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Error("Server failed", logger.Field{Key: "error", Value: err})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		l.Error("Server forced to shutdown", logger.Field{Key: "error", Value: err})
	}

	if err := publisher.Close(ctx); err != nil {
		l.Warn("Outcome events still queued at shutdown", logger.Field{Key: "error", Value: err})
	}
}

// initIntentAPI returns the remote intent API. The mock is also returned so local runs can
// finish authentication without a browser.
func initIntentAPI(l logger.Logger) (services.IntentAPI, *mock.IntentAPI) {
	if configs.GetPaymentsAPIMode() == configs.PaymentsAPIModeStripe {
		l.Info("Using Stripe intent API")
		return stripe.NewIntentAPI(configs.GetStripeSecretKey()), nil
	}

	l.Warn("Using mock intent API", logger.Field{Key: "mode", Value: configs.PaymentsAPIModeMock})
	api := mock.NewIntentAPI(50 * time.Millisecond)
	return api, api
}

func setupRouter(ch *httphandler.CheckoutHandler, oh *httphandler.OrderHandler, hc health.HealthChecker, m *metrics.PrometheusCollector, mockAPI *mock.IntentAPI) *gin.Engine {
	router := gin.Default()

	router.GET("/health", httphandler.HealthHandler(hc))
	router.GET("/metrics", gin.WrapH(m.Handler()))

	api := router.Group("/api")
	{
		api.POST("/orders", oh.CreateOrder)
		api.GET("/orders/:id", oh.GetOrder)
		api.POST("/checkout/payments", ch.ProcessPayment)
		api.POST("/checkout/orders/:id/status", ch.UpdateOrderStatus)
	}

	if mockAPI != nil {
		router.POST("/mock/intents/:id/authenticate", func(c *gin.Context) {
			success := c.DefaultQuery("result", "success") == "success"
			if err := mockAPI.CompleteAuthentication(c.Param("id"), success); err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"intent_id": c.Param("id"), "authenticated": success})
		})
	}

	return router
}
