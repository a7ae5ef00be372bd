package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/okwareddevnest/eventpass/cmd/fx/config_fx"
	"github.com/okwareddevnest/eventpass/cmd/fx/controllers_fx"
	"github.com/okwareddevnest/eventpass/cmd/fx/db_fx"
	"github.com/okwareddevnest/eventpass/cmd/fx/gateway_fx"
	"github.com/okwareddevnest/eventpass/cmd/fx/ledger_fx"
	"github.com/okwareddevnest/eventpass/cmd/fx/logger_fx"
	"github.com/okwareddevnest/eventpass/cmd/fx/orders_fx"
	"github.com/okwareddevnest/eventpass/cmd/fx/payouts_fx"
	"github.com/okwareddevnest/eventpass/cmd/fx/queue_fx"
	"github.com/okwareddevnest/eventpass/cmd/fx/reconcile_fx"
	"github.com/okwareddevnest/eventpass/cmd/fx/redis_fx"
	"github.com/okwareddevnest/eventpass/cmd/fx/settings_fx"
	"github.com/okwareddevnest/eventpass/cmd/fx/tickets_fx"
	"github.com/okwareddevnest/eventpass/internal/api/controllers"
	"github.com/okwareddevnest/eventpass/internal/infra"
	"github.com/okwareddevnest/eventpass/internal/models/db_models"
	"github.com/okwareddevnest/eventpass/internal/queue"
	"github.com/okwareddevnest/eventpass/pkg/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	app := fx.New(
		config_fx.Module,
		logger_fx.Module,
		db_fx.Module,
		redis_fx.Module,
		gateway_fx.Module,
		queue_fx.Module,
		settings_fx.Module,
		orders_fx.Module,
		tickets_fx.Module,
		ledger_fx.Module,
		reconcile_fx.Module,
		payouts_fx.Module,
		controllers_fx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
		fx.Invoke(StartConsumer),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine, cfg *infra.Config, logger *zap.Logger) {
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: engine,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info("starting HTTP server", zap.String("port", cfg.Port))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal("HTTP server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping HTTP server")
			return srv.Shutdown(ctx)
		},
	})
}

func StartConsumer(lc fx.Lifecycle, consumer *queue.Consumer, publisher queue.Publisher, logger *zap.Logger) {
	workerCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go consumer.Start(workerCtx)
			logger.Info("reconcile consumer started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			return publisher.Close()
		},
	})
}

func ProvideRouter(
	rdb *redis.Client,
	orderController *controllers.OrderController,
	paymentController *controllers.PaymentController,
	ticketController *controllers.TicketController,
	payoutController *controllers.PayoutController,
	adminController *controllers.AdminController) *gin.Engine {

	r := gin.Default()
	r.Use(cors.Default())
	r.Use(middleware.TraceIDMiddleware())

	RegisterRoutes(r, rdb, orderController, paymentController, ticketController, payoutController, adminController)

	return r
}

func RegisterRoutes(r *gin.Engine,
	rdb *redis.Client,
	orderController *controllers.OrderController,
	paymentController *controllers.PaymentController,
	ticketController *controllers.TicketController,
	payoutController *controllers.PayoutController,
	adminController *controllers.AdminController) {

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Gateway-facing endpoints, unauthenticated but rate limited. The IPN
	// route accepts GET and POST because the registration type decides how
	// the gateway delivers notifications.
	payments := r.Group("/payments")
	payments.Use(middleware.IPRateLimit(rdb, 60, time.Minute))
	payments.POST("/ipn", paymentController.HandleIPN)
	payments.GET("/ipn", paymentController.HandleIPN)
	payments.GET("/verify", ticketController.Verify)

	auth := r.Group("/")
	auth.Use(middleware.JWTAuthMiddleware())
	auth.POST("/orders", orderController.CreateOrder)
	// The payer's frontend relays the redirect parameters here with the
	// payer's own token; the gateway never calls this route directly.
	auth.POST("/payments/callback", paymentController.HandleCallback)

	tickets := auth.Group("/tickets")
	tickets.Use(middleware.RoleMiddleware(string(db_models.RoleOrganizer)))
	tickets.POST("/:code/check-in", ticketController.CheckIn)

	payouts := auth.Group("/payouts")
	payouts.Use(middleware.RoleMiddleware(string(db_models.RoleOrganizer)))
	payouts.POST("/request", payoutController.Create)
	payouts.GET("", payoutController.List)
	payouts.GET("/balance", payoutController.Balance)
	payouts.PATCH("/:id/cancel", payoutController.Cancel)

	admin := auth.Group("/admin")
	admin.Use(middleware.RoleMiddleware(string(db_models.RoleAdmin)))
	admin.GET("/payouts", adminController.ListPayouts)
	admin.PATCH("/payouts/:id/approve", adminController.ApprovePayout)
	admin.PATCH("/payouts/:id/reject", adminController.RejectPayout)
	admin.PATCH("/payouts/:id/processing", adminController.ProcessPayout)
	admin.PATCH("/payouts/:id/complete", adminController.CompletePayout)
	admin.GET("/settings", adminController.GetSettings)
	admin.PATCH("/settings", adminController.UpdateSettings)
	admin.POST("/settings/register-ipn", adminController.RegisterIPN)
}
