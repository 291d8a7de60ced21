package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"rental-service/internal/config"
	"rental-service/internal/db"
	"rental-service/internal/handlers"
	"rental-service/internal/middleware"
	"rental-service/internal/models"
	"rental-service/internal/notifications"
	"rental-service/internal/observability"
	"rental-service/internal/rabbitmq"
	"rental-service/internal/repositories"
	"rental-service/internal/services"
	"rental-service/internal/telemetry"
	"rental-service/internal/typing"
	"rental-service/internal/ws"
)

func main() {
	cfg := config.Load()

	shutdownTracing, err := telemetry.InitTracing(context.Background(), cfg.Tracing)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}

	database, err := db.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	redisClient := config.NewRedisClient(cfg.Redis)
	if redisClient != nil {
		defer redisClient.Close()
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
	defer publisher.Close()
	log.Printf("event publisher mode=%s reason=%q", rabbitmq.PublisherMode(publisher), rabbitmq.PublisherNoopReason(publisher))
	observability.SetPublisher(publisher)
	audit := telemetry.NewAuditEmitter(publisher, cfg.AMQP.AuditKey, cfg.Tracing.ServiceName, cfg.Environment)

	applicationRepo := repositories.NewApplicationRepo(database)
	conversationRepo := repositories.NewConversationRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	roomRepo := repositories.NewRoomRepo(database)
	userRepo := repositories.NewUserRepo(database)
	notificationRepo := repositories.NewNotificationRepo(database)

	hub := ws.NewHub()
	dispatcher := notifications.NewDispatcher(notificationRepo, hub, publisher, cfg.AMQP.NotificationsKey, cfg.AMQP.NotifyDeliverTimeout)

	conversationService := services.NewConversationService(conversationRepo, messageRepo, roomRepo, userRepo, applicationRepo, hub)
	bookingService := services.NewBookingService(applicationRepo, roomRepo, conversationService, dispatcher, audit)

	applicationHandler := handlers.NewApplicationHandler(bookingService)
	conversationHandler := handlers.NewConversationHandler(conversationService, typing.NewTracker(redisClient, typing.DefaultTTL))
	notificationHandler := handlers.NewNotificationHandler(notificationRepo)

	validator := middleware.NewJWTValidator(cfg.JWT.Secret, cfg.JWT.Issuer)
	presenceWS := ws.NewPresenceHandler(hub, validator)

	router := gin.Default()

	// middlewares
	router.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	router.Use(observability.RequestIDMiddleware())
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws", presenceWS.Handle)

	authed := router.Group("/", middleware.AuthMiddleware(validator))
	student := middleware.RequireRole(models.RoleStudent)
	landlord := middleware.RequireRole(models.RoleLandlord)
	studentOrAdmin := middleware.RequireRole(models.RoleStudent, models.RoleAdmin)
	landlordOrAdmin := middleware.RequireRole(models.RoleLandlord, models.RoleAdmin)

	authed.POST("/applications/inquiries", student, applicationHandler.CreateInquiry)
	authed.POST("/applications", student, applicationHandler.CreateApplication)
	authed.GET("/applications/mine", student, applicationHandler.ListMine)
	authed.GET("/applications/received", landlord, applicationHandler.ListReceived)
	authed.GET("/applications/:id", applicationHandler.Get)
	authed.PATCH("/applications/:id", student, applicationHandler.Update)
	authed.POST("/applications/:id/approve", landlord, applicationHandler.Approve)
	authed.POST("/applications/:id/reject", landlord, applicationHandler.Reject)
	authed.POST("/applications/:id/cancel", studentOrAdmin, applicationHandler.Cancel)
	authed.POST("/applications/:id/confirm-payment", landlordOrAdmin, applicationHandler.ConfirmPayment)

	authed.POST("/conversations", conversationHandler.Open)
	authed.GET("/conversations", conversationHandler.Inbox)
	authed.GET("/conversations/:id", conversationHandler.Detail)
	authed.GET("/conversations/:id/messages", conversationHandler.Messages)
	authed.POST("/conversations/:id/messages", conversationHandler.Send)
	authed.POST("/conversations/:id/read", conversationHandler.MarkRead)
	authed.POST("/conversations/:id/typing", conversationHandler.Typing)
	authed.GET("/conversations/:id/typing", conversationHandler.WhoIsTyping)

	authed.GET("/notifications", notificationHandler.List)
	authed.POST("/notifications/:id/read", notificationHandler.MarkRead)

	handlers.RegisterDebugRoutes(authed, audit, cfg.Debug)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("rental-service listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	dispatcher.Wait()
	if err := shutdownTracing(ctx); err != nil {
		log.Printf("tracing shutdown: %v", err)
	}
}
