package main

import (
	"fmt"
	"strconv"
	"time"

	"land-registry-service/blockchain"
	"land-registry-service/config"
	"land-registry-service/database"
	"land-registry-service/email"
	"land-registry-service/handlers"
	"land-registry-service/middleware"
	"land-registry-service/service"
	"land-registry-service/utils"
	"land-registry-service/version"
	"land-registry-service/websocket"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

const (
	EndPointHealth          = "/health"
	EndPointGetRecords      = "/get_records"
	EndPointGetRecord       = "/get_record"
	EndPointGetHoldings     = "/get_holdings"
	EndPointTransferHistory = "/get_transfer_history"
	EndPointMap             = "/map"
	EndPointRegisterRecord  = "/register_record"
	EndPointRequestTransfer = "/request_transfer"

	EndPointVerifyRecord             = "/verify_record"
	EndPointUpdateStatus             = "/update_status"
	EndPointApproveTransfer          = "/approve_transfer"
	EndPointRejectTransfer           = "/reject_transfer"
	EndPointGetNotifications         = "/get_notifications"
	EndPointMarkNotificationRead     = "/mark_notification_read"
	EndPointMarkAllNotificationsRead = "/mark_all_notifications_read"
	EndPointDeleteNotification       = "/delete_notification"

	EndPointNotificationsFeed = "/ws/notifications"
)

const (
	writeRateLimit  = 20
	writeRateWindow = time.Minute
)

func main() {
	// Load configuration
	cfg := config.Load()

	log.Info("Starting the land registry service...")

	// Connect to database
	db, err := utils.DBConnect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize database schema
	if err := database.InitSchema(db); err != nil {
		log.Fatalf("Failed to initialize database schema: %v", err)
	}

	// Initialize services
	recordsService := database.NewLandRecordsService(db)
	notificationsService := database.NewNotificationsService(db)

	var transferor blockchain.Transferor
	if cfg.ChainConfigured() {
		landTransferor, err := blockchain.NewLandTransferor(cfg.EthRPCURL, cfg.EthPrivateKey, cfg.ContractAddress)
		if err != nil {
			if cfg.ChainRequired {
				log.Fatalf("Failed to create chain client: %v", err)
			}
			log.Warnf("Failed to create chain client, transfers will use synthesized hashes: %v", err)
		} else {
			transferor = landTransferor
		}
	} else {
		if cfg.ChainRequired {
			log.Fatal("CHAIN_REQUIRED is set but the chain client is not configured")
		}
		log.Warn("Chain client is not configured, transfers will use synthesized hashes")
	}

	hub := websocket.NewHub()
	go hub.Run()

	emailer := email.NewSender(cfg)
	if !emailer.Enabled() {
		log.Warn("Email notifications are not configured")
		emailer = nil
	}

	registryService := service.NewRegistryService(
		recordsService, notificationsService, transferor, hub, emailer, cfg.ChainRequired)

	// Initialize handlers
	registryHandler := handlers.NewRegistryHandler(registryService, recordsService, notificationsService)
	wsHandler := handlers.NewWebSocketHandler(hub)

	// Setup router
	router := gin.Default()
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/version", func(c *gin.Context) {
		c.JSON(200, version.Get("land-registry-service"))
	})

	// Register health endpoint (outside API group)
	router.GET(EndPointHealth, registryHandler.HealthCheck)

	// Live admin notification feed
	router.GET(EndPointNotificationsFeed, wsHandler.NotificationsFeed)
	router.GET(EndPointNotificationsFeed+"/stats", wsHandler.FeedStats)

	writeLimit := middleware.RateLimitMiddleware(writeRateLimit, writeRateWindow)

	// Create API v3 router group
	apiV3 := router.Group("/api/v3")
	{
		apiV3.GET(EndPointGetRecords, registryHandler.GetRecords)
		apiV3.GET(EndPointGetRecord, registryHandler.GetRecord)
		apiV3.GET(EndPointGetHoldings, registryHandler.GetHoldings)
		apiV3.GET(EndPointTransferHistory, registryHandler.GetTransferHistory)
		apiV3.GET(EndPointMap, registryHandler.GetMap)
		apiV3.POST(EndPointRegisterRecord, writeLimit, registryHandler.RegisterRecord)
		apiV3.POST(EndPointRequestTransfer, writeLimit, registryHandler.RequestTransfer)
	}

	// Admin endpoints require a valid bearer token
	admin := router.Group("/api/v3")
	admin.Use(middleware.AuthMiddleware(cfg))
	{
		admin.POST(EndPointVerifyRecord, registryHandler.VerifyRecord)
		admin.POST(EndPointUpdateStatus, registryHandler.UpdateStatus)
		admin.POST(EndPointApproveTransfer, registryHandler.ApproveTransfer)
		admin.POST(EndPointRejectTransfer, registryHandler.RejectTransfer)
		admin.GET(EndPointGetNotifications, registryHandler.GetNotifications)
		admin.POST(EndPointMarkNotificationRead, registryHandler.MarkNotificationRead)
		admin.POST(EndPointMarkAllNotificationsRead, registryHandler.MarkAllNotificationsRead)
		admin.DELETE(EndPointDeleteNotification, registryHandler.DeleteNotification)
	}

	// Get server port from config
	serverPort, err := strconv.Atoi(cfg.Port)
	if err != nil {
		log.Fatalf("Invalid PORT configuration: %v", err)
	}

	// Start server
	log.Infof("Land registry service starting on port %d", serverPort)
	if err := router.Run(fmt.Sprintf(":%d", serverPort)); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
