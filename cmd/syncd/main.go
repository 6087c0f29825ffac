// syncd runs the synchronization client against the prospecting backend and
// serves read-only snapshots over HTTP for dashboards and tooling.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"prospect-sync/internal/api"
	"prospect-sync/internal/client"
	"prospect-sync/internal/config"
	"prospect-sync/internal/transport"
)

func main() {
	logger := log.Default()
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalln("config:", err)
	}

	var feed transport.Feed
	if cfg.RedisAddr != "" {
		feed = transport.NewRedisFeed(&redis.Options{Addr: cfg.RedisAddr}, cfg.RedisChannel, logger)
	} else {
		feed = transport.NewWebSocketFeed(cfg.WebSocketURL, logger)
	}

	backend := api.New(cfg.APIBaseURL, cfg.HTTPTimeout, logger)
	c := client.New(feed, backend, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Println("client stopped:", err)
			stop()
		}
	}()

	if err := c.Refresh(ctx); err != nil {
		logger.Println("initial load incomplete:", err)
	}

	router := gin.Default()
	registerRoutes(router, c, logger)

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: router}
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
		c.Close()
	}()

	logger.Println("syncd listening on", cfg.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalln("server:", err)
	}
}

func registerRoutes(router *gin.Engine, c *client.Client, logger *log.Logger) {
	router.GET("/healthz", func(gc *gin.Context) {
		gc.JSON(http.StatusOK, gin.H{"status": "ok", "degraded": c.Degraded()})
	})
	router.GET("/connection", func(gc *gin.Context) {
		gc.JSON(http.StatusOK, c.ConnectionState())
	})
	router.GET("/campaigns", func(gc *gin.Context) {
		gc.JSON(http.StatusOK, c.Campaigns())
	})
	router.GET("/campaigns/:id", func(gc *gin.Context) {
		id, err := strconv.Atoi(gc.Param("id"))
		if err != nil {
			gc.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
			return
		}
		campaign, ok := c.Campaign(id)
		if !ok {
			gc.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
			return
		}
		gc.JSON(http.StatusOK, campaign)
	})
	router.GET("/campaigns/:id/prospects", func(gc *gin.Context) {
		id, err := strconv.Atoi(gc.Param("id"))
		if err != nil {
			gc.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
			return
		}
		gc.JSON(http.StatusOK, c.CampaignProspects(id))
	})
	router.POST("/campaigns/:id/start", func(gc *gin.Context) {
		id, err := strconv.Atoi(gc.Param("id"))
		if err != nil {
			gc.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
			return
		}
		if err := c.StartCampaign(gc.Request.Context(), id); err != nil {
			logger.Println("start campaign:", err)
			gc.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		gc.Status(http.StatusAccepted)
	})
	router.POST("/campaigns/:id/stop", func(gc *gin.Context) {
		id, err := strconv.Atoi(gc.Param("id"))
		if err != nil {
			gc.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
			return
		}
		if err := c.StopCampaign(gc.Request.Context(), id); err != nil {
			logger.Println("stop campaign:", err)
			gc.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		gc.Status(http.StatusAccepted)
	})
	router.GET("/prospects", func(gc *gin.Context) {
		gc.JSON(http.StatusOK, c.Prospects())
	})
	router.GET("/agents", func(gc *gin.Context) {
		gc.JSON(http.StatusOK, c.AgentStatuses())
	})
	router.GET("/notifications", func(gc *gin.Context) {
		gc.JSON(http.StatusOK, gin.H{
			"unread":        c.UnreadCount(),
			"notifications": c.Notifications(),
		})
	})
	router.POST("/notifications/read", func(gc *gin.Context) {
		c.MarkRead()
		gc.Status(http.StatusNoContent)
	})
	router.GET("/activity", func(gc *gin.Context) {
		gc.JSON(http.StatusOK, c.RecentActions())
	})
	router.POST("/refresh", func(gc *gin.Context) {
		if err := c.Refresh(gc.Request.Context()); err != nil {
			gc.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		gc.Status(http.StatusNoContent)
	})
}
