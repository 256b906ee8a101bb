package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/restaurant-orderflow/internal/app"
	"github.com/imrishuroy/restaurant-orderflow/internal/config"
	"github.com/imrishuroy/restaurant-orderflow/internal/handlers"
	"github.com/imrishuroy/restaurant-orderflow/internal/logging"
)

func setupRouter(cfg handlers.HandlerConfig, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logging.Middleware(log))

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterRoutes(r, cfg)

	return r
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		logging.New("error", "json").Error("load config", "error", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if !cfg.RunLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := app.Build(context.Background(), cfg, log)
	if err != nil {
		log.Error("failed to build services", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	r := setupRouter(handlers.HandlerConfig{
		Orders:      a.Orders,
		Menu:        a.Menu,
		History:     a.History,
		Idempotency: a.Idempotency,
		Log:         log,
	}, log)

	// run_local starts a plain HTTP server for development.
	if cfg.RunLocal {
		log.Info("running local server", "addr", cfg.HTTPAddr)
		if err := r.Run(cfg.HTTPAddr); err != nil {
			log.Error("failed to run local server", "error", err)
			os.Exit(1)
		}
		return
	}

	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
