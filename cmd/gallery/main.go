package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/InNinoWeTrust/covalent/internal/app/service"
	"github.com/InNinoWeTrust/covalent/internal/client"
	"github.com/InNinoWeTrust/covalent/internal/config"
	"github.com/InNinoWeTrust/covalent/internal/infrastructure/blockchain"
	"github.com/InNinoWeTrust/covalent/internal/infrastructure/restapi"
	"github.com/InNinoWeTrust/covalent/internal/pkg/metrics"
	"github.com/InNinoWeTrust/covalent/internal/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
)

func main() {
	zapLogger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize zap logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync() // flushes buffer, if any

	// Route stdlib slog through zap so all output ends up in one place.
	slogHandler := zapslog.NewHandler(zapLogger.Core(), &zapslog.HandlerOptions{})
	slog.SetDefault(slog.New(slogHandler))

	// .env is optional; the API key may just as well come from the real environment.
	if err := godotenv.Load(); err != nil {
		zapLogger.Debug("No .env file loaded", zap.Error(err))
	}

	cfgPath := utils.GetEnv("CONFIG_PATH", "config/config.yaml")
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		zapLogger.Fatal("Failed to load configuration", zap.String("path", cfgPath), zap.Error(err))
	}
	zapLogger.Info("Configuration loaded", zap.String("path", cfgPath), zap.Int64("chainId", config.ChainID))

	// Initialize Prometheus metrics
	metrics.MustRegisterMetrics()

	// Initialize Covalent client
	covalentTimeout := time.Duration(cfg.Covalent.RequestTimeoutMillis) * time.Millisecond
	covalentClient := client.NewCovalentClient(
		cfg.Covalent.BaseURL,
		cfg.Covalent.APIKey,
		covalentTimeout,
		cfg.Covalent.RateLimit,
		cfg.Covalent.BurstLimit,
		zapLogger,
	)
	zapLogger.Info("Covalent client initialized")

	// Initialize contract resolver
	resolver, err := blockchain.NewERC721Resolver(
		cfg.Chain.RPCURL,
		time.Duration(cfg.Chain.ConnectionTimeoutSeconds)*time.Second,
		time.Duration(cfg.Chain.CallTimeoutSeconds)*time.Second,
		zapLogger,
	)
	if err != nil {
		zapLogger.Fatal("Failed to initialize contract resolver", zap.Error(err))
	}
	zapLogger.Info("ERC721 contract resolver initialized", zap.String("rpcURL", cfg.Chain.RPCURL))

	// Initialize metadata loader
	metadataTimeout := time.Duration(cfg.Metadata.RequestTimeoutMillis) * time.Millisecond
	metadataLoader := blockchain.NewMetadataLoader(cfg.Metadata.IPFSGateway, metadataTimeout, zapLogger)
	zapLogger.Info("Metadata loader initialized", zap.String("ipfsGateway", cfg.Metadata.IPFSGateway))

	// Initialize services
	sessionSvc := service.NewSessionService(cfg, zapLogger)
	gallerySvc := service.NewGalleryService(covalentClient, resolver, metadataLoader, sessionSvc, cfg, zapLogger)
	zapLogger.Info("GalleryService initialized")

	// Setup routes
	handler := restapi.NewGalleryHandler(covalentClient, sessionSvc, gallerySvc, zapLogger)
	router := restapi.SetupRouter(handler, zapLogger)

	// Pprof endpoints (for debugging performance issues)
	// Make sure to protect these in a production environment
	pprofRouter := router.Group("/debug/pprof")
	{
		pprofRouter.GET("/", gin.WrapF(pprof.Index))
		pprofRouter.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		pprofRouter.GET("/profile", gin.WrapF(pprof.Profile))
		pprofRouter.GET("/symbol", gin.WrapF(pprof.Symbol))
		pprofRouter.GET("/trace", gin.WrapF(pprof.Trace))
		pprofRouter.GET("/allocs", gin.WrapH(pprof.Handler("allocs")))
		pprofRouter.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
		pprofRouter.GET("/heap", gin.WrapH(pprof.Handler("heap")))
	}

	// Start server
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		zapLogger.Info(fmt.Sprintf("Server starting on %s", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exiting")
}
