package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/textenhance/core/internal/adapters"
	"github.com/textenhance/core/internal/config"
	"github.com/textenhance/core/internal/manager"
	"github.com/textenhance/core/internal/metrics"
	"github.com/textenhance/core/internal/orchestrator"
	"github.com/textenhance/core/internal/prompts"
	"github.com/textenhance/core/internal/registry"
	"github.com/textenhance/core/internal/respvalidate"
	"github.com/textenhance/core/pkg/types"
)

func main() {
	configPath := flag.String("config", "configs/providers.yaml", "path to the provider configuration file")
	addr := flag.String("addr", ":8080", "HTTP listen address")
	printConfig := flag.Bool("print-config", false, "resolve and print the provider configuration, then exit")
	refreshInterval := flag.Duration("refresh-interval", manager.DefaultRefreshInterval, "background health refresh interval")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar()

	log.Info("starting textenhance core")

	resolver := config.NewResolver("TEXTENHANCE")
	appConfig, err := config.LoadYAML(*configPath)
	if err != nil {
		log.Fatalw("failed to load configuration", "path", *configPath, "error", err)
	}

	providerConfigs, err := resolver.Resolve(appConfig)
	if err != nil {
		log.Fatalw("failed to resolve configuration", "error", err)
	}
	log.Infow("✓ configuration resolved", "providers", len(providerConfigs), "enhancement_enabled", appConfig.Enhancement.Enabled)

	if *printConfig {
		for _, pc := range providerConfigs {
			fmt.Printf("%-10s enabled=%-5t priority=%-3d text_model=%-25s vision_model=%s\n",
				pc.Name, pc.Enabled, pc.Priority, pc.TextModel, pc.VisionModel)
		}
		return
	}

	providerAdapters, err := adapters.Build(providerConfigs)
	if err != nil {
		log.Fatalw("failed to build provider adapters", "error", err)
	}
	log.Infow("✓ provider adapters built", "count", len(providerAdapters))

	reg := registry.New(providerAdapters)
	swappable := registry.NewSwappable(reg)

	mgr := manager.New(swappable, logger)
	if err := mgr.StartBackgroundRefresh(*refreshInterval); err != nil {
		log.Fatalw("failed to start background health refresh", "error", err)
	}
	defer mgr.Stop()
	log.Infow("✓ background health refresh started", "interval", refreshInterval.String())

	catalog := prompts.NewCatalog()
	validator := respvalidate.NewEngine()
	orch := orchestrator.New(mgr, catalog, validator, logger, appConfig.Enhancement.Enabled)
	log.Info("✓ orchestrator assembled")

	watcher, err := config.NewWatcher(*configPath, resolver, log)
	if err != nil {
		log.Warnw("config hot-reload unavailable", "error", err)
	} else {
		stop := make(chan struct{})
		defer close(stop)
		go watcher.Run(stop, func(resolved []types.ProviderConfig, reloadErr error) {
			if reloadErr != nil {
				log.Warnw("config reload failed, keeping previous configuration", "error", reloadErr)
				return
			}
			newAdapters, err := adapters.Build(resolved)
			if err != nil {
				log.Warnw("config reload produced an unbuildable adapter set, keeping previous configuration", "error", err)
				return
			}
			swappable.Replace(registry.New(newAdapters))
			log.Infow("✓ configuration reloaded", "providers", len(newAdapters))
		})
	}

	collector := metrics.NewCollector(swappable.StatusSnapshot)
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collector)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Post("/enhance", enhanceHandler(orch, log))
	router.Get("/health", healthHandler(swappable, mgr.StickyPreferred))
	router.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  90 * time.Second,
	}

	go func() {
		log.Infow("✓ server listening", "addr", *addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	log.Info("✓ POST /enhance - run the enhancement pipeline over raw OCR text")
	log.Info("✓ GET  /health  - provider health snapshot")
	log.Info("✓ GET  /metrics - Prometheus scrape endpoint")
	log.Info("press Ctrl+C to shut down gracefully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalw("graceful shutdown failed", "error", err)
	}
	log.Info("server exited cleanly")
}
