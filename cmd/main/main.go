package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	_ "net/http/pprof"

	"fieldmap-service/internal/config"
	"fieldmap-service/internal/embed"
	"fieldmap-service/internal/mapping/service"
	"fieldmap-service/internal/schema"
	serverhttp "fieldmap-service/server/http"
)

func main() {
	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		runtime.GOMAXPROCS(runtime.NumCPU())
	}

	cfg := config.Load()
	logger := config.SetupLogger(cfg)

	sch := schema.Default()
	if cfg.SchemaFile != "" {
		loaded, err := schema.LoadFile(cfg.SchemaFile)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.SchemaFile).Msg("load schema")
		}
		sch = loaded
	}

	// the embedding model is a process-wide resource: loaded once here,
	// shared read-only, torn down on the way out
	emb, err := embed.Load(cfg.EmbedDim)
	if err != nil {
		logger.Fatal().Err(err).Msg("load embedding model")
	}
	defer func() { _ = emb.Close() }()

	opt := service.DefaultEngineOptions(cfg)
	eng, err := service.New(sch, emb, opt)
	if err != nil {
		logger.Fatal().Err(err).Msg("build matching engine")
	}

	r := serverhttp.NewRouter(cfg, logger, eng)

	srv := &http.Server{Addr: cfg.Addr(), Handler: r}
	logger.Info().
		Str("addr", cfg.Addr()).
		Int("targets", len(sch.Fields)).
		Float64("threshold", opt.Threshold).
		Msg("server starting")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	logger.Info().Msg("bye")
}
