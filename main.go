package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/dmorgan81/fluxgen/internal/config"
	"github.com/dmorgan81/fluxgen/internal/handler"
	"github.com/dmorgan81/fluxgen/internal/inject"
	"github.com/dmorgan81/fluxgen/internal/log"
	"github.com/samber/do"
)

func main() {
	cfg, err := config.Load(config.Options{})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := log.New(os.Stderr, log.ParseLevel(cfg.LogLevel))
	ctx := log.NewContext(context.Background(), logger)
	injector := inject.Setup(ctx, cfg)

	switch cfg.Mode {
	case config.ModeLambda:
		handler := do.MustInvoke[*handler.Lambda](injector)
		lambda.StartWithOptions(handler.Handle, lambda.WithContext(ctx), lambda.WithEnableSIGTERM(func() {
			_ = injector.Shutdown()
		}))
	default:
		if err := serve(ctx, cfg, do.MustInvoke[*handler.Web](injector)); err != nil {
			logger.Error("server stopped", "error", err)
			_ = injector.Shutdown()
			os.Exit(1)
		}
		_ = injector.Shutdown()
	}
}

func serve(ctx context.Context, cfg *config.Config, web *handler.Web) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           web.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.FromContextOrDiscard(ctx).Info("listening", "addr", cfg.ListenAddr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
