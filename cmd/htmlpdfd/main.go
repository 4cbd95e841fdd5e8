// Command htmlpdfd serves HTML to PDF conversion over HTTP.
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

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	htmlpdf "github.com/porticus-lab/go-native-html-pdf"
	"github.com/porticus-lab/go-native-html-pdf/internal/config"
	"github.com/porticus-lab/go-native-html-pdf/internal/logging"
	"github.com/porticus-lab/go-native-html-pdf/internal/metrics"
	"github.com/porticus-lab/go-native-html-pdf/internal/server"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "htmlpdfd: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("htmlpdfd", pflag.ContinueOnError)
	configPath := fs.String("config", "", "config file (default: ./htmlpdf.yaml)")
	fs.String("addr", ":8080", "listen address")
	fs.Int64("max-body-bytes", 10<<20, "maximum request body size")
	fs.String("chrome-path", "", "Chrome or Chromium executable")
	fs.String("remote-url", "", "DevTools websocket URL of a running browser")
	fs.Bool("no-sandbox", false, "disable the Chrome sandbox (containers, CI)")
	fs.Bool("auto-download", false, "download Chromium when none is installed")
	fs.Duration("timeout", 30*time.Second, "per-conversion timeout")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.String("log-format", "console", "log format: json or console")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath, fs)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	if _, err := maxprocs.Set(maxprocs.Logger(log.Sugar().Infof)); err != nil {
		log.Warn("failed to set GOMAXPROCS", zap.Error(err))
	}

	m := metrics.New()
	conv, err := htmlpdf.NewConverter(append(cfg.ConverterOptions(log), htmlpdf.WithHooks(m.Hooks()))...)
	if err != nil {
		return err
	}
	defer func() {
		if err := conv.Close(); err != nil {
			log.Warn("closing converter", zap.Error(err))
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: server.New(conv, server.Options{
			Logger:       log,
			Metrics:      m.Handler(),
			MaxBodyBytes: cfg.Server.MaxBodyBytes,
		}).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
