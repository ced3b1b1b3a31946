package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/andresjosehr/dollarspy/internal/classification"
	"github.com/andresjosehr/dollarspy/internal/config"
	"github.com/andresjosehr/dollarspy/internal/notify"
	"github.com/andresjosehr/dollarspy/internal/pipeline"
	"github.com/andresjosehr/dollarspy/internal/server"
	"github.com/andresjosehr/dollarspy/internal/service"
	"github.com/andresjosehr/dollarspy/internal/storage"
	"github.com/andresjosehr/dollarspy/internal/whatsapp"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func monitorCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "monitor",
		Aliases: []string{"start"},
		Short:   "Connect to WhatsApp and watch monitored groups",
		Long: `Connect to WhatsApp, screen every message from the monitored groups for
dollar buy/sell offers, and send an alert for each detection.

The first run prints a QR code: scan it from WhatsApp > Linked devices.
While the monitor runs, a local control API serves the other commands.`,
		RunE: runMonitor,
	}
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	registry, err := storage.NewRegistry(cfg.Registry.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to open group registry: %w", err)
	}

	detector, err := classification.NewDefaultDetector()
	if err != nil {
		return fmt.Errorf("failed to build detector: %w", err)
	}

	wa, err := whatsapp.Open(ctx, whatsapp.Options{
		Logger:      logger,
		QRWriter:    cmd.OutOrStdout(),
		SessionPath: cfg.WhatsApp.SessionPath,
	})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := wa.Close(); closeErr != nil {
			logger.Error("Failed to close WhatsApp session", "error", closeErr)
		}
	}()

	if err := wa.Connect(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	logStartupSummary(ctx, registry, logger)

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(registry, wa, cfg.API.Host, cfg.API.Port, logger)
	p := pipeline.New(registry, detector, wa, newNotifier(cfg.Notify, logger), logger)

	return supervise(ctx, wa.Fatal(), srv.Start, func(ctx context.Context) error {
		return p.Run(ctx, wa.Messages())
	})
}

// supervise runs the control plane and the pipeline until ctx ends, one of
// them fails, or the transport reports a fatal error. It waits for both to stop.
func supervise(ctx context.Context, fatal <-chan error, tasks ...func(context.Context) error) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, len(tasks))
	for _, task := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errCh <- task(runCtx)
		}()
	}

	var runErr error
	select {
	case runErr = <-fatal:
	case runErr = <-errCh:
	case <-ctx.Done():
	}

	cancel()
	wg.Wait()

	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

func newNotifier(cfg config.NotifyConfig, logger *slog.Logger) service.Notifier {
	if !cfg.Enabled {
		logger.Info("Notifications disabled")
		return notify.Silent{Logger: logger}
	}
	if len(cfg.Recipients) == 0 {
		logger.Warn("Notifications enabled but no recipients configured, set notify.recipients")
	}
	relay := notify.NewCallMeBotRelay(cfg.Endpoint, cfg.Timeout)
	return notify.NewDispatcher(relay, cfg.Recipients, logger)
}

func logStartupSummary(ctx context.Context, registry service.GroupRegistry, logger *slog.Logger) {
	groups, err := registry.List(ctx)
	if err != nil {
		logger.Error("Failed to load monitored groups", "error", err)
		return
	}
	if len(groups) == 0 {
		logger.Warn("No groups are monitored yet, select some with: dollarspy groups")
		return
	}

	logger.Info("Monitoring groups", "count", len(groups))
	for _, g := range groups {
		logger.Info("Monitored group", "group", g.Name, "group_id", g.ID)
	}
}
