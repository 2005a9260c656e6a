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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"tickcom/portal/internal/auth"
	"tickcom/portal/internal/config"
	"tickcom/portal/internal/httpapi"
	"tickcom/portal/internal/logging"
	"tickcom/portal/internal/portal"
	"tickcom/portal/internal/store/yamlfile"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the portal web server (default)",
	RunE:  runServe,
}

var memoryMode bool

func init() {
	for _, c := range []*cobra.Command{rootCmd, serveCmd} {
		c.Flags().BoolVar(&memoryMode, "memory", false, "Keep the roster in memory, seeded from the users file; edits are not saved")
	}
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logCloser, err := logging.Setup(cfg.Logging)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	if cfg.Auth.LegacyPlaintext {
		logrus.Warn("auth.legacy_plaintext is on: passwords stored without a bcrypt hash are accepted")
	}

	rootCtx, cancelRoot := context.WithCancel(cmd.Context())
	defer cancelRoot()

	packages, err := yamlfile.LoadPackages(cfg.Files.Packages)
	if err != nil {
		return err
	}
	catalog, err := yamlfile.LoadCatalog(cfg.Files.Tools)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	admins := auth.ParseAllowlist(cfg.AdminUsers)
	logrus.WithField("admins", admins.Names()).Info("admin allowlist")

	repo, watchPath, err := openRoster(rootCtx, cfg.Files.Users, memoryMode, admins)
	if err != nil {
		return err
	}
	svc, err := portal.New(rootCtx, portal.Options{
		Repo:     repo,
		Packages: packages,
		Catalog:  catalog,
		Gate: auth.Gate{
			Verifier:     auth.Verifier{AllowPlaintext: cfg.Auth.LegacyPlaintext},
			StrictExpiry: cfg.Auth.StrictExpiry,
		},
		Admins:  admins,
		Metrics: portal.NewMetrics(reg),
	})
	if err != nil {
		return err
	}

	reload := func() {
		if err := svc.Reload(rootCtx); err != nil {
			logrus.WithError(err).Warn("roster reload failed; keeping previous roster")
		}
	}
	if cfg.Roster.Watch && watchPath != "" {
		if err := yamlfile.Watch(rootCtx, watchPath, reload); err != nil {
			logrus.WithError(err).Warn("roster watcher unavailable; edits to users.yaml need a restart")
		}
	}
	if cfg.Roster.ReloadInterval > 0 && watchPath != "" {
		go runReloadLoop(rootCtx, cfg.Roster.ReloadInterval, reload)
	}

	srv := httpapi.NewServer(cfg, svc, reg)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("addr", cfg.ListenAddr()).Info("portal listening")
		errCh <- httpServer.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	var serveErr error
	select {
	case <-stop:
		logrus.Info("shutdown requested")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	}

	cancelRoot()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		logrus.WithError(err).Warn("graceful shutdown failed")
	}
	return serveErr
}

func runReloadLoop(ctx context.Context, interval time.Duration, reload func()) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			reload()
		}
	}
}
