package cli

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brimtide/vlesstund/internal/auth"
	"github.com/brimtide/vlesstund/internal/config"
	"github.com/brimtide/vlesstund/internal/outbound"
	"github.com/brimtide/vlesstund/internal/shared/tuning"
	"github.com/brimtide/vlesstund/internal/shared/utils"
	"github.com/brimtide/vlesstund/internal/statsreport"
	"github.com/brimtide/vlesstund/internal/tunnel"
)

var servePprofPort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tunnel server",
	Long:  `Start the WebSocket tunnel server to accept client connections`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePprofPort, "pprof", getEnvInt("PPROF_PORT", 0), "Enable pprof on localhost:PORT (env: PPROF_PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := utils.InitServerLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer utils.Sync()
	logger := utils.GetLogger()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	tuning.Apply(tuning.DefaultServerConfig())

	logger.Info("starting vlesstund",
		zap.String("version", Version),
		zap.String("commit", GitCommit),
		zap.Int("port", cfg.Port),
		zap.Bool("mux_enabled", cfg.MuxEnabled),
	)

	if servePprofPort > 0 {
		go func() {
			addr := fmt.Sprintf("localhost:%d", servePprofPort)
			logger.Info("starting pprof server", zap.String("address", addr))
			if err := http.ListenAndServe(addr, nil); err != nil {
				logger.Error("pprof server failed", zap.Error(err))
			}
		}()
	}

	providers, err := buildProviders(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build authorization providers: %w", err)
	}

	l2Path := ""
	if wd, err := os.Getwd(); err == nil {
		l2Path = wd + "/vlesstund-auth.db"
	}

	store, err := auth.NewStore(providers, cfg.UUIDCacheTTL, l2Path, logger)
	if err != nil {
		return fmt.Errorf("failed to build authorization store: %w", err)
	}
	defer store.Close()

	doh := outbound.NewDoHClient(cfg.DNSServer)

	var report tunnel.StatsReporter
	if cfg.StatsReportingEnabled() {
		reporter := statsreport.New(cfg.StatsReportURL, cfg.StatsReportToken, logger)
		report = reporter.Report
	}

	server := tunnel.NewServer(cfg, store, doh, report, logger)

	httpServer := &http.Server{
		Addr:    tunnel.PortString(cfg.Port),
		Handler: server,
	}

	go func() {
		logger.Info("tunnel server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
	return nil
}

// buildProviders assembles the authorization providers enabled by
// configuration, per spec.md §6: DEV_MODE+UUID registers a static
// provider, optionally supplemented by a larger allow-list read from
// STATIC_UUIDS_FILE; RW_API_URL+RW_API_KEY registers the
// Remnawave-style remote provider.
func buildProviders(cfg *config.Config, logger *zap.Logger) ([]auth.Provider, error) {
	var providers []auth.Provider

	if cfg.DevMode {
		var uuids []string
		if cfg.StaticUUID != "" {
			uuids = append(uuids, cfg.StaticUUID)
		}
		if cfg.StaticUUIDFile != "" {
			fromFile, err := auth.LoadUUIDsFromFile(cfg.StaticUUIDFile)
			if err != nil {
				return nil, err
			}
			uuids = append(uuids, fromFile...)
			logger.Info("loaded static UUIDs from file",
				zap.String("path", cfg.StaticUUIDFile), zap.Int("count", len(fromFile)))
		}
		if len(uuids) > 0 {
			providers = append(providers, auth.NewStaticProvider(uuids...))
		}
	}

	if cfg.RemoteProviderEnabled() {
		providers = append(providers, auth.NewRemoteProvider(cfg.RemoteAPIURL, cfg.RemoteAPIKey))
		logger.Info("remote authorization provider enabled", zap.String("url", cfg.RemoteAPIURL))
	}

	return providers, nil
}
