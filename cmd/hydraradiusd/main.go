// Command hydraradiusd runs the HydraRadius asynchronous RADIUS client
// scheduler alongside its management REST API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/hydraradius/hydraradius/internal/api"
	"github.com/hydraradius/hydraradius/internal/config"
	"github.com/hydraradius/hydraradius/internal/logging"
	"github.com/hydraradius/hydraradius/internal/radiusclient"
	"github.com/hydraradius/hydraradius/internal/store"
)

const statsSnapshotInterval = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// cliFlags holds parsed command-line flag values.
type cliFlags struct {
	configPath string
	dbPath     string
	host       string
	port       int
	jsonLogs   bool
	debug      bool
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.configPath, "config", "", "Path to YAML config file (overrides HYDRARADIUS_CONFIG)")
	flag.StringVar(&f.dbPath, "db", "", "Override the server-table/stats-history database path")
	flag.StringVar(&f.host, "host", "", "Override management API bind host")
	flag.IntVar(&f.port, "port", 0, "Override management API bind port")
	flag.BoolVar(&f.jsonLogs, "json-logs", false, "Enable JSON structured logging")
	flag.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	flag.Parse()
	return f
}

func applyCLIOverrides(cfg *config.Config, f cliFlags) {
	if f.dbPath != "" {
		cfg.Store.Path = f.dbPath
	}
	if f.host != "" {
		cfg.API.Host = f.host
	}
	if f.port != 0 {
		cfg.API.Port = f.port
		cfg.API.Enabled = true
	}
	if f.jsonLogs {
		cfg.Logging.Structured = true
		cfg.Logging.StructuredFormat = "json"
	}
	if f.debug {
		cfg.Logging.Level = "DEBUG"
	}
}

func run() error {
	flags := parseFlags()

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyCLIOverrides(cfg, flags)

	logger := logging.Configure(logging.Config{
		Level:            cfg.Logging.Level,
		Structured:       cfg.Logging.Structured,
		StructuredFormat: cfg.Logging.StructuredFormat,
		IncludePID:       cfg.Logging.IncludePID,
		ExtraFields:      cfg.Logging.ExtraFields,
	})

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	if err := st.SeedFromConfig(cfg); err != nil {
		return fmt.Errorf("failed to seed server table: %w", err)
	}

	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}

	client, err := radiusclient.Create(radiusclient.Settings{
		ServersMax:    cfg.QueueMax,
		ThrSocketsMin: cfg.PoolMin,
		ThrSocketsMax: cfg.PoolMax,
		SktSndBuf:     cfg.Skt.SndBuf,
		SktRcvBuf:     cfg.Skt.RcvBuf,
		NASIdentifier: []byte(cfg.NASIdentifier),
		Threads:       threads,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	defer client.Destroy()

	records, err := st.ListServers()
	if err != nil {
		return fmt.Errorf("failed to list servers: %w", err)
	}
	for _, rec := range records {
		if !rec.Enabled {
			continue
		}
		err := client.ServerAdd(radiusclient.ServerSettings{
			Address: rec.Address,
			Secret:  []byte(rec.Secret),
			Retrans: radiusclient.RetransPolicy{
				InitMs:        rec.RetransTimeInitMs,
				MaxMs:         rec.RetransTimeMaxMs,
				DurationMaxMs: rec.RetransDurationMaxMs,
				CountMax:      rec.RetransCountMax,
			},
			Enabled: true,
		})
		if err != nil {
			logger.Warn("failed to arm configured server", "address", rec.Address, "err", err)
		}
	}

	logger.Info("hydraradiusd starting",
		"servers", len(records),
		"threads", threads,
		"store", cfg.Store.Path,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)

	var apiSrv *api.Server
	if cfg.API.Enabled {
		apiSrv = api.New(cfg, logger, client, st)
		logger.Info("management API starting", "addr", apiSrv.Addr())
		go func() {
			serveErr := apiSrv.ListenAndServe()
			if serveErr == nil || errors.Is(serveErr, http.ErrServerClosed) {
				return
			}
			errCh <- fmt.Errorf("management API error: %w", serveErr)
		}()
	}

	go recordStatsPeriodically(ctx, client, st, logger)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("fatal error, shutting down", "err", err)
	}

	if apiSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = apiSrv.Shutdown(shutdownCtx)
		shutdownCancel()
		logger.Info("management API stopped")
	}

	return nil
}

// recordStatsPeriodically snapshots the scheduler's counters into the
// store's rolling history table, pruning to bound table growth.
func recordStatsPeriodically(ctx context.Context, client *radiusclient.Client, st *store.Store, logger *slog.Logger) {
	ticker := time.NewTicker(statsSnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			snap := client.Stats().Snapshot()
			if err := st.RecordStatsSnapshot(now, snap); err != nil {
				logger.Warn("failed to record stats snapshot", "err", err)
				continue
			}
			if err := st.PruneStatsHistory(2880); err != nil {
				logger.Warn("failed to prune stats history", "err", err)
			}
		}
	}
}
