// Command channelnoded hosts the channel state machine and UTXO subsystems
// as a long-running process: it opens the durable stores, starts the update
// dispatcher, and blocks until SIGINT/SIGTERM, at which point it drains the
// dispatcher and closes every store cleanly.
package main

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vrecan/death/v3"
	"go.uber.org/zap"

	"github.com/channelcore/node/cache"
	"github.com/channelcore/node/channel"
	"github.com/channelcore/node/checkpoint"
	"github.com/channelcore/node/config"
	"github.com/channelcore/node/store"
	"github.com/channelcore/node/telemetry"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "channelnoded",
		Short: "Off-chain channel node core: channel state machine + UTXO ledger",
		RunE:  run,
	}
	root.Flags().StringVar(&configPath, "config", "", "path to a config file (yaml/json/toml)")
	root.Flags().String("utxo-store-dir", "", "badger data directory for the UTXO store")
	root.Flags().String("checkpoint-db-path", "", "bbolt database path for channel checkpoints")
	root.Flags().Int("dispatcher-queue-size", 0, "buffered queue depth for the update dispatcher")
	root.Flags().String("log-level", "", "debug|info|warn|error")
	root.Flags().Bool("development", false, "use human-readable console logging instead of JSON")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	zapLogger, err := buildLogger(cfg)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer zapLogger.Sync() //nolint:errcheck
	log := telemetry.NewFromZap(zapLogger)

	utxoStore, err := store.Open(cfg.UtxoStoreDir, log)
	if err != nil {
		return fmt.Errorf("open utxo store: %w", err)
	}
	defer utxoStore.Close() //nolint:errcheck

	utxoCache := cache.New(utxoStore, log)

	checkpointStore, err := checkpoint.Open(cfg.CheckpointDBPath, log)
	if err != nil {
		return fmt.Errorf("open checkpoint store: %w", err)
	}
	defer checkpointStore.Close() //nolint:errcheck

	registry := channel.NewRegistry(checkpointStore, log)
	resumed, err := registry.Resume()
	if err != nil {
		return fmt.Errorf("resume channels from checkpoint: %w", err)
	}

	dispatcher := channel.NewDispatcher(runtimeWorkerCount(), cfg.DispatcherQueueSize, checkpointStore, log)

	cachedEntries := utxoCache.Len()
	log.Infow("channelnoded started",
		"utxo_store_dir", cfg.UtxoStoreDir,
		"checkpoint_db_path", cfg.CheckpointDBPath,
		"dispatcher_queue_size", cfg.DispatcherQueueSize,
		"cached_utxos", cachedEntries,
		"channels_resumed", resumed,
	)

	waitForDeath(dispatcher, cfg.ShutdownGracePeriod, log)
	return nil
}

// runtimeWorkerCount is a fixed, conservative worker count for the
// dispatcher, not derived from GOMAXPROCS to avoid surprising behavior
// across deploy environments.
func runtimeWorkerCount() int {
	return 4
}

// waitForDeath blocks until SIGINT/SIGTERM/os.Interrupt, then drains the
// dispatcher (no more requests accepted, in-flight ones complete). If
// draining does not finish within grace, waitForDeath gives up waiting and
// returns anyway rather than hanging the process indefinitely; the
// dispatcher's own goroutines still run Close to completion in the
// background.
func waitForDeath(dispatcher *channel.Dispatcher, grace time.Duration, log telemetry.Sink) {
	d := death.NewDeath(syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	d.WaitForDeathWithFunc(func() {
		log.Infow("channelnoded shutting down", "shutdown_grace_period", grace)

		done := make(chan struct{})
		go func() {
			dispatcher.Close()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(grace):
			log.Warnw("dispatcher did not drain within shutdown grace period", "shutdown_grace_period", grace)
		}
	})
}

func buildLogger(cfg config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zcfg.Level = level

	return zcfg.Build()
}
