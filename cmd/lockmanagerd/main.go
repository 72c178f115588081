package main

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shangsuru/verifiable-lockmanager/pkg/config"
	"github.com/shangsuru/verifiable-lockmanager/pkg/keystore"
	"github.com/shangsuru/verifiable-lockmanager/pkg/lockmanager"
	"github.com/shangsuru/verifiable-lockmanager/pkg/log"
	"github.com/shangsuru/verifiable-lockmanager/pkg/metrics"
	"github.com/shangsuru/verifiable-lockmanager/pkg/rpc"
	"github.com/shangsuru/verifiable-lockmanager/pkg/signer"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "lockmanagerd",
	Short:   "A sharded, integrity-verified, two-phase row lock manager",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"lockmanagerd version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	cobra.OnInitialize(initLogging)

	serveCmd.Flags().String("config", "", "Path to YAML config file (defaults applied if omitted)")
	rootCmd.AddCommand(serveCmd)

	keygenCmd.Flags().String("key-store", "lockmanager.db", "Path to the sealed key store")
	keygenCmd.Flags().String("seal-key", "", "Hex-encoded 32-byte AES-256-GCM seal key (required)")
	rootCmd.AddCommand(keygenCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the lock manager server",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")

		cfg := config.Default()
		if configPath != "" {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
		}

		sealKey, err := sealKeyFromConfig(cfg.SealKeyHex)
		if err != nil {
			return err
		}

		store, err := keystore.Open(cfg.KeyStorePath)
		if err != nil {
			return err
		}
		defer store.Close()

		keyPair, err := keystore.LoadOrGenerate(store, sealKey)
		if err != nil {
			return fmt.Errorf("load signing key: %w", err)
		}

		mgrCfg := lockmanager.Config{
			NumWorkerThreads:     cfg.NumWorkerThreads,
			LockTableSize:        cfg.LockTableSize,
			TransactionTableSize: cfg.TransactionTableSize,
			BlockTimeout:         signer.ZeroTimeout,
		}
		mgr, err := lockmanager.New(mgrCfg, keyPair, log.Logger)
		if err != nil {
			return fmt.Errorf("initialize lock manager: %w", err)
		}
		mgr.Start()
		defer mgr.Stop()

		collector := lockmanager.NewCollector(mgr)
		collector.Start()
		defer collector.Stop()

		metrics.RegisterComponent("lockmanager", true, "")
		metrics.RegisterComponent("rpc", true, "")
		go serveMetrics(cfg.MetricsAddr)

		server := rpc.NewServer(mgr, log.Logger)
		serverErrCh := make(chan error, 1)
		go func() {
			serverErrCh <- server.Start(cfg.ListenAddr)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-serverErrCh:
			return fmt.Errorf("rpc server stopped: %w", err)
		case sig := <-sigCh:
			log.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
			server.Stop()
		}
		return nil
	},
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/healthz", metrics.HealthHandler())
	mux.Handle("/readyz", metrics.ReadyHandler())
	mux.Handle("/livez", metrics.LivenessHandler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Logger.Error().Err(err).Msg("metrics server stopped")
	}
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate and seal a fresh ECDSA P-256 signing key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		keyStorePath, _ := cmd.Flags().GetString("key-store")
		sealKeyHex, _ := cmd.Flags().GetString("seal-key")

		sealKey, err := sealKeyFromConfig(sealKeyHex)
		if err != nil {
			return err
		}

		store, err := keystore.Open(keyStorePath)
		if err != nil {
			return err
		}
		defer store.Close()

		keyPair, err := keystore.LoadOrGenerate(store, sealKey)
		if err != nil {
			return fmt.Errorf("generate signing key: %w", err)
		}

		fmt.Printf("public key: %s\n", signer.ExportPublicKey(keyPair.Public))
		return nil
	},
}

func sealKeyFromConfig(sealKeyHex string) ([]byte, error) {
	if sealKeyHex == "" {
		return nil, fmt.Errorf("a 32-byte hex-encoded seal key is required (seal_key_hex / --seal-key)")
	}
	key, err := hex.DecodeString(sealKeyHex)
	if err != nil {
		return nil, fmt.Errorf("seal key is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("seal key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}
