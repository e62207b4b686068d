package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cuemby/hexwarren/pkg/api"
	"github.com/cuemby/hexwarren/pkg/log"
	"github.com/cuemby/hexwarren/pkg/manager"
	"github.com/cuemby/hexwarren/pkg/runtime"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	// Every reducer package registers itself into runtime.DefaultRegistry
	// from an init(), the same "import for side effects" wiring the
	// teacher used for its own subsystem packages.
	_ "github.com/cuemby/hexwarren/pkg/anticheat"
	_ "github.com/cuemby/hexwarren/pkg/building"
	_ "github.com/cuemby/hexwarren/pkg/collab"
	_ "github.com/cuemby/hexwarren/pkg/identity"
	_ "github.com/cuemby/hexwarren/pkg/inventory"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "hexwarren",
	Short:   "hexwarren - a single-node authoritative game world server",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("hexwarren version %s\nCommit: %s\n", Version, Commit))
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importStaticDataCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	asJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(level), JSONOutput: asJSON})
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the world server: raft node, reducer dispatch, and the API/health endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		nodeID, _ := cmd.Flags().GetString("node-id")
		bindAddr, _ := cmd.Flags().GetString("bind-addr")
		apiAddr, _ := cmd.Flags().GetString("api-addr")
		healthAddr, _ := cmd.Flags().GetString("health-addr")
		dataDir, _ := cmd.Flags().GetString("data-dir")

		logger := log.WithComponent("main")

		if nodeID == "" {
			nodeID = uuid.New().String()
			logger.Info().Str("node_id", nodeID).Msg("no --node-id given, generated one")
		}
		logger.Info().Str("node_id", nodeID).Str("data_dir", dataDir).Msg("starting hexwarren")

		mgr, err := manager.New(manager.Config{
			NodeID:   nodeID,
			BindAddr: bindAddr,
			DataDir:  dataDir,
		}, runtime.DefaultRegistry)
		if err != nil {
			return fmt.Errorf("create manager: %w", err)
		}
		mgr.Start()

		apiServer := api.NewServer(mgr)
		apiErrCh := make(chan error, 1)
		go func() {
			if err := apiServer.Start(apiAddr); err != nil {
				apiErrCh <- fmt.Errorf("api server: %w", err)
			}
		}()

		healthServer := api.NewHealthServer(mgr)
		go func() {
			if err := healthServer.Start(healthAddr); err != nil {
				logger.Error().Err(err).Msg("health server stopped")
			}
		}()

		logger.Info().Str("api_addr", apiAddr).Str("health_addr", healthAddr).Msg("hexwarren ready")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			logger.Info().Msg("shutting down")
		case err := <-apiErrCh:
			logger.Error().Err(err).Msg("api server failed")
		}

		apiServer.Stop()
		if err := mgr.Shutdown(); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("node-id", "", "Unique node ID (generated if unset)")
	serveCmd.Flags().String("bind-addr", "127.0.0.1:7946", "Address for raft communication")
	serveCmd.Flags().String("api-addr", "127.0.0.1:8080", "Address for the gRPC reducer API")
	serveCmd.Flags().String("health-addr", "127.0.0.1:9090", "Address for /health, /ready, and /metrics")
	serveCmd.Flags().String("data-dir", "./hexwarren-data", "Data directory for world and raft state")
}
