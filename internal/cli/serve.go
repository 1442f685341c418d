package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/contentguard/internal/server"
)

var servePort int

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "gRPC listen port (default from config, 50051)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gRPC protection server",
	Long: "Runs contentguard as a local protection server over gRPC so browsers,\n" +
		"proxies and other processes share one settings document.\n" +
		"Hot-reloads the settings document and the denylist when they change.",
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	store, done, err := openStore()
	if err != nil {
		return err
	}
	defer done()

	srv, err := server.New(store, server.Config{
		Addr:         cfg.Addr(),
		DenylistPath: cfg.DenylistPath(),
	}, logger)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	watched := []string{store.Path(), cfg.DenylistPath()}
	if reloader, err := server.NewReloader(srv, watched, logger); err != nil {
		logger.Warn("hot-reload disabled", "error", err)
	} else {
		logger.Info("hot-reload enabled", "files", reloader.Watched())
		go reloader.Run(ctx)
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down protection server")
		srv.GracefulStop()
	}()

	logger.Info("protection server listening", "addr", cfg.Addr())
	return srv.Serve()
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctxOf(cmd), os.Interrupt, syscall.SIGTERM)
}
