package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docbind/internal/api"
	"github.com/dgallion1/docbind/internal/pipeline"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the build API over HTTP",
		Long: `Start the HTTP API. Builds are queued and run one at a time against the
manifest, which is re-read for every build. Requires DOCBIND_API_KEY.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), rootOpts, port, cmd)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", rootOpts.Config.Port, "listen port")

	return cmd
}

func runServe(ctx context.Context, opts *RootOptions, port string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	log := slog.New(slog.NewJSONHandler(cmd.OutOrStdout(), nil))

	cfg := opts.Config
	cfg.Port = port
	cfg.Manifest = opts.Manifest
	cfg.Title = opts.Title
	if err := cfg.Validate(); err != nil {
		_ = f.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	orch := pipeline.NewOrchestrator(cfg, opts.loader(), log)
	orch.Start(ctx)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewServer(orch, log, cfg),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting docbind", "port", cfg.Port, "manifest", cfg.Manifest)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		orch.Stop()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			return WrapExitError(ExitFailure, "server error", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down...")

	// Stop accepting requests before the queue closes.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := httpServer.Shutdown(shutdownCtx)
	orch.Stop()
	if err != nil {
		log.Error("shutdown error", "error", err)
		return WrapExitError(ExitFailure, "shutdown", err)
	}
	return nil
}
