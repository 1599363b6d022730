package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grovetools/widgetdeck/appstate"
	"github.com/grovetools/widgetdeck/cli"
	"github.com/grovetools/widgetdeck/internal/engine"
	"github.com/grovetools/widgetdeck/internal/pidfile"
	"github.com/grovetools/widgetdeck/memsaver"
	"github.com/grovetools/widgetdeck/pkg/paths"
	"github.com/grovetools/widgetdeck/store"
	"github.com/spf13/cobra"
)

// NewRunCmd returns the command keeping an engine alive in the foreground.
func NewRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the state engine in the foreground",
		Long: `Run the state engine until interrupted. The configuration is watched and
memsaver changes are applied live; workflow activations and releases are
logged as they happen.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := cli.GetLogger(cmd)
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}

			pidPath := paths.PidFilePath()
			if err := pidfile.Acquire(pidPath); err != nil {
				return err
			}
			defer func() {
				if err := pidfile.Release(pidPath); err != nil {
					logger.Errorf("Failed to release pidfile: %v", err)
				}
			}()

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			e, err := engine.New(ctx, engine.Options{Config: cfg, Logger: logger})
			if err != nil {
				return err
			}
			if err := e.WaitReady(ctx); err != nil {
				_ = e.Close(context.Background())
				return err
			}

			unsubscribe := store.Subscribe(e.Store(),
				func(s appstate.AppState) []memsaver.ActiveWorkflow { return s.UI.MemSaver.ActiveWorkflows },
				func(cur, prev []memsaver.ActiveWorkflow) {
					logger.WithField("active", len(cur)).WithField("previous", len(prev)).Info("Active workflows changed")
				},
				store.FireImmediately())
			defer unsubscribe()

			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			go func() {
				if err := e.Watch(ctx, cwd); err != nil {
					logger.WithError(err).Warn("Configuration changes will not be picked up")
				}
			}()

			logger.WithField("pid", os.Getpid()).WithField("backend", cfg.Storage.Backend).Info("Engine running")
			<-ctx.Done()
			logger.Info("Received stop signal")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return e.Close(shutdownCtx)
		},
	}
}
