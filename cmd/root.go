// Package cmd implements the widgetdeck command line.
package cmd

import (
	"context"
	"io"

	"github.com/grovetools/widgetdeck/appstate"
	"github.com/grovetools/widgetdeck/cli"
	"github.com/grovetools/widgetdeck/config"
	"github.com/grovetools/widgetdeck/internal/engine"
	"github.com/grovetools/widgetdeck/kv"
	"github.com/grovetools/widgetdeck/logging"
	"github.com/grovetools/widgetdeck/pkg/profiling"
	"github.com/grovetools/widgetdeck/statestore"
	"github.com/grovetools/widgetdeck/version"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the widgetdeck command tree.
func NewRootCmd() *cobra.Command {
	root := cli.NewStandardCommand("widgetdeck", "Inspect and drive the widgetdeck application state")
	info := version.GetInfo()
	info.StateVersion = appstate.CurrentVersion
	cli.SetVersionTemplate(root, info)
	profiling.NewCobraProfiler().Attach(root)

	root.AddCommand(NewStateCmd())
	root.AddCommand(NewProjectCmd())
	root.AddCommand(NewWorkflowCmd())
	root.AddCommand(NewRunCmd())
	root.AddCommand(NewConfigCmd())
	root.AddCommand(NewPathsCmd())
	root.AddCommand(cli.NewVersionCommand("widgetdeck", info))
	return root
}

func pretty(cmd *cobra.Command) *logging.PrettyLogger {
	return logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
}

// stateAccess is the persisted state of the configured backend, without a
// running store.
type stateAccess struct {
	cfg     *config.Config
	backend kv.Storage
	storage *statestore.Storage[appstate.AppState]
}

func (a *stateAccess) Close() error {
	return kv.Close(a.backend)
}

func openState(cmd *cobra.Command) (*stateAccess, error) {
	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return nil, err
	}
	defer profiling.Start("state.open").Stop()
	backend, err := engine.OpenBackend(commandContext(cmd), cfg.Storage)
	if err != nil {
		return nil, err
	}
	return &stateAccess{
		cfg:     cfg,
		backend: backend,
		storage: appstate.NewStateStorage(kv.NewJSON(backend), cfg.Storage.Key),
	}, nil
}

// withEngine runs fn against a ready engine and closes it afterwards, which
// waits for the resulting saves.
func withEngine(cmd *cobra.Command, fn func(ctx context.Context, e *engine.Engine) error) error {
	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	load := profiling.Start("engine.load")
	e, err := engine.New(ctx, engine.Options{Config: cfg, Logger: cli.GetLogger(cmd)})
	if err != nil {
		load.Stop()
		return err
	}
	if err := e.WaitReady(ctx); err != nil {
		load.Stop()
		_ = e.Close(ctx)
		return err
	}
	load.Stop()

	run := profiling.Start(cmd.Name())
	runErr := fn(ctx, e)
	run.Stop()

	defer profiling.Start("engine.close").Stop()
	if err := e.Close(ctx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// Execute runs the root command and reports errors through cli.ErrorHandler.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err != nil {
		verbose, _ := root.PersistentFlags().GetBool("verbose")
		return cli.NewErrorHandler(verbose, stderr).Handle(err)
	}
	return nil
}
