package cmd

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/grovetools/widgetdeck/appstate"
	"github.com/grovetools/widgetdeck/cli"
	"github.com/grovetools/widgetdeck/errors"
	"github.com/grovetools/widgetdeck/internal/engine"
	"github.com/grovetools/widgetdeck/kv"
	"github.com/grovetools/widgetdeck/versioned"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewStateCmd returns the state command group.
func NewStateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect and maintain the persisted application state",
	}

	cmd.AddCommand(newStateShowCmd())
	cmd.AddCommand(newStateKeysCmd())
	cmd.AddCommand(newStateClearCmd())
	cmd.AddCommand(newStateMigrateCmd())
	cmd.AddCommand(newStatePatchCmd())
	cmd.AddCommand(newStateSchemaCmd())
	return cmd
}

func newStateShowCmd() *cobra.Command {
	var raw bool
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the persisted state",
		Long: `Print the persisted state in the current schema version.

Older blobs are migrated in memory; nothing is written back.

Examples:
  widgetdeck state show
  widgetdeck state show --raw
  widgetdeck state show --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			access, err := openState(cmd)
			if err != nil {
				return err
			}
			defer access.Close()
			ctx := commandContext(cmd)

			obj, err := access.loadRaw(ctx)
			if err != nil {
				return err
			}

			var out any
			if raw {
				out = obj
			} else {
				state, err := access.storage.Decode(*obj)
				if err != nil {
					return err
				}
				out = appstate.ToPersistent(state)
			}
			return printValue(cmd, out, format)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the stored envelope without migrating it")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json, yaml")
	return cmd
}

func (a *stateAccess) loadRaw(ctx context.Context) (*versioned.Object[json.RawMessage], error) {
	obj, err := a.storage.LoadRaw(ctx)
	if stderrors.Is(err, kv.ErrNotFound) {
		return nil, errors.NotFound("persisted state", a.storage.Key())
	}
	return obj, err
}

func printValue(cmd *cobra.Command, v any, format string) error {
	var data []byte
	var err error
	switch format {
	case "yaml":
		// Round-trip through JSON so yaml uses the json field names.
		var doc any
		if data, err = json.Marshal(v); err == nil {
			if err = json.Unmarshal(data, &doc); err == nil {
				data, err = yaml.Marshal(doc)
			}
		}
	case "json", "":
		data, err = json.MarshalIndent(v, "", "  ")
	default:
		return errors.InvalidInput(fmt.Sprintf("unknown format %q", format))
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(string(data), "\n"))
	return nil
}

func newStateKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List the keys stored in the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			access, err := openState(cmd)
			if err != nil {
				return err
			}
			defer access.Close()

			keys, err := access.backend.GetKeys(commandContext(cmd))
			if err != nil {
				return errors.StorageUnavailable(access.cfg.Storage.Backend, err)
			}
			if cli.GetOptions(cmd).JSONOutput {
				return printValue(cmd, keys, "json")
			}
			for _, key := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), key)
			}
			return nil
		},
	}
}

func newStateClearCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the persisted state",
		RunE: func(cmd *cobra.Command, args []string) error {
			access, err := openState(cmd)
			if err != nil {
				return err
			}
			defer access.Close()
			ctx := commandContext(cmd)

			if all {
				if err := access.backend.Clear(ctx); err != nil {
					return errors.Wrap(err, errors.ErrCodeStorageWrite, "failed to clear storage")
				}
				pretty(cmd).Success("Cleared every key")
				return nil
			}
			if err := access.storage.Clear(ctx); err != nil {
				return err
			}
			pretty(cmd).Success(fmt.Sprintf("Cleared %s", access.storage.Key()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Delete every key of the backend")
	return cmd
}

func newStateMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Rewrite the persisted state in the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			access, err := openState(cmd)
			if err != nil {
				return err
			}
			defer access.Close()
			ctx := commandContext(cmd)

			obj, err := access.loadRaw(ctx)
			if err != nil {
				return err
			}
			p := pretty(cmd)
			if obj.Ver == access.storage.CurrentVersion() {
				p.InfoPretty(fmt.Sprintf("Already at version %d", obj.Ver))
				return nil
			}

			state, err := access.storage.Decode(*obj)
			if err != nil {
				return err
			}
			if err := access.storage.SaveState(ctx, appstate.Prepare(state)); err != nil {
				return err
			}
			p.Success(fmt.Sprintf("Migrated %s from version %d to %d", access.storage.Key(), obj.Ver, access.storage.CurrentVersion()))
			return nil
		},
	}
}

func newStatePatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "patch <workflow-id> <field=value>...",
		Short: "Change fields of a workflow",
		Long: `Change fields of a workflow by json field name. Values are parsed as
JSON when possible and used as plain strings otherwise.

Examples:
  widgetdeck state patch 0d5c... name=Review
  widgetdeck state patch 0d5c... 'settings={"memSaver":{"workflowInactiveAfter":10}}'`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			changes, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			return withEngine(cmd, func(ctx context.Context, e *engine.Engine) error {
				if err := e.PatchWorkflow(ctx, args[0], changes); err != nil {
					return err
				}
				pretty(cmd).Success(fmt.Sprintf("Updated workflow %s", args[0]))
				return nil
			})
		},
	}
}

func parseAssignments(args []string) (map[string]any, error) {
	changes := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, errors.InvalidInput(fmt.Sprintf("expected field=value, got %q", arg))
		}
		var parsed any
		if err := json.Unmarshal([]byte(value), &parsed); err != nil {
			parsed = value
		}
		changes[key] = parsed
	}
	return changes, nil
}

func newStateSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the persisted state",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := appstate.GenerateSchema()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
