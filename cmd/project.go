package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/grovetools/widgetdeck/appstate"
	"github.com/grovetools/widgetdeck/cli"
	"github.com/grovetools/widgetdeck/internal/engine"
	"github.com/spf13/cobra"
)

// NewProjectCmd returns the project command group.
func NewProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "List, create and switch projects",
	}
	cmd.AddCommand(newProjectListCmd())
	cmd.AddCommand(newProjectAddCmd())
	cmd.AddCommand(newProjectSwitchCmd())
	cmd.AddCommand(newProjectMoveCmd())
	return cmd
}

type projectSummary struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Current   bool              `json:"current"`
	Workflows []workflowSummary `json:"workflows"`
}

type workflowSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Current bool   `json:"current"`
	Widgets int    `json:"widgets"`
}

func summarize(s appstate.AppState) []projectSummary {
	var out []projectSummary
	for _, id := range s.UI.ProjectSwitcher.ProjectIDs {
		prj, ok := s.Entities.Projects[id]
		if !ok {
			continue
		}
		summary := projectSummary{
			ID:        prj.ID,
			Name:      prj.Name,
			Current:   prj.ID == s.UI.ProjectSwitcher.CurrentProjectID,
			Workflows: []workflowSummary{},
		}
		for _, wflID := range prj.WorkflowIDs {
			wfl, ok := s.Entities.Workflows[wflID]
			if !ok {
				continue
			}
			summary.Workflows = append(summary.Workflows, workflowSummary{
				ID:      wfl.ID,
				Name:    wfl.Name,
				Current: wfl.ID == prj.CurrentWorkflowID,
				Widgets: len(wfl.Layout),
			})
		}
		out = append(out, summary)
	}
	return out
}

func newProjectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects and their workflows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, e *engine.Engine) error {
				projects := summarize(e.State())
				if cli.GetOptions(cmd).JSONOutput {
					if projects == nil {
						projects = []projectSummary{}
					}
					return printValue(cmd, projects, "json")
				}

				p := pretty(cmd)
				if len(projects) == 0 {
					p.InfoPretty("No projects")
					return nil
				}
				for _, prj := range projects {
					marker := " "
					if prj.Current {
						marker = "*"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %s\n", marker, prj.Name, prj.ID)
					for _, wfl := range prj.Workflows {
						marker := " "
						if wfl.Current {
							marker = "*"
						}
						fmt.Fprintf(cmd.OutOrStdout(), "    %s %s  %s (%d widgets)\n", marker, wfl.Name, wfl.ID, wfl.Widgets)
					}
				}
				return nil
			})
		},
	}
}

func newProjectAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> [workflow-name]",
		Short: "Create a project, optionally with a first workflow",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, e *engine.Engine) error {
				prj, err := e.AddProject(ctx, args[0])
				if err != nil {
					return err
				}
				p := pretty(cmd)
				p.Success(fmt.Sprintf("Created project %s", prj.Name))
				p.Field("id", prj.ID)

				if len(args) == 2 {
					wfl, err := e.AddWorkflow(ctx, prj.ID, args[1])
					if err != nil {
						return err
					}
					p.Field("workflow", wfl.ID)
				}
				return nil
			})
		},
	}
}

func newProjectSwitchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "switch <project-id>",
		Short: "Make a project current",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, e *engine.Engine) error {
				if err := e.SetCurrentProject(ctx, args[0]); err != nil {
					return err
				}
				pretty(cmd).Success(fmt.Sprintf("Switched to project %s", args[0]))
				return nil
			})
		},
	}
}

func newProjectMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <from> <to>",
		Short: "Reorder the project switcher",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := strconv.Atoi(args[0])
			if err != nil {
				return err
			}
			to, err := strconv.Atoi(args[1])
			if err != nil {
				return err
			}
			return withEngine(cmd, func(ctx context.Context, e *engine.Engine) error {
				return e.MoveProject(ctx, from, to)
			})
		},
	}
}

// NewWorkflowCmd returns the workflow command group.
func NewWorkflowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Create, switch and remove workflows",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <project-id> <name>",
		Short: "Create a workflow",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, e *engine.Engine) error {
				wfl, err := e.AddWorkflow(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				pretty(cmd).Success(fmt.Sprintf("Created workflow %s", wfl.Name))
				pretty(cmd).Field("id", wfl.ID)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "switch <workflow-id>",
		Short: "Make a workflow current in its project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, e *engine.Engine) error {
				if err := e.SetCurrentWorkflow(ctx, args[0]); err != nil {
					return err
				}
				pretty(cmd).Success(fmt.Sprintf("Switched to workflow %s", args[0]))
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove <workflow-id>",
		Short: "Delete a workflow and its widgets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, e *engine.Engine) error {
				return e.RemoveWorkflow(ctx, args[0])
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add-widget <workflow-id> <type> [name]",
		Short: "Place a new widget on a workflow",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 3 {
				name = args[2]
			}
			return withEngine(cmd, func(ctx context.Context, e *engine.Engine) error {
				widget, err := e.AddWidget(ctx, args[0], args[1], name)
				if err != nil {
					return err
				}
				pretty(cmd).Field("id", widget.ID)
				return nil
			})
		},
	})
	return cmd
}
