package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"tasks-api/internal/manager"
	"tasks-api/internal/models"
	"tasks-api/internal/storage"
	"tasks-api/internal/validation"
)

func newTaskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks from the command line",
	}
	cmd.AddCommand(
		newTaskAddCmd(a),
		newTaskListCmd(a),
		newTaskDoneCmd(a),
		newTaskDeleteCmd(a),
	)
	return cmd
}

// withServices runs fn with the task gateway and validator, closing the
// storage afterwards.
func (a *app) withServices(ctx context.Context, fn func(*manager.TaskManager, *validation.TaskValidator) error) error {
	tm, v, closeFn, err := a.services(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(tm, v)
}

func newTaskAddCmd(a *app) *cobra.Command {
	var desc string
	var completed bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new task",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withServices(ctx, func(tm *manager.TaskManager, v *validation.TaskValidator) error {
				draft, err := v.Validate(map[string]any{"description": desc, "completed": completed}, nil, false)
				if err != nil {
					return err
				}
				task, err := tm.Create(ctx, draft)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added task with ID %d\n", task.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&desc, "desc", "", "task description")
	cmd.Flags().BoolVar(&completed, "completed", false, "mark the task as completed")
	cmd.MarkFlagRequired("desc")
	return cmd
}

func newTaskListCmd(a *app) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withServices(ctx, func(tm *manager.TaskManager, _ *validation.TaskValidator) error {
				tasks, err := tm.List(ctx, models.ParseStatus(status).Filter())
				if err != nil {
					return err
				}
				printTasks(cmd.OutOrStdout(), tasks)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "all", "filter: all|completed|not_completed")
	return cmd
}

func newTaskDoneCmd(a *app) *cobra.Command {
	var undo bool

	cmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			return a.withServices(ctx, func(tm *manager.TaskManager, v *validation.TaskValidator) error {
				existing, err := tm.Get(ctx, id)
				if err != nil {
					return describe(err, id)
				}
				draft, err := v.Validate(map[string]any{"completed": !undo}, &existing, true)
				if err != nil {
					return err
				}
				if _, err := tm.Update(ctx, id, draft); err != nil {
					return describe(err, id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Task %d marked as %s\n", id, statusLabel(!undo))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "mark the task as not completed instead")
	return cmd
}

func newTaskDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			return a.withServices(ctx, func(tm *manager.TaskManager, _ *validation.TaskValidator) error {
				if err := tm.Delete(ctx, id); err != nil {
					return describe(err, id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Task %d deleted\n", id)
				return nil
			})
		},
	}
}

func printTasks(w io.Writer, tasks []models.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks found")
		return
	}
	for _, task := range tasks {
		fmt.Fprintf(w, "%d: %s [%s]\n", task.ID, task.Description, statusLabel(task.Completed))
	}
}

func statusLabel(completed bool) string {
	if completed {
		return "completed"
	}
	return "not completed"
}

func parseTaskID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

func describe(err error, id int64) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("task %d not found", id)
	}
	return err
}
