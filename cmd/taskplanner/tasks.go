package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harlequingg/taskplanner/internal/task"
)

func addCmd(flags *globalFlags) *cobra.Command {
	var f task.Fields
	var priority, category string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := requireLogin(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer s.Close()
			f.Title = strings.Join(args, " ")
			f.Priority = task.Priority(priority)
			f.Category = task.Category(category)
			t, err := s.planner.AddTask(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %q\n", t.ID, t.Title)
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.Description, "desc", "d", "", "Description")
	cmd.Flags().StringVarP(&priority, "priority", "P", string(task.PriorityHigh), "Priority [high|medium|low]")
	cmd.Flags().StringVarP(&category, "category", "c", string(task.CategoryWork), "Category [work|personal|study]")
	cmd.Flags().StringVar(&f.Deadline, "deadline", "", "Deadline (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&f.IsUrgent, "urgent", false, "Mark as urgent")
	return cmd
}

func listCmd(flags *globalFlags) *cobra.Command {
	var filter string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := task.ParseFilter(filter)
			if err != nil {
				return err
			}
			s, err := requireLogin(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer s.Close()
			tasks, err := s.planner.Filter(cmd.Context(), f)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(tasks)
			}
			printTasks(cmd.OutOrStdout(), tasks)
			return nil
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "all", "Filter [all|completed|pending]")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")
	return cmd
}

func printTasks(out io.Writer, tasks []task.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks.")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDONE\tPRIORITY\tCATEGORY\tDEADLINE\tTITLE\tCOMMENTS")
	for _, t := range tasks {
		done := " "
		if t.Completed {
			done = "x"
		}
		title := t.Title
		if t.IsUrgent {
			title += " (urgent)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n", t.ID, done, t.Priority, t.Category, t.Deadline, title, len(t.Comments))
	}
	tw.Flush()
}

func doneCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a task between pending and completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := requireLogin(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer s.Close()
			t, found, err := s.planner.ToggleComplete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !found {
				fmt.Fprintf(cmd.OutOrStdout(), "No task %s.\n", args[0])
				return nil
			}
			state := "pending"
			if t.Completed {
				state = "completed"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%q is now %s\n", t.Title, state)
			return nil
		},
	}
}

func rmCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := requireLogin(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer s.Close()
			removed, err := s.planner.DeleteTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if removed {
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "No task %s.\n", args[0])
			}
			return nil
		},
	}
}

func commentCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <id> [text...]",
		Short: "Add a comment to a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := requireLogin(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer s.Close()
			t, found, err := s.planner.AddComment(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			if !found {
				fmt.Fprintf(cmd.OutOrStdout(), "No task %s.\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%q has %d comment(s)\n", t.Title, len(t.Comments))
			return nil
		},
	}
}

func sortCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sort",
		Short: "Reorder tasks by priority, high first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := requireLogin(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.planner.SortByPriority(cmd.Context()); err != nil {
				return err
			}
			printTasks(cmd.OutOrStdout(), s.planner.Tasks())
			return nil
		},
	}
}
