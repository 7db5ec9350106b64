package cli

import (
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/ticktask/pkg/model"
	"github.com/harrisonrobin/ticktask/pkg/ticktick"
)

func newTaskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks"},
		Short:   "Manage tasks",
	}

	var projectID string
	list := &cobra.Command{
		Use:   "list",
		Short: "List open tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			if projectID != "" {
				tasks, err := c.Tasks.FromProject(projectID)
				if err != nil {
					return err
				}
				return a.print(cmd.OutOrStdout(), tasks)
			}
			return a.print(cmd.OutOrStdout(), c.State().Tasks)
		},
	}
	list.Flags().StringVarP(&projectID, "project", "p", "", "only tasks of this project id")

	cmd.AddCommand(list, newTaskAddCmd(a))
	cmd.AddCommand(
		idsCommand(a, "complete ID...", "Mark tasks completed", func(c *ticktick.Client, cmd *cobra.Command, ids []string) (any, error) {
			return c.Tasks.Complete(cmd.Context(), ids...)
		}),
		idsCommand(a, "delete ID...", "Delete tasks", func(c *ticktick.Client, cmd *cobra.Command, ids []string) (any, error) {
			return c.Tasks.Delete(cmd.Context(), ids...)
		}),
	)

	move := &cobra.Command{
		Use:   "move FROM_PROJECT TO_PROJECT",
		Short: "Move every task of one project to another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			moved, err := c.Tasks.MoveProjects(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), moved)
		},
	}

	cmd.AddCommand(move, newTaskCompletedCmd(a))
	return cmd
}

func newTaskAddCmd(a *app) *cobra.Command {
	var (
		spec       ticktick.TaskSpec
		start, end string
		priority   string
		parentID   string
	)

	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Create a task",
		Long: `Create a task. Dates are wall clock times in --tz (the account zone by default).
A date without a time makes an all-day task.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			spec.Title = args[0]
			if spec.Start, err = parseWhen(start); err != nil {
				return err
			}
			if spec.End, err = parseWhen(end); err != nil {
				return err
			}
			if spec.Priority, err = model.ParsePriority(priority); err != nil {
				return err
			}

			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}

			if parentID != "" {
				if parent, ok := c.Task(parentID); ok && spec.ProjectID == "" {
					spec.ProjectID = parent.ProjectID
				}
				stub, err := c.Tasks.Builder(spec)
				if err != nil {
					return err
				}
				subs, err := c.Tasks.CreateSubtasks(cmd.Context(), parentID, stub)
				if err != nil {
					return err
				}
				return a.print(cmd.OutOrStdout(), subs[0])
			}

			task, err := c.Tasks.Create(cmd.Context(), spec)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), task)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&spec.ProjectID, "project", "p", "", "project id (the inbox by default)")
	f.StringVar(&start, "start", "", "start date, YYYY-MM-DD or YYYY-MM-DD HH:MM")
	f.StringVar(&end, "due", "", "due date, YYYY-MM-DD or YYYY-MM-DD HH:MM")
	f.StringVar(&priority, "priority", "none", "none, low, medium or high")
	f.StringSliceVarP(&spec.Tags, "tag", "t", nil, "tag label, repeatable; missing tags are created")
	f.StringVar(&spec.Content, "content", "", "task description")
	f.StringVar(&spec.TimeZone, "tz", "", "IANA time zone of the dates")
	f.StringVar(&parentID, "parent", "", "create as a subtask of this task id")
	return cmd
}

func newTaskCompletedCmd(a *app) *cobra.Command {
	var (
		from, to string
		full     bool
		tz       string
	)

	cmd := &cobra.Command{
		Use:   "completed",
		Short: "List tasks completed in a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, err := parseWhen(from)
			if err != nil {
				return err
			}
			end, err := parseWhen(to)
			if err != nil {
				return err
			}
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			tasks, err := c.Tasks.Completed(cmd.Context(), start, end, full, tz)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), tasks)
		},
	}

	f := cmd.Flags()
	f.StringVar(&from, "from", "", "start of the range")
	f.StringVar(&to, "to", "", "end of the range (the start day when empty)")
	f.BoolVar(&full, "full-days", true, "widen the range to whole days")
	f.StringVar(&tz, "tz", "", "IANA time zone of the range")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

// idsCommand builds a command that applies fn to one or more ids and prints
// the result.
func idsCommand(a *app, use, short string, fn func(*ticktick.Client, *cobra.Command, []string) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			out, err := fn(c, cmd, args)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), out)
		},
	}
}
