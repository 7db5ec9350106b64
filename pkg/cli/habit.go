package cli

import (
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/ticktask/pkg/model"
	"github.com/harrisonrobin/ticktask/pkg/ticktick"
)

func newHabitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "habit",
		Aliases: []string{"habits"},
		Short:   "Manage habits and check-ins (needs oauth.client_id)",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List habits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			hs, err := c.Habits.List(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), hs)
		},
	}

	var (
		restore bool
		when    string
	)
	archive := &cobra.Command{
		Use:   "archive ID",
		Short: "Archive a habit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parseWhen(when)
			if err != nil {
				return err
			}
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			h, err := c.Habits.Archive(cmd.Context(), args[0], !restore, at)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), h)
		},
	}
	archive.Flags().BoolVar(&restore, "restore", false, "unarchive instead")
	archive.Flags().StringVar(&when, "at", "", "archive time in UTC (now when empty)")

	cmd.AddCommand(list, newHabitCreateCmd(a), archive, newHabitCheckinCmd(a), newHabitCheckinsCmd(a))
	return cmd
}

func newHabitCreateCmd(a *app) *cobra.Command {
	var (
		spec  ticktick.HabitSpec
		kind  string
		start string
	)

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a habit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			spec.Name = args[0]
			spec.Type = model.HabitType(kind)
			if spec.TargetStart, err = parseWhen(start); err != nil {
				return err
			}
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			h, err := c.Habits.Create(cmd.Context(), spec)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), h)
		},
	}

	f := cmd.Flags()
	f.StringVar(&spec.Color, "color", "", "hex color or 'random'")
	f.StringVar(&kind, "type", string(model.HabitBoolean), "Boolean or Real")
	f.Float64Var(&spec.Goal, "goal", 0, "daily goal")
	f.Float64Var(&spec.Step, "step", 0, "amount added per check")
	f.StringVar(&spec.Unit, "unit", "", "unit of the goal")
	f.StringVar(&spec.RepeatRule, "repeat", "", "RRULE, daily by default")
	f.StringVar(&spec.Encouragement, "encouragement", "", "message shown with the habit")
	f.StringSliceVar(&spec.Reminders, "reminder", nil, "reminder time HH:MM, repeatable")
	f.IntVar(&spec.TargetDays, "target-days", 0, "number of days to keep the habit")
	f.StringVar(&start, "target-start", "", "first day of the target, YYYY-MM-DD")
	f.StringVar(&spec.SectionID, "section", "", "habit section id")
	f.BoolVar(&spec.RecordEnable, "record", false, "ask for a log entry on check-in")
	return cmd
}

func newHabitCheckinCmd(a *app) *cobra.Command {
	var (
		value float64
		day   string
	)

	cmd := &cobra.Command{
		Use:   "checkin ID",
		Short: "Record a check-in value for a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseWhen(day)
			if err != nil {
				return err
			}
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			ci, err := c.Habits.SetCheckin(cmd.Context(), args[0], value, date)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), ci)
		},
	}
	cmd.Flags().Float64Var(&value, "value", 1, "value to record")
	cmd.Flags().StringVar(&day, "date", "", "day of the check-in (today when empty)")
	return cmd
}

func newHabitCheckinsCmd(a *app) *cobra.Command {
	var (
		after string
		days  int
	)

	cmd := &cobra.Command{
		Use:   "checkins ID",
		Short: "List the check-ins of a habit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			since, err := parseWhen(after)
			if err != nil {
				return err
			}
			if since.IsZero() {
				since = a.now().AddDate(0, 0, -days)
			}
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			cs, err := c.Habits.Checkins(cmd.Context(), args[0], since)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), cs)
		},
	}
	cmd.Flags().StringVar(&after, "after", "", "only check-ins after this day")
	cmd.Flags().IntVar(&days, "days", 30, "look back this many days when --after is not set")
	return cmd
}

