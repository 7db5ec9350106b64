package cli

import (
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/ticktask/pkg/model"
	"github.com/harrisonrobin/ticktask/pkg/ticktick"
)

func newTagCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tag",
		Aliases: []string{"tags"},
		Short:   "Manage tags",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), c.State().Tags)
		},
	}

	var spec ticktick.TagSpec
	var sort string
	create := &cobra.Command{
		Use:   "create LABEL",
		Short: "Create a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			spec.Label = args[0]
			spec.Sort = model.TagSort(sort)
			t, err := c.Tags.Create(cmd.Context(), spec)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), t)
		},
	}
	create.Flags().StringVar(&spec.Color, "color", "", "hex color or 'random'")
	create.Flags().StringVar(&spec.Parent, "parent", "", "parent tag label")
	create.Flags().StringVar(&sort, "sort", string(model.TagSortProject), "project, dueDate, title or priority")

	rename := &cobra.Command{
		Use:   "rename OLD NEW",
		Short: "Rename a tag",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			t, err := c.Tags.Rename(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), t)
		},
	}

	merge := &cobra.Command{
		Use:   "merge KEPT SOURCE...",
		Short: "Move the tasks of the source tags to KEPT and delete the sources",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			t, err := c.Tags.Merge(cmd.Context(), args[0], args[1:]...)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), t)
		},
	}

	nest := &cobra.Command{
		Use:   "nest LABEL [PARENT]",
		Short: "Nest a tag under PARENT, or un-nest it when PARENT is omitted",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			parent := ""
			if len(args) == 2 {
				parent = args[1]
			}
			t, err := c.Tags.Nesting(cmd.Context(), args[0], parent)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), t)
		},
	}

	del := idsCommand(a, "delete LABEL...", "Delete tags", func(c *ticktick.Client, cmd *cobra.Command, labels []string) (any, error) {
		return c.Tags.Delete(cmd.Context(), labels...)
	})

	cmd.AddCommand(list, create, rename, merge, nest, del)
	return cmd
}
