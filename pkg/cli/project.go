package cli

import (
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/ticktask/pkg/model"
	"github.com/harrisonrobin/ticktask/pkg/ticktick"
)

func newProjectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects"},
		Short:   "Manage projects and project folders",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), c.State().Projects)
		},
	}

	var spec ticktick.ProjectSpec
	var kind string
	create := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			spec.Name = args[0]
			spec.Kind = model.ProjectKind(kind)
			p, err := c.Projects.Create(cmd.Context(), spec)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), p)
		},
	}
	create.Flags().StringVar(&spec.Color, "color", "", "hex color or 'random'")
	create.Flags().StringVar(&kind, "kind", string(model.ProjectKindTask), "TASK or NOTE")
	create.Flags().StringVar(&spec.FolderID, "folder", "", "folder id to group the project under")

	archive := &cobra.Command{
		Use:   "archive ID...",
		Short: "Archive projects",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			ps, err := c.Projects.Archive(cmd.Context(), args...)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), ps)
		},
	}

	del := &cobra.Command{
		Use:   "delete ID...",
		Short: "Delete projects and the tasks they hold",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			ps, err := c.Projects.Delete(cmd.Context(), args...)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), ps)
		},
	}

	cmd.AddCommand(list, create, archive, del, newFolderCmd(a))
	return cmd
}

func newFolderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "folder",
		Aliases: []string{"folders"},
		Short:   "Manage project folders",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List project folders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), c.State().ProjectFolders)
		},
	}

	create := &cobra.Command{
		Use:   "create NAME...",
		Short: "Create project folders",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			fs, err := c.Projects.CreateFolders(cmd.Context(), args...)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), fs)
		},
	}

	rename := &cobra.Command{
		Use:   "rename ID NAME",
		Short: "Rename a project folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			f, ok := c.Folder(args[0])
			if !ok {
				f = model.ProjectFolder{ID: args[0]}
			}
			f.Name = args[1]
			f, err = c.Projects.UpdateFolder(cmd.Context(), f)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), f)
		},
	}

	del := &cobra.Command{
		Use:   "delete ID...",
		Short: "Delete project folders; their projects become ungrouped",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			fs, err := c.Projects.DeleteFolder(cmd.Context(), args...)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), fs)
		},
	}

	cmd.AddCommand(list, create, rename, del)
	return cmd
}
