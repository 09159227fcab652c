package cli

import (
	"github.com/spf13/cobra"
)

func newCollectionCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collection",
		Aliases: []string{"collections", "col"},
		Short:   "Manage collections",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List collections",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				printCollectionList(cmd.OutOrStdout(), s.app.State().Collections)
				return nil
			},
		},
		&cobra.Command{
			Use:   "show COLLECTION",
			Short: "Show the requests of a collection",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				col, err := s.app.FindCollection(args[0])
				if err != nil {
					return err
				}
				printCollection(cmd.OutOrStdout(), col)
				return nil
			},
		},
		&cobra.Command{
			Use:   "create NAME",
			Short: "Create an empty collection",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id := s.app.CreateCollection(args[0])
				printSuccess(cmd.OutOrStdout(), "Created collection %q (%s)", args[0], id)
				return nil
			},
		},
		&cobra.Command{
			Use:   "rename COLLECTION NAME",
			Short: "Rename a collection",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				col, err := s.app.FindCollection(args[0])
				if err != nil {
					return err
				}
				if err := s.app.RenameCollection(col.ID, args[1]); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Renamed %q to %q", col.Name, args[1])
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete COLLECTION",
			Short: "Delete a collection and all its requests",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				col, err := s.app.FindCollection(args[0])
				if err != nil {
					return err
				}
				if err := s.app.DeleteCollection(cmd.Context(), col.ID); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Deleted collection %q", col.Name)
				return nil
			},
		},
	)

	return cmd
}
