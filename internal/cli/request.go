package cli

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/artpar/postbox/internal/app"
	"github.com/artpar/postbox/internal/core"
	"github.com/artpar/postbox/internal/exporter"
)

// copyToClipboard is replaced in tests.
var copyToClipboard = clipboard.WriteAll

func newRequestCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "request",
		Aliases: []string{"req"},
		Short:   "Manage saved requests",
	}

	cmd.AddCommand(
		newRequestAddCommand(s),
		newRequestEditCommand(s),
		newRequestDeleteCommand(s),
		newRequestCurlCommand(s),
	)
	return cmd
}

func newRequestAddCommand(s *session) *cobra.Command {
	var rf requestFlags

	cmd := &cobra.Command{
		Use:   "add COLLECTION METHOD URL",
		Short: "Save a new request to a collection",
		Example: `  postbox request add "My API Collection" GET "{{baseUrl}}/users" --name "List users"
  postbox request add api POST "{{baseUrl}}/users" -d '{"name":"Ada"}' --bearer "{{token}}"`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			col, err := s.app.FindCollection(args[0])
			if err != nil {
				return err
			}
			method, err := parseMethod(args[1])
			if err != nil {
				return err
			}

			req := s.app.CreateDefaultRequest()
			req.Method = method
			req.URL = args[2]
			req.Name = args[2]
			if err := rf.apply(cmd, &req); err != nil {
				return err
			}
			if err := core.Validate(req); err != nil {
				return err
			}

			if err := saveRequest(s.app, col.ID, req); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Saved %q to %q (%s)", req.Name, col.Name, req.ID)
			return nil
		},
	}

	rf.register(cmd)
	return cmd
}

func newRequestEditCommand(s *session) *cobra.Command {
	var (
		rf     requestFlags
		method string
		url    string
	)

	cmd := &cobra.Command{
		Use:   "edit REQUEST",
		Short: "Change a saved request",
		Long:  `Change a saved request. REQUEST is a request id or "collection/request".`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, col, err := s.app.FindRequest(args[0])
			if err != nil {
				return err
			}
			if !s.app.SelectRequest(cmd.Context(), req) {
				return app.ErrCancelled
			}

			edited := req.Clone()
			if method != "" {
				m, err := parseMethod(method)
				if err != nil {
					return err
				}
				edited.Method = m
			}
			if url != "" {
				edited.URL = url
			}
			if err := rf.apply(cmd, &edited); err != nil {
				return err
			}

			if err := s.app.EditRequest(core.RequestPatch{
				Name:      &edited.Name,
				Method:    &edited.Method,
				URL:       &edited.URL,
				Headers:   edited.Headers,
				Body:      &edited.Body,
				Auth:      &edited.Auth,
				UpdatedAt: &edited.UpdatedAt,
			}); err != nil {
				return err
			}
			if err := s.app.SaveCurrentRequest(col.ID); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Updated %q in %q", edited.Name, col.Name)
			return nil
		},
	}

	rf.register(cmd)
	cmd.Flags().StringVarP(&method, "method", "X", "", "HTTP method")
	cmd.Flags().StringVar(&url, "url", "", "Request URL")
	return cmd
}

func newRequestDeleteCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete REQUEST",
		Short: "Delete a saved request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, col, err := s.app.FindRequest(args[0])
			if err != nil {
				return err
			}
			s.app.DeleteRequestFromCollection(col.ID, req.ID)
			printSuccess(cmd.OutOrStdout(), "Deleted %q from %q", req.Name, col.Name)
			return nil
		},
	}
}

func newRequestCurlCommand(s *session) *cobra.Command {
	var (
		envRef  string
		inline  bool
		copyOut bool
	)

	cmd := &cobra.Command{
		Use:   "curl REQUEST",
		Short: "Print a saved request as a curl command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, _, err := s.app.FindRequest(args[0])
			if err != nil {
				return err
			}

			env := s.app.State().ActiveEnvironment
			if envRef != "" {
				found, ok := core.FindEnvironment(s.app.State().Environments, envRef)
				if !ok {
					return fmt.Errorf("%w: %s", app.ErrEnvironmentNotFound, envRef)
				}
				env = &found
			}

			exp := exporter.NewCurlExporter()
			exp.Pretty = !inline
			command := exp.ExportRequest(req, env)

			if copyOut {
				if err := copyToClipboard(command); err != nil {
					return fmt.Errorf("failed to copy to clipboard: %w", err)
				}
				printSuccess(cmd.ErrOrStderr(), "Copied to clipboard")
			}
			fmt.Fprintln(cmd.OutOrStdout(), command)
			return nil
		},
	}

	cmd.Flags().StringVarP(&envRef, "env", "e", "", "Environment to resolve variables with (default: the active one)")
	cmd.Flags().BoolVar(&inline, "inline", false, "Print on a single line")
	cmd.Flags().BoolVarP(&copyOut, "copy", "c", false, "Also copy the command to the clipboard")
	return cmd
}
