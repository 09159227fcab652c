package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/artpar/postbox/internal/app"
	"github.com/artpar/postbox/internal/core"
)

func newEnvCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "env",
		Aliases: []string{"environment", "environments"},
		Short:   "Manage environments and their variables",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List environments; the active one is marked",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				state := s.app.State()
				printEnvironments(cmd.OutOrStdout(), state.Environments, state.ActiveEnvironment)
				return nil
			},
		},
		&cobra.Command{
			Use:   "show ENV",
			Short: "Show the variables of an environment",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				env, err := findEnvironment(s.app, args[0])
				if err != nil {
					return err
				}
				printEnvironment(cmd.OutOrStdout(), env)
				return nil
			},
		},
		newEnvCreateCommand(s),
		&cobra.Command{
			Use:   "set ENV KEY=VALUE...",
			Short: "Set variables",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				env, err := findEnvironment(s.app, args[0])
				if err != nil {
					return err
				}
				vars, err := parseVars(args[1:])
				if err != nil {
					return err
				}
				env = env.Clone()
				if env.Variables == nil {
					env.Variables = make(map[string]string, len(vars))
				}
				for k, v := range vars {
					env.Variables[k] = v
				}
				s.app.UpsertEnvironment(env)
				printSuccess(cmd.OutOrStdout(), "Updated %q", env.Name)
				return nil
			},
		},
		&cobra.Command{
			Use:   "unset ENV KEY...",
			Short: "Remove variables",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				env, err := findEnvironment(s.app, args[0])
				if err != nil {
					return err
				}
				env = env.Clone()
				for _, k := range args[1:] {
					delete(env.Variables, k)
				}
				s.app.UpsertEnvironment(env)
				printSuccess(cmd.OutOrStdout(), "Updated %q", env.Name)
				return nil
			},
		},
		&cobra.Command{
			Use:   "use [ENV]",
			Short: "Activate an environment; without ENV, deactivate",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if len(args) == 0 {
					if err := s.app.SetActiveEnvironment(""); err != nil {
						return err
					}
					printSuccess(cmd.OutOrStdout(), "No active environment")
					return nil
				}
				if err := s.app.SetActiveEnvironment(args[0]); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Active environment: %s", s.app.State().ActiveEnvironment.Name)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete ENV",
			Short: "Delete an environment",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				env, err := findEnvironment(s.app, args[0])
				if err != nil {
					return err
				}
				if err := s.app.DeleteEnvironment(cmd.Context(), env.ID); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Deleted environment %q", env.Name)
				return nil
			},
		},
	)
	return cmd
}

func newEnvCreateCommand(s *session) *cobra.Command {
	var (
		vars []string
		use  bool
	)

	cmd := &cobra.Command{
		Use:     "create NAME",
		Short:   "Create an environment",
		Example: `  postbox env create dev --var baseUrl=https://dev.example.com --var token=abc --use`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := core.FindEnvironment(s.app.State().Environments, args[0]); ok {
				return fmt.Errorf("environment %q already exists", args[0])
			}
			parsed, err := parseVars(vars)
			if err != nil {
				return err
			}

			env := core.NewEnvironment(args[0])
			for k, v := range parsed {
				env.Variables[k] = v
			}
			s.app.UpsertEnvironment(env)
			if use {
				if err := s.app.SetActiveEnvironment(env.ID); err != nil {
					return err
				}
			}
			printSuccess(cmd.OutOrStdout(), "Created environment %q (%s)", env.Name, env.ID)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&vars, "var", nil, "Variable as KEY=VALUE (repeatable)")
	cmd.Flags().BoolVar(&use, "use", false, "Activate the new environment")
	return cmd
}

func findEnvironment(a *app.App, ref string) (core.Environment, error) {
	env, ok := core.FindEnvironment(a.State().Environments, ref)
	if !ok {
		return core.Environment{}, fmt.Errorf("%w: %s", app.ErrEnvironmentNotFound, ref)
	}
	return env, nil
}

func parseVars(pairs []string) (map[string]string, error) {
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid variable %q: expected KEY=VALUE", pair)
		}
		vars[key] = value
	}
	return vars, nil
}
