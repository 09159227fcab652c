package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/artpar/postbox/internal/core"
)

func newHistoryCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show and manage request history",
	}

	cmd.AddCommand(
		newHistoryListCommand(s),
		newHistoryShowCommand(s),
		&cobra.Command{
			Use:   "clear",
			Short: "Delete all history",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := s.app.ClearHistory(cmd.Context()); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "History cleared")
				return nil
			},
		},
	)
	return cmd
}

func newHistoryListCommand(s *session) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent requests, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			history := s.app.State().History
			if asJSON {
				if limit > 0 && limit < len(history) {
					history = history[:limit]
				}
				if history == nil {
					history = []core.HistoryEntry{}
				}
				return printJSON(cmd.OutOrStdout(), history)
			}
			printHistoryList(cmd.OutOrStdout(), history, limit)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newHistoryShowCommand(s *session) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show ENTRY",
		Short: "Show a history entry by position (1 is the newest) or id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := findHistoryEntry(s.app.State().History, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), entry)
			}
			printHistoryEntry(cmd.OutOrStdout(), entry)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func findHistoryEntry(history []core.HistoryEntry, ref string) (core.HistoryEntry, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(history) {
			return core.HistoryEntry{}, fmt.Errorf("history entry %d out of range (1-%d)", n, len(history))
		}
		return history[n-1], nil
	}
	for _, entry := range history {
		if entry.ID == ref {
			return entry, nil
		}
	}
	return core.HistoryEntry{}, fmt.Errorf("history entry not found: %s", ref)
}
