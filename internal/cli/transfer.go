package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/artpar/postbox/internal/core"
	"github.com/artpar/postbox/internal/exporter"
	"github.com/artpar/postbox/internal/importer"
)

func newImportCommand(s *session) *cobra.Command {
	var (
		format  string
		replace bool
	)

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import collections, environments and history from a file",
		Long: `Import a postbox snapshot (JSON or YAML), a Postman collection, a HAR archive
or a file of curl commands. Imported data is merged into what is stored:
collections and environments with the same id are replaced, history is
deduplicated and kept newest first. With --replace, stored data of each kind
present in the file is dropped first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := s.app.ImportFile(cmd.Context(), args[0], importer.Format(strings.ToLower(format)), replace)
			if err != nil {
				return err
			}

			snap := result.Snapshot
			printSuccess(cmd.OutOrStdout(), "Imported %s: %d collections, %d environments, %d history entries",
				result.SourceFormat, len(snap.Collections), len(snap.Environments), len(snap.History))
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(importer.FormatAuto), "Source format: auto, json, yaml, postman, har or curl")
	cmd.Flags().BoolVar(&replace, "replace", false, "Replace stored data instead of merging")
	return cmd
}

func newExportCommand(s *session) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Export stored data to a file",
		Long: `Export collections, environments, history and settings. The format is taken
from --format, or else from the file extension: .json, .yaml, .postman_collection.json
or .sh for curl commands.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := s.app.ExportFile(cmd.Context(), args[0], exporter.Format(strings.ToLower(format)))
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Exported %s to %s (%s)", result.Format, args[0], formatSize(len(result.Content)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: json, yaml, postman or curl")
	return cmd
}

func newRestoreCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "restore FILE",
		Short: "Restore stored data from a postbox export",
		Long: `Write a JSON or YAML export back to storage. Each kind of data present in the
file replaces what is stored; kinds missing from the file are left alone.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.app.Restore(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Restored from %s", args[0])
			return nil
		},
	}
}

func newUsageCommand(s *session) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show how much storage is in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			usage, err := s.app.Storage().Usage(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), usage)
			}

			c := successColor
			switch {
			case usage.Percentage >= 90:
				c = clientErrColor
			case usage.Percentage >= 75:
				c = warnColor
			}
			c.Fprintf(cmd.OutOrStdout(), "%s of %s used (%.1f%%)\n",
				formatSize(usage.Used), formatSize(usage.Total), usage.Percentage)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newSettingsCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change history settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showSettings(cmd, s)
		},
	}

	var (
		maxItems     int
		maxAge       int
		autoCleanup  bool
		maxRespBytes int
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Change settings; history is trimmed to the new limits",
		Example: `  postbox settings set --max-items 100 --max-age 7
  postbox settings set --auto-cleanup=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch core.SettingsPatch
			flags := cmd.Flags()
			if flags.Changed("max-items") {
				patch.MaxHistoryItems = &maxItems
			}
			if flags.Changed("max-age") {
				patch.MaxHistoryAge = &maxAge
			}
			if flags.Changed("auto-cleanup") {
				patch.AutoCleanup = &autoCleanup
			}
			if flags.Changed("max-response-size") {
				patch.MaxResponseSize = &maxRespBytes
			}
			if patch == (core.SettingsPatch{}) {
				return fmt.Errorf("nothing to change: pass at least one setting flag")
			}

			if err := s.app.UpdateSettings(cmd.Context(), patch); err != nil {
				return err
			}
			return showSettings(cmd, s)
		},
	}
	set.Flags().IntVar(&maxItems, "max-items", core.DefaultMaxHistoryItems, "Maximum number of history entries kept")
	set.Flags().IntVar(&maxAge, "max-age", core.DefaultMaxHistoryAge, "Days history entries are kept when auto cleanup is on")
	set.Flags().BoolVar(&autoCleanup, "auto-cleanup", true, "Drop history entries older than --max-age")
	set.Flags().IntVar(&maxRespBytes, "max-response-size", core.DefaultMaxResponseSize, "Largest response body kept in history, in bytes")

	cmd.AddCommand(set)
	return cmd
}

func showSettings(cmd *cobra.Command, s *session) error {
	settings, err := s.app.Settings(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	headerKeyColor.Fprint(out, "Max history items:  ")
	fmt.Fprintln(out, settings.MaxHistoryItems)
	headerKeyColor.Fprint(out, "Max history age:    ")
	fmt.Fprintf(out, "%d days\n", settings.MaxHistoryAge)
	headerKeyColor.Fprint(out, "Auto cleanup:       ")
	fmt.Fprintln(out, settings.AutoCleanup)
	headerKeyColor.Fprint(out, "Max response size:  ")
	fmt.Fprintln(out, formatSize(settings.MaxResponseSize))
	return nil
}

func newResetCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete all stored data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.app.Reset(cmd.Context()); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "All data deleted")
			return nil
		},
	}
}
