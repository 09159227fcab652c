package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/artpar/postbox/internal/importer"
)

// NewCurlCommand creates a command that parses a curl command line and
// sends the request it describes.
func NewCurlCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "curl [curl arguments...]",
		Short: "Send a request written as a curl command",
		Long: `Parse curl arguments and send the request they describe. The request is
recorded in history like any other send.

Examples:
  postbox curl https://httpbin.org/get
  postbox curl -X POST https://httpbin.org/post -H "Content-Type: application/json" -d '{"name": "test"}'
  postbox curl -u admin:secret https://api.example.com/protected`,
		DisableFlagParsing: true, // Pass all args to curl parser
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("no curl arguments provided")
			}
			if len(args) == 1 && (args[0] == "-h" || args[0] == "--help") {
				return cmd.Help()
			}

			req, err := importer.ParseCurl(curlCommandLine(args))
			if err != nil {
				return fmt.Errorf("failed to parse curl command: %w", err)
			}

			resp, err := sendRequest(cmd.Context(), cmd.ErrOrStderr(), s.app, req, "")
			if err != nil && resp.StatusText == "" {
				return err
			}
			printResponse(cmd.OutOrStdout(), resp, false)
			return err
		},
	}
	return cmd
}

// curlCommandLine rebuilds a curl command line from already split
// arguments, quoting each so the parser sees the same tokens.
func curlCommandLine(args []string) string {
	var sb strings.Builder
	sb.WriteString("curl")
	for _, arg := range args {
		if arg == "curl" && sb.Len() == len("curl") {
			continue
		}
		sb.WriteString(" '")
		sb.WriteString(strings.ReplaceAll(arg, "'", `'"'"'`))
		sb.WriteString("'")
	}
	return sb.String()
}
