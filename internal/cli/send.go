package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jmespath/go-jmespath"
	"github.com/spf13/cobra"

	"github.com/artpar/postbox/internal/app"
	"github.com/artpar/postbox/internal/core"
)

// requestFlags are the flags that shape a request on the command line.
type requestFlags struct {
	name    string
	headers []string
	body    string
	form    bool
	bearer  string
	basic   string
	apiKey  string
	keyIn   string
}

func (f *requestFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.name, "name", "", "Request name")
	flags.StringArrayVarP(&f.headers, "header", "H", nil, "Header in \"Key: Value\" form (repeatable)")
	flags.StringVarP(&f.body, "data", "d", "", "Request body; sent as JSON when it parses as JSON")
	flags.BoolVar(&f.form, "form", false, "Send the body as application/x-www-form-urlencoded")
	flags.StringVar(&f.bearer, "bearer", "", "Bearer token")
	flags.StringVar(&f.basic, "basic", "", "Basic auth credentials as user:password")
	flags.StringVar(&f.apiKey, "api-key", "", "API key as name=value")
	flags.StringVar(&f.keyIn, "api-key-in", string(core.APIKeyInHeader), "Where the API key goes: header or query")
}

// apply writes the flags that were given into req.
func (f *requestFlags) apply(cmd *cobra.Command, req *core.RequestConfig) error {
	if f.name != "" {
		req.Name = f.name
	}

	for _, raw := range f.headers {
		key, value, ok := strings.Cut(raw, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return fmt.Errorf("invalid header %q: expected \"Key: Value\"", raw)
		}
		setHeader(req, key, strings.TrimSpace(value))
	}

	if cmd.Flags().Changed("data") {
		switch {
		case f.form:
			req.Body = core.Body{Type: core.BodyTypeForm, Content: f.body}
			if !hasHeader(*req, "Content-Type") {
				setHeader(req, "Content-Type", "application/x-www-form-urlencoded")
			}
		case json.Valid([]byte(f.body)):
			req.Body = core.Body{Type: core.BodyTypeJSON, Content: f.body}
		default:
			req.Body = core.Body{Type: core.BodyTypeRaw, Content: f.body}
		}
	}

	switch {
	case f.bearer != "":
		req.Auth = core.NewBearerAuth(f.bearer)
	case f.basic != "":
		user, pass, _ := strings.Cut(f.basic, ":")
		req.Auth = core.NewBasicAuth(user, pass)
	case f.apiKey != "":
		key, value, ok := strings.Cut(f.apiKey, "=")
		if !ok || key == "" {
			return fmt.Errorf("invalid API key %q: expected name=value", f.apiKey)
		}
		loc := core.APIKeyLocation(strings.ToLower(f.keyIn))
		if loc != core.APIKeyInHeader && loc != core.APIKeyInQuery {
			return fmt.Errorf("invalid API key location %q: expected header or query", f.keyIn)
		}
		req.Auth = core.NewAPIKeyAuth(key, value, loc)
	}

	req.UpdatedAt = core.Now()
	return nil
}

func setHeader(req *core.RequestConfig, key, value string) {
	for i, h := range req.Headers {
		if strings.EqualFold(h.Key, key) {
			req.Headers[i].Value = value
			req.Headers[i].Enabled = true
			return
		}
	}
	req.Headers = append(req.Headers, core.NewHeader(key, value))
}

func hasHeader(req core.RequestConfig, key string) bool {
	for _, h := range req.Headers {
		if strings.EqualFold(h.Key, key) {
			return true
		}
	}
	return false
}

func parseMethod(raw string) (core.Method, error) {
	method := core.Method(strings.ToUpper(raw))
	for _, m := range core.Methods() {
		if m == method {
			return method, nil
		}
	}
	return "", fmt.Errorf("unsupported method %q", raw)
}

// outputFlags control how a response is printed.
type outputFlags struct {
	json        bool
	query       string
	showHeaders bool
}

func (f *outputFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.BoolVar(&f.json, "json", false, "Print the response envelope as JSON")
	flags.StringVarP(&f.query, "query", "q", "", "JMESPath expression applied to the response body")
	flags.BoolVarP(&f.showHeaders, "include", "i", false, "Show response headers")
}

// NewSendCommand creates the send command.
func NewSendCommand(s *session) *cobra.Command {
	var (
		rf      requestFlags
		of      outputFlags
		ref     string
		envRef  string
		saveRef string
	)

	cmd := &cobra.Command{
		Use:   "send [METHOD] [URL]",
		Short: "Send a request",
		Long: `Send an ad-hoc request or a saved one and record the response in history.

Variables like {{baseUrl}} are resolved from the active environment, or from
the environment given with --env for this send only.

Examples:
  postbox send https://api.example.com/users
  postbox send POST https://api.example.com/users -d '{"name":"Ada"}'
  postbox send --request "My API Collection/Get Users" --env dev
  postbox send GET {{baseUrl}}/users --save "My API Collection" --name "List users"`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := requestFromArgs(s.app, ref, args)
			if err != nil {
				return err
			}
			if err := rf.apply(cmd, &req); err != nil {
				return err
			}
			if len(args) == 1 && ref == "" && cmd.Flags().Changed("data") {
				req.Method = core.MethodPost
			}

			resp, sendErr := sendRequest(cmd.Context(), cmd.ErrOrStderr(), s.app, req, envRef)
			if sendErr != nil && resp.StatusText == "" {
				return sendErr
			}

			if saveRef != "" {
				if err := saveRequest(s.app, saveRef, req); err != nil {
					return err
				}
				printSuccess(cmd.ErrOrStderr(), "Saved %q to %s", req.Name, saveRef)
			}

			if err := writeResponse(cmd, of, resp); err != nil {
				return err
			}
			return sendErr
		},
	}

	rf.register(cmd)
	of.register(cmd)
	cmd.Flags().StringVarP(&ref, "request", "r", "", "Saved request: id or \"collection/request\"")
	cmd.Flags().StringVarP(&envRef, "env", "e", "", "Environment to resolve variables with for this send")
	cmd.Flags().StringVar(&saveRef, "save", "", "Save the request to this collection")

	return cmd
}

// requestFromArgs starts from the saved request named by ref, or from a
// new request built from METHOD and URL arguments.
func requestFromArgs(a *app.App, ref string, args []string) (core.RequestConfig, error) {
	var req core.RequestConfig
	if ref != "" {
		saved, _, err := a.FindRequest(ref)
		if err != nil {
			return req, err
		}
		req = saved.Clone()
	} else {
		req = a.CreateDefaultRequest()
	}

	switch len(args) {
	case 0:
		if ref == "" {
			return req, errors.New("a URL or --request is required")
		}
	case 1:
		req.URL = args[0]
	case 2:
		method, err := parseMethod(args[0])
		if err != nil {
			return req, err
		}
		req.Method = method
		req.URL = args[1]
	}

	if ref == "" {
		req.Name = req.URL
	}
	return req, nil
}

// sendRequest selects req and sends it. A non-empty envRef is active for
// this send only.
// sendRequest sends req through the app, with envRef active for this send
// only. Tokens the environment cannot fill are reported on errOut.
func sendRequest(ctx context.Context, errOut io.Writer, a *app.App, req core.RequestConfig, envRef string) (core.Response, error) {
	if envRef != "" {
		prev := a.State().ActiveEnvironment
		if err := a.SetActiveEnvironment(envRef); err != nil {
			return core.Response{}, err
		}
		defer func() {
			if prev == nil {
				_ = a.SetActiveEnvironment("")
			} else {
				_ = a.SetActiveEnvironment(prev.ID)
			}
		}()
	}

	if missing := core.UnresolvedVariables(req, a.State().ActiveEnvironment); len(missing) > 0 {
		printWarning(errOut, "unresolved variables in %s: %s", req.Name, strings.Join(missing, ", "))
	}

	if !a.SelectRequest(ctx, req) {
		return core.Response{}, app.ErrCancelled
	}
	return a.Send(ctx)
}

func saveRequest(a *app.App, collectionRef string, req core.RequestConfig) error {
	col, err := a.FindCollection(collectionRef)
	if err != nil {
		return err
	}
	req.CollectionID = col.ID
	return a.SaveRequestToCollection(col.ID, req)
}

func writeResponse(cmd *cobra.Command, of outputFlags, resp core.Response) error {
	out := cmd.OutOrStdout()

	if of.query != "" {
		result, err := jmespath.Search(of.query, resp.Data)
		if err != nil {
			return fmt.Errorf("invalid JMESPath expression %q: %w", of.query, err)
		}
		if str, ok := result.(string); ok {
			fmt.Fprintln(out, str)
			return nil
		}
		return printJSON(out, result)
	}

	if of.json {
		return printJSON(out, resp)
	}

	printResponse(out, resp, of.showHeaders)
	return nil
}
