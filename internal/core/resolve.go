package core

import (
	"net/url"
	"strings"

	"github.com/artpar/postbox/internal/interpolate"
)

// ResolvedRequest is a request with variables, headers and auth applied,
// ready to be put on the wire.
type ResolvedRequest struct {
	Method  Method
	URL     string
	Headers map[string]string
	Body    string
	HasBody bool
}

// ResolveRequest interpolates env into req and assembles the outbound headers.
//
// Only the URL, enabled header values, the bearer token, the API key value and
// JSON body content are interpolated; form and raw bodies go out verbatim.
// Unknown {{tokens}} are left as they are. Auth headers win over custom
// headers of the same name.
func ResolveRequest(req RequestConfig, env *Environment) ResolvedRequest {
	engine := interpolate.NewEngine()
	engine.SetOption(interpolate.OptionKeepUndefined, true)
	if env != nil {
		engine.SetVariables(env.Variables)
	}
	expand := func(s string) string {
		out, err := engine.Interpolate(s)
		if err != nil {
			return s
		}
		return out
	}

	resolved := ResolvedRequest{
		Method:  req.Method,
		URL:     expand(req.URL),
		Headers: make(map[string]string),
	}
	if resolved.Method == "" {
		resolved.Method = MethodGet
	}

	for _, h := range req.EnabledHeaders() {
		resolved.Headers[h.Key] = expand(h.Value)
	}

	query := req.Auth.ApplyToHeaders(resolved.Headers, expand)
	if len(query) > 0 {
		resolved.URL = appendQuery(resolved.URL, query)
	}

	if req.HasBody() {
		resolved.HasBody = true
		if req.Body.Type == BodyTypeJSON {
			setHeader(resolved.Headers, "Content-Type", "application/json")
			resolved.Body = expand(req.Body.Content)
		} else {
			resolved.Body = req.Body.Content
		}
	}

	return resolved
}

// UnresolvedVariables lists the {{tokens}} in req that env cannot satisfy.
func UnresolvedVariables(req RequestConfig, env *Environment) []string {
	engine := interpolate.NewEngine()
	if env != nil {
		engine.SetVariables(env.Variables)
	}

	inputs := []string{req.URL}
	for _, h := range req.EnabledHeaders() {
		inputs = append(inputs, h.Value)
	}
	if req.Auth.Bearer != nil && req.Auth.GetAuthType() == AuthTypeBearer {
		inputs = append(inputs, req.Auth.Bearer.Token)
	}
	if req.Auth.APIKey != nil && req.Auth.GetAuthType() == AuthTypeAPIKey {
		inputs = append(inputs, req.Auth.APIKey.Value)
	}
	if req.HasBody() && req.Body.Type == BodyTypeJSON {
		inputs = append(inputs, req.Body.Content)
	}

	seen := make(map[string]bool)
	var missing []string
	for _, in := range inputs {
		for _, name := range engine.Missing(in) {
			if !seen[name] {
				seen[name] = true
				missing = append(missing, name)
			}
		}
	}
	return missing
}

// appendQuery adds params to rawURL without re-encoding its existing query.
func appendQuery(rawURL string, params map[string]string) string {
	fragment := ""
	if i := strings.Index(rawURL, "#"); i >= 0 {
		rawURL, fragment = rawURL[:i], rawURL[i:]
	}

	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	encoded := values.Encode()

	switch {
	case !strings.Contains(rawURL, "?"):
		rawURL += "?" + encoded
	case strings.HasSuffix(rawURL, "?"), strings.HasSuffix(rawURL, "&"):
		rawURL += encoded
	default:
		rawURL += "&" + encoded
	}
	return rawURL + fragment
}
