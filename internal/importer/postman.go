package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/artpar/postbox/internal/core"
	"github.com/artpar/postbox/internal/merge"
)

// PostmanImporter imports Postman collection format (v2.0 and v2.1).
type PostmanImporter struct{}

// NewPostmanImporter creates a new Postman importer.
func NewPostmanImporter() *PostmanImporter {
	return &PostmanImporter{}
}

func (p *PostmanImporter) Name() string {
	return "Postman Collection"
}

func (p *PostmanImporter) Format() Format {
	return FormatPostman
}

func (p *PostmanImporter) FileExtensions() []string {
	return []string{".postman_collection.json"}
}

func (p *PostmanImporter) DetectFormat(content []byte) bool {
	var check struct {
		Info struct {
			Schema string `json:"schema"`
		} `json:"info"`
	}

	if err := json.Unmarshal(content, &check); err != nil {
		return false
	}

	return strings.Contains(check.Info.Schema, "schema.getpostman.com/json/collection")
}

// Import converts the collection. Every request becomes one of the
// collection's requests; a request inside folders is named after its folder
// path, as in "Users/Admin/List". Collection variables become an environment
// named after the collection.
func (p *PostmanImporter) Import(ctx context.Context, content []byte) (*Snapshot, error) {
	var pm postmanCollection
	if err := json.Unmarshal(content, &pm); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseError, err)
	}

	name := pm.Info.Name
	if name == "" {
		name = "Postman Collection"
	}

	coll := core.NewCollection(name)
	coll.Description = pm.Info.Description

	var inherited *core.AuthConfig
	if pm.Auth != nil {
		auth := convertPostmanAuth(pm.Auth)
		inherited = &auth
	}

	coll.Requests = p.flatten(coll.Requests, pm.Item, "", inherited, coll.ID)

	envs := []core.Environment{}
	if len(pm.Variable) > 0 {
		env := core.NewEnvironment(name)
		for _, v := range pm.Variable {
			if v.Key != "" && !v.Disabled {
				env.Variables[v.Key] = v.Value
			}
		}
		envs = append(envs, env)
	}

	return &Snapshot{Data: merge.Data{
		Collections:  []core.Collection{coll},
		History:      []core.HistoryEntry{},
		Environments: envs,
	}}, nil
}

func (p *PostmanImporter) flatten(out []core.RequestConfig, items []postmanItem, prefix string, inherited *core.AuthConfig, collectionID string) []core.RequestConfig {
	for _, item := range items {
		switch {
		case len(item.Item) > 0:
			out = p.flatten(out, item.Item, prefix+item.Name+"/", inherited, collectionID)
		case item.Request != nil:
			req := p.convertRequest(item, inherited, collectionID)
			req.Name = prefix + req.Name
			out = append(out, req)
		}
	}
	return out
}

func (p *PostmanImporter) convertRequest(item postmanItem, inherited *core.AuthConfig, collectionID string) core.RequestConfig {
	pm := item.Request

	req := core.NewRequestConfig()
	req.Name = item.Name
	req.CollectionID = collectionID
	if pm.Method != "" {
		req.Method = core.Method(strings.ToUpper(pm.Method))
	}
	req.URL = extractURL(pm.URL)

	for _, h := range pm.Header {
		header := core.NewHeader(h.Key, h.Value)
		header.Enabled = !h.Disabled
		req.Headers = append(req.Headers, header)
	}

	if pm.Body != nil {
		req.Body = convertPostmanBody(pm.Body)
	}

	switch {
	case pm.Auth != nil:
		req.Auth = convertPostmanAuth(pm.Auth)
	case inherited != nil:
		req.Auth = inherited.Clone()
	}

	return req
}

func convertPostmanBody(body *postmanBody) core.Body {
	switch body.Mode {
	case "raw":
		if body.Raw == "" {
			return core.Body{Type: core.BodyTypeNone}
		}
		if (body.Options != nil && body.Options.Raw.Language == "json") || json.Valid([]byte(body.Raw)) {
			return core.Body{Type: core.BodyTypeJSON, Content: body.Raw}
		}
		return core.Body{Type: core.BodyTypeRaw, Content: body.Raw}
	case "urlencoded":
		var pairs []string
		for _, p := range body.URLEncoded {
			if !p.Disabled {
				pairs = append(pairs, fmt.Sprintf("%s=%s", p.Key, p.Value))
			}
		}
		return core.Body{Type: core.BodyTypeForm, Content: strings.Join(pairs, "&")}
	case "formdata":
		var pairs []string
		for _, p := range body.FormData {
			if !p.Disabled && p.Type != "file" {
				pairs = append(pairs, fmt.Sprintf("%s=%s", p.Key, p.Value))
			}
		}
		return core.Body{Type: core.BodyTypeForm, Content: strings.Join(pairs, "&")}
	case "graphql":
		if body.GraphQL != nil {
			payload := map[string]any{
				"query": body.GraphQL.Query,
			}
			if body.GraphQL.Variables != "" {
				var vars any
				if err := json.Unmarshal([]byte(body.GraphQL.Variables), &vars); err == nil {
					payload["variables"] = vars
				}
			}
			if content, err := core.Stringify(payload); err == nil {
				return core.Body{Type: core.BodyTypeJSON, Content: content}
			}
		}
	}
	return core.Body{Type: core.BodyTypeNone}
}

func extractURL(url any) string {
	switch v := url.(type) {
	case string:
		return v
	case map[string]any:
		if raw, ok := v["raw"].(string); ok {
			return raw
		}
		var result strings.Builder
		if protocol, ok := v["protocol"].(string); ok {
			result.WriteString(protocol)
			result.WriteString("://")
		}
		switch host := v["host"].(type) {
		case string:
			result.WriteString(host)
		case []any:
			var hostParts []string
			for _, h := range host {
				if s, ok := h.(string); ok {
					hostParts = append(hostParts, s)
				}
			}
			result.WriteString(strings.Join(hostParts, "."))
		}
		if port, ok := v["port"].(string); ok {
			result.WriteString(":")
			result.WriteString(port)
		}
		if path, ok := v["path"].([]any); ok {
			for _, p := range path {
				if s, ok := p.(string); ok {
					result.WriteString("/")
					result.WriteString(s)
				}
			}
		}
		return result.String()
	}
	return ""
}

func convertPostmanAuth(auth *postmanAuth) core.AuthConfig {
	switch auth.Type {
	case "bearer":
		return core.NewBearerAuth(authValue(auth.Bearer, "token"))
	case "basic":
		return core.NewBasicAuth(authValue(auth.Basic, "username"), authValue(auth.Basic, "password"))
	case "apikey":
		location := core.APIKeyInHeader
		if authValue(auth.APIKey, "in") == "query" {
			location = core.APIKeyInQuery
		}
		return core.NewAPIKeyAuth(authValue(auth.APIKey, "key"), authValue(auth.APIKey, "value"), location)
	case "oauth2":
		return core.NewOAuth2Auth(authValue(auth.OAuth2, "accessToken"), authValue(auth.OAuth2, "tokenType"))
	}
	return core.AuthConfig{Type: core.AuthTypeNone}
}

// authValue looks a key up in Postman's key/value auth list.
func authValue(items []postmanAuthItem, key string) string {
	for _, item := range items {
		if item.Key == key {
			if s, ok := item.Value.(string); ok {
				return s
			}
			if item.Value != nil {
				return fmt.Sprint(item.Value)
			}
		}
	}
	return ""
}

// Postman collection format structures

type postmanCollection struct {
	Info     postmanInfo   `json:"info"`
	Item     []postmanItem `json:"item"`
	Variable []postmanVar  `json:"variable,omitempty"`
	Auth     *postmanAuth  `json:"auth,omitempty"`
}

type postmanInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Schema      string `json:"schema"`
}

type postmanItem struct {
	Name    string          `json:"name"`
	Item    []postmanItem   `json:"item,omitempty"`
	Request *postmanRequest `json:"request,omitempty"`
}

type postmanRequest struct {
	Method string          `json:"method"`
	Header []postmanHeader `json:"header,omitempty"`
	Body   *postmanBody    `json:"body,omitempty"`
	URL    any             `json:"url"` // string or object
	Auth   *postmanAuth    `json:"auth,omitempty"`
}

type postmanHeader struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled,omitempty"`
}

type postmanBody struct {
	Mode       string              `json:"mode"`
	Raw        string              `json:"raw,omitempty"`
	URLEncoded []postmanKeyValue   `json:"urlencoded,omitempty"`
	FormData   []postmanFormData   `json:"formdata,omitempty"`
	GraphQL    *postmanGraphQL     `json:"graphql,omitempty"`
	Options    *postmanBodyOptions `json:"options,omitempty"`
}

type postmanKeyValue struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled,omitempty"`
}

type postmanFormData struct {
	Key      string `json:"key"`
	Value    string `json:"value,omitempty"`
	Type     string `json:"type,omitempty"` // text, file
	Disabled bool   `json:"disabled,omitempty"`
}

type postmanGraphQL struct {
	Query     string `json:"query"`
	Variables string `json:"variables,omitempty"`
}

type postmanBodyOptions struct {
	Raw struct {
		Language string `json:"language,omitempty"`
	} `json:"raw,omitempty"`
}

type postmanAuth struct {
	Type   string            `json:"type"`
	Bearer []postmanAuthItem `json:"bearer,omitempty"`
	Basic  []postmanAuthItem `json:"basic,omitempty"`
	APIKey []postmanAuthItem `json:"apikey,omitempty"`
	OAuth2 []postmanAuthItem `json:"oauth2,omitempty"`
}

type postmanAuthItem struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type postmanVar struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled,omitempty"`
}

var _ Importer = (*PostmanImporter)(nil)
