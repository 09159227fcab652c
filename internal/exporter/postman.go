package exporter

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"strings"

	"github.com/artpar/postbox/internal/core"
	"github.com/artpar/postbox/internal/storage"
)

const postmanSchema = "https://schema.getpostman.com/json/collection/v2.1.0/collection.json"

// PostmanExporter exports collections to Postman collection format v2.1.
// A single collection maps to the Postman collection itself; several are
// written as one folder each.
type PostmanExporter struct {
	// CollectionName names the top-level collection when several are exported.
	CollectionName string
}

// NewPostmanExporter creates a new Postman exporter.
func NewPostmanExporter() *PostmanExporter {
	return &PostmanExporter{CollectionName: "postbox export"}
}

func (p *PostmanExporter) Name() string {
	return "Postman Collection v2.1"
}

func (p *PostmanExporter) Format() Format {
	return FormatPostman
}

func (p *PostmanExporter) FileExtension() string {
	return ".postman_collection.json"
}

func (p *PostmanExporter) Export(ctx context.Context, data storage.ExportData) ([]byte, error) {
	var pm postmanCollection

	if len(data.Collections) == 1 {
		coll := data.Collections[0]
		pm = postmanCollection{
			Info:  postmanInfo{PostmanID: coll.ID, Name: coll.Name, Description: coll.Description, Schema: postmanSchema},
			Items: collectionItems(coll),
		}
	} else {
		pm = postmanCollection{
			Info:  postmanInfo{PostmanID: core.NewID(), Name: p.CollectionName, Schema: postmanSchema},
			Items: []postmanItem{},
		}
		for _, coll := range data.Collections {
			pm.Items = append(pm.Items, postmanItem{
				Name:  coll.Name,
				Items: collectionItems(coll),
			})
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(pm); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func collectionItems(coll core.Collection) []postmanItem {
	items := []postmanItem{}
	for _, req := range coll.Requests {
		items = append(items, requestItem(req))
	}
	for _, folder := range coll.Folders {
		sub := []postmanItem{}
		for _, req := range folder.Requests {
			sub = append(sub, requestItem(req))
		}
		items = append(items, postmanItem{Name: folder.Name, Items: sub})
	}
	return items
}

func requestItem(req core.RequestConfig) postmanItem {
	pr := &postmanRequest{
		Method: string(req.Method),
		Header: []postmanKeyValue{},
		URL:    convertURL(req.URL),
	}

	for _, h := range req.Headers {
		pr.Header = append(pr.Header, postmanKeyValue{Key: h.Key, Value: h.Value, Disabled: !h.Enabled})
	}

	switch req.Body.Type {
	case core.BodyTypeJSON:
		pr.Body = &postmanBody{Mode: "raw", Raw: req.Body.Content, Options: &postmanBodyOptions{Raw: postmanRawOptions{Language: "json"}}}
	case core.BodyTypeRaw:
		pr.Body = &postmanBody{Mode: "raw", Raw: req.Body.Content}
	case core.BodyTypeForm:
		pr.Body = &postmanBody{Mode: "urlencoded", URLEncoded: formPairs(req.Body.Content)}
	}

	pr.Auth = convertAuth(req.Auth)

	return postmanItem{
		ID:      req.ID,
		Name:    req.Name,
		Request: pr,
	}
}

func formPairs(content string) []postmanKeyValue {
	pairs := []postmanKeyValue{}
	for _, part := range strings.Split(content, "&") {
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		pairs = append(pairs, postmanKeyValue{Key: key, Value: value})
	}
	return pairs
}

func convertURL(raw string) postmanURL {
	u := postmanURL{Raw: raw}

	// Variables in the host keep url.Parse from splitting it reliably.
	if strings.Contains(raw, "{{") {
		return u
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return u
	}

	u.Protocol = parsed.Scheme
	u.Host = strings.Split(parsed.Hostname(), ".")
	u.Port = parsed.Port()
	if path := strings.Trim(parsed.Path, "/"); path != "" {
		u.Path = strings.Split(path, "/")
	}
	query := parsed.Query()
	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		for _, v := range query[key] {
			u.Query = append(u.Query, postmanKeyValue{Key: key, Value: v})
		}
	}
	return u
}

func convertAuth(auth core.AuthConfig) *postmanAuth {
	item := func(key, value string) postmanAuthItem {
		return postmanAuthItem{Key: key, Value: value, Type: "string"}
	}

	switch auth.GetAuthType() {
	case core.AuthTypeBearer:
		if auth.Bearer != nil {
			return &postmanAuth{Type: "bearer", Bearer: []postmanAuthItem{item("token", auth.Bearer.Token)}}
		}
	case core.AuthTypeBasic:
		if auth.Basic != nil {
			return &postmanAuth{Type: "basic", Basic: []postmanAuthItem{
				item("username", auth.Basic.Username),
				item("password", auth.Basic.Password),
			}}
		}
	case core.AuthTypeAPIKey:
		if auth.APIKey != nil {
			in := string(core.APIKeyInHeader)
			if auth.APIKey.AddTo == core.APIKeyInQuery {
				in = string(core.APIKeyInQuery)
			}
			return &postmanAuth{Type: "apikey", APIKey: []postmanAuthItem{
				item("key", auth.APIKey.Key),
				item("value", auth.APIKey.Value),
				item("in", in),
			}}
		}
	case core.AuthTypeOAuth2:
		if auth.OAuth2 != nil {
			return &postmanAuth{Type: "oauth2", OAuth2: []postmanAuthItem{
				item("accessToken", auth.OAuth2.AccessToken),
				item("tokenType", auth.OAuth2.TokenType),
			}}
		}
	}
	return nil
}

// Postman collection format structures

type postmanCollection struct {
	Info  postmanInfo   `json:"info"`
	Items []postmanItem `json:"item"`
}

type postmanInfo struct {
	PostmanID   string `json:"_postman_id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Schema      string `json:"schema"`
}

type postmanItem struct {
	ID      string          `json:"id,omitempty"`
	Name    string          `json:"name"`
	Items   []postmanItem   `json:"item,omitempty"`
	Request *postmanRequest `json:"request,omitempty"`
}

type postmanRequest struct {
	Method string            `json:"method"`
	Header []postmanKeyValue `json:"header"`
	Body   *postmanBody      `json:"body,omitempty"`
	URL    postmanURL        `json:"url"`
	Auth   *postmanAuth      `json:"auth,omitempty"`
}

type postmanURL struct {
	Raw      string            `json:"raw"`
	Protocol string            `json:"protocol,omitempty"`
	Host     []string          `json:"host,omitempty"`
	Port     string            `json:"port,omitempty"`
	Path     []string          `json:"path,omitempty"`
	Query    []postmanKeyValue `json:"query,omitempty"`
}

type postmanKeyValue struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled,omitempty"`
}

type postmanBody struct {
	Mode       string              `json:"mode"`
	Raw        string              `json:"raw,omitempty"`
	URLEncoded []postmanKeyValue   `json:"urlencoded,omitempty"`
	Options    *postmanBodyOptions `json:"options,omitempty"`
}

type postmanBodyOptions struct {
	Raw postmanRawOptions `json:"raw"`
}

type postmanRawOptions struct {
	Language string `json:"language"`
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
	Value string `json:"value"`
	Type  string `json:"type"`
}

var _ Exporter = (*PostmanExporter)(nil)
