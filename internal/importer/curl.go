package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/artpar/postbox/internal/core"
)

// CurlImporter imports one or more curl commands, one request each.
type CurlImporter struct{}

// NewCurlImporter creates a new curl importer.
func NewCurlImporter() *CurlImporter {
	return &CurlImporter{}
}

func (c *CurlImporter) Name() string {
	return "curl command"
}

func (c *CurlImporter) Format() Format {
	return FormatCurl
}

func (c *CurlImporter) FileExtensions() []string {
	return []string{".sh", ".curl", ".txt"}
}

func (c *CurlImporter) DetectFormat(content []byte) bool {
	trimmed := strings.TrimSpace(string(content))
	return strings.HasPrefix(trimmed, "curl ") || strings.HasPrefix(trimmed, "curl\t")
}

func (c *CurlImporter) Import(ctx context.Context, content []byte) (*Snapshot, error) {
	var requests []core.RequestConfig
	for _, cmd := range splitCommands(string(content)) {
		req, err := ParseCurl(cmd)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	if len(requests) == 0 {
		return nil, fmt.Errorf("%w: no curl command found", ErrParseError)
	}
	return singleCollection("Imported from curl", requests), nil
}

// splitCommands joins continuation lines and returns each line that starts
// a curl command.
func splitCommands(content string) []string {
	content = strings.ReplaceAll(content, "\\\r\n", " ")
	content = strings.ReplaceAll(content, "\\\n", " ")

	var cmds []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "curl ") || strings.HasPrefix(line, "curl\t") {
			cmds = append(cmds, line)
		}
	}
	return cmds
}

// ParseCurl converts a single curl command line into a request.
func ParseCurl(cmd string) (core.RequestConfig, error) {
	tokens := tokenize(strings.TrimSpace(cmd))
	if len(tokens) == 0 || tokens[0] != "curl" {
		return core.RequestConfig{}, fmt.Errorf("%w: not a curl command", ErrParseError)
	}

	req := core.NewRequestConfig()
	var (
		method   string
		body     string
		hasBody  bool
		formBody bool
	)
	setHeader := func(key, value string) {
		for i, h := range req.Headers {
			if strings.EqualFold(h.Key, key) {
				req.Headers[i].Value = value
				return
			}
		}
		req.Headers = append(req.Headers, core.NewHeader(key, value))
	}
	next := func(i int) (string, bool) {
		if i+1 < len(tokens) {
			return tokens[i+1], true
		}
		return "", false
	}

	for i := 1; i < len(tokens); i++ {
		token := tokens[i]

		switch token {
		case "-X", "--request":
			if v, ok := next(i); ok {
				method = strings.ToUpper(v)
				i++
			}

		case "-H", "--header":
			if v, ok := next(i); ok {
				if idx := strings.Index(v, ":"); idx > 0 {
					setHeader(strings.TrimSpace(v[:idx]), strings.TrimSpace(v[idx+1:]))
				}
				i++
			}

		case "-d", "--data", "--data-raw", "--data-binary", "--data-ascii":
			if v, ok := next(i); ok {
				body, hasBody = v, true
				i++
			}

		case "--data-urlencode":
			if v, ok := next(i); ok {
				if body != "" {
					body += "&"
				}
				body += v
				hasBody, formBody = true, true
				i++
			}

		case "--json":
			if v, ok := next(i); ok {
				body, hasBody = v, true
				setHeader("Content-Type", "application/json")
				setHeader("Accept", "application/json")
				i++
			}

		case "-u", "--user":
			if v, ok := next(i); ok {
				parts := strings.SplitN(v, ":", 2)
				password := ""
				if len(parts) > 1 {
					password = parts[1]
				}
				req.Auth = core.NewBasicAuth(parts[0], password)
				i++
			}

		case "-A", "--user-agent":
			if v, ok := next(i); ok {
				setHeader("User-Agent", v)
				i++
			}

		case "-e", "--referer":
			if v, ok := next(i); ok {
				setHeader("Referer", v)
				i++
			}

		case "-b", "--cookie":
			if v, ok := next(i); ok {
				setHeader("Cookie", v)
				i++
			}

		case "--url":
			if v, ok := next(i); ok {
				req.URL = v
				i++
			}

		case "--compressed":
			setHeader("Accept-Encoding", "gzip, deflate, br")

		case "-I", "--head":
			method = string(core.MethodHead)

		case "-G", "--get":
			method = string(core.MethodGet)

		case "-L", "--location", "-k", "--insecure",
			"-s", "--silent", "-S", "--show-error", "-v", "--verbose", "-O", "--remote-name":

		case "-o", "--output":
			i++

		default:
			if strings.HasPrefix(token, "-") {
				if v, ok := next(i); ok && !strings.HasPrefix(v, "-") && !looksLikeURL(v) {
					i++
				}
			} else if req.URL == "" {
				req.URL = token
			}
		}
	}

	if req.URL == "" {
		return core.RequestConfig{}, fmt.Errorf("%w: no URL found in curl command", ErrParseError)
	}

	if method == "" {
		method = string(core.MethodGet)
		if hasBody {
			method = string(core.MethodPost)
		}
	}
	req.Method = core.Method(method)
	req.Name = generateNameFromURL(req.URL)

	if hasBody {
		req.Body = curlBody(body, formBody, req.Headers)
	}

	return req, nil
}

// curlBody picks the body type from the content type header, then from the
// content itself.
func curlBody(content string, form bool, headers []core.Header) core.Body {
	contentType := ""
	for _, h := range headers {
		if strings.EqualFold(h.Key, "Content-Type") {
			contentType = strings.ToLower(h.Value)
		}
	}

	switch {
	case strings.Contains(contentType, "json"):
		return core.Body{Type: core.BodyTypeJSON, Content: content}
	case form || strings.Contains(contentType, "x-www-form-urlencoded"):
		return core.Body{Type: core.BodyTypeForm, Content: content}
	case json.Valid([]byte(content)):
		return core.Body{Type: core.BodyTypeJSON, Content: content}
	}
	return core.Body{Type: core.BodyTypeRaw, Content: content}
}

func looksLikeURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// tokenize splits the command respecting quotes
func tokenize(cmd string) []string {
	var tokens []string
	var current strings.Builder
	var inQuote rune
	var escaped bool
	var quoted bool

	for _, r := range cmd {
		if escaped {
			current.WriteRune(r)
			escaped = false
			continue
		}

		if r == '\\' && inQuote != '\'' {
			escaped = true
			continue
		}

		if inQuote != 0 {
			if r == inQuote {
				inQuote = 0
			} else {
				current.WriteRune(r)
			}
			continue
		}

		if r == '"' || r == '\'' {
			inQuote = r
			quoted = true
			continue
		}

		if r == ' ' || r == '\t' {
			if current.Len() > 0 || quoted {
				tokens = append(tokens, current.String())
				current.Reset()
				quoted = false
			}
			continue
		}

		current.WriteRune(r)
	}

	if current.Len() > 0 || quoted {
		tokens = append(tokens, current.String())
	}

	return tokens
}

func generateNameFromURL(url string) string {
	name := url
	if idx := strings.Index(name, "://"); idx >= 0 {
		name = name[idx+3:]
	}

	if idx := strings.Index(name, "/"); idx >= 0 {
		path := name[idx:]
		if qIdx := strings.IndexAny(path, "?#"); qIdx >= 0 {
			path = path[:qIdx]
		}
		segments := strings.Split(strings.Trim(path, "/"), "/")
		if last := segments[len(segments)-1]; last != "" {
			return last
		}
		name = name[:idx]
	}

	if idx := strings.IndexAny(name, ":?#"); idx >= 0 {
		name = name[:idx]
	}

	return name
}

var _ Importer = (*CurlImporter)(nil)
