package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/artpar/postbox/internal/core"
	"github.com/artpar/postbox/internal/merge"
)

// HARImporter imports HTTP Archive (HAR) files. Each entry becomes a request
// in a folder per host, and entries with a recorded response also become
// history.
type HARImporter struct{}

// NewHARImporter creates a new HAR importer.
func NewHARImporter() *HARImporter {
	return &HARImporter{}
}

func (h *HARImporter) Name() string {
	return "HTTP Archive (HAR)"
}

func (h *HARImporter) Format() Format {
	return FormatHAR
}

func (h *HARImporter) FileExtensions() []string {
	return []string{".har"}
}

func (h *HARImporter) DetectFormat(content []byte) bool {
	var check struct {
		Log *struct {
			Version string `json:"version"`
			Creator struct {
				Name string `json:"name"`
			} `json:"creator"`
		} `json:"log"`
	}

	if err := json.Unmarshal(content, &check); err != nil || check.Log == nil {
		return false
	}

	return check.Log.Version != "" || check.Log.Creator.Name != ""
}

func (h *HARImporter) Import(ctx context.Context, content []byte) (*Snapshot, error) {
	var har harFile
	if err := json.Unmarshal(content, &har); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseError, err)
	}

	collName := "HAR Import"
	if har.Log.Creator.Name != "" {
		collName = fmt.Sprintf("HAR from %s", har.Log.Creator.Name)
	}

	coll := core.NewCollection(collName)
	history := []core.HistoryEntry{}

	for i, entry := range har.Log.Entries {
		parsedURL, err := url.Parse(entry.Request.URL)
		if err != nil || parsedURL.Host == "" {
			continue
		}

		req := convertHARRequest(entry.Request, parsedURL.Host+"/"+generateHARRequestName(parsedURL, i))
		req.CollectionID = coll.ID
		coll.Requests = append(coll.Requests, req)

		if entry.Response.Status > 0 {
			history = append(history, harHistoryEntry(entry, req))
		}
	}

	return &Snapshot{Data: merge.Data{
		Collections:  []core.Collection{coll},
		History:      history,
		Environments: []core.Environment{},
	}}, nil
}

func convertHARRequest(hr harRequest, name string) core.RequestConfig {
	req := core.NewRequestConfig()
	req.Name = name
	req.Method = core.Method(strings.ToUpper(hr.Method))
	req.URL = hr.URL

	// HTTP/2 pseudo-headers are not real request headers.
	for _, header := range hr.Headers {
		if !strings.HasPrefix(header.Name, ":") {
			req.Headers = append(req.Headers, core.NewHeader(header.Name, header.Value))
		}
	}

	if len(hr.Cookies) > 0 {
		var cookieParts []string
		for _, cookie := range hr.Cookies {
			cookieParts = append(cookieParts, fmt.Sprintf("%s=%s", cookie.Name, cookie.Value))
		}
		req.Headers = append(req.Headers, core.NewHeader("Cookie", strings.Join(cookieParts, "; ")))
	}

	if hr.PostData != nil && hr.PostData.Text != "" {
		mime := strings.ToLower(hr.PostData.MimeType)
		switch {
		case strings.Contains(mime, "json"):
			req.Body = core.Body{Type: core.BodyTypeJSON, Content: hr.PostData.Text}
		case strings.Contains(mime, "x-www-form-urlencoded"):
			req.Body = core.Body{Type: core.BodyTypeForm, Content: hr.PostData.Text}
		default:
			req.Body = core.Body{Type: core.BodyTypeRaw, Content: hr.PostData.Text}
		}
	}

	return req
}

func harHistoryEntry(entry harEntry, req core.RequestConfig) core.HistoryEntry {
	headers := make(map[string]string, len(entry.Response.Headers))
	for _, h := range entry.Response.Headers {
		key := strings.ToLower(h.Name)
		if existing, ok := headers[key]; ok {
			headers[key] = existing + ", " + h.Value
		} else {
			headers[key] = h.Value
		}
	}

	var data any = entry.Response.Content.Text
	if strings.Contains(strings.ToLower(entry.Response.Content.MimeType), "json") {
		var decoded any
		if err := json.Unmarshal([]byte(entry.Response.Content.Text), &decoded); err == nil {
			data = decoded
		}
	}

	timestamp := core.Now()
	if t, err := time.Parse(time.RFC3339Nano, entry.StartedDateTime); err == nil {
		timestamp = t.UTC().Truncate(time.Millisecond)
	}

	return core.HistoryEntry{
		ID:      core.NewID(),
		Request: req.Clone(),
		Response: core.Response{
			Status:       entry.Response.Status,
			StatusText:   entry.Response.StatusText,
			Headers:      headers,
			Data:         data,
			ResponseTime: int64(entry.Time),
			Size:         core.SerializedSize(data),
		},
		Timestamp: timestamp,
	}
}

func generateHARRequestName(u *url.URL, index int) string {
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if last := segments[len(segments)-1]; last != "" {
		return last
	}
	return fmt.Sprintf("Request %d", index+1)
}

// HAR format structures (HTTP Archive 1.2)

type harFile struct {
	Log harLog `json:"log"`
}

type harLog struct {
	Version string     `json:"version"`
	Creator harCreator `json:"creator"`
	Entries []harEntry `json:"entries"`
}

type harCreator struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type harEntry struct {
	StartedDateTime string      `json:"startedDateTime"`
	Time            float64     `json:"time"`
	Request         harRequest  `json:"request"`
	Response        harResponse `json:"response"`
}

type harRequest struct {
	Method   string         `json:"method"`
	URL      string         `json:"url"`
	Headers  []harNameValue `json:"headers"`
	Cookies  []harNameValue `json:"cookies"`
	PostData *harPostData   `json:"postData,omitempty"`
}

type harResponse struct {
	Status     int            `json:"status"`
	StatusText string         `json:"statusText"`
	Headers    []harNameValue `json:"headers"`
	Content    harContent     `json:"content"`
}

type harNameValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type harPostData struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

type harContent struct {
	Size     int    `json:"size"`
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

var _ Importer = (*HARImporter)(nil)
