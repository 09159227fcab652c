package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/fatih/color"

	"github.com/artpar/postbox/internal/core"
)

var (
	successColor   = color.New(color.FgGreen, color.Bold)
	redirectColor  = color.New(color.FgYellow, color.Bold)
	clientErrColor = color.New(color.FgRed, color.Bold)
	serverErrColor = color.New(color.FgRed, color.Bold, color.BgWhite)
	warnColor      = color.New(color.FgYellow)
	headerKeyColor = color.New(color.FgCyan)
	methodColor    = color.New(color.FgMagenta, color.Bold)
	urlColor       = color.New(color.FgBlue)
	dimColor       = color.New(color.Faint)
)

// sanitize escapes control characters that could drive the terminal.
func sanitize(s string) string {
	var result strings.Builder
	result.Grow(len(s))

	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			result.WriteRune(r)
		case r == '\x1b':
			result.WriteString("\\x1b")
		case unicode.IsControl(r) && r < 0x20:
			fmt.Fprintf(&result, "\\x%02x", r)
		case r == 0x7F:
			result.WriteString("\\x7f")
		default:
			result.WriteRune(r)
		}
	}

	return result.String()
}

func statusColor(code int) *color.Color {
	switch {
	case code >= 200 && code < 300:
		return successColor
	case code >= 300 && code < 400:
		return redirectColor
	case code >= 400 && code < 500:
		return clientErrColor
	default:
		return serverErrColor
	}
}

func printStatus(w io.Writer, resp core.Response) {
	if resp.IsNetworkError() {
		clientErrColor.Fprintf(w, "%s\n", resp.StatusText)
		return
	}
	statusColor(resp.Status).Fprintf(w, "HTTP %d %s\n", resp.Status, sanitize(resp.StatusText))
}

func printResponse(w io.Writer, resp core.Response, showHeaders bool) {
	printStatus(w, resp)
	dimColor.Fprintf(w, "Time: %dms  Size: %s\n\n", resp.ResponseTime, formatSize(resp.Size))

	if showHeaders {
		printHeaders(w, resp.Headers)
	}
	printBody(w, resp.Data)
}

func printHeaders(w io.Writer, headers map[string]string) {
	if len(headers) == 0 {
		return
	}

	fmt.Fprintln(w, "Headers:")
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		headerKeyColor.Fprintf(w, "  %s: ", sanitize(key))
		fmt.Fprintln(w, sanitize(headers[key]))
	}
	fmt.Fprintln(w)
}

func printBody(w io.Writer, data any) {
	switch v := data.(type) {
	case nil:
		dimColor.Fprintln(w, "(empty body)")
	case string:
		if v == "" {
			dimColor.Fprintln(w, "(empty body)")
			return
		}
		fmt.Fprintln(w, sanitize(v))
	default:
		fmt.Fprintln(w, sanitize(prettyJSON(v)))
	}
}

func prettyJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatSize(n int) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%dB", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1fKB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1fMB", float64(n)/(1024*1024))
	}
}

func printRequestLine(w io.Writer, req core.RequestConfig) {
	methodColor.Fprintf(w, "%-7s ", req.Method)
	urlColor.Fprintln(w, sanitize(req.URL))
}

func printHistoryList(w io.Writer, entries []core.HistoryEntry, limit int) {
	if len(entries) == 0 {
		dimColor.Fprintln(w, "No requests in history")
		return
	}

	count := len(entries)
	if limit > 0 && limit < count {
		count = limit
	}

	for i := 0; i < count; i++ {
		entry := entries[i]
		dimColor.Fprintf(w, "[%d] ", i+1)
		methodColor.Fprintf(w, "%-7s ", entry.Request.Method)

		url := entry.Request.URL
		if len(url) > 60 {
			url = url[:57] + "..."
		}
		urlColor.Fprintf(w, "%-60s ", sanitize(url))

		statusColor(entry.Response.Status).Fprintf(w, "%d ", entry.Response.Status)
		dimColor.Fprintf(w, "(%dms) %s\n", entry.Response.ResponseTime, entry.Timestamp.Local().Format("2006-01-02 15:04:05"))
	}

	if limit > 0 && len(entries) > limit {
		dimColor.Fprintf(w, "\n... and %d more requests\n", len(entries)-limit)
	}
}

func printHistoryEntry(w io.Writer, entry core.HistoryEntry) {
	fmt.Fprintln(w, "Request:")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	printRequestLine(w, entry.Request)
	dimColor.Fprintf(w, "ID: %s\n", entry.ID)
	dimColor.Fprintf(w, "Time: %s\n\n", entry.Timestamp.Local().Format("2006-01-02 15:04:05"))

	headers := make(map[string]string)
	for _, h := range entry.Request.Headers {
		if h.Enabled && h.Key != "" {
			headers[h.Key] = h.Value
		}
	}
	printHeaders(w, headers)

	if entry.Request.HasBody() && entry.Request.Body.Content != "" {
		fmt.Fprintln(w, "Body:")
		fmt.Fprintln(w, sanitize(entry.Request.Body.Content))
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Response:")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	printResponse(w, entry.Response, true)
}

func printCollectionList(w io.Writer, cols []core.Collection) {
	if len(cols) == 0 {
		dimColor.Fprintln(w, "No collections found")
		return
	}

	fmt.Fprintln(w, "Collections:")
	for _, col := range cols {
		count := len(col.Requests)
		for _, f := range col.Folders {
			count += len(f.Requests)
		}
		headerKeyColor.Fprintf(w, "  %s ", sanitize(col.Name))
		dimColor.Fprintf(w, "(%d requests) %s\n", count, col.ID)
	}
}

func printCollection(w io.Writer, col core.Collection) {
	headerKeyColor.Fprintf(w, "Collection: %s\n", sanitize(col.Name))
	if col.Description != "" {
		dimColor.Fprintln(w, sanitize(col.Description))
	}
	fmt.Fprintln(w, strings.Repeat("-", 40))

	if len(col.Requests) == 0 && len(col.Folders) == 0 {
		dimColor.Fprintln(w, "(empty)")
		return
	}

	printRequests(w, col.Requests, "")
	for _, folder := range col.Folders {
		headerKeyColor.Fprintf(w, "%s/\n", sanitize(folder.Name))
		printRequests(w, folder.Requests, "  ")
	}
}

func printRequests(w io.Writer, requests []core.RequestConfig, indent string) {
	for i, req := range requests {
		dimColor.Fprintf(w, "%s[%d] ", indent, i+1)
		if req.Name != "" {
			fmt.Fprintf(w, "%s: ", sanitize(req.Name))
		}
		printRequestLine(w, req)
	}
}

func printEnvironments(w io.Writer, envs []core.Environment, active *core.Environment) {
	if len(envs) == 0 {
		dimColor.Fprintln(w, "No environments found")
		return
	}

	for _, env := range envs {
		marker := "  "
		if active != nil && active.ID == env.ID {
			marker = successColor.Sprint("* ")
		}
		fmt.Fprint(w, marker)
		headerKeyColor.Fprintf(w, "%s ", sanitize(env.Name))
		dimColor.Fprintf(w, "(%d variables) %s\n", len(env.Variables), env.ID)
	}
}

func printEnvironment(w io.Writer, env core.Environment) {
	headerKeyColor.Fprintf(w, "Environment: %s\n", sanitize(env.Name))
	keys := make([]string, 0, len(env.Variables))
	for k := range env.Variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s = %s\n", sanitize(k), sanitize(env.Variables[k]))
	}
}

func printSuccess(w io.Writer, format string, args ...any) {
	successColor.Fprintf(w, "✓ "+format+"\n", args...)
}

func printWarning(w io.Writer, format string, args ...any) {
	warnColor.Fprintf(w, "warning: "+format+"\n", args...)
}

func printError(w io.Writer, format string, args ...any) {
	clientErrColor.Fprintf(w, "✗ "+format+"\n", args...)
}
