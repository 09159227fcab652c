package exporter

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/artpar/postbox/internal/core"
	"github.com/artpar/postbox/internal/storage"
)

// CurlExporter renders requests as curl commands.
type CurlExporter struct {
	Pretty bool // Use line continuations for readability
}

// NewCurlExporter creates a new curl exporter.
func NewCurlExporter() *CurlExporter {
	return &CurlExporter{
		Pretty: true,
	}
}

func (c *CurlExporter) Name() string {
	return "curl command"
}

func (c *CurlExporter) Format() Format {
	return FormatCurl
}

func (c *CurlExporter) FileExtension() string {
	return ".sh"
}

// Export writes a shell script with one command per saved request. Variables
// are left unresolved.
func (c *CurlExporter) Export(ctx context.Context, data storage.ExportData) ([]byte, error) {
	var sb strings.Builder
	sb.WriteString("#!/bin/sh\n")

	for _, coll := range data.Collections {
		fmt.Fprintf(&sb, "\n# Collection: %s\n", coll.Name)
		if coll.Description != "" {
			fmt.Fprintf(&sb, "# %s\n", coll.Description)
		}
		sb.WriteString("\n")
		c.writeRequests(&sb, coll.Requests)

		for _, folder := range coll.Folders {
			fmt.Fprintf(&sb, "# === %s ===\n\n", folder.Name)
			c.writeRequests(&sb, folder.Requests)
		}
	}

	return []byte(sb.String()), nil
}

func (c *CurlExporter) writeRequests(sb *strings.Builder, requests []core.RequestConfig) {
	for _, req := range requests {
		fmt.Fprintf(sb, "# %s\n", req.Name)
		sb.WriteString(c.ExportRequest(req, nil))
		sb.WriteString("\n\n")
	}
}

// ExportRequest renders req resolved against env (which may be nil) as a
// single curl command. Auth is rendered as the header or query parameter it
// produces when sent.
func (c *CurlExporter) ExportRequest(req core.RequestConfig, env *core.Environment) string {
	resolved := core.ResolveRequest(req, env)

	parts := []string{"curl"}

	if resolved.Method != core.MethodGet {
		parts = append(parts, "-X", string(resolved.Method))
	}

	keys := make([]string, 0, len(resolved.Headers))
	for k := range resolved.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		parts = append(parts, "-H", fmt.Sprintf("%s: %s", key, resolved.Headers[key]))
	}

	if resolved.HasBody {
		parts = append(parts, "--data-raw", resolved.Body)
	}

	// URL (always last)
	parts = append(parts, resolved.URL)

	if c.Pretty {
		return formatPrettyCurl(parts)
	}
	return formatInlineCurl(parts)
}

func formatInlineCurl(parts []string) string {
	quoted := make([]string, len(parts))
	for i, part := range parts {
		quoted[i] = shellQuote(part)
	}
	return strings.Join(quoted, " ")
}

// formatPrettyCurl puts every option and the URL on its own line.
func formatPrettyCurl(parts []string) string {
	var result strings.Builder
	result.WriteString("curl")

	last := len(parts) - 1
	for i := 1; i < last; i++ {
		result.WriteString(" \\\n  ")
		result.WriteString(shellQuote(parts[i]))
		if strings.HasPrefix(parts[i], "-") && i+1 < last {
			i++
			result.WriteString(" ")
			result.WriteString(shellQuote(parts[i]))
		}
	}
	if last > 0 {
		result.WriteString(" \\\n  ")
		result.WriteString(shellQuote(parts[last]))
	}

	return result.String()
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n\"'$`\\!*?[]{}()<>|&;#~") {
		return s
	}

	// Use single quotes and escape any single quotes in the string
	escaped := strings.ReplaceAll(s, "'", `'"'"'`)
	return "'" + escaped + "'"
}

var _ Exporter = (*CurlExporter)(nil)
