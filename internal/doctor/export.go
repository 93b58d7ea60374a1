package doctor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/astrokit/internal/foundation/errors"
	"git.home.luguber.info/inful/astrokit/internal/foundation/normalization"
)

// Format selects the export encoding of a health report.
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

var formatNormalizer = normalization.NewNormalizer("export format", map[string]Format{
	"json":     FormatJSON,
	"yaml":     FormatYAML,
	"yml":      FormatYAML,
	"markdown": FormatMarkdown,
	"md":       FormatMarkdown,
	"html":     FormatHTML,
}, FormatJSON)

// ParseFormat parses a format name.
func ParseFormat(raw string) (Format, error) {
	f, err := formatNormalizer.Parse(raw)
	if err != nil {
		return "", ferrors.ValidationError(err.Error()).Build()
	}
	return f, nil
}

// FormatForPath picks the format from a file extension, defaulting to JSON.
func FormatForPath(path string) Format {
	return formatNormalizer.Normalize(strings.TrimPrefix(filepath.Ext(path), "."))
}

type exported struct {
	RunID       string    `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	Healthy     bool      `json:"healthy" yaml:"healthy"`
	Entries     []Entry   `json:"entries" yaml:"entries"`
}

// Export writes the report to w in format.
func (r *HealthReport) Export(w io.Writer, format Format) error {
	doc := exported{RunID: r.RunID, GeneratedAt: r.GeneratedAt, Healthy: r.Healthy(), Entries: r.Entries()}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case FormatMarkdown:
		_, err := io.WriteString(w, r.Markdown())
		return err
	case FormatHTML:
		return r.writeHTML(w)
	default:
		return ferrors.ValidationError(fmt.Sprintf("unsupported export format %q", format)).Build()
	}
}

// Markdown renders the report as a Markdown document with one table row per
// component.
func (r *HealthReport) Markdown() string {
	var b strings.Builder
	b.WriteString("# astro health report\n\n")
	fmt.Fprintf(&b, "Generated %s.\n\n", r.GeneratedAt.UTC().Format(time.RFC3339))
	if r.Healthy() {
		b.WriteString("**All components healthy.**\n\n")
	} else {
		fmt.Fprintf(&b, "**%d of %d components need attention.**\n\n", len(r.Unhealthy()), len(r.entries))
	}

	b.WriteString("| Component | Status | Check | Detail | Fix |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, e := range r.entries {
		detail := e.Detail
		if e.Disagreement != "" {
			detail = strings.TrimSpace(detail + " (" + e.Disagreement + ")")
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			cell(e.Component), cell(string(e.Status)), cell(e.Check), cell(detail), cell(e.FixHint))
	}
	return b.String()
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

func (r *HealthReport) writeHTML(w io.Writer) error {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var body bytes.Buffer
	if err := md.Convert([]byte(r.Markdown()), &body); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to render health report").Build()
	}
	_, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"><title>%s</title></head>\n<body>\n%s</body>\n</html>\n",
		html.EscapeString("astro health report"), body.String())
	return err
}
