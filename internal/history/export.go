package history

import (
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed templates/history.md.go.tmpl
var fallbackHistoryTemplate string

const fallbackHistoryTemplateName = "history.md.go.tmpl"

// Format is an export format for the history.
type Format string

const (
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
)

// Formats lists every supported export format.
var Formats = []Format{FormatYAML, FormatMarkdown, FormatPDF}

// ParseFormat returns the format for its name.
func ParseFormat(name string) (Format, error) {
	for _, format := range Formats {
		if string(format) == strings.ToLower(name) {
			return format, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q", name)
}

// MarkdownTemplate is the data passed to the markdown export template.
type MarkdownTemplate struct {
	ExportedAt time.Time
	Entries    []Entry
}

// WriteYAML writes the entries as a YAML list.
func WriteYAML(output io.Writer, entries []Entry) error {
	encoder := yaml.NewEncoder(output)
	encoder.SetIndent(2)
	if err := encoder.Encode(entries); err != nil {
		return fmt.Errorf("yaml.NewEncoder().Encode() > %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("encoder.Close() > %w", err)
	}
	return nil
}

// WriteMarkdown renders the entries with the template at templatePath, or the embedded one
// if it does not exist or fails to parse.
func WriteMarkdown(output io.Writer, templatePath string, data MarkdownTemplate) error {
	tmpl, err := parseTemplateWithFallback(templatePath)
	if err != nil {
		return fmt.Errorf("parseTemplateWithFallback() > %w", err)
	}
	if err := tmpl.Execute(output, data); err != nil {
		return fmt.Errorf("tmpl.Execute() > %w", err)
	}
	return nil
}

func parseTemplateWithFallback(templatePath string) (*template.Template, error) {
	funcMap := template.FuncMap{
		"join":   strings.Join,
		"escape": escapeTableCell,
	}

	if templatePath != "" {
		if _, err := os.Stat(templatePath); err == nil {
			tmpl, err := template.New(filepath.Base(templatePath)).
				Funcs(funcMap).
				ParseFiles(templatePath)
			if err == nil {
				return tmpl, nil
			}
			slog.Default().Warn("failed to parse a templatePath",
				slog.String("templatePath", templatePath),
				slog.Any("error", err),
			)
		}
	}

	tmpl, err := template.New(fallbackHistoryTemplateName).
		Funcs(funcMap).
		Parse(fallbackHistoryTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded template: %w", err)
	}
	return tmpl, nil
}

var tableCellReplacer = strings.NewReplacer("|", `\|`, "*", `\*`, "\n", " ", "\r", " ")

func escapeTableCell(value string) string {
	return tableCellReplacer.Replace(value)
}
