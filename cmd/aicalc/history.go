package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/at-ishikawa/aicalc/internal/bootstrap"
	"github.com/at-ishikawa/aicalc/internal/cli"
	"github.com/at-ishikawa/aicalc/internal/config"
	"github.com/at-ishikawa/aicalc/internal/history"
	"github.com/at-ishikawa/aicalc/internal/pdf"
)

type FormatFlag history.Format

// Set implements pflag.Value.
func (f *FormatFlag) Set(v string) error {
	format, err := history.ParseFormat(v)
	if err != nil {
		names := make([]string, 0, len(history.Formats))
		for _, format := range history.Formats {
			names = append(names, string(format))
		}
		return fmt.Errorf("invalid value %q, valid values are %s", v, strings.Join(names, ", "))
	}
	*f = FormatFlag(format)
	return nil
}

// String implements pflag.Value.
func (f *FormatFlag) String() string {
	if f == nil {
		return ""
	}
	return string(*f)
}

// Type implements pflag.Value.
func (f *FormatFlag) Type() string {
	return "FormatFlag"
}

var (
	_ pflag.Value = (*FormatFlag)(nil)
)

func newHistoryCommand() *cobra.Command {
	historyCommand := &cobra.Command{
		Use:   "history",
		Short: "Show, clear or export previous calculations",
	}

	historyCommand.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List previous calculations, most recent first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runWithComponents(cmd.Context(), func(ctx context.Context, _ *config.Config, components *bootstrap.Components) error {
					entries, err := components.Store.List(ctx)
					if err != nil {
						return fmt.Errorf("store.List() > %w", err)
					}
					return cli.WriteHistory(cmd.OutOrStdout(), entries)
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete every previous calculation",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runWithComponents(cmd.Context(), func(ctx context.Context, _ *config.Config, components *bootstrap.Components) error {
					if err := components.Store.Clear(ctx); err != nil {
						return fmt.Errorf("store.Clear() > %w", err)
					}
					_, err := fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
					return err
				})
			},
		},
		newHistoryExportCommand(),
	)
	return historyCommand
}

func newHistoryExportCommand() *cobra.Command {
	format := FormatFlag(history.FormatMarkdown)
	var output string
	command := &cobra.Command{
		Use:   "export",
		Short: "Export previous calculations as YAML, markdown or PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if history.Format(format) == history.FormatPDF && output == "" {
				return fmt.Errorf("--output is required for the pdf format")
			}
			return runWithComponents(cmd.Context(), func(ctx context.Context, cfg *config.Config, components *bootstrap.Components) error {
				entries, err := components.Store.List(ctx)
				if err != nil {
					return fmt.Errorf("store.List() > %w", err)
				}
				return exportHistory(cmd.OutOrStdout(), history.Format(format), output, cfg.History.ExportTemplate, entries, time.Now())
			})
		},
	}
	flags := command.Flags()
	flags.Var(&format, "format", "Export format. Options: yaml, markdown, pdf")
	flags.StringVarP(&output, "output", "o", "", "Output file path. Defaults to stdout except for pdf")
	return command
}

func exportHistory(
	stdout io.Writer,
	format history.Format,
	output string,
	templatePath string,
	entries []history.Entry,
	exportedAt time.Time,
) error {
	var buf bytes.Buffer
	switch format {
	case history.FormatYAML:
		if err := history.WriteYAML(&buf, entries); err != nil {
			return fmt.Errorf("history.WriteYAML() > %w", err)
		}
	case history.FormatMarkdown, history.FormatPDF:
		if err := history.WriteMarkdown(&buf, templatePath, history.MarkdownTemplate{
			ExportedAt: exportedAt,
			Entries:    entries,
		}); err != nil {
			return fmt.Errorf("history.WriteMarkdown() > %w", err)
		}
	default:
		return fmt.Errorf("unknown export format %q", format)
	}

	if format == history.FormatPDF {
		pdfPath, err := pdf.ConvertMarkdownToPDF(buf.Bytes(), output)
		if err != nil {
			return fmt.Errorf("pdf.ConvertMarkdownToPDF() > %w", err)
		}
		_, err = fmt.Fprintf(stdout, "PDF exported: %s\n", pdfPath)
		return err
	}

	if output == "" {
		_, err := stdout.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("os.WriteFile(%s) > %w", output, err)
	}
	_, err := fmt.Fprintf(stdout, "History exported: %s\n", output)
	return err
}
