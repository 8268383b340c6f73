package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the supported output formats for CLI commands.
type OutputFormat string

const (
	// OutputFormatTable formats output as a kubectl-style plain table
	OutputFormatTable OutputFormat = "table"
	// OutputFormatWide formats output as a table with additional columns
	OutputFormatWide OutputFormat = "wide"
	// OutputFormatJSON formats output as raw JSON data
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML formats output as YAML data
	OutputFormatYAML OutputFormat = "yaml"
)

// ParseOutputFormat validates an --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case OutputFormatTable, OutputFormatWide, OutputFormatJSON, OutputFormatYAML:
		return f, nil
	case "":
		return OutputFormatTable, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use table, wide, json or yaml)", s)
	}
}

// RenderOptions controls how credential summaries are printed.
type RenderOptions struct {
	Format    OutputFormat
	NoHeaders bool
	// Color enables ANSI colours for the status column.
	Color bool
	// Now is the reference time for relative expiry. Defaults to time.Now.
	Now time.Time
}

// RenderCredentials writes summaries to w in the requested format.
func RenderCredentials(w io.Writer, summaries []CredentialSummary, opts RenderOptions) error {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	switch opts.Format {
	case OutputFormatJSON:
		data, err := json.MarshalIndent(summaries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format JSON output: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case OutputFormatYAML:
		data, err := yaml.Marshal(summaries)
		if err != nil {
			return fmt.Errorf("failed to format YAML output: %w", err)
		}
		_, err = w.Write(data)
		return err
	}

	if len(summaries) == 0 {
		if !opts.NoHeaders {
			_, err := fmt.Fprintln(w, "No credentials stored")
			return err
		}
		return nil
	}

	wide := opts.Format == OutputFormatWide
	headers := []interface{}{"Provider", "Type", "Instance", "Identity", "Status", "Expires"}
	if wide {
		headers = append(headers, "Expires At", "Refresh", "Secret")
	}

	tw := newTableWriter(opts.NoHeaders, headers...)
	tw.SetOutputMirror(w)

	for _, s := range summaries {
		status := string(s.Status)
		if opts.Color {
			status = colorStatus(s.Status)
		}
		expires := "-"
		expiresAt := "-"
		if s.ExpiresAt != nil {
			expires = FormatExpiry(*s.ExpiresAt, opts.Now)
			expiresAt = s.ExpiresAt.Local().Format(time.RFC3339)
		}

		row := table.Row{s.Provider, s.Type, dash(s.Instance), dash(s.Identity), status, expires}
		if wide {
			row = append(row, expiresAt, yesNo(s.Refresh), dash(s.SecretHint))
		}
		tw.AppendRow(row)
	}

	tw.Render()
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
