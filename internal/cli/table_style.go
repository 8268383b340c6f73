package cli

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// plainStyle is a kubectl-style table style without box-drawing characters.
// This format is optimized for:
//   - Easy copy/paste operations
//   - Piping to grep, awk, cut and other command-line tools
//   - Terminal-agnostic rendering (no Unicode issues)
func plainStyle() table.Style {
	style := table.StyleDefault
	style.Name = "Plain"
	style.Box.PaddingLeft = ""
	style.Box.PaddingRight = "   "
	style.Options = table.OptionsNoBordersAndSeparators
	style.Format.Header = text.FormatUpper
	return style
}

// newTableWriter returns a go-pretty writer in the plain style.
func newTableWriter(noHeaders bool, headers ...interface{}) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(plainStyle())
	if !noHeaders {
		tw.AppendHeader(table.Row(headers))
	}
	return tw
}

// colorStatus applies the status colour: green for usable, yellow for soon
// unusable, red for unusable.
func colorStatus(status CredentialStatus) string {
	switch status {
	case StatusValid:
		return text.FgGreen.Sprint(string(status))
	case StatusExpiring:
		return text.FgYellow.Sprint(string(status))
	case StatusExpired, StatusNoToken:
		return text.FgRed.Sprint(string(status))
	default:
		return text.FgHiBlack.Sprint(string(status))
	}
}
