package cli

import (
	"github.com/spf13/cobra"
)

// CommandFlags holds the output flag values shared by the commands that print
// credential tables.
type CommandFlags struct {
	// OutputFormat specifies the desired output format (table, wide, json, yaml)
	OutputFormat string
	// NoHeaders suppresses the header row in table output
	NoHeaders bool
	// NoColor disables ANSI colours in table output
	NoColor bool
}

// RegisterOutputFlags registers the output flags on cmd.
//
// The registered flags are:
//   - --output/-o: Output format (table, wide, json, yaml), default: "table"
//   - --no-headers: Suppress header row in table output
//   - --no-color: Disable coloured status output
func RegisterOutputFlags(cmd *cobra.Command, flags *CommandFlags) {
	cmd.Flags().StringVarP(&flags.OutputFormat, "output", "o", "table", "Output format (table, wide, json, yaml)")
	cmd.Flags().BoolVar(&flags.NoHeaders, "no-headers", false, "Suppress header row in table output")
	cmd.Flags().BoolVar(&flags.NoColor, "no-color", false, "Disable coloured status output")
}

// ToRenderOptions converts CommandFlags to RenderOptions, validating the
// output format.
func (f *CommandFlags) ToRenderOptions() (RenderOptions, error) {
	format, err := ParseOutputFormat(f.OutputFormat)
	if err != nil {
		return RenderOptions{}, err
	}

	return RenderOptions{
		Format:    format,
		NoHeaders: f.NoHeaders,
		Color:     !f.NoColor,
	}, nil
}
