package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/jk/internal/dom"
)

// ScanOptions holds flags for the scan command.
type ScanOptions struct {
	*RootOptions
	Selector string
}

// MatchedElement is one element matched by --select.
type MatchedElement struct {
	Tag  string `json:"tag"`
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
}

// ScanResult is the JSON payload of the scan command.
type ScanResult struct {
	File     string           `json:"file"`
	Elements int              `json:"elements"`
	Matches  []MatchedElement `json:"matches,omitempty"`
}

// NewScanCommand creates the scan command.
func NewScanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scan [html-file]",
		Short: "Enumerate and log the elements of an HTML document",
		Long: `Parse an HTML document and log every element in document order.

Element records go to the log on stderr. --select additionally lists the
elements matching a CSS selector.

Examples:
  jk scan page.html
  jk scan page.html --select "a[href]"
  curl -s https://example.com | jk scan --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			input := "-"
			if len(args) == 1 {
				input = args[0]
			}
			return runScan(opts, input, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Selector, "select", "", "CSS selector of elements to list")

	return cmd
}

func runScan(opts *ScanOptions, input string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	doc, err := parseHTMLInput(input, cmd.InOrStdin())
	if err != nil {
		_ = formatter.Error(ErrCodeLoadFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "reading document", err)
	}

	result := ScanResult{
		File:     input,
		Elements: dom.Scan(doc, newLogger(opts.RootOptions, cmd.ErrOrStderr())),
	}

	if opts.Selector != "" {
		matches, err := doc.QuerySelectorAll(opts.Selector)
		if err != nil {
			_ = formatter.Error(ErrCodeInvalidFlags, err.Error(), nil)
			return WrapExitError(ExitCommandError, "invalid --select", err)
		}
		for _, el := range matches {
			id, _ := el.Attr("id")
			result.Matches = append(result.Matches, MatchedElement{Tag: el.Tag(), ID: id, Text: el.Text()})
		}
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Scanned %d element(s)\n", result.Elements)
	if opts.Selector != "" {
		fmt.Fprintf(w, "  %d match(es) for %q\n", len(result.Matches), opts.Selector)
		for _, m := range result.Matches {
			label := m.Tag
			if m.ID != "" {
				label += "#" + m.ID
			}
			fmt.Fprintf(w, "  %s: %s\n", label, m.Text)
		}
	}
	return nil
}

func parseHTMLInput(input string, stdin io.Reader) (*dom.Document, error) {
	if input == "-" {
		return dom.Parse(stdin)
	}
	f, err := os.Open(input)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return dom.Parse(f)
}
