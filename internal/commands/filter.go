package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/stmtfilter/internal/date"
	"github.com/cleared-dev/stmtfilter/internal/export"
	"github.com/cleared-dev/stmtfilter/internal/model"
	"github.com/cleared-dev/stmtfilter/internal/statement"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	debitStyle    = cellStyle.Foreground(lipgloss.Color("#f38ba8"))
	missingStyle  = cellStyle.Foreground(lipgloss.Color("#7f849c"))
	previewBorder = lipgloss.NewStyle().Foreground(lipgloss.Color("#89b4fa"))
)

type filterOptions struct {
	period  string
	outDir  string
	formats []string
	today   string
	preview bool
}

func newFilterCommand(g *globalFlags) *cobra.Command {
	var opts filterOptions

	cmd := &cobra.Command{
		Use:   "filter <statement>",
		Short: "Keep the transactions inside a lookback period and export them",
		Example: `  stmtfilter filter statement.pdf --period "6 months"
  stmtfilter filter activity.csv --period "1 year 2 months" --format csv --preview`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := g.setup(cmd)
			if err != nil {
				return err
			}
			return runFilter(cmd.OutOrStdout(), statement.FromConfig(cfg, log), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.period, "period", "p", "", `lookback period, e.g. "6 months" (required)`)
	_ = cmd.MarkFlagRequired("period")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", ".", "output directory")
	cmd.Flags().StringSliceVarP(&opts.formats, "format", "f", []string{"csv", "pdf"}, "outputs to write: csv, pdf")
	cmd.Flags().StringVar(&opts.today, "today", "", "end of the period as YYYY-MM-DD (default: current date)")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "print the kept transactions as a table")

	return cmd
}

func runFilter(out io.Writer, svc *statement.Service, path string, opts filterOptions) error {
	var today date.Date
	if opts.today != "" {
		d, err := date.Parse(date.Format, opts.today)
		if err != nil {
			return fmt.Errorf("--today: %w", err)
		}
		today = d
	}

	writers := map[string]func(*statement.Result) ([]byte, error){}
	names := map[string]string{}
	for _, f := range opts.formats {
		switch f = strings.ToLower(strings.TrimSpace(f)); f {
		case "csv":
			writers[f], names[f] = (*statement.Result).CSV, export.CSVFilename
		case "pdf":
			writers[f], names[f] = (*statement.Result).PDF, export.PDFFilename
		default:
			return fmt.Errorf("--format: unknown output %q (want csv or pdf)", f)
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening statement: %w", err)
	}
	defer file.Close()

	res, err := svc.Run(statement.Request{
		Filename: filepath.Base(path),
		Document: file,
		Query:    opts.period,
		Today:    today,
	})
	if err != nil {
		return err
	}

	if len(writers) > 0 {
		if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	var written []string
	for _, f := range []string{"csv", "pdf"} {
		render, ok := writers[f]
		if !ok {
			continue
		}
		data, err := render(res)
		if err != nil {
			return err
		}
		dst := filepath.Join(opts.outDir, names[f])
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", dst, err)
		}
		written = append(written, dst)
	}

	fmt.Fprintf(out, "Transactions from %s to %s: %d of %d\n", res.Range.From, res.Range.To, len(res.Filtered), len(res.All))
	if opts.preview && len(res.Filtered) > 0 {
		fmt.Fprintln(out, previewTable(res.Filtered))
	}
	for _, dst := range written {
		fmt.Fprintf(out, "Wrote %s\n", dst)
	}
	return nil
}

const missingCell = "n/a"

// previewTable renders txns for the terminal. Descriptions are not truncated.
func previewTable(txns []model.Transaction) string {
	rows := make([][]string, 0, len(txns))
	for _, t := range txns {
		row := export.MarshalTransaction(t)
		for i := 2; i < len(row); i++ {
			if row[i] == "" {
				row[i] = missingCell
			}
		}
		rows = append(rows, row)
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(previewBorder).
		Headers(export.Header...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col < 2 {
				return cellStyle
			}
			v := rows[row][col]
			switch {
			case v == missingCell:
				return missingStyle
			case strings.HasPrefix(v, "-"):
				return debitStyle.Align(lipgloss.Right)
			default:
				return cellStyle.Align(lipgloss.Right)
			}
		}).
		String()
}
