package cmd

import (
	"bufio"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bibkit/pica/internal/format"
	"github.com/bibkit/pica/internal/types"
)

var (
	printOutput   string
	printTemplate string
)

var printCmd = &cobra.Command{
	Use:   "print [file...]",
	Short: "Print records in a human-readable form",
	Long: `Print writes one line per field, with subfields marked by $code.
With --format, records render through a display template instead and one
line is written per matching field, e.g.:

  pica print --format "028A{ a <$> (', ' d) }" authorities.dat`,
	RunE: runPrint,
}

func init() {
	rootCmd.AddCommand(printCmd)
	printCmd.Flags().StringVarP(&printOutput, "output", "o", "", "output file (default stdout)")
	printCmd.Flags().StringVar(&printTemplate, "format", "", "render fields through a display template")
}

func runPrint(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var tmpl *format.Format
	if printTemplate != "" {
		if tmpl, err = format.Parse(printTemplate, cfg.Options()); err != nil {
			return err
		}
	}

	out, err := openOutput(printOutput)
	if err != nil {
		return err
	}
	defer out.Close()
	w := bufio.NewWriter(out)

	counts, err := forEachRecord(args, cfg, func(seq int64, raw []byte, rec types.Record) error {
		if tmpl != nil {
			for s := range tmpl.Iter(rec) {
				if s == "" {
					continue
				}
				if _, err := w.WriteString(s); err != nil {
					return err
				}
				if err := w.WriteByte('\n'); err != nil {
					return err
				}
			}
			return nil
		}
		return printRecord(w, rec)
	}, nil)
	if err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}

	slog.Debug("print finished", "read", counts.read, "invalid", counts.invalid)
	return nil
}

// printRecord writes one field per line, records separated by a blank
// line.
func printRecord(w *bufio.Writer, rec types.Record) error {
	for _, f := range rec.Fields {
		if _, err := w.WriteString(f.Tag.String()); err != nil {
			return err
		}
		if !f.Occurrence.IsNone() {
			if _, err := w.WriteString("/" + string(f.Occurrence)); err != nil {
				return err
			}
		}
		for _, sf := range f.Subfields {
			if _, err := w.WriteString(" $"); err != nil {
				return err
			}
			if err := w.WriteByte(byte(sf.Code)); err != nil {
				return err
			}
			if err := w.WriteByte(' '); err != nil {
				return err
			}
			if _, err := w.Write(sf.Value); err != nil {
				return err
			}
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}
