package cmd

import (
	"encoding/csv"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bibkit/pica/internal/selector"
	"github.com/bibkit/pica/internal/store"
	"github.com/bibkit/pica/internal/types"
)

var (
	selectOutput  string
	selectTSV     bool
	selectNoEmpty bool
)

var selectCmd = &cobra.Command{
	Use:   "select <query> [file...]",
	Short: "Select subfield values into CSV rows",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSelect,
}

func init() {
	rootCmd.AddCommand(selectCmd)
	selectCmd.Flags().StringVarP(&selectOutput, "output", "o", "", "output file (default stdout)")
	selectCmd.Flags().BoolVar(&selectTSV, "tsv", false, "write tab-separated output")
	selectCmd.Flags().BoolVar(&selectNoEmpty, "no-empty", false, "drop rows whose every column is empty")
}

func runSelect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	query, err := selector.ParseQuery(args[0], cfg.Options())
	if err != nil {
		return err
	}

	out, err := openOutput(selectOutput)
	if err != nil {
		return err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if selectTSV {
		w.Comma = '\t'
	}

	st, closeStore, err := openRunStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var runID types.RunID
	if st != nil {
		if runID, err = st.BeginRun("select", args[0]); err != nil {
			return err
		}
	}

	var written int64
	counts, err := forEachRecord(args[1:], cfg, func(seq int64, raw []byte, rec types.Record) error {
		for _, row := range query.Rows(rec) {
			if selectNoEmpty && allEmpty(row) {
				continue
			}
			if err := w.Write(row); err != nil {
				return err
			}
			if st != nil {
				if err := st.AddRow(runID, written, row); err != nil {
					return err
				}
			}
			written++
		}
		return nil
	}, storeInvalid(st, runID))
	if err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	if st != nil {
		if err := st.FinishRun(runID, store.RunCounts{
			Read:    counts.read,
			Matched: written,
			Invalid: counts.invalid,
		}); err != nil {
			return err
		}
	}

	slog.Info("select finished",
		"read", counts.read, "rows", written, "invalid", counts.invalid)
	return nil
}

func allEmpty(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
