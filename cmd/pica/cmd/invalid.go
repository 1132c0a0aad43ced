package cmd

import (
	"bufio"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bibkit/pica/internal/store"
	"github.com/bibkit/pica/internal/types"
)

var invalidOutput string

var invalidCmd = &cobra.Command{
	Use:   "invalid [file...]",
	Short: "Write lines that fail the record grammar",
	RunE:  runInvalid,
}

func init() {
	rootCmd.AddCommand(invalidCmd)
	invalidCmd.Flags().StringVarP(&invalidOutput, "output", "o", "", "output file (default stdout)")
}

func runInvalid(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// The whole point of this command is to keep going past bad lines.
	cfg.Reader.SkipInvalid = true

	out, err := openOutput(invalidOutput)
	if err != nil {
		return err
	}
	defer out.Close()
	w := bufio.NewWriter(out)

	st, closeStore, err := openRunStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var runID types.RunID
	if st != nil {
		if runID, err = st.BeginRun("invalid", ""); err != nil {
			return err
		}
	}
	persist := storeInvalid(st, runID)

	counts, err := forEachRecord(args, cfg, func(seq int64, raw []byte, rec types.Record) error {
		return nil
	}, func(seq int64, raw []byte, perr error) error {
		if _, err := w.Write(raw); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
		if persist != nil {
			return persist(seq, raw, perr)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if st != nil {
		if err := st.FinishRun(runID, store.RunCounts{
			Read:    counts.read,
			Invalid: counts.invalid,
		}); err != nil {
			return err
		}
	}

	slog.Info("invalid finished", "read", counts.read, "invalid", counts.invalid)
	return nil
}
