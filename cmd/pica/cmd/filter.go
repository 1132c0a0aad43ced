package cmd

import (
	"bufio"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bibkit/pica/internal/matcher"
	"github.com/bibkit/pica/internal/runner"
	"github.com/bibkit/pica/internal/store"
	"github.com/bibkit/pica/internal/types"
)

var (
	filterOutput string
	filterInvert bool
	filterUnique bool
)

var filterCmd = &cobra.Command{
	Use:   "filter <expression> [file...]",
	Short: "Write records matching an expression",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFilter,
}

func init() {
	rootCmd.AddCommand(filterCmd)
	filterCmd.Flags().StringVarP(&filterOutput, "output", "o", "", "output file (default stdout)")
	filterCmd.Flags().BoolVarP(&filterInvert, "invert-match", "v", false, "write records that do not match")
	filterCmd.Flags().BoolVar(&filterUnique, "unique", false, "write each PPN only once")
}

func runFilter(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	m, err := matcher.Compile(args[0], cfg.Options())
	if err != nil {
		return err
	}

	out, err := openOutput(filterOutput)
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
		if runID, err = st.BeginRun("filter", args[0]); err != nil {
			return err
		}
	}

	ppnTag := types.MustTag("003@")
	seen := runner.NewSeen()
	var matched int64

	counts, err := forEachRecord(args[1:], cfg, func(seq int64, raw []byte, rec types.Record) error {
		if m.Match(rec) == filterInvert {
			return nil
		}
		if filterUnique {
			key := rec.First(ppnTag, '0')
			if key == nil {
				key = raw
			}
			if !seen.Add(key) {
				return nil
			}
		}
		matched++
		if _, err := w.Write(raw); err != nil {
			return err
		}
		return w.WriteByte('\n')
	}, storeInvalid(st, runID))
	if err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if st != nil {
		if err := st.FinishRun(runID, store.RunCounts{
			Read:    counts.read,
			Matched: matched,
			Invalid: counts.invalid,
		}); err != nil {
			return err
		}
	}

	slog.Info("filter finished",
		"read", counts.read, "matched", matched, "invalid", counts.invalid)
	return nil
}

// storeInvalid persists rejected lines when a run store is active.
func storeInvalid(st *store.Store, runID types.RunID) invalidFunc {
	if st == nil {
		return nil
	}
	return func(seq int64, raw []byte, err error) error {
		if serr := st.AddInvalid(runID, seq, err.Error(), raw); serr != nil {
			return fmt.Errorf("failed to persist invalid record %d: %w", seq, serr)
		}
		return nil
	}
}
