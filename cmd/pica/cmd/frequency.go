package cmd

import (
	"encoding/csv"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bibkit/pica/internal/selector"
	"github.com/bibkit/pica/internal/store"
	"github.com/bibkit/pica/internal/types"
)

var (
	frequencyOutput  string
	frequencyTop     int
	frequencyReverse bool
)

var frequencyCmd = &cobra.Command{
	Use:   "frequency <query> [file...]",
	Short: "Count distinct value rows of a query",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFrequency,
}

func init() {
	rootCmd.AddCommand(frequencyCmd)
	frequencyCmd.Flags().StringVarP(&frequencyOutput, "output", "o", "", "output file (default stdout)")
	frequencyCmd.Flags().IntVar(&frequencyTop, "top", 0, "write only the n most frequent values (0 = all)")
	frequencyCmd.Flags().BoolVar(&frequencyReverse, "reverse", false, "sort ascending instead of descending")
}

func runFrequency(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	query, err := selector.ParseQuery(args[0], cfg.Options())
	if err != nil {
		return err
	}

	freq := make(map[string]int64)
	counts, err := forEachRecord(args[1:], cfg, func(seq int64, raw []byte, rec types.Record) error {
		for _, row := range query.Rows(rec) {
			if allEmpty(row) {
				continue
			}
			freq[strings.Join(row, "\x1f")]++
		}
		return nil
	}, nil)
	if err != nil {
		return err
	}

	// Sort by count, ties by value, so output order is reproducible.
	values := make([]string, 0, len(freq))
	for v := range freq {
		values = append(values, v)
	}
	sort.Slice(values, func(i, j int) bool {
		a, b := values[i], values[j]
		if freq[a] != freq[b] {
			if frequencyReverse {
				return freq[a] < freq[b]
			}
			return freq[a] > freq[b]
		}
		return a < b
	})
	if frequencyTop > 0 && len(values) > frequencyTop {
		values = values[:frequencyTop]
	}

	out, err := openOutput(frequencyOutput)
	if err != nil {
		return err
	}
	defer out.Close()
	w := csv.NewWriter(out)

	st, closeStore, err := openRunStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var runID types.RunID
	if st != nil {
		if runID, err = st.BeginRun("frequency", args[0]); err != nil {
			return err
		}
	}

	for _, v := range values {
		row := append(strings.Split(v, "\x1f"), strconv.FormatInt(freq[v], 10))
		if err := w.Write(row); err != nil {
			return err
		}
		if st != nil {
			if err := st.AddFrequency(runID, strings.ReplaceAll(v, "\x1f", "\t"), freq[v]); err != nil {
				return err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	if st != nil {
		if err := st.FinishRun(runID, store.RunCounts{
			Read:    counts.read,
			Matched: int64(len(values)),
			Invalid: counts.invalid,
		}); err != nil {
			return err
		}
	}

	slog.Info("frequency finished",
		"read", counts.read, "distinct", len(values), "invalid", counts.invalid)
	return nil
}
