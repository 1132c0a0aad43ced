package cmd

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bibkit/pica/internal/lint"
	"github.com/bibkit/pica/internal/runner"
	"github.com/bibkit/pica/internal/types"
)

var (
	lintRules   string
	lintOutput  string
	lintWorkers int
)

var lintCmd = &cobra.Command{
	Use:   "lint --rules <rules.yaml> [file...]",
	Short: "Check records against a rule set",
	Long: `Lint evaluates every record against the rule set and writes one CSV
line per finding: record sequence, rule name, severity, message. The
command fails when any finding of severity error was reported.`,
	RunE: runLint,
}

func init() {
	rootCmd.AddCommand(lintCmd)
	lintCmd.Flags().StringVar(&lintRules, "rules", "", "rule set file (required)")
	lintCmd.Flags().StringVarP(&lintOutput, "output", "o", "", "output file (default stdout)")
	lintCmd.Flags().IntVar(&lintWorkers, "workers", 0, "rules evaluated in parallel per record (0 = GOMAXPROCS)")
	lintCmd.MarkFlagRequired("rules")
}

func runLint(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	doc, err := os.ReadFile(lintRules)
	if err != nil {
		return err
	}
	set, err := lint.Load(doc, cfg.Options())
	if err != nil {
		return fmt.Errorf("failed to load rule set %s: %w", lintRules, err)
	}

	out, err := openOutput(lintOutput)
	if err != nil {
		return err
	}
	defer out.Close()
	w := csv.NewWriter(out)

	pool := runner.New(lintWorkers, set.Rules,
		func(r *lint.Rule, rec types.Record) *lint.Finding {
			return r.Check(rec)
		})

	var findings, errors int64
	counts, err := forEachRecord(args, cfg, func(seq int64, raw []byte, rec types.Record) error {
		for _, f := range pool.Evaluate(rec) {
			if f == nil {
				continue
			}
			findings++
			if f.Severity == lint.SeverityError {
				errors++
			}
			row := []string{
				strconv.FormatInt(seq, 10),
				f.Rule,
				f.Severity.String(),
				f.Message,
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	}, nil)
	if err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	slog.Info("lint finished",
		"read", counts.read, "findings", findings, "invalid", counts.invalid)
	if errors > 0 {
		return fmt.Errorf("%d error findings", errors)
	}
	return nil
}
