package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/domainscout/domainscout/internal/config"
	"github.com/domainscout/domainscout/internal/core"
	"github.com/domainscout/domainscout/internal/observability"
	"github.com/domainscout/domainscout/internal/output"
)

var batchCmd = &cobra.Command{
	Use:   "batch [names...]",
	Short: "Check many candidate domains",
	Long: `Check availability for many candidate domains, streaming work under a
concurrency cap. Bare names are crossed with the requested TLDs; names
that already carry a TLD are checked as-is.

With --target, the batch stops launching new checks once that many
available domains have been found. In-flight checks still drain, so
the final count may slightly overshoot the target.`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().String("names-file", "", "Read names from file, one per line ('-' for stdin)")
	batchCmd.Flags().StringSlice("tlds", []string{"com"}, "TLDs to cross bare names with")
	batchCmd.Flags().Int("target", 0, "Stop after this many available domains are found (0 = resolve all)")
	batchCmd.Flags().Int("parallelism", 0, "Concurrent individual checks (0 = config default)")
	batchCmd.Flags().Int("individual", 0, "Domains checked individually before grouping (0 = config default)")
	batchCmd.Flags().Int("group-size", 0, "Domains per bulk provider call (0 = config default)")
	batchCmd.Flags().String("provider", "", "Force a check path: rdap (individual only) or namecheap (bulk)")
	batchCmd.Flags().Bool("available-only", false, "Only show available domains")
	batchCmd.Flags().String("output", "table", "Output format: table, json, markdown")
	batchCmd.Flags().String("out", "", "Write output to file ('-' for stdout)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	format, err := resolveOutputFormat(cmd)
	if err != nil {
		return err
	}

	namesFile, err := cmd.Flags().GetString("names-file")
	if err != nil {
		return err
	}
	names, err := resolveNames(args, namesFile)
	if err != nil {
		return err
	}

	tlds, err := cmd.Flags().GetStringSlice("tlds")
	if err != nil {
		return err
	}
	domains := expandDomains(names, tlds)
	if len(domains) == 0 {
		return errors.New("no domains to check")
	}

	opts, err := batchOptions(cmd, loadedConfig().Scheduler)
	if err != nil {
		return err
	}

	availableOnly, err := cmd.Flags().GetBool("available-only")
	if err != nil {
		return err
	}
	outPath, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	startedAt := time.Now()

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close() // nolint:errcheck // best-effort cleanup; errors logged internally

	eng := buildEngine(loadedConfig(), db, observability.CLILogger)
	defer eng.resolver.Drain()

	providerName, err := cmd.Flags().GetString("provider")
	if err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(providerName)) {
	case "":
	case "rdap":
		eng.scheduler.Bulk = nil
	case "namecheap":
		if eng.scheduler.Bulk == nil {
			return errors.New("namecheap provider is not configured (set provider.namecheap in config)")
		}
	default:
		return fmt.Errorf("unknown provider: %q", providerName)
	}

	// Result callbacks are serialized by the scheduler.
	results := make([]core.AvailabilityResult, 0, len(domains))
	summary, err := eng.scheduler.ResolveBatch(ctx, domains, func(result core.AvailabilityResult) {
		results = append(results, result)
	}, opts)
	if err != nil {
		return err
	}

	if availableOnly {
		filtered := results[:0]
		for _, result := range results {
			if result.Available {
				filtered = append(filtered, result)
			}
		}
		results = filtered
	}

	report := &output.Report{Results: results, Summary: &summary}
	rendered, err := output.NewFormatter(format).FormatReport(report)
	if err != nil {
		return err
	}

	sink, err := openSink(outPath)
	if err != nil {
		return err
	}
	defer sink.close() // nolint:errcheck

	if strings.TrimSpace(rendered) != "" {
		fmt.Fprintln(sink.writer, rendered)
	}

	if observability.CLILogger != nil {
		observability.CLILogger.Info("Batch complete",
			zap.Int("requested", len(domains)),
			zap.Int("resolved", summary.Resolved),
			zap.Int("available", summary.AvailableFound),
			zap.Bool("terminated", summary.Terminated),
			zap.Duration("elapsed", time.Since(startedAt)),
		)
	}

	return nil
}

// batchOptions merges flag values over scheduler config defaults.
func batchOptions(cmd *cobra.Command, defaults config.SchedulerConfig) (core.BatchOptions, error) {
	opts := core.BatchOptions{
		TargetCount:      0,
		Parallelism:      defaults.Parallelism,
		IndividualCount:  defaults.IndividualCount,
		GroupSize:        defaults.GroupSize,
		GroupParallelism: defaults.GroupParallelism,
	}

	target, err := cmd.Flags().GetInt("target")
	if err != nil {
		return opts, err
	}
	opts.TargetCount = target

	if cmd.Flags().Changed("parallelism") {
		if opts.Parallelism, err = cmd.Flags().GetInt("parallelism"); err != nil {
			return opts, err
		}
	}
	if cmd.Flags().Changed("individual") {
		if opts.IndividualCount, err = cmd.Flags().GetInt("individual"); err != nil {
			return opts, err
		}
	}
	if cmd.Flags().Changed("group-size") {
		if opts.GroupSize, err = cmd.Flags().GetInt("group-size"); err != nil {
			return opts, err
		}
	}

	return opts, nil
}
