package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/domainscout/domainscout/internal/core"
	"github.com/domainscout/domainscout/internal/observability"
	"github.com/domainscout/domainscout/internal/output"
)

var checkCmd = &cobra.Command{
	Use:     "check <domain> [domain...]",
	Aliases: []string{"resolve"},
	Short:   "Check availability of one or more domains",
	Long: `Resolve whether the given domains are available for registration.

The resolver consults the local cache first, then races a DNS probe
against an authoritative RDAP lookup. Degraded lookups report the
domain as not available with an explanatory error.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().String("output", "table", "Output format: table, json, markdown")
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := resolveOutputFormat(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close() // nolint:errcheck // best-effort cleanup; errors logged internally

	eng := buildEngine(loadedConfig(), db, observability.CLILogger)
	defer eng.resolver.Drain()

	results := make([]core.AvailabilityResult, 0, len(args))
	for _, domain := range args {
		results = append(results, eng.resolver.Resolve(ctx, domain))
	}

	report := &output.Report{Results: results}
	rendered, err := output.NewFormatter(format).FormatReport(report)
	if err != nil {
		return err
	}
	if strings.TrimSpace(rendered) != "" {
		fmt.Println(rendered)
	}

	return nil
}
