package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/synopackage/pkg/aggregator"
	"github.com/matzehuels/synopackage/pkg/spk"
)

// searchCommand creates the "search" command fanning out over all active
// sources.
func (c *CLI) searchCommand() *cobra.Command {
	var opts packagesOpts

	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search all active sources",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, c.Logger)
			if err != nil {
				return err
			}
			defer a.Close()

			opts.keyword = args[0]
			label := fmt.Sprintf("Searching for %q", args[0])
			spinner := newSpinnerWithContext(cmd.Context(), fmt.Sprintf("%s (0/%d sources)", label, len(a.registry.ActiveSources())))
			spinner.Start()
			ctx := aggregator.WithProgress(cmd.Context(), spinner.Progress(label))
			envs, err := a.service.SearchAll(ctx, opts.request(""))
			if err != nil {
				spinner.StopWithError("Search failed")
				return err
			}

			pkgs, failed := mergeResults(envs)
			spinner.StopWithSuccess(fmt.Sprintf("Found %d packages", len(pkgs)))
			for _, env := range failed {
				printWarning("%s: %s", env.Parameters.SourceName, env.Error())
			}
			if len(pkgs) > 0 {
				printPackageTable(pkgs, true)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.model, "model", "", "NAS model (default from config)")
	cmd.Flags().StringVar(&opts.version, "version", "", "DSM version (default from config)")
	cmd.Flags().BoolVar(&opts.beta, "beta", false, "query the beta channel")
	c.registerQueryCompletions(cmd)
	cmd.ValidArgsFunction = cobra.NoFileCompletions

	return cmd
}

// mergeResults concatenates the packages of successful envelopes in
// envelope order and collects the failed ones.
func mergeResults(envs []*aggregator.Envelope) (pkgs []spk.Package, failed []*aggregator.Envelope) {
	for _, env := range envs {
		if !env.Success {
			failed = append(failed, env)
			continue
		}
		pkgs = append(pkgs, env.Packages...)
	}
	return pkgs, failed
}
