package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/synopackage/pkg/aggregator"
)

// packagesOpts holds the flags of the packages command.
type packagesOpts struct {
	model   string
	version string
	beta    bool
	keyword string
	json    bool
}

// packagesCommand creates the "packages" command querying one source.
func (c *CLI) packagesCommand() *cobra.Command {
	var opts packagesOpts

	cmd := &cobra.Command{
		Use:   "packages <source>",
		Short: "List the packages of one source",
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

			prog := newProgress(c.Logger)
			env, err := a.service.Resolve(cmd.Context(), opts.request(args[0]))
			if err != nil {
				return err
			}

			if opts.json {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(env)
			}
			if !env.Success {
				return fmt.Errorf("%s: %s", args[0], env.Error())
			}
			prog.done(fmt.Sprintf("Fetched %d packages from %s", len(env.Packages), env.Parameters.SourceName))
			printEnvelopeHeader(env)
			printPackageTable(env.Packages, false)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.model, "model", "", "NAS model (default from config)")
	cmd.Flags().StringVar(&opts.version, "version", "", "DSM version, e.g. 7.2.2-72806 (default from config)")
	cmd.Flags().BoolVar(&opts.beta, "beta", false, "query the beta channel")
	cmd.Flags().StringVarP(&opts.keyword, "keyword", "k", "", "filter by name, display name or description")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the response envelope as JSON")
	c.registerQueryCompletions(cmd)

	return cmd
}

func (o packagesOpts) request(source string) aggregator.Request {
	return aggregator.Request{
		SourceName: source,
		Model:      o.model,
		Version:    o.version,
		IsBeta:     o.beta,
		Keyword:    o.keyword,
		IsSearch:   o.keyword != "",
	}
}
