package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// browseCommand creates the "browse" command, an interactive package list.
func (c *CLI) browseCommand() *cobra.Command {
	var opts packagesOpts

	cmd := &cobra.Command{
		Use:   "browse <source>",
		Short: "Browse the packages of one source interactively",
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

			spinner := newSpinnerWithContext(cmd.Context(), "Loading "+args[0]+"...")
			spinner.Start()
			env, err := a.service.Resolve(cmd.Context(), opts.request(args[0]))
			spinner.Stop()
			if err != nil {
				return err
			}
			if !env.Success {
				return fmt.Errorf("%s: %s", args[0], env.Error())
			}
			if len(env.Packages) == 0 {
				printInfo("No packages")
				return nil
			}

			title := fmt.Sprintf("%s · %s · %s", env.Parameters.SourceName, env.Parameters.Model, env.Parameters.Version)
			_, err = tea.NewProgram(NewPackageListModel(title, env.Packages), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	cmd.Flags().StringVar(&opts.model, "model", "", "NAS model (default from config)")
	cmd.Flags().StringVar(&opts.version, "version", "", "DSM version (default from config)")
	cmd.Flags().BoolVar(&opts.beta, "beta", false, "query the beta channel")
	cmd.Flags().StringVarP(&opts.keyword, "keyword", "k", "", "initial filter")
	c.registerQueryCompletions(cmd)

	return cmd
}
