package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/synopackage/pkg/registry"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for synopackage.

To load completions:

Bash:
  $ source <(synopackage completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ synopackage completion bash > /etc/bash_completion.d/synopackage
  # macOS:
  $ synopackage completion bash > $(brew --prefix)/etc/bash_completion.d/synopackage

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ synopackage completion zsh > "${fpath[1]}/_synopackage"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ synopackage completion fish | source

  # To load completions for each session, execute once:
  $ synopackage completion fish > ~/.config/fish/completions/synopackage.fish

PowerShell:
  PS> synopackage completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> synopackage completion powershell > synopackage.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}

// registerQueryCompletions completes the source argument and the --model
// and --version flags of a query command from the configured registry.
func (c *CLI) registerQueryCompletions(cmd *cobra.Command) {
	cmd.ValidArgsFunction = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return c.completeFromRegistry(toComplete, sourceCompletions)
	}
	_ = cmd.RegisterFlagCompletionFunc("model", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return c.completeFromRegistry(toComplete, modelCompletions)
	})
	_ = cmd.RegisterFlagCompletionFunc("version", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return c.completeFromRegistry(toComplete, versionCompletions)
	})
}

func (c *CLI) completeFromRegistry(prefix string, list func(*registry.Static) []string) ([]string, cobra.ShellCompDirective) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	reg, err := cfg.Registry()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return filterPrefix(list(reg), prefix), cobra.ShellCompDirectiveNoFileComp
}

// Completion entries use cobra's "value\tdescription" form.

func sourceCompletions(reg *registry.Static) []string {
	var out []string
	for _, s := range reg.Sources() {
		out = append(out, s.Name+"\t"+s.URL)
	}
	return out
}

func modelCompletions(reg *registry.Static) []string {
	var out []string
	for _, m := range reg.Models() {
		out = append(out, m.Name+"\t"+m.Arch)
	}
	return out
}

func versionCompletions(reg *registry.Static) []string {
	var out []string
	for _, v := range reg.Versions() {
		out = append(out, v.Name)
	}
	return out
}

// filterPrefix keeps the entries whose value starts with prefix, ignoring
// case as the registries do.
func filterPrefix(entries []string, prefix string) []string {
	prefix = strings.ToLower(prefix)
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		value, _, _ := strings.Cut(e, "\t")
		if strings.HasPrefix(strings.ToLower(value), prefix) {
			out = append(out, e)
		}
	}
	return out
}
