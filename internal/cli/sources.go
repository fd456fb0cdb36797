package cli

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

// sourcesCommand creates the "sources" command listing the registry.
func (c *CLI) sourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List configured package sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			reg, err := cfg.Registry()
			if err != nil {
				return err
			}

			rows := [][]string{}
			for _, s := range reg.Sources() {
				rows = append(rows, []string{s.Name, s.URL, yesNo(s.Active), yesNo(s.Legacy)})
			}
			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
				Headers("Source", "URL", "Active", "Legacy").
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == -1 {
						return tableHeaderStyle
					}
					if col == 1 {
						return StyleLink
					}
					return lipgloss.NewStyle()
				})
			printLine(t.Render())
			printDetail("%s sources, %s models, %s versions",
				strconv.Itoa(len(reg.Sources())), strconv.Itoa(len(reg.Models())), strconv.Itoa(len(reg.Versions())))
			return nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return iconSuccess
	}
	return ""
}
