package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/synopackage/pkg/spk"
)

// List styles
var (
	listDimStyle   = lipgloss.NewStyle().Foreground(colorDim)
	detailKeyStyle = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	detailBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

const (
	minListHeight   = 5
	listChromeLines = 6 // title, help, blank lines and the position footer
)

// =============================================================================
// PackageListModel - Interactive package browser
// =============================================================================

// PackageListModel is the bubbletea model for browsing a package list.
type PackageListModel struct {
	Title    string
	Packages []spk.Package
	Cursor   int
	Height   int
	Offset   int
	Detail   bool
	Width    int
}

// NewPackageListModel creates a new package list model.
func NewPackageListModel(title string, pkgs []spk.Package) PackageListModel {
	return PackageListModel{
		Title:    title,
		Packages: pkgs,
		Height:   15,
	}
}

func (m PackageListModel) Init() tea.Cmd {
	return nil
}

func (m PackageListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.Detail {
				m.Detail = false
				return m, nil
			}
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Packages)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "home", "g":
			m.Cursor, m.Offset = 0, 0
		case "end", "G":
			m.Cursor = len(m.Packages) - 1
			if m.Cursor >= m.Height {
				m.Offset = m.Cursor - m.Height + 1
			}
		case "enter":
			m.Detail = !m.Detail
		}
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height - listChromeLines
		if m.Height < minListHeight {
			m.Height = minListHeight
		}
		if m.Cursor >= m.Offset+m.Height {
			m.Offset = m.Cursor - m.Height + 1
		}
	}
	return m, nil
}

func (m PackageListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ details  q quit"))
	b.WriteString("\n\n")

	if m.Detail && len(m.Packages) > 0 {
		b.WriteString(m.detailView(m.Packages[m.Cursor]))
		return b.String()
	}

	end := m.Offset + m.Height
	if end > len(m.Packages) {
		end = len(m.Packages)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		p := m.Packages[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, p.Name, p.DisplayName, p.Version, truncate(p.Description, maxDescription)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Package", "Name", "Version", "Description").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return tableHeaderStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Packages) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if m.Packages[idx].IsBeta {
				base = base.Foreground(colorYellow)
			}
			if idx == m.Cursor {
				return base.Bold(true).Foreground(colorCyan)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Packages))))

	return b.String()
}

func (m PackageListModel) detailView(p spk.Package) string {
	var lines []string
	add := func(key, value string) {
		if value != "" {
			lines = append(lines, detailKeyStyle.Render(key)+" "+StyleValue.Render(value))
		}
	}
	add("Package", p.Name)
	add("Name", p.DisplayName)
	add("Version", p.Version)
	if p.IsBeta {
		add("Channel", "beta")
	}
	add("Maintainer", p.Maintainer)
	add("Distributor", p.Distributor)
	add("Link", p.Link)
	add("Icon", "/cache/"+p.IconFileName)

	body := strings.Join(lines, "\n")
	if p.Description != "" {
		desc := p.Description
		if m.Width > 8 {
			desc = lipgloss.NewStyle().Width(m.Width - 8).Render(desc)
		}
		body += "\n\n" + desc
	}
	if p.Changelog != "" {
		body += "\n\n" + listDimStyle.Render(p.Changelog)
	}
	return detailBoxStyle.Render(body)
}
