package cli

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/simheat/pkg/colormap"
)

// swatchWidth is the number of samples shown per colour map.
const swatchWidth = 24

// colormapsCommand creates the colormaps command.
func (c *CLI) colormapsCommand() *cobra.Command {
	var pick bool

	cmd := &cobra.Command{
		Use:   "colormaps",
		Short: "List the registered colour maps",
		Long: `List the registered colour maps with a preview swatch.

With --pick, choose one interactively; the chosen name is printed to stdout:

  simheat render ani.tab --cmap "$(simheat colormaps --pick)"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pick {
				return runPicker(cmd.OutOrStdout())
			}
			fmt.Fprintln(cmd.OutOrStdout(), colormapTable(colormap.Names(), -1))
			return nil
		},
	}
	cmd.Flags().BoolVar(&pick, "pick", false, "choose a colour map interactively")
	return cmd
}

// colormapTable renders names with swatches; the row at cursor is
// highlighted. A negative cursor highlights nothing.
func colormapTable(names []string, cursor int) string {
	rows := make([][]string, len(names))
	for i, name := range names {
		mark := ""
		if name == colormap.DefaultName {
			mark = "default"
		}
		rows[i] = []string{name, swatch(name, swatchWidth), mark}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Name", "Preview", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 1:
				return lipgloss.NewStyle()
			case row == cursor:
				return listSelectedStyle
			case col == 2:
				return listDimStyle
			}
			return listNormalStyle
		}).
		Render()
}

// swatch renders n samples of the named colour map as coloured cells.
func swatch(name string, n int) string {
	cmap, err := colormap.Get(name)
	if err != nil {
		return ""
	}
	var b strings.Builder
	for _, c := range cmap.Palette(n).Colors() {
		b.WriteString(lipgloss.NewStyle().Background(lipgloss.Color(hexColor(c))).Render(" "))
	}
	return b.String()
}

func hexColor(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
}

func runPicker(stdout io.Writer) error {
	model, err := tea.NewProgram(newColormapPicker(colormap.Names()), tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		return fmt.Errorf("colormap picker: %w", err)
	}
	if sel := model.(colormapPicker).Selected; sel != "" {
		fmt.Fprintln(stdout, sel)
	}
	return nil
}
