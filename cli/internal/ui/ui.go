// Package ui renders CLI output.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"github.com/satishbabariya/sqlkit/runtime/types"
)

var (
	// Colors
	PrimaryColor   = lipgloss.Color("#00D9FF")
	SuccessColor   = lipgloss.Color("#00FF88")
	WarningColor   = lipgloss.Color("#FFB800")
	ErrorColor     = lipgloss.Color("#FF4444")
	SecondaryColor = lipgloss.Color("#6C757D")

	// Styles
	SuccessStyle   = lipgloss.NewStyle().Foreground(SuccessColor).Bold(true)
	ErrorStyle     = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
	WarningStyle   = lipgloss.NewStyle().Foreground(WarningColor).Bold(true)
	InfoStyle      = lipgloss.NewStyle().Foreground(PrimaryColor)
	SecondaryStyle = lipgloss.NewStyle().Foreground(SecondaryColor)

	nullColor = color.New(color.FgHiBlack, color.Italic)
)

// Output is where everything but errors is printed
var Output io.Writer = os.Stdout

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...interface{}) {
	fmt.Fprintln(Output, SuccessStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

// PrintError prints an error message
func PrintError(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, ErrorStyle.Render("✗ "+fmt.Sprintf(format, args...)))
}

// PrintWarning prints a warning message
func PrintWarning(format string, args ...interface{}) {
	fmt.Fprintln(Output, WarningStyle.Render("⚠ "+fmt.Sprintf(format, args...)))
}

// PrintInfo prints an info message
func PrintInfo(format string, args ...interface{}) {
	fmt.Fprintln(Output, InfoStyle.Render("ℹ "+fmt.Sprintf(format, args...)))
}

// PrintTable prints a table using pterm
func PrintTable(headers []string, rows [][]string) error {
	data := pterm.TableData{headers}
	data = append(data, rows...)
	return pterm.DefaultTable.WithHasHeader().WithWriter(Output).WithData(data).Render()
}

// PrintRows prints result rows as a table, one column per result column
func PrintRows(rows []types.Row) error {
	if len(rows) == 0 {
		fmt.Fprintln(Output, SecondaryStyle.Render("(no rows)"))
		return nil
	}
	headers, cells := RowCells(rows)
	for _, line := range cells {
		for i, cell := range line {
			if cell == "NULL" {
				line[i] = nullColor.Sprint(cell)
			}
		}
	}
	if err := PrintTable(headers, cells); err != nil {
		return err
	}
	fmt.Fprintln(Output, SecondaryStyle.Render(fmt.Sprintf("(%d rows)", len(rows))))
	return nil
}

// RowCells flattens rows into table cells, taking headers from the first row
func RowCells(rows []types.Row) ([]string, [][]string) {
	if len(rows) == 0 {
		return nil, nil
	}
	headers := rows[0].Names()
	cells := make([][]string, len(rows))
	for i, row := range rows {
		line := make([]string, len(row.Columns))
		for j, col := range row.Columns {
			line[j] = col.Value.String()
		}
		cells[i] = line
	}
	return headers, cells
}

// PrintMarkdown renders markdown content
func PrintMarkdown(content string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return err
	}

	out, err := r.Render(content)
	if err != nil {
		return err
	}

	fmt.Fprint(Output, out)
	return nil
}

// PrintDiff prints the lines that differ between two texts
func PrintDiff(before, after string) {
	oldLines := strings.Split(before, "\n")
	newLines := strings.Split(after, "\n")

	for i := 0; i < len(oldLines) || i < len(newLines); i++ {
		switch {
		case i < len(oldLines) && i < len(newLines) && oldLines[i] == newLines[i]:
			fmt.Fprintln(Output, "  "+oldLines[i])
		case i < len(oldLines) && i < len(newLines):
			fmt.Fprintln(Output, ErrorStyle.Render("- "+oldLines[i]))
			fmt.Fprintln(Output, SuccessStyle.Render("+ "+newLines[i]))
		case i < len(oldLines):
			fmt.Fprintln(Output, ErrorStyle.Render("- "+oldLines[i]))
		default:
			fmt.Fprintln(Output, SuccessStyle.Render("+ "+newLines[i]))
		}
	}
}

// Confirm asks a yes/no question, defaulting to no
func Confirm(message string) (bool, error) {
	ok := false
	prompt := &survey.Confirm{Message: message, Default: false}
	if err := survey.AskOne(prompt, &ok); err != nil {
		return false, err
	}
	return ok, nil
}
