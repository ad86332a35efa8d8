package main

import (
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

func stdoutIsTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// renderKeyValueTable prints a two-column table, styled when stdout is a
// terminal and plain otherwise.
func renderKeyValueTable(out io.Writer, rows [][2]string) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	if stdoutIsTerminal() {
		t.SetStyle(table.StyleRounded)
	} else {
		style := table.StyleDefault
		style.Options.DrawBorder = false
		style.Options.SeparateColumns = false
		t.SetStyle(style)
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft},
	})
	for _, row := range rows {
		t.AppendRow(table.Row{row[0], row[1]})
	}
	t.Render()
}
