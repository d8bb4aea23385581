package client

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

var commands = [][]string{
	{"/register <name>", "claim a username (letter first, then letters or digits)"},
	{"<text>", "send to everyone"},
	{"<name>: <text>", "send privately to one user"},
	{"<a>, <b>: <text>", "send privately to several users"},
	{"/quit", "release your username and leave"},
	{"/help", "show this table"},
}

// WriteHelp prints the command table to w.
func WriteHelp(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Command", "Effect"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.AppendBulk(commands)
	table.Render()
}
