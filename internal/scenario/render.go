package scenario

import (
	"strings"
	"unicode/utf8"
)

// Render renders a scenario as three labeled blocks. The parallel block is
// a table with one column per thread.
//
//	Execution scenario (init part):
//	[push(1)]
//	Execution scenario (parallel part):
//	| push(2) | pop() |
//	| pop()   |       |
//	Execution scenario (post part):
//	[pop()]
func Render(s *Scenario) string {
	return render(s, false)
}

// RenderVerbose is Render with suspendable actors marked " [suspendable]".
func RenderVerbose(s *Scenario) string {
	return render(s, true)
}

func render(s *Scenario, verbose bool) string {
	columns := make([][]string, len(s.Parallel))
	for t, thread := range s.Parallel {
		columns[t] = actorStrings(thread, verbose)
	}
	return RenderBlocks(actorStrings(s.Init, verbose), columns, actorStrings(s.Post, verbose))
}

// RenderBlocks lays out pre-rendered cells in the scenario layout. It is
// shared with result rendering, which puts "actor: outcome" in each cell.
func RenderBlocks(init []string, parallel [][]string, post []string) string {
	var b strings.Builder
	b.WriteString("Execution scenario (init part):\n")
	b.WriteString("[" + strings.Join(init, ", ") + "]\n")
	b.WriteString("Execution scenario (parallel part):\n")
	if table := PrintInColumns(parallel); table != "" {
		b.WriteString(table)
		b.WriteString("\n")
	}
	b.WriteString("Execution scenario (post part):\n")
	b.WriteString("[" + strings.Join(post, ", ") + "]")
	return b.String()
}

// PrintInColumns renders one column per group and one row per position.
// Each cell is padded to its column's widest entry; a group shorter than
// the tallest one renders blank padded cells.
func PrintInColumns(groups [][]string) string {
	rows := 0
	widths := make([]int, len(groups))
	for c, group := range groups {
		rows = max(rows, len(group))
		for _, cell := range group {
			widths[c] = max(widths[c], utf8.RuneCountInString(cell))
		}
	}
	if len(groups) == 0 {
		return ""
	}

	lines := make([]string, rows)
	for r := 0; r < rows; r++ {
		var b strings.Builder
		b.WriteString("|")
		for c, group := range groups {
			cell := ""
			if r < len(group) {
				cell = group[r]
			}
			b.WriteString(" ")
			b.WriteString(cell)
			b.WriteString(strings.Repeat(" ", widths[c]-utf8.RuneCountInString(cell)))
			b.WriteString(" |")
		}
		lines[r] = b.String()
	}
	return strings.Join(lines, "\n")
}

func actorStrings(actors []Actor, verbose bool) []string {
	out := make([]string, len(actors))
	for i, a := range actors {
		out[i] = a.String()
		if verbose && a.Suspendable {
			out[i] += " [suspendable]"
		}
	}
	return out
}
