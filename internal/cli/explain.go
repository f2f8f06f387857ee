package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/brandonbloom/wasirun/internal/preopen"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

var (
	colorPlanHeader = color.New(color.FgHiBlack, color.Bold)
	colorPlanFlag   = color.New(color.FgBlue)
	colorPlanForced = color.New(color.FgGreen, color.Bold)
	colorPlanEnv    = color.New(color.FgMagenta)
)

// printPlan renders the preopen table followed by the runtime command line.
func printPlan(w io.Writer, program string, plan *preopen.Plan, useColor bool) error {
	paint := func(c *color.Color, s string) string {
		if !useColor {
			return s
		}
		return c.Sprint(s)
	}

	fmt.Fprintf(w, "workdir %s\n", plan.WorkDir)
	fmt.Fprintf(w, "root    %s\n\n", plan.Root)

	rows := [][]string{{"FLAG", "GUEST", "HOST", "ORIGIN"}}
	for _, e := range plan.Entries {
		flag := preopen.DirFlag
		guest := e.Path
		if e.Kind == preopen.KindEnv {
			flag = preopen.EnvFlag
			guest = e.Name + "=" + e.Path
		}
		rows = append(rows, []string{flag, guest, e.Host, e.Origin})
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if n := runewidth.StringWidth(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}

	for i, row := range rows {
		cells := make([]string, len(row))
		for j, cell := range row {
			if j < len(row)-1 {
				cell = runewidth.FillRight(cell, widths[j])
			}
			cells[j] = cell
		}
		line := strings.Join(cells, "  ")
		switch {
		case i == 0:
			line = paint(colorPlanHeader, line)
		case row[3] == preopen.OriginForced:
			line = paint(colorPlanForced, line)
		case row[0] == preopen.EnvFlag:
			line = paint(colorPlanEnv, line)
		default:
			cells[0] = paint(colorPlanFlag, cells[0])
			line = strings.Join(cells, "  ")
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}

	quoted := []string{shellQuote(program)}
	for _, arg := range plan.Args() {
		quoted = append(quoted, shellQuote(arg))
	}
	_, err := fmt.Fprintf(w, "\n%s\n", strings.Join(quoted, " "))
	return err
}
