package symtab

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

var header = [4]string{"NAME", "TYPE", "VALUE", "LENGTH"}

const columnSeparator = " | "

// Print writes the table with columns sized to their widest cell. LENGTH is
// right-aligned, everything else left-aligned.
func (st *Table) Print(out io.Writer) {
	rows := [][4]string{header}
	for _, e := range st.Entries() {
		rows = append(rows, [4]string{e.Name, e.Type.String(), e.Value, e.Length})
	}

	var widths [4]int
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	for i, row := range rows {
		fmt.Fprintf(out, "%s%s%s%s%s%s%s\n",
			runewidth.FillRight(row[0], widths[0]), columnSeparator,
			runewidth.FillRight(row[1], widths[1]), columnSeparator,
			runewidth.FillRight(row[2], widths[2]), columnSeparator,
			runewidth.FillLeft(row[3], widths[3]))
		if i == 0 {
			fmt.Fprintf(out, "%s%s%s%s%s%s%s\n",
				strings.Repeat("-", widths[0]), columnSeparator,
				strings.Repeat("-", widths[1]), columnSeparator,
				strings.Repeat("-", widths[2]), columnSeparator,
				strings.Repeat("-", widths[3]))
		}
	}
}

func (st *Table) String() string {
	var sb strings.Builder
	st.Print(&sb)
	return sb.String()
}
