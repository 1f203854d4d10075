package report

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

type align int

const (
	alignLeft align = iota
	alignCenter
	alignRight
)

type boxTable struct {
	headers []string
	rows    [][]string
	aligns  []align
	widths  []int
}

func newBoxTable(headers []string, rows [][]string, aligns []align, minWidths []int) boxTable {
	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = displayWidth(header)
		if i < len(minWidths) && minWidths[i] > widths[i] {
			widths[i] = minWidths[i]
		}
	}
	for _, row := range rows {
		for i := range widths {
			if i < len(row) {
				if w := displayWidth(row[i]); w > widths[i] {
					widths[i] = w
				}
			}
		}
	}
	return boxTable{headers: headers, rows: rows, aligns: aligns, widths: widths}
}

// lines renders divider, header, divider, rows, divider. Header cells are
// passed through style after padding so escape codes do not skew widths.
func (t boxTable) lines(style func(string) string) []string {
	divider := t.divider()
	out := make([]string, 0, len(t.rows)+4)
	out = append(out, divider)

	headerCells := make([]string, len(t.headers))
	for i, header := range t.headers {
		headerCells[i] = style(padCell(header, t.widths[i], alignCenter))
	}
	out = append(out, joinCells(headerCells), divider)

	for _, row := range t.rows {
		cells := make([]string, len(t.widths))
		for i := range t.widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			a := alignLeft
			if i < len(t.aligns) {
				a = t.aligns[i]
			}
			cells[i] = padCell(cell, t.widths[i], a)
		}
		out = append(out, joinCells(cells))
	}
	return append(out, divider)
}

func (t boxTable) divider() string {
	parts := make([]string, len(t.widths))
	for i, w := range t.widths {
		parts[i] = strings.Repeat("-", w)
	}
	return "+-" + strings.Join(parts, "-+-") + "-+"
}

func joinCells(cells []string) string {
	return "| " + strings.Join(cells, " | ") + " |"
}

func padCell(value string, width int, a align) string {
	padding := width - displayWidth(value)
	if padding <= 0 {
		return value
	}
	switch a {
	case alignRight:
		return strings.Repeat(" ", padding) + value
	case alignCenter:
		left := padding / 2
		return strings.Repeat(" ", left) + value + strings.Repeat(" ", padding-left)
	default:
		return value + strings.Repeat(" ", padding)
	}
}

func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}
