// Package report loads combo counts and renders them as a text table.
package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/verte-zerg/kero/internal/model"
	"github.com/verte-zerg/kero/internal/store"
)

// EmptyMessage is printed instead of a table when no records match.
const EmptyMessage = "No key records found."

var headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)

// Querier reads combo records.
type Querier interface {
	Query(ctx context.Context, filter model.Filter) ([]model.ComboRecord, error)
	Totals(ctx context.Context, filter model.Filter) (store.Totals, error)
}

// Report contains the records and totals for one filter.
type Report struct {
	Filter  model.Filter
	Records []model.ComboRecord
	Totals  store.Totals
}

// Empty reports whether no records matched.
func (r Report) Empty() bool {
	return len(r.Records) == 0
}

// Build loads records and totals for filter.
func Build(ctx context.Context, q Querier, filter model.Filter) (Report, error) {
	records, err := q.Query(ctx, filter)
	if err != nil {
		return Report{}, err
	}
	totals, err := q.Totals(ctx, filter)
	if err != nil {
		return Report{}, err
	}
	return Report{Filter: filter, Records: records, Totals: totals}, nil
}

// Render writes the boxed Keys/Type/Count table, or EmptyMessage.
func Render(w io.Writer, r Report, useColor bool) error {
	if r.Empty() {
		_, err := fmt.Fprintln(w, EmptyMessage)
		return err
	}
	headers := []string{"Keys", "Type", "Count"}
	rows := make([][]string, 0, len(r.Records))
	for _, rec := range r.Records {
		rows = append(rows, []string{rec.Keys, rec.Kind(), strconv.FormatInt(rec.PressTimes, 10)})
	}
	aligns := []align{alignLeft, alignCenter, alignRight}
	// The type column always fits both labels so the layout is stable.
	minWidths := []int{0, displayWidth("Single"), 0}

	tbl := newBoxTable(headers, rows, aligns, minWidths)
	style := func(s string) string { return s }
	if useColor {
		style = func(s string) string { return headerStyle.Render(s) }
	}
	for _, line := range tbl.lines(style) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// ShouldUseColor reports whether w is a terminal and NO_COLOR is unset.
func ShouldUseColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
