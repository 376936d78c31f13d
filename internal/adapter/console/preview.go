package console

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/guptarohit/asciigraph"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/haninge-digit/zeebe-report/internal/domain"
)

const chartHeight = 8

// Previewer writes a human readable summary of a report period
type Previewer struct {
	out    io.Writer
	header func(a ...interface{}) string
}

// NewPreviewer creates a previewer writing to out
func NewPreviewer(out io.Writer, useColors bool) *Previewer {
	header := fmt.Sprint
	if useColors {
		c := color.New(color.FgCyan, color.Bold)
		c.EnableColor()
		header = c.SprintFunc()
	}
	return &Previewer{out: out, header: header}
}

// Preview prints the header, a process table and, for periods longer than
// one day, a chart of the daily totals.
func (p *Previewer) Preview(period domain.Period, data domain.PeriodData, totals domain.ProcessTotals) error {
	if _, err := fmt.Fprintln(p.out, p.header(period.Header)); err != nil {
		return err
	}

	table := tablewriter.NewWriter(p.out)
	table.Header([]string{"Process", "Antal"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.PerColumn = []tw.Align{tw.AlignLeft, tw.AlignRight}
	})

	var rows [][]string
	for _, row := range totals.Sorted() {
		rows = append(rows, []string{row.Process, strconv.Itoa(row.Count)})
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	table.Footer([]string{"Totalt", strconv.Itoa(totals.Sum())})
	if err := table.Render(); err != nil {
		return err
	}

	dates := period.Dates()
	if len(dates) > 1 {
		sums := data.DailySums(dates)
		series := make([]float64, len(sums))
		for i, s := range sums {
			series[i] = float64(s)
		}
		graph := asciigraph.Plot(series,
			asciigraph.Height(chartHeight),
			asciigraph.Caption(fmt.Sprintf("Startade processer per dag %s – %s", dates[0], dates[len(dates)-1])),
		)
		if _, err := fmt.Fprintln(p.out, graph); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(p.out)
	return err
}
