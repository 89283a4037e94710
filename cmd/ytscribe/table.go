package main

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"ytscribe/internal/batch"
)

func renderTable(headers []string, rows [][]string, rightAligned ...int) string {
	if len(headers) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, value := range headers {
		header[i] = value
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	right := make(map[int]bool, len(rightAligned))
	for _, column := range rightAligned {
		right[column] = true
	}
	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := range headers {
		align := text.AlignLeft
		if right[i] {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// renderSummary formats the aggregate batch result: a per-job table followed
// by one tally line.
func renderSummary(summary batch.Summary) string {
	rows := make([][]string, 0, len(summary.Jobs))
	for _, job := range summary.Jobs {
		detail := ""
		switch {
		case job.Error != "":
			detail = job.Error
		case len(job.Files) > 0:
			detail = job.Files[0].Path
			if len(job.Files) > 1 {
				detail = fmt.Sprintf("%s (+%d more)", detail, len(job.Files)-1)
			}
		}
		rows = append(rows, []string{job.SourceRef, string(job.State), detail})
	}
	tableText := renderTable([]string{"Source", "State", "Result"}, rows)

	return fmt.Sprintf("%s\n%d total: %d succeeded, %d cached, %d failed, %d cancelled (%s)",
		tableText, summary.Total, summary.Succeeded, summary.CacheHits,
		summary.Failed, summary.Cancelled, summary.Duration.Round(time.Millisecond))
}
