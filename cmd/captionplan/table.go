package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"caption-plan-go/internal/aggregator"
	"caption-plan-go/internal/types"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func seconds(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func segmentTable(segments []types.Segment) string {
	rows := make([][]string, 0, len(segments))
	for i, s := range segments {
		rows = append(rows, []string{
			fmt.Sprint(i + 1),
			seconds(s.Start),
			seconds(s.End),
			fmt.Sprint(len(strings.Fields(s.Text))),
			s.Text,
		})
	}
	return renderTable(
		[]string{"#", "Start", "End", "Words", "Text"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignLeft},
	)
}

func planTable(plan types.EditPlan) string {
	rows := make([][]string, 0, len(plan.Segments))
	for i, s := range plan.Segments {
		flags := []string{}
		if s.IsTitle {
			flags = append(flags, "title")
		}
		if s.IsSceneChange {
			flags = append(flags, "scene")
		}
		rows = append(rows, []string{
			fmt.Sprint(i + 1),
			seconds(s.Start),
			seconds(s.End),
			s.Text,
			strings.Join(s.Highlight, ", "),
			string(s.CaptionAnimation),
			string(s.VideoAnimation),
			strings.Join(flags, ","),
		})
	}
	return renderTable(
		[]string{"#", "Start", "End", "Text", "Highlight", "Caption", "Video", "Flags"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight},
	)
}

func summaryLine(s aggregator.PlanSummary) string {
	return fmt.Sprintf("%d segments, %d titles, %d scene changes, %d highlighted, %.2fs",
		s.Segments, s.Titles, s.SceneChanges, s.Highlighted, s.SpanSeconds)
}
