package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/zrezke/rerun/pkg/components"
	"github.com/zrezke/rerun/pkg/logmsg"
)

// renderRecord prints one record batch as a bordered text table, headed by
// the entity path and timepoint it was logged at.
func renderRecord(out io.Writer, path logmsg.EntityPath, tp logmsg.TimePoint, rec arrow.Record) error {
	header := table.Row{"row"}
	for _, f := range rec.Schema().Fields() {
		name := f.Name
		if component := components.ComponentName(f); component != "" {
			name = fmt.Sprintf("%s (%s)", f.Name, component)
		}
		header = append(header, name)
	}

	rows := make([]table.Row, 0, rec.NumRows())
	for i := 0; i < int(rec.NumRows()); i++ {
		row := table.Row{i}
		for _, col := range rec.Columns() {
			row = append(row, col.ValueStr(i))
		}
		rows = append(rows, row)
	}

	t := table.NewWriter()
	t.AppendHeader(header)
	t.AppendRows(rows)
	t.AppendSeparator()
	t.SetStyle(table.StyleLight)
	t.Style().Format = table.FormatOptions{
		Footer: text.FormatDefault,
		Header: text.FormatDefault,
		Row:    text.FormatDefault,
	}
	t.Style().Options.DrawBorder = false

	_, err := fmt.Fprintf(out, "%s %s\n%s\n", path, formatTimePoint(tp), t.Render())
	return err
}

// formatTimePoint renders a timepoint as "[frame=7 log_time=...]", sorted by
// timeline name. Time timelines print as RFC 3339 timestamps.
func formatTimePoint(tp logmsg.TimePoint) string {
	if len(tp) == 0 {
		return "[]"
	}

	parts := make([]string, 0, len(tp))
	for timeline, value := range tp {
		switch timeline.Type {
		case logmsg.TimeTypeTime:
			at := time.Unix(0, value).UTC()
			parts = append(parts, fmt.Sprintf("%s=%s", timeline.Name, at.Format(time.RFC3339Nano)))
		default:
			parts = append(parts, fmt.Sprintf("%s=%d", timeline.Name, value))
		}
	}
	sort.Strings(parts)
	return "[" + strings.Join(parts, " ") + "]"
}
