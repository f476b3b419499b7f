package main

import (
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/zsiec/b25/internal/ingest"
	"github.com/zsiec/b25/internal/pipeline"
)

// renderSummary formats the end-of-run counters of one decode run as a
// metric/value table.
func renderSummary(key string, ps pipeline.Stats, is ingest.IngestStats) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Metric", "Value"})
	tw.AppendRows([]table.Row{
		{"stream", key},
		{"bytes in", ps.BytesRead},
		{"bytes out", ps.BytesWritten},
		{"chunks", ps.Chunks},
		{"failed chunks", ps.FailedChunks},
		{"flushed bytes", ps.FlushBytes},
		{"flush failed", ps.FlushFailed},
		{"reads", is.ReadCount},
		{"elapsed", time.Duration(ps.UptimeMs) * time.Millisecond},
	})
	if is.RemoteAddr != "" {
		tw.AppendRow(table.Row{"remote", is.RemoteAddr})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
