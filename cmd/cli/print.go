package main

import (
	"fmt"
	"io"
	"strings"
	"time"
)

type eventRow struct {
	time time.Time
	kind string
	id   string
	data string
}

func printEventTable(w io.Writer, rows []eventRow) {
	timeW, kindW, idW := len("TIME"), len("EVENT"), len("PROCESS")
	for _, row := range rows {
		timeW = max(timeW, len(row.time.Format(time.RFC3339)))
		kindW = max(kindW, len(row.kind))
		idW = max(idW, len(row.id))
	}

	sep := fmt.Sprintf("+-%s-+-%s-+-%s-+\n", strings.Repeat("-", timeW), strings.Repeat("-", kindW), strings.Repeat("-", idW))
	fmt.Fprint(w, sep)
	fmt.Fprintf(w, "| %s | %s | %s | %s\n", pad("TIME", timeW), pad("EVENT", kindW), pad("PROCESS", idW), "DATA")
	fmt.Fprint(w, sep)
	for _, row := range rows {
		fmt.Fprintf(w, "| %s | %s | %s | %s\n", pad(row.time.Format(time.RFC3339), timeW), pad(row.kind, kindW), pad(row.id, idW), row.data)
	}
	fmt.Fprint(w, sep)
}

func pad(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}
