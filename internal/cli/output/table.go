package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

const unresolved = "-"

// RenderRecords writes saved windows as a table.
func RenderRecords(w io.Writer, records []WindowRecord) error {
	table := tablewriter.NewWriter(w)
	table.Header("#", "ID", "X", "Y", "Width", "Height")
	for _, rec := range records {
		if err := table.Append(
			strconv.Itoa(rec.Index),
			orDash(rec.ID),
			strconv.Itoa(rec.X),
			strconv.Itoa(rec.Y),
			strconv.Itoa(rec.Width),
			strconv.Itoa(rec.Height),
		); err != nil {
			return fmt.Errorf("render records: %w", err)
		}
	}
	return table.Render()
}

// RenderLiveWindows writes open windows as a table.
func RenderLiveWindows(w io.Writer, windows []LiveWindow) error {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Type", "Title", "Geometry")
	for _, win := range windows {
		if err := table.Append(
			orDash(win.ID),
			win.Type,
			win.Title,
			fmt.Sprintf("%dx%d%+d%+d", win.Width, win.Height, win.X, win.Y),
		); err != nil {
			return fmt.Errorf("render windows: %w", err)
		}
	}
	return table.Render()
}

func orDash(s string) string {
	if s == "" {
		return unresolved
	}
	return s
}
