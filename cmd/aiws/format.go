package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"github.com/yoavf/as-i-was-saying/model"
	"golang.org/x/term"
)

const displayIDWidth = 8

// tsvHeader is the first line of script-friendly listings.
const tsvHeader = "backend\ttimestamp\tsize_bytes\tsize_display\tmatch_count\tsession_id\tpath\tsummary"

// formatSize renders a byte count as fixed-width 7-character SI text
// (e.g. "999.9KB").
func formatSize(sizeBytes int64) string {
	value := float64(sizeBytes) / 1000.0
	units := []string{"KB", "MB", "GB", "TB"}
	unit := 0

	// Move up a unit before rounding would print 1000.0.
	for unit < len(units)-1 && value >= 999.95 {
		value /= 1000.0
		unit++
	}
	return fmt.Sprintf("%5.1f%s", value, units[unit])
}

// displayID returns the first eight characters of a session ID, padded.
func displayID(sessionID string) string {
	return runewidth.FillRight(runewidth.Truncate(sessionID, displayIDWidth, ""), displayIDWidth)
}

// formatRelativeTime converts a timestamp to relative time (e.g., "2 hours ago", "yesterday")
func formatRelativeTime(t, now time.Time) string {
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		if mins := int(diff.Minutes()); mins != 1 {
			return fmt.Sprintf("%d mins ago", mins)
		}
		return "1 min ago"
	case diff < 24*time.Hour:
		if hours := int(diff.Hours()); hours != 1 {
			return fmt.Sprintf("%d hours ago", hours)
		}
		return "1 hour ago"
	case diff < 48*time.Hour:
		return "yesterday"
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}

// truncateString truncates a string to maxLen display columns with ellipsis at the end
func truncateString(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	if runewidth.StringWidth(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return runewidth.Truncate(s, maxLen, "")
	}
	return runewidth.Truncate(s, maxLen, "...")
}

// contextColumns returns the two context snippets shown for a session:
// latest and earliest user text, or latest text and match context when
// listing query results.
func contextColumns(d model.SessionDescriptor, queryMode bool) (primary, secondary string) {
	latest := d.LatestSummary
	if queryMode {
		secondary = d.MatchContext
		if secondary == "" {
			secondary = latest
		}
		return latest, secondary
	}
	earliest := d.EarliestSummary
	if earliest == "" {
		earliest = latest
	}
	return latest, earliest
}

// formatContextColumn truncates and pads text to exactly width columns.
func formatContextColumn(text string, width int) string {
	return runewidth.FillRight(truncateString(text, width), width)
}

// contextWidth splits the space left of a terminal row between the two
// context columns.
func contextWidth(termWidth int) int {
	// backend(3) + time(12) + size(7) + hits(4) + id(8) + separators(12) = 46
	const fixedWidth = 46
	width := (termWidth - fixedWidth) / 2
	if width < 20 {
		return 20
	}
	if width > 80 {
		return 80
	}
	return width
}

// formatTableHeader formats the table header row
func formatTableHeader(width int, queryMode bool) string {
	secondary := "EARLIEST"
	if queryMode {
		secondary = "MATCH"
	}
	return fmt.Sprintf("%-3s %-12s %7s %4s %-8s  %s | %s", "BKD", "TIME", "SIZE", "HITS",
		"ID", formatContextColumn("LATEST", width), secondary)
}

// formatSessionRow formats a session as a table row
func formatSessionRow(d model.SessionDescriptor, width int, queryMode bool, now time.Time) string {
	hits := ""
	if queryMode {
		hits = fmt.Sprintf("%d", d.MatchCount)
	}
	primary, secondary := contextColumns(d, queryMode)
	return fmt.Sprintf("%-3s %-12s %7s %4s %s  %s | %s",
		d.Backend.Abbrev(),
		truncateString(formatRelativeTime(d.ModTime, now), 12),
		formatSize(d.Size),
		hits,
		displayID(d.SessionID),
		formatContextColumn(primary, width),
		truncateString(secondary, width),
	)
}

func writeTable(w io.Writer, sessions []model.SessionDescriptor, termWidth int, queryMode bool, now time.Time) {
	width := contextWidth(termWidth)
	fmt.Fprintln(w, formatTableHeader(width, queryMode))
	for _, d := range sessions {
		fmt.Fprintln(w, strings.TrimRight(formatSessionRow(d, width, queryMode, now), " "))
	}
}

func writeTSV(w io.Writer, sessions []model.SessionDescriptor) {
	fmt.Fprintln(w, tsvHeader)
	for _, d := range sessions {
		summary := strings.NewReplacer("\t", " ", "\n", " ").Replace(d.LatestSummary)
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\t%s\t%s\t%s\n",
			d.Backend,
			d.ModTime.Local().Format("2006-01-02 15:04:05"),
			d.Size,
			formatSize(d.Size),
			d.MatchCount,
			strings.TrimSpace(displayID(d.SessionID)),
			d.Path,
			summary,
		)
	}
}

// getTerminalWidth returns the terminal width, defaulting to 80 if unable to determine
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < 40 {
		return 80 // Default width
	}
	return width
}

func isTerminal(file *os.File) bool {
	if file == nil {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
