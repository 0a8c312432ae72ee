package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pders01/bytenews/internal/feed"
)

// StatusKind indicates severity for status lines.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarn
	StatusError
)

// Status writes one styled status line.
func Status(w io.Writer, kind StatusKind, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	switch kind {
	case StatusSuccess:
		msg = StatusSuccessStyle.Render("✓ " + msg)
	case StatusWarn:
		msg = StatusWarnStyle.Render("! " + msg)
	case StatusError:
		msg = StatusErrorStyle.Render("✗ " + msg)
	default:
		msg = StatusInfoStyle.Render(msg)
	}
	fmt.Fprintln(w, msg)
}

// ScrapeReport writes one line per source and a total.
func ScrapeReport(w io.Writer, report *feed.Report) {
	fmt.Fprintln(w, HeaderStyle.Render("Scrape "+report.RunID))

	width := 0
	for _, s := range report.Sources {
		if n := len([]rune(s.Source)); n > width {
			width = n
		}
	}

	for _, s := range report.Sources {
		name := s.Source + strings.Repeat(" ", width-len([]rune(s.Source)))
		if s.Err != nil {
			Status(w, StatusError, "%s  %s", name, truncateEnd(s.Err.Error(), 80))
			continue
		}
		kind := StatusInfo
		if s.Added > 0 {
			kind = StatusSuccess
		}
		Status(w, kind, "%s  %d fetched, %d new", name, s.Fetched, s.Added)
	}

	elapsed := report.Finished.Sub(report.Started).Round(time.Millisecond)
	fmt.Fprintln(w, TimeStyle.Render(fmt.Sprintf("%d new articles from %d sources (%d failed) in %s",
		report.Added, len(report.Sources), report.Failed(), elapsed)))
}
