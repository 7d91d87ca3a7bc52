// Package export renders meeting records as paginated PDF documents.
package export

import (
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/microcosm-cc/bluemonday"

	"github.com/charlesng35/notula/internal/models"
)

const (
	KindMinutes    = "minutes"
	KindAttendance = "attendance"

	displayDate = "02 January 2006"
	shortDate   = "02 Jan 2006"
)

var (
	unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9]`)
	blockBreak     = regexp.MustCompile(`(?i)<br\s*/?>|</p>|</li>|</h[1-6]>|</div>`)
	stripTags      = bluemonday.StrictPolicy()

	attendanceColumns = []struct {
		label string
		x     float64
	}{
		{"No.", 20},
		{"Name", 40},
		{"Email", 100},
		{"Status", 150},
		{"Check-in", 180},
	}
)

// MinutesInput is everything printed in a full meeting record.
type MinutesInput struct {
	Meeting    *models.Meeting
	Attendance []models.Attendance
	// Minutes is optional; without it only the meeting and rosters are printed.
	Minutes *models.MeetingMinutes
}

// Result describes a rendered document.
type Result struct {
	Filename string
	Pages    int
	// HeaderPages lists the pages on which the table header was drawn.
	HeaderPages []int
}

// Option configures a render.
type Option func(*options)

type options struct {
	now      func() time.Time
	compress bool
	location *time.Location
}

// WithClock fixes the "printed on" timestamp.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithoutCompression writes uncompressed page streams.
func WithoutCompression() Option {
	return func(o *options) {
		o.compress = false
	}
}

// WithLocation renders dates and check-in times in loc.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.location = loc
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, compress: true, location: time.UTC}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Filename derives the download name: prefix, title with every character
// outside [A-Za-z0-9] replaced by "_", and the meeting date.
func Filename(prefix string, meeting *models.Meeting) string {
	return fmt.Sprintf("%s_%s_%s.pdf", prefix, unsafeFilename.ReplaceAllString(meeting.Title, "_"), meeting.Date.Format("2006-01-02"))
}

// RenderMinutes writes the full meeting record to w.
func RenderMinutes(w io.Writer, input MinutesInput, opts ...Option) (Result, error) {
	if input.Meeting == nil {
		return Result{}, fmt.Errorf("export: meeting is required")
	}
	o := buildOptions(opts)
	meeting := input.Meeting

	pdf := newDocument(o, "Meeting Minutes: "+meeting.Title)
	p := newPage(pdf)

	p.font("B", 20)
	p.centered("MEETING MINUTES")
	p.y += 20

	p.font("", 12)
	organizer := ""
	if meeting.Organizer != nil {
		organizer = meeting.Organizer.Name
	}
	for _, meta := range append(meetingMeta(meeting, o.location), "Organizer: "+organizer) {
		p.line(leftMargin, meta, metaLineHeight, textMargin)
	}
	p.gap()

	if len(meeting.Attendees) > 0 {
		p.heading("ATTENDEES:", rowMargin)
		for i, attendee := range meeting.Attendees {
			p.line(indent, fmt.Sprintf("%d. %s (%s)", i+1, attendee.Name, attendee.Email), listLineHeight, rowMargin)
		}
		p.gap()
	}

	if len(input.Attendance) > 0 {
		p.heading("ATTENDANCE:", rowMargin)
		for i, record := range input.Attendance {
			p.line(indent, fmt.Sprintf("%d. %s - %s", i+1, record.Participant.Name, statusLabel(record.Status)), listLineHeight, rowMargin)
		}
		p.gap()
	}

	if minutes := input.Minutes; minutes != nil {
		p.ensure(0, sectionReserve)

		p.heading("CONTENT:", textMargin)
		p.wrapped(leftMargin, PlainText(minutes.Content), textMargin)
		p.gap()

		if strings.TrimSpace(minutes.Summary) != "" {
			p.heading("SUMMARY:", rowMargin)
			p.wrapped(leftMargin, minutes.Summary, textMargin)
			p.gap()
		}

		if len(minutes.Decisions) > 0 {
			p.heading("DECISIONS:", rowMargin)
			for i, decision := range minutes.Decisions {
				p.wrapped(indent, fmt.Sprintf("%d. %s (Impact: %s)", i+1, decision.Description, decision.Impact), textMargin)
			}
			p.gap()
		}

		if len(minutes.KeyPoints) > 0 {
			p.heading("KEY POINTS:", rowMargin)
			for _, point := range minutes.KeyPoints {
				p.wrapped(indent, "- "+point, textMargin)
			}
			p.gap()
		}

		if len(minutes.ActionItems) > 0 {
			p.heading("ACTION ITEMS:", rowMargin)
			for i, item := range minutes.ActionItems {
				p.wrapped(indent, fmt.Sprintf("%d. %s (Assignee: %s, Due: %s)",
					i+1, item.Description, item.AssignedTo.Name, item.DueDate.In(o.location).Format(shortDate)), textMargin)
			}
		}
	}

	return finish(pdf, w, Result{Filename: Filename("Minutes", meeting)})
}

// RenderAttendance writes the attendance roster of a meeting with a status tally.
// The table header is repeated on every page the table continues onto.
func RenderAttendance(w io.Writer, meeting *models.Meeting, records []models.Attendance, opts ...Option) (Result, error) {
	if meeting == nil {
		return Result{}, fmt.Errorf("export: meeting is required")
	}
	o := buildOptions(opts)

	pdf := newDocument(o, "Attendance: "+meeting.Title)
	p := newPage(pdf)
	result := Result{Filename: Filename("Attendance", meeting)}

	p.font("B", 20)
	p.centered("ATTENDANCE LIST")
	p.y += 20

	p.font("", 12)
	for _, meta := range meetingMeta(meeting, o.location) {
		p.line(leftMargin, meta, metaLineHeight, textMargin)
	}
	p.y += 15

	header := func() {
		p.font("B", 12)
		for _, col := range attendanceColumns {
			p.text(col.x, col.label)
		}
		p.pdf.Line(leftMargin, p.y+2, p.width-20, p.y+2)
		p.y += sectionGap
		p.font("", 12)
		result.HeaderPages = append(result.HeaderPages, p.pdf.PageNo())
	}
	header()

	p.onBreak = header
	tally := map[string]int{}
	for i, record := range records {
		tally[record.Status]++

		p.ensure(rowHeight, rowMargin)
		checkIn := "-"
		if record.CheckInTime != nil {
			checkIn = record.CheckInTime.In(o.location).Format("15:04")
		}
		cells := []string{
			fmt.Sprintf("%d.", i+1),
			fitWidth(p, record.Participant.Name, 58),
			fitWidth(p, record.Participant.Email, 48),
			statusLabel(record.Status),
			checkIn,
		}
		for c, col := range attendanceColumns {
			p.text(col.x, cells[c])
		}
		p.y += rowHeight
	}
	p.onBreak = nil

	p.gap()
	p.ensure(0, sectionReserve)
	p.heading("SUMMARY:", textMargin)
	summary := []string{
		fmt.Sprintf("Total Participants: %d", len(records)),
		fmt.Sprintf("Present: %d", tally[models.AttendancePresent]),
		fmt.Sprintf("Absent: %d", tally[models.AttendanceAbsent]),
		fmt.Sprintf("Late: %d", tally[models.AttendanceLate]),
		fmt.Sprintf("Excused: %d", tally[models.AttendanceExcused]),
	}
	for _, line := range summary {
		p.line(leftMargin, line, listLineHeight, textMargin)
	}

	return finish(pdf, w, result)
}

// PlainText turns sanitised rich text into printable lines.
func PlainText(content string) string {
	content = blockBreak.ReplaceAllString(content, "\n")
	text := html.UnescapeString(stripTags.Sanitize(content))
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.Join(strings.Fields(lines[i]), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func newDocument(o options, title string) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(o.compress)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(title, true)
	pdf.SetCreator("notula", false)

	printed := "Printed on: " + o.now().In(o.location).Format(displayDate)
	_, height := pdf.GetPageSize()
	pdf.SetFooterFunc(func() {
		pdf.SetFont("Helvetica", "", 10)
		pdf.Text(leftMargin, height-10, printed)
	})

	pdf.AddPage()
	return pdf
}

func finish(pdf *fpdf.Fpdf, w io.Writer, result Result) (Result, error) {
	result.Pages = pdf.PageCount()
	if err := pdf.Output(w); err != nil {
		return result, fmt.Errorf("export: write pdf: %w", err)
	}
	return result, nil
}

func meetingMeta(meeting *models.Meeting, loc *time.Location) []string {
	return []string{
		"Title: " + meeting.Title,
		"Date: " + meeting.Date.In(loc).Format(displayDate),
		fmt.Sprintf("Time: %s - %s", meeting.StartTime, meeting.EndTime),
		"Location: " + meeting.Location,
	}
}

func statusLabel(status string) string {
	switch status {
	case models.AttendancePresent:
		return "Present"
	case models.AttendanceAbsent:
		return "Absent"
	case models.AttendanceLate:
		return "Late"
	case models.AttendanceExcused:
		return "Excused"
	}
	return status
}

// fitWidth shortens s with an ellipsis so it fits in width millimetres.
func fitWidth(p *page, s string, width float64) string {
	s = latin1(s)
	if p.pdf.GetStringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && p.pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
