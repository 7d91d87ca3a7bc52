package export

import (
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	topMargin  = 20.0
	leftMargin = 20.0
	indent     = 25.0

	metaLineHeight = 8.0
	listLineHeight = 6.0
	rowHeight      = 8.0
	sectionGap     = 10.0

	// Bottom reserves used by the overflow check.
	textMargin     = 20.0
	rowMargin      = 30.0
	sectionReserve = 50.0
)

// page is a greedy line layout over an fpdf document. It keeps a vertical
// cursor and starts a new page whenever the next block would cross the
// bottom reserve.
type page struct {
	pdf    *fpdf.Fpdf
	y      float64
	width  float64
	height float64
	tr     func(string) string

	// onBreak runs after a page break, before the pending block is written.
	onBreak func()
}

func newPage(pdf *fpdf.Fpdf) *page {
	width, height := pdf.GetPageSize()
	return &page{
		pdf:    pdf,
		y:      topMargin,
		width:  width,
		height: height,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

// ensure breaks the page when need more millimetres would cross the bottom reserve.
func (p *page) ensure(need, reserve float64) {
	if p.y+need > p.height-reserve {
		p.pdf.AddPage()
		p.y = topMargin
		if p.onBreak != nil {
			p.onBreak()
		}
	}
}

func (p *page) font(style string, size float64) {
	p.pdf.SetFont("Helvetica", style, size)
}

func (p *page) text(x float64, s string) {
	p.pdf.Text(x, p.y, p.tr(latin1(s)))
}

func (p *page) centered(s string) {
	s = latin1(s)
	w := p.pdf.GetStringWidth(s)
	p.pdf.Text((p.width-w)/2, p.y, p.tr(s))
}

// line writes one unwrapped line and advances by step.
func (p *page) line(x float64, s string, step, reserve float64) {
	p.ensure(step, reserve)
	p.text(x, s)
	p.y += step
}

// heading writes a bold section title after checking the reserve.
func (p *page) heading(s string, reserve float64) {
	p.ensure(metaLineHeight, reserve)
	p.font("B", 12)
	p.text(leftMargin, s)
	p.y += metaLineHeight
	p.font("", 12)
}

// wrapped splits s to the printable width and writes each line through the
// overflow check. Blank lines in s are kept as paragraph breaks.
func (p *page) wrapped(x float64, s string, reserve float64) {
	for _, paragraph := range strings.Split(latin1(s), "\n") {
		paragraph = strings.TrimRight(paragraph, " \t\r")
		if paragraph == "" {
			p.y += listLineHeight / 2
			continue
		}
		for _, l := range p.pdf.SplitText(paragraph, p.width-40) {
			p.ensure(listLineHeight, reserve)
			p.pdf.Text(x, p.y, p.tr(l))
			p.y += listLineHeight
		}
	}
}

func (p *page) gap() {
	p.y += sectionGap
}

// latin1 replaces runes the core PDF fonts cannot encode.
func latin1(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t':
			return ' '
		case r > 0xFF:
			return '?'
		}
		return r
	}, s)
}
