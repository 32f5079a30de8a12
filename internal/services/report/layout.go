package report

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// A4 portrait geometry in millimetres
const (
	PageWidth    = 210.0
	PageHeight   = 297.0
	Margin       = 15.0
	ContentWidth = PageWidth - 2*Margin
	LineHeight   = 7.0
	FooterOffset = 10.0
)

// Document wraps fpdf with an explicit vertical cursor. Every block checks
// EnsureSpace before writing, so page breaks are never left to fpdf.
type Document struct {
	pdf        *fpdf.Fpdf
	tr         func(string) string
	y          float64
	breaks     int
	onNewPage  func(d *Document)
	imageCount int
}

// NewDocument creates a single-page A4 document with the cursor at the top margin
func NewDocument() *Document {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(Margin, Margin, Margin)
	pdf.SetAutoPageBreak(false, Margin)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 11)

	return &Document{
		pdf: pdf,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
		y:   Margin,
	}
}

// Y returns the cursor position
func (d *Document) Y() float64 {
	return d.y
}

// SetY moves the cursor
func (d *Document) SetY(y float64) {
	d.y = y
}

// Advance moves the cursor down by h
func (d *Document) Advance(h float64) {
	d.y += h
}

// Remaining is the printable height left below the cursor
func (d *Document) Remaining() float64 {
	return PageHeight - Margin - d.y
}

// OnNewPage registers a hook run after every page added by EnsureSpace
func (d *Document) OnNewPage(fn func(d *Document)) {
	d.onNewPage = fn
}

// EnsureSpace starts a new page when a block of height h does not fit below
// the cursor. Reports whether a page was added.
func (d *Document) EnsureSpace(h float64) bool {
	if h <= d.Remaining() {
		return false
	}
	d.NewPage()
	if d.onNewPage != nil {
		d.onNewPage(d)
	}
	return true
}

// NewPage adds a page and resets the cursor to the top margin
func (d *Document) NewPage() {
	d.pdf.AddPage()
	d.breaks++
	d.y = Margin
}

// PageCount is 1 + every break taken
func (d *Document) PageCount() int {
	return d.pdf.PageCount()
}

// Breaks is the number of pages added after the first
func (d *Document) Breaks() int {
	return d.breaks
}

// SetFont sets the font and size; style is "", "B", "I" or "BI"
func (d *Document) SetFont(style string, size float64) {
	d.pdf.SetFont("Helvetica", style, size)
}

// SetTextGray sets the text colour to a grey level (0 = black)
func (d *Document) SetTextGray(level int) {
	d.pdf.SetTextColor(level, level, level)
}

// Banner paints a full-width filled rectangle at the top of the current page
func (d *Document) Banner(r, g, b int, height float64) {
	d.pdf.SetFillColor(r, g, b)
	d.pdf.Rect(0, 0, PageWidth, height, "F")
	d.pdf.SetFillColor(255, 255, 255)
}

// TextAt writes a single line with its baseline at (x, y) without moving the cursor
func (d *Document) TextAt(x, y float64, text string) {
	d.pdf.Text(x, y, d.tr(text))
}

// Line writes one line at the cursor and advances by advance
func (d *Document) Line(text string, advance float64) {
	d.EnsureSpace(advance)
	d.pdf.Text(Margin, d.y, d.tr(text))
	d.y += advance
}

// Wrap splits text to the content width using the current font.
// Blank lines between paragraphs are kept.
func (d *Document) Wrap(text string) []string {
	var out []string
	for _, paragraph := range bytes.Split([]byte(text), []byte("\n")) {
		p := bytes.TrimSpace(paragraph)
		if len(p) == 0 {
			out = append(out, "")
			continue
		}
		for _, line := range d.pdf.SplitLines([]byte(d.tr(string(p))), ContentWidth) {
			out = append(out, string(line))
		}
	}
	return out
}

// Paragraph writes pre-wrapped lines at LineHeight, breaking pages as needed.
// Lines must come from Wrap.
func (d *Document) Paragraph(lines []string) {
	for _, line := range lines {
		d.EnsureSpace(LineHeight)
		if line != "" {
			d.pdf.Text(Margin, d.y, line)
		}
		d.y += LineHeight
	}
}

// Table writes two-column label/value rows with borders
func (d *Document) Table(rows [][2]string, labelWidth float64) {
	const rowHeight = 6.0

	d.SetFont("", 10)
	for i, row := range rows {
		d.EnsureSpace(rowHeight)
		fill := i%2 == 0
		d.pdf.SetFillColor(245, 245, 245)
		d.pdf.SetXY(Margin, d.y)
		d.pdf.CellFormat(labelWidth, rowHeight, d.tr(row[0]), "1", 0, "L", fill, 0, "")
		d.pdf.CellFormat(ContentWidth-labelWidth, rowHeight, d.tr(row[1]), "1", 0, "R", fill, 0, "")
		d.y += rowHeight
	}
	d.pdf.SetFillColor(255, 255, 255)
}

// Image places a PNG at the cursor, width w and height h in mm, and advances past it
func (d *Document) Image(data []byte, w, h float64) error {
	d.imageCount++
	name := fmt.Sprintf("chart-%d", d.imageCount)

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	d.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if err := d.pdf.Error(); err != nil {
		return fmt.Errorf("failed to register image: %w", err)
	}

	d.pdf.ImageOptions(name, Margin, d.y, w, h, false, opts, 0, "")
	d.y += h
	return nil
}

// StampFooters writes text(i, n) centered FooterOffset mm above the bottom of every page
func (d *Document) StampFooters(text func(page, total int) string) {
	total := d.pdf.PageCount()
	for i := 1; i <= total; i++ {
		d.pdf.SetPage(i)
		d.SetFont("", 8)
		d.SetTextGray(128)
		s := d.tr(text(i, total))
		d.pdf.Text((PageWidth-d.pdf.GetStringWidth(s))/2, PageHeight-FooterOffset, s)
	}
	d.SetTextGray(0)
}

// Err reports the first error fpdf recorded
func (d *Document) Err() error {
	return d.pdf.Error()
}

// Bytes serializes the document
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SetMetadata sets the PDF title and creator
func (d *Document) SetMetadata(title, creator string) {
	d.pdf.SetTitle(title, true)
	d.pdf.SetCreator(creator, true)
}
