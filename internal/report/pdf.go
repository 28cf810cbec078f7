package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

const (
	pageWidth   = 190.0 // A4 minus 10mm margins
	pageHeight  = 277.0
	baseFont    = "Arial"
	baseSize    = 9.0
	lineHeight  = 5.0
	cellPadding = 2.0
)

// RenderPDF converts markdown to a PDF and appends one page per screenshot
func RenderPDF(markdown string, screenshots []string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()
	pdf.SetFont(baseFont, "", baseSize)

	source := []byte(markdown)
	doc := goldmark.New(goldmark.WithExtensions(extension.Table)).Parser().Parse(text.NewReader(source))

	r := &pdfRenderer{
		pdf:    pdf,
		source: source,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
	}
	if err := ast.Walk(doc, r.walk); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}

	for _, shot := range screenshots {
		r.appendScreenshot(shot)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF output: %w", err)
	}
	return buf.Bytes(), nil
}

// WritePDF renders markdown plus screenshots and writes the PDF to path
func WritePDF(path, markdown string, screenshots []string) error {
	data, err := RenderPDF(markdown, screenshots)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write PDF report: %w", err)
	}
	return nil
}

type pdfRenderer struct {
	pdf       *fpdf.Fpdf
	source    []byte
	tr        func(string) string
	bold      bool
	italic    bool
	listLevel int
}

func (r *pdfRenderer) updateFont() {
	style := ""
	if r.bold {
		style += "B"
	}
	if r.italic {
		style += "I"
	}
	r.pdf.SetFont(baseFont, style, baseSize)
}

func (r *pdfRenderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		r.heading(node, entering)
	case *ast.Paragraph:
		if !entering && r.listLevel == 0 {
			r.pdf.Ln(7)
		}
	case *ast.Text:
		if entering {
			r.pdf.Write(lineHeight, r.tr(string(node.Segment.Value(r.source))))
			if node.SoftLineBreak() {
				r.pdf.Write(lineHeight, " ")
			}
		}
	case *ast.Emphasis:
		if node.Level == 2 {
			r.bold = entering
		} else {
			r.italic = entering
		}
		r.updateFont()
	case *ast.CodeSpan:
		if entering {
			r.pdf.SetFont("Courier", "", baseSize)
			r.pdf.Write(lineHeight, r.tr(string(node.Text(r.source))))
			r.updateFont()
		}
		return ast.WalkSkipChildren, nil
	case *ast.FencedCodeBlock:
		if entering {
			r.codeBlock(node.Lines())
		}
		return ast.WalkSkipChildren, nil
	case *ast.List:
		if entering {
			r.listLevel++
		} else {
			r.listLevel--
			if r.listLevel == 0 {
				r.pdf.Ln(7)
			}
		}
	case *ast.ListItem:
		if entering {
			r.pdf.Ln(lineHeight)
			r.pdf.SetX(10 + float64(r.listLevel)*5)
			r.pdf.Write(lineHeight, "- ")
		}
	case *extast.Table:
		if entering {
			r.table(node)
		}
		return ast.WalkSkipChildren, nil
	}
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) heading(n *ast.Heading, entering bool) {
	if !entering {
		r.pdf.Ln(8)
		r.updateFont()
		return
	}
	size := 10.0
	switch n.Level {
	case 1:
		size = 15
	case 2:
		size = 12
	case 3:
		size = 10.5
	}
	r.pdf.Ln(2)
	r.pdf.SetFont(baseFont, "B", size)
}

func (r *pdfRenderer) codeBlock(lines *text.Segments) {
	r.pdf.SetFont("Courier", "", 8)
	r.pdf.SetFillColor(245, 245, 245)
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		r.pdf.MultiCell(0, 4, r.tr(strings.TrimRight(string(line.Value(r.source)), "\n")), "", "L", true)
	}
	r.pdf.SetFillColor(255, 255, 255)
	r.updateFont()
	r.pdf.Ln(3)
}

func (r *pdfRenderer) table(n *extast.Table) {
	var rows [][]string
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch row := child.(type) {
		case *extast.TableHeader, *extast.TableRow:
			var cells []string
			for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
				cells = append(cells, r.tr(string(cell.Text(r.source))))
			}
			rows = append(rows, cells)
		}
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}

	widths := r.columnWidths(rows)
	const rowHeight = lineHeight + 1

	for i, row := range rows {
		if r.pdf.GetY()+rowHeight > pageHeight {
			r.pdf.AddPage()
		}
		if i == 0 {
			r.pdf.SetFont(baseFont, "B", 8)
			r.pdf.SetFillColor(230, 230, 230)
		} else {
			r.pdf.SetFont(baseFont, "", 8)
			r.pdf.SetFillColor(255, 255, 255)
		}
		for j, w := range widths {
			cell := ""
			if j < len(row) {
				cell = fitText(r.pdf, row[j], w-cellPadding)
			}
			r.pdf.CellFormat(w, rowHeight, cell, "1", 0, "L", i == 0, 0, "")
		}
		r.pdf.Ln(rowHeight)
	}

	r.pdf.Ln(3)
	r.updateFont()
}

// columnWidths sizes columns by their widest cell, scaled to fit the page
func (r *pdfRenderer) columnWidths(rows [][]string) []float64 {
	widths := make([]float64, len(rows[0]))
	r.pdf.SetFont(baseFont, "B", 8)
	for _, row := range rows {
		for j := range widths {
			if j < len(row) {
				if w := r.pdf.GetStringWidth(row[j]) + 2*cellPadding; w > widths[j] {
					widths[j] = w
				}
			}
		}
	}

	total := 0.0
	for _, w := range widths {
		total += w
	}
	if total > pageWidth {
		scale := pageWidth / total
		for j := range widths {
			widths[j] *= scale
		}
	}
	return widths
}

// fitText truncates s with an ellipsis until it fits width
func fitText(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}

// appendScreenshot adds a page holding one screenshot scaled to fit. Missing files are skipped.
func (r *pdfRenderer) appendScreenshot(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}

	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	info := r.pdf.RegisterImageOptions(path, opts)
	if info == nil || r.pdf.Err() {
		// Unreadable image: drop it rather than fail the whole report
		r.pdf.ClearError()
		return
	}

	r.pdf.AddPage()
	r.pdf.SetFont(baseFont, "B", 11)
	r.pdf.CellFormat(0, 8, r.tr(filepath.Base(path)), "", 1, "L", false, 0, "")

	w, h := info.Width(), info.Height()
	maxH := pageHeight - 20
	scale := pageWidth / w
	if h*scale > maxH {
		scale = maxH / h
	}
	r.pdf.ImageOptions(path, 10, r.pdf.GetY()+2, w*scale, h*scale, false, opts, 0, "")
	r.updateFont()
}
