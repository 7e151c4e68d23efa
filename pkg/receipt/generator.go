/**
 * @description
 * This package stamps donor details onto the 80G tax-exemption receipt template
 * and writes one PDF per donation.
 *
 * @dependencies
 * - github.com/jung-kurt/gofpdf: PDF writer.
 * - github.com/jung-kurt/gofpdf/contrib/gofpdi: Imports the template page into the writer.
 */
package receipt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/jung-kurt/gofpdf"
	"github.com/jung-kurt/gofpdf/contrib/gofpdi"
)

var (
	// ErrTemplateUnavailable is returned when the template PDF cannot be read.
	ErrTemplateUnavailable = errors.New("receipt template unavailable")
	// ErrInvalidReceiptNo is returned for receipt numbers that are unsafe as file names.
	ErrInvalidReceiptNo = errors.New("invalid receipt number")
)

var receiptNoPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// FileName returns the name of the receipt file for receiptNo.
func FileName(receiptNo string) string {
	return "80G_" + receiptNo + ".pdf"
}

// Generator renders receipts from a template into an output directory.
type Generator struct {
	templatePath string
	outputDir    string
	layout       Layout
}

// NewGenerator returns a Generator that uses Layout80G.
func NewGenerator(templatePath, outputDir string) *Generator {
	return &Generator{templatePath: templatePath, outputDir: outputDir, layout: Layout80G}
}

// WithLayout returns a copy of g that draws with layout.
func (g *Generator) WithLayout(layout Layout) *Generator {
	c := *g
	c.layout = layout
	return &c
}

// Generate writes the receipt for d and returns the file path. Generating the
// same receipt number twice overwrites the earlier file.
func (g *Generator) Generate(ctx context.Context, d Data) (string, error) {
	if !receiptNoPattern.MatchString(d.ReceiptNo) {
		return "", fmt.Errorf("%w: %q", ErrInvalidReceiptNo, d.ReceiptNo)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := os.Stat(g.templatePath); err != nil {
		return "", fmt.Errorf("%w: %w", ErrTemplateUnavailable, err)
	}
	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create receipt directory: %w", err)
	}

	pdf, err := g.render(d)
	if err != nil {
		return "", err
	}

	out := filepath.Join(g.outputDir, FileName(d.ReceiptNo))
	tmp := out + ".tmp"
	if err := pdf.OutputFileAndClose(tmp); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write receipt: %w", err)
	}
	if err := os.Rename(tmp, out); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write receipt: %w", err)
	}
	return out, nil
}

// render imports the first template page and draws the layout on top of it.
// The importer panics on unreadable or malformed files; that is reported as
// ErrTemplateUnavailable.
func (g *Generator) render(d Data) (pdf *gofpdf.Fpdf, err error) {
	defer func() {
		if r := recover(); r != nil {
			pdf = nil
			err = fmt.Errorf("%w: %v", ErrTemplateUnavailable, r)
		}
	}()

	pdf = gofpdf.New("P", "pt", "A4", "")
	importer := gofpdi.NewImporter()
	tpl := importer.ImportPage(pdf, g.templatePath, 1, "/MediaBox")

	pdf.AddPage()
	width, height := pdf.GetPageSize()
	importer.UseImportedTemplate(pdf, tpl, 0, 0, width, height)

	pdf.SetFont(g.layout.Font, "", g.layout.FontSize)
	pdf.SetTextColor(0, 0, 0)
	translate := pdf.UnicodeTranslatorFromDescriptor("")

	values := d.Values()
	for _, p := range g.layout.Placements {
		text := values[p.Field]
		if text == "" {
			continue
		}
		// Layout coordinates are from the bottom edge; gofpdf measures from the top.
		pdf.Text(p.X, height-p.Y, translate(text))
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return pdf, nil
}
