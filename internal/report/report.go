// Package report renders saved designs as PDF documents.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/phpdave11/gofpdf"

	"Pontis/internal/pipeline"
)

const (
	defaultTitle = "Bridge Design Report"
	disclaimer   = "Preliminary scheme. Validation is heuristic range checking (simulated) and does not replace structural analysis."
)

type Options struct {
	Title  string
	Author string
}

// Design writes a PDF summary of d to w.
func Design(w io.Writer, d pipeline.Design, opts Options) error {
	if opts.Title == "" {
		opts.Title = defaultTitle
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(d.CreatedAt)
	pdf.SetTitle(opts.Title, false)
	if opts.Author != "" {
		pdf.SetAuthor(opts.Author, false)
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr(opts.Title))
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Design ID: %s", d.ID))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", d.CreatedAt.Format("2006-01-02 15:04 MST")))
	pdf.Ln(6)
	if opts.Author != "" {
		pdf.Cell(0, 6, tr("Author: "+opts.Author))
		pdf.Ln(6)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Analysis provider: %s", d.Provider))
	pdf.Ln(10)

	section(pdf, "Requirements")
	pdf.MultiCell(0, 5, tr(printable(d.Requirements)), "", "L", false)
	pdf.Ln(4)

	p := d.Params
	if p.IsSentinel() {
		section(pdf, "Analysis failed")
		pdf.MultiCell(0, 5, tr(p.Error), "", "L", false)
		return output(pdf, w)
	}

	section(pdf, "Design parameters")
	rows := [][2]string{
		{"Bridge type", p.BridgeType},
		{"Main girder", p.MainGirderType},
		{"Span", fmt.Sprintf("%.2f m", p.SpanM)},
		{"Deck width", fmt.Sprintf("%.2f m", p.BridgeWidthM)},
		{"Girder depth", fmt.Sprintf("%.2f m", p.GirderDepthM)},
		{"Lanes", fmt.Sprint(p.NumLanes)},
		{"Concrete", p.Materials.ConcreteGrade},
		{"Reinforcement", p.Materials.SteelReinforcement},
		{"Prestressing steel", p.Materials.PrestressingSteel},
		{"Structural steel", p.Materials.StructuralSteelGrade},
		{"Seismic intensity", p.SeismicIntensity},
		{"Pier type", p.PierType},
		{"Foundation type", p.FoundationType},
		{"Template", d.Template},
		{"Design code", d.Standards},
	}
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(50, 6, row[0], "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, tr(row[1]), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	section(pdf, "Preliminary checks")
	for _, n := range d.Report.Notes {
		mark := "PASS"
		if !n.Passed {
			mark = "WARN"
		}
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(20, 5, mark, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, tr(n.Message), "", "L", false)
	}
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 5, tr(d.Report.Summary), "", "L", false)
	pdf.Ln(4)

	if len(p.Notes) > 0 {
		section(pdf, "Notes")
		for _, note := range p.Notes {
			pdf.MultiCell(0, 5, tr("- "+note), "", "L", false)
		}
		pdf.Ln(4)
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.MultiCell(0, 4, disclaimer, "", "L", false)
	return output(pdf, w)
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, title)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
}

func output(pdf *gofpdf.Fpdf, w io.Writer) error {
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

// printable drops characters the core PDF fonts cannot encode.
func printable(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < 256 {
			b.WriteRune(r)
		}
	}
	out := strings.Join(strings.Fields(b.String()), " ")
	if out == "" {
		return "(not latin-1 encodable)"
	}
	return out
}
