package labels

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/jung-kurt/gofpdf"

	"github.com/KocBilge/barcode/frontend/listview"
)

var ErrNoLabels = errors.New("no labels to render")

// quietZoneModules is the blank margin left and right of the bars, in module widths.
const quietZoneModules = 10

// CodeLabel is one printed page.
type CodeLabel struct {
	Section   string
	Code      string
	ScannedAt string
}

// LabelsFromRecords skips records without a code.
func LabelsFromRecords(section string, records []listview.Record) []CodeLabel {
	out := make([]CodeLabel, 0, len(records))
	for _, rec := range records {
		code := strings.TrimSpace(rec.Code)
		if code == "" {
			continue
		}
		out = append(out, CodeLabel{Section: section, Code: code, ScannedAt: rec.Timestamp})
	}
	return out
}

// RenderLabelsPDF renders one landscape A6 page per label.
func RenderLabelsPDF(labels []CodeLabel, printedAt time.Time) ([]byte, error) {
	if len(labels) == 0 {
		return nil, ErrNoLabels
	}

	pdf := gofpdf.New("L", "mm", "A6", "")
	pdf.SetTitle("Barcode Labels", false)
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		barcodePNG, err := RenderCode128PNG(label.Code, 3, 90)
		if err != nil {
			return nil, fmt.Errorf("render barcode %q: %w", label.Code, err)
		}

		pdf.AddPage()
		pageW, pageH := pdf.GetPageSize()
		margin := 6.0
		innerW := pageW - 2*margin

		pdf.SetLineWidth(0.3)
		pdf.Rect(margin, margin, innerW, pageH-2*margin, "")

		section := strings.TrimSpace(label.Section)
		if section == "" {
			section = "-"
		}
		pdf.SetFont("Helvetica", "B", 18)
		pdf.SetFont("Helvetica", "B", fitFontSizeForWidth(pdf, "Helvetica", "B", 18, 9, section, innerW-6))
		pdf.SetXY(margin+3, margin+3)
		pdf.CellFormat(innerW-6, 9, section, "", 0, "L", false, 0, "")

		opt := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		imageName := fmt.Sprintf("code-%d", i)
		pdf.RegisterImageOptionsReader(imageName, opt, bytes.NewReader(barcodePNG))
		imgW := innerW - 12
		imgH := 36.0
		y := margin + 16
		pdf.ImageOptions(imageName, margin+6, y, imgW, imgH, false, opt, 0, "")

		pdf.SetY(y + imgH + 3)
		pdf.SetFont("Helvetica", "B", fitFontSizeForWidth(pdf, "Helvetica", "B", 16, 8, label.Code, innerW-6))
		pdf.CellFormat(0, 8, label.Code, "", 1, "C", false, 0, "")

		scanned := strings.TrimSpace(label.ScannedAt)
		if scanned == "" {
			scanned = "-"
		}
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetXY(margin+3, pageH-margin-7)
		pdf.CellFormat(innerW/2, 5, "Scanned: "+scanned, "", 0, "L", false, 0, "")
		pdf.CellFormat(innerW/2-6, 5, "Printed: "+printedAt.Format("02/01/2006"), "", 0, "R", false, 0, "")
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return out.Bytes(), nil
}

func fitFontSizeForWidth(pdf *gofpdf.Fpdf, family, style string, base, min float64, text string, maxWidth float64) float64 {
	if maxWidth <= 0 {
		return min
	}
	size := base
	pdf.SetFont(family, style, size)
	for size > min && pdf.GetStringWidth(text) > maxWidth {
		size -= 0.5
		pdf.SetFont(family, style, size)
	}
	return size
}

// RenderCode128PNG draws value with whole-pixel modules of moduleWidth and a white quiet zone.
func RenderCode128PNG(value string, moduleWidth, height int) ([]byte, error) {
	if moduleWidth < 1 {
		moduleWidth = 1
	}
	code, err := code128.Encode(value)
	if err != nil {
		return nil, err
	}
	modules := code.Bounds().Dx()
	scaled, err := barcode.Scale(code, modules*moduleWidth, height)
	if err != nil {
		return nil, err
	}

	quiet := quietZoneModules * moduleWidth
	bounds := scaled.Bounds()
	canvas := image.NewNRGBA(image.Rect(0, 0, bounds.Dx()+2*quiet, bounds.Dy()+2*quiet))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(quiet, quiet, quiet+bounds.Dx(), quiet+bounds.Dy()), scaled, bounds.Min, draw.Src)

	var out bytes.Buffer
	if err := png.Encode(&out, canvas); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
