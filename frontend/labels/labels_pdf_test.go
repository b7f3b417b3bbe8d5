package labels

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/KocBilge/barcode/frontend/listview"
)

func TestRenderLabelsPDF_GeneratesOnePagePerCode(t *testing.T) {
	t.Parallel()

	labels := LabelsFromRecords("shelf-a", []listview.Record{
		{Code: "ABC-001", Timestamp: "2024-01-01T10:00:00"},
		{Code: ""},
		{Code: "ABC-002"},
	})
	if len(labels) != 2 {
		t.Fatalf("expected blank code to be skipped, got %d labels", len(labels))
	}
	pdf, err := RenderLabelsPDF(labels, time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("RenderLabelsPDF returned error: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("expected pdf header")
	}
}

func TestRenderLabelsPDF_Empty(t *testing.T) {
	t.Parallel()

	if _, err := RenderLabelsPDF(nil, time.Now()); !errors.Is(err, ErrNoLabels) {
		t.Fatalf("expected ErrNoLabels, got %v", err)
	}
}

func TestRenderCode128PNG_HasQuietZone(t *testing.T) {
	t.Parallel()

	raw, err := RenderCode128PNG("12345", 2, 40)
	if err != nil {
		t.Fatalf("render png: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	r, g, b, _ := img.At(1, img.Bounds().Dy()/2).RGBA()
	if r != 0xffff || g != 0xffff || b != 0xffff {
		t.Fatalf("expected white quiet zone at left edge")
	}
}

func TestSectionLabelsPDFHandler(t *testing.T) {
	t.Parallel()

	load := func(ctx context.Context, section string) ([]listview.Record, error) {
		switch section {
		case "shelf a":
			return []listview.Record{{Code: "X1"}}, nil
		case "empty":
			return nil, nil
		default:
			return nil, sql.ErrNoRows
		}
	}
	r := chi.NewRouter()
	r.Get("/labels/{section}.pdf", SectionLabelsPDFHandler(load))

	cases := []struct {
		path string
		want int
	}{
		{"/labels/shelf%20a.pdf", http.StatusOK},
		{"/labels/empty.pdf", http.StatusNotFound},
		{"/labels/missing.pdf", http.StatusNotFound},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.path, tc.want, rec.Code)
		}
	}
}

func TestCodePNGHandler(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	CodePNGHandler()(rec, httptest.NewRequest(http.MethodGet, "/labels/code.png?code=ABC", nil))
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}

	rec = httptest.NewRecorder()
	CodePNGHandler()(rec, httptest.NewRequest(http.MethodGet, "/labels/code.png", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing code, got %d", rec.Code)
	}
}
