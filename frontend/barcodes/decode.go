package barcodes

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
)

var ErrImageUnreadable = errors.New("image could not be opened")

// oneDReaders mirrors the symbologies the browser scanner is configured for.
func oneDReaders() []gozxing.Reader {
	return []gozxing.Reader{
		oned.NewCode128Reader(),
		oned.NewEAN13Reader(),
		oned.NewEAN8Reader(),
		oned.NewCode39Reader(),
		oned.NewUPCAReader(),
		oned.NewCodaBarReader(),
		oned.NewITFReader(),
	}
}

// DecodeImage returns the distinct codes found in an uploaded image, in reader order.
// An image with no readable barcode yields an empty slice and no error.
func DecodeImage(r io.Reader) ([]string, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageUnreadable, err)
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageUnreadable, err)
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	seen := make(map[string]bool)
	codes := make([]string, 0, 1)
	for _, reader := range oneDReaders() {
		result, err := reader.Decode(bmp, hints)
		if err != nil {
			continue
		}
		code := strings.TrimSpace(result.GetText())
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	return codes, nil
}
