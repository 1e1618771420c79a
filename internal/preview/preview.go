// Package preview draws barcode labels as images so they can be checked
// on screen before printing.
package preview

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/alpiant/pos-kasir/internal/escpos"
	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/ean"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

// Width is the printable width of 58mm paper at 203dpi.
const Width = 384

const (
	margin        = 10
	barcodeHeight = 80 // same dot height the printer is told to use
	moduleWidth   = 2
	maxScale      = 4
)

// fontPaths are tried in order; gg's built-in face is used when none load.
var fontPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Bold.ttf",
	"/System/Library/Fonts/Supplemental/Arial Bold.ttf",
	"/System/Library/Fonts/Helvetica.ttc",
	`C:\Windows\Fonts\arialbd.ttf`,
}

// Render draws one copy of label. scale enlarges the result 1 to 4 times.
func Render(label escpos.Label, scale int) (image.Image, error) {
	if label.Barcode == "" {
		return nil, errors.New("label has no barcode")
	}

	bc, hri, err := encodeBarcode(label.Barcode)
	if err != nil {
		return nil, err
	}

	bcWidth := bc.Bounds().Dx() * moduleWidth
	if bcWidth > Width-2*margin {
		bcWidth = Width - 2*margin
	}
	scaled, err := barcode.Scale(bc, bcWidth, barcodeHeight)
	if err != nil {
		return nil, fmt.Errorf("scale barcode: %w", err)
	}

	height := margin + 30 + 28 + barcodeHeight + 24 + 16 + margin
	dc := gg.NewContext(Width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)

	y := float64(margin)

	setFont(dc, 22)
	dc.DrawStringAnchored(escpos.Truncate(label.Name, escpos.LabelNameWidth), Width/2, y+11, 0.5, 0.5)
	y += 30

	setFont(dc, 18)
	dc.DrawStringAnchored("Rp "+escpos.Money(label.Price), Width/2, y+9, 0.5, 0.5)
	y += 28

	x := (Width - scaled.Bounds().Dx()) / 2
	dc.DrawImage(scaled, x, int(y))
	y += barcodeHeight

	setFont(dc, 14)
	dc.DrawStringAnchored(hri, Width/2, y+12, 0.5, 0.5)
	y += 24

	dc.SetLineWidth(1)
	dc.SetDash(4, 3)
	dc.DrawLine(margin, y+8, Width-margin, y+8)
	dc.Stroke()

	img := dc.Image()
	if scale > 1 {
		if scale > maxScale {
			scale = maxScale
		}
		img = imaging.Resize(img, Width*scale, 0, imaging.NearestNeighbor)
	}
	return img, nil
}

// encodeBarcode mirrors escpos.Symbology. A 13 character code that is not a
// valid EAN-13 is drawn as CODE128 so the preview still shows something.
func encodeBarcode(code string) (barcode.Barcode, string, error) {
	if escpos.Symbology(code) == escpos.BarcodeEAN13 {
		if bc, err := ean.Encode(code); err == nil {
			return bc, code, nil
		}
	}
	bc, err := code128.Encode(code)
	if err != nil {
		return nil, "", fmt.Errorf("encode barcode %q: %w", code, err)
	}
	return bc, code, nil
}

func setFont(dc *gg.Context, points float64) {
	for _, path := range fontPaths {
		if err := dc.LoadFontFace(path, points); err == nil {
			return
		}
	}
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG)
}
