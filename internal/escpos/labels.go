package escpos

import "fmt"

// Label is a barcode label request. Qty repeats the label.
type Label struct {
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	Barcode string  `json:"barcode"`
	Qty     int     `json:"qty"`
}

// barcodeHeightDots is 80 dots, about 10mm on a 203dpi head.
const barcodeHeightDots = 0x50

// Symbology picks EAN-13 for 13 character codes and CODE128 for the rest.
func Symbology(code string) byte {
	if len(code) == 13 {
		return BarcodeEAN13
	}
	return BarcodeCODE128
}

// BuildLabels renders one block per label copy, then feeds and cuts once.
func BuildLabels(labels []Label) ([]byte, error) {
	e := NewEncoder(len(labels)*200 + 64)

	e.Initialize()

	for _, label := range labels {
		for i := 0; i < label.Qty; i++ {
			e.SetAlignment(AlignCenter)

			e.SetBold(true)
			e.WriteLine(Truncate(label.Name, LabelNameWidth))
			e.SetBold(false)

			e.WriteLine("Rp " + Money(label.Price))

			e.SetBarcodeHRIBelow()
			e.SetBarcodeHeight(barcodeHeightDots)
			e.SetBarcodeWidth(2)

			if err := e.Barcode(Symbology(label.Barcode), label.Barcode); err != nil {
				return nil, fmt.Errorf("label %q: %w", label.Name, err)
			}
			e.LineFeed()

			e.WriteLine(singleRule)
		}
	}

	e.Feed(2)
	e.PartialCut()

	return e.Bytes(), nil
}
