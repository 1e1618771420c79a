// Package escpos builds ESC/POS byte streams for receipts, test pages and
// barcode labels. Nothing in this package performs I/O.
package escpos

import (
	"bytes"
	"fmt"
)

// ESC/POS commands
const (
	ESC byte = 0x1B
	GS  byte = 0x1D
	LF  byte = 0x0A
)

// Barcode symbologies for GS k (function B form).
const (
	BarcodeEAN13   byte = 0x43
	BarcodeCODE128 byte = 0x49
)

// Alignment values for ESC a.
type Alignment byte

const (
	AlignLeft   Alignment = 0
	AlignCenter Alignment = 1
	AlignRight  Alignment = 2
)

// Encoder accumulates ESC/POS commands and text.
type Encoder struct {
	buffer *bytes.Buffer
}

// NewEncoder creates a new encoder with room for size bytes.
func NewEncoder(size int) *Encoder {
	return &Encoder{
		buffer: bytes.NewBuffer(make([]byte, 0, size)),
	}
}

// Initialize resets the printer (ESC @).
func (e *Encoder) Initialize() {
	e.buffer.Write([]byte{ESC, '@'})
}

// SetAlignment sets text alignment (ESC a n).
func (e *Encoder) SetAlignment(align Alignment) {
	e.buffer.Write([]byte{ESC, 'a', byte(align)})
}

// SetBold enables or disables emphasized text (ESC E n).
func (e *Encoder) SetBold(enabled bool) {
	var n byte
	if enabled {
		n = 1
	}
	e.buffer.Write([]byte{ESC, 'E', n})
}

// SetTextSize sets the character size multiplier (GS ! n), each axis 1..8.
func (e *Encoder) SetTextSize(width, height int) {
	width = clamp(width, 1, 8)
	height = clamp(height, 1, 8)

	size := byte(((width - 1) << 4) | (height - 1))
	e.buffer.Write([]byte{GS, '!', size})
}

// PartialCut feeds to the cutter and performs a partial cut (GS V A 3).
func (e *Encoder) PartialCut() {
	e.buffer.Write([]byte{GS, 'V', 'A', 0x03})
}

// SetBarcodeHRIBelow prints the human readable digits under the bars (GS H 2).
func (e *Encoder) SetBarcodeHRIBelow() {
	e.buffer.Write([]byte{GS, 'H', 0x02})
}

// SetBarcodeHeight sets the bar height in dots (GS h n).
func (e *Encoder) SetBarcodeHeight(dots byte) {
	e.buffer.Write([]byte{GS, 'h', dots})
}

// SetBarcodeWidth sets the module width multiplier (GS w n).
func (e *Encoder) SetBarcodeWidth(n byte) {
	e.buffer.Write([]byte{GS, 'w', n})
}

// Barcode prints data using the given symbology (GS k m n d1...dn).
func (e *Encoder) Barcode(symbology byte, data string) error {
	if len(data) == 0 {
		return fmt.Errorf("barcode data is empty")
	}
	if len(data) > 255 {
		return fmt.Errorf("barcode data too long: %d bytes", len(data))
	}
	e.buffer.Write([]byte{GS, 'k', symbology, byte(len(data))})
	e.buffer.WriteString(data)
	return nil
}

// LineFeed sends a line feed.
func (e *Encoder) LineFeed() {
	e.buffer.WriteByte(LF)
}

// Feed sends multiple line feeds.
func (e *Encoder) Feed(lines int) {
	for i := 0; i < lines; i++ {
		e.LineFeed()
	}
}

// WriteText writes text without a line terminator.
func (e *Encoder) WriteText(text string) {
	e.buffer.WriteString(text)
}

// WriteLine writes text followed by a line feed.
func (e *Encoder) WriteLine(text string) {
	e.buffer.WriteString(text)
	e.buffer.WriteByte(LF)
}

// Bytes returns the generated commands. The slice aliases the encoder buffer.
func (e *Encoder) Bytes() []byte {
	return e.buffer.Bytes()
}

// Len returns the number of bytes generated so far.
func (e *Encoder) Len() int {
	return e.buffer.Len()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
