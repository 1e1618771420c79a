// Package receiptformat defines the JSON documents accepted for receipt and
// label printing.
package receiptformat

import "github.com/alpiant/pos-kasir/internal/escpos"

// Version is the only document version understood.
const Version = "1.0"

// Receipt is a receipt print request
type Receipt struct {
	Version     string             `json:"version,omitempty"`
	Transaction escpos.Transaction `json:"transaction"`
	Items       []escpos.Item      `json:"items"`
}

// LabelSheet is a barcode label print request
type LabelSheet struct {
	Version string         `json:"version,omitempty"`
	Labels  []escpos.Label `json:"labels"`
}

// Copies is the number of labels the sheet prints.
func (s *LabelSheet) Copies() int {
	n := 0
	for _, l := range s.Labels {
		if l.Qty > 0 {
			n += l.Qty
		}
	}
	return n
}
