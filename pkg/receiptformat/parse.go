package receiptformat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// ParseReceipt parses and validates a receipt document. Missing item
// subtotals are filled in as qty * price.
func ParseReceipt(data []byte) (*Receipt, error) {
	var r Receipt
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse receipt: %w", err)
	}

	for i := range r.Items {
		if r.Items[i].Subtotal == 0 {
			r.Items[i].Subtotal = float64(r.Items[i].Qty) * r.Items[i].Price
		}
	}

	if err := ValidateReceipt(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ParseLabels parses and validates a label document. A bare JSON array of
// labels is accepted as well as {"labels": [...]}.
func ParseLabels(data []byte) (*LabelSheet, error) {
	var s LabelSheet

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &s.Labels); err != nil {
			return nil, fmt.Errorf("failed to parse labels: %w", err)
		}
	} else if err := json.Unmarshal(trimmed, &s); err != nil {
		return nil, fmt.Errorf("failed to parse labels: %w", err)
	}

	if err := ValidateLabels(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ParseReceiptFile parses a receipt document from disk
func ParseReceiptFile(path string) (*Receipt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read receipt file: %w", err)
	}
	return ParseReceipt(data)
}

// ParseLabelsFile parses a label document from disk
func ParseLabelsFile(path string) (*LabelSheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read label file: %w", err)
	}
	return ParseLabels(data)
}

// ToJSON converts a Receipt to JSON bytes
func (r *Receipt) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
