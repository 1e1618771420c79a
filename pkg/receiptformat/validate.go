package receiptformat

import (
	"fmt"
	"strings"
)

// maxBarcodeLen is what fits the single length byte of the barcode command.
const maxBarcodeLen = 255

func validateVersion(v string) error {
	if v != "" && v != Version {
		return fmt.Errorf("unsupported version: %s (expected %s)", v, Version)
	}
	return nil
}

// ValidateReceipt validates a Receipt structure
func ValidateReceipt(r *Receipt) error {
	if err := validateVersion(r.Version); err != nil {
		return err
	}

	tx := r.Transaction
	if strings.TrimSpace(tx.ID) == "" {
		return fmt.Errorf("transaction.id is required")
	}
	amounts := []struct {
		name  string
		value float64
	}{
		{"total_amount", tx.Total},
		{"discount_amount", tx.Discount},
		{"tax_amount", tx.Tax},
		{"amount_paid", tx.AmountPaid},
	}
	for _, a := range amounts {
		if a.value < 0 {
			return fmt.Errorf("transaction.%s cannot be negative", a.name)
		}
	}

	if len(r.Items) == 0 {
		return fmt.Errorf("at least one item is required")
	}
	for i, item := range r.Items {
		if strings.TrimSpace(item.Name) == "" {
			return fmt.Errorf("item[%d]: 'name' is required", i)
		}
		if item.Qty <= 0 {
			return fmt.Errorf("item[%d] '%s': quantity must be positive", i, item.Name)
		}
		if item.Price < 0 || item.Subtotal < 0 {
			return fmt.Errorf("item[%d] '%s': price cannot be negative", i, item.Name)
		}
	}

	return nil
}

// ValidateLabels validates a LabelSheet. Labels with qty 0 are allowed and
// print nothing.
func ValidateLabels(s *LabelSheet) error {
	if err := validateVersion(s.Version); err != nil {
		return err
	}
	if len(s.Labels) == 0 {
		return fmt.Errorf("at least one label is required")
	}

	for i, l := range s.Labels {
		if strings.TrimSpace(l.Name) == "" {
			return fmt.Errorf("label[%d]: 'name' is required", i)
		}
		if l.Barcode == "" {
			return fmt.Errorf("label[%d] '%s': 'barcode' is required", i, l.Name)
		}
		if len(l.Barcode) > maxBarcodeLen {
			return fmt.Errorf("label[%d] '%s': barcode longer than %d bytes", i, l.Name, maxBarcodeLen)
		}
		if l.Qty < 0 {
			return fmt.Errorf("label[%d] '%s': qty cannot be negative", i, l.Name)
		}
		if l.Price < 0 {
			return fmt.Errorf("label[%d] '%s': price cannot be negative", i, l.Name)
		}
	}

	return nil
}
