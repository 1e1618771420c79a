package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/alpiant/pos-kasir/internal/escpos"
	"github.com/alpiant/pos-kasir/pkg/receiptformat"
)

// composeArgs replaces "--compose name:... price:..." with the path of a
// temporary label document. cleanup removes the file.
func composeArgs(args []string) ([]string, func(), error) {
	noop := func() {}

	idx := -1
	for i, a := range args {
		if a == "--compose" {
			idx = i
			break
		}
	}
	if idx < 0 {
		return args, noop, nil
	}

	labels, err := composeLabels(args[idx+1:])
	if err != nil {
		return nil, noop, err
	}

	f, err := os.CreateTemp("", "labels-composed-*.json")
	if err != nil {
		return nil, noop, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	sheet := receiptformat.LabelSheet{Version: receiptformat.Version, Labels: labels}
	if err := enc.Encode(sheet); err != nil {
		os.Remove(f.Name())
		return nil, noop, fmt.Errorf("failed to write labels JSON: %w", err)
	}

	out := append(append([]string(nil), args[:idx]...), f.Name())
	return out, func() { os.Remove(f.Name()) }, nil
}

// composeLabels parses name:/price:/barcode:/qty: properties. Each name:
// starts a new label; qty defaults to 1.
func composeLabels(args []string) ([]escpos.Label, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no compose arguments provided")
	}

	var labels []escpos.Label
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, ":")
		if !ok {
			return nil, fmt.Errorf("property must be in format 'name:value', got: %s", arg)
		}
		value = strings.Trim(value, `"'`)

		if key == "name" {
			labels = append(labels, escpos.Label{Name: value, Qty: 1})
			continue
		}
		if len(labels) == 0 {
			return nil, fmt.Errorf("unexpected argument '%s' (expected name: first)", arg)
		}
		cur := &labels[len(labels)-1]

		switch key {
		case "price":
			p, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid price value: %s", value)
			}
			cur.Price = p
		case "barcode":
			cur.Barcode = value
		case "qty":
			q, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("invalid qty value: %s", value)
			}
			cur.Qty = q
		default:
			return nil, fmt.Errorf("unknown label property: %s", key)
		}
	}

	sheet := &receiptformat.LabelSheet{Labels: labels}
	if err := receiptformat.ValidateLabels(sheet); err != nil {
		return nil, err
	}
	return labels, nil
}
