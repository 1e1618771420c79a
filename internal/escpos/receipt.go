package escpos

import "fmt"

// Store holds the header/footer text printed on every receipt.
type Store struct {
	Name    string `json:"store_name" yaml:"store_name"`
	Address string `json:"address" yaml:"address"`
	Footer  string `json:"footer_text" yaml:"footer_text"`
}

// Transaction is the header data of a completed sale.
type Transaction struct {
	ID            string  `json:"id"`
	Total         float64 `json:"total_amount"`
	Discount      float64 `json:"discount_amount"`
	Tax           float64 `json:"tax_amount"`
	PaymentMethod string  `json:"payment_method"`
	AmountPaid    float64 `json:"amount_paid"`
	Timestamp     string  `json:"timestamp"`
}

// Item is one receipt line.
type Item struct {
	Name     string  `json:"name"`
	Qty      int64   `json:"quantity"`
	Price    float64 `json:"price_at_time"`
	Subtotal float64 `json:"subtotal"`
}

// BuildReceipt renders a sales receipt. Identical input always yields
// identical bytes.
func BuildReceipt(store Store, tx Transaction, items []Item) []byte {
	e := NewEncoder(1024 + len(items)*64)

	e.Initialize()

	e.SetAlignment(AlignCenter)
	e.SetBold(true)
	e.SetTextSize(2, 2)
	e.WriteLine(store.Name)
	e.SetTextSize(1, 1)
	e.SetBold(false)

	if store.Address != "" {
		e.WriteLine(store.Address)
	}

	e.WriteLine(doubleRule)

	e.SetAlignment(AlignLeft)
	e.WriteLine("No: " + TransactionPrefix(tx.ID))
	e.WriteLine("Tgl: " + tx.Timestamp)
	e.WriteLine(singleRule)

	for _, item := range items {
		e.WriteLine(fmt.Sprintf("%s x%d", Truncate(item.Name, ReceiptNameWidth), item.Qty))
		e.WriteLine(fmt.Sprintf("  @%10s = %10s", Money(item.Price), Money(item.Subtotal)))
	}

	e.WriteLine(singleRule)

	if tx.Discount > 0 {
		e.WriteLine(fmt.Sprintf("Diskon:     %10s", Money(tx.Discount)))
	}
	if tx.Tax > 0 {
		e.WriteLine(fmt.Sprintf("Pajak:      %10s", Money(tx.Tax)))
	}

	e.SetBold(true)
	e.WriteLine(fmt.Sprintf("TOTAL:      %10s", Money(tx.Total)))
	e.SetBold(false)

	paid := tx.AmountPaid
	if paid <= 0 {
		paid = tx.Total
	}
	e.WriteLine(fmt.Sprintf("Bayar (%4s): %10s", tx.PaymentMethod, Money(paid)))

	e.WriteLine(doubleRule)

	e.SetAlignment(AlignCenter)
	e.WriteLine(store.Footer)
	e.Feed(2)

	e.PartialCut()

	return e.Bytes()
}
