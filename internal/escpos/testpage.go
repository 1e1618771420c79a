package escpos

import "time"

// TimestampLayout is the date format printed on test pages.
const TimestampLayout = "2006-01-02 15:04:05"

// BuildTestPage renders the connectivity test page stamped with now.
func BuildTestPage(now time.Time) []byte {
	e := NewEncoder(512)

	e.Initialize()
	e.SetAlignment(AlignCenter)
	e.SetBold(true)
	e.SetTextSize(2, 2)
	e.WriteLine("TEST PRINT")
	e.SetTextSize(1, 1)
	e.SetBold(false)

	e.WriteLine(doubleRule)
	e.WriteLine("Printer berhasil terhubung!")
	e.WriteLine("POS Kasir Alpiant")
	e.WriteLine(now.Format(TimestampLayout))
	e.WriteLine(doubleRule)
	e.Feed(2)

	e.PartialCut()

	return e.Bytes()
}
