package cart

import (
	"unicode/utf8"

	"ph-studio/internal/quote"
)

const maxEngraveText = 200

// ProductPricer returns the current title and list price of an active product.
type ProductPricer func(id string) (title string, price float64, ok bool)

// Reprice recomputes every line from its parameters against the current
// price list, so amounts carried by the client are never trusted. Lines that
// cannot be priced any more are dropped; the number dropped is returned.
func Reprice(c Cart, cat *quote.Catalog, products ProductPricer) (Cart, int) {
	var out Cart
	dropped := 0

	for _, l := range c.Lines {
		fresh, ok := repriceLine(l, cat, products)
		if !ok {
			dropped++
			continue
		}
		out.Lines = append(out.Lines, fresh)
	}

	return out, dropped
}

func repriceLine(l Line, cat *quote.Catalog, products ProductPricer) (Line, bool) {
	switch l.Type {
	case LinePrint:
		if l.Print == nil {
			return Line{}, false
		}
		q, err := cat.QuotePrint(quote.PrintRequest{
			Printer:    l.Print.Printer,
			Dimensions: l.Print.Dimensions,
			Quantity:   l.Quantity,
		})
		if err != nil {
			return Line{}, false
		}
		fresh, err := FromPrintQuote(q)
		return fresh, err == nil

	case LineEngrave:
		if l.Engrave == nil {
			return Line{}, false
		}
		q, err := cat.QuoteEngrave(quote.EngraveRequest{
			Surface:    l.Engrave.Surface,
			AreaCm2:    l.Engrave.AreaCm2,
			Complexity: l.Engrave.Complexity,
			Quantity:   l.Quantity,
		})
		if err != nil {
			return Line{}, false
		}
		return FromEngraveQuote(q, TruncateText(l.Engrave.Text)), true

	case LineCatalog:
		if l.Catalog == nil || products == nil {
			return Line{}, false
		}
		title, price, ok := products(l.Catalog.ProductID)
		if !ok {
			return Line{}, false
		}
		fresh, err := FromProduct(l.Catalog.ProductID, title, price, l.Quantity)
		return fresh, err == nil
	}

	return Line{}, false
}

// TruncateText bounds the engraving text kept in a cart line.
func TruncateText(s string) string {
	if utf8.RuneCountInString(s) <= maxEngraveText {
		return s
	}
	r := []rune(s)
	return string(r[:maxEngraveText])
}
