// Package cart holds priced quote snapshots selected by a visitor. Carts live
// on the client (a cookie); the server only decodes, reprices and renders them.
package cart

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"ph-studio/internal/quote"
)

const MaxLines = 20

// MaxEncodedBytes keeps the cart cookie below the 4096 byte limit browsers
// enforce on a cookie, name and attributes included.
const MaxEncodedBytes = 3800

var (
	ErrQuoteInvalid = errors.New("quote is not valid")
	ErrCartFull     = errors.New("cart is full")
	ErrNoSuchLine   = errors.New("no such cart line")
	ErrBadLine      = errors.New("malformed cart line")
)

type LineType string

const (
	LinePrint   LineType = "print"
	LineEngrave LineType = "engrave"
	LineCatalog LineType = "catalog"
)

type PrintParams struct {
	Printer    string           `json:"printer"`
	Dimensions quote.Dimensions `json:"dims"`
}

type EngraveParams struct {
	Surface    string  `json:"surface"`
	AreaCm2    float64 `json:"area"`
	Complexity int     `json:"complexity"`
	Text       string  `json:"engraveText,omitempty"`
}

type CatalogParams struct {
	ProductID string `json:"productId"`
	Title     string `json:"title"`
}

// Line is a quote snapshot plus the parameters it was priced from.
type Line struct {
	Type     LineType       `json:"type"`
	Print    *PrintParams   `json:"print,omitempty"`
	Engrave  *EngraveParams `json:"engrave,omitempty"`
	Catalog  *CatalogParams `json:"catalog,omitempty"`
	Quantity int            `json:"qty"`
	PerUnit  float64        `json:"perUnit"`
	Total    float64        `json:"total"`
}

// Round2 rounds a money amount half away from zero to two decimals.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func FromPrintQuote(q quote.PrintQuote) (Line, error) {
	if !q.Valid {
		return Line{}, fmt.Errorf("%w: %s", ErrQuoteInvalid, q.Issue)
	}
	return Line{
		Type:     LinePrint,
		Print:    &PrintParams{Printer: q.Printer.Key, Dimensions: q.Dimensions},
		Quantity: q.Quantity,
		PerUnit:  Round2(q.PerUnit),
		Total:    Round2(q.Total),
	}, nil
}

func FromEngraveQuote(q quote.EngraveQuote, text string) Line {
	return Line{
		Type: LineEngrave,
		Engrave: &EngraveParams{
			Surface:    q.Surface.Key,
			AreaCm2:    q.AreaCm2,
			Complexity: q.Complexity,
			Text:       text,
		},
		Quantity: q.Quantity,
		PerUnit:  Round2(q.PerUnit),
		Total:    Round2(q.Total),
	}
}

// FromProduct prices a catalog item at its list price. Volume discounts only
// apply to calculated work.
func FromProduct(id, title string, price float64, qty int) (Line, error) {
	if qty < 1 {
		return Line{}, quote.ErrInvalidQuantity
	}
	return Line{
		Type:     LineCatalog,
		Catalog:  &CatalogParams{ProductID: id, Title: title},
		Quantity: qty,
		PerUnit:  Round2(price),
		Total:    Round2(decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(qty))).InexactFloat64()),
	}, nil
}

type Cart struct {
	Lines []Line `json:"lines"`
}

// Add appends a line. Catalog lines for a product already in the cart
// increase its quantity instead.
func (c *Cart) Add(l Line) error {
	if l.Type == LineCatalog && l.Catalog != nil {
		for i := range c.Lines {
			cur := &c.Lines[i]
			if cur.Type == LineCatalog && cur.Catalog != nil && cur.Catalog.ProductID == l.Catalog.ProductID {
				merged, err := FromProduct(cur.Catalog.ProductID, cur.Catalog.Title, cur.PerUnit, cur.Quantity+l.Quantity)
				if err != nil {
					return err
				}
				*cur = merged
				return nil
			}
		}
	}

	if len(c.Lines) >= MaxLines {
		return ErrCartFull
	}
	c.Lines = append(c.Lines, l)
	return nil
}

func (c *Cart) Remove(i int) error {
	if i < 0 || i >= len(c.Lines) {
		return ErrNoSuchLine
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	return nil
}

func (c *Cart) Clear() {
	c.Lines = nil
}

func (c Cart) Empty() bool {
	return len(c.Lines) == 0
}

// Total sums the already discounted line totals. No discount is applied to
// the aggregate.
func (c Cart) Total() float64 {
	sum := decimal.Zero
	for _, l := range c.Lines {
		sum = sum.Add(decimal.NewFromFloat(l.Total))
	}
	return sum.Round(2).InexactFloat64()
}

// Encode serializes the cart for the client cookie. A cart whose encoding
// would not fit in a cookie is reported as ErrCartFull.
func (c Cart) Encode() (string, error) {
	const operation = "cart.Encode"

	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("%s: %w", operation, err)
	}
	v := base64.RawURLEncoding.EncodeToString(b)
	if len(v) > MaxEncodedBytes {
		return "", fmt.Errorf("%s: %d bytes: %w", operation, len(v), ErrCartFull)
	}
	return v, nil
}

// Decode parses a cookie value. An empty value is an empty cart.
func Decode(s string) (Cart, error) {
	const operation = "cart.Decode"

	var c Cart
	if s == "" {
		return c, nil
	}

	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Cart{}, fmt.Errorf("%s: %w", operation, err)
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return Cart{}, fmt.Errorf("%s: %w", operation, err)
	}
	if len(c.Lines) > MaxLines {
		return Cart{}, fmt.Errorf("%s: %w", operation, ErrCartFull)
	}
	return c, nil
}
