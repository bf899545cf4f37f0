package quote

import (
	"fmt"
	"math"
)

type EngraveRequest struct {
	Surface    string  `json:"surface"`
	AreaCm2    float64 `json:"areaCm2"`
	Complexity int     `json:"complexity"`
	Quantity   int     `json:"quantity"`
}

type EngraveQuote struct {
	Surface    EngraveSurfaceProfile `json:"surface"`
	AreaCm2    float64               `json:"areaCm2"`
	Complexity int                   `json:"complexity"`
	Factor     float64               `json:"factor"`
	Raw        float64               `json:"raw"`
	PerUnit    float64               `json:"perUnit"`
	Quantity   int                   `json:"quantity"`
	Total      float64               `json:"total"`
}

// QuoteEngrave prices a laser engraving job. The area is taken as given:
// unlike printing there is no work-area limit.
func (c *Catalog) QuoteEngrave(req EngraveRequest) (EngraveQuote, error) {
	const operation = "quote.QuoteEngrave"

	surface, err := c.Surface(req.Surface)
	if err != nil {
		return EngraveQuote{}, fmt.Errorf("%s: %w", operation, err)
	}
	if req.Quantity < 1 {
		return EngraveQuote{}, fmt.Errorf("%s: %w", operation, ErrInvalidQuantity)
	}

	q := EngraveQuote{
		Surface:    surface,
		AreaCm2:    req.AreaCm2,
		Complexity: ClampComplexity(req.Complexity),
		Quantity:   req.Quantity,
	}
	q.Factor = ComplexityFactor(q.Complexity)
	q.Raw = surface.SetupFee + req.AreaCm2*surface.PricePerCm2*q.Factor
	q.PerUnit = math.Max(q.Raw, c.pricing.EngraveMinPrice)
	q.Total = c.ApplyDiscount(q.PerUnit * float64(req.Quantity))
	if !finite(q.AreaCm2, q.Raw, q.PerUnit, q.Total) {
		return EngraveQuote{}, fmt.Errorf("%s: %w", operation, ErrOutOfRange)
	}

	return q, nil
}
