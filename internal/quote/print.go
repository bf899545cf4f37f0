package quote

import (
	"fmt"
	"math"
)

type PrintRequest struct {
	Printer    string     `json:"printer"`
	Dimensions Dimensions `json:"dimensions"`
	Quantity   int        `json:"quantity"`
}

type PrintQuote struct {
	Valid    bool            `json:"valid"`
	Issue    string          `json:"issue,omitempty"`
	Printer  PrinterProfile  `json:"printer"`
	Material MaterialProfile `json:"material"`

	Dimensions Dimensions `json:"dimensions"`
	VolumeCm3  float64    `json:"volumeCm3"`
	Grams      float64    `json:"grams"`
	Hours      float64    `json:"hours"`
	Subtotal   float64    `json:"subtotal"`
	PerUnit    float64    `json:"perUnit"`
	Quantity   int        `json:"quantity"`
	Total      float64    `json:"total"`
}

// QuotePrint prices a 3D print. Dimensions outside the printer envelope do
// not produce an error: the quote is returned with Valid=false and an Issue
// naming the envelope, and the prices are still derived.
func (c *Catalog) QuotePrint(req PrintRequest) (PrintQuote, error) {
	const operation = "quote.QuotePrint"

	printer, err := c.Printer(req.Printer)
	if err != nil {
		return PrintQuote{}, fmt.Errorf("%s: %w", operation, err)
	}
	if req.Quantity < 1 {
		return PrintQuote{}, fmt.Errorf("%s: %w", operation, ErrInvalidQuantity)
	}
	material, err := c.Material(printer.DefaultMaterial)
	if err != nil {
		return PrintQuote{}, fmt.Errorf("%s: %w", operation, err)
	}

	q := PrintQuote{
		Valid:      printer.Fits(req.Dimensions),
		Printer:    printer,
		Material:   material,
		Dimensions: req.Dimensions,
		VolumeCm3:  req.Dimensions.Volume(),
		Quantity:   req.Quantity,
	}
	if !q.Valid {
		q.Issue = EnvelopeIssue(printer)
	}

	switch printer.Process {
	case ProcessResin:
		q.Grams = EstimateResinGrams(q.VolumeCm3, material.Density)
		q.Hours = EstimateResinHours(req.Dimensions.Z)
	default:
		q.Grams = EstimateFilamentGrams(q.VolumeCm3, material.Density, printer.InfillPercent)
		q.Hours = EstimateFilamentHours(q.Grams, printer.GramsPerHour)
	}

	q.Subtotal = q.Grams*material.PricePerGram + q.Hours*printer.MachineRatePerHour + c.pricing.LaborFee
	if printer.Process == ProcessResin {
		q.Subtotal += printer.PostProcessFee
	}

	withMarkup := q.Subtotal * (1 + c.pricing.MarkupPercent/100)
	q.PerUnit = math.Max(withMarkup, printer.MinPrice)
	q.Total = c.ApplyDiscount(q.PerUnit * float64(req.Quantity))
	if !finite(q.VolumeCm3, q.Grams, q.Hours, q.Subtotal, q.PerUnit, q.Total) {
		return PrintQuote{}, fmt.Errorf("%s: %w", operation, ErrOutOfRange)
	}

	return q, nil
}

// EnvelopeIssue is the customer-facing message for oversized parts.
func EnvelopeIssue(p PrinterProfile) string {
	return fmt.Sprintf("Размерите надвишават обема на %s: %s×%s×%s mm",
		p.Name, trimFloat(p.Envelope.X), trimFloat(p.Envelope.Y), trimFloat(p.Envelope.Z))
}
