package quote

// ApplyDiscount folds the tiers over the running total in ascending
// threshold order. A tier applies when the already discounted total still
// reaches its threshold, so tiers compound: 500 -> 475 -> 437.
func ApplyDiscount(total float64, tiers []DiscountTier) float64 {
	t := total
	for _, tier := range tiers {
		if t >= tier.Threshold {
			t *= tier.Factor
		}
	}
	return t
}

// ApplyDiscount uses the catalog's tiers.
func (c *Catalog) ApplyDiscount(total float64) float64 {
	return ApplyDiscount(total, c.tiers)
}
